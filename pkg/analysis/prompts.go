package analysis

const startupAdvisorPrompt = `You are a startup advisor. Given a startup idea description, ` +
	`you'll generate an important follow-up questions. You must respond with a JSON object containing 'name' and 'question' fields.`

const startupAdvisorFollowupPrompt = `You are a startup advisor helping to refine a business ` +
	`idea through questions and answers. You must respond with JSON containing updatedDescription and nextQuestion fields.`

const productRelevancePrompt = `You are an AI that determines product relevance. For each ` +
	`product, determine if it's relevant to the search query.`

const similarityAnalysisPrompt = `You are an AI that identifies key product similarities.
For each product, analyze its relevance to the search query and provide 3-5 bullet points(about 5-10words each point).
You must respond with a JSON object in this exact format:
{
  "similarities": {
    "companyName1": ["Both are using xxx API", "Targeting XXX market", "Both want to solve XXX problem"],
    "companyName2": ["bullet point 1", "bullet point 2"]
  }
}`

const generateRandomIdeaPrompt = `generate a random startup idea in descriptive language in one or two sentences, starting with "A platform.., A app..., etc"`

var startupQuestionThemes = []string{
	"What specific problem does your startup solve, and for whom?",
	"What's your unique solution or approach to solving this problem?",
	"What industry/market are you operating in?",
}
