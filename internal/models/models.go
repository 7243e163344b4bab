package models

import "time"

// Source identifies which external directory a product was discovered in.
type Source string

const (
	SourceDevpost     Source = "devpost"
	SourceProductHunt Source = "producthunt"
	SourceYC          Source = "yc"
	SourceGitHub      Source = "github"
)

// Idea is a user-submitted startup idea being refined and matched
// against existing products.
type Idea struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	FollowupQuestion  string   `json:"followup_question"`
	SimilarProductIDs []string `json:"similar_product_ids"`
	IsAllFinished     bool     `json:"is_all_finished"`
}

// Product is a discovered existing product or project considered
// potentially similar to an idea. Each search round mints fresh
// identities; the same real-world product found twice gets two records.
type Product struct {
	ID                 string    `json:"id"`
	CompanyName        string    `json:"companyName"`
	Tagline            string    `json:"tagline"`
	Website            string    `json:"website"`
	Description        string    `json:"description"`
	IsRelevant         bool      `json:"isRelevant"`
	SimilarityAnalysis []string  `json:"similarityAnalysis"`
	Source             Source    `json:"source"`
	SearchQuery        string    `json:"searchQuery,omitempty"`
	CreatedAt          time.Time `json:"created_at,omitempty"`
}
