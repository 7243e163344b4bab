// Package server exposes the HTTP surface: idea analysis and
// refinement, round launching, polling, results, and a websocket stream
// of round progress.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/xhad/ideascout/internal/models"
	"github.com/xhad/ideascout/internal/types"
	"github.com/xhad/ideascout/pkg/analysis"
	"github.com/xhad/ideascout/pkg/pipeline"
	"github.com/xhad/ideascout/pkg/store"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

type Server struct {
	ideas       types.IdeaStore
	products    types.ProductStore
	coordinator *pipeline.Coordinator
	refiner     *analysis.Refiner
	logger      *slog.Logger
}

func New(ideas types.IdeaStore, products types.ProductStore, coordinator *pipeline.Coordinator, refiner *analysis.Refiner, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		ideas:       ideas,
		products:    products,
		coordinator: coordinator,
		refiner:     refiner,
		logger:      logger,
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /startup/analyze", s.handleAnalyze)
	mux.HandleFunc("POST /startup/followup", s.handleFollowup)
	mux.HandleFunc("GET /startup/random_idea", s.handleRandomIdea)
	mux.HandleFunc("GET /search/{id}", s.handleSearch)
	mux.HandleFunc("GET /status/{id}", s.handleStatus)
	mux.HandleFunc("GET /get_result/{id}", s.handleGetResult)
	mux.HandleFunc("GET /ws/rounds/{id}", s.handleRoundStream)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	return mux
}

func (s *Server) Run(addr string) error {
	s.logger.Info("starting HTTP server", "addr", addr)
	return http.ListenAndServe(addr, s.Handler())
}

type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *Server) respondSuccess(w http.ResponseWriter, data any) {
	s.respond(w, http.StatusOK, envelope{Status: "success", Data: data})
}

func (s *Server) respondError(w http.ResponseWriter, code int, message string) {
	s.respond(w, code, envelope{Status: "error", Message: message})
}

func (s *Server) respond(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to write response", "error", err)
	}
}

// respondFailure maps store/oracle errors onto the error envelope.
func (s *Server) respondFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.respondError(w, http.StatusNotFound, "Startup idea not found")
	default:
		s.respondError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Description == "" {
		s.respondError(w, http.StatusBadRequest, "Description is required")
		return
	}

	name, question, err := s.refiner.NameAndQuestion(r.Context(), body.Description)
	if err != nil {
		s.respondError(w, http.StatusBadGateway, "OpenAI error: "+err.Error())
		return
	}

	idea := &models.Idea{
		ID:                uuid.NewString(),
		Description:       body.Description,
		Name:              name,
		FollowupQuestion:  question,
		SimilarProductIDs: []string{},
		IsAllFinished:     false,
	}
	if err := s.ideas.PutIdea(r.Context(), idea); err != nil {
		s.respondFailure(w, err)
		return
	}

	s.respondSuccess(w, idea)
}

func (s *Server) handleFollowup(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID     string `json:"id"`
		Answer string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.ID == "" || body.Answer == "" {
		s.respondError(w, http.StatusBadRequest, "Id and answer are required")
		return
	}

	idea, err := s.ideas.GetIdea(r.Context(), body.ID)
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	updatedDescription, nextQuestion, err := s.refiner.Followup(
		r.Context(), idea.Description, idea.FollowupQuestion, body.Answer)
	if err != nil {
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	if err := s.ideas.MergeIdea(r.Context(), body.ID, map[string]any{
		"description":       updatedDescription,
		"followup_question": nextQuestion,
	}); err != nil {
		s.respondFailure(w, err)
		return
	}

	s.respond(w, http.StatusOK, map[string]any{
		"status":         "success",
		"newDescription": updatedDescription,
		"newQuestion":    nextQuestion,
	})
}

func (s *Server) handleRandomIdea(w http.ResponseWriter, r *http.Request) {
	idea, err := s.refiner.RandomIdea(r.Context())
	if err != nil {
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(idea))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	idea, err := s.coordinator.StartRound(r.Context(), id)
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	s.respondSuccess(w, map[string]any{
		"id":          idea.ID,
		"name":        idea.Name,
		"description": idea.Description,
		"message":     "Background searches started for Devpost, Product Hunt, YC, and GitHub",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	idea, err := s.ideas.GetIdea(r.Context(), id)
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	s.respondSuccess(w, map[string]any{
		"id":              idea.ID,
		"name":            idea.Name,
		"result_count":    len(idea.SimilarProductIDs),
		"is_all_finished": idea.IsAllFinished,
	})
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	idea, err := s.ideas.GetIdea(r.Context(), id)
	if err != nil {
		s.respondFailure(w, err)
		return
	}

	// Ids without a stored record are dropped silently.
	similarProducts, err := s.products.ProductsByIDs(r.Context(), idea.SimilarProductIDs, idea.Description)
	if err != nil {
		s.respondFailure(w, err)
		return
	}
	if similarProducts == nil {
		similarProducts = []models.Product{}
	}

	s.respondSuccess(w, map[string]any{
		"id":                idea.ID,
		"name":              idea.Name,
		"description":       idea.Description,
		"followup_question": idea.FollowupQuestion,
		"similar_products":  similarProducts,
	})
}

// handleRoundStream streams round progress events over a websocket
// until the round finishes or the client goes away.
func (s *Server) handleRoundStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	events, cancel := s.coordinator.Rounds().Subscribe(id)
	defer cancel()

	// Detect client disconnect.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	if round := s.coordinator.Rounds().Get(id); round != nil {
		if err := conn.WriteJSON(round); err != nil {
			return
		}
		if round.Finished {
			return
		}
	}

	ctx := r.Context()
	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				s.logger.Warn("websocket write failed", "error", err)
				return
			}
			if ev.Stage == pipeline.StageRoundFinished {
				return
			}
		case <-clientGone:
			return
		case <-ctx.Done():
			return
		}
	}
}
