package pipeline

import (
	"sync"
	"time"

	"github.com/xhad/ideascout/internal/models"
)

// Stage labels a round progress event.
type Stage string

const (
	StageRoundStarted   Stage = "round_started"
	StageSourceStarted  Stage = "source_started"
	StageSourceFinished Stage = "source_finished"
	StageRoundFinished  Stage = "round_finished"
)

// Event is a single progress notification for one idea's search round.
type Event struct {
	IdeaID string        `json:"idea_id"`
	Stage  Stage         `json:"stage"`
	Source models.Source `json:"source,omitempty"`
	Count  int           `json:"count"`
	Error  string        `json:"error,omitempty"`
	Time   time.Time     `json:"time"`
}

// Round is a snapshot of one round's state.
type Round struct {
	IdeaID       string                   `json:"idea_id"`
	StartedAt    time.Time                `json:"started_at"`
	CompletedAt  *time.Time               `json:"completed_at,omitempty"`
	Finished     bool                     `json:"finished"`
	ResultCount  int                      `json:"result_count"`
	SourceErrors map[models.Source]string `json:"source_errors,omitempty"`
}

// Rounds tracks in-flight and completed rounds and fans progress events
// out to subscribers. A later round for the same idea replaces the
// earlier entry; last writer wins, matching the store's behavior.
type Rounds struct {
	mu          sync.RWMutex
	rounds      map[string]*Round
	subscribers map[string][]chan Event
}

func NewRounds() *Rounds {
	return &Rounds{
		rounds:      make(map[string]*Round),
		subscribers: make(map[string][]chan Event),
	}
}

// Begin registers a fresh round for the idea.
func (r *Rounds) Begin(ideaID string) {
	r.mu.Lock()
	r.rounds[ideaID] = &Round{
		IdeaID:       ideaID,
		StartedAt:    time.Now(),
		SourceErrors: make(map[models.Source]string),
	}
	r.mu.Unlock()

	r.Publish(Event{IdeaID: ideaID, Stage: StageRoundStarted})
}

// SourceFailed records a branch failure without affecting the round.
func (r *Rounds) SourceFailed(ideaID string, source models.Source, err error) {
	r.mu.Lock()
	if round, ok := r.rounds[ideaID]; ok {
		round.SourceErrors[source] = err.Error()
	}
	r.mu.Unlock()
}

// Finish marks the round complete with the merged result count.
func (r *Rounds) Finish(ideaID string, resultCount int) {
	r.mu.Lock()
	if round, ok := r.rounds[ideaID]; ok {
		now := time.Now()
		round.CompletedAt = &now
		round.Finished = true
		round.ResultCount = resultCount
	}
	r.mu.Unlock()

	r.Publish(Event{IdeaID: ideaID, Stage: StageRoundFinished, Count: resultCount})
}

// Get returns a snapshot of the idea's latest round, or nil when no
// round has run this process lifetime.
func (r *Rounds) Get(ideaID string) *Round {
	r.mu.RLock()
	defer r.mu.RUnlock()

	round, ok := r.rounds[ideaID]
	if !ok {
		return nil
	}

	copied := *round
	copied.SourceErrors = make(map[models.Source]string, len(round.SourceErrors))
	for k, v := range round.SourceErrors {
		copied.SourceErrors[k] = v
	}
	return &copied
}

// Subscribe returns a channel of progress events for the idea and a
// cancel function. Slow subscribers drop events rather than stalling
// the pipeline.
func (r *Rounds) Subscribe(ideaID string) (<-chan Event, func()) {
	ch := make(chan Event, 16)

	r.mu.Lock()
	r.subscribers[ideaID] = append(r.subscribers[ideaID], ch)
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		subs := r.subscribers[ideaID]
		for i, sub := range subs {
			if sub == ch {
				r.subscribers[ideaID] = append(subs[:i], subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

// Publish delivers an event to all of the idea's subscribers.
func (r *Rounds) Publish(ev Event) {
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, ch := range r.subscribers[ev.IdeaID] {
		select {
		case ch <- ev:
		default:
		}
	}
}
