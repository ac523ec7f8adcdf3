// Package session orchestrates one assistant conversation: it validates and
// screens a question, consults the quota ledger, dispatches to the backend,
// and performs the post-answer bookkeeping.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/viajeia/viajeia-go/pkg/assistant"
	"github.com/viajeia/viajeia-go/pkg/ledger"
	"github.com/viajeia/viajeia-go/pkg/promptfilter"
	"github.com/viajeia/viajeia-go/pkg/validate"
)

// Sentinel errors for missing collaborators.
var (
	ErrLedgerRequired  = errors.New("ledger is required")
	ErrPlannerRequired = errors.New("planner is required")
)

// Consult is one entry of the write-only audit trail.
type Consult struct {
	Question    string   `json:"pregunta"`
	Destination string   `json:"destino,omitempty"`
	TravelDate  string   `json:"fechaViaje,omitempty"`
	Budget      string   `json:"presupuesto,omitempty"`
	Preferences []string `json:"preferencias,omitempty"`
	AskedAt     string   `json:"fechaConsulta"`
	UserID      string   `json:"usuarioId"`
}

// Journal persists consults. Implemented by store/rtdb; core logic never
// reads it back.
type Journal interface {
	SaveConsult(ctx context.Context, userID string, c Consult) error
}

// Planner dispatches a question to the backend. Implemented by
// assistant.Client.
type Planner interface {
	Plan(ctx context.Context, req assistant.PlanRequest) (*assistant.PlanResponse, error)
}

// Entry is one question/answer pair in the local history.
type Entry struct {
	Question        string
	Answer          string
	Photos          []string
	DestinationInfo map[string]interface{}
}

// Result is the outcome of Ask. When the quota denies the question,
// Decision carries the denial and Response is nil; denial is not an error.
type Result struct {
	Decision ledger.Decision
	Response *assistant.PlanResponse
}

// Config holds session configuration.
type Config struct {
	// Ledger decides and records quota usage. Required.
	Ledger *ledger.Ledger

	// Planner dispatches questions to the backend. Required.
	Planner Planner

	// Journal receives the audit trail. Optional.
	Journal Journal

	// Logger defaults to ledger.NoopLogger.
	Logger ledger.Logger

	// Clock defaults to ledger.SystemClock.
	Clock ledger.Clock
}

// Session runs the ask flow for one process. Safe for concurrent use.
type Session struct {
	config  Config
	mu      sync.Mutex
	history []Entry
}

// New creates a session orchestrator.
func New(config Config) (*Session, error) {
	if config.Ledger == nil {
		return nil, ErrLedgerRequired
	}
	if config.Planner == nil {
		return nil, ErrPlannerRequired
	}

	// Set defaults
	if config.Logger == nil {
		config.Logger = &ledger.NoopLogger{}
	}
	if config.Clock == nil {
		config.Clock = ledger.SystemClock{}
	}

	return &Session{config: config}, nil
}

// Ask runs the full submission flow: validate, screen, check quota,
// dispatch, then record usage and the audit consult. The quota record and
// the journal write run in parallel after a successful answer and their
// failures are logged, never surfaced; the answer already happened.
func (s *Session) Ask(ctx context.Context, userID, question string, tripCtx *assistant.TripContext) (Result, error) {
	q, err := validate.Question(question)
	if err != nil {
		return Result{}, fmt.Errorf("invalid question: %w", err)
	}
	if err := promptfilter.Check(q); err != nil {
		return Result{}, fmt.Errorf("question rejected: %w", err)
	}

	decision := s.config.Ledger.Check(ctx, userID)
	if !decision.Allowed {
		s.config.Logger.Info("question denied by quota",
			ledger.Field{Key: "user_id", Value: userID},
			ledger.Field{Key: "limit", Value: string(decision.LimitKind)},
		)
		return Result{Decision: decision}, nil
	}

	resp, err := s.config.Planner.Plan(ctx, assistant.PlanRequest{Question: q, Context: tripCtx})
	if err != nil {
		// No quota side effect on backend failure.
		return Result{Decision: decision}, err
	}

	s.appendHistory(Entry{
		Question:        q,
		Answer:          resp.Answer,
		Photos:          resp.Photos,
		DestinationInfo: resp.DestinationInfo,
	})

	s.afterAnswer(ctx, userID, q)

	return Result{Decision: decision, Response: resp}, nil
}

// afterAnswer records quota usage and writes the audit consult. Best-effort
// by design: a failed record under-counts rather than blocking the user.
func (s *Session) afterAnswer(ctx context.Context, userID, question string) {
	info := assistant.Extract(question)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.config.Ledger.Record(gctx, userID)
		return nil
	})
	if s.config.Journal != nil && userID != "" {
		g.Go(func() error {
			consult := Consult{
				Question:    question,
				Destination: info.Destination,
				TravelDate:  info.Dates,
				Budget:      info.Budget,
				Preferences: info.Preferences,
				AskedAt:     s.config.Clock.Now().UTC().Format(time.RFC3339),
				UserID:      userID,
			}
			if err := s.config.Journal.SaveConsult(gctx, userID, consult); err != nil {
				s.config.Logger.Warn("failed to save consult",
					ledger.Field{Key: "user_id", Value: userID},
					ledger.Field{Key: "error", Value: err.Error()},
				)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// Usage returns the current usage snapshot for the counter display.
func (s *Session) Usage(ctx context.Context, userID string) ledger.UsageWindow {
	return s.config.Ledger.Snapshot(ctx, userID)
}

// History returns a copy of the local question/answer history.
func (s *Session) History() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, len(s.history))
	copy(out, s.history)
	return out
}

// ClearHistory drops the local history, e.g. on sign-out.
func (s *Session) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
}

func (s *Session) appendHistory(e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, e)
}
