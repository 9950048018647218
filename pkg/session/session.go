// Package session ties the memory pipeline, persona domains and trust
// score into one conversation. A Session is the only long-lived object a
// front end needs: it prepares the context for a reply and commits the
// finished round.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/papercomputeco/mnemo/pkg/domain"
	"github.com/papercomputeco/mnemo/pkg/logger"
	"github.com/papercomputeco/mnemo/pkg/memory"
	"github.com/papercomputeco/mnemo/pkg/trust"
)

// DefaultTopK is how many related memories a bundle carries.
const DefaultTopK = 3

// Bundle is everything a reply generator needs for one turn.
type Bundle struct {
	Input   string           `json:"input"`
	Active  *memory.Topic    `json:"active,omitempty"`
	Latest  *memory.Record   `json:"latest,omitempty"`
	User    domain.View      `json:"user_domain"`
	Self    domain.View      `json:"self_domain"`
	Related []memory.Related `json:"related"`
	Trust   int              `json:"trust"`
	Stage   trust.Stage      `json:"stage"`
}

// Config wires a Session. Store and Builder are required; without Domains
// the views are empty, and without Trust the score stays at zero.
type Config struct {
	Store   *memory.Store
	Builder *memory.Builder
	Domains *domain.Manager
	Trust   *trust.Manager

	TopK int

	Now    func() time.Time
	Logger *slog.Logger
}

// Session drives one conversation turn by turn against a memory store.
type Session struct {
	store   *memory.Store
	builder *memory.Builder
	domains *domain.Manager
	trust   *trust.Manager
	topK    int
	now     func() time.Time
	logger  *slog.Logger

	// mu serializes turns. The builder is not safe for concurrent use.
	mu sync.Mutex
}

// New requires a store and a builder and fills defaults for the rest.
func New(cfg Config) (*Session, error) {
	if cfg.Store == nil || cfg.Builder == nil {
		return nil, fmt.Errorf("%w: session needs a store and a builder", memory.ErrNotConfigured)
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	return &Session{
		store:   cfg.Store,
		builder: cfg.Builder,
		domains: cfg.Domains,
		trust:   cfg.Trust,
		topK:    cfg.TopK,
		now:     cfg.Now,
		logger:  cfg.Logger,
	}, nil
}

func (s *Session) Store() *memory.Store { return s.store }

func (s *Session) Domains() *domain.Manager { return s.domains }

// Prepare gathers the context for replying to input. It reconciles the
// domains first when the interval has elapsed, then updates trust,
// activates both domains and retrieves related memories. Every step
// degrades on failure, so Prepare always returns a bundle.
func (s *Session) Prepare(ctx context.Context, input string) Bundle {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.domains != nil && s.domains.DueForReconcile(s.now()) {
		if _, err := s.domains.Reconcile(ctx, s.store); err != nil {
			s.logger.Error("domain reconcile failed", "error", err)
		}
	}

	bundle := Bundle{Input: input, User: domain.View{}, Self: domain.View{}, Stage: trust.StageInitial}

	if s.trust != nil {
		score, err := s.trust.Update(ctx, input)
		if err != nil {
			s.logger.Warn("could not record trust change", "error", err)
		}
		bundle.Trust = score
		bundle.Stage = trust.StageFor(score)
	}

	if s.domains != nil {
		bundle.User, bundle.Self = s.domains.Activate(ctx, input, s.builder.History(), bundle.Trust)
	}

	related, err := s.store.RetrieveRelated(ctx, input, s.topK)
	if err != nil {
		s.logger.Warn("related memory lookup failed", "error", err)
	}
	bundle.Related = related
	if bundle.Related == nil {
		bundle.Related = []memory.Related{}
	}

	latest, err := s.store.Latest(ctx)
	if err != nil {
		s.logger.Warn("could not load latest memory", "error", err)
	}
	bundle.Latest = latest
	bundle.Active = s.store.Active()

	return bundle
}

// Commit feeds the finished round to the memory builder.
func (s *Session) Commit(ctx context.Context, input, reply string) memory.Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.builder.Build(ctx, memory.NewRound(input, reply))
}

// Reconcile runs a reconcile pass regardless of the interval.
func (s *Session) Reconcile(ctx context.Context) (domain.Report, error) {
	if s.domains == nil {
		return domain.Report{Skipped: true}, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.domains.Reconcile(ctx, s.store)
}

// Reset drops the active topic and boundary history. The log is untouched.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.ResetActive()
	s.builder.Reset()
}

// Clear empties the memory log and resets the conversation.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.store.ClearAll(ctx); err != nil {
		return err
	}
	s.store.ResetActive()
	s.builder.Reset()
	return nil
}

// Flush persists the active topic and starts the next round fresh.
func (s *Session) Flush(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved, err := s.store.FlushActive(ctx)
	if err == nil {
		s.builder.Reset()
	}
	return saved, err
}

// Close flushes the active topic. It is safe on a nil session.
func (s *Session) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	saved, err := s.Flush(ctx)
	if err != nil {
		return fmt.Errorf("flushing active topic: %w", err)
	}
	if saved {
		s.logger.Info("active topic saved")
	}
	return nil
}
