package domain

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/papercomputeco/mnemo/pkg/logger"
	"github.com/papercomputeco/mnemo/pkg/memory"
	"github.com/papercomputeco/mnemo/pkg/oracle"
	"github.com/papercomputeco/mnemo/pkg/trust"
)

const (
	DefaultActivationTimeout = 30 * time.Second
	DefaultReconcileInterval = 24 * time.Hour
)

// Clock records when the domains were last reconciled.
type Clock interface {
	LastReconcile() (time.Time, error)
	MarkReconciled(t time.Time) error
}

// Source is the memory log reconciliation reads from.
type Source interface {
	LoadAll(ctx context.Context) ([]memory.Record, error)
}

// Config holds the documents, oracle and timing of a Manager.
type Config struct {
	// UserPath and SelfPath are the persisted documents. Empty paths keep
	// the built-in defaults in memory only.
	UserPath string
	SelfPath string

	Oracle        oracle.Oracle
	OracleTimeout time.Duration

	// ActivationTimeout bounds each side of Activate.
	ActivationTimeout time.Duration

	ReconcileInterval time.Duration

	// Clock persists the reconcile time across restarts. Optional.
	Clock Clock

	Now    func() time.Time
	Logger *slog.Logger
}

// Report describes a reconcile pass.
type Report struct {
	Records    int      `json:"records"`
	UserLayers []string `json:"user_layers"`
	SelfLayers []string `json:"self_layers"`
	Skipped    bool     `json:"skipped"`
}

// Manager owns both persona documents.
type Manager struct {
	cfg    Config
	logger *slog.Logger

	// mu guards the documents and lastReconcile. Activation snapshots the
	// documents under the read lock; reconciliation holds the write lock.
	mu            sync.RWMutex
	user          *Structure
	self          *Structure
	lastReconcile time.Time
}

// NewManager loads both documents, writing the built-in default to any
// configured path that had none.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.ActivationTimeout <= 0 {
		cfg.ActivationTimeout = DefaultActivationTimeout
	}
	if cfg.ReconcileInterval <= 0 {
		cfg.ReconcileInterval = DefaultReconcileInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	m := &Manager{cfg: cfg, logger: cfg.Logger}

	var err error
	if m.user, err = m.load(cfg.UserPath, UserSchema); err != nil {
		return nil, err
	}
	if m.self, err = m.load(cfg.SelfPath, SelfSchema); err != nil {
		return nil, err
	}

	m.lastReconcile = cfg.Now()
	if cfg.Clock != nil {
		last, err := cfg.Clock.LastReconcile()
		switch {
		case err != nil:
			m.logger.Warn("could not read reconcile state", "error", err)
		case !last.IsZero():
			m.lastReconcile = last
		}
	}

	return m, nil
}

func (m *Manager) load(path string, schema Schema) (*Structure, error) {
	s, loaded, err := Load(path, schema, DefaultDocument(schema.Kind))
	if err != nil {
		return nil, err
	}
	if loaded || path == "" {
		return s, nil
	}

	m.logger.Info("using default domain document", "domain", schema.Kind, "path", path)
	if err := Save(path, s); err != nil {
		return nil, err
	}
	return s, nil
}

// User returns a copy of the user document.
func (m *Manager) User() *Structure {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user.Clone()
}

// Self returns a copy of the self document.
func (m *Manager) Self() *Structure {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.self.Clone()
}

func (m *Manager) snapshot() (user, self map[string]any) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.user.Map(), m.self.Map()
}

// ActivateUser returns the part of the user document relevant to input.
// When the oracle fails the view is domain_type and L3_expression.
func (m *Manager) ActivateUser(ctx context.Context, input string, history []string) View {
	doc, _ := m.snapshot()
	return m.activate(ctx, TaskUserActivation, doc,
		userActivationPrompt(doc, input, history),
		[]string{KeyDomainType},
		[]string{LayerExpression},
	)
}

// ActivateSelf returns the part of the self document relevant to input.
// The relationship stage selected by score is always kept.
func (m *Manager) ActivateSelf(ctx context.Context, input string, history []string, score int) View {
	_, doc := m.snapshot()
	stage := trust.StageFor(score)
	return m.activate(ctx, TaskSelfActivation, doc,
		selfActivationPrompt(doc, input, history, stage),
		[]string{KeyDomainType},
		[]string{LayerExpression},
		[]string{LayerStrategy, KeyRelationshipStages, string(stage)},
	)
}

func (m *Manager) activate(ctx context.Context, task string, doc map[string]any, prompt string, keep ...[]string) View {
	view := View{}

	fields, err := oracle.Ask(ctx, m.cfg.Oracle, m.cfg.OracleTimeout, task, prompt)
	if err != nil {
		m.logger.Warn("oracle call failed, using minimal view", "task", task, "error", err)
	} else {
		view = View(Prune(doc, fields.Map()))
	}

	for _, path := range keep {
		retain(view, doc, path...)
	}
	return view
}

// Activate runs both activations concurrently. A side that overruns the
// activation timeout yields an empty view at once. Its oracle call keeps
// running until it returns, so the Oracle must honor ctx cancellation for
// that goroutine to exit.
func (m *Manager) Activate(ctx context.Context, input string, history []string, score int) (user, self View) {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		user = m.bounded(gctx, KindUser, func(ctx context.Context) View {
			return m.ActivateUser(ctx, input, history)
		})
		return nil
	})
	g.Go(func() error {
		self = m.bounded(gctx, KindSelf, func(ctx context.Context) View {
			return m.ActivateSelf(ctx, input, history, score)
		})
		return nil
	})
	_ = g.Wait()
	return user, self
}

func (m *Manager) bounded(ctx context.Context, kind Kind, fn func(context.Context) View) View {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.ActivationTimeout)
	defer cancel()

	done := make(chan View, 1)
	go func() { done <- fn(ctx) }()

	select {
	case v := <-done:
		return v
	case <-ctx.Done():
		m.logger.Warn("domain activation timed out", "domain", kind, "timeout", m.cfg.ActivationTimeout)
		return View{}
	}
}

// IsMemoryWorthy asks whether rec deserves persisting. Failures keep it.
func (m *Manager) IsMemoryWorthy(ctx context.Context, rec memory.Record) bool {
	user, self := m.snapshot()
	fields, err := oracle.Ask(ctx, m.cfg.Oracle, m.cfg.OracleTimeout, TaskWorthiness, worthinessPrompt(rec, user, self))
	if err != nil {
		m.logger.Warn("oracle call failed, keeping memory", "task", TaskWorthiness, "error", err)
		return true
	}
	return fields.Bool("is_worthy", true)
}

var _ memory.WorthinessGate = (*Manager)(nil)

// DueForReconcile reports whether the reconcile interval has elapsed.
func (m *Manager) DueForReconcile(now time.Time) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return now.Sub(m.lastReconcile) >= m.cfg.ReconcileInterval
}

// LastReconcile returns when the interval last restarted.
func (m *Manager) LastReconcile() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastReconcile
}

// Reconcile folds the memory log into both documents. The user document
// is updated first and the self document is conditioned on the result.
// An empty log changes nothing, the reconcile time included.
func (m *Manager) Reconcile(ctx context.Context, src Source) (Report, error) {
	records, err := src.LoadAll(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("loading memories: %w", err)
	}
	if len(records) == 0 {
		m.logger.Info("no memories to reconcile")
		return Report{Skipped: true}, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	report := Report{Records: len(records)}

	fields, err := oracle.Ask(ctx, m.cfg.Oracle, m.cfg.OracleTimeout, TaskUserReconcile,
		userReconcilePrompt(m.user.Map(), records))
	if err != nil {
		m.logger.Warn("oracle call failed, user domain unchanged", "task", TaskUserReconcile, "error", err)
	} else {
		report.UserLayers = m.user.ReplaceLayers(fields.Map())
	}

	fields, err = oracle.Ask(ctx, m.cfg.Oracle, m.cfg.OracleTimeout, TaskSelfReconcile,
		selfReconcilePrompt(m.self.Map(), m.user.Map(), records))
	if err != nil {
		m.logger.Warn("oracle call failed, self domain unchanged", "task", TaskSelfReconcile, "error", err)
	} else {
		report.SelfLayers = m.self.ReplaceLayers(fields.Map())
	}

	m.lastReconcile = m.cfg.Now()
	if m.cfg.Clock != nil {
		if err := m.cfg.Clock.MarkReconciled(m.lastReconcile); err != nil {
			m.logger.Warn("could not record reconcile time", "error", err)
		}
	}

	if err := m.save(); err != nil {
		return report, err
	}

	m.logger.Info("domains reconciled",
		"records", report.Records,
		"user_layers", report.UserLayers,
		"self_layers", report.SelfLayers,
	)
	return report, nil
}

func (m *Manager) save() error {
	if m.cfg.UserPath != "" {
		if err := Save(m.cfg.UserPath, m.user); err != nil {
			return err
		}
	}
	if m.cfg.SelfPath != "" {
		if err := Save(m.cfg.SelfPath, m.self); err != nil {
			return err
		}
	}
	return nil
}
