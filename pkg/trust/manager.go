package trust

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/papercomputeco/mnemo/pkg/logger"
	"github.com/papercomputeco/mnemo/pkg/oracle"
)

// TaskScore is the oracle task that judges a turn's effect on trust.
const TaskScore = "trust_scoring"

// Entry is one line of the trust log.
type Entry struct {
	UserInput string    `json:"user_input"`
	Change    int       `json:"change"`
	Score     int       `json:"trust_score"`
	Time      time.Time `json:"time"`
}

type Config struct {
	// LogPath is the JSONL trust log. Empty keeps the score in memory only.
	LogPath string

	Oracle  oracle.Oracle
	Timeout time.Duration

	Now    func() time.Time
	Logger *slog.Logger
}

// Manager owns the current trust score.
type Manager struct {
	path    string
	oracle  oracle.Oracle
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger

	mu    sync.Mutex
	score int
}

// NewManager resumes from the last line of the log. A missing, empty or
// unreadable log starts at MinScore.
func NewManager(cfg Config) (*Manager, error) {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Nop()
	}

	if cfg.LogPath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating trust log directory: %w", err)
		}
	}

	m := &Manager{
		path:    cfg.LogPath,
		oracle:  cfg.Oracle,
		timeout: cfg.Timeout,
		now:     cfg.Now,
		logger:  cfg.Logger,
	}
	m.score = m.loadLast()
	return m, nil
}

func (m *Manager) loadLast() int {
	if m.path == "" {
		return MinScore
	}

	f, err := os.Open(m.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			m.logger.Warn("could not open trust log", "path", m.path, "error", err)
		}
		return MinScore
	}
	defer f.Close()

	var last []byte
	r := bufio.NewReader(f)
	for {
		line, err := r.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			last = trimmed
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				m.logger.Warn("could not read trust log", "path", m.path, "error", err)
			}
			break
		}
	}
	if last == nil {
		return MinScore
	}

	var e Entry
	if err := json.Unmarshal(last, &e); err != nil {
		m.logger.Warn("corrupt trust log tail, starting over", "path", m.path, "error", err)
		return MinScore
	}
	return clamp(e.Score, MinScore, MaxScore)
}

func (m *Manager) Score() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.score
}

func (m *Manager) Stage() Stage {
	return StageFor(m.Score())
}

// Judge asks the oracle how the input changes trust. Failures give 0.
func (m *Manager) Judge(ctx context.Context, input string) int {
	fields, err := oracle.Ask(ctx, m.oracle, m.timeout, TaskScore, scorePrompt(input, m.Score()))
	if err != nil {
		m.logger.Warn("oracle call failed, trust unchanged", "task", TaskScore, "error", err)
		return 0
	}
	return deltaFrom(fields.Float("delta", 0))
}

// deltaFrom bounds d before converting so huge answers cannot wrap.
func deltaFrom(d float64) int {
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return 0
	}
	return int(math.Round(math.Max(-MaxDelta, math.Min(MaxDelta, d))))
}

// Update judges the input and applies the result.
func (m *Manager) Update(ctx context.Context, input string) (int, error) {
	return m.Apply(input, m.Judge(ctx, input))
}

// Apply moves the score by delta, clamped to [MinScore,MaxScore], and
// appends the change to the log. The in-memory score moves even if the
// log write fails.
func (m *Manager) Apply(input string, delta int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.score = clamp(m.score+delta, MinScore, MaxScore)
	if m.path == "" {
		return m.score, nil
	}

	line, err := json.Marshal(Entry{
		UserInput: input,
		Change:    delta,
		Score:     m.score,
		Time:      m.now().UTC(),
	})
	if err != nil {
		return m.score, fmt.Errorf("encoding trust entry: %w", err)
	}
	line = append(line, '\n')

	f, err := os.OpenFile(m.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return m.score, fmt.Errorf("opening trust log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(line); err != nil {
		return m.score, fmt.Errorf("appending trust entry: %w", err)
	}
	return m.score, nil
}
