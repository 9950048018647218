package memory

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Round is one user/agent exchange. It is never mutated after creation.
type Round struct {
	User  string `json:"user"`
	Agent string `json:"agent"`
}

// NewRound trims both utterances.
func NewRound(user, agent string) Round {
	return Round{User: strings.TrimSpace(user), Agent: strings.TrimSpace(agent)}
}

// Text is the single text block every classifier sees.
func (r Round) Text() string {
	return fmt.Sprintf("user: %s\nagent: %s", r.User, r.Agent)
}

// Element is what the extractor pulled out of a single round.
type Element struct {
	Key    []string `json:"key_elements"`
	Detail []string `json:"detailed_elements"`
}

// Topic is the active unit of working memory.
type Topic struct {
	ID         string    `json:"id"`
	Label      string    `json:"topic"`
	Info       InfoBlock `json:"info_block"`
	CreateTime time.Time `json:"create_time"`
	UpdateTime time.Time `json:"update_time"`
}

// NewTopic creates a topic with a fresh ID and both timestamps set to now.
func NewTopic(label string, info InfoBlock, now time.Time) *Topic {
	return &Topic{
		ID:         uuid.NewString(),
		Label:      label,
		Info:       info,
		CreateTime: now,
		UpdateTime: now,
	}
}

// Clone returns a deep copy.
func (t *Topic) Clone() *Topic {
	if t == nil {
		return nil
	}
	c := *t
	c.Info = t.Info.clone()
	return &c
}

// Record projects the topic into its durable shape.
func (t *Topic) Record() Record {
	info := t.Info.clone()
	parts := make([]string, 0, len(info.Key)+len(info.Aux))
	parts = append(parts, info.Key...)
	parts = append(parts, info.Aux...)

	return Record{
		ID:         t.ID,
		Topic:      t.Label,
		Content:    strings.Join(parts, "; "),
		Keywords:   dedup(nil, info.Key),
		CreateTime: t.CreateTime,
		UpdateTime: t.UpdateTime,
		Info:       &info,
	}
}

// Record is a retired topic as written to the log. Once appended it is
// immutable.
type Record struct {
	ID         string     `json:"id"`
	Topic      string     `json:"topic"`
	Content    string     `json:"content"`
	Keywords   []string   `json:"keywords"`
	CreateTime time.Time  `json:"create_time"`
	UpdateTime time.Time  `json:"update_time"`
	Info       *InfoBlock `json:"info_block,omitempty"`
}

// Text is the concatenation embedded for retrieval.
func (r Record) Text() string {
	parts := []string{r.Topic, r.Content}
	if len(r.Keywords) > 0 {
		parts = append(parts, strings.Join(r.Keywords, ", "))
	}
	return strings.TrimSpace(strings.Join(slices.DeleteFunc(parts, func(s string) bool {
		return strings.TrimSpace(s) == ""
	}), "\n"))
}

// Related is a retrieved record with its similarity to the query.
type Related struct {
	Record
	Score float64 `json:"score"`
}
