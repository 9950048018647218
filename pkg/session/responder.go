package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/papercomputeco/mnemo/pkg/domain"
	"github.com/papercomputeco/mnemo/pkg/logger"
	"github.com/papercomputeco/mnemo/pkg/memory"
	"github.com/papercomputeco/mnemo/pkg/oracle"
	"github.com/papercomputeco/mnemo/pkg/trust"
)

// TaskRespond is the oracle task that writes the assistant's reply.
const TaskRespond = "agent_response"

// Apology is the reply when the oracle cannot produce one.
const Apology = "Sorry, I lost my train of thought there. Could you say that again?"

// Responder writes replies from a bundle. The memory core never calls it.
type Responder struct {
	oracle  oracle.Oracle
	timeout time.Duration
	logger  *slog.Logger
}

func NewResponder(o oracle.Oracle, timeout time.Duration, log *slog.Logger) *Responder {
	if log == nil {
		log = logger.Nop()
	}
	return &Responder{oracle: o, timeout: timeout, logger: log}
}

// Reply returns the oracle's reply, or Apology when there is none. A JSON
// answer with a reply field is unwrapped; any other text is used as is.
func (r *Responder) Reply(ctx context.Context, b Bundle) string {
	if r.oracle == nil {
		return Apology
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	raw, err := r.oracle.Call(ctx, oracle.Prompt(TaskRespond, replyPrompt(b)))
	if err != nil {
		r.logger.Warn("oracle call failed, apologizing", "task", TaskRespond, "error", err)
		return Apology
	}

	reply := strings.TrimSpace(raw)
	if fields, err := oracle.Parse(raw); err == nil {
		reply = strings.TrimSpace(fields.String("reply", ""))
	}
	if reply == "" {
		r.logger.Warn("empty reply from oracle", "task", TaskRespond)
		return Apology
	}
	return reply
}

func replyPrompt(b Bundle) string {
	payload := struct {
		Active  *memory.Topic    `json:"current_topic,omitempty"`
		Latest  *memory.Record   `json:"latest_memory,omitempty"`
		Related []memory.Related `json:"related_memories"`
		User    domain.View      `json:"user_domain"`
		Self    domain.View      `json:"self_domain"`
		Stage   trust.Stage      `json:"relationship_stage"`
	}{b.Active, b.Latest, b.Related, b.User, b.Self, b.Stage}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		data = []byte("{}")
	}

	return fmt.Sprintf(`You are the assistant described by self_domain, talking to the person
described by user_domain. Act according to the relationship stage. Use the
memories only where they help.

Context:
%s

User message:
%s

Reply with a single JSON object wrapped in a `+"```json"+` block and no other text.
{"reply": "your reply"}`, string(data), b.Input)
}
