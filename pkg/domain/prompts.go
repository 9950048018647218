package domain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/papercomputeco/mnemo/pkg/memory"
	"github.com/papercomputeco/mnemo/pkg/trust"
)

// Oracle task names used by the domain manager.
const (
	TaskUserActivation = "user_domain_activation"
	TaskSelfActivation = "self_domain_activation"
	TaskWorthiness     = "memory_worthiness"
	TaskUserReconcile  = "user_domain_reconciliation"
	TaskSelfReconcile  = "self_domain_reconciliation"
)

const outputContract = `Reply with a single JSON object wrapped in a ` + "```json" + ` block and no other text.`

func toJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

func historyText(history []string) string {
	if len(history) == 0 {
		return "(none)"
	}
	return strings.Join(history, "\n")
}

const activationRules = `Rules:
- Only delete. Never add, rename or rewrite a key or a value.
- Keep the original nesting for everything you keep.
- Always keep domain_type and L3_expression.
- Drop whole branches that have nothing to do with the current message.`

func userActivationPrompt(doc map[string]any, input string, history []string) string {
	return fmt.Sprintf(`Select the parts of the user profile below that matter for answering the
current message. Return the profile with everything irrelevant deleted.

%s

User profile:
%s

Conversation so far:
%s

Current message:
%s

%s`, activationRules, toJSON(doc), historyText(history), input, outputContract)
}

func selfActivationPrompt(doc map[string]any, input string, history []string, stage trust.Stage) string {
	return fmt.Sprintf(`Select the parts of the assistant persona below that matter for answering
the current message. Return the persona with everything irrelevant deleted.

%s
- Keep L1_strategy.relationship_stages.%s, the current relationship stage.

Assistant persona:
%s

Conversation so far:
%s

Current message:
%s

%s`, activationRules, stage, toJSON(doc), historyText(history), input, outputContract)
}

func worthinessPrompt(rec memory.Record, user, self map[string]any) string {
	return fmt.Sprintf(`Decide whether the conversation memory below is worth keeping long term.

Keep memories that reveal lasting facts, preferences, plans or feelings of
the user, or that shape how the assistant should relate to them. Discard
greetings, chit-chat and one-off exchanges. When unsure, keep it.

Memory:
%s

User profile:
%s

Assistant persona:
%s

%s
{"is_worthy": true|false}`, toJSON(recordView(rec)), toJSON(user), toJSON(self), outputContract)
}

func userReconcilePrompt(doc map[string]any, records []memory.Record) string {
	return fmt.Sprintf(`Update the user profile below from the accumulated conversation memories.

Return only the layers that need to change, each as a complete object that
replaces the old layer. Leave out layers that stay the same. Do not change
domain_type.

User profile:
%s

Memories:
%s

%s`, toJSON(doc), toJSON(recordViews(records)), outputContract)
}

func selfReconcilePrompt(doc, user map[string]any, records []memory.Record) string {
	return fmt.Sprintf(`Update the assistant persona below so it suits the user profile and the
accumulated conversation memories.

Return only the layers that need to change, each as a complete object that
replaces the old layer. Leave out layers that stay the same. Do not change
domain_type.

Assistant persona:
%s

User profile:
%s

Memories:
%s

%s`, toJSON(doc), toJSON(user), toJSON(recordViews(records)), outputContract)
}

type promptRecord struct {
	Topic    string    `json:"topic"`
	Content  string    `json:"content"`
	Keywords []string  `json:"keywords"`
	Time     time.Time `json:"update_time"`
}

func recordView(rec memory.Record) promptRecord {
	return promptRecord{
		Topic:    rec.Topic,
		Content:  rec.Content,
		Keywords: rec.Keywords,
		Time:     rec.UpdateTime,
	}
}

func recordViews(recs []memory.Record) []promptRecord {
	out := make([]promptRecord, 0, len(recs))
	for _, r := range recs {
		out = append(out, recordView(r))
	}
	return out
}
