package memory

import (
	"fmt"
	"strings"
)

// Oracle task names used by the memory pipeline.
const (
	TaskNoise       = "noise_detection"
	TaskBoundary    = "boundary_detection"
	TaskExtract     = "element_extraction"
	TaskTopicInit   = "topic_initialization"
	TaskTopicUpdate = "topic_update"
)

const jsonOutputContract = `Reply with a single JSON object wrapped in a ` + "```json" + ` block. Use only the fields shown and no other text.`

func noisePrompt(round, topicContext string) string {
	if topicContext == "" {
		topicContext = "(none)"
	}
	return fmt.Sprintf(`Decide whether the dialogue round below is transient noise: an aside that
carries no lasting information for the current conversation topic, such as
a filler acknowledgement, an interjection, or an off-hand remark.

A request to start a new topic, ask a new question or change plans is never noise.
When unsure, answer false.

Topic context: %s

Round:
%s

%s
{"is_noise": true|false}`, topicContext, round, jsonOutputContract)
}

func boundaryPrompt(history []string, round string, overlap float64) string {
	return fmt.Sprintf(`Decide whether the new messages leave the topic of the conversation so far
completely. A loosely related follow-up is not a topic change.

Consider, in priority order:
1. Subject change: a different event, problem or subject is introduced.
2. Intent change: the purpose of the exchange shifts, e.g. from chat to asking for help.
3. Time markers: explicit time lapses or transition words such as "by the way" or "earlier".
4. Structural signals: phrases such as "changing the subject" or a closing summary.
5. Overlap: if fewer than %.0f%% of the new content relates to what came before, lean towards a split.

Conversation so far:
%s

New messages:
%s

%s
{"topic_changed": true|false, "confidence": 0.0-1.0}`, overlap*100, strings.Join(history, "\n\n"), round, jsonOutputContract)
}

func extractPrompt(round, topic string) string {
	if topic == "" {
		topic = "(new topic)"
	}
	return fmt.Sprintf(`Extract elements from the dialogue round for the current topic.

- key_elements: core facts that define the topic, such as time, place, people,
  events, quantities or the core need. Changing one changes what the topic is.
- detailed_elements: supplementary details that enrich the topic without
  changing it, such as side conditions or preferences.

Keep each element short. Use [] when there is nothing to report.

Current topic: %s

Round:
%s

%s
{"key_elements": ["..."], "detailed_elements": ["..."]}`, topic, round, jsonOutputContract)
}

func topicInitPrompt(round string) string {
	return fmt.Sprintf(`Summarize the core topic of this first dialogue round in at most %d characters.

Rules:
1. A plain greeting such as "hello" or "good morning" is always "%s".
2. Aimless chat with no clear need, such as remarks about the weather, is always "%s".
3. Otherwise name the concrete need or subject.

Round:
%s

%s
{"topic": "..."}`, MaxLabelLength, LabelGreeting, LabelSmallTalk, round, jsonOutputContract)
}

func topicUpdatePrompt(label string, keyInfo, newKey []string) string {
	return fmt.Sprintf(`Decide whether the topic label must change given new key elements.

Rules:
1. Update only if the new key elements change the core meaning of the topic,
   such as a changed need or event.
2. Added detail never requires an update.
3. When no update is needed, new_topic repeats the current topic.
   new_topic is at most %d characters.

Current topic: %s
Known key information: %s
New key elements: %s

%s
{"need_update": true|false, "new_topic": "..."}`, MaxLabelLength, label, quoteList(keyInfo), quoteList(newKey), jsonOutputContract)
}

func quoteList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	q := make([]string, len(items))
	for i, s := range items {
		q[i] = fmt.Sprintf("%q", s)
	}
	return "[" + strings.Join(q, ", ") + "]"
}
