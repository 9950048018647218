package trust

import "fmt"

func scorePrompt(input string, score int) string {
	return fmt.Sprintf(`Judge how the user's message changes their trust in the assistant.

Friendly, open or appreciative messages raise trust. Hostile, dismissive or
insulting messages lower it. Neutral questions leave it unchanged.

Current trust: %d of %d

User message:
%s

Reply with a single JSON object wrapped in a `+"```json"+` block. Use only the fields shown and no other text.
{"delta": integer between -%d and %d}`, score, MaxScore, input, MaxDelta, MaxDelta)
}
