package memory_test

import (
	"encoding/json"
	"time"

	. "github.com/onsi/gomega"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
}

// answer renders an oracle reply the way models usually wrap it.
func answer(v map[string]any) string {
	b, err := json.Marshal(v)
	Expect(err).NotTo(HaveOccurred())
	return "```json\n" + string(b) + "\n```"
}

// clock returns a Now func that advances one minute per call.
func clock() func() time.Time {
	t := fixedNow()
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}
