// Package trust tracks how far the relationship with the user has developed.
//
// The score lives in [0,100] and moves by small oracle-judged deltas each
// turn. Every change is appended to a JSONL log so a restart resumes from
// the last recorded score.
package trust

// Stage names a relationship stage. It selects the matching
// L1_strategy.relationship_stages entry of the self domain.
type Stage string

const (
	StageInitial Stage = "initial"
	StageProcess Stage = "process"
	StageFinal   Stage = "final"
)

const (
	MinScore = 0
	MaxScore = 100

	// ProcessThreshold is the lowest score of the process stage.
	ProcessThreshold = 30

	// FinalThreshold is the lowest score of the final stage.
	FinalThreshold = 80

	// MaxDelta bounds a single turn's change in either direction.
	MaxDelta = 10
)

// StageFor maps a score to its stage.
func StageFor(score int) Stage {
	switch {
	case score < ProcessThreshold:
		return StageInitial
	case score < FinalThreshold:
		return StageProcess
	default:
		return StageFinal
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(hi, v))
}
