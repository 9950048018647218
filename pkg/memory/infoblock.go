package memory

import "strings"

// InfoBlock is the payload of one topic. Each list holds distinct strings in
// first-seen order.
type InfoBlock struct {
	Key   []string `json:"key_info"`
	Aux   []string `json:"aux_info"`
	Noise []string `json:"noise"`
}

// NewInfoBlock returns a block with three empty lists.
func NewInfoBlock() InfoBlock {
	return InfoBlock{Key: []string{}, Aux: []string{}, Noise: []string{}}
}

// Merge returns a new block with key and detail appended to the key and aux
// lists. The receiver is not modified and noise is copied through.
func (b InfoBlock) Merge(key, detail []string) InfoBlock {
	return InfoBlock{
		Key:   dedup(b.Key, key),
		Aux:   dedup(b.Aux, detail),
		Noise: dedup(b.Noise, nil),
	}
}

// AddNoise returns a new block with text appended to the noise list.
func (b InfoBlock) AddNoise(text string) InfoBlock {
	return InfoBlock{
		Key:   dedup(b.Key, nil),
		Aux:   dedup(b.Aux, nil),
		Noise: dedup(b.Noise, []string{text}),
	}
}

func (b InfoBlock) clone() InfoBlock {
	return b.Merge(nil, nil)
}

// dedup returns a fresh slice holding base then extra, trimmed, with blanks
// and repeats removed. The first occurrence of a string wins.
func dedup(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]struct{}, len(base)+len(extra))
	for _, list := range [][]string{base, extra} {
		for _, s := range list {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			out = append(out, s)
		}
	}
	return out
}
