package pipeline

import (
	"sort"
	"strings"
)

// Marker is one content-category probe used for feature scoring. Markers
// are configuration supplied by the caller, not core logic: the selector
// only knows how to count them and break ties on the first three.
type Marker struct {
	Name     string   `json:"name" yaml:"name"`
	Terms    []string `json:"terms" yaml:"terms"`
	MatchAll bool     `json:"matchAll" yaml:"matchAll"`
}

// Matches reports whether the marker fires for the given lowercased text.
func (m Marker) Matches(text string) bool {
	if len(m.Terms) == 0 {
		return false
	}
	for _, term := range m.Terms {
		hit := strings.Contains(text, strings.ToLower(term))
		if m.MatchAll && !hit {
			return false
		}
		if !m.MatchAll && hit {
			return true
		}
	}
	return m.MatchAll
}

// Category is one coverage requirement for selection backfill: a search
// text, an optional alternative, and an optional exact-id override.
type Category struct {
	Name      string `json:"name" yaml:"name"`
	Search    string `json:"search" yaml:"search"`
	AltSearch string `json:"altSearch" yaml:"altSearch"`
	ExactID   string `json:"exactId" yaml:"exactId"`
}

// Matches reports whether the conversation satisfies the category. text
// must be the conversation's lowercased concatenated content.
func (c Category) Matches(conv *Conversation, text string) bool {
	if c.ExactID != "" && conv.ID == c.ExactID {
		return true
	}
	if c.Search != "" && strings.Contains(text, strings.ToLower(c.Search)) {
		return true
	}
	if c.AltSearch != "" && strings.Contains(text, strings.ToLower(c.AltSearch)) {
		return true
	}
	return false
}

// fullText concatenates a conversation's content, lowercased, for marker
// and category probing.
func fullText(c *Conversation) string {
	parts := make([]string, 0, len(c.Messages))
	for _, m := range c.Messages {
		parts = append(parts, m.Content)
	}
	return strings.ToLower(strings.Join(parts, " "))
}

// Select ranks conversations and returns a bounded top-k subset while
// guaranteeing coverage of the required categories when feasible.
//
// Ranking key, highest priority first: feature score (more marker hits),
// presence of marker 0, marker 1, marker 2, message count, total length.
// Forced ids are moved into the output first, in declared order; then each
// unrepresented category is backfilled with the first matching candidate
// in original pool order; remaining slots fill in rank order. Earlier
// declarations win when k is too small for every guarantee.
//
// k <= 0 or k >= len(convos) returns the full ranked list. The input slice
// is never mutated: selection partitions candidate indexes into
// {selected, remaining} instead of removing while iterating.
func Select(convos []Conversation, k int, markers []Marker, categories []Category, forcedIDs []string) []Conversation {
	texts := make([]string, len(convos))
	features := make([][]bool, len(convos))
	scores := make([]int, len(convos))
	for i := range convos {
		texts[i] = fullText(&convos[i])
		features[i] = make([]bool, len(markers))
		for j, mk := range markers {
			if mk.Matches(texts[i]) {
				features[i][j] = true
				scores[i]++
			}
		}
	}

	ranked := make([]int, len(convos))
	for i := range ranked {
		ranked[i] = i
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		ia, ib := ranked[a], ranked[b]
		if scores[ia] != scores[ib] {
			return scores[ia] > scores[ib]
		}
		for j := 0; j < len(markers) && j < 3; j++ {
			if features[ia][j] != features[ib][j] {
				return features[ia][j]
			}
		}
		if ca, cb := convos[ia].MessageCount(), convos[ib].MessageCount(); ca != cb {
			return ca > cb
		}
		return convos[ia].TotalLength() > convos[ib].TotalLength()
	})

	if k <= 0 || k >= len(convos) {
		out := make([]Conversation, 0, len(convos))
		for _, i := range ranked {
			out = append(out, convos[i])
		}
		return out
	}

	selected := make([]int, 0, k)
	taken := make([]bool, len(convos))
	take := func(i int) {
		selected = append(selected, i)
		taken[i] = true
	}

	// Forced inclusion, forcedIDs declared order.
	for _, fid := range forcedIDs {
		if len(selected) >= k {
			break
		}
		for _, i := range ranked {
			if !taken[i] && convos[i].ID == fid {
				take(i)
				break
			}
		}
	}

	// Category backfill: original pool order, not rank order.
	for _, cat := range categories {
		if len(selected) >= k {
			break
		}
		covered := false
		for _, i := range selected {
			if cat.Matches(&convos[i], texts[i]) {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		for i := range convos {
			if !taken[i] && cat.Matches(&convos[i], texts[i]) {
				take(i)
				break
			}
		}
	}

	// Fill remaining slots in rank order.
	for _, i := range ranked {
		if len(selected) >= k {
			break
		}
		if !taken[i] {
			take(i)
		}
	}

	out := make([]Conversation, 0, len(selected))
	for _, i := range selected {
		out = append(out, convos[i])
	}
	return out
}
