package pipeline

import "sort"

// AssembleIndexed pairs element i of users with element i of assistants.
// It is used when the collaborator supplies two equal-length lists already
// in correspondence order; no timestamp or content comparison happens.
func AssembleIndexed(users, assistants []CanonicalMessage) []Conversation {
	n := len(users)
	if len(assistants) < n {
		n = len(assistants)
	}
	out := make([]Conversation, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Conversation{
			Messages: []CanonicalMessage{users[i], assistants[i]},
		})
	}
	return out
}

// AssembleHeuristic pools messages from every source into one sequence,
// deduplicates it, and rebuilds a single role-alternating conversation:
// consecutive messages sharing a role are merged with a blank-line
// separator instead of opening a new turn. Returns nil for empty input.
func AssembleHeuristic(pools ...[]CanonicalMessage) []Conversation {
	var pooled []CanonicalMessage
	for _, p := range pools {
		pooled = append(pooled, p...)
	}
	pooled = Dedupe(pooled)
	if len(pooled) == 0 {
		return nil
	}

	turns := make([]CanonicalMessage, 0, len(pooled))
	for _, m := range pooled {
		if n := len(turns); n > 0 && turns[n-1].Role == m.Role {
			turns[n-1].Content += "\n\n" + m.Content
			continue
		}
		turns = append(turns, m)
	}
	return []Conversation{{Messages: turns}}
}

// SortByTimestamp orders messages by the timestamped-ascending comparator:
// messages carrying a timestamp sort ascending and come first; messages
// without one follow in their original relative order. The sort is stable.
func SortByTimestamp(msgs []CanonicalMessage) []CanonicalMessage {
	out := make([]CanonicalMessage, len(msgs))
	copy(out, msgs)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].Timestamp, out[j].Timestamp
		switch {
		case a != nil && b != nil:
			return *a < *b
		case a != nil:
			return true
		default:
			return false
		}
	})
	return out
}

// AssembleByTimestamp sorts the pool with SortByTimestamp and scans for
// user→assistant adjacencies, emitting a complete two-message set for each.
// A later user message replaces an unanswered open one (the replaced
// message is a dangling singleton and is dropped); an assistant message
// with no open user is dropped; a trailing open user survives as an
// incomplete one-message set.
func AssembleByTimestamp(msgs []CanonicalMessage) []Conversation {
	var out []Conversation
	var open *CanonicalMessage
	for _, m := range SortByTimestamp(msgs) {
		switch m.Role {
		case RoleUser:
			m := m
			open = &m
		case RoleAssistant:
			if open == nil {
				continue
			}
			out = append(out, Conversation{Messages: []CanonicalMessage{*open, m}})
			open = nil
		}
	}
	if open != nil {
		out = append(out, Conversation{Messages: []CanonicalMessage{*open}})
	}
	return out
}
