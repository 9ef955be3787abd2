package pipeline

import (
	"regexp"
	"strings"
)

// fingerprintLen bounds the normalized-content prefix used for duplicate
// detection. Two real messages that start identically within this prefix
// are merged away; that is an accepted trade-off of the heuristic.
const fingerprintLen = 100

var whitespaceRun = regexp.MustCompile(`\s+`)

// Fingerprint returns the duplicate-detection key for message content:
// whitespace runs collapsed to a single space, lowercased, truncated.
func Fingerprint(content string) string {
	s := strings.ToLower(whitespaceRun.ReplaceAllString(content, " "))
	if len(s) > fingerprintLen {
		s = s[:fingerprintLen]
	}
	return s
}

// Dedupe suppresses repeated messages in a single forward pass, keeping
// the first occurrence and preserving input order. Role, timestamp and
// source are ignored: identical content is identical content.
func Dedupe(msgs []CanonicalMessage) []CanonicalMessage {
	seen := make(map[string]struct{}, len(msgs))
	out := make([]CanonicalMessage, 0, len(msgs))
	for _, m := range msgs {
		fp := Fingerprint(m.Content)
		if _, dup := seen[fp]; dup {
			continue
		}
		seen[fp] = struct{}{}
		out = append(out, m)
	}
	return out
}
