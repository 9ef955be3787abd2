package pipeline

import (
	"strconv"
	"strings"

	"github.com/titanous/json5"
)

// Key synonym lists, probed in order. Content-bearing keys double as the
// role signal: the first matching key decides both role and content.
var (
	userKeys      = []string{"prompt", "input", "question", "human", "user", "query"}
	assistantKeys = []string{"response", "answer", "completion", "aiMessage", "assistant", "content", "result"}
	timestampKeys = []string{"timestamp", "createdAt", "created_at", "time"}
	genericKeys   = []string{"message", "text", "body"}
)

// Minimum content lengths. Anything shorter is fragment noise (partial
// regex matches, truncated JSON), not a genuine message.
const (
	minUserLen      = 10
	minAssistantLen = 20
)

// Normalize converts one raw fragment into at most one canonical message.
// Malformed payloads and fragments whose role cannot be determined yield
// (zero, false) — rejection is the common case, not an error.
func Normalize(f RawFragment) (CanonicalMessage, bool) {
	return normalize(f, false)
}

// NormalizePooled behaves like Normalize but retains structured fragments
// with an undeterminable role, tagged RoleUnknown. Only the heuristic
// assembler's pooling stage wants these.
func NormalizePooled(f RawFragment) (CanonicalMessage, bool) {
	return normalize(f, true)
}

func normalize(f RawFragment, keepUnknown bool) (CanonicalMessage, bool) {
	switch payload := f.Payload.(type) {
	case map[string]any:
		return normalizeStructured(f, payload, keepUnknown)
	case string:
		if f.Origin == OriginKVRow {
			// kv values arrive as raw strings; decode leniently since
			// recovered rows are frequently truncated or sloppy JSON.
			var obj map[string]any
			if err := json5.Unmarshal([]byte(payload), &obj); err != nil {
				return CanonicalMessage{}, false
			}
			return normalizeStructured(f, obj, keepUnknown)
		}
		return normalizeText(f, payload)
	default:
		return CanonicalMessage{}, false
	}
}

func normalizeStructured(f RawFragment, obj map[string]any, keepUnknown bool) (CanonicalMessage, bool) {
	for _, k := range userKeys {
		if s, ok := stringField(obj, k); ok && len(s) > minUserLen {
			return CanonicalMessage{
				Role:      RoleUser,
				Content:   s,
				Timestamp: timestampField(obj),
				Source:    f.Source,
				ID:        f.Key,
			}, true
		}
	}
	for _, k := range assistantKeys {
		if s, ok := stringField(obj, k); ok && len(s) > minAssistantLen {
			return CanonicalMessage{
				Role:      RoleAssistant,
				Content:   s,
				Timestamp: timestampField(obj),
				Source:    f.Source,
				ID:        f.Key,
			}, true
		}
	}
	if keepUnknown {
		for _, k := range genericKeys {
			if s, ok := stringField(obj, k); ok && len(s) > minUserLen {
				return CanonicalMessage{
					Role:      RoleUnknown,
					Content:   s,
					Timestamp: timestampField(obj),
					Source:    f.Source,
					ID:        f.Key,
				}, true
			}
		}
	}
	return CanonicalMessage{}, false
}

// Text role tags, probed as case-insensitive substrings. A leading tag is
// stripped from the content so the reconstructed message reads clean.
var (
	userTags      = []string{"user:", "human:"}
	assistantTags = []string{"assistant:", "ai:"}
)

func normalizeText(f RawFragment, text string) (CanonicalMessage, bool) {
	text = strings.TrimSpace(text)
	lower := strings.ToLower(text)

	role := RoleUnknown
	minLen := 0
	switch {
	case containsAny(lower, userTags):
		role, minLen = RoleUser, minUserLen
	case containsAny(lower, assistantTags):
		role, minLen = RoleAssistant, minAssistantLen
	default:
		return CanonicalMessage{}, false
	}

	content := stripLeadingTag(text, lower)
	if len(content) <= minLen {
		return CanonicalMessage{}, false
	}
	return CanonicalMessage{Role: role, Content: content, Source: f.Source, ID: f.Key}, true
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func stripLeadingTag(text, lower string) string {
	for _, tag := range append(append([]string{}, userTags...), assistantTags...) {
		if strings.HasPrefix(lower, tag) {
			return strings.TrimSpace(text[len(tag):])
		}
	}
	return text
}

func stringField(obj map[string]any, key string) (string, bool) {
	v, ok := obj[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// timestampField reads the first present timestamp synonym and coerces it
// to a number. Coercion failure means absent, not an error.
func timestampField(obj map[string]any) *float64 {
	for _, k := range timestampKeys {
		v, ok := obj[k]
		if !ok {
			continue
		}
		switch t := v.(type) {
		case float64:
			return &t
		case int:
			f := float64(t)
			return &f
		case int64:
			f := float64(t)
			return &f
		case string:
			if f, err := strconv.ParseFloat(t, 64); err == nil {
				return &f
			}
		}
		return nil
	}
	return nil
}
