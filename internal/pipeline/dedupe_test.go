package pipeline

import (
	"strings"
	"testing"
)

func msgs(contents ...string) []CanonicalMessage {
	out := make([]CanonicalMessage, 0, len(contents))
	for _, c := range contents {
		out = append(out, CanonicalMessage{Role: RoleUser, Content: c})
	}
	return out
}

func TestDedupe_FirstSeenWins(t *testing.T) {
	in := msgs("alpha", "beta", "alpha", "gamma", "beta")
	out := Dedupe(in)
	if len(out) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(out))
	}
	for i, want := range []string{"alpha", "beta", "gamma"} {
		if out[i].Content != want {
			t.Errorf("position %d: got %q want %q", i, out[i].Content, want)
		}
	}
}

func TestDedupe_WhitespaceAndCaseInsensitive(t *testing.T) {
	in := msgs("Hello   World", "hello world", "hello\n\tworld")
	out := Dedupe(in)
	if len(out) != 1 {
		t.Fatalf("expected whitespace/case variants to collapse, got %d", len(out))
	}
	if out[0].Content != "Hello   World" {
		t.Errorf("first occurrence must survive, got %q", out[0].Content)
	}
}

func TestDedupe_PrefixTruncation(t *testing.T) {
	// Content identical in the first 100 chars is a duplicate even when
	// the tails differ. Lossy by design.
	base := strings.Repeat("x", 100)
	in := msgs(base+" tail one", base+" tail two")
	out := Dedupe(in)
	if len(out) != 1 {
		t.Errorf("identical 100-char prefixes must merge, got %d messages", len(out))
	}
}

func TestDedupe_Idempotent(t *testing.T) {
	in := msgs("one", "two", "one", "three", "two", "one")
	once := Dedupe(in)
	twice := Dedupe(once)
	if len(once) != len(twice) {
		t.Fatalf("dedupe(dedupe(x)) changed length: %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].Content != twice[i].Content {
			t.Errorf("position %d differs: %q vs %q", i, once[i].Content, twice[i].Content)
		}
	}
}

func TestDedupe_OrderIsSubsequence(t *testing.T) {
	in := msgs("d", "c", "d", "a", "c", "b")
	out := Dedupe(in)
	// Every output message must appear in the input in the same relative order.
	j := 0
	for _, m := range out {
		found := false
		for ; j < len(in); j++ {
			if in[j].Content == m.Content {
				found = true
				j++
				break
			}
		}
		if !found {
			t.Fatalf("output %q breaks input subsequence order", m.Content)
		}
	}
}

func TestDedupe_Empty(t *testing.T) {
	if out := Dedupe(nil); len(out) != 0 {
		t.Errorf("empty input must yield empty output, got %d", len(out))
	}
}
