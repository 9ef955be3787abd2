package pipeline

import "testing"

func conv(id string, contents ...string) Conversation {
	c := Conversation{ID: id}
	role := RoleUser
	for _, text := range contents {
		c.Messages = append(c.Messages, CanonicalMessage{Role: role, Content: text})
		if role == RoleUser {
			role = RoleAssistant
		} else {
			role = RoleUser
		}
	}
	return c
}

func testMarkers() []Marker {
	return []Marker{
		{Name: "algorithm-example", Terms: []string{"binary search tree"}},
		{Name: "special-characters", Terms: []string{"special chars"}},
		{Name: "markdown-structure", Terms: []string{"heading", "subheading"}, MatchAll: true},
		{Name: "code-block", Terms: []string{"```"}},
	}
}

func TestMarker_MatchAll(t *testing.T) {
	m := Marker{Terms: []string{"heading", "subheading"}, MatchAll: true}
	if m.Matches("a heading without the other term") {
		t.Error("MatchAll must require every term")
	}
	if !m.Matches("a heading and a subheading together") {
		t.Error("expected match when all terms present")
	}
}

func TestSelect_TruncationBounds(t *testing.T) {
	convos := []Conversation{conv("a", "one"), conv("b", "two"), conv("c", "three")}
	for k := 1; k <= 5; k++ {
		out := Select(convos, k, nil, nil, nil)
		if len(out) > k {
			t.Errorf("k=%d: got %d conversations", k, len(out))
		}
	}
	if out := Select(convos, 0, nil, nil, nil); len(out) != 3 {
		t.Errorf("k=0 must return everything, got %d", len(out))
	}
	if out := Select(convos, -1, nil, nil, nil); len(out) != 3 {
		t.Errorf("k<0 must return everything, got %d", len(out))
	}
}

func TestSelect_RankingOrder(t *testing.T) {
	convos := []Conversation{
		conv("plain", "nothing notable in here at all"),
		conv("bst", "implement a binary search tree for me please"),
		conv("both", "a binary search tree with special chars mixed in"),
	}
	out := Select(convos, 0, testMarkers(), nil, nil)
	if out[0].ID != "both" {
		t.Errorf("two-feature conversation must rank first, got %q", out[0].ID)
	}
	if out[1].ID != "bst" {
		t.Errorf("one-feature conversation must rank second, got %q", out[1].ID)
	}
	if out[2].ID != "plain" {
		t.Errorf("featureless conversation must rank last, got %q", out[2].ID)
	}
}

func TestSelect_TieBreakByMessageCountThenLength(t *testing.T) {
	convos := []Conversation{
		conv("short", "aa", "bb"),
		conv("long", "a much longer pair of messages", "with considerably more content"),
		conv("many", "m1", "m2", "m3", "m4"),
	}
	out := Select(convos, 0, testMarkers(), nil, nil)
	if out[0].ID != "many" {
		t.Errorf("message count breaks ties before length, got %q first", out[0].ID)
	}
	if out[1].ID != "long" {
		t.Errorf("length breaks remaining tie, got %q second", out[1].ID)
	}
}

func TestSelect_ForcedIDPrecedence(t *testing.T) {
	convos := []Conversation{
		conv("best", "a binary search tree with special chars and heading subheading and ```"),
		conv("chat:markdown", "plain and unremarkable content"),
		conv("chat:special", "also plain and unremarkable"),
	}
	out := Select(convos, 2, testMarkers(), nil, []string{"chat:special", "chat:markdown"})
	if len(out) != 2 {
		t.Fatalf("expected 2, got %d", len(out))
	}
	if out[0].ID != "chat:special" || out[1].ID != "chat:markdown" {
		t.Errorf("forced ids must lead in declared order, got %q, %q", out[0].ID, out[1].ID)
	}
}

func TestSelect_CoverageGuarantee(t *testing.T) {
	convos := []Conversation{
		conv("big1", "binary search tree one with lots of extra words to rank high"),
		conv("big2", "binary search tree two with lots of extra words to rank high"),
		conv("niche", "the only one discussing special chars"),
	}
	cats := []Category{{Name: "special-characters", Search: "special chars"}}
	out := Select(convos, 2, testMarkers(), cats, nil)
	found := false
	for _, c := range out {
		if c.ID == "niche" {
			found = true
		}
	}
	if !found {
		t.Error("required category must be represented despite low rank")
	}
}

func TestSelect_CategoryAlternativesAndExactID(t *testing.T) {
	convos := []Conversation{
		conv("filler1", "binary search tree padding conversation number one"),
		conv("filler2", "binary search tree padding conversation number two"),
		conv("alt", "contains !@#$%^&*() but not the primary term"),
		conv("chat:markdown", "matched purely by id"),
	}
	cats := []Category{
		{Name: "special-characters", Search: "special chars", AltSearch: "!@#$%^&*()"},
		{Name: "markdown-structure", Search: "no such text", ExactID: "chat:markdown"},
	}
	out := Select(convos, 3, testMarkers(), cats, nil)
	var hasAlt, hasMarkdown bool
	for _, c := range out {
		if c.ID == "alt" {
			hasAlt = true
		}
		if c.ID == "chat:markdown" {
			hasMarkdown = true
		}
	}
	if !hasAlt {
		t.Error("alternative search text must satisfy the category")
	}
	if !hasMarkdown {
		t.Error("exact-id override must satisfy the category")
	}
}

func TestSelect_BackfillUsesPoolOrder(t *testing.T) {
	convos := []Conversation{
		conv("pool-first", "special chars appear here with very little else"),
		conv("pool-second", "special chars appear here in a much longer and higher ranking conversation", "an assistant reply making it rank above the first"),
		conv("filler1", "binary search tree padding one"),
		conv("filler2", "binary search tree padding two"),
	}
	cats := []Category{{Name: "special-characters", Search: "special chars"}}
	// pool-second outranks pool-first, but backfill must take the earliest
	// candidate in original pool order, not the best-ranked one.
	out := Select(convos, 2, testMarkers(), cats, []string{"filler1"})
	if out[0].ID != "filler1" {
		t.Fatalf("forced id must be first, got %q", out[0].ID)
	}
	if out[1].ID != "pool-first" {
		t.Errorf("backfill must pick original-pool-order first match, got %q", out[1].ID)
	}
}

func TestSelect_NoDoubleCount(t *testing.T) {
	convos := []Conversation{
		conv("chat:special", "special chars live here"),
		conv("other", "binary search tree content"),
	}
	cats := []Category{{Name: "special-characters", Search: "special chars", ExactID: "chat:special"}}
	out := Select(convos, 2, testMarkers(), cats, []string{"chat:special"})
	if len(out) != 2 {
		t.Fatalf("expected 2, got %d", len(out))
	}
	if out[0].ID == out[1].ID {
		t.Error("a forced conversation must not be selected twice by backfill")
	}
}

func TestSelect_EmptyInput(t *testing.T) {
	if out := Select(nil, 5, testMarkers(), nil, nil); len(out) != 0 {
		t.Errorf("empty input must yield empty output, got %d", len(out))
	}
}
