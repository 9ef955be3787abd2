package pipeline

import "testing"

func um(content string) CanonicalMessage {
	return CanonicalMessage{Role: RoleUser, Content: content}
}

func am(content string) CanonicalMessage {
	return CanonicalMessage{Role: RoleAssistant, Content: content}
}

func ts(m CanonicalMessage, t float64) CanonicalMessage {
	m.Timestamp = &t
	return m
}

func TestAssembleIndexed_PositionalPairing(t *testing.T) {
	users := []CanonicalMessage{um("u0"), um("u1")}
	assistants := []CanonicalMessage{am("a0"), am("a1")}
	out := AssembleIndexed(users, assistants)
	if len(out) != 2 {
		t.Fatalf("expected 2 sets, got %d", len(out))
	}
	for i, conv := range out {
		if conv.MessageCount() != 2 {
			t.Fatalf("set %d: expected 2 messages, got %d", i, conv.MessageCount())
		}
	}
	if out[0].Messages[0].Content != "u0" || out[0].Messages[1].Content != "a0" {
		t.Errorf("set 0 mispaired: %q / %q", out[0].Messages[0].Content, out[0].Messages[1].Content)
	}
	if out[1].Messages[0].Content != "u1" || out[1].Messages[1].Content != "a1" {
		t.Errorf("set 1 mispaired: %q / %q", out[1].Messages[0].Content, out[1].Messages[1].Content)
	}
}

func TestAssembleHeuristic_RoleAlternation(t *testing.T) {
	out := AssembleHeuristic([]CanonicalMessage{um("A"), um("B"), am("C")})
	if len(out) != 1 {
		t.Fatalf("expected one conversation, got %d", len(out))
	}
	turns := out[0].Messages
	if len(turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(turns))
	}
	if turns[0].Role != RoleUser || turns[0].Content != "A\n\nB" {
		t.Errorf("turn 1: got role %q content %q", turns[0].Role, turns[0].Content)
	}
	if turns[1].Role != RoleAssistant || turns[1].Content != "C" {
		t.Errorf("turn 2: got role %q content %q", turns[1].Role, turns[1].Content)
	}
}

func TestAssembleHeuristic_DedupesPool(t *testing.T) {
	out := AssembleHeuristic(
		[]CanonicalMessage{um("same question twice")},
		[]CanonicalMessage{um("same question twice"), am("one answer")},
	)
	if len(out) != 1 {
		t.Fatalf("expected one conversation, got %d", len(out))
	}
	if n := out[0].MessageCount(); n != 2 {
		t.Errorf("duplicate must not double a turn, got %d turns", n)
	}
}

func TestAssembleHeuristic_Empty(t *testing.T) {
	if out := AssembleHeuristic(); out != nil {
		t.Errorf("empty input must yield no conversations, got %d", len(out))
	}
}

func TestSortByTimestamp_UntimestampedLast(t *testing.T) {
	in := []CanonicalMessage{
		um("no ts one"),
		ts(um("late"), 200),
		um("no ts two"),
		ts(um("early"), 100),
	}
	out := SortByTimestamp(in)
	want := []string{"early", "late", "no ts one", "no ts two"}
	for i, w := range want {
		if out[i].Content != w {
			t.Errorf("position %d: got %q want %q", i, out[i].Content, w)
		}
	}
	// Input must not be reordered in place.
	if in[0].Content != "no ts one" {
		t.Error("SortByTimestamp mutated its input")
	}
}

func TestAssembleByTimestamp_Pairing(t *testing.T) {
	in := []CanonicalMessage{
		ts(am("reply two"), 40),
		ts(um("question two"), 30),
		ts(am("reply one"), 20),
		ts(um("question one"), 10),
	}
	out := AssembleByTimestamp(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 sets, got %d", len(out))
	}
	if out[0].Messages[0].Content != "question one" || out[0].Messages[1].Content != "reply one" {
		t.Errorf("set 0 mispaired: %+v", out[0].Messages)
	}
	if out[1].Messages[0].Content != "question two" || out[1].Messages[1].Content != "reply two" {
		t.Errorf("set 1 mispaired: %+v", out[1].Messages)
	}
}

func TestAssembleByTimestamp_DanglingMessages(t *testing.T) {
	in := []CanonicalMessage{
		ts(am("orphan reply"), 5),
		ts(um("replaced question"), 10),
		ts(um("answered question"), 20),
		ts(am("the reply"), 30),
		ts(um("trailing question"), 40),
	}
	out := AssembleByTimestamp(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 sets, got %d", len(out))
	}
	if out[0].Messages[0].Content != "answered question" {
		t.Errorf("replaced question must be discarded, got %q", out[0].Messages[0].Content)
	}
	last := out[1]
	if last.MessageCount() != 1 || last.Messages[0].Content != "trailing question" {
		t.Errorf("trailing open user must survive as incomplete set, got %+v", last.Messages)
	}
	if last.Complete() {
		t.Error("trailing set must be incomplete")
	}
}

func TestAssembleByTimestamp_Empty(t *testing.T) {
	if out := AssembleByTimestamp(nil); len(out) != 0 {
		t.Errorf("empty input must yield empty output, got %d", len(out))
	}
}
