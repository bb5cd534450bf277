package selectors

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func TestGetReturnsSeedsWithoutPriorSave(t *testing.T) {
	seeds := SeedTable{
		ConversationRoot: {"a", "b", "a", "c"},
	}
	s := NewStore(seeds)

	got := s.Get(ConversationRoot)
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v, want %v", got, want)
		}
	}
}

func TestSaveMergesLearnedBeforeSeeds(t *testing.T) {
	seeds := SeedTable{ConversationRoot: {"seed1", "seed2"}}
	s := NewStore(seeds)

	if !s.Save(ConversationRoot, []string{"learned1", "seed2", "learned2"}, "drift") {
		t.Fatal("save should succeed")
	}

	got := s.Get(ConversationRoot)
	want := []string{"learned1", "seed2", "learned2", "seed1"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("position %d: got %v, want %v", i, got, want)
		}
	}
}

func TestSaveSanitizesInput(t *testing.T) {
	s := NewStore(SeedTable{})
	long := strings.Repeat("x", MaxCandidateLen+1)

	ok := s.Save(MessageCTA, []string{"  .btn  ", "", ".btn", long, "\t\n", ".other"}, "test")
	if !ok {
		t.Fatal("save should succeed with valid entries present")
	}

	e := s.Entry(MessageCTA)
	want := []string{".btn", ".other"}
	if len(e.Candidates) != len(want) {
		t.Fatalf("got %v, want %v", e.Candidates, want)
	}
	for i := range want {
		if e.Candidates[i] != want[i] {
			t.Fatalf("got %v, want %v", e.Candidates, want)
		}
	}
	if e.Reason != "test" {
		t.Errorf("reason = %q, want %q", e.Reason, "test")
	}
	if e.UpdatedAt.IsZero() {
		t.Error("UpdatedAt should be set")
	}
}

func TestSaveCapsAtMaxCandidates(t *testing.T) {
	s := NewStore(SeedTable{})
	var many []string
	for i := 0; i < MaxCandidates+5; i++ {
		many = append(many, ".sel-"+string(rune('a'+i)))
	}
	s.Save(SendButton, many, "flood")
	if got := len(s.Entry(SendButton).Candidates); got != MaxCandidates {
		t.Errorf("candidate count = %d, want %d", got, MaxCandidates)
	}
}

func TestEmptySaveIsNoOp(t *testing.T) {
	s := NewStore(SeedTable{MessageTextbox: {"seed"}})
	s.Save(MessageTextbox, []string{"kept"}, "first")
	before := s.Entry(MessageTextbox)

	if s.Save(MessageTextbox, []string{"", "   ", strings.Repeat("y", 500)}, "junk") {
		t.Fatal("all-invalid save should report no-op")
	}

	after := s.Entry(MessageTextbox)
	if after.Reason != before.Reason || len(after.Candidates) != 1 || after.Candidates[0] != "kept" {
		t.Errorf("prior entry not preserved: %+v", after)
	}
}

func TestEveryFeatureSeededUpFront(t *testing.T) {
	s := NewStore(nil)
	for _, f := range Features() {
		if got := s.Get(f); len(got) == 0 {
			t.Errorf("feature %s has no candidates", f)
		}
	}
}

func TestParse(t *testing.T) {
	if f, ok := Parse("conversation_root"); !ok || f != ConversationRoot {
		t.Errorf("Parse(conversation_root) = %v, %v", f, ok)
	}
	if _, ok := Parse("no_such_feature"); ok {
		t.Error("unknown feature should not parse")
	}
}

func TestConcurrentSavesLastWriterWins(t *testing.T) {
	s := NewStore(SeedTable{})
	s.now = func() time.Time { return time.Unix(0, 0) }

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			s.Save(ConnectCTA, []string{".variant"}, "writer")
		}(i)
	}
	wg.Wait()

	e := s.Entry(ConnectCTA)
	if len(e.Candidates) != 1 || e.Candidates[0] != ".variant" {
		t.Errorf("unexpected entry after concurrent saves: %+v", e)
	}
}
