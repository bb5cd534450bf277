// Package selectors tracks which DOM locator candidates currently work for
// each UI feature of the target application. Knowledge is seeded at startup
// and refined at runtime by the agent; it lives only for the process lifetime.
package selectors

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Feature identifies the role of a UI element the automation needs to locate.
// The set is fixed at build time.
type Feature string

const (
	MessageCTA        Feature = "message_cta"
	ConversationRoot  Feature = "conversation_root"
	ConversationItems Feature = "conversation_items"
	MessageTextbox    Feature = "message_textbox"
	SendButton        Feature = "send_button"
	ConnectCTA        Feature = "connect_cta"
	ConnectNote       Feature = "connect_note"
)

// Features returns every known feature in stable order.
func Features() []Feature {
	return []Feature{
		MessageCTA,
		ConversationRoot,
		ConversationItems,
		MessageTextbox,
		SendButton,
		ConnectCTA,
		ConnectNote,
	}
}

// Parse resolves a feature name from tool arguments.
func Parse(s string) (Feature, bool) {
	f := Feature(strings.TrimSpace(s))
	for _, known := range Features() {
		if f == known {
			return f, true
		}
	}
	return "", false
}

const (
	// MaxCandidates caps the candidate list per feature.
	MaxCandidates = 12
	// MaxCandidateLen caps the length of a single locator string.
	MaxCandidateLen = 200
)

// Entry is the learned state for one feature.
type Entry struct {
	Feature    Feature   `json:"feature"`
	Candidates []string  `json:"candidates"`
	UpdatedAt  time.Time `json:"updatedAt"`
	Reason     string    `json:"reason"`
}

// SeedTable maps features to their baseline candidate lists. Seeds are
// established at startup and never mutated; Get always folds them in so a
// corrupted learned set can't remove baseline reliability.
type SeedTable map[Feature][]string

// Store owns the per-feature locator knowledge. It is constructed once and
// injected wherever selector knowledge is needed; tests get isolated
// instances. Writes are last-writer-wins under a mutex: two concurrent saves
// to the same feature are not merged, the later replaces the earlier.
type Store struct {
	mu      sync.RWMutex
	seeds   SeedTable
	learned map[Feature]Entry
	now     func() time.Time
}

// NewStore builds a store from the given seed table; nil means the built-in
// defaults. Every feature gets an entry up front, so lookups never miss.
func NewStore(seeds SeedTable) *Store {
	if seeds == nil {
		seeds = DefaultSeeds()
	}
	copied := make(SeedTable, len(seeds))
	for f, list := range seeds {
		copied[f] = dedupe(list, MaxCandidates)
	}
	s := &Store{
		seeds:   copied,
		learned: make(map[Feature]Entry, len(copied)),
		now:     time.Now,
	}
	for _, f := range Features() {
		s.learned[f] = Entry{Feature: f, Candidates: nil, Reason: "seed"}
	}
	return s
}

// Get returns the current candidates for a feature: learned first, then
// seeds, deduplicated and capped at MaxCandidates.
func (s *Store) Get(feature Feature) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	merged := append([]string{}, s.learned[feature].Candidates...)
	merged = append(merged, s.seeds[feature]...)
	return dedupe(merged, MaxCandidates)
}

// Entry returns a copy of the learned entry for a feature.
func (s *Store) Entry(feature Feature) Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.learned[feature]
	e.Candidates = append([]string{}, e.Candidates...)
	return e
}

// Save replaces the learned candidates for a feature after sanitizing the
// input. If nothing valid survives sanitization the call is a silent no-op
// and the prior entry is preserved. Save never fails observably.
func (s *Store) Save(feature Feature, candidates []string, reason string) bool {
	clean := Sanitize(candidates)
	if len(clean) == 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.learned[feature] = Entry{
		Feature:    feature,
		Candidates: clean,
		UpdatedAt:  s.now(),
		Reason:     strings.TrimSpace(reason),
	}
	return true
}

// Snapshot returns all entries ordered by feature name, for diagnostics.
func (s *Store) Snapshot() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Entry, 0, len(s.learned))
	for _, e := range s.learned {
		e.Candidates = append([]string{}, e.Candidates...)
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Feature < out[j].Feature })
	return out
}

// Sanitize trims whitespace, drops empty and over-length entries,
// deduplicates preserving first-seen order, and caps at MaxCandidates.
func Sanitize(candidates []string) []string {
	trimmed := make([]string, 0, len(candidates))
	for _, c := range candidates {
		c = strings.TrimSpace(c)
		if c == "" || len(c) > MaxCandidateLen {
			continue
		}
		trimmed = append(trimmed, c)
	}
	return dedupe(trimmed, MaxCandidates)
}

func dedupe(in []string, cap int) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
		if len(out) == cap {
			break
		}
	}
	return out
}
