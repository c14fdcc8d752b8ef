package filter

import (
	"slices"
	"strings"

	"github.com/hpungsan/lemon/internal/menu"
)

// State is the effective filter input: the settled search term and the set
// of toggled-on category labels. It is a value; copies never share storage.
type State struct {
	SearchTerm       string
	activeCategories []string // sorted, unique
}

// NewState builds a State from a term and any category labels.
// Labels are trimmed and deduplicated; an empty set means no category filter.
func NewState(term string, categories ...string) State {
	cats := menu.CleanLabels(categories)
	slices.Sort(cats)
	return State{SearchTerm: term, activeCategories: cats}
}

// ActiveCategories returns a copy of the active category labels, sorted.
func (s State) ActiveCategories() []string {
	return slices.Clone(s.activeCategories)
}

// HasCategory reports whether label is toggled on.
func (s State) HasCategory(label string) bool {
	_, found := slices.BinarySearch(s.activeCategories, label)
	return found
}

// Toggled returns a copy of s with label flipped. Blank labels are ignored.
func (s State) Toggled(label string) State {
	label = strings.TrimSpace(label)
	if label == "" {
		return s.WithTerm(s.SearchTerm)
	}
	out := State{SearchTerm: s.SearchTerm}
	idx, found := slices.BinarySearch(s.activeCategories, label)
	if found {
		out.activeCategories = slices.Delete(slices.Clone(s.activeCategories), idx, idx+1)
	} else {
		out.activeCategories = slices.Insert(slices.Clone(s.activeCategories), idx, label)
	}
	return out
}

// WithTerm returns a copy of s with the search term replaced.
func (s State) WithTerm(term string) State {
	return State{SearchTerm: term, activeCategories: slices.Clone(s.activeCategories)}
}

// WithCategories returns a copy of s with the category set replaced.
func (s State) WithCategories(categories []string) State {
	return NewState(s.SearchTerm, categories...)
}

// Equal reports whether two states select the same entries.
func (s State) Equal(other State) bool {
	return s.SearchTerm == other.SearchTerm && slices.Equal(s.activeCategories, other.activeCategories)
}
