package models

import "slices"

// Facet names a single multi-select filter dimension
type Facet string

const (
	FacetSkill     Facet = "skill"
	FacetLevel     Facet = "level"
	FacetPurpose   Facet = "purpose"
	FacetClassSize Facet = "classSize"
	FacetTime      Facet = "time"
	FacetTheme     Facet = "theme"
)

// Facets lists every facet in display order
var Facets = []Facet{FacetSkill, FacetLevel, FacetPurpose, FacetClassSize, FacetTime, FacetTheme}

// GrammarSkill is the skill value that enables a grammar topic
const GrammarSkill = "Grammar"

// SelectionFilters holds the six independent facets a teacher picks from.
// An empty facet means "any".
type SelectionFilters struct {
	Skill     []string `json:"skill" yaml:"skill"`
	Level     []string `json:"level" yaml:"level"`
	Purpose   []string `json:"purpose" yaml:"purpose"`
	ClassSize []string `json:"classSize" yaml:"classSize"`
	Time      []string `json:"time" yaml:"time"`
	Theme     []string `json:"theme" yaml:"theme"`
}

func (f *SelectionFilters) facet(name Facet) *[]string {
	switch name {
	case FacetSkill:
		return &f.Skill
	case FacetLevel:
		return &f.Level
	case FacetPurpose:
		return &f.Purpose
	case FacetClassSize:
		return &f.ClassSize
	case FacetTime:
		return &f.Time
	case FacetTheme:
		return &f.Theme
	}
	return nil
}

// Values returns a copy of one facet
func (f SelectionFilters) Values(name Facet) []string {
	p := f.facet(name)
	if p == nil {
		return nil
	}
	return slices.Clone(*p)
}

// Toggle adds value to the facet if absent and removes it otherwise.
// Returns false for an unknown facet.
func (f *SelectionFilters) Toggle(name Facet, value string) bool {
	p := f.facet(name)
	if p == nil {
		return false
	}
	if i := slices.Index(*p, value); i >= 0 {
		*p = slices.Delete(slices.Clone(*p), i, i+1)
		return true
	}
	*p = append(slices.Clone(*p), value)
	return true
}

// HasSkill reports whether the skill facet contains value
func (f SelectionFilters) HasSkill(value string) bool {
	return slices.Contains(f.Skill, value)
}

// Normalize drops duplicate values per facet, keeping the first occurrence,
// and replaces nil facets with empty slices so they encode as [].
func (f SelectionFilters) Normalize() SelectionFilters {
	out := SelectionFilters{}
	for _, name := range Facets {
		src := f.facet(name)
		dst := out.facet(name)
		*dst = dedupe(*src)
	}
	return out
}

// Clone returns a deep copy
func (f SelectionFilters) Clone() SelectionFilters {
	return SelectionFilters{
		Skill:     slices.Clone(f.Skill),
		Level:     slices.Clone(f.Level),
		Purpose:   slices.Clone(f.Purpose),
		ClassSize: slices.Clone(f.ClassSize),
		Time:      slices.Clone(f.Time),
		Theme:     slices.Clone(f.Theme),
	}
}

func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
