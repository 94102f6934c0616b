// Package visibility decides which attribute-type panels apply to a given
// product context. Pure functions, no persisted state; callers re-evaluate
// whenever the selected variation type or store category changes.
package visibility

import (
	"sort"
	"strings"
)

// Tag identifies one attribute-type panel.
type Tag string

const (
	TagWeight   Tag = "weight"
	TagSize     Tag = "size"
	TagColor    Tag = "color"
	TagMaterial Tag = "material"
)

// AllTags lists every known panel tag.
var AllTags = []Tag{TagWeight, TagSize, TagColor, TagMaterial}

// Set is a set of panel tags.
type Set map[Tag]struct{}

// Has reports membership.
func (s Set) Has(t Tag) bool {
	_, ok := s[t]
	return ok
}

// Tags returns the members in stable order.
func (s Set) Tags() []Tag {
	out := make([]Tag, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func (s Set) add(t Tag) {
	s[t] = struct{}{}
}

func full() Set {
	s := make(Set, len(AllTags))
	for _, t := range AllTags {
		s.add(t)
	}
	return s
}

// categoryDefaults maps a store/category key to its panel set, used when no
// variation type is selected.
var categoryDefaults = map[string][]Tag{
	"grocery":   {TagWeight},
	"food":      {TagWeight},
	"apparel":   {TagSize, TagColor, TagMaterial},
	"fashion":   {TagSize, TagColor, TagMaterial},
	"footwear":  {TagSize, TagColor},
	"furniture": {TagSize, TagColor, TagMaterial},
	"hardware":  {TagSize, TagMaterial},
	"jewelry":   {TagSize, TagMaterial},
}

// Classify maps a variation type name (or a category fallback) to the set of
// panels that should render. A name containing a comma-separated list is
// split and the per-segment results are unioned. An unrecognized context
// returns the full tag set: failing open keeps every data-entry panel
// reachable, where failing closed would silently lose capability.
func Classify(typeName, category string) Set {
	if name := strings.TrimSpace(typeName); name != "" {
		matched := make(Set)
		for _, segment := range strings.Split(name, ",") {
			for t := range classifySegment(segment) {
				matched.add(t)
			}
		}
		if len(matched) > 0 {
			return matched
		}
	}

	if key := strings.ToLower(strings.TrimSpace(category)); key != "" {
		if tags, ok := categoryDefaults[key]; ok {
			s := make(Set, len(tags))
			for _, t := range tags {
				s.add(t)
			}
			return s
		}
	}

	return full()
}

func classifySegment(segment string) Set {
	s := make(Set)
	lowered := strings.ToLower(strings.TrimSpace(segment))
	for _, t := range AllTags {
		if strings.Contains(lowered, string(t)) {
			s.add(t)
		}
	}
	return s
}
