package forum

import (
	"strings"

	"github.com/google/uuid"

	"github.com/benvon/codemate/internal/models"
)

// CanonicalTagName is the comparison key for tag names. It is never stored or
// displayed.
func CanonicalTagName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// NormalizeTagNames trims names, drops blanks and collapses names equal under
// CanonicalTagName, keeping the first spelling seen.
func NormalizeTagNames(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := CanonicalTagName(name)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	return out
}

// TagDiff is the edit needed to move a question from its current tags to the
// submitted ones.
type TagDiff struct {
	ToAdd    []string
	ToRemove []uuid.UUID
}

// Empty reports whether the diff changes nothing.
func (d TagDiff) Empty() bool {
	return len(d.ToAdd) == 0 && len(d.ToRemove) == 0
}

// DiffTags compares current tags with submitted names ignoring case. Names to
// add keep their submitted spelling; tags to remove are identified by id.
func DiffTags(current []models.TagRef, submitted []string) TagDiff {
	submitted = NormalizeTagNames(submitted)

	currentKeys := make(map[string]struct{}, len(current))
	for _, t := range current {
		currentKeys[CanonicalTagName(t.Name)] = struct{}{}
	}
	submittedKeys := make(map[string]struct{}, len(submitted))
	for _, name := range submitted {
		submittedKeys[CanonicalTagName(name)] = struct{}{}
	}

	var diff TagDiff
	for _, name := range submitted {
		if _, ok := currentKeys[CanonicalTagName(name)]; !ok {
			diff.ToAdd = append(diff.ToAdd, name)
		}
	}
	for _, t := range current {
		if _, ok := submittedKeys[CanonicalTagName(t.Name)]; !ok {
			diff.ToRemove = append(diff.ToRemove, t.ID)
		}
	}
	return diff
}
