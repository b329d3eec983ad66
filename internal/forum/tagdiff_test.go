package forum

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"

	"github.com/benvon/codemate/internal/models"
)

func TestDiffTags(t *testing.T) {
	t.Parallel()

	goID, sqlID, reactID := uuid.New(), uuid.New(), uuid.New()
	current := []models.TagRef{
		{ID: goID, Name: "Go"},
		{ID: sqlID, Name: "sql"},
		{ID: reactID, Name: "React"},
	}

	tests := []struct {
		name      string
		current   []models.TagRef
		submitted []string
		want      TagDiff
	}{
		{
			name:      "unchanged ignoring case",
			current:   current,
			submitted: []string{"GO", "SQL", "react"},
			want:      TagDiff{},
		},
		{
			name:      "add and remove",
			current:   current,
			submitted: []string{"go", "Postgres"},
			want:      TagDiff{ToAdd: []string{"Postgres"}, ToRemove: []uuid.UUID{sqlID, reactID}},
		},
		{
			name:      "duplicate submissions collapse to first spelling",
			current:   nil,
			submitted: []string{"Kubernetes", "kubernetes", " KUBERNETES ", ""},
			want:      TagDiff{ToAdd: []string{"Kubernetes"}},
		},
		{
			name:      "clear all tags",
			current:   current,
			submitted: nil,
			want:      TagDiff{ToRemove: []uuid.UUID{goID, sqlID, reactID}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := DiffTags(tt.current, tt.submitted)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("DiffTags() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNormalizeTagNames(t *testing.T) {
	t.Parallel()

	got := NormalizeTagNames([]string{" Go ", "go", "Rust", "", "rust"})
	want := []string{"Go", "Rust"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NormalizeTagNames() mismatch (-want +got):\n%s", diff)
	}
}

func TestTagDiffEmpty(t *testing.T) {
	t.Parallel()

	if !(TagDiff{}).Empty() {
		t.Error("Expected zero diff to be empty")
	}
	if (TagDiff{ToAdd: []string{"go"}}).Empty() {
		t.Error("Expected diff with additions to be non-empty")
	}
}
