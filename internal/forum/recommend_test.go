package forum

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benvon/codemate/internal/models"
)

func TestInteractionTags(t *testing.T) {
	t.Parallel()

	a, b, c := uuid.New(), uuid.New(), uuid.New()
	interactions := []models.Interaction{
		{Action: models.ActionView, TagIDs: []uuid.UUID{b, a}},
		{Action: models.ActionAskQuestion, TagIDs: []uuid.UUID{a, c}},
		{Action: models.ActionUpvote},
	}

	assert.Equal(t, []uuid.UUID{b, a, c}, InteractionTags(interactions))
	assert.Empty(t, InteractionTags(nil))
}

func TestRecommendationQuery(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	tag := uuid.New()

	t.Run("no interactions yields no query", func(t *testing.T) {
		t.Parallel()
		_, ok := RecommendationQuery(userID, nil, "", 1)
		assert.False(t, ok)
	})

	t.Run("interactions without tags yield no query", func(t *testing.T) {
		t.Parallel()
		_, ok := RecommendationQuery(userID, []models.Interaction{{Action: models.ActionView}}, "", 1)
		assert.False(t, ok)
	})

	t.Run("query excludes own questions", func(t *testing.T) {
		t.Parallel()
		spec, ok := RecommendationQuery(userID, []models.Interaction{{TagIDs: []uuid.UUID{tag}}}, "  goroutines ", 0)
		require.True(t, ok)
		require.NotNil(t, spec.ExcludeAuthor)
		assert.Equal(t, userID, *spec.ExcludeAuthor)
		assert.Equal(t, []uuid.UUID{tag}, spec.TagIDs)
		assert.Equal(t, "goroutines", spec.Search)
		assert.Equal(t, 1, spec.Page)
		assert.Equal(t, RecommendationPageSize, spec.PageSize)
	})
}
