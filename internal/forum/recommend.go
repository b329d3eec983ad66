package forum

import (
	"github.com/google/uuid"

	"github.com/benvon/codemate/internal/models"
)

// RecommendationPageSize is fixed for recommended listings.
const RecommendationPageSize = 20

// InteractionTags returns the distinct tag ids across interactions in order
// of first appearance.
func InteractionTags(interactions []models.Interaction) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var tags []uuid.UUID
	for _, in := range interactions {
		for _, id := range in.TagIDs {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			tags = append(tags, id)
		}
	}
	return tags
}

// RecommendationQuery builds the listing query for a user's recommendations.
// ok is false when the user has no tag signal, in which case the result is
// empty and no query should run.
func RecommendationQuery(userID uuid.UUID, interactions []models.Interaction, search string, page int) (QuerySpec, bool) {
	tags := InteractionTags(interactions)
	if len(tags) == 0 {
		return QuerySpec{}, false
	}
	exclude := userID
	return QuerySpec{
		Search:        search,
		Page:          page,
		PageSize:      RecommendationPageSize,
		TagIDs:        tags,
		ExcludeAuthor: &exclude,
	}.Normalize(), true
}
