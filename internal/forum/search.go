package forum

import (
	"strings"

	"github.com/google/uuid"

	"github.com/benvon/codemate/internal/apperror"
	"github.com/benvon/codemate/internal/models"
)

// SearchType is a searchable content class.
type SearchType string

const (
	SearchQuestion SearchType = "question"
	SearchAnswer   SearchType = "answer"
	SearchUser     SearchType = "user"
	SearchTag      SearchType = "tag"
)

// SearchLimit caps the results per class.
const SearchLimit = 8

// searchOrder is the merge priority when all classes are searched.
var searchOrder = []SearchType{SearchQuestion, SearchAnswer, SearchUser, SearchTag}

// PlanSearch returns the classes to query for a type selector. An empty
// selector means every class in merge order.
func PlanSearch(selector string) ([]SearchType, error) {
	s := SearchType(strings.ToLower(strings.TrimSpace(selector)))
	if s == "" {
		out := make([]SearchType, len(searchOrder))
		copy(out, searchOrder)
		return out, nil
	}
	for _, t := range searchOrder {
		if t == s {
			return []SearchType{t}, nil
		}
	}
	return nil, apperror.InvalidInput("type", "type must be one of question, answer, user, tag")
}

// SearchHit is a raw match from the store. Text is the matched field for
// questions, users and tags. ExternalID is the user's provider id and
// QuestionID is the parent of an answer.
type SearchHit struct {
	ID         uuid.UUID
	Text       string
	ExternalID string
	QuestionID uuid.UUID
}

// NormalizeHits converts store hits of one class into search results,
// keeping store order and applying SearchLimit.
func NormalizeHits(t SearchType, query string, hits []SearchHit) []models.SearchResult {
	if len(hits) > SearchLimit {
		hits = hits[:SearchLimit]
	}
	results := make([]models.SearchResult, 0, len(hits))
	for _, h := range hits {
		r := models.SearchResult{Type: string(t), Title: h.Text, ID: h.ID.String()}
		switch t {
		case SearchUser:
			r.ID = h.ExternalID
		case SearchAnswer:
			r.Title = "Answers containing " + query
			r.ID = h.QuestionID.String()
		}
		results = append(results, r)
	}
	return results
}

// MergeResults concatenates per class results in merge priority order.
func MergeResults(byType map[SearchType][]models.SearchResult) []models.SearchResult {
	var merged []models.SearchResult
	for _, t := range searchOrder {
		merged = append(merged, byType[t]...)
	}
	if merged == nil {
		merged = []models.SearchResult{}
	}
	return merged
}
