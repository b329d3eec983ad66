package forum

import (
	"strings"

	"github.com/google/uuid"

	"github.com/benvon/codemate/internal/apperror"
)

// Filter selects the predicate and sort of a question listing.
type Filter string

const (
	FilterNone        Filter = ""
	FilterNewest      Filter = "newest"
	FilterFrequent    Filter = "frequent"
	FilterUnanswered  Filter = "unanswered"
	FilterRecommended Filter = "recommended"
)

const DefaultPageSize = 20

// ParseFilter accepts the listing filters in any case. Empty means the
// storage default order.
func ParseFilter(s string) (Filter, error) {
	f := Filter(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case FilterNone, FilterNewest, FilterFrequent, FilterUnanswered, FilterRecommended:
		return f, nil
	default:
		return "", apperror.InvalidInput("filter", "filter must be one of newest, frequent, unanswered, recommended")
	}
}

// QuerySpec is the predicate, sort and pagination handed to the question
// store. TagIDs restricts results to questions carrying any of the tags and
// ExcludeAuthor drops one author's questions.
type QuerySpec struct {
	Search        string
	Filter        Filter
	Page          int
	PageSize      int
	TagIDs        []uuid.UUID
	ExcludeAuthor *uuid.UUID
}

// Normalize clamps the page to 1 and fills in the default page size.
func (q QuerySpec) Normalize() QuerySpec {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultPageSize
	}
	q.Search = strings.TrimSpace(q.Search)
	return q
}

// Skip is the number of rows before the requested page.
func (q QuerySpec) Skip() int {
	n := q.Normalize()
	return (n.Page - 1) * n.PageSize
}

// HasNext reports whether rows remain after a page that started at skip and
// returned count rows out of total matches.
func HasNext(total, skip, count int) bool {
	return total > skip+count
}

// AnswerSort orders the answers of a question.
type AnswerSort string

const (
	AnswerSortDefault        AnswerSort = ""
	AnswerSortHighestUpvotes AnswerSort = "highestUpvotes"
	AnswerSortLowestUpvotes  AnswerSort = "lowestUpvotes"
	AnswerSortRecent         AnswerSort = "recent"
	AnswerSortOld            AnswerSort = "old"
)

func ParseAnswerSort(s string) (AnswerSort, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return AnswerSortDefault, nil
	case "highestupvotes":
		return AnswerSortHighestUpvotes, nil
	case "lowestupvotes":
		return AnswerSortLowestUpvotes, nil
	case "recent":
		return AnswerSortRecent, nil
	case "old":
		return AnswerSortOld, nil
	default:
		return "", apperror.InvalidInput("sort", "sort must be one of highestUpvotes, lowestUpvotes, recent, old")
	}
}
