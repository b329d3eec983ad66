package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benvon/codemate/internal/apperror"
)

type questionBody struct {
	Title   string   `json:"title" validate:"required,min=5,max=130"`
	Content string   `json:"content" validate:"required,min=20"`
	Tags    []string `json:"tags" validate:"min=1,max=3,dive,tag_name"`
}

type voteBody struct {
	Action string `json:"action" validate:"required,vote_action"`
}

type listQuery struct {
	Filter string `json:"filter" validate:"question_filter"`
	Sort   string `json:"sort" validate:"answer_sort"`
	Type   string `json:"type" validate:"search_type"`
}

func TestStruct(t *testing.T) {
	t.Parallel()

	valid := questionBody{
		Title:   "How do channels work?",
		Content: "I am confused about buffered channels in Go.",
		Tags:    []string{"go", "channels"},
	}

	tests := []struct {
		name      string
		in        any
		wantField string
		wantMsg   string
	}{
		{name: "valid question", in: valid},
		{name: "short title", in: questionBody{Title: "Hi", Content: valid.Content, Tags: valid.Tags}, wantField: "title", wantMsg: "title must be at least 5 characters"},
		{name: "missing content", in: questionBody{Title: valid.Title, Tags: valid.Tags}, wantField: "content", wantMsg: "content is required"},
		{name: "no tags", in: questionBody{Title: valid.Title, Content: valid.Content}, wantField: "tags", wantMsg: "tags needs at least 1 items"},
		{name: "too many tags", in: questionBody{Title: valid.Title, Content: valid.Content, Tags: []string{"a", "b", "c", "d"}}, wantField: "tags", wantMsg: "tags allows at most 3 items"},
		{name: "tag too long", in: questionBody{Title: valid.Title, Content: valid.Content, Tags: []string{"averyveryverylongtag"}}, wantField: "tags[0]"},
		{name: "tag with space", in: questionBody{Title: valid.Title, Content: valid.Content, Tags: []string{"go", "two words"}}, wantField: "tags[1]"},
		{name: "valid vote", in: voteBody{Action: "UpVote"}},
		{name: "bad vote", in: voteBody{Action: "sidevote"}, wantField: "action", wantMsg: "action must be upvote or downvote"},
		{name: "empty query params", in: listQuery{}},
		{name: "bad filter", in: listQuery{Filter: "oldest"}, wantField: "filter"},
		{name: "bad sort", in: listQuery{Sort: "random"}, wantField: "sort"},
		{name: "bad type", in: listQuery{Type: "comment"}, wantField: "type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Struct(tt.in)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, apperror.ErrInvalidInput)
			var appErr *apperror.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.wantField, appErr.Field)
			if tt.wantMsg != "" {
				assert.Equal(t, tt.wantMsg, appErr.Message)
			}
		})
	}
}

func TestSanitizeText(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
	}{
		{"  hello  ", "hello"},
		{"line\nbreak\tand tab", "line\nbreak\tand tab"},
		{"bell\x07 removed", "bell removed"},
		{"\r\ncrlf", "crlf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeText(tt.in))
	}
}
