package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/benvon/codemate/internal/apperror"
	domain "github.com/benvon/codemate/internal/forum"
	"github.com/benvon/codemate/internal/models"
	"github.com/benvon/codemate/internal/request"
	forumsvc "github.com/benvon/codemate/internal/services/forum"
)

// mockForum implements ForumService. Unset funcs panic, so a test only
// sets what the route under test should call.
type mockForum struct {
	ListQuestionsFunc  func(ctx context.Context, viewer *uuid.UUID, spec domain.QuerySpec) (*models.QuestionPage, error)
	CreateQuestionFunc func(ctx context.Context, authorID uuid.UUID, in forumsvc.QuestionInput) (*models.Question, []string, error)
	GetQuestionFunc    func(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*models.Question, error)
	EditQuestionFunc   func(ctx context.Context, actorID, id uuid.UUID, in forumsvc.QuestionInput) (*models.Question, []string, error)
	DeleteQuestionFunc func(ctx context.Context, actorID, id uuid.UUID) ([]string, error)
	HotQuestionsFunc   func(ctx context.Context) ([]*models.Question, error)
	VoteQuestionFunc   func(ctx context.Context, actorID, questionID uuid.UUID, in forumsvc.VoteInput) (*models.VoteTally, []string, error)
	ToggleSaveFunc     func(ctx context.Context, userID, questionID uuid.UUID) (bool, []string, error)
	CreateAnswerFunc   func(ctx context.Context, authorID, questionID uuid.UUID, in forumsvc.AnswerInput) (*models.Answer, []string, error)
	ListAnswersFunc    func(ctx context.Context, questionID uuid.UUID, sort domain.AnswerSort, page int) (*models.AnswerPage, error)
	DeleteAnswerFunc   func(ctx context.Context, actorID, id uuid.UUID) ([]string, error)
	VoteAnswerFunc     func(ctx context.Context, actorID, answerID uuid.UUID, in forumsvc.VoteInput) (*models.VoteTally, []string, error)
	GlobalSearchFunc   func(ctx context.Context, query, typ string) ([]models.SearchResult, error)
	PopularTagsFunc    func(ctx context.Context) ([]*models.Tag, error)
	TagQuestionsFunc   func(ctx context.Context, tagID uuid.UUID, search string, page int) (*models.TagPage, error)
	DescribeTagFunc    func(ctx context.Context, name string) (string, error)
	GenerateAnswerFunc func(ctx context.Context, question string) (string, error)
}

func (m *mockForum) ListQuestions(ctx context.Context, viewer *uuid.UUID, spec domain.QuerySpec) (*models.QuestionPage, error) {
	return m.ListQuestionsFunc(ctx, viewer, spec)
}

func (m *mockForum) CreateQuestion(ctx context.Context, authorID uuid.UUID, in forumsvc.QuestionInput) (*models.Question, []string, error) {
	return m.CreateQuestionFunc(ctx, authorID, in)
}

func (m *mockForum) GetQuestion(ctx context.Context, id uuid.UUID, viewer *uuid.UUID) (*models.Question, error) {
	return m.GetQuestionFunc(ctx, id, viewer)
}

func (m *mockForum) EditQuestion(ctx context.Context, actorID, id uuid.UUID, in forumsvc.QuestionInput) (*models.Question, []string, error) {
	return m.EditQuestionFunc(ctx, actorID, id, in)
}

func (m *mockForum) DeleteQuestion(ctx context.Context, actorID, id uuid.UUID) ([]string, error) {
	return m.DeleteQuestionFunc(ctx, actorID, id)
}

func (m *mockForum) HotQuestions(ctx context.Context) ([]*models.Question, error) {
	return m.HotQuestionsFunc(ctx)
}

func (m *mockForum) VoteQuestion(ctx context.Context, actorID, questionID uuid.UUID, in forumsvc.VoteInput) (*models.VoteTally, []string, error) {
	return m.VoteQuestionFunc(ctx, actorID, questionID, in)
}

func (m *mockForum) ToggleSave(ctx context.Context, userID, questionID uuid.UUID) (bool, []string, error) {
	return m.ToggleSaveFunc(ctx, userID, questionID)
}

func (m *mockForum) CreateAnswer(ctx context.Context, authorID, questionID uuid.UUID, in forumsvc.AnswerInput) (*models.Answer, []string, error) {
	return m.CreateAnswerFunc(ctx, authorID, questionID, in)
}

func (m *mockForum) ListAnswers(ctx context.Context, questionID uuid.UUID, sort domain.AnswerSort, page int) (*models.AnswerPage, error) {
	return m.ListAnswersFunc(ctx, questionID, sort, page)
}

func (m *mockForum) DeleteAnswer(ctx context.Context, actorID, id uuid.UUID) ([]string, error) {
	return m.DeleteAnswerFunc(ctx, actorID, id)
}

func (m *mockForum) VoteAnswer(ctx context.Context, actorID, answerID uuid.UUID, in forumsvc.VoteInput) (*models.VoteTally, []string, error) {
	return m.VoteAnswerFunc(ctx, actorID, answerID, in)
}

func (m *mockForum) GlobalSearch(ctx context.Context, query, typ string) ([]models.SearchResult, error) {
	return m.GlobalSearchFunc(ctx, query, typ)
}

func (m *mockForum) PopularTags(ctx context.Context) ([]*models.Tag, error) {
	return m.PopularTagsFunc(ctx)
}

func (m *mockForum) TagQuestions(ctx context.Context, tagID uuid.UUID, search string, page int) (*models.TagPage, error) {
	return m.TagQuestionsFunc(ctx, tagID, search, page)
}

func (m *mockForum) DescribeTag(ctx context.Context, name string) (string, error) {
	return m.DescribeTagFunc(ctx, name)
}

func (m *mockForum) GenerateAnswer(ctx context.Context, question string) (string, error) {
	return m.GenerateAnswerFunc(ctx, question)
}

const testUserHeader = "X-Test-User"

// headerAuth authenticates requests carrying a user id in testUserHeader.
type headerAuth struct{}

func (headerAuth) Required(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, ok := withTestUser(r)
		if !ok {
			respondJSONError(w, http.StatusUnauthorized, apperror.Kind(apperror.ErrUnauthorized), "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (headerAuth) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r, _ = withTestUser(r)
		next.ServeHTTP(w, r)
	})
}

func withTestUser(r *http.Request) (*http.Request, bool) {
	id, err := uuid.Parse(r.Header.Get(testUserHeader))
	if err != nil {
		return r, false
	}
	return r.WithContext(request.WithUser(r.Context(), &models.User{ID: id, Username: "tester"})), true
}
