package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	domain "github.com/benvon/codemate/internal/forum"
	logpkg "github.com/benvon/codemate/internal/logger"
	"github.com/benvon/codemate/internal/models"
	forumsvc "github.com/benvon/codemate/internal/services/forum"
)

// ForumHandler serves questions, answers, votes, tags and search.
type ForumHandler struct {
	svc  ForumService
	auth Auth
	log  *zap.Logger
}

func NewForumHandler(svc ForumService, auth Auth, log *zap.Logger) *ForumHandler {
	return &ForumHandler{svc: svc, auth: auth, log: log}
}

// RegisterRoutes registers forum routes on the given router.
// The router should already have the /api/v1 prefix.
func (h *ForumHandler) RegisterRoutes(r *mux.Router) {
	route := func(path, method string, wrap func(http.Handler) http.Handler, fn http.HandlerFunc) {
		r.Handle(path, wrap(fn)).Methods(method)
	}

	route("/questions", http.MethodGet, h.auth.Optional, h.ListQuestions)
	route("/questions", http.MethodPost, h.auth.Required, h.CreateQuestion)
	route("/questions/hot", http.MethodGet, public, h.HotQuestions)
	route("/questions/{id}", http.MethodGet, h.auth.Optional, h.GetQuestion)
	route("/questions/{id}", http.MethodPatch, h.auth.Required, h.EditQuestion)
	route("/questions/{id}", http.MethodDelete, h.auth.Required, h.DeleteQuestion)
	route("/questions/{id}/vote", http.MethodPost, h.auth.Required, h.VoteQuestion)
	route("/questions/{id}/save", http.MethodPost, h.auth.Required, h.ToggleSave)
	route("/questions/{id}/answers", http.MethodGet, public, h.ListAnswers)
	route("/questions/{id}/answers", http.MethodPost, h.auth.Required, h.CreateAnswer)
	route("/answers/{id}", http.MethodDelete, h.auth.Required, h.DeleteAnswer)
	route("/answers/{id}/vote", http.MethodPost, h.auth.Required, h.VoteAnswer)
	route("/search", http.MethodGet, public, h.GlobalSearch)
	route("/tags/popular", http.MethodGet, public, h.PopularTags)
	route("/tags/{id}/questions", http.MethodGet, public, h.TagQuestions)
}

// ListQuestions lists questions with ?q=, ?filter= and ?page=.
func (h *ForumHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter, err := domain.ParseFilter(q.Get("filter"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}

	page, err := h.svc.ListQuestions(r.Context(), viewerID(r), domain.QuerySpec{
		Search: q.Get("q"),
		Filter: filter,
		Page:   pageParam(r),
	})
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *ForumHandler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	var in forumsvc.QuestionInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	question, paths, err := h.svc.CreateQuestion(r.Context(), user.ID, in)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, mutated(question, paths))
}

func (h *ForumHandler) HotQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.svc.HotQuestions(r.Context())
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, questions)
}

func (h *ForumHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	question, err := h.svc.GetQuestion(r.Context(), id, viewerID(r))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, question)
}

func (h *ForumHandler) EditQuestion(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	var in forumsvc.QuestionInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	question, paths, err := h.svc.EditQuestion(r.Context(), user.ID, id, in)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, mutated(question, paths))
}

func (h *ForumHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	paths, err := h.svc.DeleteQuestion(r.Context(), user.ID, id)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, mutated(nil, paths))
}

func (h *ForumHandler) VoteQuestion(w http.ResponseWriter, r *http.Request) {
	h.vote(w, r, h.svc.VoteQuestion)
}

func (h *ForumHandler) VoteAnswer(w http.ResponseWriter, r *http.Request) {
	h.vote(w, r, h.svc.VoteAnswer)
}

type voteFunc func(ctx context.Context, actorID, itemID uuid.UUID, in forumsvc.VoteInput) (*models.VoteTally, []string, error)

func (h *ForumHandler) vote(w http.ResponseWriter, r *http.Request, apply voteFunc) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	var in forumsvc.VoteInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, h.log, err)
		return
	}

	tally, paths, err := apply(r.Context(), user.ID, id, in)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, mutated(tally, paths))
}

type saveResponse struct {
	Saved       bool     `json:"saved"`
	Invalidated []string `json:"invalidated"`
}

func (h *ForumHandler) ToggleSave(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	saved, paths, err := h.svc.ToggleSave(r.Context(), user.ID, id)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, saveResponse{Saved: saved, Invalidated: mutated(nil, paths).Invalidated})
}

// ListAnswers lists a question's answers with ?sort= and ?page=.
func (h *ForumHandler) ListAnswers(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	sort, err := domain.ParseAnswerSort(r.URL.Query().Get("sort"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	page, err := h.svc.ListAnswers(r.Context(), id, sort, pageParam(r))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *ForumHandler) CreateAnswer(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	var in forumsvc.AnswerInput
	if err := decodeJSON(r, &in); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	answer, paths, err := h.svc.CreateAnswer(r.Context(), user.ID, id, in)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, mutated(answer, paths))
}

func (h *ForumHandler) DeleteAnswer(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	paths, err := h.svc.DeleteAnswer(r.Context(), user.ID, id)
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, mutated(nil, paths))
}

// GlobalSearch searches across content classes with ?q= and ?type=.
func (h *ForumHandler) GlobalSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	results, err := h.svc.GlobalSearch(r.Context(), q.Get("q"), q.Get("type"))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	h.log.Debug("global_search",
		zap.String("query", logpkg.SanitizeQuery(q.Get("q"))),
		zap.Int("results", len(results)),
	)
	respondJSON(w, http.StatusOK, results)
}

func (h *ForumHandler) PopularTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.svc.PopularTags(r.Context())
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, tags)
}

func (h *ForumHandler) TagQuestions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	page, err := h.svc.TagQuestions(r.Context(), id, r.URL.Query().Get("q"), pageParam(r))
	if err != nil {
		respondError(w, r, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, page)
}
