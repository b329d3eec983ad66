package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/benvon/codemate/internal/request"
	"github.com/benvon/codemate/internal/services/ai"
)

// AIHandler serves the synchronous assistant endpoints.
type AIHandler struct {
	svc  ForumService
	auth Auth
	log  *zap.Logger
}

func NewAIHandler(svc ForumService, auth Auth, log *zap.Logger) *AIHandler {
	return &AIHandler{svc: svc, auth: auth, log: log}
}

// RegisterRoutes registers AI routes on the given router.
// The router should already have the /api/v1/ai prefix.
func (h *AIHandler) RegisterRoutes(r *mux.Router) {
	r.Handle("/tag-description", h.auth.Required(http.HandlerFunc(h.TagDescription))).Methods(http.MethodPost)
	r.Handle("/answer", h.auth.Required(http.HandlerFunc(h.Answer))).Methods(http.MethodPost)
}

type tagDescriptionRequest struct {
	Tag string `json:"tag"`
}

type answerRequest struct {
	Question string `json:"question"`
}

type replyResponse struct {
	Reply string `json:"reply"`
}

func (h *AIHandler) TagDescription(w http.ResponseWriter, r *http.Request) {
	var req tagDescriptionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	reply, err := h.svc.DescribeTag(r.Context(), req.Tag)
	if err != nil {
		h.respondAIError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, replyResponse{Reply: reply})
}

func (h *AIHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, r, h.log, err)
		return
	}
	reply, err := h.svc.GenerateAnswer(r.Context(), req.Question)
	if err != nil {
		h.respondAIError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, replyResponse{Reply: reply})
}

// respondAIError reports provider throttling and quota problems as 429 and
// 503 instead of a bare internal error.
func (h *AIHandler) respondAIError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case ai.IsRateLimitError(err):
		h.log.Warn("llm_rate_limited", zap.String("request_id", request.RequestID(r.Context())), zap.Error(err))
		respondJSONError(w, http.StatusTooManyRequests, "assistant_busy", "The AI assistant is busy, try again shortly")
	case ai.IsQuotaError(err):
		h.log.Error("llm_quota_exhausted", zap.String("request_id", request.RequestID(r.Context())), zap.Error(err))
		respondJSONError(w, http.StatusServiceUnavailable, "assistant_unavailable", "The AI assistant is unavailable")
	default:
		respondError(w, r, h.log, err)
	}
}
