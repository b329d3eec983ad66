package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benvon/codemate/internal/services/ai"
	forumsvc "github.com/benvon/codemate/internal/services/forum"
)

func TestAIRoutes(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	tests := []struct {
		name       string
		path       string
		body       any
		user       *uuid.UUID
		err        error
		wantStatus int
		wantError  string
	}{
		{name: "tag description", path: "/api/v1/ai/tag-description", body: tagDescriptionRequest{Tag: "go"}, user: &userID, wantStatus: http.StatusOK},
		{name: "answer", path: "/api/v1/ai/answer", body: answerRequest{Question: "What is a goroutine?"}, user: &userID, wantStatus: http.StatusOK},
		{name: "anonymous", path: "/api/v1/ai/answer", body: answerRequest{Question: "q"}, wantStatus: http.StatusUnauthorized},
		{name: "not configured", path: "/api/v1/ai/tag-description", body: tagDescriptionRequest{Tag: "go"}, user: &userID, err: forumsvc.ErrAssistantUnavailable, wantStatus: http.StatusServiceUnavailable, wantError: "assistant_unavailable"},
		{name: "provider throttled", path: "/api/v1/ai/answer", body: answerRequest{Question: "q"}, user: &userID, err: fmt.Errorf("failed to answer: %w", &ai.APIError{StatusCode: http.StatusTooManyRequests}), wantStatus: http.StatusTooManyRequests, wantError: "assistant_busy"},
		{name: "quota exhausted", path: "/api/v1/ai/answer", body: answerRequest{Question: "q"}, user: &userID, err: &ai.APIError{StatusCode: http.StatusTooManyRequests, Permanent: true}, wantStatus: http.StatusServiceUnavailable, wantError: "assistant_unavailable"},
		{name: "provider failure", path: "/api/v1/ai/answer", body: answerRequest{Question: "q"}, user: &userID, err: errors.New("connection reset"), wantStatus: http.StatusInternalServerError, wantError: "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &mockForum{
				DescribeTagFunc: func(_ context.Context, name string) (string, error) {
					assert.Equal(t, "go", name)
					return "Go is a statically typed language.", tt.err
				},
				GenerateAnswerFunc: func(context.Context, string) (string, error) {
					return "A goroutine is a lightweight thread.", tt.err
				},
			}
			rec := serve(newForumRouter(t, svc), newTestRequest(http.MethodPost, tt.path, tt.body), tt.user)

			require.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				env := decodeEnvelope[replyResponse](t, rec)
				assert.NotEmpty(t, env.Data.Reply)
				return
			}
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, decodeEnvelope[any](t, rec).Error)
			}
		})
	}
}
