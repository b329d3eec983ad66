package handlers

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// LoginURLer builds the identity provider authorization URL.
type LoginURLer interface {
	AuthCodeURL(state string) string
}

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	login LoginURLer
	auth  Auth
	log   *zap.Logger
}

// NewAuthHandler creates a new auth handler. login may be nil when no OIDC
// client is configured.
func NewAuthHandler(login LoginURLer, auth Auth, log *zap.Logger) *AuthHandler {
	return &AuthHandler{login: login, auth: auth, log: log}
}

// RegisterRoutes registers auth routes on the given router
// The router should already have the /api/v1/auth prefix
func (h *AuthHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/login", h.GetLogin).Methods(http.MethodGet)
	r.Handle("/me", h.auth.Required(http.HandlerFunc(h.GetMe))).Methods(http.MethodGet)
}

type loginResponse struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
}

// GetLogin returns the authorization URL and the state the frontend must
// check on the callback.
func (h *AuthHandler) GetLogin(w http.ResponseWriter, r *http.Request) {
	if h.login == nil {
		respondJSONError(w, http.StatusServiceUnavailable, "login_unavailable", "OIDC login is not configured")
		return
	}
	state, err := newState()
	if err != nil {
		h.log.Error("login_state_generation_failed", zap.Error(err))
		respondJSONError(w, http.StatusInternalServerError, "internal_error", "failed to start login")
		return
	}
	respondJSON(w, http.StatusOK, loginResponse{AuthorizationURL: h.login.AuthCodeURL(state), State: state})
}

// GetMe returns current user information
func (h *AuthHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func newState() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
