package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// hotSwap serves the most recently built wrapper around next. build is
// called once when the middleware is applied and again on every tick of
// Start; a failed build keeps the previous handler.
type hotSwap struct {
	name     string
	build    func(ctx context.Context, next http.Handler) (http.Handler, error)
	log      *zap.Logger
	interval time.Duration

	next    http.Handler
	mu      sync.RWMutex
	current http.Handler
}

func (s *hotSwap) wrap(next http.Handler) http.Handler {
	s.next = next
	s.load(context.Background())
	return s
}

// Start runs the reload loop until ctx is cancelled.
func (s *hotSwap) Start(ctx context.Context) {
	if s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.load(ctx)
		}
	}
}

func (s *hotSwap) load(ctx context.Context) {
	if s.next == nil {
		return
	}
	h, err := s.build(ctx, s.next)
	if err != nil {
		s.log.Warn("middleware_reload_failed", zap.String("middleware", s.name), zap.Error(err))
		return
	}
	s.mu.Lock()
	s.current = h
	s.mu.Unlock()
}

func (s *hotSwap) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	h := s.current
	s.mu.RUnlock()
	if h == nil {
		h = s.next
	}
	h.ServeHTTP(w, r)
}
