package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"promptpix/internal/domain"
)

type window struct {
	used  int
	reset time.Time
}

// limiter counts requests per client in fixed windows.
type limiter struct {
	mu      sync.Mutex
	limit   int
	per     time.Duration
	clients map[string]*window
	now     func() time.Time
}

// take spends one request for client. When the window is full it reports
// how long until the next one opens.
func (l *limiter) take(client string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	w, ok := l.clients[client]
	if !ok || !now.Before(w.reset) {
		if len(l.clients) >= 1024 {
			l.sweep(now)
		}
		w = &window{reset: now.Add(l.per)}
		l.clients[client] = w
	}
	if w.used >= l.limit {
		return false, w.reset.Sub(now)
	}
	w.used++
	return true, 0
}

// sweep drops expired windows; mu must be held.
func (l *limiter) sweep(now time.Time) {
	for client, w := range l.clients {
		if !now.Before(w.reset) {
			delete(l.clients, client)
		}
	}
}

// RateLimit allows limit requests per client every per. Rejected requests get
// 429 with Retry-After and the service error envelope in the request locale.
func RateLimit(log zerolog.Logger, limit int, per time.Duration) func(http.Handler) http.Handler {
	lim := &limiter{limit: limit, per: per, clients: make(map[string]*window), now: time.Now}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			client := clientIPForRateLimit(r)
			ok, wait := lim.take(client)
			if ok {
				next.ServeHTTP(w, r)
				return
			}
			secs := int(wait.Round(time.Second) / time.Second)
			if secs < 1 {
				secs = 1
			}
			rid := RequestIDFromContext(r.Context())
			log.Warn().
				Str("request_id", rid).
				Str("client", client).
				Str("path", r.URL.Path).
				Int("limit", limit).
				Int("retry_after_s", secs).
				Msg("rate limited")

			msg := domain.UserMessage(domain.Classify(domain.KindRateLimit, http.StatusTooManyRequests, "", "", nil), LocaleFromContext(r.Context()))
			w.Header().Set("Retry-After", strconv.Itoa(secs))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{
					"code":       "rate_limited",
					"kind":       string(domain.KindRateLimit),
					"status":     http.StatusTooManyRequests,
					"message":    msg,
					"request_id": rid,
				},
			})
		})
	}
}

func clientIPForRateLimit(r *http.Request) string {
	if xf := r.Header.Get("X-Forwarded-For"); xf != "" {
		for _, part := range strings.Split(xf, ",") {
			if ip := strings.TrimSpace(part); net.ParseIP(ip) != nil {
				return ip
			}
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && net.ParseIP(host) != nil {
		return host
	}
	return r.RemoteAddr
}
