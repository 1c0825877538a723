package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/gearhub-backend/api/responses"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
)

// maxThrottleBody caps how much of a login body is buffered to find the email.
const maxThrottleBody = 16 << 10

// WindowLimiter is satisfied by *redis.Client.
type WindowLimiter interface {
	FixedWindowAllow(ctx context.Context, scope string, limit int64, window time.Duration) (bool, int64, error)
}

// LoginThrottle bounds admin login attempts per client address and per
// email inside a fixed window.
type LoginThrottle struct {
	Name       string
	Window     time.Duration
	IPLimit    int
	EmailLimit int
}

func (t LoginThrottle) active() bool {
	return t.Window > 0 && (t.IPLimit > 0 || t.EmailLimit > 0)
}

func (t LoginThrottle) scope(kind, value string) string {
	name := strings.ToLower(strings.TrimSpace(t.Name))
	if name == "" {
		name = "login"
	}
	return name + ":" + kind + ":" + value
}

// Throttle enforces the throttle with the supplied limiter. Limiter outages
// let the request through; the login itself still checks the password.
func Throttle(t LoginThrottle, limiter WindowLimiter, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !t.active() || limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if t.IPLimit > 0 {
				if ip := ClientIP(r); ip != "" && !t.check(ctx, w, limiter, logg, "ip", ip, t.IPLimit) {
					return
				}
			}

			if t.EmailLimit > 0 {
				body, err := io.ReadAll(io.LimitReader(r.Body, maxThrottleBody))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unreadable request body"))
					return
				}
				r.Body = io.NopCloser(bytes.NewReader(body))

				if email := loginEmail(body); email != "" && !t.check(ctx, w, limiter, logg, "email", digest(email), t.EmailLimit) {
					return
				}
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (t LoginThrottle) check(ctx context.Context, w http.ResponseWriter, limiter WindowLimiter, logg *logger.Logger, kind, value string, limit int) bool {
	ok, count, err := limiter.FixedWindowAllow(ctx, t.scope(kind, value), int64(limit), t.Window)
	if err != nil {
		if logg != nil {
			logg.Warn(logg.WithField(ctx, "error", err.Error()), "login throttle unavailable")
		}
		return true
	}
	if ok {
		return true
	}
	if logg != nil {
		logg.Warn(logg.WithFields(ctx, map[string]any{
			"throttle": kind,
			"attempts": count,
			"limit":    limit,
		}), "login.throttled")
	}
	responses.WriteError(ctx, nil, w, pkgerrors.New(pkgerrors.CodeRateLimit, "too many login attempts, please try again later").
		WithRetryAfter(t.Window))
	return false
}

// ClientIP resolves the caller address, preferring the first proxy hop.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}

func loginEmail(body []byte) string {
	var payload struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(body, &payload) != nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(payload.Email))
}

// digest keeps raw addresses out of redis keys.
func digest(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:8])
}
