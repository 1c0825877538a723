package middleware

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/angelmondragon/gearhub-backend/api/responses"
	pkgerrors "github.com/angelmondragon/gearhub-backend/pkg/errors"
	"github.com/angelmondragon/gearhub-backend/pkg/logger"
	pkgredis "github.com/angelmondragon/gearhub-backend/pkg/redis"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	// ReplayHeader marks a response served from the idempotency store.
	ReplayHeader = "Idempotent-Replayed"

	checkoutReplayTTL = 7 * 24 * time.Hour
	adminReplayTTL    = 24 * time.Hour
	// inFlightTTL bounds how long a crashed request can hold its key.
	inFlightTTL = 2 * time.Minute

	maxIdempotencyKeyLen = 128
	maxReplayBody        = 1 << 20
)

type idempotencyPolicy struct {
	method   string
	path     *regexp.Regexp
	ttl      time.Duration
	required bool
}

// Checkout always needs a key; the admin writes accept one when sent.
var idempotencyPolicies = []idempotencyPolicy{
	{http.MethodPost, regexp.MustCompile(`^/api/v1/checkout/?$`), checkoutReplayTTL, true},
	{http.MethodPatch, regexp.MustCompile(`^/api/admin/orders/[^/]+/status/?$`), adminReplayTTL, false},
	{http.MethodPost, regexp.MustCompile(`^/api/admin/coupons/?$`), adminReplayTTL, false},
	{http.MethodPost, regexp.MustCompile(`^/api/admin/faqs/?$`), adminReplayTTL, false},
}

func policyFor(method, path string) (idempotencyPolicy, bool) {
	for _, p := range idempotencyPolicies {
		if p.method == method && p.path.MatchString(path) {
			return p, true
		}
	}
	return idempotencyPolicy{}, false
}

type idempotencyStore interface {
	Get(ctx context.Context, key string) (string, error)
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	IdempotencyKey(scope, id string) string
}

var _ idempotencyStore = (*pkgredis.Client)(nil)

// storedResponse is the redis value. Pending is set while the first request
// is still running.
type storedResponse struct {
	Fingerprint string `json:"fingerprint"`
	Pending     bool   `json:"pending,omitempty"`
	Status      int    `json:"status,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"body,omitempty"`
}

// Idempotency makes the write routes in idempotencyPolicies safe to retry.
// The first request reserves the key, later ones with the same body replay
// its response, and a different body under the same key is rejected. Server
// errors release the key so the client may retry.
func Idempotency(store idempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			policy, ok := policyFor(r.Method, r.URL.Path)
			if !ok || store == nil {
				next.ServeHTTP(w, r)
				return
			}
			ctx := r.Context()

			clientKey := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
			if clientKey == "" {
				if policy.required {
					responses.WriteError(ctx, logg, w, pkgerrors.FieldError(IdempotencyKeyHeader, "header is required"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}
			if len(clientKey) > maxIdempotencyKeyLen {
				responses.WriteError(ctx, logg, w, pkgerrors.FieldError(IdempotencyKeyHeader, "must be at most 128 characters"))
				return
			}

			body, err := io.ReadAll(io.LimitReader(r.Body, maxReplayBody+1))
			if err != nil || len(body) > maxReplayBody {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "request body unreadable or too large"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			fingerprint := fingerprintRequest(r.Method, r.URL.Path, body)
			key := store.IdempotencyKey(callerScope(ctx), clientKey)

			reserved, err := reserve(ctx, store, key, fingerprint)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency store unavailable"))
				return
			}
			if !reserved {
				replayOrReject(ctx, store, key, fingerprint, w, logg)
				return
			}

			capture := &captureWriter{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			// Storage runs after the response went out, so it must survive a
			// client disconnect.
			saveCtx := context.WithoutCancel(ctx)
			if capture.statusCode() >= http.StatusInternalServerError {
				if err := store.Del(saveCtx, key); err != nil && logg != nil {
					logg.Error(saveCtx, "idempotency release failed", err)
				}
				return
			}
			final, _ := json.Marshal(storedResponse{
				Fingerprint: fingerprint,
				Status:      capture.statusCode(),
				ContentType: capture.Header().Get("Content-Type"),
				Body:        capture.buf.Bytes(),
			})
			if err := store.Set(saveCtx, key, string(final), policy.ttl); err != nil && logg != nil {
				logg.Error(saveCtx, "idempotency record not saved", err)
			}
		})
	}
}

func reserve(ctx context.Context, store idempotencyStore, key, fingerprint string) (bool, error) {
	marker, _ := json.Marshal(storedResponse{Fingerprint: fingerprint, Pending: true})
	return store.SetNX(ctx, key, string(marker), inFlightTTL)
}

func replayOrReject(ctx context.Context, store idempotencyStore, key, fingerprint string, w http.ResponseWriter, logg *logger.Logger) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		// Released between SetNX and Get: the first attempt failed.
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "previous attempt with this key failed, retry"))
		return
	}
	if err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "idempotency store unavailable"))
		return
	}
	var prior storedResponse
	if err := json.Unmarshal([]byte(raw), &prior); err != nil {
		responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "corrupt idempotency record"))
		return
	}

	switch {
	case prior.Fingerprint != fingerprint:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with a different request"))
	case prior.Pending:
		responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeConflict, "a request with this idempotency key is still in progress").
			WithRetryAfter(time.Second))
	default:
		if prior.ContentType != "" {
			w.Header().Set("Content-Type", prior.ContentType)
		}
		w.Header().Set(ReplayHeader, "true")
		w.WriteHeader(prior.Status)
		_, _ = w.Write(prior.Body)
	}
}

// callerScope keeps keys from different admins or carts apart.
func callerScope(ctx context.Context) string {
	if id := UserIDFromContext(ctx); id != "" {
		return "user:" + id
	}
	if token := CartTokenFromContext(ctx); token != "" {
		return "cart:" + token
	}
	return "anon"
}

func fingerprintRequest(method, path string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method + " " + path + "\n"))
	h.Write(body)
	return hex.EncodeToString(h.Sum(nil))
}

type captureWriter struct {
	http.ResponseWriter
	status int
	buf    bytes.Buffer
}

func (c *captureWriter) WriteHeader(code int) {
	if c.status == 0 {
		c.status = code
	}
	c.ResponseWriter.WriteHeader(code)
}

func (c *captureWriter) Write(p []byte) (int, error) {
	if c.status == 0 {
		c.status = http.StatusOK
	}
	c.buf.Write(p)
	return c.ResponseWriter.Write(p)
}

func (c *captureWriter) statusCode() int {
	if c.status == 0 {
		return http.StatusOK
	}
	return c.status
}
