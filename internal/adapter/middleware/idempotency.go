package middleware

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

const (
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderRequestAt      = "X-Request-At"

	// in-progress claim; a crashed attempt frees the key after this
	provisionalLockTTL = 60 * time.Second
	maxClockSkew       = 10 * time.Minute
	storeTimeout       = 2 * time.Second
)

type respRecorder struct {
	http.ResponseWriter
	buf  bytes.Buffer
	code int
}

func (r *respRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *respRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

func abort(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

// IdempotencyMiddleware makes a retried submission replay the first answer
// instead of filing twice. It needs Idempotency-Key (UUID or 32 hex) and a
// fresh X-Request-At, and must run after Authenticate. The body is buffered
// up to maxBytes. 5xx answers are forgotten so the client can retry.
func IdempotencyMiddleware(rdb *redis.Client, ttl time.Duration, maxBytes int64, logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			raw := req.Header.Get(HeaderIdempotencyKey)
			if raw == "" {
				return abort(c, http.StatusBadRequest, "missing "+HeaderIdempotencyKey)
			}
			reqKey, ok := normalizeKey(raw)
			if !ok {
				return abort(c, http.StatusBadRequest, "invalid "+HeaderIdempotencyKey+" format")
			}
			reqAt, err := parseRequestAt(req.Header.Get(HeaderRequestAt))
			if err != nil {
				return abort(c, http.StatusBadRequest, err.Error())
			}
			if now := nowUTC(); reqAt.Before(now.Add(-maxClockSkew)) || reqAt.After(now.Add(maxClockSkew)) {
				return abort(c, http.StatusBadRequest, HeaderRequestAt+" too skewed")
			}
			id, ok := IdentityFrom(c)
			if !ok {
				return abort(c, http.StatusUnauthorized, "unauthenticated")
			}

			body, err := bufferBody(c, maxBytes)
			if err != nil {
				var tooLarge *http.MaxBytesError
				if errors.As(err, &tooLarge) {
					return abort(c, http.StatusRequestEntityTooLarge, "request body too large")
				}
				return abort(c, http.StatusBadRequest, "unreadable request body")
			}
			digest := requestDigest(req.Header.Get(echo.HeaderContentType), body)

			key := storeKey(req.Method, c.Path(), id.RUT, reqKey)
			ctx, cancel := context.WithTimeout(req.Context(), storeTimeout)
			defer cancel()

			claimed, err := claim(ctx, rdb, key, replayEntry{InProgress: true, Digest: digest, RequestAt: reqAt, StoredAt: nowUTC()})
			if err != nil {
				logger.Error("idempotency store unavailable", slog.String("key", key), slog.Any("error", err))
				return abort(c, http.StatusServiceUnavailable, "idempotency store unavailable")
			}
			if !claimed {
				prev, err := loadReplay(ctx, rdb, key)
				if err != nil {
					logger.Warn("idempotency entry unreadable", slog.String("key", key), slog.Any("error", err))
				}
				switch {
				case prev.Digest != "" && prev.Digest != digest:
					return abort(c, http.StatusConflict, HeaderIdempotencyKey+" reused with different body")
				case !prev.InProgress && prev.Status != 0 && len(prev.Body) > 0:
					return c.Blob(prev.Status, echo.MIMEApplicationJSON, prev.Body)
				default:
					return abort(c, http.StatusConflict, "request is already in progress")
				}
			}

			rec := &respRecorder{ResponseWriter: c.Response().Writer, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			if rec.code >= http.StatusInternalServerError {
				if err := rdb.Del(context.Background(), key).Err(); err != nil {
					logger.Warn("idempotency claim not released", slog.String("key", key), slog.Any("error", err))
				}
				return nil
			}
			final := replayEntry{Status: rec.code, Body: rec.buf.Bytes(), Digest: digest, RequestAt: reqAt, StoredAt: nowUTC()}
			if err := storeReplay(context.Background(), rdb, key, final, ttl); err != nil {
				logger.Warn("idempotency entry not saved", slog.String("key", key), slog.Any("error", err))
			}
			return nil
		}
	}
}

// bufferBody reads at most maxBytes of the body and puts the bytes back for
// the handler.
func bufferBody(c echo.Context, maxBytes int64) ([]byte, error) {
	req := c.Request()
	if req.Body == nil {
		return nil, nil
	}
	r := io.Reader(req.Body)
	if maxBytes > 0 {
		r = http.MaxBytesReader(c.Response(), req.Body, maxBytes)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	req.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}
