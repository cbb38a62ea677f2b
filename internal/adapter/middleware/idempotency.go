package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"p2p-lending-backend/pkg/address"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	HeaderRequestID = "Ax-Request-Id"
	HeaderRequestAt = "Ax-Request-At"
	// HeaderReplayed is set on responses served from a stored receipt.
	HeaderReplayed = "Ax-Idempotent-Replay"

	// Allowed client/server clock skew for Ax-Request-At.
	maxClockSkew = 10 * time.Minute
)

type respRecorder struct {
	w    http.ResponseWriter
	buf  *bytes.Buffer
	code int
}

func (r *respRecorder) Header() http.Header { return r.w.Header() }
func (r *respRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.w.Write(b)
}
func (r *respRecorder) WriteHeader(statusCode int) { r.code = statusCode; r.w.WriteHeader(statusCode) }

// Flush keeps streaming handlers working behind the recorder.
func (r *respRecorder) Flush() {
	if f, ok := r.w.(http.Flusher); ok {
		f.Flush()
	}
}

// IdempotencyMiddleware makes lifecycle mutations safe to retry: a repeated
// (method, path, caller, Ax-Request-Id) replays the first response instead of
// moving funds twice. Server errors are not recorded, so the retry runs again.
// The caller comes from CallerIdentity when it ran first, else from the header.
func IdempotencyMiddleware(rdb *redis.Client, ttl time.Duration) echo.MiddlewareFunc {
	store := replayStore{rdb: rdb, ttl: ttl}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			switch req.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				return next(c)
			}

			reqID := strings.TrimSpace(req.Header.Get(HeaderRequestID))
			if reqID == "" {
				return deny(c, http.StatusBadRequest, "invalid_request_id", "missing "+HeaderRequestID)
			}
			if !validReqID(reqID) {
				return deny(c, http.StatusBadRequest, "invalid_request_id", "invalid "+HeaderRequestID+" format")
			}

			reqAt, err := parseAxRequestAt(req.Header.Get(HeaderRequestAt))
			if err != nil {
				return deny(c, http.StatusBadRequest, "invalid_request_at", err.Error())
			}
			now := nowUTC()
			if reqAt.Before(now.Add(-maxClockSkew)) || reqAt.After(now.Add(maxClockSkew)) {
				return deny(c, http.StatusBadRequest, "invalid_request_at", HeaderRequestAt+" too skewed")
			}

			caller := Caller(c)
			if caller == "" {
				raw := strings.TrimSpace(req.Header.Get(CallerHeader))
				if raw == "" {
					return deny(c, http.StatusBadRequest, "invalid_input", "missing "+CallerHeader)
				}
				if caller, err = address.Normalize(raw); err != nil {
					return deny(c, http.StatusBadRequest, "invalid_input", "invalid "+CallerHeader)
				}
			}

			var body []byte
			if req.Body != nil {
				if body, err = io.ReadAll(req.Body); err != nil {
					return deny(c, http.StatusBadRequest, "invalid_input", "unreadable body")
				}
			}
			req.Body = io.NopCloser(bytes.NewReader(body))
			digest := bodyDigest(body)

			key := replayKey(req.Method, req.URL.Path, caller, reqID)
			log := logrus.WithFields(logrus.Fields{"key": key, "caller": caller})
			ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
			defer cancel()

			pending := receipt{
				Pending:     true,
				BodyDigest:  digest,
				Caller:      caller,
				RequestID:   reqID,
				RequestedAt: reqAt,
				StoredAt:    now,
			}
			claimed, err := store.claim(ctx, key, pending)
			if err != nil {
				log.WithError(err).Error("idempotency: claim")
				return deny(c, http.StatusServiceUnavailable, "store_unavailable", "idempotency store unavailable")
			}
			if !claimed {
				prior, err := store.load(ctx, key)
				if err != nil {
					log.WithError(err).Warn("idempotency: load receipt")
				}
				if prior.BodyDigest != "" && prior.BodyDigest != digest {
					return deny(c, http.StatusConflict, "request_id_reused", HeaderRequestID+" reused with different body")
				}
				if prior.replayable() {
					c.Response().Header().Set(HeaderReplayed, "true")
					return c.Blob(prior.Status, echo.MIMEApplicationJSON, prior.Body)
				}
				return deny(c, http.StatusConflict, "request_in_progress", "request is already in progress")
			}

			rec := &respRecorder{w: c.Response().Writer, buf: &bytes.Buffer{}, code: http.StatusOK}
			c.Response().Writer = rec
			if err := next(c); err != nil {
				c.Error(err)
			}

			// the request context may be gone by now; the receipt must still land
			bg, done := context.WithTimeout(context.Background(), 2*time.Second)
			defer done()
			if isServerError(rec.code) {
				if err := store.release(bg, key); err != nil {
					log.WithError(err).Warn("idempotency: release")
				}
				return nil
			}
			final := pending
			final.Pending = false
			final.Status = rec.code
			final.Body = rec.buf.Bytes()
			final.StoredAt = nowUTC()
			if err := store.finish(bg, key, final); err != nil {
				log.WithError(err).Warn("idempotency: store receipt")
			}
			return nil
		}
	}
}
