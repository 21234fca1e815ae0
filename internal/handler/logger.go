package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/browserlog/browserlog/internal/logstore"
	"github.com/browserlog/browserlog/internal/metrics"
	"github.com/browserlog/browserlog/internal/model"
	"github.com/browserlog/browserlog/internal/ratelimit"
	"github.com/browserlog/browserlog/internal/response"
	"github.com/browserlog/browserlog/internal/sanitize"
)

// LoggerHandler is the ingestion endpoint. One handler instance owns the
// rate limiter and log store for the process lifetime; it composes
// admit -> rotate/append discipline per request.
type LoggerHandler struct {
	Enabled    bool
	Limiter    *ratelimit.Limiter
	Store      *logstore.Store
	Log        zerolog.Logger
	LogDenials bool
	Now        func() time.Time
}

func (h *LoggerHandler) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

// Handle dispatches on method: OPTIONS pre-flight, POST ingest, 405
// otherwise. The capture agent runs in browsers, so every response carries
// the permissive CORS headers the pre-flight promises.
func (h *LoggerHandler) Handle(c echo.Context) error {
	header := c.Response().Header()
	header.Set(echo.HeaderAccessControlAllowOrigin, "*")
	header.Set(echo.HeaderAccessControlAllowMethods, http.MethodPost)
	header.Set(echo.HeaderAccessControlAllowHeaders, echo.HeaderContentType)

	switch c.Request().Method {
	case http.MethodOptions:
		return c.NoContent(http.StatusOK)
	case http.MethodPost:
		return h.ingest(c)
	default:
		metrics.ReportsTotal.WithLabelValues("bad_method").Inc()
		return response.MethodNotAllowed(c)
	}
}

// ingest runs the full pipeline for one report. It deliberately ignores the
// request context after the body is read: a closed tab must not lose an
// entry that was already admitted.
func (h *LoggerHandler) ingest(c echo.Context) error {
	if !h.Enabled {
		return response.Logged(c, "")
	}

	identity := c.RealIP()
	if identity == "" {
		identity = ratelimit.UnknownIdentity
	}

	if !h.Limiter.Admit(identity) {
		metrics.ReportsTotal.WithLabelValues("denied").Inc()
		if h.LogDenials {
			h.Log.Warn().Str("identity", identity).Msg("error report denied by rate limiter")
		}
		return response.RateLimited(c)
	}

	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return h.reject(c, identity, "could not read request body")
	}
	var rec model.ErrorRecord
	if err := json.Unmarshal(body, &rec); err != nil {
		return h.reject(c, identity, "invalid JSON payload")
	}
	if err := rec.Validate(); err != nil {
		return h.reject(c, identity, err.Error())
	}

	rec.Normalize(h.now())
	sanitize.Record(&rec)

	entry := logstore.FormatEntry(&rec, identity)
	if err := h.Store.Append(logstore.CategoryApplication, entry); err != nil {
		metrics.ReportsTotal.WithLabelValues("storage_error").Inc()
		h.Log.Error().Err(err).Str("identity", identity).Msg("could not append error report")
		return response.Failed(c, "storage failure")
	}

	metrics.ReportsTotal.WithLabelValues("accepted").Inc()
	h.Log.Info().
		Str("report_id", uuid.New().String()).
		Str("identity", identity).
		Str("source", rec.Source).
		Str("context", rec.Context).
		Msg("error report logged")
	return response.Logged(c, rec.Timestamp)
}

// reject answers a validation failure and records the fact to the transport
// category. The meta entry is best-effort; a store failure there only goes
// to the process log.
func (h *LoggerHandler) reject(c echo.Context, identity, reason string) error {
	metrics.ReportsTotal.WithLabelValues("invalid").Inc()
	meta := logstore.FormatMetaEntry(h.now(), "WARNING", "Failed to ingest error report: "+reason, identity)
	if err := h.Store.Append(logstore.CategoryTransport, meta); err != nil {
		h.Log.Error().Err(err).Msg("could not record ingestion failure")
	}
	return response.Failed(c, reason)
}
