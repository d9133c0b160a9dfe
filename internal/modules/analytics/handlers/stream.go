package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"github.com/aristath/advisor/internal/events"
	"github.com/aristath/advisor/internal/modules/analytics"
)

const (
	streamReadTimeout  = 30 * time.Second
	streamWriteTimeout = 10 * time.Second
)

// HandleStream handles GET /api/analytics/stream. The client sends one analytics.Request as
// JSON; the server streams stage events until analysis_completed or analysis_failed and closes.
func (h *Handler) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "unexpected shutdown")

	ctx := r.Context()

	var req analytics.Request
	readCtx, cancel := context.WithTimeout(ctx, streamReadTimeout)
	err = wsjson.Read(readCtx, conn, &req)
	cancel()
	if err != nil {
		h.log.Debug().Err(err).Msg("Invalid stream request")
		conn.Close(websocket.StatusUnsupportedData, "invalid request")
		return
	}

	var (
		mu     sync.Mutex
		broken bool
	)
	sink := func(e *events.EventWithData) {
		if failed, ok := e.Data.(*events.AnalysisFailedData); ok {
			public := *failed
			public.Error = publicError
			e = &events.EventWithData{Type: e.Type, Timestamp: e.Timestamp, Module: e.Module, Data: &public}
		}

		mu.Lock()
		defer mu.Unlock()
		if broken {
			return
		}
		writeCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
		defer cancel()
		if err := wsjson.Write(writeCtx, conn, e); err != nil {
			h.log.Debug().Err(err).Msg("Stream write failed")
			broken = true
		}
	}

	if _, err := h.service.Analyze(ctx, req, sink); err != nil {
		status := statusFor(err)
		event := h.log.Warn()
		if status >= http.StatusInternalServerError {
			event = h.log.Error()
		}
		event.Err(err).Str("operation", "stream").Msg("Analytics request failed")
	}

	conn.Close(websocket.StatusNormalClosure, "")
}
