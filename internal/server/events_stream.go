package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"nhooyr.io/websocket"

	"github.com/jayanta1987/jtradebot-advance-processor-sub000/internal/events"
)

const (
	streamBuffer       = 64
	streamWriteTimeout = 5 * time.Second
	streamPingInterval = 30 * time.Second
)

// EventsStreamHandler streams lifecycle events to websocket clients.
// A client may restrict the stream with ?types=POSITION_OPENED,POSITION_CLOSED.
type EventsStreamHandler struct {
	manager        *events.Manager
	originPatterns []string
	done           chan struct{}
	closeOnce      sync.Once
	log            zerolog.Logger
}

// NewEventsStreamHandler creates a new events stream handler. originPatterns
// lists the cross-origin hosts allowed to connect; same-origin is always allowed.
func NewEventsStreamHandler(manager *events.Manager, originPatterns []string, log zerolog.Logger) *EventsStreamHandler {
	return &EventsStreamHandler{
		manager:        manager,
		originPatterns: originPatterns,
		done:           make(chan struct{}),
		log:            log.With().Str("component", "events_stream").Logger(),
	}
}

// ServeHTTP handles GET /api/events/ws
func (h *EventsStreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		// Accept has already written the error response
		h.log.Warn().Err(err).Msg("Websocket handshake failed")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "stream closed")

	allowed := parseEventTypes(r.URL.Query().Get("types"))

	stream, cancel := h.manager.Subscribe(streamBuffer)
	defer cancel()

	// the stream is write-only; CloseRead handles control frames and client close
	ctx := conn.CloseRead(r.Context())

	h.log.Debug().Int("filters", len(allowed)).Msg("Event stream client connected")

	ping := time.NewTicker(streamPingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			h.log.Debug().Msg("Event stream client disconnected")
			return

		case <-h.done:
			conn.Close(websocket.StatusGoingAway, "server shutting down")
			return

		case <-ping.C:
			pingCtx, cancelPing := context.WithTimeout(ctx, streamWriteTimeout)
			err := conn.Ping(pingCtx)
			cancelPing()
			if err != nil {
				h.log.Debug().Err(err).Msg("Event stream ping failed")
				return
			}

		case ev, ok := <-stream:
			if !ok {
				return
			}
			if len(allowed) > 0 && !allowed[ev.Type] {
				continue
			}
			if err := h.write(ctx, conn, &ev); err != nil {
				h.log.Debug().Err(err).Str("event_type", string(ev.Type)).Msg("Event stream write failed")
				return
			}
		}
	}
}

func (h *EventsStreamHandler) write(ctx context.Context, conn *websocket.Conn, ev *events.EventWithData) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}

// Close disconnects every client. Safe to call more than once.
func (h *EventsStreamHandler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

func parseEventTypes(raw string) map[events.EventType]bool {
	if raw == "" {
		return nil
	}
	allowed := make(map[events.EventType]bool)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			allowed[events.EventType(strings.ToUpper(part))] = true
		}
	}
	return allowed
}
