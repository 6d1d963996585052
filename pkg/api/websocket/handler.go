package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/aescanero/lazymint/pkg/domain"
	"github.com/aescanero/lazymint/pkg/ports"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait    = 10 * time.Second
	pingInterval = 30 * time.Second
	eventBuffer  = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StatusReader returns a session's current status cell
type StatusReader interface {
	GetStatus(ctx context.Context, sessionID string) (*domain.Status, error)
}

// Handler handles WebSocket connections
type Handler struct {
	eventBus ports.EventBus
	statuses StatusReader
	logger   *zap.Logger
}

// NewHandler creates a new WebSocket handler
func NewHandler(eventBus ports.EventBus, statuses StatusReader, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		eventBus: eventBus,
		statuses: statuses,
		logger:   logger,
	}
}

// HandleSessionStream streams status events for one session. The first
// message is a snapshot of the current cell.
func (h *Handler) HandleSessionStream(c *gin.Context) {
	sessionID := c.Param("id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("failed to upgrade connection", zap.Error(err))
		return
	}
	defer func() { _ = conn.Close() }()

	h.logger.Info("WebSocket connection established",
		zap.String("session_id", sessionID),
		zap.String("client", c.ClientIP()))

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// The client only sends control frames; a read error means it went away.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Subscribe before the snapshot so no change between the two is lost.
	events := make(chan domain.Event, eventBuffer)
	if err := h.subscribe(ctx, sessionID, events); err != nil {
		h.logger.Error("failed to subscribe to status events",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return
	}

	status, err := h.statuses.GetStatus(ctx, sessionID)
	if err != nil {
		h.logger.Error("failed to read status",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return
	}

	snapshot := domain.Event{
		ID:        uuid.New().String(),
		Type:      domain.EventTypeStatusSnapshot,
		SessionID: sessionID,
		AttemptID: status.AttemptID,
		Timestamp: time.Now(),
		Status:    status,
	}
	if err := h.write(conn, snapshot); err != nil {
		h.logger.Debug("failed to write snapshot", zap.Error(err))
		return
	}

	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Debug("WebSocket connection closed", zap.String("session_id", sessionID))
			return
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case event := <-events:
			if err := h.write(conn, event); err != nil {
				h.logger.Error("failed to write message",
					zap.String("session_id", sessionID),
					zap.Error(err))
				return
			}
		}
	}
}

// subscribe forwards the session's events to ch, dropping them if the client lags
func (h *Handler) subscribe(ctx context.Context, sessionID string, ch chan<- domain.Event) error {
	return h.eventBus.Subscribe(ctx, domain.StatusEventsTopic, func(ctx context.Context, event domain.Event) error {
		if event.SessionID != sessionID {
			return nil
		}

		select {
		case ch <- event:
		default:
			h.logger.Warn("event channel full, dropping event",
				zap.String("session_id", sessionID),
				zap.String("event_id", event.ID),
				zap.String("event_type", string(event.Type)))
		}
		return nil
	})
}

func (h *Handler) write(conn *websocket.Conn, event domain.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, data)
}
