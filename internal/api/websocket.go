package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/zainfaisal220/Sumlyzer/internal/models"
)

// WebSocket message types for the job progress protocol
const (
	// Client -> Server messages
	MsgTypePing = "ping"

	// Server -> Client messages
	MsgTypeConnected = "connected"
	MsgTypePong      = "pong"
	MsgTypeProgress  = "progress"
	MsgTypeComplete  = "complete"
	MsgTypeError     = "error"
)

// WSMessage is the framed message exchanged over the socket
type WSMessage struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// WSErrorResponse is the payload of an error message
type WSErrorResponse struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// JobSocketHandler streams summarize job progress over WebSocket. Clients
// send ping frames to keep the connection alive; the server pushes the job
// snapshot until it reaches a terminal status.
type JobSocketHandler struct {
	jobs     JobManager
	log      *slog.Logger
	upgrader websocket.Upgrader
}

// NewJobSocketHandler creates a new WebSocket progress handler
func NewJobSocketHandler(jobs JobManager, log *slog.Logger) *JobSocketHandler {
	return &JobSocketHandler{
		jobs: jobs,
		log:  log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Allow connections from dev server
				return true
			},
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
		},
	}
}

// wsConn serializes writes; the ping reader and the status pusher share
// the connection.
type wsConn struct {
	mu sync.Mutex
	ws *websocket.Conn
}

func (c *wsConn) send(msg WSMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ws.WriteJSON(msg)
}

// HandleJobSocket upgrades the connection and streams a job's progress
func (h *JobSocketHandler) HandleJobSocket(c echo.Context) error {
	id := c.Param("jobId")
	if id == "" {
		return NewValidationError("jobId")
	}
	if _, ok := h.jobs.GetJob(id); !ok {
		return NewNotFoundError("job", id)
	}

	ws, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer ws.Close()

	conn := &wsConn{ws: ws}
	h.log.Debug("job socket connected", "job", id)

	conn.send(WSMessage{Type: MsgTypeConnected, ID: id, Timestamp: time.Now().UnixMilli()})

	// Reader: answer pings, signal when the client goes away.
	done := make(chan struct{})
	go h.readLoop(conn, done)

	if finished := h.pushStatus(conn, id); finished {
		h.log.Debug("job socket finished", "job", id)
		return nil
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	timeout := time.NewTimer(5 * time.Minute)
	defer timeout.Stop()

	for {
		select {
		case <-ticker.C:
			if finished := h.pushStatus(conn, id); finished {
				h.log.Debug("job socket finished", "job", id)
				return nil
			}

		case <-timeout.C:
			h.sendError(conn, "stream timeout", "TIMEOUT")
			return nil

		case <-done:
			h.log.Debug("job socket client disconnected", "job", id)
			return nil
		}
	}
}

// readLoop consumes client frames until the connection drops.
func (h *JobSocketHandler) readLoop(conn *wsConn, done chan struct{}) {
	defer close(done)
	for {
		var msg WSMessage
		if err := conn.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Debug("job socket read error", "error", err)
			}
			return
		}

		if msg.Type == MsgTypePing {
			conn.send(WSMessage{Type: MsgTypePong, Timestamp: time.Now().UnixMilli()})
		}
	}
}

// pushStatus sends the current job snapshot. Returns true once a terminal
// message has been sent and the stream should end.
func (h *JobSocketHandler) pushStatus(conn *wsConn, id string) bool {
	job, ok := h.jobs.GetJob(id)
	if !ok {
		h.sendError(conn, "job not found", "NOT_FOUND")
		return true
	}

	msgType := MsgTypeProgress
	switch job.Status {
	case models.JobStatusComplete:
		msgType = MsgTypeComplete
	case models.JobStatusError:
		msgType = MsgTypeError
	}

	err := conn.send(WSMessage{
		Type:      msgType,
		ID:        job.ID,
		Payload:   mustJSON(job),
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		h.log.Debug("job socket send failed", "job", id, "error", err)
		return true
	}

	return msgType != MsgTypeProgress
}

// Helper methods

func (h *JobSocketHandler) sendError(conn *wsConn, message, code string) {
	conn.send(WSMessage{
		Type:      MsgTypeError,
		Timestamp: time.Now().UnixMilli(),
		Payload: mustJSON(WSErrorResponse{
			Type:    MsgTypeError,
			Message: message,
			Code:    code,
		}),
	})
}

func mustJSON(v interface{}) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		return []byte("{}")
	}
	return data
}
