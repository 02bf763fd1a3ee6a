package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/deepgram/assistkit/internal/connections"
	"github.com/deepgram/assistkit/internal/services/assistant"
	"github.com/deepgram/assistkit/pkg/logger"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sashabaranov/go-openai"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// StreamEvent is one frame sent to a run-stream client
type StreamEvent struct {
	Type   string               `json:"type"`
	RunID  string               `json:"run_id,omitempty"`
	Status openai.RunStatus     `json:"status,omitempty"`
	Result *assistant.RunResult `json:"result,omitempty"`
	Error  string               `json:"error,omitempty"`
}

const (
	EventStatus = "status"
	EventResult = "result"
	EventError  = "error"
)

// HandleRunStream runs the assistant on a thread and pushes every observed run
// status over a websocket. The client sends one JSON RunOptions frame to start.
func HandleRunStream(manager *assistant.Manager, conns *connections.Manager, w http.ResponseWriter, r *http.Request) {
	a, ok := lookup(manager, w, r)
	if !ok {
		return
	}
	threadID := mux.Vars(r)["thread_id"]

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error(logger.HANDLER, "Failed to upgrade run stream: %v", err)
		return
	}
	conns.AddConnection(conn)
	defer func() {
		conns.RemoveConnection(conn)
		conn.Close()
	}()

	if err := conn.SetReadDeadline(time.Now().Add(conns.GetTimeouts().ReadWait)); err != nil {
		return
	}

	var opts assistant.RunOptions
	if err := conn.ReadJSON(&opts); err != nil {
		logger.Warn(logger.HANDLER, "Invalid run stream request: %v", err)
		_ = conns.WriteJSON(conn, StreamEvent{Type: EventError, Error: "invalid run request"})
		return
	}
	if err := validate.Struct(&opts); err != nil {
		_ = conns.WriteJSON(conn, StreamEvent{Type: EventError, Error: err.Error()})
		return
	}

	// Polling stops as soon as the client goes away.
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		return
	}
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				logger.Debug(logger.HANDLER, "Run stream reader stopped: %v", err)
				return
			}
		}
	}()

	opts.OnStatus = func(run openai.Run) {
		if err := conns.WriteJSON(conn, StreamEvent{Type: EventStatus, RunID: run.ID, Status: run.Status}); err != nil {
			logger.Debug(logger.HANDLER, "Run stream client went away: %v", err)
			cancel()
		}
	}

	result, err := a.Run(ctx, threadID, opts)
	if err != nil {
		_ = conns.WriteJSON(conn, StreamEvent{Type: EventError, RunID: result.RunID, Status: result.Status, Error: err.Error()})
		return
	}

	_ = conns.WriteJSON(conn, StreamEvent{Type: EventResult, RunID: result.RunID, Status: result.Status, Result: &result})
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run finished"), time.Now().Add(time.Second))
}
