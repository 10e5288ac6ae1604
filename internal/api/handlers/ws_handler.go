package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/intervuehq/intervue/internal/services"
	"github.com/intervuehq/intervue/internal/utils"
	"github.com/redis/go-redis/v9"
)

type WSHandler struct {
	sessions services.SessionService
	redis    *redis.Client
	upgrader websocket.Upgrader
	stream   string
}

func NewWSHandler(sessions services.SessionService, rdb *redis.Client) *WSHandler {
	return &WSHandler{
		sessions: sessions,
		redis:    rdb,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true }, // TODO: restrict origin in prod
		},
		stream: "answers:stream",
	}
}

type wsClientMsg struct {
	Type        string `json:"type"`
	AudioBase64 string `json:"audio_base64"`
	IsLast      bool   `json:"is_last"`
	Language    string `json:"language"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) writeText(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.c.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

// InterviewWS streams one live interview: the client sends spoken answers as
// base64 audio, worker results come back over the session's event channel.
func (h *WSHandler) InterviewWS(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sessionID := c.Param("session_id")
	if sessionID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, "WSHandler.InterviewWS", "missing session_id", nil))
		return
	}

	sess, err := h.sessions.Get(c.Request.Context(), sessionID)
	if err != nil {
		writeError(c, err)
		return
	}
	if sess.UserID != userID {
		writeError(c, utils.E(utils.CodeForbidden, "WSHandler.InterviewWS", "forbidden", nil))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// upgrade already wrote response in most cases
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	eventsCh := "session:" + sessionID + ":events"
	pubsub := h.redis.Subscribe(ctx, eventsCh)
	defer pubsub.Close()

	// reader: WS -> Redis Stream consumed by the answer worker pool
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
			return nil
		})

		for {
			_, data, rerr := conn.ReadMessage()
			if rerr != nil {
				return
			}

			var msg wsClientMsg
			if err := json.Unmarshal(data, &msg); err != nil {
				_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"invalid json"}`))
				continue
			}

			switch msg.Type {
			case "answer":
				if msg.AudioBase64 == "" {
					_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"audio_base64 required"}`))
					continue
				}
				isLast := "0"
				if msg.IsLast {
					isLast = "1"
				}
				if err := h.redis.XAdd(ctx, &redis.XAddArgs{
					Stream: h.stream,
					Values: map[string]any{
						"session_id":   sessionID,
						"audio_base64": msg.AudioBase64,
						"is_last":      isLast,
						"language":     msg.Language,
					},
				}).Err(); err != nil {
					_ = wc.writeText([]byte(`{"type":"error","code":"UNAVAILABLE","message":"failed to enqueue answer"}`))
					continue
				}
				_ = wc.writeText([]byte(`{"type":"ack","message":"answer queued"}`))

			case "end_interview":
				if done, eerr := h.sessions.End(ctx, sessionID); eerr == nil {
					h.publishCompletion(ctx, eventsCh, done)
				} else {
					_ = wc.writeText([]byte(`{"type":"error","code":"INTERNAL","message":"failed to end interview"}`))
				}
				return

			default:
				_ = wc.writeText([]byte(`{"type":"error","code":"INVALID_ARGUMENT","message":"unknown message type"}`))
			}
		}
	}()

	// writer: Redis Pub/Sub -> WS
	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		default:
			m, err := pubsub.ReceiveMessage(ctx)
			if err != nil {
				return
			}
			// forward as-is (payload expected JSON string)
			if werr := wc.writeText([]byte(m.Payload)); werr != nil {
				return
			}
		}
	}
}

func (h *WSHandler) publishCompletion(ctx context.Context, channel string, done *services.Completion) {
	b, err := json.Marshal(map[string]any{
		"type":          "completed",
		"report_id":     done.ReportID,
		"overall_score": done.OverallScore,
	})
	if err != nil {
		return
	}
	_ = h.redis.Publish(ctx, channel, string(b)).Err()
}
