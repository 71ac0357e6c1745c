package debate

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	debateModel "github.com/zhouzirui/money-wrapped/backend/internal/model/debate"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 54 * time.Second
	writeTimeout = 10 * time.Second
)

// 推送给客户端的消息类型
const (
	eventStarted  = "started"
	eventMessage  = "message"
	eventComplete = "complete"
	eventError    = "error"
)

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// handleBattleStream 逐条推送辩论发言。客户端连接后发送一条 battleRequest，
// 断开连接会在当前发言结束后终止辩论。
func (h *Handler) handleBattleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(readTimeout))
		return nil
	})

	var payload battleRequest
	if err := conn.ReadJSON(&payload); err != nil {
		log.Printf("[websocket] read battle request failed: %v", err)
		return
	}

	session, err := h.startSession(payload)
	if err != nil {
		h.send(conn, eventError, "", map[string]string{"message": err.Error()})
		return
	}

	go h.watchClose(conn, cancel)
	go h.pingLoop(ctx, conn)

	log.Printf("[websocket] battle started session=%s participants=%d", session.ID, len(session.Participants))
	h.send(conn, eventStarted, session.ID, session)

	final, err := h.orchestrator.Run(ctx, session, func(msg debateModel.Message) {
		h.send(conn, eventMessage, session.ID, msg)
	})
	if err != nil {
		log.Printf("[websocket] battle stopped session=%s: %v", session.ID, err)
		return
	}

	h.send(conn, eventComplete, final.ID, final)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "debate complete"),
		time.Now().Add(writeTimeout))
}

// watchClose 读取并丢弃客户端消息，连接断开时取消辩论
func (h *Handler) watchClose(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[websocket] read error: %v", err)
			}
			return
		}
		conn.SetReadDeadline(time.Now().Add(readTimeout))
	}
}

// pingLoop 定期发送ping消息
func (h *Handler) pingLoop(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return
			}
		}
	}
}

func (h *Handler) send(conn *websocket.Conn, event, sessionID string, data interface{}) {
	msg := outgoingMessage{
		Type:      event,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(msg); err != nil {
		log.Printf("[websocket] write %s failed: %v", event, err)
	}
}
