package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"disputedesk/internal/adapter/api/middleware"
	"disputedesk/internal/domain/entity"
	"disputedesk/internal/domain/repository"
	ws "disputedesk/internal/infrastructure/websocket"
	"disputedesk/internal/usecase"
	"disputedesk/pkg/errors"
	"disputedesk/pkg/logger"
	"disputedesk/pkg/response"
)

type WebSocketHandler struct {
	wsManager *ws.Manager
	sessions  SessionService
	disputes  DisputeService
	chat      ChatService
	upgrader  gorillaws.Upgrader
}

func NewWebSocketHandler(wsManager *ws.Manager, sessions SessionService, disputes DisputeService, chat ChatService, allowedOrigins []string) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager: wsManager,
		sessions:  sessions,
		disputes:  disputes,
		chat:      chat,
		upgrader: gorillaws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
	}
}

func originChecker(allowed []string) func(r *http.Request) bool {
	for _, o := range allowed {
		if o == "*" {
			return func(r *http.Request) bool { return true }
		}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || len(allowed) == 0 {
			return true
		}
		for _, o := range allowed {
			if strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}

// HandleWebSocket authenticates with ?token= (browsers cannot set headers on
// a WebSocket handshake) and serves the connection until it closes.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := c.QueryParam("token")
	if token == "" {
		token, _ = middleware.BearerToken(c)
	}

	user, err := h.sessions.CurrentUser(c.Request().Context(), token)
	if err != nil {
		return response.Error(c, err)
	}

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Warn("WebSocket upgrade failed for %s: %v", user.UID, err)
		return nil
	}

	client := ws.NewClient(user.UID, conn)
	if !h.wsManager.Join(client) {
		_ = conn.WriteMessage(gorillaws.CloseMessage, gorillaws.FormatCloseMessage(gorillaws.CloseGoingAway, "server shutting down"))
		conn.Close()
		return nil
	}

	ctx, cancel := context.WithCancel(c.Request().Context())
	cn := &connection{
		handler:  h,
		client:   client,
		user:     user,
		ctx:      ctx,
		sessions: make(map[string]*chatRoom),
	}

	go client.WritePump()
	client.ReadPump(h.wsManager, cn.handle)

	cancel()
	cn.release()
	return nil
}

type chatRoom struct {
	session *usecase.ChatSession
	ctx     context.Context
	cancel  context.CancelFunc
}

// connection holds everything one socket has subscribed to.
type connection struct {
	handler *WebSocketHandler
	client  *ws.Client
	user    *entity.SupportUser
	ctx     context.Context

	mu        sync.Mutex
	dashboard *repository.Subscription[*entity.DashboardSnapshot]
	sessions  map[string]*chatRoom
}

func (cn *connection) sendError(disputeID string, err error) {
	_, info := response.ErrorBody(err)
	cn.client.SendJSON(ws.MessageTypeError, disputeID, info)
}

func (cn *connection) handle(_ *ws.Client, raw []byte) {
	msg, err := ws.ParseMessage(raw)
	if err != nil {
		cn.sendError("", errors.BadRequest("Invalid message format", err))
		return
	}

	logger.Debug("WebSocket: %s from %s", msg.Type, cn.user.UID)

	switch msg.Type {
	case ws.MessageTypePing:
		cn.client.SendJSON(ws.MessageTypePong, "", nil)
	case ws.MessageTypeSubscribeDisputes:
		cn.subscribeDisputes()
	case ws.MessageTypeUnsubscribeDisputes:
		cn.unsubscribeDisputes()
	case ws.MessageTypeJoinChatRoom:
		cn.joinChat(msg.DisputeID)
	case ws.MessageTypeLeaveChatRoom:
		cn.leaveChat(msg.DisputeID)
	case ws.MessageTypeSendMessage:
		cn.sendMessage(msg)
	default:
		cn.sendError(msg.DisputeID, errors.BadRequest("Unknown message type: "+msg.Type, nil))
	}
}

func (cn *connection) subscribeDisputes() {
	cn.mu.Lock()
	defer cn.mu.Unlock()
	if cn.dashboard != nil {
		return
	}

	sub := cn.handler.disputes.WatchDashboard(cn.ctx)
	cn.dashboard = sub

	go func() {
		for snap := range sub.Updates() {
			cn.client.SendJSON(ws.MessageTypeDisputesSnapshot, "", snap)
		}
		if err := <-sub.Err(); err != nil {
			cn.sendError("", err)
		}
		cn.mu.Lock()
		if cn.dashboard == sub {
			cn.dashboard = nil
		}
		cn.mu.Unlock()
	}()
}

func (cn *connection) unsubscribeDisputes() {
	cn.mu.Lock()
	sub := cn.dashboard
	cn.dashboard = nil
	cn.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}

func (cn *connection) joinChat(disputeID string) {
	if disputeID == "" {
		cn.sendError("", errors.BadRequest("dispute_id is required", nil))
		return
	}

	cn.mu.Lock()
	room, ok := cn.sessions[disputeID]
	if !ok {
		ctx, cancel := context.WithCancel(cn.ctx)
		room = &chatRoom{session: cn.handler.chat.NewSession(cn.user, disputeID), ctx: ctx, cancel: cancel}
		cn.sessions[disputeID] = room
		go cn.forward(ctx, room.session)
	}
	cn.mu.Unlock()

	// Joining an errored room again is the retry.
	go func() {
		if err := room.session.Open(room.ctx); err != nil {
			logger.Warn("Failed to open chat %s for %s: %v", disputeID, cn.user.UID, err)
		}
	}()
}

// forward relays session events as chat_state and messages_snapshot frames.
func (cn *connection) forward(ctx context.Context, session *usecase.ChatSession) {
	var last usecase.ChatState
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-session.Events():
			if ev.State != last {
				last = ev.State
				state := map[string]interface{}{"state": ev.State}
				if ev.Dispute != nil {
					state["dispute"] = ev.Dispute
				}
				if ev.Err != nil {
					_, info := response.ErrorBody(ev.Err)
					state["error"] = info
				}
				cn.client.SendJSON(ws.MessageTypeChatState, ev.DisputeID, state)
			}
			if ev.State == usecase.ChatStateReady {
				messages := ev.Messages
				if messages == nil {
					messages = []*entity.Message{}
				}
				cn.client.SendJSON(ws.MessageTypeMessagesSnapshot, ev.DisputeID, messages)
			}
		}
	}
}

func (cn *connection) leaveChat(disputeID string) {
	cn.mu.Lock()
	room, ok := cn.sessions[disputeID]
	delete(cn.sessions, disputeID)
	cn.mu.Unlock()

	if ok {
		room.session.Close()
		room.cancel()
	}
}

func (cn *connection) sendMessage(msg *ws.WSMessage) {
	var input usecase.SendMessageInput
	if len(msg.Data) > 0 {
		if err := json.Unmarshal(msg.Data, &input); err != nil {
			cn.sendError(msg.DisputeID, errors.BadRequest("Invalid message payload", err))
			return
		}
	}

	cn.mu.Lock()
	room, ok := cn.sessions[msg.DisputeID]
	cn.mu.Unlock()
	if !ok {
		cn.sendError(msg.DisputeID, errors.BadRequest("Join the chat before sending", nil))
		return
	}

	result, err := room.session.Send(cn.ctx, input)
	if err != nil {
		cn.sendError(msg.DisputeID, err)
		return
	}
	if result != nil {
		cn.client.SendJSON(ws.MessageTypeMessageSent, msg.DisputeID, result)
	}
}

// release drops every subscription the connection still holds.
func (cn *connection) release() {
	cn.unsubscribeDisputes()

	cn.mu.Lock()
	rooms := cn.sessions
	cn.sessions = make(map[string]*chatRoom)
	cn.mu.Unlock()

	for _, room := range rooms {
		room.session.Close()
		room.cancel()
	}
}
