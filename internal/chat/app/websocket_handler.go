package app

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"marketplace_service/internal/chat/domain"
	"marketplace_service/internal/chat/repository"
	"marketplace_service/pkg"
	"marketplace_service/pkg/logger"
	"marketplace_service/pkg/middlewares"

	"github.com/go-redis/redis/v8"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"
)

// ChatWebsocketHandler drives one websocket connection per signed-in user:
// a RoomListView pushing room_list snapshots and a ConversationView pushing
// message_list snapshots for the room the client entered.
type ChatWebsocketHandler struct {
	svc      *ChatService
	presence *redis.Client
}

// NewChatWebsocketHandler create ChatWebsocketHandler
func NewChatWebsocketHandler(svc *ChatService, presence *redis.Client) *ChatWebsocketHandler {
	return &ChatWebsocketHandler{svc: svc, presence: presence}
}

// HandleConnection entry point for one websocket connection
func (h *ChatWebsocketHandler) HandleConnection(ctx context.Context, conn *websocket.Conn) {
	userID, _ := conn.Locals(middlewares.TokenUserID).(string)
	userName, _ := conn.Locals(middlewares.TokenUserName).(string)
	logger.Log.Info("websocket connected", zap.String("user_id", userID))

	ctxClose, cancel := context.WithCancel(ctx)
	ticker := time.NewTicker(10 * time.Minute)

	var writeMu sync.Mutex
	send := func(resp domain.WSResponse) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(resp); err != nil {
			logger.Log.Errorf("websocket write error:", err)
		}
	}

	roomList := NewRoomListView(h.svc, userID, func(summaries []domain.RoomSummary) {
		send(domain.WSResponse{
			Action:  string(domain.NotifyRoomList),
			Success: true,
			Payload: map[string]interface{}{"rooms": summaries},
		})
	})
	conversation := NewConversationView(h.svc, userID, userName, func(messages []domain.ChatMessage) {
		send(domain.WSResponse{
			Action:  string(domain.NotifyMessageList),
			Success: true,
			Payload: map[string]interface{}{"messages": messages},
		})
	})

	if err := repository.SetPresence(ctxClose, h.presence, userID, true); err != nil {
		logger.Log.Errorf("set presence online failed:", err)
	}

	defer func() {
		ticker.Stop()
		conversation.LeaveRoom()
		roomList.Close()
		if err := repository.SetPresence(context.Background(), h.presence, userID, false); err != nil {
			logger.Log.Errorf("set presence offline failed:", err)
		}
		logger.Log.Info("websocket closed", zap.String("user_id", userID))
		conn.Close()
		cancel()
	}()

	roomList.Open(ctxClose)

	// keepalive ping
	go func() {
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(time.Second)); err != nil {
					logger.Log.Errorf("ping error:", err)
					return
				}
			case <-ctxClose.Done():
				return
			}
		}
	}()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Log.Infof("connection closed:", err)
			} else {
				logger.Log.Errorf("websocket read error:", err)
			}
			return
		}

		var req domain.WSRequest
		if err := json.Unmarshal(message, &req); err != nil {
			send(domain.WSResponse{Action: req.Action, Success: false, Error: "invalid request"})
			continue
		}

		h.handleRequest(ctxClose, req, userID, conversation, send)
	}
}

func (h *ChatWebsocketHandler) handleRequest(
	ctx context.Context,
	req domain.WSRequest,
	userID string,
	conversation *ConversationView,
	send func(domain.WSResponse),
) {
	switch domain.Action(req.Action) {
	case domain.StartChat:
		roomID, err := h.svc.FindOrCreatePrivateRoom(ctx, userID, req.PeerID)
		if err != nil {
			send(domain.WSResponse{Action: req.Action, Success: false, Error: err.Error()})
			return
		}
		send(domain.WSResponse{
			Action:  req.Action,
			Success: true,
			Payload: map[string]interface{}{"room_id": roomID},
		})

	case domain.EnterRoom:
		room, err := h.svc.roomRepo.FindByID(ctx, req.RoomID)
		if err != nil {
			send(domain.WSResponse{Action: req.Action, Success: false, Error: "room not found"})
			return
		}
		if !pkg.Contains(room.Participants, userID) {
			send(domain.WSResponse{Action: req.Action, Success: false, Error: "not a participant"})
			return
		}
		conversation.EnterRoom(ctx, room)
		payload := map[string]interface{}{"room_id": room.ID}
		if other := conversation.Other(); other != nil {
			payload["other"] = other
		}
		send(domain.WSResponse{Action: req.Action, Success: true, Payload: payload})

	case domain.LeaveRoom:
		conversation.LeaveRoom()
		send(domain.WSResponse{Action: req.Action, Success: true})

	case domain.SendMessage:
		conversation.SetInput(req.Content)
		if err := conversation.Send(ctx); err != nil {
			send(domain.WSResponse{Action: req.Action, Success: false, Error: err.Error()})
			return
		}
		send(domain.WSResponse{Action: req.Action, Success: true})

	default:
		send(domain.WSResponse{Action: req.Action, Success: false, Error: "unknown action"})
	}
}
