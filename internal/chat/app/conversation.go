package app

import (
	"context"
	"strings"
	"sync"

	"marketplace_service/internal/chat/domain"
)

// ConversationView is the open-room side of a chat session: exactly one
// messages subscription at a time, replaced wholesale on room switch.
// Messages render in subscription order (timestamp ascending).
type ConversationView struct {
	svc             *ChatService
	currentUserID   string
	currentUserName string
	onUpdate        func([]domain.ChatMessage)

	mu       sync.Mutex
	roomID   string
	other    *domain.ChatUser
	messages []domain.ChatMessage
	input    string
	sub      *Subscription
}

// NewConversationView create ConversationView. onUpdate receives every
// message snapshot of the open room.
func NewConversationView(svc *ChatService, currentUserID, currentUserName string, onUpdate func([]domain.ChatMessage)) *ConversationView {
	return &ConversationView{
		svc:             svc,
		currentUserID:   currentUserID,
		currentUserName: currentUserName,
		onUpdate:        onUpdate,
	}
}

// EnterRoom switch the view to a room: the previous subscription is
// cancelled before the new one opens, local messages reset, and the other
// participant is looked up once (not cached across switches).
func (v *ConversationView) EnterRoom(ctx context.Context, room *domain.ChatRoom) {
	v.mu.Lock()
	old := v.sub
	v.sub = nil
	v.roomID = room.ID
	v.messages = nil
	v.other = nil
	v.mu.Unlock()

	// cancel outside the lock: Cancel waits for in-flight deliveries and
	// those deliveries take the lock
	if old != nil {
		old.Cancel()
	}

	if otherID := room.OtherParticipant(v.currentUserID); otherID != "" {
		v.mu.Lock()
		v.other = v.svc.GetUserInfo(ctx, otherID)
		v.mu.Unlock()
	}

	sub := v.svc.SubscribeToMessages(ctx, room.ID, func(messages []domain.ChatMessage) {
		v.mu.Lock()
		if v.roomID != room.ID {
			// stale snapshot from a room we already left
			v.mu.Unlock()
			return
		}
		v.messages = messages
		v.mu.Unlock()
		if v.onUpdate != nil {
			v.onUpdate(messages)
		}
	})

	v.mu.Lock()
	v.sub = sub
	v.mu.Unlock()
}

// LeaveRoom close the open room, cancelling its subscription
func (v *ConversationView) LeaveRoom() {
	v.mu.Lock()
	old := v.sub
	v.sub = nil
	v.roomID = ""
	v.messages = nil
	v.other = nil
	v.mu.Unlock()

	if old != nil {
		old.Cancel()
	}
}

// SetInput stage the outgoing message text
func (v *ConversationView) SetInput(content string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.input = content
}

// Send submit the staged input. Whitespace-only input is rejected before any
// store write. On success the input is cleared optimistically: the view does
// not append the message locally, it waits for the subscription to deliver
// it back.
func (v *ConversationView) Send(ctx context.Context) error {
	v.mu.Lock()
	roomID := v.roomID
	content := strings.TrimSpace(v.input)
	v.mu.Unlock()

	if content == "" {
		return ErrEmptyMessage
	}

	if err := v.svc.SendMessage(ctx, roomID, v.currentUserID, v.currentUserName, content); err != nil {
		return err
	}

	v.mu.Lock()
	v.input = ""
	v.mu.Unlock()
	return nil
}

// Input current staged input
func (v *ConversationView) Input() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.input
}

// Messages current snapshot of the open room
func (v *ConversationView) Messages() []domain.ChatMessage {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.messages
}

// Other the open room's other participant, nil when unresolved
func (v *ConversationView) Other() *domain.ChatUser {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.other
}

// RoomID the open room id, empty when no room is open
func (v *ConversationView) RoomID() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.roomID
}
