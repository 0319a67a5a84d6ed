package app

import (
	"context"
	"testing"
	"time"

	"marketplace_service/internal/chat/domain"
	"marketplace_service/internal/chat/repository"

	"github.com/stretchr/testify/assert"
)

func openRoom(t *testing.T, ctx context.Context, svc *ChatService, roomRepo *memRoomRepository, participants ...string) *domain.ChatRoom {
	t.Helper()
	roomID, err := svc.CreateChatRoom(ctx, participants)
	assert.NoError(t, err)
	room, err := roomRepo.FindByID(ctx, roomID)
	assert.NoError(t, err)
	return room
}

func TestConversationView_EnterRoomDeliversHistory(t *testing.T) {
	ctx := context.Background()
	svc, roomRepo, _ := newFlowService()
	room := openRoom(t, ctx, svc, roomRepo, "u1", "u2")

	assert.NoError(t, svc.SendMessage(ctx, room.ID, "u2", "Bob", "hello"))

	rec := &snapshotRecorder[domain.ChatMessage]{}
	view := NewConversationView(svc, "u1", "Alice", rec.record)
	view.EnterRoom(ctx, room)
	defer view.LeaveRoom()

	assert.Eventually(t, func() bool { return len(view.Messages()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "hello", view.Messages()[0].Content)
	assert.Equal(t, room.ID, view.RoomID())
}

func TestConversationView_RoomSwitchDropsOldRoom(t *testing.T) {
	ctx := context.Background()
	svc, roomRepo, _ := newFlowService()
	first := openRoom(t, ctx, svc, roomRepo, "u1", "u2")
	second := openRoom(t, ctx, svc, roomRepo, "u1", "u3")

	assert.NoError(t, svc.SendMessage(ctx, first.ID, "u2", "Bob", "old room"))

	view := NewConversationView(svc, "u1", "Alice", nil)
	view.EnterRoom(ctx, first)
	assert.Eventually(t, func() bool { return len(view.Messages()) == 1 }, time.Second, 5*time.Millisecond)

	view.EnterRoom(ctx, second)
	defer view.LeaveRoom()

	// messages reset on switch and never show the old room again
	assert.Eventually(t, func() bool { return view.RoomID() == second.ID }, time.Second, 5*time.Millisecond)

	assert.NoError(t, svc.SendMessage(ctx, first.ID, "u2", "Bob", "still the old room"))
	time.Sleep(50 * time.Millisecond)
	for _, msg := range view.Messages() {
		assert.Equal(t, second.ID, msg.RoomID)
	}
}

func TestConversationView_SendClearsInput(t *testing.T) {
	ctx := context.Background()
	svc, roomRepo, msgRepo := newFlowService()
	room := openRoom(t, ctx, svc, roomRepo, "u1", "u2")

	view := NewConversationView(svc, "u1", "Alice", nil)
	view.EnterRoom(ctx, room)
	defer view.LeaveRoom()

	view.SetInput("hi there")
	assert.NoError(t, view.Send(ctx))
	assert.Empty(t, view.Input())
	assert.Equal(t, 1, msgRepo.count())

	// the sent message comes back through the subscription, not a local append
	assert.Eventually(t, func() bool {
		messages := view.Messages()
		return len(messages) == 1 && messages[0].Content == "hi there"
	}, time.Second, 5*time.Millisecond)
}

func TestConversationView_EmptySendWritesNothing(t *testing.T) {
	ctx := context.Background()
	svc, roomRepo, msgRepo := newFlowService()
	room := openRoom(t, ctx, svc, roomRepo, "u1", "u2")

	view := NewConversationView(svc, "u1", "Alice", nil)
	view.EnterRoom(ctx, room)
	defer view.LeaveRoom()

	view.SetInput("   ")
	assert.ErrorIs(t, view.Send(ctx), ErrEmptyMessage)
	assert.Equal(t, 0, msgRepo.count())
	assert.Equal(t, "   ", view.Input())
}

func TestConversationView_FailedSendKeepsInput(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newFlowService()

	view := NewConversationView(svc, "u1", "Alice", nil)
	view.SetInput("hello")

	// no room open: the lookup fails and the draft survives for a retry
	assert.Error(t, view.Send(ctx))
	assert.Equal(t, "hello", view.Input())
}

func TestConversationView_ResolvesOtherParticipantOnEnter(t *testing.T) {
	ctx := context.Background()
	roomRepo := newMemRoomRepository()
	directory := newMemDirectory(domain.ChatUser{ID: "u2", Name: "Bob", IsOnline: true})
	svc := NewChatService(roomRepo, newMemMessageRepository(), directory, repository.NewMemoryNotifier(), nil)

	room := openRoom(t, ctx, svc, roomRepo, "u1", "u2")

	view := NewConversationView(svc, "u1", "Alice", nil)
	view.EnterRoom(ctx, room)
	defer view.LeaveRoom()

	other := view.Other()
	assert.NotNil(t, other)
	assert.Equal(t, "Bob", other.Name)

	view.LeaveRoom()
	assert.Nil(t, view.Other())
	assert.Empty(t, view.RoomID())
}
