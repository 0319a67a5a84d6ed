package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"marketplace_service/internal/chat/domain"

	"github.com/stretchr/testify/assert"
)

// snapshotRecorder collects every delivered result set so the tests can
// assert on delivery order without racing the delivery goroutine.
type snapshotRecorder[T any] struct {
	mu        sync.Mutex
	snapshots [][]T
}

func (r *snapshotRecorder[T]) record(snapshot []T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots = append(r.snapshots, snapshot)
}

func (r *snapshotRecorder[T]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.snapshots)
}

func (r *snapshotRecorder[T]) last() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.snapshots) == 0 {
		return nil
	}
	return r.snapshots[len(r.snapshots)-1]
}

func TestSubscribeToChatRooms_InitialSnapshotThenRedelivery(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newFlowService()

	roomID, err := svc.CreateChatRoom(ctx, []string{"u1", "u2"})
	assert.NoError(t, err)

	rec := &snapshotRecorder[domain.ChatRoom]{}
	sub := svc.SubscribeToChatRooms(ctx, "u1", rec.record)
	defer sub.Cancel()

	// initial snapshot arrives without any change
	assert.Eventually(t, func() bool { return rec.len() >= 1 }, time.Second, 5*time.Millisecond)
	assert.Len(t, rec.last(), 1)
	assert.Equal(t, roomID, rec.last()[0].ID)

	// a new room triggers a full redelivery, not a delta
	_, err = svc.CreateChatRoom(ctx, []string{"u1", "u3"})
	assert.NoError(t, err)

	assert.Eventually(t, func() bool { return len(rec.last()) == 2 }, time.Second, 5*time.Millisecond)
}

func TestSubscribeToChatRooms_NewestActivityFirst(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newFlowService()

	first, _ := svc.CreateChatRoom(ctx, []string{"u1", "u2"})
	second, _ := svc.CreateChatRoom(ctx, []string{"u1", "u3"})

	rec := &snapshotRecorder[domain.ChatRoom]{}
	sub := svc.SubscribeToChatRooms(ctx, "u1", rec.record)
	defer sub.Cancel()

	assert.Eventually(t, func() bool { return len(rec.last()) == 2 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, second, rec.last()[0].ID)

	// a message in the older room moves it back to the top
	time.Sleep(5 * time.Millisecond)
	assert.NoError(t, svc.SendMessage(ctx, first, "u2", "Bob", "hi"))

	assert.Eventually(t, func() bool {
		rooms := rec.last()
		return len(rooms) == 2 && rooms[0].ID == first
	}, time.Second, 5*time.Millisecond)
}

func TestSubscribeToMessages_SendThenDeliver(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newFlowService()

	roomID, _ := svc.CreateChatRoom(ctx, []string{"u1", "u2"})

	rec := &snapshotRecorder[domain.ChatMessage]{}
	sub := svc.SubscribeToMessages(ctx, roomID, rec.record)
	defer sub.Cancel()

	assert.Eventually(t, func() bool { return rec.len() >= 1 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, rec.last())

	assert.NoError(t, svc.SendMessage(ctx, roomID, "u1", "Alice", "hello"))
	assert.NoError(t, svc.SendMessage(ctx, roomID, "u2", "Bob", "hi"))

	assert.Eventually(t, func() bool { return len(rec.last()) == 2 }, time.Second, 5*time.Millisecond)

	messages := rec.last()
	assert.Equal(t, "hello", messages[0].Content)
	assert.Equal(t, "hi", messages[1].Content)
	assert.False(t, messages[1].Timestamp.Before(messages[0].Timestamp))
}

func TestSubscription_CancelStopsDelivery(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newFlowService()

	roomID, _ := svc.CreateChatRoom(ctx, []string{"u1", "u2"})

	rec := &snapshotRecorder[domain.ChatMessage]{}
	sub := svc.SubscribeToMessages(ctx, roomID, rec.record)

	assert.Eventually(t, func() bool { return rec.len() >= 1 }, time.Second, 5*time.Millisecond)

	sub.Cancel()
	seen := rec.len()

	assert.NoError(t, svc.SendMessage(ctx, roomID, "u1", "Alice", "after cancel"))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, seen, rec.len())

	// cancelling again is a no-op
	sub.Cancel()
}

func TestSubscription_NoCallbackAfterCancelReturns(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newFlowService()

	roomID, _ := svc.CreateChatRoom(ctx, []string{"u1", "u2"})

	var mu sync.Mutex
	done := false

	sub := svc.SubscribeToMessages(ctx, roomID, func([]domain.ChatMessage) {
		mu.Lock()
		defer mu.Unlock()
		assert.False(t, done, "delivery after Cancel returned")
	})

	time.Sleep(10 * time.Millisecond)
	sub.Cancel()
	mu.Lock()
	done = true
	mu.Unlock()

	assert.NoError(t, svc.SendMessage(ctx, roomID, "u1", "Alice", "late"))
	time.Sleep(50 * time.Millisecond)
}
