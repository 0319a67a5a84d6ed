package app

import (
	"context"
	"testing"
	"time"

	"marketplace_service/internal/chat/domain"
	"marketplace_service/internal/chat/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestFormatRecency(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		ago  time.Duration
		want string
	}{
		{"days win over hours", 25 * time.Hour, "1d ago"},
		{"several days", 72 * time.Hour, "3d ago"},
		{"hours win over minutes", 90 * time.Minute, "1h ago"},
		{"several hours", 5 * time.Hour, "5h ago"},
		{"minutes", 12 * time.Minute, "12m ago"},
		{"under a minute", 30 * time.Second, "just now"},
		{"zero", 0, "just now"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatRecency(now.Add(-tc.ago), now))
		})
	}
}

func TestRoomListView_ResolvesOtherParticipant(t *testing.T) {
	ctx := context.Background()
	roomRepo := newMemRoomRepository()
	directory := newMemDirectory(domain.ChatUser{ID: "u2", Name: "Bob", IsOnline: true})
	svc := NewChatService(roomRepo, newMemMessageRepository(), directory, repository.NewMemoryNotifier(), nil)

	_, err := svc.CreateChatRoom(ctx, []string{"u1", "u2"})
	assert.NoError(t, err)

	view := NewRoomListView(svc, "u1", nil)
	view.Open(ctx)
	defer view.Close()

	assert.Eventually(t, func() bool {
		return view.CachedUser("u2") != nil
	}, time.Second, 5*time.Millisecond)

	summaries := view.Render()
	assert.Len(t, summaries, 1)
	assert.Equal(t, "Bob", summaries[0].Other.Name)
	assert.True(t, summaries[0].Other.IsOnline)
}

func TestRoomListView_UnresolvedParticipantStaysNil(t *testing.T) {
	ctx := context.Background()
	roomRepo := newMemRoomRepository()
	svc := NewChatService(roomRepo, newMemMessageRepository(), newMemDirectory(), repository.NewMemoryNotifier(), nil)

	_, err := svc.CreateChatRoom(ctx, []string{"u1", "ghost"})
	assert.NoError(t, err)

	view := NewRoomListView(svc, "u1", nil)
	view.Open(ctx)
	defer view.Close()

	assert.Eventually(t, func() bool { return len(view.Render()) == 1 }, time.Second, 5*time.Millisecond)

	// the lookup failed, so the summary keeps no participant snapshot and
	// renderers fall back to the unknown placeholder
	time.Sleep(50 * time.Millisecond)
	summaries := view.Render()
	assert.Len(t, summaries, 1)
	assert.Nil(t, summaries[0].Other)
	assert.Nil(t, view.CachedUser("ghost"))
}

func TestRoomListView_CacheNeverRefetched(t *testing.T) {
	ctx := context.Background()
	roomRepo := newMemRoomRepository()
	msgRepo := newMemMessageRepository()

	directory := new(MockDirectoryRepository)
	directory.On("Lookup", mock.Anything, "u2").
		Return(&domain.ChatUser{ID: "u2", Name: "Bob"}, nil)

	svc := NewChatService(roomRepo, msgRepo, directory, repository.NewMemoryNotifier(), nil)

	roomID, err := svc.CreateChatRoom(ctx, []string{"u1", "u2"})
	assert.NoError(t, err)

	view := NewRoomListView(svc, "u1", nil)
	view.Open(ctx)
	defer view.Close()

	assert.Eventually(t, func() bool {
		return view.CachedUser("u2") != nil
	}, time.Second, 5*time.Millisecond)

	// further snapshots reuse the cached snapshot instead of fetching again
	stale, _ := roomRepo.FindByID(ctx, roomID)
	time.Sleep(5 * time.Millisecond)
	assert.NoError(t, svc.SendMessage(ctx, roomID, "u2", "Bob", "hi"))
	assert.Eventually(t, func() bool {
		summaries := view.Render()
		return len(summaries) == 1 && summaries[0].Room.UpdatedAt.After(stale.UpdatedAt)
	}, time.Second, 5*time.Millisecond)

	time.Sleep(50 * time.Millisecond)
	directory.AssertNumberOfCalls(t, "Lookup", 1)
}

func TestRoomListView_PushesAfterEveryResolvedParticipant(t *testing.T) {
	ctx := context.Background()
	roomRepo := newMemRoomRepository()
	directory := newMemDirectory(
		domain.ChatUser{ID: "u2", Name: "Bob"},
		domain.ChatUser{ID: "u3", Name: "Carol"},
	)
	svc := NewChatService(roomRepo, newMemMessageRepository(), directory, repository.NewMemoryNotifier(), nil)

	_, _ = svc.CreateChatRoom(ctx, []string{"u1", "u2"})
	_, _ = svc.CreateChatRoom(ctx, []string{"u1", "u3"})

	rec := &snapshotRecorder[domain.RoomSummary]{}
	view := NewRoomListView(svc, "u1", rec.record)
	view.Open(ctx)
	defer view.Close()

	assert.Eventually(t, func() bool {
		summaries := rec.last()
		if len(summaries) != 2 {
			return false
		}
		return summaries[0].Other != nil && summaries[1].Other != nil
	}, time.Second, 5*time.Millisecond)

	names := map[string]bool{}
	for _, s := range rec.last() {
		names[s.Other.Name] = true
	}
	assert.True(t, names["Bob"])
	assert.True(t, names["Carol"])
}
