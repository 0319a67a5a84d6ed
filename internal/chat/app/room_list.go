package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"marketplace_service/internal/chat/domain"
)

// UnknownUserName placeholder shown until a participant's directory fetch lands
const UnknownUserName = "Unknown User"

// RoomListView keeps one user's room list current from the rooms
// subscription and lazily resolves the other participants through the
// directory. Each snapshot replaces the room list outright; the user cache
// only ever grows, it is never invalidated once populated, so name and
// presence changes are not picked up until the view is rebuilt.
type RoomListView struct {
	svc           *ChatService
	currentUserID string
	onUpdate      func([]domain.RoomSummary)
	now           func() time.Time

	mu    sync.Mutex
	rooms []domain.ChatRoom
	users map[string]*domain.ChatUser
	sub   *Subscription
}

// NewRoomListView create RoomListView. onUpdate receives the rendered room
// summaries after every snapshot and after every resolved participant.
func NewRoomListView(svc *ChatService, currentUserID string, onUpdate func([]domain.RoomSummary)) *RoomListView {
	return &RoomListView{
		svc:           svc,
		currentUserID: currentUserID,
		onUpdate:      onUpdate,
		now:           time.Now,
		users:         make(map[string]*domain.ChatUser),
	}
}

// Open start the rooms subscription
func (v *RoomListView) Open(ctx context.Context) {
	v.sub = v.svc.SubscribeToChatRooms(ctx, v.currentUserID, func(rooms []domain.ChatRoom) {
		v.onSnapshot(ctx, rooms)
	})
}

// Close stop the subscription; the cache dies with the view
func (v *RoomListView) Close() {
	if v.sub != nil {
		v.sub.Cancel()
	}
}

func (v *RoomListView) onSnapshot(ctx context.Context, rooms []domain.ChatRoom) {
	v.mu.Lock()
	v.rooms = rooms

	// every participant of every room except the current user
	missing := make([]string, 0)
	seen := make(map[string]bool)
	for _, room := range rooms {
		for _, id := range room.Participants {
			if id == v.currentUserID || seen[id] {
				continue
			}
			seen[id] = true
			if _, ok := v.users[id]; !ok {
				missing = append(missing, id)
			}
		}
	}
	v.mu.Unlock()

	v.push()

	// fetches are concurrent and unordered; a room renders with the unknown
	// placeholder until its fetch completes
	for _, userID := range missing {
		go func(id string) {
			user := v.svc.GetUserInfo(ctx, id)
			if user == nil {
				return
			}
			v.mu.Lock()
			v.users[id] = user
			v.mu.Unlock()
			v.push()
		}(userID)
	}
}

func (v *RoomListView) push() {
	if v.onUpdate != nil {
		v.onUpdate(v.Render())
	}
}

// Render current room summaries, participant-resolved, newest activity first
func (v *RoomListView) Render() []domain.RoomSummary {
	v.mu.Lock()
	defer v.mu.Unlock()

	now := v.now()
	summaries := make([]domain.RoomSummary, 0, len(v.rooms))
	for _, room := range v.rooms {
		var other *domain.ChatUser
		if otherID := room.OtherParticipant(v.currentUserID); otherID != "" {
			other = v.users[otherID]
		}
		summaries = append(summaries, domain.RoomSummary{
			Room:         room,
			Other:        other,
			RecencyLabel: FormatRecency(room.UpdatedAt, now),
		})
	}
	return summaries
}

// CachedUser resolved participant snapshot, nil until the fetch lands
func (v *RoomListView) CachedUser(userID string) *domain.ChatUser {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.users[userID]
}

// FormatRecency coarse elapsed-time bucket since t: days, hours, minutes,
// else "just now". Computed against the wall clock at render time.
func FormatRecency(t, now time.Time) string {
	diff := now.Sub(t)

	if days := int(diff.Hours() / 24); days > 0 {
		return fmt.Sprintf("%dd ago", days)
	}
	if hours := int(diff.Hours()); hours > 0 {
		return fmt.Sprintf("%dh ago", hours)
	}
	if minutes := int(diff.Minutes()); minutes > 0 {
		return fmt.Sprintf("%dm ago", minutes)
	}
	return "just now"
}
