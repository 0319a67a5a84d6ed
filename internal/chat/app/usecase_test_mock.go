package app

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"marketplace_service/internal/chat/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

var (
	errRoomNotFound = errors.New("room not found")
	errUserNotFound = errors.New("user not found")
)

// MockRoomRepository Mock RoomRepository
type MockRoomRepository struct {
	mock.Mock
}

// InsertRoom mock insert room
func (m *MockRoomRepository) InsertRoom(ctx context.Context, participants []string) (*domain.ChatRoom, error) {
	args := m.Called(ctx, participants)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ChatRoom), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByID mock find room by room id
func (m *MockRoomRepository) FindByID(ctx context.Context, roomID string) (*domain.ChatRoom, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ChatRoom), args.Error(1)
	}
	return nil, args.Error(1)
}

// TouchUpdatedAt mock bump room updated_at
func (m *MockRoomRepository) TouchUpdatedAt(ctx context.Context, roomID string) error {
	args := m.Called(ctx, roomID)
	return args.Error(0)
}

// FindByParticipant mock query rooms of a user
func (m *MockRoomRepository) FindByParticipant(ctx context.Context, userID string) ([]domain.ChatRoom, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ChatRoom), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindOnePrivateRoom mock find one private room
func (m *MockRoomRepository) FindOnePrivateRoom(ctx context.Context, userA, userB string) (*domain.ChatRoom, error) {
	args := m.Called(ctx, userA, userB)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ChatRoom), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// InsertMessage mock append message
func (m *MockMessageRepository) InsertMessage(ctx context.Context, roomID, senderID, senderName, content string) (*domain.ChatMessage, error) {
	args := m.Called(ctx, roomID, senderID, senderName, content)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ChatMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByRoom mock query room messages
func (m *MockMessageRepository) FindByRoom(ctx context.Context, roomID string) ([]domain.ChatMessage, error) {
	args := m.Called(ctx, roomID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ChatMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockDirectoryRepository Mock DirectoryRepository
type MockDirectoryRepository struct {
	mock.Mock
}

// Lookup mock directory lookup
func (m *MockDirectoryRepository) Lookup(ctx context.Context, userID string) (*domain.ChatUser, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.ChatUser), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockNotifyQueue Mock NotifyQueue
type MockNotifyQueue struct {
	mock.Mock
}

// EnqueueOffline mock enqueue offline notification
func (m *MockNotifyQueue) EnqueueOffline(msg domain.ChatMessage, recipients []string) error {
	args := m.Called(msg, recipients)
	return args.Error(0)
}

// ---------------------------------------------------------------
// In-memory fakes: a working store for the flow tests, with the
// same store-assigned-timestamp behavior as the mongo repositories.
// ---------------------------------------------------------------

type memRoomRepository struct {
	mu    sync.Mutex
	rooms map[string]*domain.ChatRoom
}

func newMemRoomRepository() *memRoomRepository {
	return &memRoomRepository{rooms: make(map[string]*domain.ChatRoom)}
}

func (r *memRoomRepository) InsertRoom(_ context.Context, participants []string) (*domain.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	room := &domain.ChatRoom{
		ID:           uuid.New().String(),
		Participants: participants,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	r.rooms[room.ID] = room
	return room, nil
}

func (r *memRoomRepository) FindByID(_ context.Context, roomID string) (*domain.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return nil, errRoomNotFound
	}
	copied := *room
	return &copied, nil
}

func (r *memRoomRepository) TouchUpdatedAt(_ context.Context, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return errRoomNotFound
	}
	room.UpdatedAt = time.Now().UTC()
	return nil
}

func (r *memRoomRepository) FindByParticipant(_ context.Context, userID string) ([]domain.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var rooms []domain.ChatRoom
	for _, room := range r.rooms {
		for _, id := range room.Participants {
			if id == userID {
				rooms = append(rooms, *room)
				break
			}
		}
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].UpdatedAt.After(rooms[j].UpdatedAt)
	})
	return rooms, nil
}

func (r *memRoomRepository) FindOnePrivateRoom(_ context.Context, userA, userB string) (*domain.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, room := range r.rooms {
		if len(room.Participants) == 2 && containsAll(room.Participants, userA, userB) {
			copied := *room
			return &copied, nil
		}
	}
	return nil, errRoomNotFound
}

type memMessageRepository struct {
	mu       sync.Mutex
	messages []domain.ChatMessage
}

func newMemMessageRepository() *memMessageRepository {
	return &memMessageRepository{}
}

func (r *memMessageRepository) InsertMessage(_ context.Context, roomID, senderID, senderName, content string) (*domain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	msg := domain.ChatMessage{
		ID:         uuid.New().String(),
		RoomID:     roomID,
		SenderID:   senderID,
		SenderName: senderName,
		Content:    content,
		Timestamp:  time.Now().UTC(),
	}
	r.messages = append(r.messages, msg)
	return &msg, nil
}

func (r *memMessageRepository) FindByRoom(_ context.Context, roomID string) ([]domain.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.ChatMessage
	for _, msg := range r.messages {
		if msg.RoomID == roomID {
			out = append(out, msg)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out, nil
}

func (r *memMessageRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.messages)
}

type memDirectory struct {
	mu    sync.Mutex
	users map[string]domain.ChatUser
}

func newMemDirectory(users ...domain.ChatUser) *memDirectory {
	d := &memDirectory{users: make(map[string]domain.ChatUser)}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *memDirectory) Lookup(_ context.Context, userID string) (*domain.ChatUser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	user, ok := d.users[userID]
	if !ok {
		return nil, errUserNotFound
	}
	copied := user
	return &copied, nil
}

func containsAll(list []string, vals ...string) bool {
	for _, v := range vals {
		found := false
		for _, item := range list {
			if item == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
