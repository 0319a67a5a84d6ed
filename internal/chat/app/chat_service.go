package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"marketplace_service/internal/chat/domain"
	"marketplace_service/internal/chat/repository"
	"marketplace_service/pkg/logger"

	"go.uber.org/zap"
)

var (
	// ErrRoomParticipants create was called with fewer than 2 participants
	ErrRoomParticipants = errors.New("chat room must have at least 2 participants")
	// ErrEmptyMessage message content is empty after trimming
	ErrEmptyMessage = errors.New("message content is empty")
)

// ChatService is the chat orchestrator: it creates rooms, appends messages
// and exposes the two live subscriptions. One instance per process, injected
// into its consumers; it holds no state besides the store handles.
type ChatService struct {
	roomRepo    repository.RoomRepository
	msgRepo     repository.MessageRepository
	directory   repository.DirectoryRepository
	notifier    repository.ChangeNotifier
	notifyQueue repository.NotifyQueue
}

// NewChatService create ChatService. notifyQueue may be nil when offline
// notifications are not deployed.
func NewChatService(
	roomRepo repository.RoomRepository,
	msgRepo repository.MessageRepository,
	directory repository.DirectoryRepository,
	notifier repository.ChangeNotifier,
	notifyQueue repository.NotifyQueue,
) *ChatService {
	return &ChatService{
		roomRepo:    roomRepo,
		msgRepo:     msgRepo,
		directory:   directory,
		notifier:    notifier,
		notifyQueue: notifyQueue,
	}
}

// CreateChatRoom create a room for the given participants. The store assigns
// created_at = updated_at. No room exists unless an id is returned.
func (s *ChatService) CreateChatRoom(ctx context.Context, participants []string) (string, error) {
	if len(participants) < 2 {
		return "", ErrRoomParticipants
	}

	room, err := s.roomRepo.InsertRoom(ctx, participants)
	if err != nil {
		return "", fmt.Errorf("create chat room: %w", err)
	}

	s.notifyRoomsChanged(ctx, room.Participants)
	return room.ID, nil
}

// FindOrCreatePrivateRoom reuse an existing two-party room before creating one
func (s *ChatService) FindOrCreatePrivateRoom(ctx context.Context, userA, userB string) (string, error) {
	if room, err := s.roomRepo.FindOnePrivateRoom(ctx, userA, userB); err == nil && room != nil {
		return room.ID, nil
	}
	return s.CreateChatRoom(ctx, []string{userA, userB})
}

// SendMessage append a message, then bump the room's updated_at. The two
// writes are not transactional: when the touch fails the message is already
// persisted with a stale room timestamp, so the message notification still
// goes out before the error is returned. When the append fails the touch is
// skipped entirely.
func (s *ChatService) SendMessage(ctx context.Context, roomID, senderID, senderName, content string) error {
	if strings.TrimSpace(content) == "" {
		return ErrEmptyMessage
	}

	room, err := s.roomRepo.FindByID(ctx, roomID)
	if err != nil {
		return fmt.Errorf("send message: room lookup: %w", err)
	}

	msg, err := s.msgRepo.InsertMessage(ctx, roomID, senderID, senderName, content)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}

	touchErr := s.roomRepo.TouchUpdatedAt(ctx, roomID)

	if err := s.notifier.Publish(ctx, repository.MessagesChannel(roomID)); err != nil {
		logger.Log.Error("publish message change failed", zap.String("room_id", roomID), zap.Error(err))
	}
	s.notifyRoomsChanged(ctx, room.Participants)
	s.enqueueOfflineNotifications(ctx, *msg, room.Participants)

	if touchErr != nil {
		return fmt.Errorf("send message: room touch: %w", touchErr)
	}
	return nil
}

// SubscribeToChatRooms live query "rooms where participants contains userID,
// newest activity first". The full current result set is re-delivered on
// every matching change, starting with an initial snapshot.
func (s *ChatService) SubscribeToChatRooms(ctx context.Context, userID string, onChange func([]domain.ChatRoom)) *Subscription {
	ticks, stop := s.notifier.Subscribe(ctx, repository.RoomsChannel(userID))
	sub := newSubscription(stop)

	go sub.run(ticks, func() error {
		rooms, err := s.roomRepo.FindByParticipant(ctx, userID)
		if err != nil {
			return err
		}
		onChange(rooms)
		return nil
	})

	return sub
}

// SubscribeToMessages live query for one room's messages, timestamp ascending
func (s *ChatService) SubscribeToMessages(ctx context.Context, roomID string, onChange func([]domain.ChatMessage)) *Subscription {
	ticks, stop := s.notifier.Subscribe(ctx, repository.MessagesChannel(roomID))
	sub := newSubscription(stop)

	go sub.run(ticks, func() error {
		messages, err := s.msgRepo.FindByRoom(ctx, roomID)
		if err != nil {
			return err
		}
		onChange(messages)
		return nil
	})

	return sub
}

// GetUserInfo point lookup of a participant snapshot. Returns nil both when
// the user does not exist and when the directory fails; callers cannot tell
// the two apart.
func (s *ChatService) GetUserInfo(ctx context.Context, userID string) *domain.ChatUser {
	user, err := s.directory.Lookup(ctx, userID)
	if err != nil {
		logger.Log.Debug("directory lookup failed", zap.String("user_id", userID), zap.Error(err))
		return nil
	}
	return user
}

func (s *ChatService) notifyRoomsChanged(ctx context.Context, participants []string) {
	for _, userID := range participants {
		if err := s.notifier.Publish(ctx, repository.RoomsChannel(userID)); err != nil {
			logger.Log.Error("publish rooms change failed", zap.String("user_id", userID), zap.Error(err))
		}
	}
}

// enqueueOfflineNotifications best effort: never fails the send path
func (s *ChatService) enqueueOfflineNotifications(ctx context.Context, msg domain.ChatMessage, participants []string) {
	if s.notifyQueue == nil {
		return
	}

	var offline []string
	for _, userID := range participants {
		if userID == msg.SenderID {
			continue
		}
		if user := s.GetUserInfo(ctx, userID); user == nil || !user.IsOnline {
			offline = append(offline, userID)
		}
	}
	if len(offline) == 0 {
		return
	}

	if err := s.notifyQueue.EnqueueOffline(msg, offline); err != nil {
		logger.Log.Error("enqueue offline notification failed", zap.String("room_id", msg.RoomID), zap.Error(err))
	}
}
