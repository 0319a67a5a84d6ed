package domain

import "time"

// ChatUser is a point-in-time snapshot of a participant resolved from the
// directory. Identity is the ID; the rest is not kept live except via re-fetch.
type ChatUser struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Avatar   string     `json:"avatar,omitempty"`
	IsOnline bool       `json:"is_online"`
	LastSeen *time.Time `json:"last_seen,omitempty"`
}

// ChatRoom definition chat room. UpdatedAt is bumped on every send and is
// never earlier than CreatedAt. Rooms are created once and never deleted.
type ChatRoom struct {
	ID           string       `bson:"_id,omitempty" json:"id"`
	Participants []string     `bson:"participants" json:"participants"`
	LastMessage  *ChatMessage `bson:"last_message,omitempty" json:"last_message,omitempty"`
	CreatedAt    time.Time    `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time    `bson:"updated_at" json:"updated_at"`
}

// OtherParticipant first participant id that is not currentUserID
func (r *ChatRoom) OtherParticipant(currentUserID string) string {
	for _, id := range r.Participants {
		if id != currentUserID {
			return id
		}
	}
	return ""
}

// ChatMessage one chat message. SenderName is denormalized at send time, so
// a later display-name change never rewrites old messages. Timestamp is
// assigned by the store at write time, not by the sender's clock.
type ChatMessage struct {
	ID         string    `bson:"_id,omitempty" json:"id"`
	RoomID     string    `bson:"room_id" json:"room_id"`
	SenderID   string    `bson:"sender_id" json:"sender_id"`
	SenderName string    `bson:"sender_name" json:"sender_name"`
	Content    string    `bson:"content" json:"content"`
	Timestamp  time.Time `bson:"timestamp" json:"timestamp"`
}

// RoomSummary is a room entry as rendered in the room list: the room plus
// the resolved other participant (nil until the directory fetch lands) and
// a coarse recency label.
type RoomSummary struct {
	Room         ChatRoom  `json:"room"`
	Other        *ChatUser `json:"other,omitempty"`
	RecencyLabel string    `json:"recency_label"`
}
