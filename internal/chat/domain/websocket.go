package domain

// Action websocket request action
type Action string

const (
	// EnterRoom websocket action enter_room
	EnterRoom Action = "enter_room"
	// LeaveRoom websocket action leave_room
	LeaveRoom Action = "leave_room"
	// SendMessage websocket action send_message
	SendMessage Action = "send_message"
	// StartChat websocket action start_chat
	StartChat Action = "start_chat"

	// NotifyRoomList server push action room_list
	NotifyRoomList Action = "room_list"
	// NotifyMessageList server push action message_list
	NotifyMessageList Action = "message_list"
)

// WSRequest websocket Request
type WSRequest struct {
	Action  string `json:"action"`
	RoomID  string `json:"room_id"`
	PeerID  string `json:"peer_id"`
	Content string `json:"content"`
}

// WSResponse websocket Response
type WSResponse struct {
	Action  string                 `json:"action"`
	Success bool                   `json:"success"`
	Payload map[string]interface{} `json:"payload,omitempty"`
	Error   string                 `json:"error,omitempty"`
}
