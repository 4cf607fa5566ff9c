package websocket

import (
	"encoding/json"
	"time"
)

// Client to server
const (
	MessageTypePing                = "ping"
	MessageTypeSubscribeDisputes   = "subscribe_disputes"
	MessageTypeUnsubscribeDisputes = "unsubscribe_disputes"
	MessageTypeJoinChatRoom        = "join_chat_room"
	MessageTypeLeaveChatRoom       = "leave_chat_room"
	MessageTypeSendMessage         = "send_message"
)

// Server to client
const (
	MessageTypePong             = "pong"
	MessageTypeDisputesSnapshot = "disputes_snapshot"
	MessageTypeChatState        = "chat_state"
	MessageTypeMessagesSnapshot = "messages_snapshot"
	MessageTypeMessageSent      = "message_sent"
	MessageTypeError            = "error"
)

// WSMessage is the envelope for every frame in both directions. Inbound Data
// is left raw so each handler decodes its own payload.
type WSMessage struct {
	Type      string          `json:"type"`
	DisputeID string          `json:"dispute_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp string          `json:"timestamp"`
}

type outboundMessage struct {
	Type      string      `json:"type"`
	DisputeID string      `json:"dispute_id,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

func NewMessage(msgType, disputeID string, data interface{}) interface{} {
	return outboundMessage{
		Type:      msgType,
		DisputeID: disputeID,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
	}
}

func ParseMessage(raw []byte) (*WSMessage, error) {
	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
