package entity

import (
	"strings"
	"time"
)

type SenderRole string

const (
	SenderUser    SenderRole = "user"
	SenderSupport SenderRole = "support"
)

type Attachment struct {
	URL  string `json:"url" validate:"required,url"`
	Type string `json:"type"`
	Name string `json:"name"`
}

type Message struct {
	ID          string       `json:"id"`
	DisputeID   string       `json:"dispute_id"`
	Message     string       `json:"message,omitempty"`
	SenderID    string       `json:"sender_id"`
	SenderRole  SenderRole   `json:"sender_role"`
	SenderName  string       `json:"sender_name,omitempty"`
	Timestamp   time.Time    `json:"timestamp"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Preview is the text copied onto the parent dispute's lastMessage field.
func (m *Message) Preview() string {
	if text := strings.TrimSpace(m.Message); text != "" {
		return text
	}
	if len(m.Attachments) > 0 {
		name := m.Attachments[0].Name
		if name == "" {
			name = "file"
		}
		return "Attachment: " + name
	}
	return ""
}
