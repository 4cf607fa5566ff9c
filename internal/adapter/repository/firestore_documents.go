package repository

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"disputedesk/internal/domain/entity"
)

const (
	disputesCollection     = "disputeReports"
	disputeChatsCollection = "disputeChats"
	messagesCollection     = "messages"
	supportUsersCollection = "supportUsers"
	setupMarkerDoc         = "initialSetup"
)

// Documents in disputeReports and disputeChats are written by several
// clients, so field types drift. Everything below reads a raw document map
// once and yields a fully populated entity.

func stringField(data map[string]interface{}, key string) string {
	switch v := data[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// timeField accepts Firestore timestamps, date strings and epoch millis.
func timeField(data map[string]interface{}, key string) *time.Time {
	var t time.Time
	switch v := data[key].(type) {
	case time.Time:
		t = v
	case *time.Time:
		if v == nil {
			return nil
		}
		t = *v
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range timeLayouts {
			if parsed, err := time.Parse(layout, s); err == nil {
				t = parsed
				break
			}
		}
	case int64:
		t = time.UnixMilli(v)
	case float64:
		t = time.UnixMilli(int64(v))
	}
	if t.IsZero() {
		return nil
	}
	return &t
}

// disputeStatusField canonicalizes recognized spellings, treats a missing
// status as New and keeps anything else verbatim so it is visible but uncounted.
func disputeStatusField(data map[string]interface{}) entity.DisputeStatus {
	raw := stringField(data, "status")
	if raw == "" {
		return entity.StatusNew
	}
	if s, ok := entity.ParseDisputeStatus(raw); ok {
		return s
	}
	return entity.DisputeStatus(raw)
}

func disputeFromDocument(id string, data map[string]interface{}) *entity.Dispute {
	documentURL := stringField(data, "documentURL")
	if documentURL == "" {
		documentURL = stringField(data, "documentUrl")
	}
	return &entity.Dispute{
		ID:                   id,
		Status:               disputeStatusField(data),
		OrderNumber:          stringField(data, "orderNumber"),
		NatureOfDispute:      stringField(data, "natureOfDispute"),
		ItemDescription:      stringField(data, "itemDescription"),
		ExtraDetails:         stringField(data, "extraDetails"),
		UserID:               stringField(data, "userId"),
		UserName:             stringField(data, "userName"),
		UserEmail:            stringField(data, "userEmail"),
		DocumentURL:          documentURL,
		CreatedAt:            timeField(data, "createdAt"),
		ResolvedAt:           timeField(data, "resolvedAt"),
		UpdatedAt:            timeField(data, "updatedAt"),
		LastMessage:          stringField(data, "lastMessage"),
		LastMessageTimestamp: timeField(data, "lastMessageTimestamp"),
	}
}

func attachmentsField(data map[string]interface{}) []entity.Attachment {
	raw, ok := data["attachments"].([]interface{})
	if !ok {
		return nil
	}
	attachments := make([]entity.Attachment, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		a := entity.Attachment{
			URL:  stringField(m, "url"),
			Type: stringField(m, "type"),
			Name: stringField(m, "name"),
		}
		if a.URL == "" {
			continue
		}
		attachments = append(attachments, a)
	}
	if len(attachments) == 0 {
		return nil
	}
	return attachments
}

// messageFromDocument falls back to readTime for messages whose server
// timestamp has not resolved yet.
func messageFromDocument(disputeID, id string, data map[string]interface{}, readTime time.Time) *entity.Message {
	ts := readTime
	if t := timeField(data, "timestamp"); t != nil {
		ts = *t
	}
	role := entity.SenderRole(strings.ToLower(stringField(data, "senderRole")))
	if role != entity.SenderSupport {
		role = entity.SenderUser
	}
	return &entity.Message{
		ID:          id,
		DisputeID:   disputeID,
		Message:     stringField(data, "message"),
		SenderID:    stringField(data, "senderId"),
		SenderRole:  role,
		SenderName:  stringField(data, "senderName"),
		Timestamp:   ts,
		Attachments: attachmentsField(data),
	}
}

func attachmentsToDocument(attachments []entity.Attachment) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(attachments))
	for _, a := range attachments {
		out = append(out, map[string]interface{}{
			"url":  a.URL,
			"type": a.Type,
			"name": a.Name,
		})
	}
	return out
}

// sortDisputes orders by createdAt ascending, undated last, then by ID.
func sortDisputes(disputes []*entity.Dispute) {
	sort.SliceStable(disputes, func(i, j int) bool {
		a, b := disputes[i].CreatedAt, disputes[j].CreatedAt
		switch {
		case a == nil && b == nil:
			return disputes[i].ID < disputes[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case !a.Equal(*b):
			return a.Before(*b)
		default:
			return disputes[i].ID < disputes[j].ID
		}
	})
}

func sortMessages(messages []*entity.Message) {
	sort.SliceStable(messages, func(i, j int) bool {
		return messages[i].Timestamp.Before(messages[j].Timestamp)
	})
}
