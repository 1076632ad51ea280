package record

import (
	"fmt"
	"time"

	"github.com/Totktonada/vk-messages-backup/internal/model"
)

// NoID is returned by ID for records without an identifier. It sorts below
// every identifier the service assigns.
const NoID int64 = -1

// Message is an immutable view over one raw message record.
type Message struct {
	raw       Raw
	id        int64
	fromCache bool
}

// NewMessage wraps a record received from the network.
func NewMessage(raw Raw) *Message { return newMessage(raw, false) }

// NewCachedMessage wraps a record loaded from local storage.
func NewCachedMessage(raw Raw) *Message { return newMessage(raw, true) }

func newMessage(raw Raw, fromCache bool) *Message {
	id, ok := intField(raw, "id")
	if !ok {
		id = NoID
	}
	return &Message{raw: raw, id: id, fromCache: fromCache}
}

// Raw returns the underlying payload. Callers must not modify it.
func (m *Message) Raw() Raw { return m.raw }

func (m *Message) ID() int64 { return m.id }

func (m *Message) FromCache() bool { return m.fromCache }

// Sent reports whether the archive owner wrote the message.
func (m *Message) Sent() bool {
	out, ok := intField(m.raw, "out")
	return ok && out != 0
}

// SenderID returns from_id when set, else user_id.
func (m *Message) SenderID() (int64, bool) {
	if id, ok := intField(m.raw, "from_id"); ok && id != 0 {
		return id, true
	}
	return intField(m.raw, "user_id")
}

// Date returns the send time, or false when the record carries none.
func (m *Message) Date() (time.Time, bool) {
	sec, ok := intField(m.raw, "date")
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(sec, 0), true
}

// Body returns the message text: "body" in legacy records, "text" otherwise.
func (m *Message) Body() string {
	if body, ok := stringField(m.raw, "body"); ok {
		return body
	}
	text, _ := stringField(m.raw, "text")
	return text
}

// Title returns the conversation title carried by legacy records.
func (m *Message) Title() (string, bool) {
	return stringField(m.raw, "title")
}

// Forwarded returns the messages quoted by this one, in payload order.
func (m *Message) Forwarded() []*Message {
	list, ok := listField(m.raw, "fwd_messages")
	if !ok {
		return nil
	}
	out := make([]*Message, 0, len(list))
	for _, item := range list {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, newMessage(obj, m.fromCache))
		}
	}
	return out
}

// Action returns the normalized service action, if the message is one.
func (m *Message) Action() (Action, bool) { return parseAction(m.raw) }

// IsGroup reports whether the message belongs to a group conversation.
func (m *Message) IsGroup() bool {
	if _, ok := m.raw["chat_id"]; ok {
		return true
	}
	if peer, ok := intField(m.raw, "peer_id"); ok {
		return peer >= GroupPeerOffset
	}
	return false
}

func (m *Message) HasGeo() bool {
	v, ok := m.raw["geo"]
	return ok && v != nil
}

// HasAttachments reports a non-empty attachment list. The current API sends
// an empty list on every message.
func (m *Message) HasAttachments() bool {
	v, ok := m.raw["attachments"]
	if !ok || v == nil {
		return false
	}
	if list, ok := v.([]any); ok {
		return len(list) > 0
	}
	return true
}

// DialogID derives the conversation the message belongs to: from peer_id
// when present, else chat_id for group chats, else user_id.
func (m *Message) DialogID() (DialogID, error) {
	if peer, ok := intField(m.raw, "peer_id"); ok {
		return PeerDialogID(peer), nil
	}
	if chat, ok := intField(m.raw, "chat_id"); ok {
		return DialogID{Group: true, ID: chat}, nil
	}
	if user, ok := intField(m.raw, "user_id"); ok {
		return DialogID{Group: false, ID: user}, nil
	}
	return DialogID{}, fmt.Errorf("message %d has no peer_id, chat_id or user_id: %w", m.id, model.ErrMalformedRecord)
}
