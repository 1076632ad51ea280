package record

import "fmt"

// ActionKind enumerates the service events the archive knows how to render.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionChatPhotoUpdate
	ActionChatPhotoRemove
	ActionChatCreate
	ActionChatTitleUpdate
	ActionChatInviteUser
	ActionChatKickUser
)

var actionKinds = map[string]ActionKind{
	"chat_photo_update": ActionChatPhotoUpdate,
	"chat_photo_remove": ActionChatPhotoRemove,
	"chat_create":       ActionChatCreate,
	"chat_title_update": ActionChatTitleUpdate,
	"chat_invite_user":  ActionChatInviteUser,
	"chat_kick_user":    ActionChatKickUser,
}

// ParseActionKind maps the wire name of an action to its kind. Names outside
// the known set yield ActionUnknown.
func ParseActionKind(s string) ActionKind {
	return actionKinds[s]
}

func (k ActionKind) String() string {
	for name, kind := range actionKinds {
		if kind == k {
			return name
		}
	}
	return fmt.Sprintf("unknown(%d)", int(k))
}

// Action is the normalized form of both action encodings: the legacy one
// (scalar "action" plus action_mid/action_email/action_text siblings) and
// the current one (an "action" object with type/member_id/email/text).
type Action struct {
	Kind ActionKind
	// Type is the action name as sent by the service.
	Type     string
	MemberID int64
	Email    string
	Text     string
}

// ActorID returns the id of the user the action is about, if it names one.
func (a Action) ActorID() (int64, bool) {
	if a.MemberID > 0 {
		return a.MemberID, true
	}
	return 0, false
}

func parseAction(m Raw) (Action, bool) {
	v, ok := m["action"]
	if !ok || v == nil {
		return Action{}, false
	}

	var a Action
	switch act := v.(type) {
	case string:
		a.Type = act
		a.MemberID, _ = intField(m, "action_mid")
		a.Email, _ = stringField(m, "action_email")
		a.Text, _ = stringField(m, "action_text")
	case map[string]any:
		a.Type, _ = stringField(act, "type")
		a.MemberID, _ = intField(act, "member_id")
		a.Email, _ = stringField(act, "email")
		if text, ok := stringField(act, "text"); ok {
			a.Text = text
		} else {
			a.Text, _ = stringField(m, "action_text")
		}
	default:
		a.Type = fmt.Sprint(act)
	}
	a.Kind = ParseActionKind(a.Type)
	return a, true
}
