// Package render turns stored dialogs into plain-text transcripts, one file
// per dialog.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/Totktonada/vk-messages-backup/internal/archive"
	"github.com/Totktonada/vk-messages-backup/internal/model"
	"github.com/Totktonada/vk-messages-backup/internal/record"
)

const (
	timeLayout = "2006-01-02 15:04:05-07:00"
	fwdMark    = ">>> "

	geoNote        = "\n    <- geolocation attached but displaying is not implemented"
	attachmentNote = "\n    <- media attachments attached but displaying is not implemented"

	placeholderTitle = "..."
)

// Transcripts are stamped in the service's home zone, not the host's.
var homeZone = time.FixedZone("UTC+3", 3*60*60)

// Names resolves user ids to display names.
type Names interface {
	Name(id int64) string
	// Me is the archive owner's name.
	Me() string
}

// Renderer formats messages using a name resolver and the titles of the
// remote conversation list.
type Renderer struct {
	names  Names
	titles map[record.DialogID]string
}

// New returns a Renderer. titles may be nil.
func New(names Names, titles map[record.DialogID]string) *Renderer {
	return &Renderer{names: names, titles: titles}
}

// Dialog renders every message of d in id order, one block per message.
func (r *Renderer) Dialog(d *archive.Dialog) (string, error) {
	var b strings.Builder
	for _, m := range d.Messages() {
		text, err := r.Message(m)
		if err != nil {
			return "", fmt.Errorf("dialog %s: %w", d.ID(), err)
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// Message renders one top-level message.
func (r *Renderer) Message(m *record.Message) (string, error) {
	var b strings.Builder

	if title, ok := headerTitle(m); ok {
		b.WriteString(title)
		b.WriteByte('\n')
	}
	sender, err := r.sender(m)
	if err != nil {
		return "", err
	}
	ts, err := dateStamp(m)
	if err != nil {
		return "", err
	}
	fmt.Fprintf(&b, "[%s] %s:", ts, sender)
	fwd, err := r.forwards(m)
	if err != nil {
		return "", err
	}
	b.WriteString(fwd)
	b.WriteString(m.Body())

	action, err := r.action(m)
	if err != nil {
		return "", err
	}
	b.WriteString(action)
	if m.HasGeo() {
		b.WriteString(geoNote)
	}
	if m.HasAttachments() {
		b.WriteString(attachmentNote)
	}
	return b.String(), nil
}

// Timestamp formats t in the fixed UTC+3 zone, e.g.
// "2015-10-21 12:00:00+03:00".
func Timestamp(t time.Time) string {
	return t.In(homeZone).Format(timeLayout)
}

// forwards renders the quoted messages of m. Each quoted block is prefixed
// with fwdMark on every line; nested quotes are rendered first and prefixed
// again, so the mark repeats once per nesting level.
func (r *Renderer) forwards(m *record.Message) (string, error) {
	fwds := m.Forwarded()
	if len(fwds) == 0 {
		return " ", nil
	}
	var b strings.Builder
	for _, f := range fwds {
		nested, err := r.forwards(f)
		if err != nil {
			return "", err
		}
		sender, err := r.sender(f)
		if err != nil {
			return "", err
		}
		ts, err := dateStamp(f)
		if err != nil {
			return "", err
		}
		body := strings.ReplaceAll(nested+f.Body(), "\n", "\n"+fwdMark)
		fmt.Fprintf(&b, "\n%s[%s] %s:%s", fwdMark, ts, sender, body)
	}
	b.WriteByte('\n')
	return b.String(), nil
}

func dateStamp(m *record.Message) (string, error) {
	t, ok := m.Date()
	if !ok {
		return "", fmt.Errorf("message %d has no date: %w", m.ID(), model.ErrMalformedRecord)
	}
	return Timestamp(t), nil
}

func (r *Renderer) sender(m *record.Message) (string, error) {
	if m.Sent() {
		return r.names.Me(), nil
	}
	id, ok := m.SenderID()
	if !ok {
		return "", fmt.Errorf("message %d has no sender: %w", m.ID(), model.ErrMalformedRecord)
	}
	return r.names.Name(id), nil
}

func (r *Renderer) action(m *record.Message) (string, error) {
	a, ok := m.Action()
	if !ok {
		return "", nil
	}
	var text string
	switch a.Kind {
	case record.ActionChatPhotoUpdate:
		text = "chat photo updated"
	case record.ActionChatPhotoRemove:
		text = "chat photo removed"
	case record.ActionChatCreate:
		text = "chat created: " + a.Text
	case record.ActionChatTitleUpdate:
		text = "chat title updated: " + a.Text
	case record.ActionChatInviteUser:
		text = "user invited: " + r.actor(a)
	case record.ActionChatKickUser:
		text = "user kicked: " + r.actor(a)
	default:
		return "", fmt.Errorf("message %d: action %q: %w", m.ID(), a.Type, model.ErrUnsupportedAction)
	}
	return "*** [" + text + "] ***", nil
}

// actor names the user an invite or kick is about. Non-positive member ids
// (communities, bots) still resolve by id unless an email is given.
func (r *Renderer) actor(a record.Action) string {
	if id, ok := a.ActorID(); ok {
		return r.names.Name(id)
	}
	if a.Email == "" && a.MemberID != 0 {
		return r.names.Name(a.MemberID)
	}
	return a.Email
}

// headerTitle returns the conversation title printed above a message of an
// individual chat. Group messages and the "..." placeholder get none.
func headerTitle(m *record.Message) (string, bool) {
	if m.IsGroup() {
		return "", false
	}
	title, ok := m.Title()
	if !ok {
		return "", false
	}
	trimmed := strings.TrimSpace(title)
	if trimmed == "" || trimmed == placeholderTitle {
		return "", false
	}
	return title, true
}
