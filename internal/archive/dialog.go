// Package archive groups message records into per-conversation dialogs and
// owns their on-disk layout: one JSON array of raw records per dialog.
package archive

import (
	"fmt"
	"sort"

	pkgerrors "github.com/pkg/errors"

	"github.com/Totktonada/vk-messages-backup/internal/model"
	"github.com/Totktonada/vk-messages-backup/internal/record"
)

// Dialog is the append-only message sequence of one conversation. Messages
// are sorted by id lazily, before anything reads them.
type Dialog struct {
	id       record.DialogID
	messages []*record.Message
	sorted   bool
}

func NewDialog(id record.DialogID) *Dialog {
	return &Dialog{id: id, sorted: true}
}

func (d *Dialog) ID() record.DialogID { return d.id }

// Add appends m. A message whose own dialog id differs from the dialog's is
// a consistency error and is not stored.
func (d *Dialog) Add(m *record.Message) error {
	got, err := m.DialogID()
	if err != nil {
		return pkgerrors.WithStack(err)
	}
	if got != d.id {
		return pkgerrors.WithStack(fmt.Errorf("dialog %s: message %d belongs to %s: %w",
			d.id, m.ID(), got, model.ErrConsistency))
	}
	d.messages = append(d.messages, m)
	d.sorted = false
	return nil
}

func (d *Dialog) Len() int { return len(d.messages) }

// Messages returns the messages in ascending id order. The slice is owned by
// the dialog.
func (d *Dialog) Messages() []*record.Message {
	d.sort()
	return d.messages
}

// Last returns the message with the highest id.
func (d *Dialog) Last() (*record.Message, bool) {
	d.sort()
	if len(d.messages) == 0 {
		return nil, false
	}
	return d.messages[len(d.messages)-1], true
}

// Checkpoint returns the highest stored message id: the resume point for the
// next incremental fetch. ok is false for a dialog without identified
// messages.
func (d *Dialog) Checkpoint() (id int64, ok bool) {
	last, ok := d.Last()
	if !ok || last.ID() == record.NoID {
		return 0, false
	}
	return last.ID(), true
}

// Participants returns every user id the dialog mentions: senders, action
// targets and the senders of forwarded messages at any depth.
func (d *Dialog) Participants() record.IDSet {
	ids := make(record.IDSet)
	for _, m := range d.messages {
		collectParticipants(m, ids)
	}
	return ids
}

// Filename is the storage file name of the dialog.
func (d *Dialog) Filename() string { return d.id.String() + ".json" }

func (d *Dialog) sort() {
	if d.sorted {
		return
	}
	sort.SliceStable(d.messages, func(i, j int) bool {
		return d.messages[i].ID() < d.messages[j].ID()
	})
	d.sorted = true
}

func collectParticipants(m *record.Message, into record.IDSet) {
	if id, ok := m.SenderID(); ok {
		into.Add(id)
	}
	if a, ok := m.Action(); ok {
		if actor, ok := a.ActorID(); ok {
			into.Add(actor)
		}
	}
	collectForwardSenders(m, into)
}

func collectForwardSenders(m *record.Message, into record.IDSet) {
	for _, fwd := range m.Forwarded() {
		if id, ok := fwd.SenderID(); ok {
			into.Add(id)
		}
		collectForwardSenders(fwd, into)
	}
}
