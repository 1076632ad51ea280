package archive

import (
	"sort"

	"github.com/Totktonada/vk-messages-backup/internal/record"
)

// Archive is the full set of dialogs. Dialogs are created on the first
// message for a new identity and never removed.
type Archive struct {
	dialogs map[record.DialogID]*Dialog
}

func New() *Archive {
	return &Archive{dialogs: make(map[record.DialogID]*Dialog)}
}

// Add routes m to its dialog.
func (a *Archive) Add(m *record.Message) error {
	id, err := m.DialogID()
	if err != nil {
		return err
	}
	d, ok := a.dialogs[id]
	if !ok {
		d = NewDialog(id)
		a.dialogs[id] = d
	}
	return d.Add(m)
}

// AddAll routes every message, stopping at the first error.
func (a *Archive) AddAll(msgs []*record.Message) error {
	for _, m := range msgs {
		if err := a.Add(m); err != nil {
			return err
		}
	}
	return nil
}

func (a *Archive) Dialog(id record.DialogID) (*Dialog, bool) {
	d, ok := a.dialogs[id]
	return d, ok
}

// Dialogs returns all dialogs, individual chats first, each group ordered by
// id.
func (a *Archive) Dialogs() []*Dialog {
	out := make([]*Dialog, 0, len(a.dialogs))
	for _, d := range a.dialogs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		x, y := out[i].id, out[j].id
		if x.Group != y.Group {
			return !x.Group
		}
		return x.ID < y.ID
	})
	return out
}

// MessageCount is the number of stored top-level messages.
func (a *Archive) MessageCount() int {
	n := 0
	for _, d := range a.dialogs {
		n += d.Len()
	}
	return n
}

func (a *Archive) Participants() record.IDSet {
	ids := make(record.IDSet)
	for _, d := range a.dialogs {
		ids.Merge(d.Participants())
	}
	return ids
}

// CheckpointFor returns the resume point for the conversation addressed by
// peerID, or ok=false when nothing is stored for it yet.
func (a *Archive) CheckpointFor(peerID int64) (int64, bool) {
	d, ok := a.dialogs[record.PeerDialogID(peerID)]
	if !ok {
		return 0, false
	}
	return d.Checkpoint()
}
