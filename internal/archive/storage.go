package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/Totktonada/vk-messages-backup/internal/localstate"
	"github.com/Totktonada/vk-messages-backup/internal/model"
	"github.com/Totktonada/vk-messages-backup/internal/record"
)

var dialogFileRe = regexp.MustCompile(`^(userchat|groupchat)_(\d+)\.json$`)

// ParseDialogFilename maps a storage file name back to its dialog id.
// ok is false for names outside the dialog naming scheme.
func ParseDialogFilename(name string) (record.DialogID, bool) {
	m := dialogFileRe.FindStringSubmatch(name)
	if m == nil {
		return record.DialogID{}, false
	}
	id, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return record.DialogID{}, false
	}
	return record.DialogID{Group: m[1] == "groupchat", ID: id}, true
}

// Save writes every dialog, sorted by message id, into dir.
func (a *Archive) Save(dir string) error {
	log.Info().Str("dir", dir).Int("dialogs", len(a.dialogs)).Msg("saving messages to storage")
	if err := localstate.EnsureDir(dir); err != nil {
		return err
	}
	for _, d := range a.Dialogs() {
		msgs := d.Messages()
		raws := make([]record.Raw, len(msgs))
		for i, m := range msgs {
			raws[i] = m.Raw()
		}
		if err := localstate.WriteJSON(filepath.Join(dir, d.Filename()), raws); err != nil {
			return fmt.Errorf("save dialog %s: %w", d.id, err)
		}
	}
	return nil
}

// Load reads every dialog file of dir into a. A missing dir is an empty
// archive. Files outside the naming scheme are skipped; a matching name that
// is not a regular file, or a record that does not belong to the dialog its
// file names, is fatal.
func (a *Archive) Load(dir string) error {
	ok, err := localstate.DirExists(dir)
	if err != nil || !ok {
		return err
	}
	log.Info().Str("dir", dir).Msg("loading messages from storage")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	loaded := 0
	for _, e := range entries {
		fileID, ok := ParseDialogFilename(e.Name())
		if !ok {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := localstate.RequireRegular(path); err != nil {
			return err
		}
		n, err := a.loadDialogFile(path, fileID)
		if err != nil {
			return err
		}
		loaded += n
	}
	log.Debug().Str("dir", dir).Int("messages", loaded).Msg("messages loaded")
	return nil
}

func (a *Archive) loadDialogFile(path string, fileID record.DialogID) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var raws []record.Raw
	if err := record.Unmarshal(data, &raws); err != nil {
		return 0, fmt.Errorf("decode %s: %w", path, err)
	}
	for _, raw := range raws {
		m := record.NewCachedMessage(raw)
		got, err := m.DialogID()
		if err != nil {
			return 0, fmt.Errorf("%s: %w", path, err)
		}
		if got != fileID {
			return 0, fmt.Errorf("%s: message %d belongs to %s: %w", path, m.ID(), got, model.ErrConsistency)
		}
		if err := a.Add(m); err != nil {
			return 0, err
		}
	}
	return len(raws), nil
}
