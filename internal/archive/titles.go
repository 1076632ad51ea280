package archive

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/Totktonada/vk-messages-backup/internal/localstate"
	"github.com/Totktonada/vk-messages-backup/internal/record"
)

// TitlesFile keeps the conversation-list titles next to the dialogs so an
// offline render names transcripts the same way a backup does. The name is
// outside both dialog and user file grammars.
const TitlesFile = "conversations.json"

// Titles maps dialogs to their titles from the remote conversation list.
type Titles map[record.DialogID]string

// Merge copies the non-empty titles of other into t, replacing older ones.
func (t Titles) Merge(other Titles) {
	for id, title := range other {
		if title != "" {
			t[id] = title
		}
	}
}

// SaveTitles writes t to dir as an object keyed by dialog name, e.g.
// {"groupchat_5": "Team"}.
func SaveTitles(dir string, t Titles) error {
	if err := localstate.EnsureDir(dir); err != nil {
		return err
	}
	out := make(map[string]string, len(t))
	for id, title := range t {
		out[id.String()] = title
	}
	if err := localstate.WriteJSON(filepath.Join(dir, TitlesFile), out); err != nil {
		return fmt.Errorf("save titles: %w", err)
	}
	return nil
}

// LoadTitles reads the titles saved in dir. A missing file yields no titles;
// keys that do not name a dialog are skipped.
func LoadTitles(dir string) (Titles, error) {
	t := make(Titles)
	path := filepath.Join(dir, TitlesFile)
	if _, err := os.Lstat(path); os.IsNotExist(err) {
		return t, nil
	}
	if err := localstate.RequireRegular(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var raw map[string]string
	if err := record.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	for key, title := range raw {
		id, ok := ParseDialogFilename(key + ".json")
		if !ok {
			log.Warn().Str("file", path).Str("key", key).Msg("skipping title of unknown dialog")
			continue
		}
		t[id] = title
	}
	return t, nil
}
