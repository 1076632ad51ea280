package render

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/Totktonada/vk-messages-backup/internal/archive"
	"github.com/Totktonada/vk-messages-backup/internal/localstate"
	"github.com/Totktonada/vk-messages-backup/internal/record"
)

// Anything outside Latin and Cyrillic letters, digits, space and «»"'()!.,+-
// becomes "_".
var unsafeTitleRe = regexp.MustCompile(`[^a-zA-Z0-9А-ЯЁа-яё «»"'()!.,+-]`)

// Sanitize makes title usable as a file name: unsafe characters are
// replaced with "_" and trailing periods are dropped.
func Sanitize(title string) string {
	return strings.TrimRight(unsafeTitleRe.ReplaceAllString(title, "_"), ".")
}

// DialogTitle is the display title of d: the chat title for group chats,
// the peer's name for individual ones.
func (r *Renderer) DialogTitle(d *archive.Dialog) string {
	id := d.ID()
	if !id.Group {
		return r.names.Name(id.ID)
	}
	msgs := d.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if title, ok := msgs[i].Title(); ok && title != "" {
			return title
		}
	}
	if title := r.titles[id]; title != "" {
		return title
	}
	return id.String()
}

// Filename is the transcript file name of d. Distinct dialogs whose titles
// sanitize to the same string share a file name; the later write wins.
func (r *Renderer) Filename(d *archive.Dialog) string {
	name := Sanitize(r.DialogTitle(d))
	if name == "" {
		name = d.ID().String()
	}
	return name + ".txt"
}

// WriteAll renders every non-empty dialog of a into dir. Nothing is written
// unless all dialogs render.
func (r *Renderer) WriteAll(a *archive.Archive, dir string) error {
	log.Info().Str("dir", dir).Msg("dumping messages log into files")

	type transcript struct {
		name string
		id   record.DialogID
		text string
	}
	var out []transcript
	for _, d := range a.Dialogs() {
		if d.Len() == 0 {
			continue
		}
		text, err := r.Dialog(d)
		if err != nil {
			return err
		}
		out = append(out, transcript{name: r.Filename(d), id: d.ID(), text: text})
	}

	if err := localstate.EnsureDir(dir); err != nil {
		return err
	}
	owners := make(map[string]record.DialogID, len(out))
	for _, t := range out {
		if prev, ok := owners[t.name]; ok {
			log.Warn().
				Str("file", t.name).
				Str("dialog", t.id.String()).
				Str("overwritten_dialog", prev.String()).
				Msg("dialogs share a transcript file name")
		}
		owners[t.name] = t.id
		if err := localstate.WriteFile(filepath.Join(dir, t.name), []byte(t.text)); err != nil {
			return err
		}
	}
	log.Debug().Int("transcripts", len(owners)).Msg("transcripts written")
	return nil
}
