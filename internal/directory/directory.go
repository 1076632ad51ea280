// Package directory keeps the locally known user profiles and computes which
// participants still have to be resolved remotely.
package directory

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

var userFileRe = regexp.MustCompile(`^user_(\d+)\.json$`)

// Directory maps user ids to profiles. Adding a profile for a known id
// replaces the previous one.
type Directory struct {
	users map[int64]*record.User
}

func New() *Directory {
	return &Directory{users: make(map[int64]*record.User)}
}

// Add stores users. A profile without an id cannot be stored or looked up
// and is rejected.
func (d *Directory) Add(users ...*record.User) error {
	for _, u := range users {
		if u.ID() == record.NoID {
			return fmt.Errorf("user profile without id: %w", model.ErrMalformedRecord)
		}
		d.users[u.ID()] = u
	}
	return nil
}

func (d *Directory) Len() int { return len(d.users) }

func (d *Directory) Lookup(id int64) (*record.User, bool) {
	u, ok := d.users[id]
	return u, ok
}

// KnownIDs returns the ids of every stored profile.
func (d *Directory) KnownIDs() record.IDSet {
	ids := make(record.IDSet, len(d.users))
	for id := range d.users {
		ids.Add(id)
	}
	return ids
}

// Missing returns the participants without a stored profile.
func (d *Directory) Missing(participants record.IDSet) record.IDSet {
	return participants.Minus(d.KnownIDs())
}

// Names returns the display-name resolver for an archive owned by ownerID.
func (d *Directory) Names(ownerID int64) Names {
	return Names{dir: d, owner: ownerID}
}

// ParseUserFilename maps a storage file name back to a user id.
func ParseUserFilename(name string) (int64, bool) {
	m := userFileRe.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func userFilename(id int64) string { return fmt.Sprintf("user_%d.json", id) }

// Save writes one file per profile into dir.
func (d *Directory) Save(dir string) error {
	log.Info().Str("dir", dir).Int("users", len(d.users)).Msg("saving users to storage")
	if err := localstate.EnsureDir(dir); err != nil {
		return err
	}
	for _, id := range d.KnownIDs().Sorted() {
		if err := localstate.WriteJSON(filepath.Join(dir, userFilename(id)), d.users[id].Raw()); err != nil {
			return fmt.Errorf("save user %d: %w", id, err)
		}
	}
	return nil
}

// Load reads every user file of dir. Names outside the user naming scheme
// are skipped; a matching name that is not a regular file is fatal.
func (d *Directory) Load(dir string) error {
	ok, err := localstate.DirExists(dir)
	if err != nil || !ok {
		return err
	}
	log.Info().Str("dir", dir).Msg("loading users from storage")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fileID, ok := ParseUserFilename(e.Name())
		if !ok {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := localstate.RequireRegular(path); err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		var raw record.Raw
		if err := record.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}
		u := record.NewCachedUser(raw)
		if u.ID() != fileID {
			return fmt.Errorf("%s: holds user %d: %w", path, u.ID(), model.ErrConsistency)
		}
		d.users[fileID] = u
	}
	return nil
}
