package directory

import "fmt"

// Names resolves user ids to display names. The archive owner doubles as
// "me".
type Names struct {
	dir   *Directory
	owner int64
}

// Name returns "first last" for a known user and "user_<id>" otherwise.
func (n Names) Name(id int64) string {
	if u, ok := n.dir.Lookup(id); ok {
		return u.String()
	}
	return fmt.Sprintf("user_%d", id)
}

// Me returns the owner's display name.
func (n Names) Me() string { return n.Name(n.owner) }
