package record

import "fmt"

// User is an immutable view over one raw user profile.
type User struct {
	raw       Raw
	id        int64
	fromCache bool
}

func NewUser(raw Raw) *User { return newUser(raw, false) }

func NewCachedUser(raw Raw) *User { return newUser(raw, true) }

func newUser(raw Raw, fromCache bool) *User {
	id, ok := intField(raw, "id")
	if !ok {
		id = NoID
	}
	return &User{raw: raw, id: id, fromCache: fromCache}
}

func (u *User) Raw() Raw        { return u.raw }
func (u *User) ID() int64       { return u.id }
func (u *User) FromCache() bool { return u.fromCache }

// String renders "first last".
func (u *User) String() string {
	first, _ := stringField(u.raw, "first_name")
	last, _ := stringField(u.raw, "last_name")
	return fmt.Sprintf("%s %s", first, last)
}
