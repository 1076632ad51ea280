package syncer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Totktonada/vk-messages-backup/internal/archive"
	"github.com/Totktonada/vk-messages-backup/internal/directory"
	"github.com/Totktonada/vk-messages-backup/internal/record"
)

func message(t *testing.T, s string) *record.Message {
	t.Helper()
	var raw record.Raw
	require.NoError(t, record.Unmarshal([]byte(s), &raw))
	return record.NewMessage(raw)
}

func user(t *testing.T, id int64, first, last string) *record.User {
	t.Helper()
	var raw record.Raw
	require.NoError(t, record.Unmarshal([]byte(fmt.Sprintf(`{"id": %d, "first_name": %q, "last_name": %q}`, id, first, last)), &raw))
	return record.NewUser(raw)
}

// fakeFetcher ignores the lower bound and always returns the whole history,
// so the checkpoint filter of the caller is what keeps the archive clean.
type fakeFetcher struct {
	t         *testing.T
	convs     []record.Conversation
	histories map[int64][]string
	users     map[int64]*record.User

	afters   map[int64]int64
	userReqs [][]int64
}

func (f *fakeFetcher) Conversations(context.Context) ([]record.Conversation, error) {
	return f.convs, nil
}

func (f *fakeFetcher) History(_ context.Context, peerID, after int64) ([]*record.Message, error) {
	if f.afters == nil {
		f.afters = make(map[int64]int64)
	}
	f.afters[peerID] = after
	var out []*record.Message
	for _, s := range f.histories[peerID] {
		out = append(out, message(f.t, s))
	}
	return out, nil
}

func (f *fakeFetcher) Users(_ context.Context, ids []int64) ([]*record.User, error) {
	f.userReqs = append(f.userReqs, ids)
	var out []*record.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func dialogIDs(t *testing.T, a *archive.Archive, id record.DialogID) []int64 {
	t.Helper()
	d, ok := a.Dialog(id)
	require.True(t, ok)
	var ids []int64
	for _, m := range d.Messages() {
		ids = append(ids, m.ID())
	}
	return ids
}

func TestSyncDialogs_CheckpointExclusivity(t *testing.T) {
	a := archive.New()
	require.NoError(t, a.AddAll([]*record.Message{
		message(t, `{"id": 50, "peer_id": 5, "from_id": 5, "text": "old"}`),
		message(t, `{"id": 100, "peer_id": 5, "from_id": 5, "text": "old"}`),
	}))

	f := &fakeFetcher{t: t, histories: map[int64][]string{5: {
		`{"id": 99, "peer_id": 5, "from_id": 5, "text": "dup"}`,
		`{"id": 100, "peer_id": 5, "from_id": 5, "text": "dup"}`,
		`{"id": 101, "peer_id": 5, "from_id": 5, "text": "new"}`,
		`{"id": 102, "peer_id": 5, "from_id": 1, "text": "new"}`,
	}}}
	s := New(f, Options{OwnerID: 1})

	added, err := s.SyncDialogs(context.Background(), a, []record.Conversation{{PeerID: 5}})
	require.NoError(t, err)
	assert.Equal(t, 2, added)
	assert.Equal(t, int64(100), f.afters[5])
	assert.Equal(t, []int64{50, 100, 101, 102}, dialogIDs(t, a, record.DialogID{ID: 5}))

	cp, ok := a.CheckpointFor(5)
	require.True(t, ok)
	assert.Equal(t, int64(102), cp)
}

func TestSyncDialogs_NewConversationFetchesEverything(t *testing.T) {
	f := &fakeFetcher{t: t, histories: map[int64][]string{2000000003: {
		`{"id": 7, "peer_id": 2000000003, "from_id": 4, "text": "a"}`,
	}}}
	a := archive.New()
	added, err := New(f, Options{}).SyncDialogs(context.Background(), a, []record.Conversation{{PeerID: 2000000003}})
	require.NoError(t, err)
	assert.Equal(t, 1, added)
	assert.Equal(t, record.NoID, f.afters[2000000003])
	assert.Equal(t, []int64{7}, dialogIDs(t, a, record.DialogID{Group: true, ID: 3}))
}

func TestAboveCheckpoint(t *testing.T) {
	msgs := []*record.Message{
		message(t, `{"id": 1, "user_id": 2}`),
		message(t, `{"id": 5, "user_id": 2}`),
		message(t, `{"id": 6, "user_id": 2}`),
	}
	assert.Len(t, AboveCheckpoint(msgs, record.NoID), 3)
	got := AboveCheckpoint(msgs, 5)
	require.Len(t, got, 1)
	assert.Equal(t, int64(6), got[0].ID())
}

func TestResolveUsers_OnlyMissingPlusOwner(t *testing.T) {
	a := archive.New()
	require.NoError(t, a.Add(message(t, `{"id": 1, "peer_id": 2000000001, "from_id": 3, "text": "x",
		"fwd_messages": [{"from_id": 4, "text": "y"}]}`)))

	dir := directory.New()
	require.NoError(t, dir.Add(user(t, 3, "Known", "User")))

	f := &fakeFetcher{t: t, users: map[int64]*record.User{
		1: user(t, 1, "Owner", "Self"),
		4: user(t, 4, "Fwd", "Sender"),
	}}
	n, err := New(f, Options{OwnerID: 1}).ResolveUsers(context.Background(), a, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, f.userReqs, 1)
	assert.Equal(t, []int64{1, 4}, f.userReqs[0])
	assert.Equal(t, "Owner Self", dir.Names(1).Me())

	// Nothing left to resolve: no further request.
	n, err = New(f, Options{OwnerID: 1}).ResolveUsers(context.Background(), a, dir)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Len(t, f.userReqs, 1)
}

func readDir(t *testing.T, dir string) map[string]string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		require.NoError(t, err)
		out[e.Name()] = string(b)
	}
	return out
}

func TestRun_EndToEndAndRerunIsStable(t *testing.T) {
	root := t.TempDir()
	opts := Options{
		StorageDir:  filepath.Join(root, "storage"),
		ChatlogsDir: filepath.Join(root, "chatlogs"),
		OwnerID:     1,
	}
	f := &fakeFetcher{
		t: t,
		convs: []record.Conversation{
			{PeerID: 2},
			{PeerID: 2000000009, Title: "Book club"},
		},
		histories: map[int64][]string{
			2: {
				`{"id": 10, "peer_id": 2, "from_id": 2, "date": 1445418000, "text": "hi"}`,
				`{"id": 11, "peer_id": 2, "from_id": 1, "out": 1, "date": 1445418060, "text": "hello"}`,
			},
			2000000009: {
				`{"id": 12, "peer_id": 2000000009, "from_id": 3, "date": 1445418000, "text": "welcome",
					"action": {"type": "chat_invite_user", "member_id": 2}}`,
			},
		},
		users: map[int64]*record.User{
			1: user(t, 1, "Owner", "Self"),
			2: user(t, 2, "Alice", "A"),
			3: user(t, 3, "Bob", "B"),
		},
	}

	res, err := New(f, opts).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Result{Conversations: 2, NewMessages: 3, Dialogs: 2, Messages: 3, NewUsers: 3}, res)

	storage := readDir(t, opts.StorageDir)
	var names []string
	for name := range storage {
		names = append(names, name)
	}
	sort.Strings(names)
	assert.Equal(t, []string{"conversations.json", "groupchat_9.json", "user_1.json", "user_2.json", "user_3.json", "userchat_2.json"}, names)
	assert.Equal(t, "{\n    \"groupchat_9\": \"Book club\"\n}\n", storage["conversations.json"])

	logs := readDir(t, opts.ChatlogsDir)
	assert.Equal(t,
		"[2015-10-21 12:00:00+03:00] Alice A: hi\n[2015-10-21 12:01:00+03:00] Owner Self: hello\n",
		logs["Alice A.txt"])
	assert.Equal(t,
		"[2015-10-21 12:00:00+03:00] Bob B: welcome*** [user invited: Alice A] ***\n",
		logs["Book club.txt"])

	// Same remote state again: nothing new is stored or fetched.
	res, err = New(f, opts).Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res.NewMessages)
	assert.Zero(t, res.NewUsers)
	assert.Len(t, f.userReqs, 1)
	assert.Equal(t, int64(11), f.afters[2])
	assert.Equal(t, storage, readDir(t, opts.StorageDir))
	assert.Equal(t, logs, readDir(t, opts.ChatlogsDir))

	// An offline render names the group transcript the same way.
	require.NoError(t, RenderLocal(opts))
	assert.Equal(t, logs, readDir(t, opts.ChatlogsDir))
}

func TestRun_FetchErrorStopsBeforeSave(t *testing.T) {
	root := t.TempDir()
	opts := Options{StorageDir: filepath.Join(root, "storage"), ChatlogsDir: filepath.Join(root, "chatlogs")}
	boom := errors.New("boom")
	_, err := New(&failingFetcher{err: boom}, opts).Run(context.Background())
	require.ErrorIs(t, err, boom)
	_, statErr := os.Stat(opts.StorageDir)
	assert.True(t, os.IsNotExist(statErr))
}

type failingFetcher struct{ err error }

func (f *failingFetcher) Conversations(context.Context) ([]record.Conversation, error) {
	return []record.Conversation{{PeerID: 1}}, nil
}

func (f *failingFetcher) History(context.Context, int64, int64) ([]*record.Message, error) {
	return nil, f.err
}

func (f *failingFetcher) Users(context.Context, []int64) ([]*record.User, error) {
	return nil, f.err
}

func TestRenderLocal_UsesStoredGroupTitle(t *testing.T) {
	root := t.TempDir()
	opts := Options{StorageDir: filepath.Join(root, "storage"), ChatlogsDir: filepath.Join(root, "chatlogs"), OwnerID: 1}

	a := archive.New()
	require.NoError(t, a.Add(message(t, `{"id": 1, "peer_id": 2000000005, "from_id": 2, "date": 1445418000, "text": "yo"}`)))
	require.NoError(t, a.Save(opts.StorageDir))
	require.NoError(t, archive.SaveTitles(opts.StorageDir, archive.Titles{{Group: true, ID: 5}: "Team"}))

	require.NoError(t, RenderLocal(opts))
	logs := readDir(t, opts.ChatlogsDir)
	assert.Len(t, logs, 1)
	assert.Equal(t, "[2015-10-21 12:00:00+03:00] user_2: yo\n", logs["Team.txt"])
}

func TestRun_KeepsTitlesOfUnlistedConversations(t *testing.T) {
	root := t.TempDir()
	opts := Options{StorageDir: filepath.Join(root, "storage"), ChatlogsDir: filepath.Join(root, "chatlogs"), OwnerID: 1}
	require.NoError(t, archive.SaveTitles(opts.StorageDir, archive.Titles{{Group: true, ID: 4}: "Archived"}))

	f := &fakeFetcher{t: t, convs: []record.Conversation{{PeerID: 2000000006, Title: "Current"}}}
	_, err := New(f, opts).Run(context.Background())
	require.NoError(t, err)

	titles, err := archive.LoadTitles(opts.StorageDir)
	require.NoError(t, err)
	assert.Equal(t, archive.Titles{{Group: true, ID: 4}: "Archived", {Group: true, ID: 6}: "Current"}, titles)
}

func TestRenderLocal_UnresolvedFallsBack(t *testing.T) {
	root := t.TempDir()
	opts := Options{StorageDir: filepath.Join(root, "storage"), ChatlogsDir: filepath.Join(root, "chatlogs"), OwnerID: 1}

	a := archive.New()
	require.NoError(t, a.Add(message(t, `{"id": 1, "peer_id": 77, "from_id": 77, "date": 1445418000, "text": "yo"}`)))
	require.NoError(t, a.Save(opts.StorageDir))

	require.NoError(t, RenderLocal(opts))
	logs := readDir(t, opts.ChatlogsDir)
	assert.Equal(t, "[2015-10-21 12:00:00+03:00] user_77: yo\n", logs["user_77.txt"])
}
