// Package syncer drives one backup run: incremental fetch bounded by the
// stored checkpoints, persistence, participant resolution and transcript
// rendering.
package syncer

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/Totktonada/vk-messages-backup/internal/archive"
	"github.com/Totktonada/vk-messages-backup/internal/directory"
	"github.com/Totktonada/vk-messages-backup/internal/record"
	"github.com/Totktonada/vk-messages-backup/internal/render"
)

// Fetcher is the remote side of a run.
type Fetcher interface {
	// Conversations lists the account's conversations.
	Conversations(ctx context.Context) ([]record.Conversation, error)
	// History returns the messages of peerID with ids strictly greater than
	// after (record.NoID for the whole history).
	History(ctx context.Context, peerID, after int64) ([]*record.Message, error)
	// Users resolves profiles by id.
	Users(ctx context.Context, ids []int64) ([]*record.User, error)
}

// Options locate local state and name the archive owner.
type Options struct {
	StorageDir  string
	ChatlogsDir string
	OwnerID     int64
}

// Result summarizes a run.
type Result struct {
	Conversations int
	NewMessages   int
	Dialogs       int
	Messages      int
	NewUsers      int
}

type Syncer struct {
	fetch Fetcher
	opts  Options
}

func New(fetch Fetcher, opts Options) *Syncer {
	return &Syncer{fetch: fetch, opts: opts}
}

// Run performs a full backup: load, fetch what is new, save, resolve
// participants, render.
func (s *Syncer) Run(ctx context.Context) (*Result, error) {
	a := archive.New()
	if err := a.Load(s.opts.StorageDir); err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	convs, err := s.fetch.Conversations(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch conversations: %w", err)
	}
	added, err := s.SyncDialogs(ctx, a, convs)
	if err != nil {
		return nil, err
	}
	if err := a.Save(s.opts.StorageDir); err != nil {
		return nil, fmt.Errorf("save messages: %w", err)
	}

	dir := directory.New()
	if err := dir.Load(s.opts.StorageDir); err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}
	resolved, err := s.ResolveUsers(ctx, a, dir)
	if err != nil {
		return nil, err
	}
	if err := dir.Save(s.opts.StorageDir); err != nil {
		return nil, fmt.Errorf("save users: %w", err)
	}

	titles, err := s.saveTitles(convs)
	if err != nil {
		return nil, err
	}
	if err := render.New(dir.Names(s.opts.OwnerID), titles).WriteAll(a, s.opts.ChatlogsDir); err != nil {
		return nil, fmt.Errorf("render transcripts: %w", err)
	}

	res := &Result{
		Conversations: len(convs),
		NewMessages:   added,
		Dialogs:       len(a.Dialogs()),
		Messages:      a.MessageCount(),
		NewUsers:      resolved,
	}
	observe(res, dir.Len())
	return res, nil
}

// saveTitles merges the titles of convs into the stored ones and persists
// the result. Titles of conversations no longer listed are kept.
func (s *Syncer) saveTitles(convs []record.Conversation) (archive.Titles, error) {
	titles, err := archive.LoadTitles(s.opts.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("load titles: %w", err)
	}
	fresh := make(archive.Titles, len(convs))
	for _, c := range convs {
		fresh[c.DialogID()] = c.Title
	}
	titles.Merge(fresh)
	if err := archive.SaveTitles(s.opts.StorageDir, titles); err != nil {
		return nil, err
	}
	return titles, nil
}

// SyncDialogs fetches, for every conversation, the messages above its
// stored checkpoint and adds them to a. It returns the number of messages
// added.
func (s *Syncer) SyncDialogs(ctx context.Context, a *archive.Archive, convs []record.Conversation) (int, error) {
	total := 0
	for _, c := range convs {
		after := record.NoID
		if cp, ok := a.CheckpointFor(c.PeerID); ok {
			after = cp
		}
		msgs, err := s.fetch.History(ctx, c.PeerID, after)
		if err != nil {
			return total, fmt.Errorf("fetch history of %s: %w", c.DialogID(), err)
		}
		fresh := AboveCheckpoint(msgs, after)
		if dropped := len(msgs) - len(fresh); dropped > 0 {
			log.Warn().
				Str("dialog", c.DialogID().String()).
				Int64("checkpoint", after).
				Int("dropped", dropped).
				Msg("fetch returned already archived messages")
		}
		if err := a.AddAll(fresh); err != nil {
			return total, err
		}
		total += len(fresh)
		newMessagesTotal.Add(float64(len(fresh)))
	}
	log.Info().Int("conversations", len(convs)).Int("new_messages", total).Msg("history synchronized")
	return total, nil
}

// AboveCheckpoint keeps the messages with ids strictly greater than after.
func AboveCheckpoint(msgs []*record.Message, after int64) []*record.Message {
	out := make([]*record.Message, 0, len(msgs))
	for _, m := range msgs {
		if m.ID() > after {
			out = append(out, m)
		}
	}
	return out
}

// ResolveUsers fetches the profiles of every participant of a, plus the
// owner, that dir does not know yet. It returns the number of profiles
// added.
func (s *Syncer) ResolveUsers(ctx context.Context, a *archive.Archive, dir *directory.Directory) (int, error) {
	participants := a.Participants()
	participants.Add(s.opts.OwnerID)

	missing := dir.Missing(participants)
	if len(missing) == 0 {
		return 0, nil
	}
	users, err := s.fetch.Users(ctx, missing.Sorted())
	if err != nil {
		return 0, fmt.Errorf("fetch users: %w", err)
	}
	if err := dir.Add(users...); err != nil {
		return 0, err
	}
	if still := dir.Missing(missing); len(still) > 0 {
		log.Warn().Int("unresolved", len(still)).Msg("some participants could not be resolved")
	}
	usersResolvedTotal.Add(float64(len(users)))
	return len(users), nil
}

// RenderLocal rebuilds the transcripts from storage alone, naming them
// with the stored conversation titles.
func RenderLocal(opts Options) error {
	a := archive.New()
	if err := a.Load(opts.StorageDir); err != nil {
		return fmt.Errorf("load messages: %w", err)
	}
	dir := directory.New()
	if err := dir.Load(opts.StorageDir); err != nil {
		return fmt.Errorf("load users: %w", err)
	}
	titles, err := archive.LoadTitles(opts.StorageDir)
	if err != nil {
		return fmt.Errorf("load titles: %w", err)
	}
	if err := render.New(dir.Names(opts.OwnerID), titles).WriteAll(a, opts.ChatlogsDir); err != nil {
		return fmt.Errorf("render transcripts: %w", err)
	}
	observe(&Result{Dialogs: len(a.Dialogs()), Messages: a.MessageCount()}, dir.Len())
	return nil
}
