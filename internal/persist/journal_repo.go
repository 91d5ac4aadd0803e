package persist

import (
	"context"
	"fmt"
	"time"
)

// EntryKind tags a journal row.
type EntryKind uint8

const (
	MatchStarted EntryKind = iota + 1
	MatchEnded
	SessionJoined
	SessionLeft
	Kill
)

func (k EntryKind) String() string {
	switch k {
	case MatchStarted:
		return "match_started"
	case MatchEnded:
		return "match_ended"
	case SessionJoined:
		return "session_joined"
	case SessionLeft:
		return "session_left"
	case Kill:
		return "kill"
	}
	return "unknown"
}

// Entry is one append-only journal row. Fields unused by a kind stay zero.
type Entry struct {
	Kind    EntryKind
	Match   string
	At      time.Time
	MapName string // MatchStarted
	Reason  string // MatchEnded

	Session    uint64 // SessionJoined/SessionLeft, victim session for Kill
	RemoteAddr string
	Skin       string // player skin, or victim skin for Kill

	Tick       uint64 // Kill
	KillerSkin string // Kill, "" when unknown
}

type JournalRepo struct {
	db *DB
}

func NewJournalRepo(db *DB) *JournalRepo {
	return &JournalRepo{db: db}
}

// WriteBatch writes entries in order inside one transaction.
func (r *JournalRepo) WriteBatch(ctx context.Context, entries []Entry) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, e := range entries {
		sql, args := entrySQL(e)
		if sql == "" {
			continue
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("journal %s: %w", e.Kind, err)
		}
	}

	return tx.Commit(ctx)
}

func entrySQL(e Entry) (string, []any) {
	switch e.Kind {
	case MatchStarted:
		return `INSERT INTO matches (id, map_name, started_at) VALUES ($1, $2, $3)
			 ON CONFLICT (id) DO NOTHING`,
			[]any{e.Match, e.MapName, e.At}
	case MatchEnded:
		return `UPDATE matches SET ended_at = $2, end_reason = $3 WHERE id = $1`,
			[]any{e.Match, e.At, e.Reason}
	case SessionJoined:
		return `INSERT INTO match_sessions (match_id, session_id, remote_addr, skin, joined_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			[]any{e.Match, int64(e.Session), e.RemoteAddr, e.Skin, e.At}
	case SessionLeft:
		return `UPDATE match_sessions SET left_at = $3
			 WHERE match_id = $1 AND session_id = $2 AND left_at IS NULL`,
			[]any{e.Match, int64(e.Session), e.At}
	case Kill:
		return `INSERT INTO kills (match_id, tick, victim_skin, victim_sess, killer_skin, killed_at)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			[]any{e.Match, int64(e.Tick), e.Skin, int64(e.Session), e.KillerSkin, e.At}
	}
	return "", nil
}
