package store

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"
	"time"

	"github.com/safeguard-ke/safeguard/internal/database"
)

const (
	articlesTable = "articles"
	threatsTable  = "threats"
)

// Store persists scan results. Every record lands in the local SQLite
// archive and the in-memory backup ring; when a remote store is configured
// it is pushed there as well. A remote failure is logged, never fatal: the
// local copy and the ring keep the record.
type Store struct {
	db     *database.DB
	remote *RemoteStore
	ring   *BackupRing
}

// New creates a Store. remote may be nil for local-only operation.
func New(db *database.DB, remote *RemoteStore, ringSize int) *Store {
	return &Store{
		db:     db,
		remote: remote,
		ring:   NewBackupRing(ringSize),
	}
}

// RemoteEnabled reports whether records are also pushed to a remote store.
func (s *Store) RemoteEnabled() bool {
	return s.remote != nil
}

// Ring exposes the in-memory backup ring.
func (s *Store) Ring() *BackupRing {
	return s.ring
}

// SaveArticle archives an article, keyed on its URL. Saving the same URL
// twice overwrites the earlier row. The ring entry is written first so the
// record survives in-process even when every store is down.
func (s *Store) SaveArticle(ctx context.Context, a *database.ArticleRecord) error {
	s.ring.Append(BackupEntry{Kind: "article", SavedAt: time.Now().UTC(), Record: a})

	if err := s.db.UpsertArticle(a); err != nil {
		return err
	}
	if s.remote != nil {
		if err := s.remote.Upsert(ctx, articlesTable, "article_url", a); err != nil {
			log.Printf("remote push failed for article %s: %v", a.ArticleURL, err)
		}
	}
	return nil
}

// SaveThreat archives a social post threat, keyed on its fingerprint.
func (s *Store) SaveThreat(ctx context.Context, t *database.ThreatRecord) error {
	s.ring.Append(BackupEntry{Kind: "threat", SavedAt: time.Now().UTC(), Record: t})

	if err := s.db.UpsertThreat(t); err != nil {
		return err
	}
	if s.remote != nil {
		if err := s.remote.Upsert(ctx, threatsTable, "tweet_hash", t); err != nil {
			log.Printf("remote push failed for threat %s: %v", t.TweetHash, err)
		}
	}
	return nil
}

// ExportBackup overwrites path with a JSON snapshot of the backup ring.
func (s *Store) ExportBackup(path string) error {
	return s.ring.WriteFile(path)
}

// Fingerprint derives the stable dedup key for a social post ID.
func Fingerprint(postID string) string {
	sum := sha256.Sum256([]byte(postID))
	return hex.EncodeToString(sum[:])[:16]
}
