// Package history stores a log of applied wallpaper changes in BadgerDB.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dixieflatline76/rngpaper/pkg/errkind"
	"github.com/dixieflatline76/rngpaper/util/log"
)

// keyPrefix prefixes every change record. Keys sort by time: change:<unix nanos, 20 digits>:<id>.
const keyPrefix = "change:"

// Entry is one applied wallpaper change.
type Entry struct {
	ID         string    `json:"id"`
	At         time.Time `json:"at"`
	Source     string    `json:"source"`
	Tag        string    `json:"tag"`
	ItemID     string    `json:"item_id"`
	RemotePath string    `json:"remote_path"`
	ShortURL   string    `json:"short_url,omitempty"`
	LocalPath  string    `json:"local_path"`
	Previous   string    `json:"previous,omitempty"`
}

// Store is a BadgerDB backed change log.
type Store struct {
	db *badger.DB
}

// Open opens (or creates) the store at dir.
func Open(dir string) (*Store, error) {
	return open(badger.DefaultOptions(dir))
}

// OpenInMemory opens a store that is never written to disk.
func OpenInMemory() (*Store, error) {
	return open(badger.DefaultOptions("").WithInMemory(true))
}

func open(opts badger.Options) (*Store, error) {
	opts.Logger = badgerLogger{}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open history db at %q: %v", errkind.ErrFilesystem, opts.Dir, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		log.Printf("Error closing history db: %v", err)
		return err
	}
	return nil
}

func entryKey(e Entry) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", keyPrefix, e.At.UnixNano(), e.ID))
}

// Record stores e. A zero At is set to now.
func (s *Store) Record(ctx context.Context, e Entry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.At.IsZero() {
		e.At = time.Now()
	}

	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(entryKey(e), value))
	})
	if err != nil {
		return fmt.Errorf("%w: failed to save history entry: %v", errkind.ErrFilesystem, err)
	}
	return nil
}

// Recent returns up to n entries, newest first. n <= 0 returns every entry.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	var entries []Entry

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = []byte(keyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		// Reverse iteration starts at the last key below the seek key.
		seek := append([]byte(keyPrefix), 0xFF)
		for it.Seek(seek); it.ValidForPrefix([]byte(keyPrefix)); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			err := item.Value(func(val []byte) error {
				var e Entry
				if err := json.Unmarshal(val, &e); err != nil {
					return fmt.Errorf("%w: history entry %s: %v", errkind.ErrDecode, item.Key(), err)
				}
				entries = append(entries, e)
				return nil
			})
			if err != nil {
				return err
			}
			if n > 0 && len(entries) >= n {
				return nil
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	return entries, nil
}

// badgerLogger routes badger's internal logging into util/log.
type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	log.Printf("badger ERROR: "+format, args...)
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	log.Printf("badger WARNING: "+format, args...)
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	log.Debugf("badger: "+format, args...)
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	log.Debugf("badger: "+format, args...)
}
