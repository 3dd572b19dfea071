package repository

import (
	"context"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/jfeo/artswipe/internal/domain/model"
	"github.com/jfeo/artswipe/pkg/logger"
)

// Key prefix for choice records in BadgerDB.
const choiceKeyPrefix = "choice:"

// BadgerStore implements Store with a write-through BadgerDB backend.
// Reads are served from an in-memory index rebuilt from disk at open time;
// writes go to Badger first and to the index only on success, so the index
// never gets ahead of the durable state.
type BadgerStore struct {
	db  *badger.DB
	mem *MemStore
	log logger.Logger
}

// OpenBadgerStore opens (or creates) a Badger-backed choice store at path.
func OpenBadgerStore(ctx context.Context, path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: open badger at %s: %w", ErrStorageIO, path, err)
	}

	s := &BadgerStore{
		db:  db,
		mem: NewMemStore(),
		log: logger.Get().Named("badgerstore"),
	}
	if err := s.loadIndex(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// loadIndex rebuilds the in-memory index from the durable records.
func (s *BadgerStore) loadIndex(ctx context.Context) error {
	choices := make(map[string]map[string]model.Choice)
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(choiceKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var c model.Choice
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &c)
			})
			if err != nil {
				return fmt.Errorf("%w: decode choice record: %w", ErrBadSnapshot, err)
			}
			if _, ok := choices[c.User]; !ok {
				choices[c.User] = make(map[string]model.Choice)
			}
			choices[c.User][c.ItemID] = c
		}
		return nil
	})
	if err != nil {
		return err
	}

	n := 0
	for _, items := range choices {
		n += len(items)
	}
	s.log.Info(ctx, "loaded choices from disk", logger.Int("choices", n), logger.Int("users", len(choices)))
	return s.mem.Restore(ctx, choices)
}

func choiceKey(user, itemID string) []byte {
	// User ids are UUIDs and contain no slashes, so "/" is a safe separator
	// even though item ids contain dashes.
	return []byte(choiceKeyPrefix + user + "/" + itemID)
}

// RecordChoice upserts a decision for (user, item), durably.
func (s *BadgerStore) RecordChoice(ctx context.Context, user, itemID string, decision bool) (bool, bool, error) {
	if user == "" || itemID == "" {
		return false, false, ErrEmptyKey
	}

	c := model.Choice{User: user, ItemID: itemID, Decision: decision, At: s.mem.now()}
	data, err := json.Marshal(c)
	if err != nil {
		return false, false, fmt.Errorf("%w: marshal choice: %w", ErrStorageIO, err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(choiceKey(user, itemID), data)
	})
	if err != nil {
		return false, false, fmt.Errorf("%w: write choice: %w", ErrStorageIO, err)
	}
	return s.mem.RecordChoice(ctx, user, itemID, decision)
}

// ChoicesOf returns the items a user has judged, mapped to decisions.
func (s *BadgerStore) ChoicesOf(ctx context.Context, user string) map[string]bool {
	return s.mem.ChoicesOf(ctx, user)
}

// ChoicesOn returns the users that judged an item, mapped to decisions.
func (s *BadgerStore) ChoicesOn(ctx context.Context, itemID string) map[string]bool {
	return s.mem.ChoicesOn(ctx, itemID)
}

// HasChoice reports whether (user, item) has a recorded decision.
func (s *BadgerStore) HasChoice(ctx context.Context, user, itemID string) bool {
	return s.mem.HasChoice(ctx, user, itemID)
}

// Users lists every user with at least one recorded choice.
func (s *BadgerStore) Users(ctx context.Context) []string {
	return s.mem.Users(ctx)
}

// Count returns the total number of recorded choices.
func (s *BadgerStore) Count(ctx context.Context) int {
	return s.mem.Count(ctx)
}

// Snapshot returns a deep copy of all choices keyed by user then item.
func (s *BadgerStore) Snapshot(ctx context.Context) map[string]map[string]model.Choice {
	return s.mem.Snapshot(ctx)
}

// Restore replaces the store contents, durably, with the given snapshot.
func (s *BadgerStore) Restore(ctx context.Context, choices map[string]map[string]model.Choice) error {
	// Validate against the index first so a bad snapshot never reaches disk.
	if err := s.mem.Restore(ctx, choices); err != nil {
		return err
	}
	if err := s.dropAll(); err != nil {
		return err
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for user, items := range choices {
		for itemID, c := range items {
			c.User, c.ItemID = user, itemID
			data, err := json.Marshal(c)
			if err != nil {
				return fmt.Errorf("%w: marshal choice: %w", ErrStorageIO, err)
			}
			if err := wb.Set(choiceKey(user, itemID), data); err != nil {
				return fmt.Errorf("%w: batch write: %w", ErrStorageIO, err)
			}
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("%w: flush restore batch: %w", ErrStorageIO, err)
	}
	return nil
}

// Clear removes every recorded choice, durably.
func (s *BadgerStore) Clear(ctx context.Context) error {
	if err := s.dropAll(); err != nil {
		return err
	}
	return s.mem.Clear(ctx)
}

func (s *BadgerStore) dropAll() error {
	err := s.db.DropPrefix([]byte(choiceKeyPrefix))
	if err != nil {
		return fmt.Errorf("%w: drop choices: %w", ErrStorageIO, err)
	}
	return nil
}

// Close flushes and closes the underlying database.
func (s *BadgerStore) Close() error {
	_ = s.mem.Close()
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("%w: close badger: %w", ErrStorageIO, err)
	}
	return nil
}
