package gamelog

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"

	"github.com/mathmaxd-max/tribunplay/internal/board"
)

// Store-level errors.
var (
	// ErrNoGame reports a game id with no stored snapshot.
	ErrNoGame = errors.New("gamelog: unknown game")
	// ErrPlyConflict reports an append that would overwrite a stored action.
	ErrPlyConflict = errors.New("gamelog: ply already recorded")
	// ErrPlyGap reports an append that would leave a hole in the log.
	ErrPlyGap = errors.New("gamelog: ply out of sequence")
)

// Key layout: snap/<gameID> holds the snapshot record, log/<gameID>/<ply>
// one 4-byte action each. The zero-padded ply keeps iteration ordered.
func snapKey(gameID string) []byte {
	return []byte("snap/" + gameID)
}

func logKey(gameID string, ply int) []byte {
	return []byte(fmt.Sprintf("log/%s/%08d", gameID, ply))
}

func logPrefix(gameID string) []byte {
	return []byte("log/" + gameID + "/")
}

// snapshotRecord is the stored form of a game's seed.
type snapshotRecord struct {
	Board string      `json:"board"`
	Turn  board.Color `json:"turn"`
}

// Store wraps BadgerDB with the append-only action-log schema.
type Store struct {
	db  *badger.DB
	log *zap.Logger
}

// Open opens (or creates) a store in dir. A nil logger disables logging.
func Open(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil // badger's own chatter goes nowhere

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open gamelog: %w", err)
	}
	logger.Info("gamelog opened", zap.String("dir", dir))
	return &Store{db: db, log: logger}, nil
}

// OpenDefault opens the store in the platform data directory.
func OpenDefault(logger *zap.Logger) (*Store, error) {
	dir, err := GetDatabaseDir()
	if err != nil {
		return nil, err
	}
	return Open(dir, logger)
}

// Close closes the database.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveSnapshot records the seed a game replays from. Saving over an
// existing game is rejected once actions are logged.
func (s *Store) SaveSnapshot(gameID string, sn board.Snapshot) error {
	data, err := json.Marshal(snapshotRecord{
		Board: board.PackBoard(sn.Board),
		Turn:  sn.Turn,
	})
	if err != nil {
		return err
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.IteratorOptions{Prefix: logPrefix(gameID)})
		defer it.Close()
		it.Rewind()
		if it.Valid() {
			return fmt.Errorf("%w: game %q already has actions", ErrPlyConflict, gameID)
		}
		return txn.Set(snapKey(gameID), data)
	})
	if err == nil {
		s.log.Info("snapshot saved", zap.String("game", gameID))
	}
	return err
}

// LoadSnapshot fetches a game's seed.
func (s *Store) LoadSnapshot(gameID string) (board.Snapshot, error) {
	var rec snapshotRecord
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(snapKey(gameID))
		if err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: %q", ErrNoGame, gameID)
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if err != nil {
		return board.Snapshot{}, err
	}
	b, err := board.UnpackBoard(rec.Board)
	if err != nil {
		return board.Snapshot{}, err
	}
	return board.Snapshot{Board: b, Turn: rec.Turn}, nil
}

// Append records the action applied at the given ply. The log is strictly
// append-only: an occupied ply is a conflict, a ply beyond the current tail
// is a gap, and both are rejected without touching the database.
func (s *Store) Append(gameID string, ply int, a board.Action) error {
	if ply < 0 {
		return fmt.Errorf("%w: ply %d", ErrPlyGap, ply)
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		if _, err := txn.Get(snapKey(gameID)); err == badger.ErrKeyNotFound {
			return fmt.Errorf("%w: %q", ErrNoGame, gameID)
		} else if err != nil {
			return err
		}
		if _, err := txn.Get(logKey(gameID, ply)); err == nil {
			return fmt.Errorf("%w: game %q ply %d", ErrPlyConflict, gameID, ply)
		} else if err != badger.ErrKeyNotFound {
			return err
		}
		if ply > 0 {
			if _, err := txn.Get(logKey(gameID, ply-1)); err == badger.ErrKeyNotFound {
				return fmt.Errorf("%w: game %q ply %d has no predecessor", ErrPlyGap, gameID, ply)
			} else if err != nil {
				return err
			}
		}
		b := a.Bytes()
		return txn.Set(logKey(gameID, ply), b[:])
	})
	if err == nil {
		s.log.Debug("action appended",
			zap.String("game", gameID), zap.Int("ply", ply), zap.Stringer("action", a))
	}
	return err
}

// Actions returns the recorded action sequence of a game in ply order.
func (s *Store) Actions(gameID string) ([]board.Action, error) {
	var out []board.Action
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = logPrefix(gameID)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				if len(val) != 4 {
					return fmt.Errorf("gamelog: corrupt action record %q", it.Item().Key())
				}
				var b [4]byte
				copy(b[:], val)
				out = append(out, board.ActionFromBytes(b))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return out, err
}

// Replay rebuilds the current position of a game from its snapshot and log.
func (s *Store) Replay(gameID string) (board.Position, error) {
	sn, err := s.LoadSnapshot(gameID)
	if err != nil {
		return board.Position{}, err
	}
	actions, err := s.Actions(gameID)
	if err != nil {
		return board.Position{}, err
	}
	pos, err := board.Replay(sn, actions)
	if err != nil {
		return board.Position{}, fmt.Errorf("game %q: %w", gameID, err)
	}
	return pos, nil
}
