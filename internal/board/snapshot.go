package board

import (
	"encoding/base64"
	"fmt"
)

// Snapshot is the transportable seed of a game: the packed board vector and
// the side that moves first.
type Snapshot struct {
	Board [NumCids]byte
	Turn  Color
}

// TakeSnapshot captures the position's board and side to move. Taking a
// snapshot of a mid-game position and replaying the remaining actions over
// it reproduces the terminal state.
func (p *Position) TakeSnapshot() Snapshot {
	return Snapshot{Board: p.Board, Turn: p.Turn}
}

// InitialSnapshot is the snapshot of the standard starting deployment.
func InitialSnapshot() Snapshot {
	p := InitialPosition()
	return p.TakeSnapshot()
}

// NewPosition validates a snapshot and builds the live state for it.
// Every byte must decode to a valid unit, off-board slots must be empty,
// and each side may field at most one tribun.
func NewPosition(sn Snapshot) (Position, error) {
	var tribuns [2]int
	for c := Cid(0); c < NumCids; c++ {
		b := sn.Board[c]
		if b == 0 {
			continue
		}
		if !cidValid[c] {
			return Position{}, fmt.Errorf("%w: unit on off-board id %d", ErrInvalidSnapshot, c)
		}
		u, err := ByteToUnit(b)
		if err != nil {
			return Position{}, fmt.Errorf("%w: tile %s: %v", ErrInvalidSnapshot, c, err)
		}
		if !u.SatisfiesSP() {
			return Position{}, fmt.Errorf("%w: tile %s violates the slave property", ErrInvalidSnapshot, c)
		}
		if u.Tribun {
			if u.S != 0 {
				return Position{}, fmt.Errorf("%w: tribun with slave on %s", ErrInvalidSnapshot, c)
			}
			tribuns[u.Color]++
		}
	}
	if tribuns[Black] > 1 || tribuns[White] > 1 {
		return Position{}, fmt.Errorf("%w: more than one tribun per color", ErrInvalidSnapshot)
	}
	if sn.Turn > White {
		return Position{}, fmt.Errorf("%w: starting turn %d", ErrInvalidSnapshot, sn.Turn)
	}
	return Position{
		Board:       sn.Board,
		Turn:        sn.Turn,
		DrawOfferBy: NoColor,
		Winner:      NoColor,
	}, nil
}

// PackBoard encodes the 121 raw board bytes for a textual envelope.
func PackBoard(b [NumCids]byte) string {
	return base64.StdEncoding.EncodeToString(b[:])
}

// UnpackBoard decodes the textual board form back into the byte vector.
func UnpackBoard(s string) ([NumCids]byte, error) {
	var out [NumCids]byte
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return out, fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if len(raw) != NumCids {
		return out, fmt.Errorf("%w: %d board bytes, want %d", ErrInvalidSnapshot, len(raw), NumCids)
	}
	copy(out[:], raw)
	return out, nil
}

// Replay folds Apply over a recorded action sequence, starting from the
// snapshot. Byte-identical inputs produce a byte-identical final state; the
// first illegal action aborts the fold with its ply in the error.
func Replay(sn Snapshot, actions []Action) (Position, error) {
	pos, err := NewPosition(sn)
	if err != nil {
		return Position{}, err
	}
	for i, a := range actions {
		pos, err = pos.Apply(a)
		if err != nil {
			return Position{}, fmt.Errorf("replay ply %d (%s): %w", i, a, err)
		}
	}
	return pos, nil
}
