package board

import (
	"errors"
	"fmt"
)

// Codec-level errors. All errors in this package are plain values; the core
// never panics, logs or retries.
var (
	// ErrInvalidCid reports a coordinate or tile id outside the hex board.
	ErrInvalidCid = errors.New("invalid cid")
	// ErrEncodeRange reports an action field that does not fit its bit slot.
	ErrEncodeRange = errors.New("field out of encodable range")
	// ErrUnknownOpcode reports a reserved opcode or a malformed action word.
	ErrUnknownOpcode = errors.New("unknown opcode")
	// ErrInvalidUnit reports a unit byte that decodes to no valid unit.
	ErrInvalidUnit = errors.New("invalid unit byte")
	// ErrInvalidSnapshot reports a board snapshot violating the unit or
	// off-board-tile invariants.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// IllegalReason is the closed enumeration of ways a submitted action can
// fail the applier's preconditions.
type IllegalReason uint8

const (
	// GameEnded: the state is frozen; no action is legal.
	GameEnded IllegalReason = iota
	// WrongTurn: the acting color is not the side to move.
	WrongTurn
	// MalformedAction: the word does not decode to a known action.
	MalformedAction
	// EmptyTile: the origin or target tile holds no unit.
	EmptyTile
	// WrongColor: the origin is not owned, or the target is not an enemy.
	WrongColor
	// NoSecondary: part=1 was chosen but the unit carries no slave.
	NoSecondary
	// TargetOccupied: a destination that must be empty is not.
	TargetOccupied
	// Unreachable: the destination is not reachable under the chosen pattern.
	Unreachable
	// TribunMisuse: a tribun was targeted by KILL/DAMAGE/ENSLAVE, used as an
	// enslaver, split, or donated only part of its primary.
	TribunMisuse
	// InsufficientStrength: the aggregate attack strength is below the
	// target's primary height.
	InsufficientStrength
	// BadDamage: the baked effective decrement does not match the position.
	BadDamage
	// AlreadyEnslaved: ENSLAVE targeted a unit that already carries a slave.
	AlreadyEnslaved
	// NormalizationFailure: the computed post-state cannot satisfy the board
	// invariants.
	NormalizationFailure
	// BadDonor: a COMBINE donor is missing, not owned, or the donation is out
	// of range.
	BadDonor
	// DonorMismatch: SYM_COMBINE donors are absent, unequal, tribun, or the
	// donation exceeds what the configuration permits.
	DonorMismatch
	// BadPartition: a SPLIT partition is unbalanced, unencodable, or leaves
	// fewer than two owned tiles.
	BadPartition
	// NoSlave: the action needs a slave-carrying unit (BACKSTABB actor,
	// KILL or LIBERATE target) and none is present.
	NoSlave
	// NotCanonical: the action names a non-canonical participant (tribun
	// attack by other than the lowest-cid attacker, unordered COMBINE pair).
	NotCanonical
	// NoDrawOffer: retract or accept without a matching pending offer.
	NoDrawOffer
	// DrawPending: a second offer while one is already pending.
	DrawPending
	// BadEndReason: an END word the authority contract does not permit.
	BadEndReason
)

var illegalReasonNames = [...]string{
	"game ended",
	"wrong turn",
	"malformed action",
	"empty tile",
	"wrong color",
	"no secondary component",
	"target occupied",
	"unreachable",
	"tribun misuse",
	"insufficient strength",
	"bad damage value",
	"target already enslaved",
	"normalization failure",
	"bad donor",
	"donor mismatch",
	"bad partition",
	"no slave component",
	"non-canonical participant",
	"no pending draw offer",
	"draw offer already pending",
	"bad end reason",
}

// String returns the human-readable name of the reason.
func (r IllegalReason) String() string {
	if int(r) < len(illegalReasonNames) {
		return illegalReasonNames[r]
	}
	return fmt.Sprintf("illegal(%d)", uint8(r))
}

// IllegalError is returned by Apply when a submitted action fails its
// preconditions. The wrapped reason forms a closed enumeration so callers
// can switch exhaustively.
type IllegalError struct {
	Reason IllegalReason
}

// Error implements the error interface.
func (e *IllegalError) Error() string {
	return "illegal action: " + e.Reason.String()
}

func illegal(r IllegalReason) error {
	return &IllegalError{Reason: r}
}

// IsIllegal reports whether err is an IllegalError and, if so, its reason.
func IsIllegal(err error) (IllegalReason, bool) {
	var ie *IllegalError
	if errors.As(err, &ie) {
		return ie.Reason, true
	}
	return 0, false
}
