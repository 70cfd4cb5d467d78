package board

import (
	"encoding/binary"
	"fmt"
	"strings"
)

// Action encodes one state transition as an unsigned 32-bit word,
// little-endian on the wire: bits 28-31 hold the opcode, bits 0-27 the
// opcode-specific payload, packed LSB-first. Reserved payload bits are zero
// on emission and rejected on decode.
type Action uint32

// Opcode discriminates the twelve action kinds. Values 12-15 are reserved.
type Opcode uint8

const (
	OpMove Opcode = iota
	OpKill
	OpLiberate
	OpDamage
	OpEnslave
	OpCombine
	OpSymCombine
	OpSplit
	OpBackstabb
	OpAttackTribun
	OpDraw
	OpEnd

	numOpcodes
)

var opcodeNames = [numOpcodes]string{
	"MOVE", "KILL", "LIBERATE", "DAMAGE", "ENSLAVE", "COMBINE",
	"SYM_COMBINE", "SPLIT", "BACKSTABB", "ATTACK_TRIBUN", "DRAW", "END",
}

// String returns the opcode mnemonic.
func (op Opcode) String() string {
	if op < numOpcodes {
		return opcodeNames[op]
	}
	return fmt.Sprintf("OP_%d", uint8(op))
}

// Op extracts the opcode of the word without validating the payload.
func (a Action) Op() Opcode {
	return Opcode(a >> 28)
}

// Bytes returns the 4-byte little-endian wire form of the action.
func (a Action) Bytes() [4]byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(a))
	return b
}

// ActionFromBytes parses the 4-byte little-endian wire form.
func ActionFromBytes(b [4]byte) Action {
	return Action(binary.LittleEndian.Uint32(b[:]))
}

// Draw verbs (the drawAction field of a DRAW word).
const (
	DrawOffer uint8 = iota
	DrawRetract
	DrawAccept
)

// End reasons (the endReason field of an END word). Only EndResign is ever
// produced by the generator; the remaining reasons are authority-emitted.
const (
	EndResign uint8 = iota
	EndNoLegalMoves
	EndTimeout
	EndTimeoutTie
)

// SYM_COMBINE configurations.
const (
	SymRing   uint8 = 0 // all six neighbors donate
	SymPlus   uint8 = 1 // donors at directions {0,4,5}
	SymMinus  uint8 = 2 // donors at directions {3,1,2}
	numConfig       = 3
)

// symDonorDirs lists the donor directions per configuration.
var symDonorDirs = [numConfig][]int{
	{0, 1, 2, 3, 4, 5},
	{0, 4, 5},
	{3, 1, 2},
}

// ActionData is the decoded, tagged form of an action word. Exactly one
// concrete struct exists per opcode so that switches over decoded actions
// are exhaustive.
type ActionData interface {
	Op() Opcode
}

// MoveData relocates a component to an empty tile. Part selects the pattern:
// 0 moves the primary alone, 1 moves the whole stack under the secondary
// pattern.
type MoveData struct {
	From Cid
	To   Cid
	Part uint8
}

// KillData removes the target and moves the attacker onto its tile.
type KillData struct {
	Attacker Cid
	Target   Cid
	Part     uint8
}

// LiberateData frees the slave of an overpowered enemy stack in place.
type LiberateData struct {
	Target Cid
}

// DamageData lowers the target's primary by a pre-baked effective amount.
type DamageData struct {
	Target    Cid
	Effective uint8 // 1..8
}

// EnslaveData captures the target's primary as the attacker's new slave on
// the target tile.
type EnslaveData struct {
	Attacker Cid
	Target   Cid
}

// CombineData merges donations from two adjacent donors onto an empty
// center tile.
type CombineData struct {
	Center  Cid
	DirA    uint8
	DirB    uint8
	DonateA uint8 // 1..8
	DonateB uint8 // 1..8
}

// SymCombineData merges equal donations from a symmetric donor ring onto an
// empty center tile.
type SymCombineData struct {
	Center Cid
	Config uint8
	Donate uint8 // 1..4 encodable; legality is narrower
}

// SplitData distributes the actor's primary over adjacent empty tiles.
// Alloc[d] is the height placed in direction d; 0 leaves the tile alone.
type SplitData struct {
	Actor Cid
	Alloc [NumDirs]uint8
}

// BackstabbData moves the whole primary to an adjacent empty tile,
// destroying the carried slave.
type BackstabbData struct {
	Actor Cid
	Dir   uint8
}

// AttackTribunData ends the game by striking the enemy tribun.
type AttackTribunData struct {
	Attacker Cid
	Tribun   Cid
	Winner   Color
}

// DrawData covers the offer/retract/accept lifecycle of a draw.
type DrawData struct {
	Verb  uint8
	Actor Color
}

// EndData terminates the game for an out-of-band reason.
type EndData struct {
	Reason uint8
	Loser  Color
}

// Op implementations for the tagged variants.
func (MoveData) Op() Opcode         { return OpMove }
func (KillData) Op() Opcode         { return OpKill }
func (LiberateData) Op() Opcode     { return OpLiberate }
func (DamageData) Op() Opcode       { return OpDamage }
func (EnslaveData) Op() Opcode      { return OpEnslave }
func (CombineData) Op() Opcode      { return OpCombine }
func (SymCombineData) Op() Opcode   { return OpSymCombine }
func (SplitData) Op() Opcode        { return OpSplit }
func (BackstabbData) Op() Opcode    { return OpBackstabb }
func (AttackTribunData) Op() Opcode { return OpAttackTribun }
func (DrawData) Op() Opcode         { return OpDraw }
func (EndData) Op() Opcode          { return OpEnd }

func word(op Opcode, payload uint32) Action {
	return Action(uint32(op)<<28 | payload)
}

func checkCid(c Cid) error {
	if !c.IsValid() {
		return fmt.Errorf("%w: %d", ErrInvalidCid, c)
	}
	return nil
}

func checkDir(d uint8) error {
	if d >= NumDirs {
		return fmt.Errorf("%w: direction %d", ErrEncodeRange, d)
	}
	return nil
}

// EncodeMove packs a MOVE action.
func EncodeMove(from, to Cid, part uint8) (Action, error) {
	if err := checkCid(from); err != nil {
		return 0, err
	}
	if err := checkCid(to); err != nil {
		return 0, err
	}
	if part > 1 {
		return 0, fmt.Errorf("%w: part %d", ErrEncodeRange, part)
	}
	return word(OpMove, uint32(from)|uint32(to)<<7|uint32(part)<<14), nil
}

// EncodeKill packs a KILL action.
func EncodeKill(attacker, target Cid, part uint8) (Action, error) {
	if err := checkCid(attacker); err != nil {
		return 0, err
	}
	if err := checkCid(target); err != nil {
		return 0, err
	}
	if part > 1 {
		return 0, fmt.Errorf("%w: part %d", ErrEncodeRange, part)
	}
	return word(OpKill, uint32(attacker)|uint32(target)<<7|uint32(part)<<14), nil
}

// EncodeLiberate packs a LIBERATE action.
func EncodeLiberate(target Cid) (Action, error) {
	if err := checkCid(target); err != nil {
		return 0, err
	}
	return word(OpLiberate, uint32(target)), nil
}

// EncodeDamage packs a DAMAGE action with the effective decrement (1..8).
func EncodeDamage(target Cid, effective uint8) (Action, error) {
	if err := checkCid(target); err != nil {
		return 0, err
	}
	if effective < 1 || effective > 8 {
		return 0, fmt.Errorf("%w: effective damage %d", ErrEncodeRange, effective)
	}
	return word(OpDamage, uint32(target)|uint32(effective-1)<<7), nil
}

// EncodeEnslave packs an ENSLAVE action.
func EncodeEnslave(attacker, target Cid) (Action, error) {
	if err := checkCid(attacker); err != nil {
		return 0, err
	}
	if err := checkCid(target); err != nil {
		return 0, err
	}
	return word(OpEnslave, uint32(attacker)|uint32(target)<<7), nil
}

// EncodeCombine packs a COMBINE action. Donations are 1..8.
func EncodeCombine(center Cid, dirA, dirB, donateA, donateB uint8) (Action, error) {
	if err := checkCid(center); err != nil {
		return 0, err
	}
	if err := checkDir(dirA); err != nil {
		return 0, err
	}
	if err := checkDir(dirB); err != nil {
		return 0, err
	}
	if donateA < 1 || donateA > 8 || donateB < 1 || donateB > 8 {
		return 0, fmt.Errorf("%w: donation %d/%d", ErrEncodeRange, donateA, donateB)
	}
	p := uint32(center) | uint32(dirA)<<7 | uint32(dirB)<<10 |
		uint32(donateA-1)<<13 | uint32(donateB-1)<<16
	return word(OpCombine, p), nil
}

// EncodeSymCombine packs a SYM_COMBINE action. Donate is 1..4 encodable.
func EncodeSymCombine(center Cid, config, donate uint8) (Action, error) {
	if err := checkCid(center); err != nil {
		return 0, err
	}
	if config >= numConfig {
		return 0, fmt.Errorf("%w: config %d", ErrEncodeRange, config)
	}
	if donate < 1 || donate > 4 {
		return 0, fmt.Errorf("%w: donation %d", ErrEncodeRange, donate)
	}
	return word(OpSymCombine, uint32(center)|uint32(config)<<7|uint32(donate-1)<<9), nil
}

// EncodeSplit packs a SPLIT action. Each allocation occupies a 3-bit slot;
// an allocation of 8 is unencodable and must be expressed as BACKSTABB.
func EncodeSplit(actor Cid, alloc [NumDirs]uint8) (Action, error) {
	if err := checkCid(actor); err != nil {
		return 0, err
	}
	p := uint32(actor)
	for d, h := range alloc {
		if h > 7 {
			return 0, fmt.Errorf("%w: split allocation %d in direction %d", ErrEncodeRange, h, d)
		}
		p |= uint32(h) << (7 + 3*d)
	}
	return word(OpSplit, p), nil
}

// EncodeBackstabb packs a BACKSTABB action.
func EncodeBackstabb(actor Cid, dir uint8) (Action, error) {
	if err := checkCid(actor); err != nil {
		return 0, err
	}
	if err := checkDir(dir); err != nil {
		return 0, err
	}
	return word(OpBackstabb, uint32(actor)|uint32(dir)<<7), nil
}

// EncodeAttackTribun packs the terminal ATTACK_TRIBUN action.
func EncodeAttackTribun(attacker, tribun Cid, winner Color) (Action, error) {
	if err := checkCid(attacker); err != nil {
		return 0, err
	}
	if err := checkCid(tribun); err != nil {
		return 0, err
	}
	if winner > White {
		return 0, fmt.Errorf("%w: winner color %d", ErrEncodeRange, winner)
	}
	return word(OpAttackTribun, uint32(attacker)|uint32(tribun)<<7|uint32(winner)<<14), nil
}

// EncodeDraw packs a DRAW action.
func EncodeDraw(verb uint8, actor Color) (Action, error) {
	if verb > DrawAccept {
		return 0, fmt.Errorf("%w: draw verb %d", ErrEncodeRange, verb)
	}
	if actor > White {
		return 0, fmt.Errorf("%w: actor color %d", ErrEncodeRange, actor)
	}
	return word(OpDraw, uint32(verb)|uint32(actor)<<2), nil
}

// EncodeEnd packs an END action.
func EncodeEnd(reason uint8, loser Color) (Action, error) {
	if reason > EndTimeoutTie {
		return 0, fmt.Errorf("%w: end reason %d", ErrEncodeRange, reason)
	}
	if loser > White {
		return 0, fmt.Errorf("%w: loser color %d", ErrEncodeRange, loser)
	}
	return word(OpEnd, uint32(reason)|uint32(loser)<<3), nil
}

// payloadWidth is the number of payload bits each opcode uses; everything
// above must be zero.
var payloadWidth = [numOpcodes]uint{
	OpMove:         15,
	OpKill:         15,
	OpLiberate:     7,
	OpDamage:       10,
	OpEnslave:      14,
	OpCombine:      19,
	OpSymCombine:   11,
	OpSplit:        25,
	OpBackstabb:    10,
	OpAttackTribun: 15,
	OpDraw:         3,
	OpEnd:          4,
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrUnknownOpcode}, args...)...)
}

func decodeCidField(v uint32) (Cid, error) {
	c := Cid(v & 0x7F)
	if !c.IsValid() {
		return NoCid, fmt.Errorf("%w: %d", ErrInvalidCid, c)
	}
	return c, nil
}

// DecodeAction unpacks an action word into its tagged variant. It rejects
// reserved opcodes, nonzero reserved bits and out-of-domain fields.
func DecodeAction(a Action) (ActionData, error) {
	op := a.Op()
	if op >= numOpcodes {
		return nil, fmt.Errorf("%w: %d", ErrUnknownOpcode, op)
	}
	p := uint32(a) & 0x0FFFFFFF
	if p>>payloadWidth[op] != 0 {
		return nil, malformed("nonzero reserved bits in %s word", op)
	}

	switch op {
	case OpMove, OpKill:
		from, err := decodeCidField(p)
		if err != nil {
			return nil, err
		}
		to, err := decodeCidField(p >> 7)
		if err != nil {
			return nil, err
		}
		part := uint8(p >> 14 & 1)
		if op == OpMove {
			return MoveData{From: from, To: to, Part: part}, nil
		}
		return KillData{Attacker: from, Target: to, Part: part}, nil

	case OpLiberate:
		t, err := decodeCidField(p)
		if err != nil {
			return nil, err
		}
		return LiberateData{Target: t}, nil

	case OpDamage:
		t, err := decodeCidField(p)
		if err != nil {
			return nil, err
		}
		return DamageData{Target: t, Effective: uint8(p>>7&7) + 1}, nil

	case OpEnslave:
		att, err := decodeCidField(p)
		if err != nil {
			return nil, err
		}
		t, err := decodeCidField(p >> 7)
		if err != nil {
			return nil, err
		}
		return EnslaveData{Attacker: att, Target: t}, nil

	case OpCombine:
		center, err := decodeCidField(p)
		if err != nil {
			return nil, err
		}
		dirA := uint8(p >> 7 & 7)
		dirB := uint8(p >> 10 & 7)
		if dirA >= NumDirs || dirB >= NumDirs {
			return nil, malformed("combine direction %d/%d", dirA, dirB)
		}
		return CombineData{
			Center:  center,
			DirA:    dirA,
			DirB:    dirB,
			DonateA: uint8(p>>13&7) + 1,
			DonateB: uint8(p>>16&7) + 1,
		}, nil

	case OpSymCombine:
		center, err := decodeCidField(p)
		if err != nil {
			return nil, err
		}
		config := uint8(p >> 7 & 3)
		if config >= numConfig {
			return nil, malformed("sym-combine config %d", config)
		}
		return SymCombineData{Center: center, Config: config, Donate: uint8(p>>9&3) + 1}, nil

	case OpSplit:
		actor, err := decodeCidField(p)
		if err != nil {
			return nil, err
		}
		var alloc [NumDirs]uint8
		for d := 0; d < NumDirs; d++ {
			alloc[d] = uint8(p >> (7 + 3*d) & 7)
		}
		return SplitData{Actor: actor, Alloc: alloc}, nil

	case OpBackstabb:
		actor, err := decodeCidField(p)
		if err != nil {
			return nil, err
		}
		dir := uint8(p >> 7 & 7)
		if dir >= NumDirs {
			return nil, malformed("backstabb direction %d", dir)
		}
		return BackstabbData{Actor: actor, Dir: dir}, nil

	case OpAttackTribun:
		att, err := decodeCidField(p)
		if err != nil {
			return nil, err
		}
		tr, err := decodeCidField(p >> 7)
		if err != nil {
			return nil, err
		}
		return AttackTribunData{Attacker: att, Tribun: tr, Winner: Color(p >> 14 & 1)}, nil

	case OpDraw:
		verb := uint8(p & 3)
		if verb > DrawAccept {
			return nil, malformed("draw verb %d", verb)
		}
		return DrawData{Verb: verb, Actor: Color(p >> 2 & 1)}, nil

	default: // OpEnd
		reason := uint8(p & 7)
		if reason > EndTimeoutTie {
			return nil, malformed("end reason %d", reason)
		}
		return EndData{Reason: reason, Loser: Color(p >> 3 & 1)}, nil
	}
}

// String renders the decoded action, e.g. "MOVE (0,0)->(1,1) part=0".
func (a Action) String() string {
	d, err := DecodeAction(a)
	if err != nil {
		return fmt.Sprintf("INVALID(0x%08x)", uint32(a))
	}
	switch v := d.(type) {
	case MoveData:
		return fmt.Sprintf("MOVE %s->%s part=%d", v.From, v.To, v.Part)
	case KillData:
		return fmt.Sprintf("KILL %s->%s part=%d", v.Attacker, v.Target, v.Part)
	case LiberateData:
		return fmt.Sprintf("LIBERATE %s", v.Target)
	case DamageData:
		return fmt.Sprintf("DAMAGE %s eff=%d", v.Target, v.Effective)
	case EnslaveData:
		return fmt.Sprintf("ENSLAVE %s->%s", v.Attacker, v.Target)
	case CombineData:
		return fmt.Sprintf("COMBINE %s dirs=%d,%d donate=%d,%d",
			v.Center, v.DirA, v.DirB, v.DonateA, v.DonateB)
	case SymCombineData:
		return fmt.Sprintf("SYM_COMBINE %s config=%d donate=%d", v.Center, v.Config, v.Donate)
	case SplitData:
		parts := make([]string, 0, NumDirs)
		for d, h := range v.Alloc {
			if h > 0 {
				parts = append(parts, fmt.Sprintf("%d:%d", d, h))
			}
		}
		return fmt.Sprintf("SPLIT %s [%s]", v.Actor, strings.Join(parts, " "))
	case BackstabbData:
		return fmt.Sprintf("BACKSTABB %s dir=%d", v.Actor, v.Dir)
	case AttackTribunData:
		return fmt.Sprintf("ATTACK_TRIBUN %s->%s winner=%s", v.Attacker, v.Tribun, v.Winner)
	case DrawData:
		verbs := [...]string{"offer", "retract", "accept"}
		return fmt.Sprintf("DRAW %s by %s", verbs[v.Verb], v.Actor)
	case EndData:
		reasons := [...]string{"resign", "no-legal-moves", "timeout", "timeout-tie"}
		return fmt.Sprintf("END %s loser=%s", reasons[v.Reason], v.Loser)
	}
	return fmt.Sprintf("ACTION(0x%08x)", uint32(a))
}
