package board

import "strings"

// Status tells whether a game still accepts actions.
type Status uint8

const (
	StatusActive Status = iota
	StatusEnded
)

// String returns the status name.
func (s Status) String() string {
	if s == StatusActive {
		return "active"
	}
	return "ended"
}

// Position is the complete game state. It is a value type: Apply returns a
// new Position and never aliases board storage across states.
//
// Board holds one packed unit byte per Cid; off-board ids inside [0, 120]
// stay zero. DrawOfferBy and Winner use NoColor for "none".
type Position struct {
	Board       [NumCids]byte
	Turn        Color
	Ply         int
	DrawOfferBy Color
	Status      Status
	Winner      Color
}

// unitAt reads the unit on tile c. The board is only ever mutated through
// validated units, so the byte cannot be malformed here.
func (p *Position) unitAt(c Cid) Unit {
	b := p.Board[c]
	if b == 0 {
		return Unit{}
	}
	u, _ := ByteToUnit(b)
	return u
}

// setUnit writes the unit on tile c.
func (p *Position) setUnit(c Cid, u Unit) {
	p.Board[c] = UnitToByte(u)
}

// UnitAt returns the unit on tile c, or an error for off-board ids.
func (p *Position) UnitAt(c Cid) (Unit, error) {
	if !c.IsValid() {
		return Unit{}, illegalCid(c)
	}
	return p.unitAt(c), nil
}

func illegalCid(c Cid) error {
	_, _, err := DecodeCid(c)
	return err
}

// IsEmptyTile reports whether the on-board tile c holds no unit.
func (p *Position) IsEmptyTile(c Cid) bool {
	return p.Board[c] == 0
}

// InitialPosition returns the standard starting deployment: each side
// fields a tribun with two height-2 stacks behind it and nine height-1
// soldiers on the two ranks facing the center. Black moves first.
func InitialPosition() Position {
	var p Position
	p.Turn = Black
	p.DrawOfferBy = NoColor
	p.Winner = NoColor

	place := func(x, y int, u Unit) {
		c, _ := EncodeCid(x, y)
		p.setUnit(c, u)
	}
	deploy := func(color Color, sign int) {
		place(sign*-4, sign*-4, Unit{Color: color, Tribun: true, P: 1})
		place(sign*-5, sign*-4, Unit{Color: color, P: 2})
		place(sign*-4, sign*-5, Unit{Color: color, P: 2})
		for x := -5; x <= 5; x++ {
			for _, sum := range [2]int{-6, -7} {
				y := sum - x
				if OnBoard(sign*x, sign*y) {
					place(sign*x, sign*y, Unit{Color: color, P: 1})
				}
			}
		}
	}
	deploy(Black, 1)
	deploy(White, -1)
	return p
}

// String renders the board row by row for diagnostics, highest y first,
// with the side to move and game status appended.
func (p Position) String() string {
	var sb strings.Builder
	for y := 5; y >= -5; y-- {
		for x := -5; x <= 5; x++ {
			if !OnBoard(x, y) {
				sb.WriteString("      ")
				continue
			}
			c, _ := EncodeCid(x, y)
			cell := p.unitAt(c).String()
			sb.WriteString(cell)
			for i := len(cell); i < 6; i++ {
				sb.WriteByte(' ')
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(p.Turn.String())
	sb.WriteString(" to move, ")
	sb.WriteString(p.Status.String())
	if p.Status == StatusEnded {
		sb.WriteString(", winner ")
		sb.WriteString(p.Winner.String())
	}
	if p.DrawOfferBy != NoColor {
		sb.WriteString(", draw offered by ")
		sb.WriteString(p.DrawOfferBy.String())
	}
	sb.WriteByte('\n')
	return sb.String()
}
