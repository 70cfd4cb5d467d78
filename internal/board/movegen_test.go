package board

import "testing"

// testPosition builds an active position from explicit unit placements.
func testPosition(t *testing.T, turn Color, units map[[2]int]Unit) Position {
	t.Helper()
	p := Position{Turn: turn, DrawOfferBy: NoColor, Winner: NoColor}
	for xy, u := range units {
		c, err := EncodeCid(xy[0], xy[1])
		if err != nil {
			t.Fatalf("placement (%d,%d): %v", xy[0], xy[1], err)
		}
		p.setUnit(c, u)
	}
	return p
}

func containsAction(actions []Action, a Action) bool {
	for _, v := range actions {
		if v == a {
			return true
		}
	}
	return false
}

func cidOf(t *testing.T, x, y int) Cid {
	t.Helper()
	c, err := EncodeCid(x, y)
	if err != nil {
		t.Fatalf("cid (%d,%d): %v", x, y, err)
	}
	return c
}

func TestGenerateSortedAndUnique(t *testing.T) {
	p := InitialPosition()
	acts := p.LegalActions()
	if len(acts) == 0 {
		t.Fatal("initial position has no legal actions")
	}
	for i := 1; i < len(acts); i++ {
		if acts[i] <= acts[i-1] {
			t.Fatalf("actions not strictly ascending at %d: 0x%08x then 0x%08x",
				i, uint32(acts[i-1]), uint32(acts[i]))
		}
	}
}

func TestGenerateEndedGame(t *testing.T) {
	p := InitialPosition()
	p.Status = StatusEnded
	p.Winner = White
	if acts := p.LegalActions(); len(acts) != 0 {
		t.Errorf("ended game generated %d actions", len(acts))
	}
}

// Two lone tribuns: the attacker sees five empty neighbors and the enemy
// tribun next door.
func TestGenerateTribunDuel(t *testing.T) {
	p := testPosition(t, Black, map[[2]int]Unit{
		{0, 0}: {Color: Black, Tribun: true, P: 1},
		{1, 1}: {Color: White, Tribun: true, P: 1},
	})
	origin := cidOf(t, 0, 0)
	target := cidOf(t, 1, 1)
	acts := p.LegalActions()

	moves := 0
	for d := 0; d < NumDirs; d++ {
		n, ok := NeighborCid(origin, d)
		if !ok || n == target {
			continue
		}
		moves++
		if a := must(t, func() (Action, error) { return EncodeMove(origin, n, 0) }); !containsAction(acts, a) {
			t.Errorf("missing %s", a)
		}
	}
	if moves != 5 {
		t.Fatalf("expected 5 empty neighbors, found %d", moves)
	}

	attack := must(t, func() (Action, error) { return EncodeAttackTribun(origin, target, Black) })
	if !containsAction(acts, attack) {
		t.Fatalf("missing %s", attack)
	}
	next, err := p.Apply(attack)
	if err != nil {
		t.Fatalf("apply tribun attack: %v", err)
	}
	if next.Status != StatusEnded || next.Winner != Black {
		t.Errorf("after tribun attack: status %v winner %v", next.Status, next.Winner)
	}
	if len(next.LegalActions()) != 0 {
		t.Error("ended game still generates actions")
	}
}

// A slave carrier hemmed in on all but one side sheds the slave with
// BACKSTABB; no SPLIT can move the stack.
func TestGenerateBackstabbNotSplit(t *testing.T) {
	p := testPosition(t, Black, map[[2]int]Unit{
		{5, 5}: {Color: Black, P: 4, S: 8},
		{4, 5}: {Color: Black, P: 1},
		{5, 4}: {Color: Black, P: 1},
	})
	origin := cidOf(t, 5, 5)
	gap := cidOf(t, 4, 4)
	acts := p.LegalActions()

	dir := DirBetween(origin, gap)
	if dir < 0 {
		t.Fatal("gap tile not adjacent")
	}
	if a := must(t, func() (Action, error) { return EncodeBackstabb(origin, uint8(dir)) }); !containsAction(acts, a) {
		t.Errorf("missing %s", a)
	}
	for _, a := range acts {
		d, err := DecodeAction(a)
		if err != nil {
			t.Fatalf("generated undecodable action 0x%08x", uint32(a))
		}
		if s, ok := d.(SplitData); ok && s.Actor == origin {
			t.Errorf("unexpected %s", a)
		}
	}
}

// Equal height-2 donors on the sym3+ triangle.
func TestGenerateSymCombine(t *testing.T) {
	p := testPosition(t, Black, map[[2]int]Unit{
		{1, 1}:  {Color: Black, P: 2}, // direction 0
		{-1, 0}: {Color: Black, P: 2}, // direction 4
		{0, -1}: {Color: Black, P: 2}, // direction 5
	})
	center := cidOf(t, 0, 0)
	acts := p.LegalActions()

	for donate := uint8(1); donate <= 2; donate++ {
		if a := must(t, func() (Action, error) { return EncodeSymCombine(center, SymPlus, donate) }); !containsAction(acts, a) {
			t.Errorf("missing %s", a)
		}
	}
	if a := must(t, func() (Action, error) { return EncodeSymCombine(center, SymMinus, 1) }); containsAction(acts, a) {
		t.Errorf("unexpected %s: the sym3- donors are absent", a)
	}

	next, err := p.Apply(must(t, func() (Action, error) { return EncodeSymCombine(center, SymPlus, 2) }))
	if err != nil {
		t.Fatalf("apply sym combine: %v", err)
	}
	if got := next.unitAt(center); got != (Unit{Color: Black, P: 6}) {
		t.Errorf("center = %v, want b6", got)
	}
	for _, d := range symDonorDirs[SymPlus] {
		n, _ := NeighborCid(center, d)
		if !next.IsEmptyTile(n) {
			t.Errorf("donor at direction %d not emptied: %v", d, next.unitAt(n))
		}
	}
	if next.Turn != White {
		t.Errorf("turn = %v, want White", next.Turn)
	}
}

// An understrength attack bakes a single DAMAGE with the post-rounding
// decrement.
func TestGenerateDamage(t *testing.T) {
	p := testPosition(t, Black, map[[2]int]Unit{
		{1, 0}: {Color: Black, P: 2},
		{2, 2}: {Color: White, P: 3},
	})
	target := cidOf(t, 2, 2)
	acts := p.LegalActions()

	want := must(t, func() (Action, error) { return EncodeDamage(target, 2) })
	if !containsAction(acts, want) {
		t.Fatalf("missing %s", want)
	}
	for _, a := range acts {
		if a.Op() == OpDamage && a != want {
			t.Errorf("unexpected extra damage action %s", a)
		}
		if a.Op() == OpKill || a.Op() == OpEnslave {
			t.Errorf("understrength attack generated %s", a)
		}
	}
}

func TestGenerateDrawLifecycle(t *testing.T) {
	p := InitialPosition()
	acts := p.LegalActions()

	offer := must(t, func() (Action, error) { return EncodeDraw(DrawOffer, Black) })
	if !containsAction(acts, offer) {
		t.Fatal("missing draw offer for the side to move")
	}
	if containsAction(acts, must(t, func() (Action, error) { return EncodeDraw(DrawAccept, White) })) {
		t.Error("accept generated with no pending offer")
	}
	if containsAction(acts, must(t, func() (Action, error) { return EncodeDraw(DrawRetract, Black) })) {
		t.Error("retract generated with no pending offer")
	}

	next, err := p.Apply(offer)
	if err != nil {
		t.Fatalf("apply offer: %v", err)
	}
	acts = next.LegalActions()
	if !containsAction(acts, must(t, func() (Action, error) { return EncodeDraw(DrawRetract, Black) })) {
		t.Error("missing retract for the offering side")
	}
	if !containsAction(acts, must(t, func() (Action, error) { return EncodeDraw(DrawAccept, White) })) {
		t.Error("missing accept for the opponent")
	}
	if containsAction(acts, must(t, func() (Action, error) { return EncodeDraw(DrawOffer, Black) })) ||
		containsAction(acts, must(t, func() (Action, error) { return EncodeDraw(DrawOffer, White) })) {
		t.Error("second offer generated while one is pending")
	}
}

func TestGenerateResignOnly(t *testing.T) {
	p := InitialPosition()
	acts := p.LegalActions()
	if !containsAction(acts, must(t, func() (Action, error) { return EncodeEnd(EndResign, Black) })) {
		t.Error("missing resign for the side to move")
	}
	for _, a := range acts {
		if a.Op() != OpEnd {
			continue
		}
		d, _ := DecodeAction(a)
		if e := d.(EndData); e.Reason != EndResign {
			t.Errorf("generator emitted authority END action %s", a)
		}
	}
}

func TestZobristHash(t *testing.T) {
	a := InitialPosition()
	b := InitialPosition()
	if a.ZobristHash() != b.ZobristHash() {
		t.Fatal("identical positions hash differently")
	}
	b.Ply = 40
	if a.ZobristHash() != b.ZobristHash() {
		t.Error("ply must not affect the hash")
	}
	b.Turn = White
	if a.ZobristHash() == b.ZobristHash() {
		t.Error("turn must affect the hash")
	}
	b.Turn = Black
	b.DrawOfferBy = Black
	if a.ZobristHash() == b.ZobristHash() {
		t.Error("pending draw offer must affect the hash")
	}
}
