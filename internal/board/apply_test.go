package board

import "testing"

// checkInvariants asserts the structural board invariants of a state.
func checkInvariants(t *testing.T, p Position) {
	t.Helper()
	var tribuns [2]int
	for c := Cid(0); c < NumCids; c++ {
		b := p.Board[c]
		if b == 0 {
			continue
		}
		if !cidValid[c] {
			t.Fatalf("unit on off-board id %d", c)
		}
		u, err := ByteToUnit(b)
		if err != nil {
			t.Fatalf("tile %s: %v", c, err)
		}
		if !IsValidHeight(u.P) || !IsValidHeight(u.S) {
			t.Fatalf("tile %s: invalid stored heights %v", c, u)
		}
		if !u.SatisfiesSP() {
			t.Fatalf("tile %s: slave property violated: %v", c, u)
		}
		if u.Tribun {
			tribuns[u.Color]++
			if u.P == 0 || u.S != 0 {
				t.Fatalf("tile %s: malformed tribun %v", c, u)
			}
		}
	}
	if tribuns[Black] > 1 || tribuns[White] > 1 {
		t.Fatalf("duplicate tribun: %v", tribuns)
	}
}

func expectIllegal(t *testing.T, err error, want IllegalReason) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected illegal(%v), got success", want)
	}
	reason, ok := IsIllegal(err)
	if !ok {
		t.Fatalf("expected IllegalError, got %v", err)
	}
	if reason != want {
		t.Fatalf("reason = %v, want %v", reason, want)
	}
}

// Moving the primary away liberates the slave left at the origin.
func TestApplyMoveLiberatesOrigin(t *testing.T) {
	p := testPosition(t, Black, map[[2]int]Unit{
		{0, 0}: {Color: Black, P: 4, S: 2},
	})
	origin := cidOf(t, 0, 0)
	dest := cidOf(t, 1, 2) // one step along a height-4 ray

	a := must(t, func() (Action, error) { return EncodeMove(origin, dest, 0) })
	if !containsAction(p.LegalActions(), a) {
		t.Fatalf("%s not generated", a)
	}
	next, err := p.Apply(a)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := next.unitAt(dest); got != (Unit{Color: Black, P: 4}) {
		t.Errorf("destination = %v, want b4", got)
	}
	if got := next.unitAt(origin); got != (Unit{Color: White, P: 2}) {
		t.Errorf("origin = %v, want liberated w2", got)
	}
	if next.Turn != White || next.Ply != 1 {
		t.Errorf("bookkeeping: turn %v ply %d", next.Turn, next.Ply)
	}
	checkInvariants(t, next)
}

// DAMAGE applies the pre-baked decrement and nothing else.
func TestApplyDamagePreBaked(t *testing.T) {
	p := testPosition(t, Black, map[[2]int]Unit{
		{1, 0}: {Color: Black, P: 2},
		{2, 2}: {Color: White, P: 3},
	})
	target := cidOf(t, 2, 2)

	next, err := p.Apply(must(t, func() (Action, error) { return EncodeDamage(target, 2) }))
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := next.unitAt(target); got != (Unit{Color: White, P: 1}) {
		t.Errorf("target = %v, want w1", got)
	}

	// A tampered effective value is rejected.
	_, err = p.Apply(must(t, func() (Action, error) { return EncodeDamage(target, 3) }))
	expectIllegal(t, err, BadDamage)
}

// Bond-breaking damage removes the primary outright and frees the slave.
func TestApplyDamageBreaksSlaveBond(t *testing.T) {
	p := testPosition(t, Black, map[[2]int]Unit{
		{1, 2}: {Color: Black, P: 1},
		{2, 2}: {Color: White, P: 2, S: 4},
	})
	target := cidOf(t, 2, 2)
	attacker := cidOf(t, 1, 2)

	// Strength 1 against p=2 would leave p=1 with 2*1 < s=4: the generator
	// bakes a full decrement instead.
	if !p.attacksTile(attacker, 1, false, Black, target) {
		t.Fatal("attacker does not reach the target")
	}
	a := must(t, func() (Action, error) { return EncodeDamage(target, 2) })
	if !containsAction(p.LegalActions(), a) {
		t.Fatalf("%s not generated", a)
	}
	next, err := p.Apply(a)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := next.unitAt(target); got != (Unit{Color: Black, P: 4}) {
		t.Errorf("target = %v, want liberated b4", got)
	}
	checkInvariants(t, next)
}

// The draw lifecycle, including the turn standing still on offers.
func TestApplyDrawLifecycle(t *testing.T) {
	p := InitialPosition()

	offered, err := p.Apply(must(t, func() (Action, error) { return EncodeDraw(DrawOffer, Black) }))
	if err != nil {
		t.Fatalf("offer: %v", err)
	}
	if offered.DrawOfferBy != Black {
		t.Fatalf("drawOfferBy = %v, want Black", offered.DrawOfferBy)
	}
	if offered.Turn != Black {
		t.Error("offer must not pass the turn")
	}
	if offered.Ply != 1 {
		t.Errorf("ply = %d, want 1", offered.Ply)
	}

	t.Run("accept ends without winner", func(t *testing.T) {
		done, err := offered.Apply(must(t, func() (Action, error) { return EncodeDraw(DrawAccept, White) }))
		if err != nil {
			t.Fatalf("accept: %v", err)
		}
		if done.Status != StatusEnded || done.Winner != NoColor {
			t.Errorf("status %v winner %v", done.Status, done.Winner)
		}
	})

	t.Run("retract by wrong color is illegal", func(t *testing.T) {
		_, err := offered.Apply(must(t, func() (Action, error) { return EncodeDraw(DrawRetract, White) }))
		expectIllegal(t, err, NoDrawOffer)
	})

	t.Run("retract clears the offer", func(t *testing.T) {
		cleared, err := offered.Apply(must(t, func() (Action, error) { return EncodeDraw(DrawRetract, Black) }))
		if err != nil {
			t.Fatalf("retract: %v", err)
		}
		if cleared.DrawOfferBy != NoColor {
			t.Errorf("drawOfferBy = %v, want none", cleared.DrawOfferBy)
		}
	})

	t.Run("board action consumes the offer", func(t *testing.T) {
		var move Action
		for _, a := range offered.LegalActions() {
			if a.Op() == OpMove {
				move = a
				break
			}
		}
		if move == 0 {
			t.Fatal("no move available")
		}
		next, err := offered.Apply(move)
		if err != nil {
			t.Fatalf("move: %v", err)
		}
		if next.DrawOfferBy != NoColor {
			t.Error("pending offer must not survive a board action")
		}
	})
}

func TestApplyEnslave(t *testing.T) {
	p := testPosition(t, Black, map[[2]int]Unit{
		{1, 0}: {Color: Black, P: 2},
		{2, 2}: {Color: White, P: 2},
	})
	attacker := cidOf(t, 1, 0)
	target := cidOf(t, 2, 2)

	a := must(t, func() (Action, error) { return EncodeEnslave(attacker, target) })
	if !containsAction(p.LegalActions(), a) {
		t.Fatalf("%s not generated", a)
	}
	next, err := p.Apply(a)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := next.unitAt(target); got != (Unit{Color: Black, P: 2, S: 2}) {
		t.Errorf("target = %v, want b2/2", got)
	}
	if !next.IsEmptyTile(attacker) {
		t.Errorf("attacker origin not emptied: %v", next.unitAt(attacker))
	}
	checkInvariants(t, next)
}

func TestApplyKillRequiresSlaveTarget(t *testing.T) {
	p := testPosition(t, Black, map[[2]int]Unit{
		{1, 0}: {Color: Black, P: 3},
		{2, 2}: {Color: White, P: 2},
	})
	_, err := p.Apply(must(t, func() (Action, error) { return EncodeKill(cidOf(t, 1, 0), cidOf(t, 2, 2), 0) }))
	expectIllegal(t, err, NoSlave)
}

func TestApplyKillAndLiberate(t *testing.T) {
	p := testPosition(t, Black, map[[2]int]Unit{
		{1, 0}: {Color: Black, P: 4},
		{2, 2}: {Color: White, P: 2, S: 3},
	})
	attacker := cidOf(t, 1, 0)
	target := cidOf(t, 2, 2)
	acts := p.LegalActions()

	kill := must(t, func() (Action, error) { return EncodeKill(attacker, target, 0) })
	lib := must(t, func() (Action, error) { return EncodeLiberate(target) })
	if !containsAction(acts, kill) || !containsAction(acts, lib) {
		t.Fatalf("missing %s or %s", kill, lib)
	}

	t.Run("kill replaces the whole stack", func(t *testing.T) {
		next, err := p.Apply(kill)
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		if got := next.unitAt(target); got != (Unit{Color: Black, P: 4}) {
			t.Errorf("target = %v, want b4", got)
		}
		if !next.IsEmptyTile(attacker) {
			t.Error("attacker origin should be empty")
		}
		checkInvariants(t, next)
	})

	t.Run("liberate frees the slave in place", func(t *testing.T) {
		next, err := p.Apply(lib)
		if err != nil {
			t.Fatalf("apply: %v", err)
		}
		if got := next.unitAt(target); got != (Unit{Color: Black, P: 3}) {
			t.Errorf("target = %v, want freed b3", got)
		}
		if got := next.unitAt(attacker); got != (Unit{Color: Black, P: 4}) {
			t.Errorf("attacker moved on liberate: %v", got)
		}
		checkInvariants(t, next)
	})
}

func TestApplyTerminalClosure(t *testing.T) {
	p := InitialPosition()
	done, err := p.Apply(must(t, func() (Action, error) { return EncodeEnd(EndResign, Black) }))
	if err != nil {
		t.Fatalf("resign: %v", err)
	}
	if done.Status != StatusEnded || done.Winner != White {
		t.Fatalf("status %v winner %v", done.Status, done.Winner)
	}
	for _, a := range p.LegalActions() {
		_, err := done.Apply(a)
		expectIllegal(t, err, GameEnded)
	}
	// Even junk words report the frozen state first.
	_, err = done.Apply(Action(0xFFFFFFFF))
	expectIllegal(t, err, GameEnded)
}

func TestApplyAuthorityEnd(t *testing.T) {
	p := InitialPosition()

	cases := []struct {
		name   string
		reason uint8
		loser  Color
		winner Color
	}{
		{"timeout", EndTimeout, White, Black},
		{"no legal moves", EndNoLegalMoves, Black, White},
		{"timeout tie", EndTimeoutTie, Black, NoColor},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, err := p.Apply(must(t, func() (Action, error) { return EncodeEnd(tc.reason, tc.loser) }))
			if err != nil {
				t.Fatalf("apply: %v", err)
			}
			if next.Status != StatusEnded || next.Winner != tc.winner {
				t.Errorf("status %v winner %v, want ended/%v", next.Status, next.Winner, tc.winner)
			}
		})
	}

	t.Run("resign by the idle side", func(t *testing.T) {
		_, err := p.Apply(must(t, func() (Action, error) { return EncodeEnd(EndResign, White) }))
		expectIllegal(t, err, WrongTurn)
	})
}

// Every generated action applies cleanly and preserves the invariants;
// words outside the generated set are rejected. Authority END words are the
// documented exception and are skipped by the sample.
func TestGenerateApplyAgreement(t *testing.T) {
	p := InitialPosition()

	for ply := 0; ply < 24 && p.Status == StatusActive; ply++ {
		acts := p.LegalActions()
		if len(acts) == 0 {
			t.Fatal("active position generated no actions")
		}
		for _, a := range acts {
			next, err := p.Apply(a)
			if err != nil {
				t.Fatalf("ply %d: generated action %s rejected: %v", ply, a, err)
			}
			checkInvariants(t, next)
		}

		rng := newPRNG(uint64(ply)*0x9E3779B97F4A7C15 + 1)
		for i := 0; i < 400; i++ {
			w := Action(rng.next())
			if w.Op() == OpEnd {
				continue
			}
			legal := containsAction(acts, w)
			_, err := p.Apply(w)
			if legal && err != nil {
				t.Fatalf("ply %d: legal word 0x%08x rejected: %v", ply, uint32(w), err)
			}
			if !legal && err == nil {
				t.Fatalf("ply %d: word 0x%08x outside the legal set applied", ply, uint32(w))
			}
		}

		// Walk a deterministic non-terminal line to vary the positions.
		progressed := false
		for _, a := range acts {
			if op := a.Op(); op == OpMove || op == OpKill || op == OpEnslave ||
				op == OpCombine || op == OpSplit {
				p, _ = p.Apply(a)
				progressed = true
				break
			}
		}
		if !progressed {
			break
		}
	}
}
