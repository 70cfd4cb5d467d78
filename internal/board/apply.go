package board

// Apply validates one action against the position and returns the successor
// state. It is pure: the receiver is copied, never mutated. Every
// precondition the generator honors is re-checked here, so the applier is a
// safe backstop for actions arriving from untrusted clients.
func (p Position) Apply(a Action) (Position, error) {
	if p.Status != StatusActive {
		return p, illegal(GameEnded)
	}
	data, err := DecodeAction(a)
	if err != nil {
		return p, illegal(MalformedAction)
	}

	next := p
	us := p.Turn
	terminal := false

	switch v := data.(type) {
	case MoveData:
		if err := next.applyMove(v, us); err != nil {
			return p, err
		}

	case KillData:
		if err := next.applyKill(v, us); err != nil {
			return p, err
		}

	case LiberateData:
		if err := next.applyLiberate(v, us); err != nil {
			return p, err
		}

	case DamageData:
		if err := next.applyDamage(v, us); err != nil {
			return p, err
		}

	case EnslaveData:
		if err := next.applyEnslave(v, us); err != nil {
			return p, err
		}

	case CombineData:
		if err := next.applyCombine(v, us); err != nil {
			return p, err
		}

	case SymCombineData:
		if err := next.applySymCombine(v, us); err != nil {
			return p, err
		}

	case SplitData:
		if err := next.applySplit(v, us); err != nil {
			return p, err
		}

	case BackstabbData:
		if err := next.applyBackstabb(v, us); err != nil {
			return p, err
		}

	case AttackTribunData:
		if err := next.applyAttackTribun(v, us); err != nil {
			return p, err
		}
		terminal = true

	case DrawData:
		t, err := next.applyDraw(v, us)
		if err != nil {
			return p, err
		}
		terminal = t
		next.Ply++
		if terminal {
			next.DrawOfferBy = NoColor
		}
		return next, nil

	case EndData:
		if err := next.applyEnd(v, us); err != nil {
			return p, err
		}
		terminal = true
	}

	// A non-draw action consumes any pending draw offer; the turn passes
	// only while the game is still running.
	next.Ply++
	next.DrawOfferBy = NoColor
	if !terminal {
		next.Turn = us.Other()
	}
	return next, nil
}

// ownedUnit fetches the unit on c and checks it belongs to the side to move.
func (p *Position) ownedUnit(c Cid, us Color) (Unit, error) {
	if p.IsEmptyTile(c) {
		return Unit{}, illegal(EmptyTile)
	}
	u := p.unitAt(c)
	if u.Color != us {
		return Unit{}, illegal(WrongColor)
	}
	return u, nil
}

// enemyUnit fetches the unit on c and checks it belongs to the opponent.
func (p *Position) enemyUnit(c Cid, us Color) (Unit, error) {
	if p.IsEmptyTile(c) {
		return Unit{}, illegal(EmptyTile)
	}
	u := p.unitAt(c)
	if u.Color == us {
		return Unit{}, illegal(WrongColor)
	}
	return u, nil
}

// partHeight resolves the pattern height for the chosen part bit.
func partHeight(u Unit, part uint8) (h uint8, tribun bool, err error) {
	if part == 1 {
		if u.S == 0 {
			return 0, false, illegal(NoSecondary)
		}
		return u.S, false, nil
	}
	return u.P, u.Tribun, nil
}

// removePrimary strips the primary component and the tribun flag from the
// tile; a slave left behind is liberated by normalization.
func (p *Position) removePrimary(c Cid) {
	u := p.unitAt(c)
	u.P = 0
	u.Tribun = false
	p.setUnit(c, Normalize(u))
}

// relocate lands the moving component on an empty destination tile: part 0
// carries the primary and tribun flag alone, part 1 the whole stack.
func (p *Position) relocate(from, to Cid, u Unit, part uint8) {
	if part == 1 {
		p.setUnit(to, u)
		p.setUnit(from, Unit{})
		return
	}
	p.setUnit(to, Unit{Color: u.Color, Tribun: u.Tribun, P: u.P})
	p.removePrimary(from)
}

func (p *Position) applyMove(v MoveData, us Color) error {
	u, err := p.ownedUnit(v.From, us)
	if err != nil {
		return err
	}
	h, tribun, err := partHeight(u, v.Part)
	if err != nil {
		return err
	}
	if !p.IsEmptyTile(v.To) {
		return illegal(TargetOccupied)
	}
	if !containsCid(p.moveDests(v.From, h, tribun, us), v.To) {
		return illegal(Unreachable)
	}
	p.relocate(v.From, v.To, u, v.Part)
	return nil
}

func (p *Position) applyKill(v KillData, us Color) error {
	att, err := p.ownedUnit(v.Attacker, us)
	if err != nil {
		return err
	}
	target, err := p.enemyUnit(v.Target, us)
	if err != nil {
		return err
	}
	if target.Tribun {
		return illegal(TribunMisuse)
	}
	if target.S == 0 {
		return illegal(NoSlave) // an unenslaved target is taken by ENSLAVE
	}
	h, tribun, err := partHeight(att, v.Part)
	if err != nil {
		return err
	}
	if !p.attacksTile(v.Attacker, h, tribun, us, v.Target) {
		return illegal(Unreachable)
	}
	if aggregateStrength(p.attackersOn(v.Target, us)) < int(target.P) {
		return illegal(InsufficientStrength)
	}
	p.setUnit(v.Target, Unit{})
	p.relocate(v.Attacker, v.Target, att, v.Part)
	return nil
}

func (p *Position) applyLiberate(v LiberateData, us Color) error {
	target, err := p.enemyUnit(v.Target, us)
	if err != nil {
		return err
	}
	if target.S == 0 {
		return illegal(NoSlave)
	}
	if aggregateStrength(p.attackersOn(v.Target, us)) < int(target.P) {
		return illegal(InsufficientStrength)
	}
	p.setUnit(v.Target, Normalize(Unit{Color: target.Color.Other(), P: target.S}))
	return nil
}

func (p *Position) applyDamage(v DamageData, us Color) error {
	target, err := p.enemyUnit(v.Target, us)
	if err != nil {
		return err
	}
	if target.Tribun {
		return illegal(TribunMisuse)
	}
	s := aggregateStrength(p.attackersOn(v.Target, us))
	if s == 0 || s >= int(target.P) {
		return illegal(BadDamage)
	}
	if v.Effective != bakedDamage(target, s) {
		return illegal(BadDamage)
	}
	// The effective decrement is pre-baked: no further height rounding.
	target.P -= v.Effective
	if target.P == 0 {
		// Bond-breaking damage removed the whole primary; the freed slave
		// changes sides.
		target = Unit{Color: target.Color.Other(), P: target.S}
	}
	p.setUnit(v.Target, target)
	return nil
}

func (p *Position) applyEnslave(v EnslaveData, us Color) error {
	att, err := p.ownedUnit(v.Attacker, us)
	if err != nil {
		return err
	}
	target, err := p.enemyUnit(v.Target, us)
	if err != nil {
		return err
	}
	if target.Tribun || att.Tribun {
		return illegal(TribunMisuse)
	}
	if target.S != 0 {
		return illegal(AlreadyEnslaved)
	}
	if !p.attacksTile(v.Attacker, att.P, false, us, v.Target) {
		return illegal(Unreachable)
	}
	if aggregateStrength(p.attackersOn(v.Target, us)) < int(target.P) {
		return illegal(InsufficientStrength)
	}
	enslaved := Normalize(Unit{Color: us, P: att.P, S: target.P})
	if enslaved.P == 0 || enslaved.Color != us {
		return illegal(NormalizationFailure)
	}
	p.setUnit(v.Target, enslaved)
	p.removePrimary(v.Attacker)
	return nil
}

func (p *Position) applyCombine(v CombineData, us Color) error {
	if !p.IsEmptyTile(v.Center) {
		return illegal(TargetOccupied)
	}
	if v.DirA >= v.DirB {
		return illegal(NotCanonical)
	}
	na, okA := NeighborCid(v.Center, int(v.DirA))
	nb, okB := NeighborCid(v.Center, int(v.DirB))
	if !okA || !okB {
		return illegal(BadDonor)
	}
	ua, errA := p.ownedUnit(na, us)
	ub, errB := p.ownedUnit(nb, us)
	if errA != nil || errB != nil {
		return illegal(BadDonor)
	}
	if v.DonateA > ua.P || v.DonateB > ub.P {
		return illegal(BadDonor)
	}
	if (ua.Tribun && v.DonateA != ua.P) || (ub.Tribun && v.DonateB != ub.P) {
		return illegal(TribunMisuse)
	}

	p.setUnit(v.Center, Normalize(Unit{
		Color:  us,
		Tribun: ua.Tribun || ub.Tribun,
		P:      v.DonateA + v.DonateB,
	}))
	ua.P -= v.DonateA
	ua.Tribun = ua.Tribun && ua.P > 0
	p.setUnit(na, Normalize(ua))
	ub.P -= v.DonateB
	ub.Tribun = ub.Tribun && ub.P > 0
	p.setUnit(nb, Normalize(ub))
	return nil
}

func (p *Position) applySymCombine(v SymCombineData, us Color) error {
	if !p.IsEmptyTile(v.Center) {
		return illegal(TargetOccupied)
	}
	h, ok := p.symDonorHeight(v.Center, v.Config, us)
	if !ok {
		return illegal(DonorMismatch)
	}
	maxDonate := uint8(1)
	if v.Config != SymRing {
		maxDonate = 2
		if h < 2 {
			maxDonate = h
		}
	}
	if v.Donate > maxDonate {
		return illegal(DonorMismatch)
	}

	dirs := symDonorDirs[v.Config]
	p.setUnit(v.Center, Normalize(Unit{Color: us, P: v.Donate * uint8(len(dirs))}))
	for _, d := range dirs {
		n, _ := NeighborCid(v.Center, d)
		u := p.unitAt(n)
		u.P -= v.Donate
		p.setUnit(n, Normalize(u))
	}
	return nil
}

func (p *Position) applySplit(v SplitData, us Color) error {
	u, err := p.ownedUnit(v.Actor, us)
	if err != nil {
		return err
	}
	if u.Tribun {
		return illegal(TribunMisuse)
	}

	var sum int
	placed := 0
	for d, h := range v.Alloc {
		if h == 0 {
			continue
		}
		if !IsValidHeight(h) {
			return illegal(BadPartition)
		}
		n, ok := NeighborCid(v.Actor, d)
		if !ok || !p.IsEmptyTile(n) {
			return illegal(BadPartition)
		}
		sum += int(h)
		placed++
	}
	if sum == 0 || sum > int(u.P) {
		return illegal(BadPartition)
	}
	rem := u.P - uint8(sum)
	if !IsValidHeight(rem) {
		return illegal(BadPartition)
	}
	occupied := placed
	if rem > 0 {
		if u.S > 0 && (rem > 4 || 2*rem < u.S) {
			return illegal(NormalizationFailure)
		}
		occupied++
	}
	if occupied < 2 {
		return illegal(BadPartition)
	}

	for d, h := range v.Alloc {
		if h == 0 {
			continue
		}
		n, _ := NeighborCid(v.Actor, d)
		p.setUnit(n, Unit{Color: us, P: h})
	}
	p.setUnit(v.Actor, Normalize(Unit{Color: us, P: rem, S: u.S}))
	return nil
}

func (p *Position) applyBackstabb(v BackstabbData, us Color) error {
	u, err := p.ownedUnit(v.Actor, us)
	if err != nil {
		return err
	}
	if u.S == 0 {
		return illegal(NoSlave)
	}
	n, ok := NeighborCid(v.Actor, int(v.Dir))
	if !ok {
		return illegal(Unreachable)
	}
	if !p.IsEmptyTile(n) {
		return illegal(TargetOccupied)
	}
	// The slave dies in place; the primary steps aside.
	p.setUnit(n, Unit{Color: u.Color, Tribun: u.Tribun, P: u.P})
	p.setUnit(v.Actor, Unit{})
	return nil
}

func (p *Position) applyAttackTribun(v AttackTribunData, us Color) error {
	target, err := p.enemyUnit(v.Tribun, us)
	if err != nil {
		return err
	}
	if !target.Tribun {
		return illegal(TribunMisuse)
	}
	if v.Winner != us {
		return illegal(WrongTurn)
	}
	atts := p.attackersOn(v.Tribun, us)
	if len(atts) == 0 {
		return illegal(Unreachable)
	}
	if v.Attacker != atts[0].cid {
		return illegal(NotCanonical)
	}
	p.Status = StatusEnded
	p.Winner = us
	return nil
}

// applyDraw handles the offer lifecycle. Offers and retracts mutate only
// the pending-offer field; the turn does not pass. Accepting ends the game
// without a winner. The terminal flag is returned.
func (p *Position) applyDraw(v DrawData, us Color) (bool, error) {
	switch v.Verb {
	case DrawOffer:
		if v.Actor != us {
			return false, illegal(WrongTurn)
		}
		if p.DrawOfferBy != NoColor {
			return false, illegal(DrawPending)
		}
		p.DrawOfferBy = v.Actor
		return false, nil

	case DrawRetract:
		if p.DrawOfferBy != v.Actor {
			return false, illegal(NoDrawOffer)
		}
		p.DrawOfferBy = NoColor
		return false, nil

	default: // DrawAccept
		if p.DrawOfferBy != v.Actor.Other() {
			return false, illegal(NoDrawOffer)
		}
		p.Status = StatusEnded
		p.Winner = NoColor
		return true, nil
	}
}

// applyEnd terminates the game. Resignation must come from the side to
// move; the remaining reasons are authority-asserted facts (clock expiry,
// starvation) the core cannot verify and accepts as given.
func (p *Position) applyEnd(v EndData, us Color) error {
	switch v.Reason {
	case EndResign:
		if v.Loser != us {
			return illegal(WrongTurn)
		}
		p.Winner = v.Loser.Other()
	case EndNoLegalMoves, EndTimeout:
		p.Winner = v.Loser.Other()
	case EndTimeoutTie:
		p.Winner = NoColor
	default:
		return illegal(BadEndReason)
	}
	p.Status = StatusEnded
	return nil
}

func containsCid(list []Cid, c Cid) bool {
	for _, v := range list {
		if v == c {
			return true
		}
	}
	return false
}
