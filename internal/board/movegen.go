package board

import "sort"

// attacker is one (unit, pattern) entry of a target's participation set.
type attacker struct {
	cid    Cid
	part   uint8
	height uint8
}

// attackersOn enumerates every (unit, part) of side that can strike the
// target tile, ordered by cid with part 0 first.
func (p *Position) attackersOn(target Cid, side Color) []attacker {
	var out []attacker
	for c := Cid(0); c < NumCids; c++ {
		if !cidValid[c] || p.IsEmptyTile(c) {
			continue
		}
		u := p.unitAt(c)
		if u.Color != side {
			continue
		}
		if p.attacksTile(c, u.P, u.Tribun, side, target) {
			out = append(out, attacker{cid: c, part: 0, height: u.P})
		}
		if u.S > 0 && p.attacksTile(c, u.S, false, side, target) {
			out = append(out, attacker{cid: c, part: 1, height: u.S})
		}
	}
	return out
}

// aggregateStrength sums the participation set unit by unit. A unit that
// reaches with both patterns counts once, with its taller component.
func aggregateStrength(atts []attacker) int {
	total := 0
	for i := 0; i < len(atts); {
		j := i + 1
		h := int(atts[i].height)
		for j < len(atts) && atts[j].cid == atts[i].cid {
			if int(atts[j].height) > h {
				h = int(atts[j].height)
			}
			j++
		}
		total += h
		i = j
	}
	return total
}

// bakedDamage computes the effective decrement for an understrength attack
// of aggregate strength s. The remainder height is rounded down to the
// valid set; damage that would break the slave property instead removes
// the whole primary, freeing the slave on application.
func bakedDamage(target Unit, s int) uint8 {
	t := int(target.P)
	rem := RoundDownHeight(t - s)
	if target.S > 0 && (rem > 4 || 2*rem < target.S) {
		return uint8(t)
	}
	return uint8(t - int(rem))
}

// canEnslave reports whether the unit at cid may take the target's primary
// as its slave: the primary pattern reaches, the enslaver is no tribun, and
// the resulting unit survives normalization with its primary intact.
func (p *Position) canEnslave(att Cid, side Color, target Cid, targetP uint8) bool {
	u := p.unitAt(att)
	if u.Tribun {
		return false
	}
	if !p.attacksTile(att, u.P, false, side, target) {
		return false
	}
	en := Normalize(Unit{Color: side, P: u.P, S: targetP})
	return en.P > 0 && en.Color == side
}

// LegalActions enumerates every legal action for the side to move, sorted
// ascending by word value and duplicate-free. An ended game has none.
func (p *Position) LegalActions() []Action {
	if p.Status != StatusActive {
		return nil
	}
	us := p.Turn
	var acts []Action
	add := func(a Action, err error) {
		if err == nil {
			acts = append(acts, a)
		}
	}

	for c := Cid(0); c < NumCids; c++ {
		if !cidValid[c] || p.IsEmptyTile(c) {
			continue
		}
		u := p.unitAt(c)

		if u.Color == us {
			// Relocations under the primary and, when enslaved material is
			// carried, the secondary pattern.
			for _, dst := range p.moveDests(c, u.P, u.Tribun, us) {
				add(EncodeMove(c, dst, 0))
			}
			if u.S > 0 {
				for _, dst := range p.moveDests(c, u.S, false, us) {
					add(EncodeMove(c, dst, 1))
				}
				for d := 0; d < NumDirs; d++ {
					if n, ok := NeighborCid(c, d); ok && p.IsEmptyTile(n) {
						add(EncodeBackstabb(c, uint8(d)))
					}
				}
			}
			if !u.Tribun {
				p.genSplits(c, u, &acts)
			}
			continue
		}

		// Enemy target: aggregate the participation set.
		atts := p.attackersOn(c, us)
		if len(atts) == 0 {
			continue
		}
		if u.Tribun {
			add(EncodeAttackTribun(atts[0].cid, c, us))
			continue
		}
		s := aggregateStrength(atts)
		t := int(u.P)
		switch {
		case s >= t && u.S == 0:
			for _, a := range atts {
				if a.part == 0 && p.canEnslave(a.cid, us, c, u.P) {
					add(EncodeEnslave(a.cid, c))
				}
			}
		case s >= t:
			for _, a := range atts {
				add(EncodeKill(a.cid, c, a.part))
			}
			add(EncodeLiberate(c))
		default:
			add(EncodeDamage(c, bakedDamage(u, s)))
		}
	}

	p.genCombines(&acts)

	// Draw lifecycle: an offer opens for the side to move; a pending offer
	// exposes retract to its owner and accept to the opponent.
	if p.DrawOfferBy == NoColor {
		add(EncodeDraw(DrawOffer, us))
	} else {
		add(EncodeDraw(DrawRetract, p.DrawOfferBy))
		add(EncodeDraw(DrawAccept, p.DrawOfferBy.Other()))
	}

	// Resigning is always available. The remaining END reasons are
	// authority-emitted and never generated.
	add(EncodeEnd(EndResign, us))

	sort.Slice(acts, func(i, j int) bool { return acts[i] < acts[j] })
	dedup := acts[:0]
	for i, a := range acts {
		if i == 0 || a != acts[i-1] {
			dedup = append(dedup, a)
		}
	}
	return dedup
}

// genCombines emits COMBINE and SYM_COMBINE actions for every empty center.
func (p *Position) genCombines(acts *[]Action) {
	us := p.Turn
	add := func(a Action, err error) {
		if err == nil {
			*acts = append(*acts, a)
		}
	}

	for center := Cid(0); center < NumCids; center++ {
		if !cidValid[center] || !p.IsEmptyTile(center) {
			continue
		}

		var donorDirs []int
		for d := 0; d < NumDirs; d++ {
			if n, ok := NeighborCid(center, d); ok && !p.IsEmptyTile(n) && p.unitAt(n).Color == us {
				donorDirs = append(donorDirs, d)
			}
		}

		// Pairwise combines. A tribun donor commits its whole primary.
		for i := 0; i < len(donorDirs); i++ {
			for j := i + 1; j < len(donorDirs); j++ {
				na, _ := NeighborCid(center, donorDirs[i])
				nb, _ := NeighborCid(center, donorDirs[j])
				ua, ub := p.unitAt(na), p.unitAt(nb)
				for da := uint8(1); da <= ua.P; da++ {
					if ua.Tribun && da != ua.P {
						continue
					}
					for db := uint8(1); db <= ub.P; db++ {
						if ub.Tribun && db != ub.P {
							continue
						}
						add(EncodeCombine(center, uint8(donorDirs[i]), uint8(donorDirs[j]), da, db))
					}
				}
			}
		}

		// Symmetric combines.
		for config := uint8(0); config < numConfig; config++ {
			h, ok := p.symDonorHeight(center, config, us)
			if !ok {
				continue
			}
			maxDonate := uint8(1)
			if config != SymRing {
				maxDonate = 2
				if h < 2 {
					maxDonate = h
				}
			}
			for don := uint8(1); don <= maxDonate; don++ {
				add(EncodeSymCombine(center, config, don))
			}
		}
	}
}

// symDonorHeight checks the donor ring of a symmetric combine: every donor
// tile must hold an owned, non-tribun unit and all primaries must be equal.
// It returns the shared height.
func (p *Position) symDonorHeight(center Cid, config uint8, side Color) (uint8, bool) {
	var h uint8
	for _, d := range symDonorDirs[config] {
		n, ok := NeighborCid(center, d)
		if !ok || p.IsEmptyTile(n) {
			return 0, false
		}
		u := p.unitAt(n)
		if u.Color != side || u.Tribun {
			return 0, false
		}
		if h == 0 {
			h = u.P
		} else if u.P != h {
			return 0, false
		}
	}
	return h, true
}

// splitValues are the heights a single SPLIT slot can carry: valid heights
// that fit the 3-bit encoding. A full height-8 transfer is a MOVE, or a
// BACKSTABB when a slave must be shed.
var splitValues = [5]uint8{1, 2, 3, 4, 6}

// genSplits emits every legal partition of the unit's primary across its
// empty neighbor tiles.
func (p *Position) genSplits(c Cid, u Unit, acts *[]Action) {
	var dirs []int
	for d := 0; d < NumDirs; d++ {
		if n, ok := NeighborCid(c, d); ok && p.IsEmptyTile(n) {
			dirs = append(dirs, d)
		}
	}
	if len(dirs) == 0 {
		return
	}

	var alloc [NumDirs]uint8
	var rec func(i int, budget uint8, placed int)
	rec = func(i int, budget uint8, placed int) {
		if i == len(dirs) {
			if placed == 0 {
				return
			}
			rem := budget
			if !IsValidHeight(rem) {
				return
			}
			occupied := placed
			if rem > 0 {
				if u.S > 0 && (rem > 4 || 2*rem < u.S) {
					return // origin would violate the slave property
				}
				occupied++
			}
			if occupied < 2 {
				return
			}
			if a, err := EncodeSplit(c, alloc); err == nil {
				*acts = append(*acts, a)
			}
			return
		}
		rec(i+1, budget, placed)
		for _, v := range splitValues {
			if v > budget {
				break
			}
			alloc[dirs[i]] = v
			rec(i+1, budget-v, placed+1)
			alloc[dirs[i]] = 0
		}
	}
	rec(0, u.P, 0)
}
