package board

// Movement and attack patterns per primary height. The leap and slide
// tables are precomputed per tile; the height-8 step-and-jump shape and the
// height-6 BFS walk the neighbor table at query time.

// offsets2 is the height-2 leap pattern and the ray basis for heights 4, 6
// and the height-8 attack.
var offsets2 = [6][2]int{
	{1, 2}, {-1, -2},
	{-1, 1}, {1, -1},
	{2, 1}, {-2, -1},
}

// offsets3 is the height-3 leap pattern.
var offsets3 = [12][2]int{
	{3, 2}, {-3, -2},
	{2, 3}, {-2, -3},
	{1, 3}, {-1, -3},
	{3, 1}, {-3, -1},
	{-1, 2}, {1, -2},
	{2, -1}, {-2, 1},
}

// Pawn-like height-1 shapes, by direction index. Black moves along
// direction 0 and strikes along 1 and 2; white uses the negated vectors.
var (
	pawnMoveDir = [2]int{0, 3}
	pawnAtkDirs = [2][2]int{{1, 2}, {4, 5}}
)

var (
	leapTab2 [NumCids][]Cid
	leapTab3 [NumCids][]Cid
	rayTab   [NumCids][6][]Cid // slides along offsets2, nearest first
)

func init() {
	leap := func(cx, cy int, offs [][2]int) []Cid {
		var out []Cid
		for _, o := range offs {
			nx, ny := cx+o[0], cy+o[1]
			if OnBoard(nx, ny) {
				out = append(out, Cid((nx+5)*11+(ny+5)))
			}
		}
		return out
	}
	for c := Cid(0); c < NumCids; c++ {
		// Coordinates are derived here: this init runs before the one in
		// tile.go that fills cidX, cidY and cidValid.
		cx, cy := int(c)/11-5, int(c)%11-5
		if !OnBoard(cx, cy) {
			continue
		}
		leapTab2[c] = leap(cx, cy, offsets2[:])
		leapTab3[c] = leap(cx, cy, offsets3[:])
		for r, o := range offsets2 {
			x, y := cx, cy
			for {
				x += o[0]
				y += o[1]
				if !OnBoard(x, y) {
					break
				}
				rayTab[c][r] = append(rayTab[c][r], Cid((x+5)*11+(y+5)))
			}
		}
	}
}

// moveDests returns the empty tiles a component of height h on tile from
// can relocate to. The tribun flag and color shape the height-1 pattern.
func (p *Position) moveDests(from Cid, h uint8, tribun bool, color Color) []Cid {
	var out []Cid
	addEmpty := func(c Cid) {
		if p.IsEmptyTile(c) {
			out = append(out, c)
		}
	}

	switch h {
	case 1:
		if tribun {
			for d := 0; d < NumDirs; d++ {
				if n, ok := NeighborCid(from, d); ok {
					addEmpty(n)
				}
			}
		} else if n, ok := NeighborCid(from, pawnMoveDir[color]); ok {
			addEmpty(n)
		}

	case 2:
		for _, c := range leapTab2[from] {
			addEmpty(c)
		}

	case 3:
		for _, c := range leapTab3[from] {
			addEmpty(c)
		}

	case 4, 6:
		for r := range rayTab[from] {
			for _, c := range rayTab[from][r] {
				if !p.IsEmptyTile(c) {
					break
				}
				out = append(out, c)
			}
		}

	case 8:
		for d := 0; d < NumDirs; d++ {
			mid, ok := NeighborCid(from, d)
			if !ok {
				continue
			}
			addEmpty(mid)
			// The long step may not jump over enemies.
			if !p.IsEmptyTile(mid) && p.unitAt(mid).Color != color {
				continue
			}
			if far, ok := NeighborCid(mid, d); ok {
				addEmpty(far)
			}
		}
	}
	return out
}

// attackDests returns the occupied tiles a component of height h on tile
// from can strike. Callers filter for enemy occupancy; a friendly unit in
// the way still blocks everything behind it.
func (p *Position) attackDests(from Cid, h uint8, tribun bool, color Color) []Cid {
	var out []Cid
	addOccupied := func(c Cid) {
		if !p.IsEmptyTile(c) {
			out = append(out, c)
		}
	}

	switch h {
	case 1:
		if tribun {
			for d := 0; d < NumDirs; d++ {
				if n, ok := NeighborCid(from, d); ok {
					addOccupied(n)
				}
			}
		} else {
			for _, d := range pawnAtkDirs[color] {
				if n, ok := NeighborCid(from, d); ok {
					addOccupied(n)
				}
			}
		}

	case 2:
		for _, c := range leapTab2[from] {
			addOccupied(c)
		}

	case 3:
		for _, c := range leapTab3[from] {
			addOccupied(c)
		}

	case 4:
		for r := range rayTab[from] {
			for _, c := range rayTab[from][r] {
				if !p.IsEmptyTile(c) {
					out = append(out, c)
					break
				}
			}
		}

	case 6:
		if c, ok := p.bfsNearestUnit(from); ok {
			out = append(out, c)
		}

	case 8:
		for _, c := range leapTab2[from] {
			addOccupied(c)
		}
		for d := 0; d < NumDirs; d++ {
			mid, ok := NeighborCid(from, d)
			if !ok {
				continue
			}
			addOccupied(mid)
			if !p.IsEmptyTile(mid) && p.unitAt(mid).Color != color {
				continue
			}
			if far, ok := NeighborCid(mid, d); ok {
				addOccupied(far)
			}
		}
	}
	return out
}

// bfsNearestUnit expands over the 6-neighbor adjacency from origin and
// returns the first occupied tile it encounters, regardless of color.
func (p *Position) bfsNearestUnit(origin Cid) (Cid, bool) {
	var visited [NumCids]bool
	visited[origin] = true
	queue := make([]Cid, 0, NumCids)
	for d := 0; d < NumDirs; d++ {
		if n, ok := NeighborCid(origin, d); ok {
			visited[n] = true
			queue = append(queue, n)
		}
	}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		if !p.IsEmptyTile(c) {
			return c, true
		}
		for d := 0; d < NumDirs; d++ {
			if n, ok := NeighborCid(c, d); ok && !visited[n] {
				visited[n] = true
				queue = append(queue, n)
			}
		}
	}
	return NoCid, false
}

// attacksTile reports whether the component can strike the target tile.
func (p *Position) attacksTile(from Cid, h uint8, tribun bool, color Color, target Cid) bool {
	for _, c := range p.attackDests(from, h, tribun, color) {
		if c == target {
			return true
		}
	}
	return false
}
