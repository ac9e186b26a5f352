package grid

// Unreachable marks cells with no open route from the origin.
const Unreachable = -1

// Distances returns the 4-directional step count from origin to every cell,
// walking only through open cells. Walls and cells with no route hold
// Unreachable. An origin that is a wall reaches nothing.
func (g *Grid) Distances(origin Coordinate) []int {
	dist := make([]int, len(g.cells))
	for i := range dist {
		dist[i] = Unreachable
	}
	if !g.In(origin) || !g.Get(origin).Open() {
		return dist
	}
	dist[g.index(origin)] = 0
	queue := []Coordinate{origin}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		d := dist[g.index(cur)]
		for _, step := range Neighbors4 {
			next := cur.Add(step.R, step.C)
			if !g.In(next) || !g.Get(next).Open() {
				continue
			}
			i := g.index(next)
			if dist[i] != Unreachable {
				continue
			}
			dist[i] = d + 1
			queue = append(queue, next)
		}
	}
	return dist
}

// DistanceAt reads the entry for c from a slice returned by Distances.
func (g *Grid) DistanceAt(dist []int, c Coordinate) int {
	return dist[g.index(c)]
}

// OpenDegree counts the open 4-neighbours of c.
func (g *Grid) OpenDegree(c Coordinate) int {
	n := 0
	for _, step := range Neighbors4 {
		next := c.Add(step.R, step.C)
		if g.In(next) && g.Get(next).Open() {
			n++
		}
	}
	return n
}
