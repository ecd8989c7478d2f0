package FD3D

import "fmt"

// Tile is a box of interior indices, Lo inclusive and Hi exclusive
type Tile struct {
	Lo, Hi [3]int
}

func FullTile(g *Grid) Tile {
	return Tile{Hi: g.Shape()}
}

func (t Tile) NumPoints() int {
	return (t.Hi[0] - t.Lo[0]) * (t.Hi[1] - t.Lo[1]) * (t.Hi[2] - t.Lo[2])
}

func (t Tile) Extent(axis Dimension) int { return t.Hi[axis] - t.Lo[axis] }

func (t Tile) String() string {
	return fmt.Sprintf("[%d:%d, %d:%d, %d:%d]",
		t.Lo[0], t.Hi[0], t.Lo[1], t.Hi[1], t.Lo[2], t.Hi[2])
}

/*
NewTiling blocks the x and y extents of the grid into tiles of at most
BlockSize[0] x BlockSize[1] points, z is never blocked. A block size <= 0
leaves that axis whole. Tiles cover the interior exactly once and are
ordered x major.
*/
func NewTiling(g *Grid, blockSize [2]int) (tiles []Tile) {
	var (
		shape  = g.Shape()
		bx, by = blockSize[0], blockSize[1]
	)
	if bx <= 0 || bx > shape[0] {
		bx = shape[0]
	}
	if by <= 0 || by > shape[1] {
		by = shape[1]
	}
	for i := 0; i < shape[0]; i += bx {
		for j := 0; j < shape[1]; j += by {
			tiles = append(tiles, Tile{
				Lo: [3]int{i, j, 0},
				Hi: [3]int{min(i+bx, shape[0]), min(j+by, shape[1]), shape[2]},
			})
		}
	}
	return
}
