package document

import "github.com/talgya/hexworlds/internal/world"

// MaxFloodFill bounds a single fill. Reaching it is a partial success.
const MaxFloodFill = 5000

// Hex returns the cell at c.
func (d *Document) Hex(c world.HexCoord) (*HexCell, bool) {
	h, ok := d.hexes[c]
	return h, ok
}

// TerrainAt returns the terrain at c, or "" for an empty hex.
func (d *Document) TerrainAt(c world.HexCoord) world.Terrain {
	if h, ok := d.hexes[c]; ok {
		return h.Terrain
	}
	return ""
}

// SetHex paints c with terrain, creating the cell if needed. Name,
// description and dungeon survive a repaint.
func (d *Document) SetHex(c world.HexCoord, terrain world.Terrain) {
	if h, ok := d.hexes[c]; ok {
		if h.Terrain == terrain {
			return
		}
		h.Terrain = terrain
		d.touch(true)
		return
	}
	d.hexes[c] = &HexCell{Q: c.Q, R: c.R, Terrain: terrain}
	if d.bounds.ObserveInsert(c) {
		d.Dirty.MinimapBounds = true
	}
	d.touch(true)
}

// DeleteHex removes the cell at c. Tokens and landmarks there stay.
func (d *Document) DeleteHex(c world.HexCoord) {
	if _, ok := d.hexes[c]; !ok {
		return
	}
	delete(d.hexes, c)
	if d.bounds.ObserveDelete(c) {
		d.Dirty.MinimapBounds = true
	}
	d.touch(true)
}

// SetHexDetails edits the text fields of an existing cell.
func (d *Document) SetHexDetails(c world.HexCoord, name, description string) error {
	h, ok := d.hexes[c]
	if !ok {
		return ErrNotFound
	}
	if h.Name == name && h.Description == description {
		return nil
	}
	h.Name = name
	h.Description = description
	d.touch(false)
	return nil
}

// PaintBrush paints the disc of radius size-1 around c. The clear terrain
// erases instead.
func (d *Document) PaintBrush(c world.HexCoord, size int, terrain world.Terrain) {
	if terrain == world.TerrainClear {
		d.EraseBrush(c, size)
		return
	}
	for _, h := range world.InRadius(c, size-1) {
		d.SetHex(h, terrain)
	}
}

// EraseBrush deletes the disc of radius size-1 around c.
func (d *Document) EraseBrush(c world.HexCoord, size int) {
	for _, h := range world.InRadius(c, size-1) {
		d.DeleteHex(h)
	}
}

// FloodFill repaints the connected region around start whose terrain matches
// start's (empty hexes match empty) with target, breadth first in neighbor
// order. The clear terrain erases the region. It stops after MaxFloodFill
// cells and returns how many it filled.
func (d *Document) FloodFill(start world.HexCoord, target world.Terrain) int {
	if target == world.TerrainClear {
		target = ""
	}
	from := d.TerrainAt(start)
	if from == target {
		return 0
	}

	queue := []world.HexCoord{start}
	visited := map[world.HexCoord]bool{}
	filled := 0
	for len(queue) > 0 && filled < MaxFloodFill {
		c := queue[0]
		queue = queue[1:]
		if visited[c] {
			continue
		}
		visited[c] = true
		if d.TerrainAt(c) != from {
			continue
		}

		if target == "" {
			d.DeleteHex(c)
		} else {
			d.SetHex(c, target)
		}
		filled++
		for _, n := range c.Neighbors() {
			if !visited[n] {
				queue = append(queue, n)
			}
		}
	}
	return filled
}
