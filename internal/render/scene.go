// Package render draws the document onto two raster surfaces: the main view
// and the minimap. Both are gg contexts with a top-left origin and +y down.
package render

import "github.com/talgya/hexworlds/internal/world"

// NoPoint marks an unset point-handle index in a Scene.
const NoPoint = -1

// Scene is the editor-side view state a frame is drawn with. The document
// never holds it.
type Scene struct {
	Layout world.Layout

	Hover       *world.HexCoord
	SelectedHex *world.HexCoord

	SelectedToken string
	SelectedPath  string
	HoveredPath   string

	// Point handles are drawn for SelectedPath while PathEditMode is on.
	PathEditMode bool
	HoveredPoint int
	DraggedPoint int

	Brush   []world.HexCoord // brush footprint under the cursor
	Preview []world.HexCoord // routed preview from the draft's last point
}

// NewScene returns a scene with no hover or selection.
func NewScene(layout world.Layout) Scene {
	return Scene{Layout: layout, HoveredPoint: NoPoint, DraggedPoint: NoPoint}
}
