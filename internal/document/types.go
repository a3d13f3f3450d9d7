// Package document holds the authoritative map state: hex cells, tokens,
// landmarks and paths, plus the bounds cache and dirty flags the renderer
// and auto-save consume. Every mutation goes through a Document method.
package document

import (
	"encoding/json"
	"strings"

	"github.com/talgya/hexworlds/internal/world"
)

// Attributes is free-form user data attached to tokens and landmarks.
type Attributes map[string]any

// Pathfinding reports whether attributes.pathfinding is true. It is the only
// attribute the editor interprets; it gates the route affordance.
func (a Attributes) Pathfinding() bool {
	v, ok := a["pathfinding"].(bool)
	return ok && v
}

// ParseAttributes decodes user-entered attribute text. Empty text yields an
// empty set; anything other than a JSON object is ErrInvalidAttributes.
func ParseAttributes(text string) (Attributes, error) {
	if strings.TrimSpace(text) == "" {
		return Attributes{}, nil
	}
	var attrs Attributes
	if err := json.Unmarshal([]byte(text), &attrs); err != nil || attrs == nil {
		return nil, ErrInvalidAttributes
	}
	return attrs, nil
}

// HexCell is one painted hex.
type HexCell struct {
	Q           int             `json:"q"`
	R           int             `json:"r"`
	Terrain     world.Terrain   `json:"terrain"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Dungeon     json.RawMessage `json:"dungeon,omitempty"`
}

// Coord returns the cell's coordinates.
func (h *HexCell) Coord() world.HexCoord { return world.HexCoord{Q: h.Q, R: h.R} }

// TokenType classifies a token.
type TokenType string

const (
	TokenPlayer   TokenType = "player"
	TokenParty    TokenType = "party"
	TokenNPC      TokenType = "npc"
	TokenMonster  TokenType = "monster"
	TokenLandmark TokenType = "landmark"
)

// Token size limits.
const (
	MinTokenSize = 0.5
	MaxTokenSize = 5.0
)

// Token is a movable marker. Several tokens may share a hex.
type Token struct {
	ID         string     `json:"id"`
	Q          int        `json:"q"`
	R          int        `json:"r"`
	Name       string     `json:"name"`
	Type       TokenType  `json:"type"`
	Color      string     `json:"color"`
	Label      string     `json:"label"`
	Size       float64    `json:"size"`
	Attributes Attributes `json:"attributes"`
	Notes      string     `json:"notes"`
	Visible    bool       `json:"visible"`
	Created    string     `json:"created"`

	// Animation state, never persisted.
	Scale        float64          `json:"-"`
	Route        []world.HexCoord `json:"-"`
	RouteIndex   int              `json:"-"`
	routeVersion uint64
}

// Coord returns the token's position.
func (t *Token) Coord() world.HexCoord { return world.HexCoord{Q: t.Q, R: t.R} }

// Routing reports whether the token is following a route.
func (t *Token) Routing() bool { return len(t.Route) > 0 }

// Destination returns the last vertex of the active route.
func (t *Token) Destination() (world.HexCoord, bool) {
	if len(t.Route) == 0 {
		return world.HexCoord{}, false
	}
	return t.Route[len(t.Route)-1], true
}

// TokenData carries the caller-supplied fields for CreateToken. Zero values
// take the defaults.
type TokenData struct {
	Name       string     `json:"name"`
	Type       TokenType  `json:"type"`
	Color      string     `json:"color"`
	Label      string     `json:"label"`
	Size       float64    `json:"size"`
	Attributes Attributes `json:"attributes"`
	Notes      string     `json:"notes"`
	Visible    *bool      `json:"visible"`
}

// TokenPatch is a partial token edit; nil fields are left alone.
type TokenPatch struct {
	Name    *string    `json:"name"`
	Type    *TokenType `json:"type"`
	Color   *string    `json:"color"`
	Label   *string    `json:"label"`
	Size    *float64   `json:"size"`
	Notes   *string    `json:"notes"`
	Visible *bool      `json:"visible"`
}

// LandmarkStyle selects how a landmark is drawn.
type LandmarkStyle string

const (
	StyleCircle LandmarkStyle = "circle"
	StyleIcon   LandmarkStyle = "icon"
	StyleBadge  LandmarkStyle = "badge"
)

// LabelPosition places a landmark's label.
type LabelPosition string

const (
	LabelAbove  LabelPosition = "above"
	LabelBelow  LabelPosition = "below"
	LabelInside LabelPosition = "inside"
)

// Landmark size limits.
const (
	MinLandmarkSize = 0.5
	MaxLandmarkSize = 2.5
)

// Landmark is a static marker. At most one landmark occupies a hex.
type Landmark struct {
	ID            string        `json:"id"`
	Q             int           `json:"q"`
	R             int           `json:"r"`
	Name          string        `json:"name"`
	Type          string        `json:"type"`
	Style         LandmarkStyle `json:"style"`
	Icon          string        `json:"icon"`
	Color         string        `json:"color"`
	ShowLabel     bool          `json:"showLabel"`
	LabelPosition LabelPosition `json:"labelPosition"`
	Size          float64       `json:"size"`
	Attributes    Attributes    `json:"attributes"`
	Notes         string        `json:"notes"`
	Visible       bool          `json:"visible"`
	Created       string        `json:"created"`
}

// Coord returns the landmark's hex.
func (l *Landmark) Coord() world.HexCoord { return world.HexCoord{Q: l.Q, R: l.R} }

// LandmarkData carries the caller-supplied fields for CreateLandmark.
type LandmarkData struct {
	Name          string        `json:"name"`
	Type          string        `json:"type"`
	Style         LandmarkStyle `json:"style"`
	Icon          string        `json:"icon"`
	Color         string        `json:"color"`
	ShowLabel     *bool         `json:"showLabel"`
	LabelPosition LabelPosition `json:"labelPosition"`
	Size          float64       `json:"size"`
	Attributes    Attributes    `json:"attributes"`
	Notes         string        `json:"notes"`
	Visible       *bool         `json:"visible"`
}

// LandmarkPatch is a partial landmark edit.
type LandmarkPatch struct {
	Name          *string        `json:"name"`
	Type          *string        `json:"type"`
	Style         *LandmarkStyle `json:"style"`
	Icon          *string        `json:"icon"`
	Color         *string        `json:"color"`
	ShowLabel     *bool          `json:"showLabel"`
	LabelPosition *LabelPosition `json:"labelPosition"`
	Size          *float64       `json:"size"`
	Notes         *string        `json:"notes"`
	Visible       *bool          `json:"visible"`
}

// PathType is road, river or trail.
type PathType string

const (
	PathRoad  PathType = "road"
	PathRiver PathType = "river"
	PathTrail PathType = "trail"
)

// PathStyle is straight or curved.
type PathStyle string

const (
	PathStraight PathStyle = "straight"
	PathCurved   PathStyle = "curved"
)

// Path width limits.
const (
	MinPathWidth = 2
	MaxPathWidth = 12
)

// PathTypeStyle holds the drawing defaults of a path type.
type PathTypeStyle struct {
	Color string
	Width int
	Dash  []float64
}

// PathStyles are the per-type defaults.
var PathStyles = map[PathType]PathTypeStyle{
	PathRoad:  {Color: "#8B7355", Width: 4},
	PathRiver: {Color: "#4682B4", Width: 5},
	PathTrail: {Color: "#D2B48C", Width: 2, Dash: []float64{5, 3}},
}

// StyleOf returns the defaults for t, falling back to road.
func StyleOf(t PathType) PathTypeStyle {
	if s, ok := PathStyles[t]; ok {
		return s
	}
	return PathStyles[PathRoad]
}

// Path is a multi-segment polyline over hex centers. Committed paths have at
// least two points; the draft may hold one.
type Path struct {
	ID      string           `json:"id"`
	Type    PathType         `json:"type"`
	Style   PathStyle        `json:"style"`
	Width   int              `json:"width"`
	Color   string           `json:"color"`
	Points  []world.HexCoord `json:"points"`
	Created string           `json:"created"`
}

// LineColor returns the path color, or the type default when unset.
func (p *Path) LineColor() string {
	if p.Color != "" {
		return p.Color
	}
	return StyleOf(p.Type).Color
}

// LineWidth returns the path width, or the type default when unset.
func (p *Path) LineWidth() int {
	if p.Width > 0 {
		return p.Width
	}
	return StyleOf(p.Type).Width
}

func (p *Path) clone() *Path {
	cp := *p
	cp.Points = append([]world.HexCoord(nil), p.Points...)
	return &cp
}

// PathPatch is a partial path edit.
type PathPatch struct {
	Type  *PathType  `json:"type"`
	Style *PathStyle `json:"style"`
	Width *int       `json:"width"`
	Color *string    `json:"color"`
}

// PathSettings are the parameters applied to new drafts.
type PathSettings struct {
	Type  PathType  `json:"type"`
	Style PathStyle `json:"style"`
	Width int       `json:"width"`
	Color string    `json:"color"`
}

// DefaultPathSettings is a straight road.
func DefaultPathSettings() PathSettings {
	s := PathStyles[PathRoad]
	return PathSettings{Type: PathRoad, Style: PathStraight, Width: s.Width, Color: s.Color}
}

// Routing selects how ExtendPath connects the draft to a new point.
type Routing string

const (
	RoutingHex    Routing = "hex"    // follow a grid route
	RoutingDirect Routing = "direct" // straight to the clicked hex
)

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
