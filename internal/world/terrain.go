package world

import "sort"

// Terrain is the palette key stored on each hex cell ("plains", "forest", ...).
type Terrain string

const (
	TerrainPlains    Terrain = "plains"
	TerrainForest    Terrain = "forest"
	TerrainMountain  Terrain = "mountain"
	TerrainDesert    Terrain = "desert"
	TerrainWater     Terrain = "water"
	TerrainSwamp     Terrain = "swamp"
	TerrainHills     Terrain = "hills"
	TerrainTundra    Terrain = "tundra"
	TerrainGrassland Terrain = "grassland"
	TerrainJungle    Terrain = "jungle"

	// TerrainClear is the brush selection that erases instead of painting.
	TerrainClear Terrain = "clear"
)

// FallbackColor is used for terrain keys missing from the palette.
const FallbackColor = "#4a5568"

// TerrainInfo describes how a terrain is displayed.
type TerrainInfo struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Icon  string `json:"icon"` // Icon URL, may be empty
}

// Terrains is the built-in palette.
var Terrains = map[Terrain]TerrainInfo{
	TerrainPlains:    {Name: "Plains", Color: "#90EE90", Icon: "https://api.iconify.design/mdi/wheat.svg?color=%23000000"},
	TerrainForest:    {Name: "Forest", Color: "#228B22", Icon: "https://api.iconify.design/mdi/pine-tree.svg?color=%23ffffff"},
	TerrainMountain:  {Name: "Mountain", Color: "#8B7355", Icon: "https://api.iconify.design/mdi/image-filter-hdr.svg?color=%23000000"},
	TerrainDesert:    {Name: "Desert", Color: "#F4A460", Icon: "https://api.iconify.design/mdi/cactus.svg?color=%23000000"},
	TerrainWater:     {Name: "Water", Color: "#4682B4", Icon: "https://api.iconify.design/mdi/waves.svg?color=%23ffffff"},
	TerrainSwamp:     {Name: "Swamp", Color: "#556B2F", Icon: "https://api.iconify.design/mdi/water.svg?color=%23ffffff"},
	TerrainHills:     {Name: "Hills", Color: "#9ACD32", Icon: "https://api.iconify.design/mdi/terrain.svg?color=%23000000"},
	TerrainTundra:    {Name: "Tundra", Color: "#E0FFFF", Icon: "https://api.iconify.design/mdi/snowflake.svg?color=%23000000"},
	TerrainGrassland: {Name: "Grassland", Color: "#7CFC00", Icon: "https://api.iconify.design/mdi/grass.svg?color=%23000000"},
	TerrainJungle:    {Name: "Jungle", Color: "#006400", Icon: "https://api.iconify.design/mdi/palm-tree.svg?color=%23ffffff"},
}

// Valid reports whether t is a paintable palette entry.
func (t Terrain) Valid() bool {
	_, ok := Terrains[t]
	return ok
}

// Color returns the fill color for t, or FallbackColor.
func (t Terrain) Color() string {
	if info, ok := Terrains[t]; ok {
		return info.Color
	}
	return FallbackColor
}

// TerrainName returns the display name of a terrain.
func TerrainName(t Terrain) string {
	if info, ok := Terrains[t]; ok {
		return info.Name
	}
	return string(t)
}

// TerrainKeys returns the palette keys in stable order.
func TerrainKeys() []Terrain {
	keys := make([]Terrain, 0, len(Terrains))
	for t := range Terrains {
		keys = append(keys, t)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
