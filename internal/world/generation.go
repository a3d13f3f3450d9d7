// Sample map generation using layered simplex noise.
// Generates elevation, rainfall, and temperature fields, then derives terrain
// and traces rivers downhill.
package world

import (
	"math"
	"math/rand"
	"sort"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds sample map generation parameters.
type GenConfig struct {
	Radius      int     // Hex disc radius
	Seed        int64   // Random seed (0 = random)
	SeaLevel    float64 // Elevation threshold for water (0.0–1.0)
	MountainLvl float64 // Elevation threshold for mountains (0.0–1.0)
	Rivers      int     // Maximum number of traced rivers
}

// DefaultGenConfig returns a reasonable starting configuration.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Radius:      12,
		Seed:        0,
		SeaLevel:    0.25,
		MountainLvl: 0.72,
		Rivers:      4,
	}
}

// Sample is a generated map: terrain per hex plus river polylines that the
// caller turns into river paths.
type Sample struct {
	Terrain map[HexCoord]Terrain
	Rivers  [][]HexCoord

	elevation map[HexCoord]float64
}

// Coords returns the generated coordinates in stable (q, r) order.
func (s *Sample) Coords() []HexCoord {
	coords := make([]HexCoord, 0, len(s.Terrain))
	for c := range s.Terrain {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].Q != coords[j].Q {
			return coords[i].Q < coords[j].Q
		}
		return coords[i].R < coords[j].R
	})
	return coords
}

// Generate creates a sample map over a hex disc.
func Generate(cfg GenConfig) *Sample {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}

	// Three noise generators for independent layers.
	elevNoise := opensimplex.NewNormalized(seed)
	rainNoise := opensimplex.NewNormalized(seed + 1)
	tempNoise := opensimplex.NewNormalized(seed + 2)

	s := &Sample{
		Terrain:   make(map[HexCoord]Terrain),
		elevation: make(map[HexCoord]float64),
	}

	for _, coord := range InRadius(HexCoord{}, cfg.Radius) {
		// Hex axial → cartesian for noise sampling.
		x := float64(coord.Q) + float64(coord.R)*0.5
		y := float64(coord.R) * math.Sqrt(3.0) / 2.0

		elev := octaveNoise(elevNoise, x, y, 4, 0.08, 0.5)
		rain := octaveNoise(rainNoise, x, y, 3, 0.06, 0.5)
		temp := octaveNoise(tempNoise, x, y, 3, 0.05, 0.5)

		// Continental shaping: sink the rim so the disc reads as an island.
		radius := math.Max(1, float64(cfg.Radius))
		distFromCenter := math.Sqrt(x*x+y*y) / radius
		edgeFalloff := 1.0 - math.Pow(distFromCenter, 3.5)
		if edgeFalloff < 0 {
			edgeFalloff = 0
		}
		elev *= edgeFalloff

		// Temperature decreases with elevation and distance from the equator.
		temp = temp*0.6 + (1.0-math.Abs(y)/radius)*0.3 + (1.0-elev)*0.1

		s.Terrain[coord] = deriveTerrain(elev, rain, temp, cfg)
		s.elevation[coord] = elev
	}

	s.placeRivers(seed, cfg.Rivers)
	return s
}

// deriveTerrain determines terrain type from environmental parameters.
func deriveTerrain(elev, rain, temp float64, cfg GenConfig) Terrain {
	if elev < cfg.SeaLevel {
		return TerrainWater
	}
	if elev > cfg.MountainLvl {
		return TerrainMountain
	}
	if elev > cfg.MountainLvl-0.1 {
		return TerrainHills
	}
	if temp < 0.25 {
		return TerrainTundra
	}
	if rain < 0.25 && temp > 0.5 {
		return TerrainDesert
	}
	if rain > 0.7 && elev < 0.45 {
		return TerrainSwamp
	}
	if rain > 0.6 && temp > 0.65 {
		return TerrainJungle
	}
	if rain > 0.45 && elev > 0.45 {
		return TerrainForest
	}
	if rain > 0.4 {
		return TerrainGrassland
	}
	return TerrainPlains
}

// placeRivers traces rivers from high ground toward water.
func (s *Sample) placeRivers(seed int64, maxRivers int) {
	if maxRivers <= 0 {
		return
	}
	rng := rand.New(rand.NewSource(seed + 100))

	var sources []HexCoord
	for _, coord := range s.Coords() {
		if s.elevation[coord] > 0.6 && s.Terrain[coord] != TerrainWater {
			sources = append(sources, coord)
		}
	}

	rng.Shuffle(len(sources), func(i, j int) {
		sources[i], sources[j] = sources[j], sources[i]
	})
	if len(sources) > maxRivers {
		sources = sources[:maxRivers]
	}

	for _, start := range sources {
		if river := s.traceRiver(start); len(river) >= 2 {
			s.Rivers = append(s.Rivers, river)
		}
	}
}

// traceRiver follows the steepest descent from a source hex until reaching
// water or running out of downhill path.
func (s *Sample) traceRiver(start HexCoord) []HexCoord {
	current := start
	visited := make(map[HexCoord]bool)
	var river []HexCoord
	maxSteps := 50

	for step := 0; step < maxSteps; step++ {
		visited[current] = true
		terrain, ok := s.Terrain[current]
		if !ok {
			break
		}
		river = append(river, current)
		if terrain == TerrainWater {
			break
		}

		var best *HexCoord
		bestElev := s.elevation[current]
		for _, nc := range current.Neighbors() {
			if visited[nc] {
				continue
			}
			ne, ok := s.elevation[nc]
			if !ok {
				continue
			}
			if ne < bestElev {
				bestElev = ne
				c := nc
				best = &c
			}
		}

		if best == nil {
			break // No downhill path; the river ends in a basin.
		}
		current = *best
	}
	return river
}

// octaveNoise generates fractal noise by layering multiple frequencies.
func octaveNoise(noise opensimplex.Noise, x, y float64, octaves int, frequency, persistence float64) float64 {
	total := 0.0
	amplitude := 1.0
	maxVal := 0.0

	for i := 0; i < octaves; i++ {
		total += noise.Eval2(x*frequency, y*frequency) * amplitude
		maxVal += amplitude
		amplitude *= persistence
		frequency *= 2
	}

	return total / maxVal
}

// StarterMap reproduces the classic 10×10 starter layout: a grassland core
// ringed by plains and forest, hills, then rough outer terrain.
func StarterMap(seed int64) *Sample {
	rng := rand.New(rand.NewSource(seed))
	s := &Sample{Terrain: make(map[HexCoord]Terrain)}

	const mapWidth, mapHeight = 10, 10
	for col := 0; col < mapWidth; col++ {
		for row := 0; row < mapHeight; row++ {
			q := col - mapWidth/2
			r := row - mapHeight/2 - col/2
			dist := math.Sqrt(float64(q*q + r*r))

			var terrain Terrain
			switch {
			case dist < 2:
				terrain = TerrainGrassland
			case dist < 3:
				terrain = pick(rng, 0.5, TerrainPlains, TerrainForest)
			case dist < 4:
				terrain = pick(rng, 0.7, TerrainHills, TerrainForest)
			case dist < 5:
				roll := rng.Float64()
				switch {
				case roll > 0.7:
					terrain = TerrainMountain
				case roll > 0.4:
					terrain = TerrainHills
				default:
					terrain = TerrainForest
				}
			default:
				roll := rng.Float64()
				switch {
				case roll > 0.8:
					terrain = TerrainMountain
				case roll > 0.6:
					terrain = TerrainWater
				case roll > 0.4:
					terrain = TerrainDesert
				default:
					terrain = TerrainTundra
				}
			}
			s.Terrain[HexCoord{Q: q, R: r}] = terrain
		}
	}
	return s
}

// pick returns above when a roll exceeds threshold, otherwise below.
func pick(rng *rand.Rand, threshold float64, above, below Terrain) Terrain {
	if rng.Float64() > threshold {
		return above
	}
	return below
}

// TerrainCounts returns a summary of terrain distribution.
func TerrainCounts(terrain map[HexCoord]Terrain) map[Terrain]int {
	counts := make(map[Terrain]int)
	for _, t := range terrain {
		counts[t]++
	}
	return counts
}
