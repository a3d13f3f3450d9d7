package editor

import (
	"fmt"
	"log/slog"

	"github.com/talgya/hexworlds/internal/document"
	"github.com/talgya/hexworlds/internal/render"
	"github.com/talgya/hexworlds/internal/world"
)

// Export returns the world file for the current document.
func (s *Session) Export() ([]byte, error) {
	data, err := s.doc.Export()
	if err != nil {
		return nil, s.fail("export", err)
	}
	return data, nil
}

// Import replaces the document with a world file. On failure the current
// map is left exactly as it was.
func (s *Session) Import(data []byte) error {
	if err := s.doc.Import(data); err != nil {
		return s.fail("import", fmt.Errorf("import: %w", err))
	}
	s.resetInteraction()
	c := s.doc.Counts()
	s.notifier.Notify(Notice{
		Level:   LevelInfo,
		Message: fmt.Sprintf("Imported %d hexes, %d tokens, %d paths.", c.Hexes, c.Tokens, c.Paths),
		At:      s.now(),
	})
	s.commit()
	return nil
}

// Clear empties the map.
func (s *Session) Clear() {
	s.doc.Clear()
	s.resetInteraction()
	s.commit()
}

// LoadStarter replaces the map with the starter layout.
func (s *Session) LoadStarter(seed int64) {
	s.loadSample(world.StarterMap(seed))
}

// Generate replaces the map with a noise-generated sample. Rivers become
// curved river paths; the draft settings are restored afterwards.
func (s *Session) Generate(cfg world.GenConfig) error {
	if cfg.Radius < 1 || cfg.Radius > 64 {
		return s.fail("generate", fmt.Errorf("radius %d: %w", cfg.Radius, ErrInvalidArgument))
	}
	sample := world.Generate(cfg)
	s.loadSample(sample)
	water := world.TerrainCounts(sample.Terrain)[world.TerrainWater]
	slog.Info("map generated", "seed", cfg.Seed, "hexes", len(sample.Terrain),
		"land", len(sample.Terrain)-water, "rivers", len(sample.Rivers))
	return nil
}

func (s *Session) loadSample(sample *world.Sample) {
	s.doc.Clear()
	s.resetInteraction()
	for _, c := range sample.Coords() {
		s.doc.SetHex(c, sample.Terrain[c])
	}

	if len(sample.Rivers) > 0 {
		saved := s.doc.PathSettings()
		s.doc.ApplyPathSettings(document.PathSettings{Type: document.PathRiver, Style: document.PathCurved, Width: document.StyleOf(document.PathRiver).Width})
		for _, river := range sample.Rivers {
			if len(river) < 2 {
				continue
			}
			s.doc.StartPath(river[0])
			for _, c := range river[1:] {
				s.doc.ExtendPath(c, document.RoutingDirect)
			}
			s.doc.FinishPath()
		}
		s.doc.ApplyPathSettings(saved)
	}

	s.doc.View = world.IdentityViewport()
	s.commit()
}

// resetInteraction drops selection, placements and animations that refer
// to the replaced document.
func (s *Session) resetInteraction() {
	s.pendingToken = nil
	s.pendingLandmark = nil
	s.routeFor = ""
	clear(s.animations)
	s.scene.SelectedHex = nil
	s.scene.SelectedToken = ""
	s.scene.SelectedPath = ""
	s.scene.HoveredPath = ""
	s.scene.PathEditMode = false
	s.scene.Preview = nil
	s.scene.Brush = nil
	s.scene.HoveredPoint, s.scene.DraggedPoint = render.NoPoint, render.NoPoint
}
