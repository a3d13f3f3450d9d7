package render

import (
	"log/slog"
	"math"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
)

var (
	fontOnce sync.Once
	boldFont *truetype.Font

	faceMu sync.Mutex
	faces  = make(map[int]font.Face)
)

// boldFace returns a bold face at size px, or nil when the font failed to
// load, in which case labels are skipped.
func boldFace(size float64) font.Face {
	fontOnce.Do(func() {
		f, err := truetype.Parse(gobold.TTF)
		if err != nil {
			slog.Error("failed to parse label font", "error", err)
			return
		}
		boldFont = f
	})
	if boldFont == nil {
		return nil
	}

	key := int(math.Round(size))
	if key < 1 {
		key = 1
	}
	faceMu.Lock()
	defer faceMu.Unlock()
	if f, ok := faces[key]; ok {
		return f
	}
	f := truetype.NewFace(boldFont, &truetype.Options{
		Size:    float64(key),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	faces[key] = f
	return f
}
