package output

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/forest-guardian/global-mining-labels/internal/geo"
)

// Stretch maps reflectance linearly onto 0..255, clipping outside [Min, Max].
type Stretch struct {
	Min, Max float64
}

func (s Stretch) Byte(v float64) uint8 {
	if math.IsNaN(v) || v <= s.Min {
		return 0
	}
	if v >= s.Max {
		return 255
	}
	return uint8(math.Round((v - s.Min) / (s.Max - s.Min) * 255))
}

// WriteRGB renders three bands as a true colour PNG.
func WriteRGB(path string, red, green, blue []float64, shape geo.Shape, stretch Stretch) error {
	if stretch.Max <= stretch.Min {
		return fmt.Errorf("invalid stretch %v..%v", stretch.Min, stretch.Max)
	}
	names := [3]string{"red", "green", "blue"}
	for i, band := range [3][]float64{red, green, blue} {
		if len(band) != shape.Len() {
			return fmt.Errorf("rgb %s: %s band has %d values, want %d", path, names[i], len(band), shape.Len())
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create rgb directory: %w", err)
	}

	dc := gg.NewContext(shape.Width, shape.Height)
	for y := 0; y < shape.Height; y++ {
		for x := 0; x < shape.Width; x++ {
			i := y*shape.Width + x
			dc.SetRGB255(int(stretch.Byte(red[i])), int(stretch.Byte(green[i])), int(stretch.Byte(blue[i])))
			dc.SetPixel(x, y)
		}
	}
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("failed to save rgb %s: %w", path, err)
	}
	return nil
}
