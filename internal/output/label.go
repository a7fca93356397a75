package output

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/forest-guardian/global-mining-labels/internal/geo"
	"github.com/forest-guardian/global-mining-labels/internal/labels"
	"github.com/forest-guardian/global-mining-labels/internal/properties"
)

// Writer persists final label masks. The label file carries the raw codes
// 0/1/2 in a single 8-bit channel; the preview, when enabled, is written next
// to it with a "_preview" suffix.
type Writer struct {
	Preview bool
}

func (w Writer) WriteLabel(path string, mask labels.LabelMask) error {
	if len(mask.Pix) != mask.Shape.Len() {
		return fmt.Errorf("label %s: %d pixels for shape %s", path, len(mask.Pix), mask.Shape)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create label directory: %w", err)
	}
	if err := writePNG(path, grayImage(mask)); err != nil {
		return err
	}
	if w.Preview {
		return WritePreview(PreviewPath(path), mask)
	}
	return nil
}

func PreviewPath(labelPath string) string {
	ext := filepath.Ext(labelPath)
	return labelPath[:len(labelPath)-len(ext)] + "_preview.png"
}

func grayImage(mask labels.LabelMask) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, mask.Shape.Width, mask.Shape.Height))
	for row := 0; row < mask.Shape.Height; row++ {
		copy(img.Pix[row*img.Stride:], mask.Pix[row*mask.Shape.Width:(row+1)*mask.Shape.Width])
	}
	return img
}

// writePNG encodes through a temporary file in the target directory so a
// failed run never leaves a truncated label behind.
func writePNG(path string, img image.Image) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".label-*.png")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename into %s: %w", path, err)
	}
	return nil
}

// WritePreview renders the mask with properties.ColorMap.
func WritePreview(path string, mask labels.LabelMask) error {
	width, height := mask.Shape.Width, mask.Shape.Height
	dc := gg.NewContext(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := properties.ColorMap[mask.At(y, x)]
			dc.SetRGB255(int(c.R), int(c.G), int(c.B))
			dc.SetPixel(x, y)
		}
	}
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("failed to save preview %s: %w", path, err)
	}
	return nil
}

// ReadLabel decodes a label PNG written by WriteLabel.
func ReadLabel(path string) (labels.LabelMask, error) {
	f, err := os.Open(path)
	if err != nil {
		return labels.LabelMask{}, err
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return labels.LabelMask{}, fmt.Errorf("decode %s: %w", path, err)
	}
	b := img.Bounds()
	mask := labels.NewLabelMask(geo.Shape{Height: b.Dy(), Width: b.Dx()})
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			mask.Pix[(y-b.Min.Y)*mask.Shape.Width+(x-b.Min.X)] = g.Y
		}
	}
	return mask, nil
}
