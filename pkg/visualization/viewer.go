package visualization

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/tiff"

	"mrichange/internal/models"
)

// Viewer cuts 2D slices out of a rendered change volume for review
type Viewer struct {
	volume *models.RGBVolume
}

// NewViewer creates a viewer over an RGB rendering
func NewViewer(volume *models.RGBVolume) *Viewer {
	return &Viewer{volume: volume}
}

// ExtractSlice extracts a 2D slice from the 3D volume along the specified axis
func (v *Viewer) ExtractSlice(axis string, position int) (image.Image, error) {
	if position < 0 {
		return nil, fmt.Errorf("position must be non-negative")
	}

	s := v.volume.Shape
	var img *image.RGBA

	switch axis {
	case "x", "X":
		// Extract slice along YZ plane
		if position >= s.X {
			return nil, fmt.Errorf("position %d exceeds width %d", position, s.X)
		}

		img = image.NewRGBA(image.Rect(0, 0, s.Z, s.Y))
		for y := 0; y < s.Y; y++ {
			for z := 0; z < s.Z; z++ {
				img.SetRGBA(z, y, v.colorAt(position, y, z))
			}
		}

	case "y", "Y":
		// Extract slice along XZ plane
		if position >= s.Y {
			return nil, fmt.Errorf("position %d exceeds height %d", position, s.Y)
		}

		img = image.NewRGBA(image.Rect(0, 0, s.X, s.Z))
		for z := 0; z < s.Z; z++ {
			for x := 0; x < s.X; x++ {
				img.SetRGBA(x, z, v.colorAt(x, position, z))
			}
		}

	case "z", "Z":
		// Extract slice along XY plane
		if position >= s.Z {
			return nil, fmt.Errorf("position %d exceeds depth %d", position, s.Z)
		}

		img = image.NewRGBA(image.Rect(0, 0, s.X, s.Y))
		for y := 0; y < s.Y; y++ {
			for x := 0; x < s.X; x++ {
				img.SetRGBA(x, y, v.colorAt(x, y, position))
			}
		}

	default:
		return nil, fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	return img, nil
}

func (v *Viewer) colorAt(x, y, z int) color.RGBA {
	r, g, b := v.volume.At(x, y, z)
	return color.RGBA{R: r, G: g, B: b, A: 255}
}

// SaveSlice writes an extracted slice, choosing the encoder from the file extension
func (v *Viewer) SaveSlice(img image.Image, filename string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		err = png.Encode(file, img)
	case ".jpg", ".jpeg":
		err = jpeg.Encode(file, img, &jpeg.Options{Quality: 90})
	case ".tif", ".tiff":
		err = tiff.Encode(file, img, &tiff.Options{Compression: tiff.Deflate})
	default:
		return fmt.Errorf("unsupported slice format: %s", filename)
	}
	if err != nil {
		return err
	}
	return file.Close()
}

// extension maps a configured slice format to a file extension
func extension(format string) (string, error) {
	switch format {
	case "png":
		return "png", nil
	case "jpeg", "jpg":
		return "jpg", nil
	case "tiff", "tif":
		return "tif", nil
	default:
		return "", fmt.Errorf("invalid slice format: %s (must be png, jpeg, or tiff)", format)
	}
}

// SaveSliceSequence extracts and saves every slice along the specified axis
func (v *Viewer) SaveSliceSequence(axis, format, outputDir string) error {
	ext, err := extension(format)
	if err != nil {
		return err
	}

	var maxPos int
	switch axis {
	case "x", "X":
		maxPos = v.volume.Shape.X
	case "y", "Y":
		maxPos = v.volume.Shape.Y
	case "z", "Z":
		maxPos = v.volume.Shape.Z
	default:
		return fmt.Errorf("invalid axis: %s (must be x, y, or z)", axis)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return err
	}

	for pos := 0; pos < maxPos; pos++ {
		img, err := v.ExtractSlice(axis, pos)
		if err != nil {
			return err
		}

		filename := filepath.Join(outputDir, fmt.Sprintf("slice_%s_%03d.%s", strings.ToLower(axis), pos, ext))
		if err := v.SaveSlice(img, filename); err != nil {
			return err
		}
	}

	return nil
}
