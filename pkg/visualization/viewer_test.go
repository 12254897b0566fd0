package visualization

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"testing"

	"mrichange/internal/models"
)

// newTestVolume fills an RGB volume so each voxel encodes its coordinates
func newTestVolume(width, height, depth int) *models.RGBVolume {
	shape := models.Shape{X: width, Y: height, Z: depth}
	vol := models.NewRGBVolume(shape, models.IdentityTransform(), models.SeriesIncrease)
	for z := 0; z < depth; z++ {
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				off := (z*width*height + y*width + x) * 3
				vol.Data[off] = uint8(x * 10)
				vol.Data[off+1] = uint8(y * 10)
				vol.Data[off+2] = uint8(z * 10)
			}
		}
	}
	return vol
}

// TestExtractSlice verifies that slices are correctly extracted from the volume
func TestExtractSlice(t *testing.T) {
	width, height, depth := 6, 5, 4
	viewer := NewViewer(newTestVolume(width, height, depth))

	// Test extracting Z slices
	for z := 0; z < depth; z++ {
		img, err := viewer.ExtractSlice("z", z)
		if err != nil {
			t.Fatalf("Failed to extract Z slice at position %d: %v", z, err)
		}

		bounds := img.Bounds()
		if bounds.Dx() != width || bounds.Dy() != height {
			t.Errorf("Expected Z slice dimensions %dx%d, got %dx%d",
				width, height, bounds.Dx(), bounds.Dy())
		}

		rgba, ok := img.(*image.RGBA)
		if !ok {
			t.Fatalf("Expected *image.RGBA, got %T", img)
		}

		c := rgba.RGBAAt(3, 2)
		if c.R != 30 || c.G != 20 || c.B != uint8(z*10) || c.A != 255 {
			t.Errorf("Unexpected color at (3,2) of Z slice %d: %+v", z, c)
		}
	}

	// Test extracting X slice
	imgX, err := viewer.ExtractSlice("x", 4)
	if err != nil {
		t.Fatalf("Failed to extract X slice: %v", err)
	}
	boundsX := imgX.Bounds()
	if boundsX.Dx() != depth || boundsX.Dy() != height {
		t.Errorf("Expected X slice dimensions %dx%d, got %dx%d",
			depth, height, boundsX.Dx(), boundsX.Dy())
	}
	if c := imgX.(*image.RGBA).RGBAAt(2, 1); c.R != 40 || c.G != 10 || c.B != 20 {
		t.Errorf("Unexpected color at (z=2,y=1) of X slice: %+v", c)
	}

	// Test extracting Y slice
	imgY, err := viewer.ExtractSlice("y", 1)
	if err != nil {
		t.Fatalf("Failed to extract Y slice: %v", err)
	}
	boundsY := imgY.Bounds()
	if boundsY.Dx() != width || boundsY.Dy() != depth {
		t.Errorf("Expected Y slice dimensions %dx%d, got %dx%d",
			width, depth, boundsY.Dx(), boundsY.Dy())
	}

	// Test invalid axis
	if _, err := viewer.ExtractSlice("invalid", 0); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}

	// Test out of bounds position
	if _, err := viewer.ExtractSlice("z", depth); err == nil {
		t.Error("Expected error for out of bounds position, got nil")
	}
	if _, err := viewer.ExtractSlice("x", -1); err == nil {
		t.Error("Expected error for negative position, got nil")
	}
}

// TestSaveSlice verifies that slices can be saved in every supported format
func TestSaveSlice(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	tempDir := t.TempDir()
	viewer := NewViewer(newTestVolume(8, 8, 2))

	img, err := viewer.ExtractSlice("z", 0)
	if err != nil {
		t.Fatalf("Failed to extract slice: %v", err)
	}

	for _, name := range []string{"slice.png", "slice.jpg", "slice.tiff"} {
		filename := filepath.Join(tempDir, name)
		if err := viewer.SaveSlice(img, filename); err != nil {
			t.Fatalf("Failed to save %s: %v", name, err)
		}
		if info, err := os.Stat(filename); err != nil || info.Size() == 0 {
			t.Errorf("Saved file missing or empty: %s", filename)
		}
	}

	if err := viewer.SaveSlice(img, filepath.Join(tempDir, "slice.bmp")); err == nil {
		t.Error("Expected error for unsupported extension, got nil")
	}
}

// TestSaveSliceSequence verifies that a sequence of slices can be saved
func TestSaveSliceSequence(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping file I/O test in short mode")
	}

	width, height, depth := 5, 5, 3
	viewer := NewViewer(newTestVolume(width, height, depth))

	outputDir := filepath.Join(t.TempDir(), "slices")
	if err := viewer.SaveSliceSequence("z", "png", outputDir); err != nil {
		t.Fatalf("Failed to save slice sequence: %v", err)
	}

	for z := 0; z < depth; z++ {
		filename := filepath.Join(outputDir, fmt.Sprintf("slice_z_%03d.png", z))
		if _, err := os.Stat(filename); os.IsNotExist(err) {
			t.Errorf("Expected slice file does not exist: %s", filename)
		}
	}

	if err := viewer.SaveSliceSequence("invalid", "png", outputDir); err == nil {
		t.Error("Expected error for invalid axis, got nil")
	}
	if err := viewer.SaveSliceSequence("z", "gif", outputDir); err == nil {
		t.Error("Expected error for invalid format, got nil")
	}
}
