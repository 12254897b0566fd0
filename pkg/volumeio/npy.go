// Package volumeio moves volumes between disk and the comparison engine.
// Arrays are stored as NumPy .npy files; the orientation transform and series
// tag travel in a YAML sidecar next to each array.
package volumeio

import (
	"fmt"
	"strings"

	"github.com/kshedden/gonpy"

	"mrichange/internal/models"
)

// LoadVolume reads a 3D .npy array of shape (X, Y, Z) and its optional
// sidecar. Floating and integer dtypes are converted to float64.
func LoadVolume(path string) (*models.Volume, error) {
	rdr, err := gonpy.NewFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if len(rdr.Shape) != 3 {
		return nil, fmt.Errorf("%s: expected a 3D array, got shape %v", path, rdr.Shape)
	}
	shape := models.Shape{X: rdr.Shape[0], Y: rdr.Shape[1], Z: rdr.Shape[2]}
	if !shape.Valid() {
		return nil, fmt.Errorf("%s: invalid shape %v", path, rdr.Shape)
	}

	raw, err := readFloat64(rdr)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(raw) != shape.Len() {
		return nil, fmt.Errorf("%s: read %d values for shape %s", path, len(raw), shape)
	}

	meta, err := readSidecar(path)
	if err != nil {
		return nil, err
	}
	if meta.Shape != nil && meta.shape() != shape {
		return nil, fmt.Errorf("%s: sidecar shape %v does not match array shape %s", path, meta.Shape, shape)
	}

	vol := models.NewVolume(shape, meta.transform())
	if rdr.ColumnMajor {
		// Fortran order already has X varying fastest
		copy(vol.Data, raw)
	} else {
		fromRowMajor(vol.Data, raw, shape)
	}
	return vol, nil
}

// readFloat64 converts whichever dtype the file holds into float64
func readFloat64(rdr *gonpy.NpyReader) ([]float64, error) {
	dtype := rdr.Dtype
	switch {
	case strings.HasSuffix(dtype, "f8"):
		return rdr.GetFloat64()
	case strings.HasSuffix(dtype, "f4"):
		return convert(rdr.GetFloat32())
	case strings.HasSuffix(dtype, "i2"):
		return convert(rdr.GetInt16())
	case strings.HasSuffix(dtype, "u2"):
		return convert(rdr.GetUint16())
	case strings.HasSuffix(dtype, "i4"):
		return convert(rdr.GetInt32())
	case strings.HasSuffix(dtype, "u1"):
		return convert(rdr.GetUint8())
	default:
		return nil, fmt.Errorf("unsupported dtype %q", dtype)
	}
}

func convert[T float32 | int16 | uint16 | int32 | uint8](data []T, err error) ([]float64, error) {
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}
	return out, nil
}

// fromRowMajor reorders a C-order (X, Y, Z) array, Z fastest, into the
// X-fastest layout used by models.Volume.
func fromRowMajor(dst, src []float64, s models.Shape) {
	for x := 0; x < s.X; x++ {
		for y := 0; y < s.Y; y++ {
			for z := 0; z < s.Z; z++ {
				dst[z*s.X*s.Y+y*s.X+x] = src[(x*s.Y+y)*s.Z+z]
			}
		}
	}
}

// SaveVolume writes v as a float64 C-order (X, Y, Z) array plus sidecar
func SaveVolume(path string, v *models.Volume) error {
	if err := v.Check(); err != nil {
		return fmt.Errorf("cannot save %s: %w", path, err)
	}
	s := v.Shape
	data := make([]float64, s.Len())
	for x := 0; x < s.X; x++ {
		for y := 0; y < s.Y; y++ {
			for z := 0; z < s.Z; z++ {
				data[(x*s.Y+y)*s.Z+z] = v.Data[z*s.X*s.Y+y*s.X+x]
			}
		}
	}

	w, err := gonpy.NewFileWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w.Shape = []int{s.X, s.Y, s.Z}
	if err := w.WriteFloat64(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return writeSidecar(path, newSidecar(s, v.Transform, ""))
}

// SaveChangeField writes a change field the same way as SaveVolume
func SaveChangeField(path string, c *models.ChangeField, xform models.Transform) error {
	return SaveVolume(path, &models.Volume{Data: c.Data, Shape: c.Shape, Transform: xform})
}

// SaveRGB writes an RGB rendering as a uint8 C-order (X, Y, Z, 3) array plus
// a sidecar carrying its transform and series tag.
func SaveRGB(path string, v *models.RGBVolume) error {
	s := v.Shape
	if len(v.Data) != s.Len()*3 {
		return fmt.Errorf("cannot save %s: RGB data has %d bytes, shape %s needs %d", path, len(v.Data), s, s.Len()*3)
	}
	data := make([]uint8, len(v.Data))
	for x := 0; x < s.X; x++ {
		for y := 0; y < s.Y; y++ {
			for z := 0; z < s.Z; z++ {
				src := (z*s.X*s.Y + y*s.X + x) * 3
				dst := ((x*s.Y+y)*s.Z + z) * 3
				copy(data[dst:dst+3], v.Data[src:src+3])
			}
		}
	}

	w, err := gonpy.NewFileWriter(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w.Shape = []int{s.X, s.Y, s.Z, 3}
	if err := w.WriteUint8(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return writeSidecar(path, newSidecar(s, v.Transform, v.Series))
}
