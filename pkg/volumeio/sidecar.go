package volumeio

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"mrichange/internal/models"
)

// SidecarPath returns the metadata file stored next to an array
func SidecarPath(path string) string {
	return path + ".yaml"
}

type sidecar struct {
	Shape     []int       `yaml:"shape,omitempty"`
	Transform [][]float64 `yaml:"transform,omitempty"`
	Series    string      `yaml:"series,omitempty"`
}

func newSidecar(s models.Shape, xform models.Transform, series models.Series) sidecar {
	rows := make([][]float64, 4)
	for i := range rows {
		rows[i] = append([]float64(nil), xform[i][:]...)
	}
	return sidecar{
		Shape:     []int{s.X, s.Y, s.Z},
		Transform: rows,
		Series:    string(series),
	}
}

func (m sidecar) shape() models.Shape {
	if len(m.Shape) != 3 {
		return models.Shape{}
	}
	return models.Shape{X: m.Shape[0], Y: m.Shape[1], Z: m.Shape[2]}
}

// transform returns the stored affine, or identity when none was stored
func (m sidecar) transform() models.Transform {
	if len(m.Transform) != 4 {
		return models.IdentityTransform()
	}
	var t models.Transform
	for i, row := range m.Transform {
		if len(row) != 4 {
			return models.IdentityTransform()
		}
		copy(t[i][:], row)
	}
	return t
}

// readSidecar loads the metadata for path. A missing sidecar is not an error.
func readSidecar(path string) (sidecar, error) {
	var m sidecar
	data, err := os.ReadFile(SidecarPath(path))
	if os.IsNotExist(err) {
		return m, nil
	}
	if err != nil {
		return m, fmt.Errorf("error reading sidecar for %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("error parsing sidecar for %s: %w", path, err)
	}
	if m.Transform != nil {
		if len(m.Transform) != 4 {
			return m, fmt.Errorf("sidecar for %s: transform must have 4 rows", path)
		}
		for _, row := range m.Transform {
			if len(row) != 4 {
				return m, fmt.Errorf("sidecar for %s: transform rows must have 4 values", path)
			}
		}
	}
	return m, nil
}

func writeSidecar(path string, m sidecar) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("error marshaling sidecar for %s: %w", path, err)
	}
	if err := os.WriteFile(SidecarPath(path), data, 0644); err != nil {
		return fmt.Errorf("error writing sidecar for %s: %w", path, err)
	}
	return nil
}

// ReadSeries returns the series tag recorded next to an RGB array
func ReadSeries(path string) (models.Series, error) {
	m, err := readSidecar(path)
	if err != nil {
		return "", err
	}
	return models.Series(m.Series), nil
}
