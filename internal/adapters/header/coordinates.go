package header

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/aspen/internal/ports/secondary"
)

// CoordinateReader implements secondary.CoordinateReader for the two layouts
// the localisation tools write: a headed TSV (name, x, y, z) and a plain text
// matrix with one contact per line, optionally led by the contact name.
type CoordinateReader struct{}

// NewCoordinateReader creates a new CoordinateReader.
func NewCoordinateReader() *CoordinateReader {
	return &CoordinateReader{}
}

var _ secondary.CoordinateReader = (*CoordinateReader)(nil)

// ReadCoordinates implements secondary.CoordinateReader.
func (r *CoordinateReader) ReadCoordinates(ctx context.Context, path string) ([]secondary.Coordinate, error) {
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		return readCoordinateTSV(path)
	}
	return readCoordinateText(path)
}

func readCoordinateTSV(path string) ([]secondary.Coordinate, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	rows, err := readTSV(path)
	if err != nil {
		return nil, err
	}
	coords := make([]secondary.Coordinate, 0, len(rows))
	for i, row := range rows {
		c := secondary.Coordinate{Name: row["name"]}
		for _, axis := range []struct {
			name string
			dst  *float64
		}{{"x", &c.X}, {"y", &c.Y}, {"z", &c.Z}} {
			v, err := number(row[axis.name])
			if err != nil {
				return nil, fmt.Errorf("%s row %d: %s: %w", path, i+1, axis.name, err)
			}
			*axis.dst = v
		}
		coords = append(coords, c)
	}
	return coords, nil
}

func readCoordinateText(path string) ([]secondary.Coordinate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	var coords []secondary.Coordinate
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}

		var c secondary.Coordinate
		if _, err := strconv.ParseFloat(fields[0], 64); err != nil {
			c.Name = fields[0]
			fields = fields[1:]
		}
		if len(fields) < 3 {
			return nil, fmt.Errorf("%s line %d: expected x y z, got %d values", path, line, len(fields))
		}
		for i, dst := range []*float64{&c.X, &c.Y, &c.Z} {
			v, err := strconv.ParseFloat(fields[i], 64)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", path, line, err)
			}
			*dst = v
		}
		coords = append(coords, c)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return coords, nil
}
