// Package export regenerates the map-consumable artifact from the full set of
// stored location records. The artifact is a derived view: every call fully
// overwrites the destination, nothing is incremental.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/usermap/internal/models"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// ErrUnsupportedFormat is returned when the destination suffix is neither
// .csv nor .json.
var ErrUnsupportedFormat = errors.New("unsupported export format")

const fileMode = 0o644

// Exporter writes the record set to a single destination file, with the
// format selected by the file suffix.
type Exporter struct {
	path string
	log  *slog.Logger
}

// NewExporter creates an Exporter writing to the given destination path.
func NewExporter(path string, log *slog.Logger) *Exporter {
	return &Exporter{path: path, log: log}
}

// Write regenerates the destination artifact from records.
func (e *Exporter) Write(ctx context.Context, records []models.Location) error {
	var (
		data []byte
		err  error
	)

	switch {
	case strings.HasSuffix(e.path, ".csv"):
		data, err = encodeCSV(records)
	case strings.HasSuffix(e.path, ".json"):
		data, err = encodeGeoJSON(records)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, e.path)
	}
	if err != nil {
		return err
	}

	if err = os.WriteFile(e.path, data, fileMode); err != nil {
		return fmt.Errorf("failed to write export file: %w", err)
	}

	e.log.DebugContext(ctx, "Export artifact regenerated", "path", e.path, "records", len(records))

	return nil
}

// encodeCSV renders records as `lat,lon,name` rows. The user id is
// deliberately not exported.
func encodeCSV(records []models.Location) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"lat", "lon", "name"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, rec := range records {
		row := []string{formatCoord(rec.Latitude), formatCoord(rec.Longitude), rec.DisplayName}
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush CSV: %w", err)
	}

	return buf.Bytes(), nil
}

// encodeGeoJSON renders records as an array of Point features with GeoJSON's
// lon/lat axis order.
func encodeGeoJSON(records []models.Location) ([]byte, error) {
	features := make([]*geojson.Feature, 0, len(records))
	for _, rec := range records {
		features = append(features, &geojson.Feature{
			Geometry:   geom.NewPointFlat(geom.XY, []float64{rec.Longitude, rec.Latitude}),
			Properties: map[string]interface{}{"name": rec.DisplayName},
		})
	}

	data, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("failed to encode GeoJSON: %w", err)
	}

	return data, nil
}

// formatCoord renders a coordinate with at least one fractional digit, so a
// whole-number coordinate comes out as "1.0" rather than "1".
func formatCoord(value float64) string {
	s := strconv.FormatFloat(value, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}

	return s
}
