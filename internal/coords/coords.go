// Package coords parses user-supplied coordinate text into a validated
// latitude/longitude pair. The parser tolerates locales that use the comma as
// the decimal separator.
package coords

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/UnknownOlympus/usermap/internal/models"
)

// ErrMalformed is returned when the input does not contain two decimal numbers.
var ErrMalformed = errors.New("input does not contain a coordinate pair")

var (
	// Two dot-decimal numbers separated by non-numeric, non-dot characters.
	dotPair = regexp.MustCompile(`^(-?\d+(?:\.\d+)?)[^\d.+-]+(-?\d+(?:\.\d+)?)$`)
	// Comma-decimal variant: both numbers must carry a comma (integer pairs
	// already matched the dot path), so a lone "1.5" cannot split into (1, 5).
	commaPair = regexp.MustCompile(`^(-?\d+,\d+)[^\d,+-]+(-?\d+,\d+)$`)
)

// Parse extracts a (latitude, longitude) pair from raw user text.
// It first treats `.` as the decimal separator; if that fails it retries with
// `,` as the decimal separator, so both "37.7749, -122.4194" and
// "37,7749; -122,4194" yield the same pair. Range validation is deliberately
// not performed here; it is the caller's policy.
func Parse(text string) (models.Coordinates, error) {
	text = strings.TrimSpace(text)

	match := dotPair.FindStringSubmatch(text)
	if match == nil {
		match = commaPair.FindStringSubmatch(text)
		if match == nil {
			return models.Coordinates{}, ErrMalformed
		}
		match[1] = strings.ReplaceAll(match[1], ",", ".")
		match[2] = strings.ReplaceAll(match[2], ",", ".")
	}

	lat, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return models.Coordinates{}, ErrMalformed
	}
	lng, err := strconv.ParseFloat(match[2], 64)
	if err != nil {
		return models.Coordinates{}, ErrMalformed
	}

	return models.Coordinates{Latitude: lat, Longitude: lng}, nil
}

// InRange reports whether the pair lies within the valid geographic ranges,
// latitude in [-90, 90] and longitude in [-180, 180].
func InRange(c models.Coordinates) bool {
	return c.Latitude >= -90 && c.Latitude <= 90 &&
		c.Longitude >= -180 && c.Longitude <= 180
}
