// Package mapdata turns raw GeoJSON or OSM XML documents into geodetic map features.
package mapdata

import (
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"ar-navigation/model"
)

// Format names the encoding of a raw collection.
type Format string

const (
	FormatGeoJSON Format = "geojson"
	FormatOSM     Format = "osm"
)

// FormatFromPath picks a format from the file extension, defaulting to GeoJSON.
func FormatFromPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".osm", ".xml":
		return FormatOSM
	}
	return FormatGeoJSON
}

// RawCollection is an undecoded document as fetched from a source.
// Err is set when the fetch itself failed; decoding such a collection always fails.
type RawCollection struct {
	Source string
	Format Format
	Data   []byte
	Err    error
}

// Collection is the decoded form of one RawCollection.
type Collection struct {
	Source   string
	Features []model.MapFeature
	// Skipped counts features dropped for an unsupported geometry or bad coordinates.
	Skipped int
}

// ParseError marks a collection that could not be decoded. It is recoverable:
// the collection is skipped and the build carries on.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse failure for source %s: %v", e.Source, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ErrEmptyDocument is wrapped by a ParseError for zero-length input.
var ErrEmptyDocument = errors.New("empty document")

// Decode dispatches on raw.Format. Every failure is returned as a *ParseError.
func Decode(raw RawCollection) (*Collection, error) {
	if raw.Err != nil {
		return nil, &ParseError{Source: raw.Source, Err: raw.Err}
	}
	if len(raw.Data) == 0 {
		return nil, &ParseError{Source: raw.Source, Err: ErrEmptyDocument}
	}
	var (
		col *Collection
		err error
	)
	switch raw.Format {
	case FormatOSM:
		col, err = DecodeOSM(raw.Data)
	case FormatGeoJSON, "":
		col, err = DecodeGeoJSON(raw.Data)
	default:
		err = fmt.Errorf("unsupported format %q", raw.Format)
	}
	if err != nil {
		return nil, &ParseError{Source: raw.Source, Err: err}
	}
	col.Source = raw.Source
	return col, nil
}

func validCoordinate(p model.GeodeticPoint) bool {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) || math.IsInf(p.Latitude, 0) || math.IsInf(p.Longitude, 0) {
		return false
	}
	return p.Latitude >= -90 && p.Latitude <= 90 && p.Longitude >= -180 && p.Longitude <= 180
}

func validLine(line []model.GeodeticPoint) bool {
	for _, p := range line {
		if !validCoordinate(p) {
			return false
		}
	}
	return true
}
