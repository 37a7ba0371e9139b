package mapdata

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ar-navigation/model"
)

const sampleGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"name": "Library", "level": 2},
     "geometry": {"type": "Point", "coordinates": [170.51741, -45.86428]}},
    {"type": "Feature", "properties": {"oneway": "yes"},
     "geometry": {"type": "LineString", "coordinates": [[170.51731, -45.86438], [170.51741, -45.86428]]}},
    {"type": "Feature", "properties": {},
     "geometry": {"type": "MultiLineString", "coordinates": [
        [[170.5170, -45.8640], [170.5171, -45.8641]],
        [[170.5172, -45.8642], [170.5173, -45.8643]]]}},
    {"type": "Feature", "properties": {},
     "geometry": {"type": "Polygon", "coordinates": [[[170.5, -45.8], [170.6, -45.8], [170.6, -45.9], [170.5, -45.8]]]}}
  ]
}`

func TestDecodeGeoJSON(t *testing.T) {
	col, err := Decode(RawCollection{Source: "campus", Format: FormatGeoJSON, Data: []byte(sampleGeoJSON)})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if col.Source != "campus" {
		t.Errorf("source = %q", col.Source)
	}
	if len(col.Features) != 3 {
		t.Fatalf("got %d features, want 3", len(col.Features))
	}
	if col.Skipped != 1 {
		t.Errorf("skipped = %d, want 1 (the polygon)", col.Skipped)
	}

	poi := col.Features[0]
	if poi.Kind != model.KindPoint || poi.Property("name") != "Library" {
		t.Errorf("first feature = %+v", poi)
	}
	if poi.Property("level") != "2" {
		t.Errorf("numeric property = %q, want \"2\"", poi.Property("level"))
	}
	if got := poi.Lines[0][0]; got.Latitude != -45.86428 || got.Longitude != 170.51741 {
		t.Errorf("point = %+v, coordinates must be read as [lon, lat]", got)
	}

	line := col.Features[1]
	if line.Kind != model.KindLineString || len(line.Lines) != 1 || len(line.Lines[0]) != 2 {
		t.Errorf("line feature = %+v", line)
	}
	if line.Property("oneway") != "yes" {
		t.Errorf("oneway = %q", line.Property("oneway"))
	}

	multi := col.Features[2]
	if multi.Kind != model.KindMultiLineString || len(multi.Lines) != 2 {
		t.Errorf("multi feature = %+v", multi)
	}
}

func TestDecodeFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  RawCollection
	}{
		{"invalid json", RawCollection{Source: "bad", Format: FormatGeoJSON, Data: []byte(`{"type": "FeatureCollection", "features": [`)}},
		{"empty", RawCollection{Source: "empty", Format: FormatGeoJSON}},
		{"fetch error", RawCollection{Source: "gone", Format: FormatGeoJSON, Err: os.ErrNotExist}},
		{"unknown format", RawCollection{Source: "shp", Format: "shapefile", Data: []byte("x")}},
		{"invalid xml", RawCollection{Source: "osm", Format: FormatOSM, Data: []byte("<osm><node")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.raw)
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("err = %v, want *ParseError", err)
			}
			if perr.Source != tt.raw.Source {
				t.Errorf("source = %q, want %q", perr.Source, tt.raw.Source)
			}
		})
	}
}

func TestParseErrorMessage(t *testing.T) {
	err := &ParseError{Source: "campus", Err: errors.New("boom")}
	if got := err.Error(); got != "parse failure for source campus: boom" {
		t.Errorf("Error() = %q", got)
	}
}

const sampleOSM = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="1" lat="-45.86438" lon="170.51731"/>
  <node id="2" lat="-45.86428" lon="170.51741">
    <tag k="name" v="Clocktower"/>
  </node>
  <node id="3" lat="-45.86418" lon="170.51751"/>
  <way id="10">
    <nd ref="1"/>
    <nd ref="2"/>
    <nd ref="3"/>
    <tag k="highway" v="footway"/>
    <tag k="oneway" v="yes"/>
  </way>
  <way id="11">
    <nd ref="1"/>
    <nd ref="99"/>
  </way>
</osm>`

func TestDecodeOSM(t *testing.T) {
	col, err := Decode(RawCollection{Source: "osm", Format: FormatOSM, Data: []byte(sampleOSM)})
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if len(col.Features) != 2 {
		t.Fatalf("got %d features, want 2", len(col.Features))
	}
	if col.Skipped != 1 {
		t.Errorf("skipped = %d, want 1 (way with an unknown node)", col.Skipped)
	}

	poi := col.Features[0]
	if poi.Kind != model.KindPoint || poi.Property("name") != "Clocktower" {
		t.Errorf("poi = %+v", poi)
	}
	way := col.Features[1]
	if way.Kind != model.KindLineString || len(way.Lines[0]) != 3 {
		t.Errorf("way = %+v", way)
	}
	if way.Property("oneway") != "yes" {
		t.Errorf("way tags = %v", way.Properties)
	}
}

func TestFormatFromPath(t *testing.T) {
	tests := map[string]Format{
		"campus.geojson": FormatGeoJSON,
		"campus.json":    FormatGeoJSON,
		"city.osm":       FormatOSM,
		"city.OSM":       FormatOSM,
	}
	for path, want := range tests {
		if got := FormatFromPath(path); got != want {
			t.Errorf("FormatFromPath(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestLoadFromFiles(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "campus.geojson"), []byte(sampleGeoJSON), 0o644); err != nil {
		t.Fatal(err)
	}
	raws := Load(context.Background(), FileSource{Root: dir}, []SourceSpec{
		{Name: "campus", Location: "campus.geojson"},
		{Name: "missing", Location: "missing.osm"},
	})
	if len(raws) != 2 {
		t.Fatalf("got %d raws, want 2", len(raws))
	}
	if raws[0].Err != nil || raws[0].Format != FormatGeoJSON || len(raws[0].Data) == 0 {
		t.Errorf("first raw = %+v", raws[0])
	}
	if raws[1].Err == nil || raws[1].Format != FormatOSM {
		t.Errorf("second raw should carry the read error, got %+v", raws[1])
	}
}
