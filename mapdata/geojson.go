package mapdata

import (
	"fmt"

	"ar-navigation/model"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// DecodeGeoJSON reads a FeatureCollection. Point, LineString and MultiLineString
// features are kept; other geometries are counted in Skipped.
func DecodeGeoJSON(data []byte) (*Collection, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, err
	}

	col := &Collection{Features: make([]model.MapFeature, 0, len(fc.Features))}
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			col.Skipped++
			continue
		}
		feature := model.MapFeature{Properties: stringProperties(f.Properties)}
		switch g := f.Geometry.(type) {
		case orb.Point:
			feature.Kind = model.KindPoint
			feature.Lines = [][]model.GeodeticPoint{{fromOrb(g)}}
		case orb.LineString:
			feature.Kind = model.KindLineString
			feature.Lines = [][]model.GeodeticPoint{fromOrbLine(g)}
		case orb.MultiLineString:
			feature.Kind = model.KindMultiLineString
			feature.Lines = make([][]model.GeodeticPoint, 0, len(g))
			for _, ls := range g {
				feature.Lines = append(feature.Lines, fromOrbLine(ls))
			}
		default:
			col.Skipped++
			continue
		}

		ok := true
		for _, line := range feature.Lines {
			if !validLine(line) {
				ok = false
				break
			}
		}
		if !ok {
			col.Skipped++
			continue
		}
		col.Features = append(col.Features, feature)
	}
	return col, nil
}

// GeoJSON positions are [longitude, latitude].
func fromOrb(p orb.Point) model.GeodeticPoint {
	return model.GeodeticPoint{Latitude: p.Lat(), Longitude: p.Lon()}
}

func fromOrbLine(ls orb.LineString) []model.GeodeticPoint {
	line := make([]model.GeodeticPoint, len(ls))
	for i, p := range ls {
		line[i] = fromOrb(p)
	}
	return line
}

func stringProperties(props geojson.Properties) map[string]string {
	out := make(map[string]string, len(props))
	for k, v := range props {
		switch val := v.(type) {
		case nil:
			continue
		case string:
			out[k] = val
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
