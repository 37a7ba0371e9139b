package mapdata

import (
	"encoding/xml"

	"ar-navigation/model"

	"github.com/paulmach/osm"
)

// DecodeOSM reads an OSM XML document. Every way becomes a LineString carrying the
// way's tags; tagged nodes become Points. Way nodes whose coordinates are not in the
// document are dropped, and a way left with fewer than two nodes is skipped.
func DecodeOSM(data []byte) (*Collection, error) {
	var doc osm.OSM
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	coords := make(map[osm.NodeID]model.GeodeticPoint, len(doc.Nodes))
	col := &Collection{}
	for _, n := range doc.Nodes {
		p := model.GeodeticPoint{Latitude: n.Lat, Longitude: n.Lon}
		if !validCoordinate(p) {
			col.Skipped++
			continue
		}
		coords[n.ID] = p
		if len(n.Tags) == 0 {
			continue
		}
		col.Features = append(col.Features, model.MapFeature{
			Kind:       model.KindPoint,
			Lines:      [][]model.GeodeticPoint{{p}},
			Properties: n.Tags.Map(),
		})
	}

	for _, w := range doc.Ways {
		line := make([]model.GeodeticPoint, 0, len(w.Nodes))
		for _, wn := range w.Nodes {
			if p, ok := coords[wn.ID]; ok {
				line = append(line, p)
				continue
			}
			if wn.Lat != 0 || wn.Lon != 0 {
				p := model.GeodeticPoint{Latitude: wn.Lat, Longitude: wn.Lon}
				if validCoordinate(p) {
					line = append(line, p)
				}
			}
		}
		if len(line) < 2 {
			col.Skipped++
			continue
		}
		col.Features = append(col.Features, model.MapFeature{
			Kind:       model.KindLineString,
			Lines:      [][]model.GeodeticPoint{line},
			Properties: w.Tags.Map(),
		})
	}
	return col, nil
}
