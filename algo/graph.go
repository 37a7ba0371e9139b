package algo

import (
	"errors"
	"fmt"
	"log"
	"math"
	"reflect"
	"sort"
	"strings"

	"ar-navigation/config"
	"ar-navigation/mapdata"
	"ar-navigation/model"
)

// ErrNoProjector is wrapped by the ConfigError NewGraphBuilder returns for a nil projector.
var ErrNoProjector = errors.New("no projector configured")

// Projector converts geodetic coordinates into the local frame.
type Projector interface {
	Project(model.GeodeticPoint) model.LocalPoint
}

// BuilderOptions tune deduplication and tag handling.
type BuilderOptions struct {
	Tolerance      float64 // coordinate equality tolerance in meters
	OneWayProperty string  // property whose "yes"/"1" value suppresses reverse edges
	POIProperty    string  // property naming a Point feature; empty disables POIs
}

// DefaultBuilderOptions matches the values the campus map data is authored against.
func DefaultBuilderOptions() BuilderOptions {
	return BuilderOptions{Tolerance: DefaultTolerance, OneWayProperty: "oneway", POIProperty: "name"}
}

// GraphBuilder turns map feature collections into a deduplicated walk graph.
// It keeps no state between Ingest calls.
type GraphBuilder struct {
	projector Projector
	opts      BuilderOptions
}

// NewGraphBuilder fails with a *config.ConfigError if projector is nil, including
// a nil pointer held in the interface.
func NewGraphBuilder(projector Projector, opts BuilderOptions) (*GraphBuilder, error) {
	if isNil(projector) {
		return nil, &config.ConfigError{Field: "projector", Reason: "graph builder needs a projector", Err: ErrNoProjector}
	}
	if !(opts.Tolerance > 0) {
		opts.Tolerance = DefaultTolerance
	}
	if opts.OneWayProperty == "" {
		opts.OneWayProperty = "oneway"
	}
	return &GraphBuilder{projector: projector, opts: opts}, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Func, reflect.Interface, reflect.Slice, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// GraphBuildResult is the graph produced by one Ingest call.
type GraphBuildResult struct {
	Nodes     map[uint64]*model.GraphNode
	NodeList  []*model.GraphNode // ascending id, which is first-seen order
	POIs      map[string]model.LocalPoint
	EdgeCount int
	// Errors holds one *mapdata.ParseError per collection that was skipped.
	Errors      []error
	Diagnostics *Diagnostics
}

// Node returns the node with id, or nil.
func (r *GraphBuildResult) Node(id uint64) *model.GraphNode {
	return r.Nodes[id]
}

// Neighbors returns the nodes reachable from id by one edge, in id order.
func (r *GraphBuildResult) Neighbors(id uint64) []*model.GraphNode {
	n := r.Nodes[id]
	if n == nil {
		return nil
	}
	ids := n.NeighborIDs()
	out := make([]*model.GraphNode, 0, len(ids))
	for _, nid := range ids {
		if nb := r.Nodes[nid]; nb != nil {
			out = append(out, nb)
		}
	}
	return out
}

// FindNearestNode is a linear planar scan. It returns nil on an empty graph.
func (r *GraphBuildResult) FindNearestNode(p model.LocalPoint) *model.GraphNode {
	var nearest *model.GraphNode
	minDist := -1.0
	for _, n := range r.NodeList {
		d := PlanarDistance(n.Position, p)
		if minDist < 0 || d < minDist {
			minDist = d
			nearest = n
		}
	}
	return nearest
}

// POINames returns the POI names sorted.
func (r *GraphBuildResult) POINames() []string {
	names := make([]string, 0, len(r.POIs))
	for name := range r.POIs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Ingest decodes every raw collection and builds a fresh graph from the ones that parse.
// Collections that fail to decode are logged, recorded in Errors and skipped.
func (b *GraphBuilder) Ingest(raws []mapdata.RawCollection) *GraphBuildResult {
	cols := make([]*mapdata.Collection, 0, len(raws))
	var errs []error
	for _, raw := range raws {
		col, err := mapdata.Decode(raw)
		if err != nil {
			log.Printf("skipping map collection: %v", err)
			errs = append(errs, err)
			continue
		}
		cols = append(cols, col)
	}
	res := b.Build(cols)
	res.Errors = append(errs, res.Errors...)
	return res
}

// Build runs both passes over already decoded collections.
// Pass one assigns a node to every coordinate of every feature; pass two adds
// edges between consecutive coordinates of path features.
func (b *GraphBuilder) Build(cols []*mapdata.Collection) *GraphBuildResult {
	st := &buildState{
		builder: b,
		index:   newNodeIndex(b.opts.Tolerance),
		nextID:  1,
		result: &GraphBuildResult{
			Nodes:       make(map[uint64]*model.GraphNode),
			POIs:        make(map[string]model.LocalPoint),
			Diagnostics: NewDiagnostics(),
		},
	}

	for _, col := range cols {
		if col.Skipped > 0 {
			st.result.Diagnostics.AddN(DiagnosticSkippedFeature, col.Source, col.Skipped)
		}
		for _, f := range col.Features {
			st.addNodes(col.Source, f)
		}
	}
	for _, col := range cols {
		for _, f := range col.Features {
			if f.IsPath() {
				st.addEdges(col.Source, f)
			}
		}
	}

	res := st.result
	log.Printf("graph built: %d nodes, %d edges, %d POIs from %d collections",
		len(res.NodeList), res.EdgeCount, len(res.POIs), len(cols))
	res.Diagnostics.LogAll("graph build")
	return res
}

// IsOneWay reports whether props mark a one-way path.
func IsOneWay(props map[string]string, key string) bool {
	v := strings.TrimSpace(props[key])
	return strings.EqualFold(v, "yes") || v == "1"
}

type buildState struct {
	builder *GraphBuilder
	index   *nodeIndex
	nextID  uint64
	result  *GraphBuildResult
}

func (st *buildState) project(source string, geo model.GeodeticPoint) (model.LocalPoint, bool) {
	p := st.builder.projector.Project(geo)
	if math.IsNaN(p.X) || math.IsNaN(p.Z) || math.IsInf(p.X, 0) || math.IsInf(p.Z, 0) {
		st.result.Diagnostics.Add(DiagnosticNonFinitePoint, source)
		return p, false
	}
	return p, true
}

func (st *buildState) addNodes(source string, f model.MapFeature) {
	for _, line := range f.Lines {
		for _, geo := range line {
			p, ok := st.project(source, geo)
			if !ok {
				continue
			}
			if _, exists := st.index.lookup(p); exists {
				continue
			}
			n := model.NewGraphNode(st.nextID, p)
			st.nextID++
			st.index.insert(n)
			st.result.Nodes[n.ID] = n
			st.result.NodeList = append(st.result.NodeList, n)
		}
	}

	if f.Kind != model.KindPoint || st.builder.opts.POIProperty == "" {
		return
	}
	name := strings.TrimSpace(f.Property(st.builder.opts.POIProperty))
	if name == "" || len(f.Lines) == 0 || len(f.Lines[0]) == 0 {
		return
	}
	if _, dup := st.result.POIs[name]; dup {
		st.result.Diagnostics.Add(DiagnosticDuplicatePOIName, name)
		return
	}
	if p, ok := st.project(source, f.Lines[0][0]); ok {
		st.result.POIs[name] = p
	}
}

// addEdges handles each line of a MultiLineString on its own, so the last point
// of one line is never joined to the first point of the next.
func (st *buildState) addEdges(source string, f model.MapFeature) {
	oneWay := IsOneWay(f.Properties, st.builder.opts.OneWayProperty)
	for _, line := range f.Lines {
		for i := 0; i+1 < len(line); i++ {
			from, okFrom := st.resolve(source, line[i])
			to, okTo := st.resolve(source, line[i+1])
			if !okFrom || !okTo {
				st.result.Diagnostics.Add(DiagnosticEdgeLookupMiss, fmt.Sprintf("%s[%d]", source, i))
				continue
			}
			if from == to {
				continue
			}
			if from.AddNeighbor(to.ID) {
				st.result.EdgeCount++
			}
			if !oneWay && to.AddNeighbor(from.ID) {
				st.result.EdgeCount++
			}
		}
	}
}

func (st *buildState) resolve(source string, geo model.GeodeticPoint) (*model.GraphNode, bool) {
	p, ok := st.project(source, geo)
	if !ok {
		return nil, false
	}
	return st.index.lookup(p)
}
