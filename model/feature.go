package model

// GeometryKind is the geometry type of a MapFeature.
type GeometryKind int

const (
	KindPoint GeometryKind = iota
	KindLineString
	KindMultiLineString
)

func (k GeometryKind) String() string {
	switch k {
	case KindPoint:
		return "Point"
	case KindLineString:
		return "LineString"
	case KindMultiLineString:
		return "MultiLineString"
	}
	return "Unknown"
}

// MapFeature is one decoded map feature.
// A Point has a single line holding one coordinate, a LineString has one line,
// a MultiLineString has one entry per constituent line.
type MapFeature struct {
	Kind       GeometryKind
	Lines      [][]GeodeticPoint
	Properties map[string]string
}

// Property returns the named property, or "" when absent.
func (f MapFeature) Property(key string) string {
	if f.Properties == nil {
		return ""
	}
	return f.Properties[key]
}

// IsPath reports whether the feature contributes edges.
func (f MapFeature) IsPath() bool {
	return f.Kind == KindLineString || f.Kind == KindMultiLineString
}
