package algo

import (
	"fmt"
	"log"
	"sort"
	"strings"
)

// These are the diagnostic kinds collected while building a graph.
const (
	DiagnosticSkippedFeature   = "skipped_feature"
	DiagnosticNonFinitePoint   = "non_finite_point"
	DiagnosticEdgeLookupMiss   = "edge_lookup_miss"
	DiagnosticDuplicatePOIName = "duplicate_poi_name"
)

type diagnosticInfo struct {
	count    int
	examples []string
}

// Diagnostics aggregates non-fatal build conditions into one log line per kind.
type Diagnostics struct {
	entries map[string]*diagnosticInfo
}

func NewDiagnostics() *Diagnostics {
	return &Diagnostics{entries: make(map[string]*diagnosticInfo)}
}

// Add records one occurrence with an example identifier. Up to 3 examples are kept.
func (d *Diagnostics) Add(kind, example string) {
	info := d.entries[kind]
	if info == nil {
		info = &diagnosticInfo{examples: make([]string, 0, 3)}
		d.entries[kind] = info
	}
	info.count++
	if len(info.examples) < 3 {
		info.examples = append(info.examples, example)
	}
}

// AddN records n occurrences attributed to one example.
func (d *Diagnostics) AddN(kind, example string, n int) {
	for i := 0; i < n; i++ {
		d.Add(kind, example)
	}
}

// Count returns the number of occurrences recorded for kind.
func (d *Diagnostics) Count(kind string) int {
	if info := d.entries[kind]; info != nil {
		return info.count
	}
	return 0
}

// Counts returns a copy of every kind's count.
func (d *Diagnostics) Counts() map[string]int {
	out := make(map[string]int, len(d.entries))
	for k, v := range d.entries {
		out[k] = v.count
	}
	return out
}

// LogAll writes one summary line per kind, in kind order.
func (d *Diagnostics) LogAll(prefix string) {
	kinds := make([]string, 0, len(d.entries))
	for k := range d.entries {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		info := d.entries[k]
		log.Printf("%s: %s", prefix, formatDiagnostic(k, info))
	}
}

func formatDiagnostic(kind string, info *diagnosticInfo) string {
	msg := fmt.Sprintf("%d x %s", info.count, kind)
	if len(info.examples) > 0 {
		msg += fmt.Sprintf(" (e.g. %s)", strings.Join(info.examples, ", "))
	}
	return msg
}
