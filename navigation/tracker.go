// Package navigation advances a user along a fixed instruction sequence and
// keeps the tracked position aligned with the current route segment.
package navigation

import (
	"errors"
	"math"

	"ar-navigation/algo"
	"ar-navigation/config"
	"ar-navigation/model"
)

// ErrNotEnoughInstructions is wrapped by NewTracker when the route has fewer than two instructions.
var ErrNotEnoughInstructions = errors.New("route needs at least two instructions")

// Settings are the tracker thresholds, in meters unless noted.
type Settings struct {
	InstructionDistanceThreshold float64
	PassThroughDistance          float64
	DriftThreshold               float64
	CorrectionLerp               float64 // fraction of the drift removed per tick, in (0, 1]
	ScaleFactor                  float64 // applied to instruction positions before drift projection
	AutoCorrection               bool
}

// DefaultSettings returns the thresholds the route data was tuned with.
func DefaultSettings() Settings {
	return Settings{
		InstructionDistanceThreshold: 5.0,
		PassThroughDistance:          1.2,
		DriftThreshold:               2.0,
		CorrectionLerp:               0.05,
		ScaleFactor:                  1.0,
		AutoCorrection:               true,
	}
}

// SettingsFromConfig copies the navigation section.
func SettingsFromConfig(c config.NavigationConfig) Settings {
	return Settings{
		InstructionDistanceThreshold: c.InstructionDistanceThreshold,
		PassThroughDistance:          c.PassThroughDistance,
		DriftThreshold:               c.DriftThreshold,
		CorrectionLerp:               c.CorrectionLerp,
		ScaleFactor:                  c.ScaleFactor,
		AutoCorrection:               c.AutoCorrection,
	}
}

func (s Settings) validate() error {
	positive := []struct {
		field string
		v     float64
	}{
		{"instructionDistanceThreshold", s.InstructionDistanceThreshold},
		{"passThroughDistance", s.PassThroughDistance},
		{"driftThreshold", s.DriftThreshold},
		{"scaleFactor", s.ScaleFactor},
	}
	for _, p := range positive {
		if !(p.v > 0) || math.IsInf(p.v, 0) {
			return &config.ConfigError{Field: "navigation." + p.field, Reason: "must be positive"}
		}
	}
	if !(s.CorrectionLerp > 0 && s.CorrectionLerp <= 1) {
		return &config.ConfigError{Field: "navigation.correctionLerp", Reason: "must be in (0, 1]"}
	}
	return nil
}

// EventKind classifies tracker events.
type EventKind int

const (
	EventAdvanced EventKind = iota
	EventArrived
	EventCorrected
)

func (k EventKind) String() string {
	switch k {
	case EventAdvanced:
		return "advanced"
	case EventArrived:
		return "arrived"
	case EventCorrected:
		return "corrected"
	}
	return "unknown"
}

// Event is one state change produced by a tick.
type Event struct {
	Kind     EventKind
	Index    int              // instruction index after the event
	Position model.LocalPoint // tracked position the event was evaluated at
	Drift    float64          // distance to the route segment, corrections only
}

// Record converts the event into its persisted form.
func (e Event) Record(sessionID string) model.NavigationEvent {
	return model.NavigationEvent{
		SessionID:        sessionID,
		Kind:             e.Kind.String(),
		InstructionIndex: e.Index,
		X:                e.Position.X,
		Z:                e.Position.Z,
		Drift:            e.Drift,
	}
}

// Tracker is the per-route state machine. It is not safe for concurrent use;
// Session serializes access to it.
type Tracker struct {
	instructions []model.NavigationInstruction
	settings     Settings
	index        int
	arrived      bool
}

// NewTracker copies instructions. It fails on fewer than two instructions or invalid settings.
func NewTracker(instructions []model.NavigationInstruction, settings Settings) (*Tracker, error) {
	if len(instructions) < 2 {
		return nil, &config.ConfigError{Field: "navigation.route", Reason: "too few instructions", Err: ErrNotEnoughInstructions}
	}
	if err := settings.validate(); err != nil {
		return nil, err
	}
	ins := make([]model.NavigationInstruction, len(instructions))
	copy(ins, instructions)
	return &Tracker{instructions: ins, settings: settings}, nil
}

// Reset returns to the first instruction.
func (t *Tracker) Reset() {
	t.index = 0
	t.arrived = false
}

func (t *Tracker) Index() int { return t.index }

func (t *Tracker) Arrived() bool { return t.arrived }

func (t *Tracker) Settings() Settings { return t.settings }

// Instructions returns a copy of the route.
func (t *Tracker) Instructions() []model.NavigationInstruction {
	out := make([]model.NavigationInstruction, len(t.instructions))
	copy(out, t.instructions)
	return out
}

// Current returns the instruction at the current index.
func (t *Tracker) Current() model.NavigationInstruction {
	return t.instructions[t.index]
}

// Advance moves to the next instruction when tracked is within PassThroughDistance
// (and InstructionDistanceThreshold) of the current one. At the last instruction
// the same test sets the arrived flag instead. The index moves by at most one per call.
func (t *Tracker) Advance(tracked model.LocalPoint) (Event, bool) {
	if t.arrived {
		return Event{}, false
	}
	d := algo.PlanarDistance(tracked, t.instructions[t.index].Position)
	if d > t.settings.InstructionDistanceThreshold || d >= t.settings.PassThroughDistance {
		return Event{}, false
	}
	if t.index < len(t.instructions)-1 {
		t.index++
		return Event{Kind: EventAdvanced, Index: t.index, Position: tracked}, true
	}
	t.arrived = true
	return Event{Kind: EventArrived, Index: t.index, Position: tracked}, true
}

// Correction returns the frame offset increment that pulls tracked toward the
// segment from the previous instruction to the current one. ok is false when no
// correction applies: auto correction is off, the route has not left its first
// instruction, the user has arrived, or the drift is within DriftThreshold.
func (t *Tracker) Correction(tracked model.LocalPoint) (delta model.LocalPoint, drift float64, ok bool) {
	if !t.settings.AutoCorrection || t.index <= 0 || t.arrived {
		return model.LocalPoint{}, 0, false
	}
	scale := t.settings.ScaleFactor
	a := t.instructions[t.index-1].Position.Flat().Scale(scale)
	b := t.instructions[t.index].Position.Flat().Scale(scale)
	p := tracked.Flat()

	nearest := algo.NearestPointOnSegment(a, b, p)
	drift = algo.PlanarDistance(p, nearest)
	if drift <= t.settings.DriftThreshold {
		return model.LocalPoint{}, drift, false
	}
	return nearest.Sub(p).Scale(t.settings.CorrectionLerp), drift, true
}
