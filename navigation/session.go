package navigation

import (
	"log"
	"sync"

	"ar-navigation/config"
	"ar-navigation/model"

	"github.com/google/uuid"
)

// DefaultEyeHeight is added to a resolved ground height when anchoring.
const DefaultEyeHeight = 1.5

// HeightResolver looks up the ground height below a planar position.
type HeightResolver interface {
	GroundHeight(x, z float64) (float64, bool)
}

// Destination describes what the user asked to navigate to. The route itself is fixed.
type Destination struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Session owns one Tracker and the frame offset that maps raw position samples
// into the route frame: tracked = raw + offset. All methods are safe for concurrent use.
type Session struct {
	mu        sync.RWMutex
	tracker   *Tracker
	heights   HeightResolver
	eyeHeight float64

	id      string
	active  bool
	hasRaw  bool
	raw     model.LocalPoint
	offset  model.LocalPoint
	tracked model.LocalPoint

	// set when Start ran before any sample; the first Tick anchors on it
	pending    bool
	anchor     model.LocalPoint
	anchorHasY bool
}

// Option configures a Session.
type Option func(*Session)

// WithHeightResolver sets the resolver used by Start.
func WithHeightResolver(h HeightResolver) Option {
	return func(s *Session) { s.heights = h }
}

// WithEyeHeight overrides DefaultEyeHeight.
func WithEyeHeight(h float64) Option {
	return func(s *Session) { s.eyeHeight = h }
}

func NewSession(tracker *Tracker, opts ...Option) (*Session, error) {
	if tracker == nil {
		return nil, config.Missing("navigation.tracker")
	}
	s := &Session{tracker: tracker, eyeHeight: DefaultEyeHeight}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start resets progress to the first instruction and re-anchors the frame so the
// tracked position sits exactly on it. Height comes from the resolver when it can
// answer, otherwise the current tracked height is kept. Without any sample yet the
// anchoring is applied to the first sample Tick receives. It returns the new session id.
func (s *Session) Start(dest Destination) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tracker.Reset()
	first := s.tracker.Current().Position
	anchor := model.LocalPoint{X: first.X, Y: s.tracked.Y, Z: first.Z}
	hasY := false
	if s.heights != nil {
		if h, ok := s.heights.GroundHeight(first.X, first.Z); ok {
			anchor.Y = h + s.eyeHeight
			hasY = true
		} else {
			log.Printf("no ground height at (%.2f, %.2f), keeping height %.2f", first.X, first.Z, anchor.Y)
		}
	}
	if s.hasRaw {
		s.offset = anchor.Sub(s.raw)
		s.pending = false
	} else {
		s.pending = true
		s.anchor = anchor
		s.anchorHasY = hasY
	}
	s.tracked = anchor
	s.id = uuid.NewString()
	s.active = true

	log.Printf("navigation session %s started toward %q", s.id, dest.Name)
	return s.id
}

// Tick feeds one raw local position sample. Before Start the sample only moves the
// tracked position. After Start the tracker may advance once and the frame offset
// may take one drift correction step.
func (s *Session) Tick(raw model.LocalPoint) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.raw = raw
	s.hasRaw = true
	if s.pending {
		anchor := s.anchor
		if !s.anchorHasY {
			anchor.Y = raw.Y
		}
		s.offset = anchor.Sub(raw)
		s.pending = false
	}
	tracked := raw.Add(s.offset)
	if !s.active {
		s.tracked = tracked
		return nil
	}

	var events []Event
	if ev, ok := s.tracker.Advance(tracked); ok {
		events = append(events, ev)
		ins := s.tracker.Current()
		if ev.Kind == EventArrived {
			log.Printf("session %s: arrived (%q)", s.id, ins.Text)
		} else {
			log.Printf("session %s: instruction passed, next: %d (%s) %q", s.id, ev.Index, ins.Direction, ins.Text)
		}
	}
	if delta, drift, ok := s.tracker.Correction(tracked); ok {
		log.Printf("session %s: drift %.2f detected, correcting", s.id, drift)
		s.offset = s.offset.Add(delta)
		tracked = raw.Add(s.offset)
		events = append(events, Event{Kind: EventCorrected, Index: s.tracker.Index(), Position: tracked, Drift: drift})
	}
	s.tracked = tracked
	return events
}

// Snapshot returns a copy of the current progress.
func (s *Session) Snapshot() model.RouteProgress {
	s.mu.RLock()
	defer s.mu.RUnlock()

	current := s.tracker.Current()
	return model.RouteProgress{
		SessionID:               s.id,
		Active:                  s.active,
		Arrived:                 s.tracker.Arrived(),
		CurrentInstructionIndex: s.tracker.Index(),
		TrackedPosition:         s.tracked,
		Current:                 &current,
	}
}

// ID returns the current session id, empty before Start.
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

// Instructions returns the route the session follows.
func (s *Session) Instructions() []model.NavigationInstruction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tracker.Instructions()
}
