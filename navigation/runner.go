package navigation

import (
	"context"
	"log"
	"reflect"
	"time"

	"ar-navigation/config"
	"ar-navigation/model"
)

// PositionSource yields the latest geodetic fix. ok is false while no valid fix exists.
type PositionSource interface {
	Latest() (model.GeodeticPoint, bool)
}

// Projector converts a fix into the local frame.
type Projector interface {
	Project(model.GeodeticPoint) model.LocalPoint
}

// EventRecorder persists navigation events.
type EventRecorder interface {
	RecordEvent(ev *model.NavigationEvent) error
}

type farChecker interface {
	FarFromReference(model.GeodeticPoint) bool
}

const eventBuffer = 64

// isNil also catches a nil pointer stored in a non-nil interface.
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

// Runner drives a Session from a PositionSource on a fixed tick.
type Runner struct {
	session  *Session
	source   PositionSource
	project  Projector
	interval time.Duration
	recorder EventRecorder

	warnedFar bool
}

// NewRunner fails with a ConfigError when a dependency is missing. recorder may be nil.
func NewRunner(session *Session, source PositionSource, project Projector, interval time.Duration, recorder EventRecorder) (*Runner, error) {
	if session == nil {
		return nil, config.Missing("navigation.session")
	}
	if isNil(source) {
		return nil, config.Missing("navigation.positionSource")
	}
	if isNil(project) {
		return nil, config.Missing("projection")
	}
	if interval <= 0 {
		return nil, &config.ConfigError{Field: "navigation.tickIntervalMS", Reason: "must be positive"}
	}
	return &Runner{session: session, source: source, project: project, interval: interval, recorder: recorder}, nil
}

// Step runs a single tick. A tick without a valid fix does nothing.
func (r *Runner) Step() []Event {
	geo, ok := r.source.Latest()
	if !ok {
		return nil
	}
	if fc, ok := r.project.(farChecker); ok && !r.warnedFar && fc.FarFromReference(geo) {
		r.warnedFar = true
		log.Printf("position %.6f,%.6f is far from the projection reference; local coordinates will be inaccurate",
			geo.Latitude, geo.Longitude)
	}
	return r.session.Tick(r.project.Project(geo))
}

// Run ticks until ctx is done. Events are handed to the recorder on a separate
// goroutine so a slow store never stalls the tick loop; when the buffer is full
// events are dropped.
func (r *Runner) Run(ctx context.Context) error {
	events := make(chan model.NavigationEvent, eventBuffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range events {
			if err := r.recorder.RecordEvent(&ev); err != nil {
				log.Printf("failed to record navigation event: %v", err)
			}
		}
	}()

	ticker := time.NewTicker(r.interval)
	defer func() {
		ticker.Stop()
		close(events)
		<-done
	}()

	log.Printf("navigation runner started, tick every %v", r.interval)
	for {
		select {
		case <-ctx.Done():
			log.Println("navigation runner stopped")
			return ctx.Err()
		case <-ticker.C:
			evs := r.Step()
			if r.recorder == nil || len(evs) == 0 {
				continue
			}
			id := r.session.ID()
			for _, ev := range evs {
				select {
				case events <- ev.Record(id):
				default:
					log.Printf("navigation event buffer full, dropping %s event", ev.Kind)
				}
			}
		}
	}
}
