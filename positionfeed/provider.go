// Package positionfeed holds the most recent geodetic fix and the transports that deliver it.
package positionfeed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"ar-navigation/model"
)

// Status is the lifecycle state of the position source.
type Status int

const (
	StatusInitializing Status = iota
	StatusRunning
	StatusStopped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusInitializing:
		return "initializing"
	case StatusRunning:
		return "running"
	case StatusStopped:
		return "stopped"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for st := StatusInitializing; st <= StatusFailed; st++ {
		if st.String() == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown status %q", b)
}

var (
	ErrInvalidSample = errors.New("invalid position sample")
	ErrNotRunning    = errors.New("position source did not start")
)

// Sample is one fix as delivered over the wire.
type Sample struct {
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Accuracy  float64   `json:"accuracy,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Validate rejects non-finite and out-of-range coordinates.
func (s Sample) Validate() error {
	for _, v := range []float64{s.Latitude, s.Longitude} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite coordinate", ErrInvalidSample)
		}
	}
	if s.Latitude < -90 || s.Latitude > 90 || s.Longitude < -180 || s.Longitude > 180 {
		return fmt.Errorf("%w: %.6f,%.6f out of range", ErrInvalidSample, s.Latitude, s.Longitude)
	}
	return nil
}

// Provider keeps only the latest sample. Readers never block writers for long.
type Provider struct {
	mu     sync.RWMutex
	latest Sample
	ready  bool
	status Status
	now    func() time.Time
}

func NewProvider() *Provider {
	return &Provider{status: StatusInitializing, now: time.Now}
}

// Publish validates s and makes it the latest fix. The provider becomes running.
func (p *Provider) Publish(s Sample) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.Timestamp.IsZero() {
		s.Timestamp = p.now()
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.latest = s
	p.ready = true
	p.status = StatusRunning
	return nil
}

// SetStatus records a transport state change. Leaving the running state
// invalidates the current fix.
func (p *Provider) SetStatus(st Status) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = st
	if st != StatusRunning {
		p.ready = false
	}
}

// Latest returns the current fix; ok is false unless the source is running with a sample.
func (p *Provider) Latest() (model.GeodeticPoint, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.ready || p.status != StatusRunning {
		return model.GeodeticPoint{}, false
	}
	return model.GeodeticPoint{Latitude: p.latest.Latitude, Longitude: p.latest.Longitude}, true
}

// Snapshot returns the latest sample, the status and whether the sample is usable.
func (p *Provider) Snapshot() (Sample, Status, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.latest, p.status, p.ready && p.status == StatusRunning
}

// AwaitRunning polls until the provider is running, the timeout expires or ctx ends.
func (p *Provider) AwaitRunning(ctx context.Context, timeout, poll time.Duration) error {
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		if _, st, ok := p.Snapshot(); ok {
			return nil
		} else if st == StatusFailed || st == StatusStopped {
			return fmt.Errorf("%w: status %s", ErrNotRunning, st)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline.C:
			return fmt.Errorf("%w within %v", ErrNotRunning, timeout)
		case <-ticker.C:
		}
	}
}
