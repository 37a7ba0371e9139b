package model

import (
	"fmt"
	"strings"
)

// Direction tells the user what to do at an instruction point.
type Direction int

const (
	DirectionStraight Direction = iota
	DirectionLeft
	DirectionRight
	DirectionGoal
)

var directionNames = [...]string{"STRAIGHT", "LEFT", "RIGHT", "GOAL"}

func (d Direction) String() string {
	if d < 0 || int(d) >= len(directionNames) {
		return fmt.Sprintf("Direction(%d)", int(d))
	}
	return directionNames[d]
}

// ParseDirection accepts the upper or lower case direction name.
func ParseDirection(s string) (Direction, error) {
	for i, name := range directionNames {
		if strings.EqualFold(s, name) {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("unknown direction %q", s)
}

func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	v, err := ParseDirection(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}

// NavigationInstruction is one waypoint of a route.
type NavigationInstruction struct {
	Position  LocalPoint `json:"position"`
	Direction Direction  `json:"direction"`
	Text      string     `json:"text"`
}

// RouteProgress is a point-in-time view of a navigation session.
type RouteProgress struct {
	SessionID               string                 `json:"sessionId,omitempty"`
	Active                  bool                   `json:"active"`
	Arrived                 bool                   `json:"arrived"`
	CurrentInstructionIndex int                    `json:"currentInstructionIndex"`
	TrackedPosition         LocalPoint             `json:"trackedPosition"`
	Current                 *NavigationInstruction `json:"current,omitempty"`
}
