package model

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

// Route is a stored, named instruction sequence.
type Route struct {
	gorm.Model
	Name         string             `json:"name" gorm:"uniqueIndex;size:128;not null"`
	Description  string             `json:"description"`
	Tags         pq.StringArray     `json:"tags" gorm:"type:text"`
	Instructions []RouteInstruction `json:"instructions" gorm:"constraint:OnDelete:CASCADE"`
}

// RouteInstruction is one waypoint row of a Route, in local coordinates.
type RouteInstruction struct {
	ID        uint    `json:"-" gorm:"primaryKey"`
	RouteID   uint    `json:"-" gorm:"index;not null"`
	Seq       int     `json:"seq" gorm:"not null"`
	X         float64 `json:"x"`
	Z         float64 `json:"z"`
	Direction string  `json:"direction" gorm:"size:16"`
	Text      string  `json:"text"`
}

// ToInstruction converts the stored row. Unknown directions fall back to STRAIGHT.
func (r RouteInstruction) ToInstruction() NavigationInstruction {
	dir, err := ParseDirection(r.Direction)
	if err != nil {
		dir = DirectionStraight
	}
	return NavigationInstruction{
		Position:  LocalPoint{X: r.X, Z: r.Z},
		Direction: dir,
		Text:      r.Text,
	}
}

// NavigationInstructions returns the route's instructions in stored order.
func (r *Route) NavigationInstructions() []NavigationInstruction {
	out := make([]NavigationInstruction, len(r.Instructions))
	for i, ins := range r.Instructions {
		out[i] = ins.ToInstruction()
	}
	return out
}

// NavigationEvent records an advance, an arrival or a drift correction.
type NavigationEvent struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	SessionID        string    `json:"sessionId" gorm:"index;size:64"`
	Kind             string    `json:"kind" gorm:"size:32"`
	InstructionIndex int       `json:"instructionIndex"`
	X                float64   `json:"x"`
	Z                float64   `json:"z"`
	Drift            float64   `json:"drift"`
	CreatedAt        time.Time `json:"createdAt"`
}
