package ws

import (
	"github.com/okian/sparkapply/internal/domain/model"
	"github.com/okian/sparkapply/internal/domain/types"
)

// Frame types exchanged over the sockets.
const (
	frameBegin       = "begin"
	frameMove        = "move"
	frameEnd         = "end"
	frameRelease     = "release"
	frameSwipe       = "swipe"
	frameDetails     = "details"
	frameView        = "view"
	frameDecision    = "decision"
	frameError       = "error"
	frameApplication = "application"
)

// inbound is a client gesture frame.
type inbound struct {
	Type      string  `json:"type"`
	X         float64 `json:"x,omitempty"`
	CardLeft  float64 `json:"card_left,omitempty"`
	CardWidth float64 `json:"card_width,omitempty"`
	Direction string  `json:"direction,omitempty"`
	RequestID string  `json:"request_id,omitempty"`
}

// frame is a server frame.
type frame struct {
	Type        string              `json:"type"`
	Outcome     string              `json:"outcome,omitempty"`
	Duplicate   bool                `json:"duplicate,omitempty"`
	Decision    *types.DecisionView `json:"decision,omitempty"`
	View        *types.CardView     `json:"view,omitempty"`
	Application *model.Application  `json:"application,omitempty"`
	Error       string              `json:"error,omitempty"`
}
