// Package drawing implements the Stable Diffusion drawing slot: a persisted
// tri-state gate, keyword rules that select model options and txt2img
// params, and the controller that drives query, model change and draw.
package drawing

import "strings"

// State is the persisted state of the single drawing slot.
type State string

const (
	StateFree          State = "0"
	StateModelChanging State = "1"
	StateDrawing       State = "2"
)

// ParseState decodes the persisted form. Anything unrecognised is reported
// with ok=false and decodes as StateFree.
func ParseState(s string) (st State, ok bool) {
	switch State(strings.TrimSpace(s)) {
	case StateFree:
		return StateFree, true
	case StateModelChanging:
		return StateModelChanging, true
	case StateDrawing:
		return StateDrawing, true
	}
	return StateFree, false
}

func (s State) String() string {
	switch s {
	case StateFree:
		return "free"
	case StateModelChanging:
		return "model_changing"
	case StateDrawing:
		return "drawing"
	default:
		return "unknown(" + string(s) + ")"
	}
}

// Busy reports whether the slot is taken.
func (s State) Busy() bool {
	return s != StateFree
}

// busyText is the reply for a request that observed a taken slot.
func (s State) busyText() string {
	if s == StateModelChanging {
		return "正在换模型中，等换完后再来吧"
	}
	return "正在跑图中，等跑完图后再来吧"
}
