package ecs

import "strconv"

// Stage groups systems that run together, in registration order.
type Stage uint64

const (
	StageInit Stage = iota
	StageStart
	StageUpdate
	StageDraw
	StageEvent
	StagePreDraw
	StagePostDraw
)

func (s Stage) String() string {
	switch s {
	case StageInit:
		return "INIT"
	case StageStart:
		return "START"
	case StageUpdate:
		return "UPDATE"
	case StageDraw:
		return "DRAW"
	case StageEvent:
		return "EVENT"
	case StagePreDraw:
		return "PRE_DRAW"
	case StagePostDraw:
		return "POST_DRAW"
	default:
		return "STAGE(" + strconv.FormatUint(uint64(s), 10) + ")"
	}
}
