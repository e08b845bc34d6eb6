package bexpress

import "net/http"

// FrameKind identifies the part of a response a frame carries.
type FrameKind int

const (
	FrameHead FrameKind = iota + 1
	FrameBody
	FrameEnd
)

func (k FrameKind) String() string {
	switch k {
	case FrameHead:
		return "head"
	case FrameBody:
		return "body"
	case FrameEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Frame is one unit written to a [Sink]. Head frames carry Status and Header, body frames carry Body and end frames
// carry nothing.
type Frame struct {
	Kind   FrameKind
	Status int
	Header http.Header
	Body   []byte
}

// Sink is the per-connection write handle a transport hands to a [Response]. Frames arrive in head, body, end order
// and Close is called once after the end frame.
type Sink interface {
	WriteFrame(f Frame) error
	Close() error
}
