package mdp5

import (
	"fmt"
	"time"
)

// File identifies a client of the device. Events belong to the file that
// requested them.
type File struct {
	Name string
}

func (f *File) String() string {
	if f == nil {
		return "<nil>"
	}
	return f.Name
}

// Event is a completion event requested with a commit. It is delivered once,
// either when the flip completes or when its file closes.
type Event struct {
	File     *File
	UserData uint64

	// Time is set at delivery.
	Time time.Time
}

func (e *Event) String() string {
	return fmt.Sprintf("mdp5.Event{%s %d}", e.File, e.UserData)
}

// EventSink receives delivered completion events.
type EventSink interface {
	SendVBlankEvent(crtc int, ev *Event)
}

type discardEvents struct{}

func (discardEvents) SendVBlankEvent(int, *Event) {}
