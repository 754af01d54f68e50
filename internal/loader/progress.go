package loader

import "time"

// Status is the progress state of one path.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusLoading Status = "loading"
	StatusDone    Status = "done"
	StatusError   Status = "error"
)

// Event reports progress for one path.
type Event struct {
	Path    string
	Status  Status
	Records int
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events. OnEvent may be called from
// several goroutines at once.
type ProgressSink interface {
	OnEvent(Event)
}

// ChannelSink forwards events into a channel.
type ChannelSink struct {
	Ch chan<- Event
}

func (s ChannelSink) OnEvent(evt Event) {
	if s.Ch == nil {
		return
	}
	s.Ch <- evt
}

func (o Options) report(evt Event) {
	if o.Progress != nil {
		o.Progress.OnEvent(evt)
	}
}
