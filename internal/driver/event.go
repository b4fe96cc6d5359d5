package driver

// Status describes where one stream file is in the ingest pipeline.
type Status uint8

const (
	StatusQueued Status = iota
	StatusIngesting
	StatusDone
	StatusError
)

// Event is one progress notification about a stream file. An Event
// with an empty File describes the run as a whole.
type Event struct {
	File   string
	Status Status
}

// Sink receives progress events. Implementations must not block for
// long; ingest workers publish synchronously.
type Sink interface {
	Send(Event)
}

// NopSink discards events.
type NopSink struct{}

func (NopSink) Send(Event) {}

// ChannelSink forwards events to a channel, dropping them when the
// receiver falls behind.
type ChannelSink struct{ Ch chan<- Event }

func (s ChannelSink) Send(ev Event) {
	if s.Ch == nil {
		return
	}
	select {
	case s.Ch <- ev:
	default:
	}
}
