package lifecycle

// Event is the two-valued foreground/background signal from the host
// environment.
type Event int

const (
	EnteredBackground Event = iota
	EnteringForeground
)

func (e Event) String() string {
	switch e {
	case EnteredBackground:
		return "entered_background"
	case EnteringForeground:
		return "entering_foreground"
	default:
		return "unknown"
	}
}

// Signal delivers lifecycle events to a single consumer. The host environment
// publishes, the timer engine consumes.
type Signal interface {
	Events() <-chan Event
}

// ChannelSignal is the plain channel-backed Signal implementation.
type ChannelSignal struct {
	ch chan Event
}

func NewChannelSignal() *ChannelSignal {
	return &ChannelSignal{ch: make(chan Event, 4)}
}

func (s *ChannelSignal) Events() <-chan Event {
	return s.ch
}

// Publish delivers an event, dropping it if the consumer is not keeping up.
func (s *ChannelSignal) Publish(e Event) {
	select {
	case s.ch <- e:
	default:
	}
}
