package events

// Event is a marker interface for all synchronization events
type Event interface {
	isEvent()
}

// Base implementation for all events
type baseEvent struct{}

func (baseEvent) isEvent() {}

// DeviceDiscovered is fired once at startup when a device has been selected
// and its maximum volume resolved
type DeviceDiscovered struct {
	baseEvent
	Serial    string
	MaxVolume int
}

// SessionAttached is fired when the locator finds a matching mixer session
type SessionAttached struct {
	baseEvent
	ProcessName string
}

// SessionLost is fired when the held session expires or stops answering
type SessionLost struct {
	baseEvent
}

// VolumeSynced is fired after a volume level is forwarded to the device
type VolumeSynced struct {
	baseEvent
	Fraction float64
	Level    int
	Max      int
}

// MuteSynced is fired after a mute change is forwarded to the device.
// Restore is the level requested on unmute.
type MuteSynced struct {
	baseEvent
	Muted   bool
	Restore int
}

// SyncFailed is fired when a forward fails but the loop keeps running
type SyncFailed struct {
	baseEvent
	Op  string
	Err error
}

// ConnectionLost is fired when the device bridge stops answering and the
// loop is about to exit
type ConnectionLost struct {
	baseEvent
}

// Bus provides simple event publish/subscribe
type Bus struct {
	subscribers []chan Event
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe creates a new event channel for receiving events
func (b *Bus) Subscribe(bufferSize int) chan Event {
	ch := make(chan Event, bufferSize)
	b.subscribers = append(b.subscribers, ch)
	return ch
}

// Publish sends an event to all subscribers (non-blocking)
func (b *Bus) Publish(event Event) {
	for _, ch := range b.subscribers {
		select {
		case ch <- event:
		default:
			// Skip slow subscribers - prevents the sync loop from blocking
		}
	}
}
