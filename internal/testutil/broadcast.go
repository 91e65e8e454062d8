package testutil

import "sync"

// Published is one recorded broadcast.
type Published struct {
	Channel string
	Event   string
	Payload any
}

// RecordingBroadcaster records every publish call.
type RecordingBroadcaster struct {
	mu     sync.Mutex
	events []Published
}

func (b *RecordingBroadcaster) Publish(channel, event string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, Published{Channel: channel, Event: event, Payload: payload})
}

// Events returns a copy of the recorded broadcasts.
func (b *RecordingBroadcaster) Events() []Published {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Published(nil), b.events...)
}

// Has reports whether event was published on channel.
func (b *RecordingBroadcaster) Has(channel, event string) bool {
	for _, e := range b.Events() {
		if e.Channel == channel && e.Event == event {
			return true
		}
	}
	return false
}
