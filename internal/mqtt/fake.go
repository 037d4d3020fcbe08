package mqtt

import (
	"github.com/smartcity/streetlight/internal/telemetry"
)

// FakePublisher records published messages for test assertions and can
// play incoming commands and data back into registered handlers.
type FakePublisher struct {
	// Readings contains all telemetry readings that were published.
	Readings []telemetry.Reading

	// Payloads contains the JSON payloads that were published.
	Payloads [][]byte

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// SystemPayloads contains the JSON payloads for system events.
	SystemPayloads [][]byte

	// PublishError, if set, will be returned by Publish.
	PublishError error

	// PublishSystemError, if set, will be returned by PublishSystem.
	PublishSystemError error

	// ConnectError, if set, will be returned by Connect.
	ConnectError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool

	commandHandler func(Command)
	dataHandler    func(device string, payload []byte)
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// Connect marks the fake as connected.
func (f *FakePublisher) Connect() error {
	if f.ConnectError != nil {
		return f.ConnectError
	}
	f.Connected = true
	return nil
}

// Publish records the telemetry reading.
func (f *FakePublisher) Publish(reading telemetry.Reading) error {
	if f.PublishError != nil {
		return f.PublishError
	}

	f.Readings = append(f.Readings, reading)

	payload, err := FormatPayload(reading)
	if err != nil {
		return err
	}
	f.Payloads = append(f.Payloads, payload)

	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}

	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemPayloads = append(f.SystemPayloads, payload)

	return nil
}

// SubscribeCommands registers the command handler.
func (f *FakePublisher) SubscribeCommands(handler func(Command)) error {
	f.commandHandler = handler
	return nil
}

// DeliverCommand plays a command into the registered handler.
func (f *FakePublisher) DeliverCommand(cmd Command) {
	if f.commandHandler != nil {
		f.commandHandler(cmd)
	}
}

// SubscribeData registers the fleet data handler.
func (f *FakePublisher) SubscribeData(handler func(device string, payload []byte)) error {
	f.dataHandler = handler
	return nil
}

// DeliverData plays a raw data payload into the registered handler.
func (f *FakePublisher) DeliverData(device string, payload []byte) {
	if f.dataHandler != nil {
		f.dataHandler(device, payload)
	}
}

// StartAttempt marks the fake as connected unless ConnectError is set.
// The real client dials asynchronously; the fake completes at once.
func (f *FakePublisher) StartAttempt() {
	if f.ConnectError == nil {
		f.Connected = true
	}
}

// Alive reports whether the fake publisher is "connected".
func (f *FakePublisher) Alive() bool {
	return f.Connected
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded messages and handlers.
func (f *FakePublisher) Reset() {
	f.Readings = nil
	f.Payloads = nil
	f.SystemEvents = nil
	f.SystemPayloads = nil
	f.Closed = false
	f.PublishError = nil
	f.PublishSystemError = nil
	f.ConnectError = nil
	f.Connected = false
	f.commandHandler = nil
	f.dataHandler = nil
}
