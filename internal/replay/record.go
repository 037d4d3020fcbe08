package replay

import (
	"encoding/binary"
	"fmt"

	"github.com/smartcity/streetlight/internal/signal"
)

// Magic identifies a persisted state record.
const Magic = "SLRS"

// Record versions. Version 1 carries the light window only; version 2
// adds the motion history. The writer emits version 2.
const (
	versionLight  = 1
	versionMotion = 2
)

// Window sizes are fixed by the record layout, not configurable.
const (
	WindowSize = 10
	MotionSize = 60
)

const (
	recordSizeV1 = 4 + 1 + 1 + 4 + 1 + 4*WindowSize
	recordSizeV2 = recordSizeV1 + 1 + MotionSize
)

// State is the derived signal state carried between CLI invocations.
type State struct {
	Window *signal.Window
	Motion *signal.MotionWindow
	Night  bool
}

// NewState returns a cold-start state: zeroed windows, day.
func NewState() *State {
	return &State{
		Window: signal.NewWindow(WindowSize),
		Motion: signal.NewMotionWindow(MotionSize),
	}
}

// Encode serializes the state as a version-2 record, little-endian,
// written whole.
func Encode(s *State) []byte {
	buf := make([]byte, 0, recordSizeV2)
	buf = append(buf, Magic...)
	buf = append(buf, versionMotion)
	buf = append(buf, uint8(s.Window.Cursor()))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(s.Window.Sum())))
	if s.Night {
		buf = append(buf, 1)
	} else {
		buf = append(buf, 0)
	}
	for _, v := range s.Window.Values() {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(v)))
	}
	buf = append(buf, uint8(s.Motion.Cursor()))
	buf = append(buf, s.Motion.Values()...)
	return buf
}

// Decode parses a record. Version 1 restores with an all-clear motion
// history. The stored running sum is checked against the slots; a
// mismatch means a torn or hand-edited record.
func Decode(data []byte) (*State, error) {
	if len(data) < recordSizeV1 {
		return nil, fmt.Errorf("record too short: %d bytes", len(data))
	}
	if string(data[:4]) != Magic {
		return nil, fmt.Errorf("bad magic %q", data[:4])
	}

	version := data[4]
	switch version {
	case versionLight:
		if len(data) != recordSizeV1 {
			return nil, fmt.Errorf("version 1 record is %d bytes, want %d", len(data), recordSizeV1)
		}
	case versionMotion:
		if len(data) != recordSizeV2 {
			return nil, fmt.Errorf("version 2 record is %d bytes, want %d", len(data), recordSizeV2)
		}
	default:
		return nil, fmt.Errorf("unsupported version %d", version)
	}

	cursor := int(data[5])
	if cursor >= WindowSize {
		return nil, fmt.Errorf("cursor %d out of range", cursor)
	}
	sum := int(int32(binary.LittleEndian.Uint32(data[6:10])))
	night := data[10] != 0

	values := make([]int, WindowSize)
	off := 11
	for i := range values {
		values[i] = int(int32(binary.LittleEndian.Uint32(data[off : off+4])))
		off += 4
	}

	s := NewState()
	s.Night = night
	s.Window.Restore(values, cursor)
	if s.Window.Sum() != sum {
		return nil, fmt.Errorf("stored sum %d does not match slots (%d)", sum, s.Window.Sum())
	}

	if version == versionMotion {
		motionCursor := int(data[off])
		off++
		if motionCursor >= MotionSize {
			return nil, fmt.Errorf("motion cursor %d out of range", motionCursor)
		}
		s.Motion.Restore(data[off:off+MotionSize], motionCursor)
	}
	return s, nil
}
