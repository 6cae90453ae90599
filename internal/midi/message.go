// Package midi implements a streaming MIDI 1.0 parser and serializer: it
// turns a growing byte queue into typed messages and back, bit-exact on
// round trip for every well-formed message.
package midi

// Message is the sealed sum type of every MIDI message this codec
// understands: channel voice messages, system common messages, system
// real-time messages, and system exclusive. Each concrete type below
// implements the unexported marker method, closing the set.
type Message interface {
	isMessage()
}

// Channel voice messages. Channel is always in [0,15].

type NoteOff struct {
	Channel  uint8
	Note     uint8
	Velocity uint8
}

type NoteOn struct {
	Channel  uint8
	Note     uint8
	Velocity uint8
}

type Aftertouch struct {
	Channel  uint8
	Note     uint8
	Pressure uint8
}

type ControlChange struct {
	Channel    uint8
	Controller uint8
	Value      uint8
}

type ProgramChange struct {
	Channel uint8
	Program uint8
}

type ChannelPressure struct {
	Channel  uint8
	Pressure uint8
}

// PitchBend carries a 14-bit value in [0, 16383], center at 8192.
type PitchBend struct {
	Channel   uint8
	PitchBend uint16
}

func (NoteOff) isMessage()         {}
func (NoteOn) isMessage()          {}
func (Aftertouch) isMessage()      {}
func (ControlChange) isMessage()   {}
func (ProgramChange) isMessage()   {}
func (ChannelPressure) isMessage() {}
func (PitchBend) isMessage()       {}

// Timecode is the 8-variant quarter-frame nibble type from the MIDI Time
// Code spec, selected by the top 3 bits of a QuarterFrame's data byte.
type Timecode uint8

const (
	TimecodeFrameLSN        Timecode = 0
	TimecodeFrameMSN        Timecode = 1
	TimecodeSecondsLSN      Timecode = 2
	TimecodeSecondsMSN      Timecode = 3
	TimecodeMinutesLSN      Timecode = 4
	TimecodeMinutesMSN      Timecode = 5
	TimecodeHoursLSN        Timecode = 6
	TimecodeHoursMSNAndRate Timecode = 7
)

// System common messages.

type QuarterFrame struct {
	Type  Timecode
	Value uint8 // low nibble, in [0,15]
}

// SongPositionPointer carries a 14-bit MIDI beat count.
type SongPositionPointer struct {
	Position uint16
}

type SongSelect struct {
	Song uint8
}

type TuneRequest struct{}

func (QuarterFrame) isMessage()        {}
func (SongPositionPointer) isMessage() {}
func (SongSelect) isMessage()          {}
func (TuneRequest) isMessage()         {}

// SysRealTime is a single-byte system real-time message: one of
// TimingClock, Tick, Start, Continue, Stop, ActiveSensing, or Reset.
type SysRealTime struct {
	Status uint8
}

func (SysRealTime) isMessage() {}

// Well-known SysRealTime status bytes.
const (
	StatusTimingClock   uint8 = 0xF8
	StatusTick          uint8 = 0xF9
	StatusStart         uint8 = 0xFA
	StatusContinue      uint8 = 0xFB
	StatusStop          uint8 = 0xFC
	StatusActiveSensing uint8 = 0xFE
	StatusReset         uint8 = 0xFF
)

// SysEx is a System Exclusive message; IDAndData holds everything between
// the leading 0xF0 and the terminating 0xF7, the terminator itself is
// never stored.
type SysEx struct {
	IDAndData []byte
}

func (SysEx) isMessage() {}
