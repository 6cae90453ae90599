package midi

import "bytes"

// statusLen maps a channel-voice status nibble (0x8-0xE) to the number of
// data bytes that follow it, per the MIDI 1.0 spec.
var statusLen = map[uint8]int{
	0x8: 2, // note off
	0x9: 2, // note on
	0xA: 2, // polyphonic aftertouch
	0xB: 2, // control change
	0xC: 1, // program change
	0xD: 1, // channel pressure
	0xE: 2, // pitch bend
}

// ParseMIDI consumes exactly one well-formed message from the front of buf
// and returns it. ok is false if buf does not yet hold a complete message
// (the caller should wait for more bytes); buf is left untouched in that
// case. A message that starts with an unrecognized or reserved status byte
// is discarded silently and ParseMIDI returns ok=false for that call,
// mirroring how real devices tolerate unknown system-common opcodes.
func ParseMIDI(buf *bytes.Buffer) (msg Message, ok bool) {
	b := buf.Bytes()
	if len(b) == 0 {
		return nil, false
	}
	status := b[0]

	switch {
	case status >= 0x80 && status < 0xF0:
		return parseChannelVoice(buf, b, status)
	case status == 0xF0:
		return parseSysEx(buf, b)
	case status == 0xF1:
		return parseQuarterFrame(buf, b)
	case status == 0xF2:
		return parseSongPositionPointer(buf, b)
	case status == 0xF3:
		return parseSongSelect(buf, b)
	case status == 0xF6:
		buf.Next(1)
		return TuneRequest{}, true
	case status == 0xF4, status == 0xF5, status == 0xFD:
		// Reserved/undefined system common opcodes: consume and discard.
		buf.Next(1)
		return nil, false
	case status >= 0xF8:
		buf.Next(1)
		return SysRealTime{Status: status}, true
	case status == 0xF7:
		// Stray end-of-exclusive with no opening F0: discard.
		buf.Next(1)
		return nil, false
	default:
		// Data byte with no preceding status (desynced stream): discard.
		buf.Next(1)
		return nil, false
	}
}

func parseChannelVoice(buf *bytes.Buffer, b []byte, status uint8) (Message, bool) {
	nibble := status >> 4
	n, known := statusLen[nibble]
	if !known {
		buf.Next(1)
		return nil, false
	}
	if len(b) < 1+n {
		return nil, false
	}
	channel := status & 0x0F
	data := b[1 : 1+n]
	buf.Next(1 + n)

	switch nibble {
	case 0x8:
		return NoteOff{Channel: channel, Note: data[0], Velocity: data[1]}, true
	case 0x9:
		return NoteOn{Channel: channel, Note: data[0], Velocity: data[1]}, true
	case 0xA:
		return Aftertouch{Channel: channel, Note: data[0], Pressure: data[1]}, true
	case 0xB:
		return ControlChange{Channel: channel, Controller: data[0], Value: data[1]}, true
	case 0xC:
		return ProgramChange{Channel: channel, Program: data[0]}, true
	case 0xD:
		return ChannelPressure{Channel: channel, Pressure: data[0]}, true
	case 0xE:
		return PitchBend{Channel: channel, PitchBend: combine14(data[0], data[1])}, true
	}
	panic("midi: unreachable status nibble")
}

func parseQuarterFrame(buf *bytes.Buffer, b []byte) (Message, bool) {
	if len(b) < 2 {
		return nil, false
	}
	data := b[1]
	buf.Next(2)
	return QuarterFrame{Type: Timecode(data >> 4), Value: data & 0x0F}, true
}

func parseSongPositionPointer(buf *bytes.Buffer, b []byte) (Message, bool) {
	if len(b) < 3 {
		return nil, false
	}
	pos := combine14(b[1], b[2])
	buf.Next(3)
	return SongPositionPointer{Position: pos}, true
}

func parseSongSelect(buf *bytes.Buffer, b []byte) (Message, bool) {
	if len(b) < 2 {
		return nil, false
	}
	song := b[1]
	buf.Next(2)
	return SongSelect{Song: song}, true
}

// parseSysEx scans for the terminating 0xF7. If it instead finds another
// status byte (top bit set, and not itself 0xF7) embedded in the data
// stream before a terminator, the exclusive message is considered
// malformed/aborted: the bytes up to (not including) that embedded status
// byte are discarded and parsing resumes from there on the next call.
func parseSysEx(buf *bytes.Buffer, b []byte) (Message, bool) {
	for i := 1; i < len(b); i++ {
		if b[i] == 0xF7 {
			data := append([]byte(nil), b[1:i]...)
			buf.Next(i + 1)
			return SysEx{IDAndData: data}, true
		}
		if b[i]&0x80 != 0 {
			// Embedded status byte aborts the exclusive message.
			buf.Next(i)
			return nil, false
		}
	}
	return nil, false
}

func combine14(low, high uint8) uint16 {
	return uint16(low&0x7F) | uint16(high&0x7F)<<7
}

func split14(v uint16) (low, high uint8) {
	return uint8(v & 0x7F), uint8((v >> 7) & 0x7F)
}

// WriteMIDIBytes serializes msg and appends the result to buf.
func WriteMIDIBytes(buf *bytes.Buffer, msg Message) {
	switch m := msg.(type) {
	case NoteOff:
		buf.Write([]byte{0x80 | m.Channel, m.Note, m.Velocity})
	case NoteOn:
		buf.Write([]byte{0x90 | m.Channel, m.Note, m.Velocity})
	case Aftertouch:
		buf.Write([]byte{0xA0 | m.Channel, m.Note, m.Pressure})
	case ControlChange:
		buf.Write([]byte{0xB0 | m.Channel, m.Controller, m.Value})
	case ProgramChange:
		buf.Write([]byte{0xC0 | m.Channel, m.Program})
	case ChannelPressure:
		buf.Write([]byte{0xD0 | m.Channel, m.Pressure})
	case PitchBend:
		low, high := split14(m.PitchBend)
		buf.Write([]byte{0xE0 | m.Channel, low, high})
	case QuarterFrame:
		buf.Write([]byte{0xF1, uint8(m.Type)<<4 | (m.Value & 0x0F)})
	case SongPositionPointer:
		low, high := split14(m.Position)
		buf.Write([]byte{0xF2, low, high})
	case SongSelect:
		buf.Write([]byte{0xF3, m.Song})
	case TuneRequest:
		buf.WriteByte(0xF6)
	case SysRealTime:
		buf.WriteByte(m.Status)
	case SysEx:
		buf.WriteByte(0xF0)
		buf.Write(m.IDAndData)
		buf.WriteByte(0xF7)
	default:
		panic("midi: unknown message type")
	}
}
