package intermittent

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agalue/streambridge/internal/midi"
)

func parseUint8(buf *bytes.Buffer) (uint8, bool) {
	if buf.Len() == 0 {
		return 0, false
	}
	b, _ := buf.ReadByte()
	return b, true
}

func TestFeedEmitsEveryCompleteValue(t *testing.T) {
	s := New(parseUint8, 16)
	now := time.Unix(1000, 0)
	s.Feed(now, now, []byte{1, 2, 3})

	got := []uint8{}
	for i := 0; i < 3; i++ {
		tv := <-s.Values()
		got = append(got, tv.Value)
	}
	assert.Equal(t, []uint8{1, 2, 3}, got)
}

func TestFeedNormalizesDeviceTimeAgainstFirstAnchor(t *testing.T) {
	s := New(parseUint8, 16)
	devStart := time.Unix(5000, 0)
	localStart := time.Unix(1000, 0)

	s.Feed(devStart, localStart, []byte{1})
	tv := <-s.Values()
	assert.True(t, tv.At.Equal(localStart))

	s.Feed(devStart.Add(2*time.Second), localStart, []byte{2})
	tv2 := <-s.Values()
	assert.True(t, tv2.At.Equal(localStart.Add(2*time.Second)))
}

func TestFeedHandlesDeviceClockRunningBackwards(t *testing.T) {
	s := New(parseUint8, 16)
	devStart := time.Unix(5000, 0)
	localStart := time.Unix(1000, 0)

	s.Feed(devStart, localStart, []byte{1})
	<-s.Values()

	s.Feed(devStart.Add(-3*time.Second), localStart, []byte{2})
	tv := <-s.Values()
	assert.True(t, tv.At.Equal(localStart.Add(-3*time.Second)))
}

func TestFeedDropsWhenChannelFull(t *testing.T) {
	s := New(parseUint8, 1)
	now := time.Now()
	s.Feed(now, now, []byte{1, 2, 3})
	assert.Equal(t, uint64(2), s.Dropped())
	assert.Equal(t, 1, len(s.Values()))
}

func TestFeedDoesNotBlockOnIncompleteValue(t *testing.T) {
	s := New(midi.ParseMIDI, 16)
	now := time.Now()

	done := make(chan struct{})
	go func() {
		s.Feed(now, now, []byte{0x90, 0x42})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Feed blocked on an incomplete message")
	}
	assert.Equal(t, 0, len(s.Values()))

	s.Feed(now, now, []byte{0x64})
	tv := <-s.Values()
	assert.Equal(t, midi.NoteOn{Channel: 0, Note: 0x42, Velocity: 0x64}, tv.Value)
}

func TestCloseIsSafeAndIdempotent(t *testing.T) {
	s := New(parseUint8, 4)
	s.Close()
	require.NotPanics(t, func() { s.Close() })
}
