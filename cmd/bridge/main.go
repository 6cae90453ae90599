// Streambridge - an adaptive-resampling audio/MIDI streaming bridge.
//
// This program wires a StreamSink and StreamSource to an audio backend
// (a real device via malgo, or an in-memory loopback for demos) and an
// intermittent MIDI source, logging drift-controller state as it runs.
package main

import (
	"context"
	"log"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/agalue/streambridge/internal/backend"
	"github.com/agalue/streambridge/internal/config"
	"github.com/agalue/streambridge/internal/intermittent"
	"github.com/agalue/streambridge/internal/midi"
	"github.com/agalue/streambridge/internal/ring"
	"github.com/agalue/streambridge/internal/stream"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	log.Println("🎚️  Streambridge starting...")
	log.Printf("🔌 Backend: %s, %d Hz, %d channel(s), ring capacity %d samples",
		cfg.Backend, cfg.SampleRate, cfg.Channels, cfg.RingCapacity)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	audioBackend, closeBackend, err := buildAudioBackend(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize audio backend: %v", err)
	}
	defer closeBackend()

	streamCfg := backend.StreamConfig{
		SampleRate:   cfg.SampleRate,
		Channels:     cfg.Channels,
		Format:       backend.FormatF32,
		PeriodMillis: cfg.PeriodMillis,
	}

	playbackRing := ring.New(cfg.RingCapacity)
	sink := stream.NewSink(playbackRing, cfg.Channels, cfg.PID)

	captureRing := ring.New(cfg.RingCapacity)
	source := stream.NewSource(captureRing, cfg.Channels, cfg.PID, cfg.LowWatermark)

	startedAt := time.Now()
	measuring := func() bool {
		return time.Since(startedAt) > time.Duration(cfg.StartupWindowMillis)*time.Millisecond
	}

	playbackHandle, err := audioBackend.OpenPlayback(streamCfg, func(out, _ []float32, frames int) {
		sink.OutputSamples(out, measuring())
	})
	if err != nil {
		log.Fatalf("Failed to open playback stream: %v", err)
	}
	defer playbackHandle.Close()

	captureHandle, err := audioBackend.OpenCapture(streamCfg, func(_, in []float32, frames int) {
		source.InputSamples(in, measuring())
	})
	if err != nil {
		log.Fatalf("Failed to open capture stream: %v", err)
	}
	defer captureHandle.Close()

	log.Println("✅ Audio streams open")

	midiBackend := backend.NewLoopbackMIDI(nil)
	midiSource := intermittent.New(midi.ParseMIDI, 256)
	defer midiSource.Close()

	midiHandle, err := midiBackend.OpenInput(func(deviceTime time.Time, data []byte) {
		midiSource.Feed(deviceTime, time.Now(), data)
	})
	if err != nil {
		log.Fatalf("Failed to open MIDI input: %v", err)
	}
	defer midiHandle.Close()

	go runDemoTone(ctx, playbackRing, cfg)
	go logMIDIEvents(ctx, midiSource)
	go reportDriftPeriodically(ctx, sink, source, cfg.Verbose)

	log.Println("🎛️  Running. Press Ctrl+C to stop.")
	select {
	case <-sigChan:
		log.Println("🛑 Shutdown signal received")
	case <-ctx.Done():
	}
}

func buildAudioBackend(cfg *config.Config) (backend.AudioBackend, func(), error) {
	switch cfg.Backend {
	case config.BackendMalgo:
		m, err := backend.NewMalgoBackend()
		if err != nil {
			return nil, nil, err
		}
		return m, func() { m.Close() }, nil
	default:
		l := backend.NewLoopbackBackend()
		return l, func() {}, nil
	}
}

// runDemoTone feeds a 440 Hz sine wave into the playback ring so a
// loopback run has something to carry end to end without a real source
// of audio.
func runDemoTone(ctx context.Context, r *ring.Ring, cfg *config.Config) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()

	var phase float64
	step := 2 * math.Pi * 440 / float64(cfg.SampleRate)
	frames := int(cfg.SampleRate) * 20 / 1000

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for f := 0; f < frames; f++ {
				sample := float32(0.2 * math.Sin(phase))
				phase += step
				for ch := 0; ch < cfg.Channels; ch++ {
					r.Push(sample)
				}
			}
		}
	}
}

func logMIDIEvents(ctx context.Context, src *intermittent.Source[midi.Message]) {
	for {
		select {
		case <-ctx.Done():
			return
		case tv, ok := <-src.Values():
			if !ok {
				return
			}
			log.Printf("🎹 MIDI at %s: %#v", tv.At.Format(time.RFC3339Nano), tv.Value)
		}
	}
}

func reportDriftPeriodically(ctx context.Context, sink *stream.Sink, source *stream.Source, verbose bool) {
	if !verbose {
		return
	}
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Printf("📉 sink: strategy=%s ratio=%.5f xruns=%d | source: strategy=%s ratio=%.5f xruns=%d",
				sink.Controller().Strategy(), sink.Controller().Ratio(), sink.Controller().XrunCount(),
				source.Controller().Strategy(), source.Controller().Ratio(), source.Controller().XrunCount())
		}
	}
}
