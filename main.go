// ABOUTME: Entry point for the stomploop pedal looper
// ABOUTME: Parses CLI flags and starts the looper application
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/stomploop/stomploop-go/internal/app"
	"github.com/stomploop/stomploop-go/internal/version"
)

var (
	input         = flag.String("input", "malgo", "Capture backend: malgo, portaudio or tone")
	sampleRate    = flag.Int("sample-rate", 48000, "Stream sample rate in Hz")
	channels      = flag.Int("channels", 1, "Stream channel count")
	chunkFrames   = flag.Int("frames", 0, "Frames per captured chunk (0 = backend default)")
	bufferMs      = flag.Int("buffer-ms", 50, "Output buffer size in milliseconds")
	volume        = flag.Int("volume", 100, "Initial playback volume (0-100)")
	noPreRoll     = flag.Bool("no-preroll", false, "Do not seed takes with audio captured just before the press")
	noLatencyComp = flag.Bool("no-latency-comp", false, "Disable output latency compensation")
	logFile       = flag.String("log-file", "stomploop.log", "Log file path")
	noTUI         = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	streamLogs    = flag.Bool("stream-logs", false, "Alias for -no-tui")
	showVersion   = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Printf("%s %s\n", version.Product, version.Version)
		return
	}

	// Determine if we should use TUI or streaming logs
	useTUI := !(*noTUI || *streamLogs)

	// Set up logging
	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		multiWriter := io.MultiWriter(os.Stdout, f)
		log.SetOutput(multiWriter)
	}

	log.Printf("Starting %s %s", version.Product, version.Version)
	if !useTUI {
		log.Printf("TUI disabled - reading presses from stdin")
	}

	looper := app.New(app.Config{
		Input:          *input,
		SampleRate:     *sampleRate,
		Channels:       *channels,
		ChunkFrames:    *chunkFrames,
		OutputBufferMs: *bufferMs,
		Volume:         *volume,
		NoPreRoll:      *noPreRoll,
		NoLatencyComp:  *noLatencyComp,
		UseTUI:         useTUI,
	})

	// Handle shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Printf("Shutdown signal received")
		looper.Stop()
	}()

	if err := looper.Start(); err != nil {
		log.Fatalf("Failed to start looper: %v", err)
	}

	looper.Stop()
	log.Printf("Looper stopped")
}
