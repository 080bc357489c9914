// ABOUTME: Entry point for the WaveCast radio appliance
// ABOUTME: Parses CLI flags, wires the pipeline and runs the tick loop
package main

import (
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/WaveCast/wavecast-go/internal/config"
	"github.com/WaveCast/wavecast-go/internal/discovery"
	"github.com/WaveCast/wavecast-go/internal/source"
	"github.com/WaveCast/wavecast-go/internal/ui"
	"github.com/WaveCast/wavecast-go/internal/version"
	"github.com/WaveCast/wavecast-go/pkg/audio"
	"github.com/WaveCast/wavecast-go/pkg/audio/output"
	"github.com/WaveCast/wavecast-go/pkg/icy"
	"github.com/WaveCast/wavecast-go/pkg/wavecast"
	tea "github.com/charmbracelet/bubbletea"
)

var (
	streamURL  = flag.String("url", "", "Stream URL (overrides config file)")
	configPath = flag.String("config", defaultConfigPath(), "Settings file path")
	volume     = flag.Int("volume", -1, "Initial volume 0-100 (overrides config file)")
	tickEvery  = flag.Duration("tick", 10*time.Millisecond, "Pipeline tick cadence")
	sampleRate = flag.Int("rate", 44100, "Output sample rate in Hz")
	bitDepth   = flag.Int("bits", 16, "Output bits per sample")
	channels   = flag.Int("channels", 2, "Output channel count")
	noAudio    = flag.Bool("no-audio", false, "Use a loopback peripheral instead of the sound card")
	discover   = flag.Bool("discover", false, "Browse the LAN for stream endpoints when no URL is set")
	logFile    = flag.String("log-file", "wavecast.log", "Log file path")
	noTUI      = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
)

func main() {
	flag.Parse()

	useTUI := !*noTUI

	f, err := os.OpenFile(*logFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	// Settings: config file first, flags win.
	store := config.NewStore(config.FileBackend{Path: *configPath})
	if err := store.Load(); err != nil {
		log.Fatalf("Failed to load settings: %v", err)
	}
	settings := store.Settings()
	if *streamURL != "" {
		settings.StreamURL = *streamURL
	}
	if *volume >= 0 {
		settings.Volume = *volume
	}

	if !useTUI {
		log.Printf("Starting %s %s", version.Product, version.Version)
	}

	// Output sink
	var per output.Peripheral
	if *noAudio {
		per = output.NewLoopback(0)
	} else {
		per = output.NewOto(0)
	}
	sink := output.NewSink(per)

	format := audio.Format{
		SampleRate:    *sampleRate,
		BitsPerSample: *bitDepth,
		Channels:      *channels,
	}
	if err := sink.Open(format); err != nil {
		log.Fatalf("Failed to open audio output: %v", err)
	}
	defer sink.Close()

	// Optional LAN discovery when nothing else names a stream.
	if *discover && *streamURL == "" {
		settings.StreamURL = discoverStream(settings)
	}

	// TUI setup
	var tuiProg *tea.Program
	var controls *ui.Controls

	if useTUI {
		controls = ui.NewControls()
		tuiProg, err = ui.Run(controls)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go tuiProg.Run()
	}

	updateTUI := func(msg ui.StatusMsg) {
		if tuiProg != nil {
			tuiProg.Send(msg)
		}
	}

	src := source.NewHTTP(source.HTTPConfig{
		UserAgent: version.UserAgent,
	})

	session, err := wavecast.NewSession(wavecast.Config{
		Source:     src,
		Sink:       sink,
		Volume:     settings.Volume,
		FrameBytes: format.FrameSize(),
		OnStateChange: func(state wavecast.State) {
			updateTUI(ui.StatusMsg{State: state.String()})
		},
		OnMetadata: func(info icy.TrackInfo) {
			updateTUI(ui.StatusMsg{Title: info.Title, Artist: info.Artist})
		},
		OnError: func(err error) {
			log.Printf("Session error: %v", err)
		},
	})
	if err != nil {
		log.Fatalf("Failed to create session: %v", err)
	}

	if err := session.Connect(settings.StreamURL); err != nil {
		log.Fatalf("Connect failed: %v", err)
	}
	updateTUI(ui.StatusMsg{StreamURL: settings.StreamURL})

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	runLoop(session, sink, controls, updateTUI, sigChan)

	session.Close()
	if settings != store.Settings() {
		store.Update(settings)
		if err := store.Save(); err != nil {
			log.Printf("Failed to save settings: %v", err)
		}
	}

	log.Printf("Radio stopped")
}

// runLoop drives the session from a single goroutine: the pipeline tick,
// TUI control messages and OS signals all converge here.
func runLoop(session *wavecast.Session, sink *output.Sink, controls *ui.Controls, updateTUI func(ui.StatusMsg), sigChan chan os.Signal) {
	ticker := time.NewTicker(*tickEvery)
	defer ticker.Stop()

	statusTicker := time.NewTicker(500 * time.Millisecond)
	defer statusTicker.Stop()

	var volumeCh chan ui.VolumeMsg
	var transportCh chan ui.TransportMsg
	var quitCh chan ui.QuitMsg
	if controls != nil {
		volumeCh = controls.Volume
		transportCh = controls.Transport
		quitCh = controls.Quit
	}

	for {
		select {
		case <-ticker.C:
			session.Tick()

		case <-statusTicker.C:
			vol := session.Volume()
			bufPct := session.BufferUtilization()
			sinkPct := sink.BufferUtilization()
			retries := session.RetryCount()
			stats := session.Stats()
			sinkStats := sink.Stats()
			updateTUI(ui.StatusMsg{
				State:      session.State().String(),
				Station:    session.StationName(),
				Bitrate:    session.Bitrate(),
				SampleRate: session.SampleRate(),
				Volume:     &vol,
				BufferPct:  &bufPct,
				SinkPct:    &sinkPct,
				Received:   stats.BytesReceived,
				Forwarded:  stats.BytesForwarded,
				Overflows:  &sinkStats.Overflows,
				Underruns:  &sinkStats.Underruns,
				RetryCount: &retries,
			})

		case msg := <-volumeCh:
			log.Printf("Volume change: %d%%", msg.Volume)
			session.SetVolume(msg.Volume)

		case msg := <-transportCh:
			switch {
			case msg.TogglePause:
				if session.State() == wavecast.StatePaused {
					session.Resume()
				} else {
					session.Pause()
				}
			case msg.Reconnect:
				if err := session.Connect(session.URI()); err != nil {
					log.Printf("Reconnect failed: %v", err)
				}
			}

		case <-quitCh:
			log.Printf("Received quit signal from TUI")
			return

		case <-sigChan:
			log.Printf("Shutdown signal received")
			return
		}
	}
}

// discoverStream browses the LAN and returns the first endpoint found,
// falling back to the configured URL on timeout.
func discoverStream(settings config.Settings) string {
	log.Printf("Browsing for stream endpoints...")
	disc := discovery.NewManager(discovery.Config{
		DeviceName: settings.DeviceName,
		Port:       8000,
	})
	defer disc.Stop()

	if err := disc.Advertise(); err != nil {
		log.Printf("mDNS advertise failed: %v", err)
	}
	disc.Browse()

	select {
	case station := <-disc.Stations():
		log.Printf("Using discovered endpoint %s", station.URL())
		return station.URL()
	case <-time.After(10 * time.Second):
		log.Printf("No endpoint found, falling back to %s", settings.StreamURL)
		return settings.StreamURL
	}
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "wavecast.yaml"
	}
	return home + "/.wavecast.yaml"
}
