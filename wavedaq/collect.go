package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/itohio/wavedaq/pkg/archive"
	"github.com/itohio/wavedaq/pkg/capture"
	"github.com/itohio/wavedaq/pkg/dataset"
	"github.com/itohio/wavedaq/pkg/device"
	"github.com/itohio/wavedaq/pkg/labels"
	"github.com/itohio/wavedaq/pkg/wave"
)

func newCollectCmd() *cobra.Command {
	var (
		sourceFlag  string
		samplesFlag int
		mockFlag    bool
		noPrompt    bool
	)

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect labeled waveform windows into the dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			source := cfg.Capture.Source
			if sourceFlag != "" {
				source = sourceFlag
			}
			if mockFlag {
				source = "mock"
			}

			target := cfg.Capture.WindowsPerRun
			if samplesFlag > 0 {
				target = samplesFlag
			}

			return runCollect(source, target, noPrompt)
		},
	}

	cmd.Flags().StringVar(&sourceFlag, "source", "", "Sample source: serial, tcp, ws or mock (defaults to config)")
	cmd.Flags().IntVarP(&samplesFlag, "samples", "n", 0, "Windows per label (defaults to config)")
	cmd.Flags().BoolVar(&mockFlag, "mock", false, "Use the mocked source instead of hardware")
	cmd.Flags().BoolVar(&noPrompt, "no-prompt", false, "Do not wait for Enter between labels")

	return cmd
}

// newSource builds the sample source named by the configuration.
func newSource(name string) (device.Source, error) {
	switch name {
	case "", "serial":
		return device.New(cfg.Serial.Port, cfg.Serial.BaudRate, device.DefaultBufferSize), nil
	case "tcp":
		return device.NewTCP(cfg.Capture.TCPAddr, device.DefaultBufferSize), nil
	case "ws":
		return device.NewWS(cfg.Capture.WSURL, device.DefaultBufferSize), nil
	case "mock":
		// The mock follows the capture window size unless pinned
		mcfg := cfg.Mock
		if mcfg.WindowSize <= 0 {
			mcfg.WindowSize = cfg.Capture.WindowSize
		}
		return device.NewMock(&mcfg), nil
	default:
		return nil, fmt.Errorf("unknown source %q", name)
	}
}

func runCollect(source string, target int, noPrompt bool) error {
	src, err := newSource(source)
	if err != nil {
		return err
	}
	if err := src.Connect(); err != nil {
		return fmt.Errorf("failed to connect source: %w", err)
	}
	defer src.Close()

	cell := &labels.Cell{}
	collector := capture.New(cfg, cell)

	if cfg.Labels.UDPEnabled {
		udp := labels.NewUDPListener(cfg.Labels.UDPAddr, cell)
		if err := udp.Start(); err != nil {
			return fmt.Errorf("failed to start label listener: %w", err)
		}
		defer udp.Close()
	}
	if cfg.Labels.MQTTEnabled {
		mq := labels.NewMQTTListener(labels.MQTTConfig{
			Broker:   cfg.Labels.MQTTBroker,
			Topic:    cfg.Labels.MQTTTopic,
			ClientID: cfg.Labels.MQTTClientID,
			Username: cfg.Labels.MQTTUsername,
			Password: cfg.Labels.MQTTPassword,
		}, cell)
		if err := mq.Start(); err != nil {
			log.Warnf("MQTT label listener unavailable: %v", err)
		} else {
			defer mq.Close()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	collector.OnWindow(func(w capture.Window) {
		collected := w.Index + 1
		log.Infof("  %s: %d/%d windows (%d samples)",
			w.Label, collected, target, collected*collector.WindowSize())
	})

	log.Infof("Collecting %d windows per label (window size %d)",
		target, collector.WindowSize())

	stdin := bufio.NewReader(os.Stdin)
	for i, name := range cfg.Capture.Waveforms {
		if ctx.Err() != nil {
			break
		}

		if !noPrompt {
			fmt.Printf("\nPress Enter when the %s signal is ready (Ctrl+C to stop)... ", name)
			if !waitEnter(ctx, stdin) {
				break
			}
		}

		if err := src.SendLabel(name); err != nil {
			log.Warnf("Failed to send label to device: %v", err)
		}

		// Known waveforms keep their wire ids, anything else is positional
		id := i
		if t, err := wave.ParseType(name); err == nil {
			id = int(t)
		}

		n, err := collector.Collect(ctx, src.Lines(), labels.New(id, name), target)
		switch {
		case err == nil:
			log.Infof("Collected %d windows for %s", n, name)
		case errors.Is(err, capture.ErrStreamClosed):
			log.Warnf("%s: stream closed after %d windows", name, n)
		default:
			log.Warnf("%s: collection stopped after %d windows: %v", name, n, err)
		}
		if errors.Is(err, capture.ErrStreamClosed) {
			break
		}
	}

	if discarded := collector.Discarded(); discarded > 0 {
		log.Warnf("Discarded %d malformed windows", discarded)
	}

	if err := saveDataset(collector); err != nil {
		return err
	}

	if cfg.Archive.Enabled {
		archiveWindows(collector)
	}

	return nil
}

// waitEnter blocks until the operator presses Enter or the run is cancelled.
func waitEnter(ctx context.Context, stdin *bufio.Reader) bool {
	done := make(chan struct{})
	go func() {
		_, _ = stdin.ReadString('\n')
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

// saveDataset writes per-label CSVs, the combined dataset, and the run
// summary. Runs on interrupt too, so partial collections persist.
func saveDataset(collector *capture.Collector) error {
	store, err := dataset.NewStore(cfg.Dataset.DataDir)
	if err != nil {
		return err
	}

	if collector.Total() == 0 {
		log.Warnf("No windows collected, nothing to save")
		return nil
	}

	written := make([]string, 0, len(collector.Labels()))
	for _, label := range collector.Labels() {
		windows := collector.Windows(label)
		path, err := store.WriteLabel(label, windows, collector.WindowSize())
		if err != nil {
			return err
		}
		if path != "" {
			log.Infof("  %s: %d windows → %s", label, len(windows), filepath.Base(path))
			written = append(written, path)
		}
	}

	combined, err := store.Combine()
	if err != nil {
		return err
	}
	log.Infof("Combined dataset → %s", combined)

	sum := store.Summarize(collector.WindowSize(), cfg.Capture.SampleRate,
		cfg.Capture.Waveforms, collector.Counts())
	sumPath, err := store.WriteSummary(sum)
	if err != nil {
		return err
	}
	log.Infof("Summary → %s", sumPath)

	if cfg.Dataset.Compress {
		comp, err := dataset.NewCompressor()
		if err != nil {
			return err
		}
		defer comp.Close()

		for _, path := range append(written, combined) {
			out, err := comp.CompressFile(path)
			if err != nil {
				log.Warnf("Compression failed for %s: %v", path, err)
				continue
			}
			log.Infof("Compressed → %s", filepath.Base(out))
		}
	}

	return nil
}

// archiveWindows ships the collected windows to ClickHouse. Failures are
// logged, not fatal: the CSV output is already on disk.
func archiveWindows(collector *capture.Collector) {
	arch, err := archive.New(cfg.Archive)
	if err != nil {
		log.Warnf("Archive unavailable: %v", err)
		return
	}
	defer arch.Close()

	var all []capture.Window
	for _, label := range collector.Labels() {
		all = append(all, collector.Windows(label)...)
	}

	sessionID := time.Now().Format("20060102_150405")
	if err := arch.SaveWindows(context.Background(), sessionID, cfg.Capture.SampleRate, all); err != nil {
		log.Warnf("Archive write failed: %v", err)
	}
}
