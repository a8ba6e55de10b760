// Command radiotx parses one of the three supported RF dataset
// containers and replays it through whichever transmit variant a
// discovered or configured IIOD context exposes.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gosdrtx/radiotx/config"
	"github.com/gosdrtx/radiotx/dataset"
	"github.com/gosdrtx/radiotx/dataset/tabular"
	"github.com/gosdrtx/radiotx/dataset/tuple"
	"github.com/gosdrtx/radiotx/devicecore"
	"github.com/gosdrtx/radiotx/errs"
	"github.com/gosdrtx/radiotx/internal/logging"
	"github.com/gosdrtx/radiotx/internal/telemetry"
	"github.com/gosdrtx/radiotx/modulation"
	"github.com/gosdrtx/radiotx/presenter"
)

func main() {
	const configPath = "config.json"

	persisted, err := config.LoadOrCreate(configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	cfg, err := config.Parse(os.Args[1:], os.LookupEnv, persisted)
	if err != nil {
		log.Fatalf("parse config: %v", err)
	}
	if err := config.Save(configPath, config.ToPersistent(cfg)); err != nil {
		log.Fatalf("save config: %v", err)
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.Fatalf("log level: %v", err)
	}
	format, err := logging.ParseFormat(cfg.LogFormat)
	if err != nil {
		log.Fatalf("log format: %v", err)
	}
	logger := logging.New(level, format, os.Stderr)
	logging.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var reporters []telemetry.Reporter
	if cfg.WebAddr != "" {
		hub := telemetry.NewHub(cfg.HistoryLimit)
		reporters = append(reporters, hub)
		go telemetry.NewWebServer(cfg.WebAddr, hub, logger).Start(ctx)
		logger.Info("telemetry web server listening", logging.Field{Key: "addr", Value: cfg.WebAddr})
	} else {
		reporters = append(reporters, telemetry.NewStdoutReporter(logger))
	}
	report := telemetry.MultiReporter(reporters)

	if err := run(ctx, cfg, logger, report); err != nil {
		log.Fatalf("radiotx: %v", err)
	}
}

func run(ctx context.Context, cfg config.CLI, logger logging.Logger, report telemetry.Reporter) error {
	reg, err := modulation.New()
	if err != nil {
		return fmt.Errorf("build modulation registry: %w", err)
	}

	pres := presenter.New(logger)
	report.Report(telemetry.Sample{Stage: telemetry.StageIdle, Dataset: cfg.DatasetPath})

	parseFn, err := parserFor(cfg, reg)
	if err != nil {
		return err
	}

	done, err := pres.StartParse(parseFn)
	if err != nil {
		return fmt.Errorf("start parse: %w", err)
	}
	report.Report(telemetry.Sample{Stage: telemetry.StageParsing, Dataset: cfg.DatasetPath})

	result := <-done
	if result.Err != nil {
		report.Report(telemetry.Sample{Stage: telemetry.StageIdle, Dataset: cfg.DatasetPath, Message: "parse failed", Err: result.Err.Error()})
		return fmt.Errorf("parse dataset: %w", result.Err)
	}
	report.Report(telemetry.Sample{Stage: telemetry.StageReady, Dataset: cfg.DatasetPath, Message: "parse finished"})

	if cfg.IIODURI == "" {
		logger.Info("no IIOD URI configured, dataset parsed and idle")
		return nil
	}

	hal := devicecore.NewHAL(logger)
	if cfg.SSHHost != "" {
		sshWriter, err := devicecore.NewSSHAttributeWriter(devicecore.SSHConfig{
			Host:     cfg.SSHHost,
			User:     cfg.SSHUser,
			Password: cfg.SSHPassword,
			KeyPath:  cfg.SSHKeyPath,
			Port:     cfg.SSHPort,
		})
		if err != nil {
			return fmt.Errorf("build ssh fallback writer: %w", err)
		}
		hal.SetSSHFallback(sshWriter)
	}

	static := []devicecore.Context{}
	if cfg.StaticContextURI != "" {
		static = append(static, devicecore.Context{URI: cfg.StaticContextURI, Description: cfg.StaticContextDesc})
	}
	contexts, err := hal.Discover(static, cfg.MdnsTimeoutSec)
	if err != nil {
		return fmt.Errorf("discover contexts: %w", err)
	}
	if len(contexts) == 0 {
		if probed, ok, err := devicecore.ProbeDefaultIP(ctx); err == nil && ok {
			contexts = append(contexts, probed)
		}
	}
	if len(contexts) == 0 {
		return errs.New(errs.DeviceMissing, "radiotx: no transmit context discovered")
	}

	core, err := hal.SelectContext(ctx, contexts[0])
	if err != nil {
		return fmt.Errorf("select context: %w", err)
	}
	defer hal.TeardownActive(ctx)

	if cfg.DumpPath != "" {
		core.SetDumpPath(cfg.DumpPath)
	}

	store, _ := pres.Store()
	return streamAll(ctx, core, store, reg, report)
}

func streamAll(ctx context.Context, core devicecore.Core, store *dataset.Store, reg *modulation.Registry, report telemetry.Reporter) error {
	for _, mod := range store.UniqueModulations() {
		for _, snr := range store.UniqueSNRs() {
			key := dataset.Key{Modulation: mod, SnrDb: snr}
			signal, ok := store.Get(key)
			if !ok {
				continue
			}

			frameLen := 0
			if len(signal.Frames) > 0 {
				frameLen = len(signal.Frames[0])
			}
			hz, err := devicecore.PlanSamplingFrequency(core, frameLen)
			if err != nil {
				return fmt.Errorf("plan sampling frequency: %w", err)
			}
			if err := core.SetSamplingFrequency(ctx, hz); err != nil && !errs.Is(err, errs.OutOfRange) {
				return fmt.Errorf("set sampling frequency: %w", err)
			}

			core.LoadSignal(signal)
			label := reg.Canonical(mod)
			report.Report(telemetry.Sample{Stage: telemetry.StageStreaming, Dataset: label, FramesTotal: len(signal.Frames)})

			if err := core.StartStreaming(ctx); err != nil {
				return fmt.Errorf("start streaming %s/%ddB: %w", label, snr, err)
			}
			select {
			case <-ctx.Done():
				_ = core.StopStreaming(ctx)
				return ctx.Err()
			default:
			}
			if err := core.StopStreaming(ctx); err != nil {
				return fmt.Errorf("stop streaming %s/%ddB: %w", label, snr, err)
			}
			report.Report(telemetry.Sample{Stage: telemetry.StageStopped, Dataset: label, FramesSent: len(signal.Frames)})
		}
	}
	return nil
}

func parserFor(cfg config.CLI, reg *modulation.Registry) (presenter.ParseFunc, error) {
	if cfg.DatasetPath == "" {
		return nil, errs.New(errs.InputFormat, "radiotx: -dataset-path is required")
	}

	switch cfg.DatasetKind {
	case "tuple":
		return func() (*dataset.Store, error) {
			data, err := os.ReadFile(cfg.DatasetPath)
			if err != nil {
				return nil, err
			}
			return tuple.Parse(string(data), reg)
		}, nil
	case "tabular":
		return func() (*dataset.Store, error) {
			f, err := os.Open(cfg.DatasetPath)
			if err != nil {
				return nil, err
			}
			defer f.Close()
			return tabular.Parse(f)
		}, nil
	case "hierarchical":
		// The hierarchical-scientific container needs a dataset.Source
		// implementation backed by a scientific-data library; no such
		// binding exists among this module's dependencies, so this
		// entry point can't open one from a bare file path. Embedders
		// with their own Source can call hierarchical.Parse directly.
		return nil, errs.New(errs.InputFormat, "radiotx: hierarchical dataset kind requires an embedder-supplied Source, see dataset/hierarchical")
	default:
		return nil, errs.New(errs.InputFormat, "radiotx: unknown dataset kind "+cfg.DatasetKind)
	}
}
