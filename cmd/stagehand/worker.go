package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jackbeau/stagehand/internal/artnet"
	"github.com/jackbeau/stagehand/internal/audio"
	"github.com/jackbeau/stagehand/internal/conf"
	"github.com/jackbeau/stagehand/internal/lamp"
	"github.com/jackbeau/stagehand/internal/logging"
	"github.com/jackbeau/stagehand/internal/matcher"
	"github.com/jackbeau/stagehand/internal/metrics"
	"github.com/jackbeau/stagehand/internal/mqtt"
	"github.com/jackbeau/stagehand/internal/realworld"
	"github.com/jackbeau/stagehand/internal/script"
	"github.com/jackbeau/stagehand/internal/scriptpointer"
	"github.com/jackbeau/stagehand/internal/supervisor"
	"github.com/jackbeau/stagehand/internal/tracking"
)

func workerCommand(configPath *string) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:    "worker",
		Short:  "Run one worker pipeline in the foreground (spawned by the supervisor)",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(supervisor.Kind(kind), *configPath)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "worker kind: script-pointer or performer-tracker")
	return cmd
}

func runWorker(kind supervisor.Kind, configPath string) error {
	settings, err := conf.Load(configPath)
	if err != nil {
		_ = supervisor.WriteStatus(os.Stdout, supervisor.StatusFailed, err.Error())
		return err
	}
	logging.Init(settings.Main.Log.Path)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sig
		cancel()
	}()

	switch kind {
	case supervisor.ScriptPointer:
		return runScriptPointerWorker(ctx, settings)
	case supervisor.PerformerTracker:
		return runPerformerWorker(ctx, settings)
	default:
		err := fmt.Errorf("unknown worker kind %q", kind)
		_ = supervisor.WriteStatus(os.Stdout, supervisor.StatusFailed, err.Error())
		return err
	}
}

func runScriptPointerWorker(ctx context.Context, settings *conf.Settings) error {
	if NewASREngine == nil {
		err := fmt.Errorf("no ASR engine wired into this build")
		_ = supervisor.WriteStatus(os.Stdout, supervisor.StatusFailed, err.Error())
		return err
	}
	engine, err := NewASREngine(settings)
	if err != nil {
		_ = supervisor.WriteStatus(os.Stdout, supervisor.StatusFailed, err.Error())
		return err
	}

	idx, err := script.Load(settings.Script.Path)
	if err != nil {
		_ = supervisor.WriteStatus(os.Stdout, supervisor.StatusFailed, err.Error())
		return err
	}

	auditPath := ""
	if settings.Main.Log.Path != "" {
		auditPath = filepath.Join(filepath.Dir(settings.Main.Log.Path), "match_audit.csv")
	}
	window, err := matcher.NewWindow(idx, auditPath)
	if err != nil {
		_ = supervisor.WriteStatus(os.Stdout, supervisor.StatusFailed, err.Error())
		return err
	}
	defer window.Close()

	buffer := audio.New(settings.Microphone.MicrophoneDevice).
		WithDebugDump(settings.Microphone.DebugDump, settings.Microphone.DebugDumpPath)
	if err := buffer.Start(ctx); err != nil {
		_ = supervisor.WriteStatus(os.Stdout, supervisor.StatusFailed, err.Error())
		return err
	}
	defer buffer.Stop()

	client := mqtt.NewClient(settings)
	if err := client.Connect(ctx); err != nil {
		_ = supervisor.WriteStatus(os.Stdout, supervisor.StatusFailed, err.Error())
		return err
	}
	defer client.Disconnect()

	reg := prometheus.NewRegistry()
	pipelineMetrics := metrics.NewScriptPointer(reg)

	pipeline := scriptpointer.New(buffer, engine, window, client, conf.ScriptPointerTick).WithMetrics(pipelineMetrics)

	_ = supervisor.WriteStatus(os.Stdout, supervisor.StatusRunning, "")

	stop := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(stop)
	}()
	pipeline.Run(ctx, stop)

	_ = supervisor.WriteStatus(os.Stdout, supervisor.StatusStopped, "")
	return nil
}

func runPerformerWorker(ctx context.Context, settings *conf.Settings) error {
	if settings.PerformerTracker.LoggingLevel != "" {
		logging.SetLevel(logging.ParseLevel(settings.PerformerTracker.LoggingLevel))
	}
	if NewDetector == nil || NewEncoder == nil {
		err := fmt.Errorf("no vision detector/encoder wired into this build")
		_ = supervisor.WriteStatus(os.Stdout, supervisor.StatusFailed, err.Error())
		return err
	}
	detector, err := NewDetector(settings)
	if err != nil {
		_ = supervisor.WriteStatus(os.Stdout, supervisor.StatusFailed, err.Error())
		return err
	}
	encoder, err := NewEncoder(settings)
	if err != nil {
		_ = supervisor.WriteStatus(os.Stdout, supervisor.StatusFailed, err.Error())
		return err
	}

	cell := &realworld.Cell{}

	trackingPipeline, err := tracking.NewFromSettings(settings, detector, encoder, cell)
	if err != nil {
		_ = supervisor.WriteStatus(os.Stdout, supervisor.StatusFailed, err.Error())
		return err
	}

	universe := artnet.NewUniverse(settings.PerformerTracker.LightUniverseID, []artnet.Channel{
		{Name: "pan", Start: conf.DefaultPanOffset, Width: 1},
		{Name: "tilt", Start: conf.DefaultTiltOffset, Width: 1},
		{Name: "shutter", Start: conf.DefaultShutterOffset, Width: 1},
		{Name: "dimmer", Start: conf.DefaultDimmerOffset, Width: 1},
	})
	emitter, err := artnet.NewEmitter(net.JoinHostPort(settings.PerformerTracker.LightNodeIP, strconv.Itoa(settings.PerformerTracker.LightNodePort)))
	if err != nil {
		_ = supervisor.WriteStatus(os.Stdout, supervisor.StatusFailed, err.Error())
		return err
	}
	defer emitter.Close()

	lampLoop := lamp.New(lamp.Config{
		Origin: lamp.Origin{
			X0: settings.PerformerTracker.LightCoords[0],
			Y0: settings.PerformerTracker.LightCoords[1],
			Z0: settings.PerformerTracker.LightCoords[2],
		},
		MaxPan:      settings.PerformerTracker.MaxPan,
		MaxTilt:     settings.PerformerTracker.MaxTilt,
		StageHeight: settings.StageZone.HomographyHeight,
		Freshness:   conf.LampFreshness,
		Tick:        conf.LampTick,
	}, cell, universe, emitter)

	reg := prometheus.NewRegistry()
	pipelineMetrics := metrics.NewPerformerTracker(reg)
	trackingPipeline.WithMetrics(pipelineMetrics)
	lampLoop.WithMetrics(pipelineMetrics)

	_ = supervisor.WriteStatus(os.Stdout, supervisor.StatusRunning, "")

	stop := make(chan struct{})
	go func() {
		<-ctx.Done()
		close(stop)
	}()

	lampDone := make(chan struct{})
	go func() {
		lampLoop.Run(stop)
		close(lampDone)
	}()

	runErr := trackingPipeline.Run(stop)
	select {
	case <-stop:
	default:
		close(stop)
	}
	<-lampDone

	if errors.Is(runErr, tracking.ErrEmptyFeed) {
		_ = supervisor.WriteStatus(os.Stdout, supervisor.StatusStopped, runErr.Error())
		return nil
	}
	if runErr != nil {
		_ = supervisor.WriteStatus(os.Stdout, supervisor.StatusFailed, runErr.Error())
		return runErr
	}
	_ = supervisor.WriteStatus(os.Stdout, supervisor.StatusStopped, "")
	return nil
}
