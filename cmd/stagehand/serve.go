package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/jackbeau/stagehand/internal/conf"
	"github.com/jackbeau/stagehand/internal/ctlproto"
	"github.com/jackbeau/stagehand/internal/logging"
	"github.com/jackbeau/stagehand/internal/metrics"
	"github.com/jackbeau/stagehand/internal/statusserver"
	"github.com/jackbeau/stagehand/internal/supervisor"
)

func serveCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the supervisor daemon: control socket, status server, and both workers' lifecycle",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configPath)
		},
	}
}

func runServe(configPath string) error {
	settings, err := conf.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading settings: %w", err)
	}
	logging.Init(settings.Main.Log.Path)
	log := logging.ForService("supervisor")

	self, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolving own executable path: %w", err)
	}

	spawn := func(ctx context.Context, kind supervisor.Kind) *exec.Cmd {
		cmd := exec.CommandContext(ctx, self, "worker", "--kind", string(kind), "--config", configPath)
		cmd.Stderr = os.Stderr
		return cmd
	}

	super := supervisor.New(spawn)

	reg := prometheus.NewRegistry()
	_ = metrics.NewScriptPointer(reg)
	_ = metrics.NewPerformerTracker(reg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ctlServer := ctlproto.NewServer(settings.ControlSocket, super)
	go func() {
		if err := ctlServer.Serve(ctx); err != nil {
			log.Error("control-plane server stopped", "error", err)
		}
	}()

	if settings.StatusServer.Enabled {
		reporter := statusserver.ReporterFunc(func() string {
			statuses := super.Status()
			if statuses[supervisor.ScriptPointer] == supervisor.StatusRunning ||
				statuses[supervisor.PerformerTracker] == supervisor.StatusRunning {
				return "running"
			}
			return "stopped"
		})
		go func() {
			if err := statusserver.Serve(ctx, settings.StatusServer.Listen, reporter); err != nil {
				log.Error("status server stopped", "error", err)
			}
		}()
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Info("shutting down, stopping workers")
	super.Stop(supervisor.ScriptPointer)
	super.Stop(supervisor.PerformerTracker)
	cancel()
	return nil
}
