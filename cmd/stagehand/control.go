package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackbeau/stagehand/internal/conf"
	"github.com/jackbeau/stagehand/internal/ctlproto"
)

func dialControlSocket(configPath string) (*ctlproto.Conn, error) {
	settings, err := conf.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading settings: %w", err)
	}
	return ctlproto.Dial(settings.ControlSocket)
}

func startCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:       "start [script-pointer|performer-tracker]",
		Short:     "Start a worker pipeline via the running supervisor",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"script-pointer", "performer-tracker"},
		RunE: func(cmd *cobra.Command, args []string) error {
			verb, err := verbForStart(args[0])
			if err != nil {
				return err
			}
			return callAndPrint(*configPath, ctlproto.Request{Verb: verb})
		},
	}
}

func stopCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:       "stop [script-pointer|performer-tracker]",
		Short:     "Stop a worker pipeline via the running supervisor",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"script-pointer", "performer-tracker"},
		RunE: func(cmd *cobra.Command, args []string) error {
			verb, err := verbForStop(args[0])
			if err != nil {
				return err
			}
			return callAndPrint(*configPath, ctlproto.Request{Verb: verb})
		},
	}
}

func statusCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print both worker pipelines' last known status",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := dialControlSocket(*configPath)
			if err != nil {
				return err
			}
			defer conn.Close()

			resp, err := conn.Call(ctlproto.Request{Verb: ctlproto.VerbGetStatuses})
			if err != nil {
				return err
			}
			fmt.Printf("script-pointer: %s\nperformer-tracker: %s\n", resp.ScriptPointerStatus, resp.PerformerStatus)
			return nil
		},
	}
}

func callAndPrint(configPath string, req ctlproto.Request) error {
	conn, err := dialControlSocket(configPath)
	if err != nil {
		return err
	}
	defer conn.Close()

	resp, err := conn.Call(req)
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("request failed: %s", resp.Error)
	}
	fmt.Println("ok")
	return nil
}

func verbForStart(worker string) (ctlproto.Verb, error) {
	switch worker {
	case "script-pointer":
		return ctlproto.VerbStartScriptPointer, nil
	case "performer-tracker":
		return ctlproto.VerbStartPerformer, nil
	default:
		return "", fmt.Errorf("unknown worker %q", worker)
	}
}

func verbForStop(worker string) (ctlproto.Verb, error) {
	switch worker {
	case "script-pointer":
		return ctlproto.VerbStopScriptPointer, nil
	case "performer-tracker":
		return ctlproto.VerbStopPerformer, nil
	default:
		return "", fmt.Errorf("unknown worker %q", worker)
	}
}
