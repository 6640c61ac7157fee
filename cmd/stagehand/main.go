// Command stagehand is the stage-assistant backend's entry point: it is
// both the foreground daemon (serve) and the control-plane client
// (start/stop/status) for the two worker pipelines, following the
// teacher's pattern of one cobra root command built by RootCommand and
// invoked from a slim main.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := RootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
