// Package main is the entrypoint of Fetcharr.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fetcharr/internal/cfg"
	"fetcharr/internal/domain/consts"
	"fetcharr/internal/domain/paths"
	"fetcharr/internal/utils/logging"
)

func main() {
	os.Exit(run())
}

// run sets up files and logging, then executes the command tree. It returns the exit code.
func run() int {
	startTime := time.Now()

	if err := paths.InitProgFilesDirs(); err != nil {
		fmt.Fprintf(os.Stderr, "%s exiting with error: %v\n", consts.ProgramName, err)
		return 1
	}

	logFile, err := logging.SetupLogging(paths.LogFilePath, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not set up logging, proceeding without: %v\n", err)
	} else {
		defer logFile.Close()
	}

	// Cancellable context for shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	logging.D(1, "%s %s (PID: %d) started at: %v", consts.ProgramName, consts.ProgramVersion,
		os.Getpid(), startTime.Format("2006-01-02 15:04:05.00 MST"))

	// ---- INIT COMMANDS ----
	if err := cfg.InitCommands(ctx, openRuntime); err != nil {
		logging.E("Error: %v", err)
		return 1
	}

	// ---- RUN PROGRAM ----
	runErr := cfg.Execute(ctx)

	// ---- SHUTDOWN ----
	logging.D(1, "%s finished in %v", consts.ProgramName, time.Since(startTime).Round(time.Millisecond))
	if runErr != nil {
		logging.E("Error: %v", runErr)
		return 1
	}
	return 0
}
