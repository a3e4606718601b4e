// Command jobboard is a command-line client for the job-board platform.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/florianilch/jobboard-cli/cmd/jobboard/commands"
	"github.com/florianilch/jobboard-cli/internal/apiclient"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.Execute(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		if errors.Is(err, apiclient.ErrLoginRequired) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
