// Command structure administers the projects and categories a messaging
// runtime serves.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/structure/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()

	if err == nil {
		return
	}

	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		// Flag and argument parsing errors come straight from cobra.
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCommandError)
	}
	// Wrapped errors were already written by the command's formatter.
	if exitErr.Err == nil {
		fmt.Fprintln(os.Stderr, "Error:", exitErr.Message)
	}
	os.Exit(exitErr.Code)
}
