// Command leadverify collects business leads and verifies their
// WhatsApp reachability.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/user/leadverify-service/internal/cli"
	"github.com/user/leadverify-service/internal/repository"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCmd()
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	switch {
	case errors.Is(err, context.Canceled):
		// Interrupted runs already checkpointed their progress.
		os.Exit(130)
	case errors.Is(err, repository.ErrAuthRequired):
		fmt.Fprintln(os.Stderr, "Run `leadverify verify --login` once to scan the QR code.")
		os.Exit(1)
	default:
		os.Exit(1)
	}
}
