// ./main.go
package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/xkilldash9x/assessment-export/cmd"
)

// main is the entry point for the assessment export CLI.
func main() {
	// Interrupts cancel the run; a cancelled run leaves no report behind.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd.Execute(ctx)
}
