// Command dispatchdemo exercises a Dispatcher or a Pool end to end: it pushes a batch of
// tasks, starts the workers, waits for every task to run and prints a summary.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
