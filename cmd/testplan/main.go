// Command testplan generates, reviews and uploads test plans.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := Run(ctx, os.Args[1:], os.Stdout, os.Stderr, BuildApp); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		cancel()
		os.Exit(1)
	}
}

// Run executes the command line args.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer, build Builder) error {
	root, closeApp := newRootCmd(build, stdout, stderr)
	defer closeApp()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
