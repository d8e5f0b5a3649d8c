// Command testsize discovers size-tagged tests and prints go test
// invocations for a tag selection.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/testsize/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := cli.New().Execute(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}
