// Command tafview queries a TAF or MAF alignment for a region, renders it to
// PNG and writes the hit-testing index and FASTA for the drawn region.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/arloliu/tafview/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := app.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
