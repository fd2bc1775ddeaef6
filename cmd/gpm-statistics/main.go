// Command gpm-statistics prints smoothed battery history and statistics.
package main

import (
	"context"
	"os"
	"os/signal"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := Execute(ctx)
	stop()
	os.Exit(code)
}
