// Command server runs the HTTP API: the spaced-repetition scheduling core,
// event log, session selector, and tutor/student relationship graph behind
// the routes in internal/transport/rest.
//
// Exit codes: 0 = clean shutdown, 1 = startup or shutdown error.
package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/tandemly/srscore/internal/app"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx); err != nil {
		log.Fatalf("server exited with error: %v", err)
	}
}
