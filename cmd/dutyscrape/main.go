// cmd/dutyscrape/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/law-makers/dutyscrape/internal/cli"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The first signal stops the batch after the current item, a second one exits
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Warn().Msg("Interrupt received, finishing the current item...")
		cancel()
		<-sigCh
		log.Warn().Msg("Second interrupt, exiting")
		os.Exit(130)
	}()

	if err := cli.Execute(ctx); err != nil {
		cancel()
		os.Exit(1)
	}
}
