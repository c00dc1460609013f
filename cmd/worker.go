package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start the outbox dispatcher and the reservation event consumer without the HTTP server`,
	Run: func(cmd *cobra.Command, args []string) {
		startWorker()
	},
}

func startWorker() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	deps.Logger.Info("starting background workers")

	ctx, stop := context.WithCancel(context.Background())
	go deps.Dispatcher.Run(ctx)
	go deps.Consumer.Start(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	deps.Logger.Info("received signal, shutting down", "signal", sig)

	shutdownWorkers(deps, stop)
	deps.Logger.Info("workers stopped")
}
