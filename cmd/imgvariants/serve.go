package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/giobyte8/imgvariants/internal/consumer"
	"github.com/giobyte8/imgvariants/internal/telemetry"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Consume variants generation/removal requests from AMQP",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func prepareAMQPConsumer(
	telemetrySvc *telemetry.TelemetrySvc,
) (consumer.MessageConsumer, error) {
	variantsSvc, err := prepareVariantsService(telemetrySvc)
	if err != nil {
		return nil, err
	}

	var amqpCfg consumer.AMQPConfig
	amqpCfg.AMQPUri = cfg.AMQPUri()
	amqpCfg.Exchange = cfg.AMQPExchange
	amqpCfg.VariantsGenQueueName = cfg.AMQPQueueVariantsGenReqs
	amqpCfg.VariantsDelQueueName = cfg.AMQPQueueVariantsDelReqs

	return consumer.NewAMQPConsumer(amqpCfg, variantsSvc, telemetrySvc)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := cfg.ValidateAMQP(); err != nil {
		return err
	}

	slog.Info("Starting imgvariants service...")
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// Init telemetry services
	telemetrySvc, err := telemetry.NewTelemetrySvc(ctx, telemetry.Config{
		OtelEnabled:               cfg.OtelEnabled,
		OtelCollectorGrpcEndpoint: cfg.OtelCollectorGrpcEndpoint,
	})
	if err != nil {
		slog.Error("Failed to initialize Telemetry services", "error", err)
		return err
	}

	amqpConsumer, err := prepareAMQPConsumer(telemetrySvc)
	if err != nil {
		slog.Error("Failed to create AMQP consumer", "error", err)
		return err
	}

	if err := amqpConsumer.Start(ctx); err != nil {
		slog.Error("Failed to start AMQP consumer", "error", err)
		return err
	}
	slog.Info("imgvariants service is running. Press Ctrl+C to stop.")

	// Graceful shutdown (listen for OS signals)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case s := <-sigChan:
		slog.Info("Received OS signal, shutting down...", "signal", s.String())
	case <-ctx.Done():
		slog.Info(
			"Parent context cancelled, shutting down...",
			"reason",
			ctx.Err(),
		)
	}

	// --- --- --- --- --- --- --- --- --- --- --- ---
	// Perform graceful shutdown operations
	// before cancelling context

	amqpConsumer.Stop()
	if err := telemetrySvc.Shutdown(context.WithoutCancel(ctx)); err != nil {
		slog.Error("Failed to shutdown telemetry services", "error", err)
	}

	// Trigger context cancellation
	cancel()
	slog.Info("imgvariants service exited gracefully.")
	return nil
}
