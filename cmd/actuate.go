package cmd

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tristanduncombe/DECO3500/internal/actuator"
	"github.com/tristanduncombe/DECO3500/internal/config"
)

var actuateCmd = &cobra.Command{
	Use:   "actuate",
	Short: "Run the relay poll loop",
	Long: `Poll the Deco server's lock state and drive the compartment relay to
match it. Runs on the lock controller. Any poll failure lasting beyond
the staleness budget relocks the compartment.`,
	RunE: runActuate,
}

func init() {
	rootCmd.AddCommand(actuateCmd)
}

func runActuate(cmd *cobra.Command, args []string) error {
	cfg := config.LoadActuator()

	relay := &actuator.FileRelay{Path: cfg.RelayPath, ActiveLow: cfg.ActiveLow}
	client := actuator.NewClient(cfg.APIURL, cfg.PollInterval)

	poller := actuator.NewPoller(client, relay, cfg.PollInterval, cfg.StaleAfter)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Polling %s every %v (relay %s)", cfg.APIURL, cfg.PollInterval, cfg.RelayPath)

	err := poller.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Println("Actuator stopped, relay locked")
		return nil
	}
	return err
}
