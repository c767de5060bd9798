package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/itohio/wavedaq/pkg/generator"
)

func newGenerateCmd() *cobra.Command {
	var noAnnounce bool

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run the signal generator through the configured plan",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := generator.PlanSteps(cfg.Generator)
			if err != nil {
				return err
			}

			driver, err := generator.Open(cfg.Generator)
			if err != nil {
				return err
			}
			defer driver.Close()

			var announcer *generator.Announcer
			if !noAnnounce && cfg.Generator.UDPTarget != "" {
				announcer, err = generator.NewAnnouncer(cfg.Generator.UDPTarget)
				if err != nil {
					log.Warnf("Label announcements disabled: %v", err)
				} else {
					defer announcer.Close()
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()

			plan := generator.NewPlan(driver, announcer, steps, cfg.Generator.Gap)
			if err := plan.Run(ctx); err != nil {
				if errors.Is(err, context.Canceled) {
					log.Warnf("Plan interrupted, generator stopped")
					return nil
				}
				return err
			}

			log.Infof("Plan complete: %d steps", len(steps))
			return nil
		},
	}

	cmd.Flags().BoolVar(&noAnnounce, "no-announce", false, "Do not broadcast label datagrams")

	return cmd
}
