package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/itohio/wavedaq/pkg/config"
)

var (
	configFlag string
	portFlag   string

	cfg *config.Config
)

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})

	root := &cobra.Command{
		Use:           "wavedaq",
		Short:         "Labeled waveform window collection for embedded ML",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.Load(configFlag)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			// Override serial port if provided via command line
			if portFlag != "" {
				cfg.Serial.Port = portFlag
			}

			return nil
		},
	}

	root.PersistentFlags().StringVar(&configFlag, "config", "config.yaml", "Configuration file path")
	root.PersistentFlags().StringVarP(&portFlag, "port", "p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")

	root.AddCommand(
		newCollectCmd(),
		newListCmd(),
		newCombineCmd(),
		newPortsCmd(),
		newGenerateCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
