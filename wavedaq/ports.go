package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/itohio/wavedaq/pkg/device"
)

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List available serial ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := device.Ports()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Println("No serial ports found")
				return nil
			}

			for _, p := range ports {
				fmt.Printf("  %s\n", p.Name)
			}
			return nil
		},
	}
}
