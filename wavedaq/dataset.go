package main

import (
	"fmt"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/itohio/wavedaq/pkg/dataset"
	"github.com/itohio/wavedaq/pkg/wave"
)

func newListCmd() *cobra.Command {
	var statsFlag bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the collected dataset files",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := dataset.NewStore(cfg.Dataset.DataDir)
			if err != nil {
				return err
			}

			infos, err := store.List()
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				fmt.Printf("No per-label files in %s\n", store.CSVDir())
				return nil
			}

			total := 0
			for _, info := range infos {
				fmt.Printf("  %-12s %5d windows  %s\n",
					info.Label, info.Windows, filepath.Base(info.Path))
				total += info.Windows

				if statsFlag {
					windows, err := store.ReadLabel(info.Label)
					if err != nil {
						return err
					}
					if len(windows) > 0 {
						st := wave.Analyze(windows[0].Samples)
						fmt.Printf("               first window: min=%d max=%d mean=%.1f range=%d\n",
							st.Min, st.Max, st.Mean, st.Range())
					}
				}
			}
			fmt.Printf("  %-12s %5d windows\n", "total", total)

			if store.HasCombined() {
				fmt.Printf("  combined: %s\n", store.CombinedPath())
			} else {
				fmt.Println("  combined: not built (run `wavedaq combine`)")
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&statsFlag, "stats", false, "Show first-window sample statistics per label")

	return cmd
}

func newCombineCmd() *cobra.Command {
	var compressFlag bool

	cmd := &cobra.Command{
		Use:   "combine",
		Short: "Rebuild the combined dataset from the per-label files",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := dataset.NewStore(cfg.Dataset.DataDir)
			if err != nil {
				return err
			}

			combined, err := store.Combine()
			if err != nil {
				return err
			}
			log.Infof("Combined dataset → %s", combined)

			if compressFlag || cfg.Dataset.Compress {
				comp, err := dataset.NewCompressor()
				if err != nil {
					return err
				}
				defer comp.Close()

				out, err := comp.CompressFile(combined)
				if err != nil {
					return err
				}
				log.Infof("Compressed → %s", out)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&compressFlag, "compress", false, "Also write a zstd copy of the combined file")

	return cmd
}
