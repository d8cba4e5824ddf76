package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/beagleboard/beaglemind/internal/config"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List configured backends and their models",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		for _, backend := range cfg.Backends() {
			marker := " "
			if backend == cfg.DefaultBackend {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, backend)
			for _, model := range cfg.Models(backend) {
				if backend == cfg.DefaultBackend && model == cfg.DefaultModel {
					fmt.Printf("    %s (default)\n", model)
				} else {
					fmt.Printf("    %s\n", model)
				}
			}
		}
	},
}
