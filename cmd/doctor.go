package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/beagleboard/beaglemind/internal/config"
	"github.com/beagleboard/beaglemind/internal/doctor"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose configuration, API keys, and service connectivity",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()
		report := doctor.Run(context.Background(), cfg)

		for _, check := range report.Checks {
			var mark string
			switch check.Status {
			case doctor.StatusOK:
				mark = "[ok]  "
			case doctor.StatusWarning:
				mark = "[warn]"
			case doctor.StatusError:
				mark = "[fail]"
			}
			fmt.Printf("%s %-16s %s\n", mark, check.Name, check.Detail)
			if check.Advice != "" {
				fmt.Printf("       %s\n", check.Advice)
			}
		}

		if report.Healthy() {
			fmt.Println("\nEverything required is in place.")
		} else {
			fmt.Println("\nSome required checks failed.")
			os.Exit(1)
		}
	},
}
