package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/beagleboard/beaglemind/internal/app"
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "beaglemind",
	Short: "BeagleBoard documentation assistant",
	Long: `BeagleMind answers questions about the BeagleBoard ecosystem using
retrieved documentation and a language model, with tools for working
on the local machine.

Run without arguments for the interactive chat, or use 'prompt' for a
single question.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
	Run: func(cmd *cobra.Command, args []string) {
		application, err := app.NewApplication()
		if err != nil {
			slog.Error("failed to create application", "error", err)
			os.Exit(1)
		}
		defer application.Stop()

		if err := application.Start(); err != nil {
			slog.Error("application error", "error", err)
			os.Exit(1)
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(promptCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(doctorCmd)
}
