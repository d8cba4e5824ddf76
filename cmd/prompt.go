package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/beagleboard/beaglemind/internal/config"
	"github.com/beagleboard/beaglemind/internal/llm"
	"github.com/beagleboard/beaglemind/internal/permission"
	"github.com/beagleboard/beaglemind/internal/qa"
	"github.com/beagleboard/beaglemind/internal/retrieval"
	"github.com/beagleboard/beaglemind/internal/tools"
)

var (
	promptBackend     string
	promptModel       string
	promptTemperature float32
	promptTools       bool
	promptSources     bool
	promptCollection  string
	promptYes         bool
)

var promptCmd = &cobra.Command{
	Use:   "prompt [question]",
	Short: "Ask a single question and print the answer",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")
		cfg := config.Load()

		backendName := promptBackend
		if backendName == "" {
			backendName = cfg.DefaultBackend
		}
		backend, err := llm.ParseKind(backendName)
		if err != nil {
			return fmt.Errorf("unknown backend %q (choose one of: %s)", backendName, strings.Join(cfg.Backends(), ", "))
		}

		model := promptModel
		if model == "" {
			model = cfg.DefaultModel
		}
		temperature := promptTemperature
		if !cmd.Flags().Changed("temperature") {
			temperature = float32(cfg.DefaultTemperature)
		}
		collection := promptCollection
		if collection == "" {
			collection = cfg.Collection()
		}

		session := qa.NewSession()
		session.StartConversation()

		var approver permission.Approver
		if promptYes {
			approver = permission.AutoApprover{Allow: true}
		} else {
			approver = permission.NewTerminalApprover()
		}

		search := retrieval.NewClient(cfg.BackendURL(), collection)
		engine := qa.NewEngine(search, llm.DefaultSet(), session, tools.NewDispatcher(), approver)

		opts := qa.Options{
			Backend:     backend,
			Model:       model,
			Temperature: temperature,
			Collection:  collection,
		}

		var result qa.ChatResult
		if promptTools {
			result = engine.AskWithTools(context.Background(), question, opts)
		} else {
			result = engine.Ask(context.Background(), question, opts)
		}

		fmt.Println(result.Answer)

		if promptSources && len(result.Sources) > 0 {
			fmt.Println("\nSources:")
			for _, source := range result.Sources {
				name, _ := source["file_name"].(string)
				link, _ := source["source_link"].(string)
				if link != "" {
					fmt.Printf("  - %s (%s)\n", name, link)
				} else {
					fmt.Printf("  - %s\n", name)
				}
			}
		}

		if !result.Success {
			fmt.Fprintln(os.Stderr, "error:", result.Error)
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	promptCmd.Flags().StringVarP(&promptBackend, "backend", "b", "", "LLM backend (groq, openai, ollama)")
	promptCmd.Flags().StringVarP(&promptModel, "model", "m", "", "model name")
	promptCmd.Flags().Float32VarP(&promptTemperature, "temperature", "t", 0.3, "sampling temperature")
	promptCmd.Flags().BoolVar(&promptTools, "tools", true, "enable the tool-calling loop")
	promptCmd.Flags().BoolVar(&promptSources, "sources", false, "print retrieved sources after the answer")
	promptCmd.Flags().StringVarP(&promptCollection, "collection", "c", "", "document collection to search")
	promptCmd.Flags().BoolVarP(&promptYes, "yes", "y", false, "approve file modifications without asking")
}
