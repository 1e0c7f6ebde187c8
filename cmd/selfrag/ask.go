package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var askCmd = &cobra.Command{
	Use:   "ask [file] [question]",
	Short: "Answer one question about a document",
	Long: `Indexes the document, then plans, retrieves, answers, critiques and
revises an answer to the question.`,
	Args: cobra.ExactArgs(2),
	RunE: runAsk,
}

// Flags for the ask command.
var (
	askJSON    bool
	askVerbose bool
)

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "Print the full pipeline result as JSON")
	askCmd.Flags().BoolVarP(&askVerbose, "verbose", "v", false, "Show plan, retrieval and critique details")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(appConfig)
	if err != nil {
		return err
	}
	if err := a.services.Warm(ctx); err != nil {
		return err
	}
	if _, _, err := a.ingestFile(ctx, args[0]); err != nil {
		return err
	}

	resp, err := a.pipeline.Run(ctx, args[1])
	if err != nil {
		return err
	}

	if askJSON {
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("encode response: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	printResponse(cmd, resp, askVerbose)
	return nil
}
