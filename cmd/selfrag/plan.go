package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sweetpotato0/selfrag/rag/agentic"
)

var planCmd = &cobra.Command{
	Use:   "plan [question]",
	Short: "Show how a question would be planned",
	Long:  `Runs the planner only. No document is loaded and no backend is contacted.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runPlan,
}

// planJSON is a flag for the plan command.
var planJSON bool

func init() {
	planCmd.Flags().BoolVar(&planJSON, "json", false, "Print the plan as JSON")
	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, args []string) error {
	plan := agentic.NewPlanner().Plan(args[0])
	if planJSON {
		data, err := json.MarshalIndent(plan, "", "  ")
		if err != nil {
			return fmt.Errorf("encode plan: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}
	printPlan(cmd, plan)
	return nil
}
