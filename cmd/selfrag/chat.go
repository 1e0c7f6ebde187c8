package main

import (
	"bufio"
	"errors"
	"strings"

	"github.com/spf13/cobra"
	selfragerrors "github.com/sweetpotato0/selfrag/errors"
)

var chatCmd = &cobra.Command{
	Use:   "chat [file]",
	Short: "Ask questions about a document interactively",
	Long: `Indexes the document and reads questions from standard input. Every
answer is recorded in the session log.

Commands:
  history   show the session log
  clear     empty the session log
  exit      leave (also: quit)`,
	Args: cobra.ExactArgs(1),
	RunE: runChat,
}

// chatVerbose is a flag for the chat command.
var chatVerbose bool

func init() {
	chatCmd.Flags().BoolVarP(&chatVerbose, "verbose", "v", false, "Show plan, retrieval and critique details")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(appConfig)
	if err != nil {
		return err
	}
	if err := a.services.Warm(ctx); err != nil {
		return err
	}
	doc, n, err := a.ingestFile(ctx, args[0])
	if err != nil {
		return err
	}
	cmd.Printf("Indexed %s: %d pages, %d chunks.\n", doc.Source, doc.PageCount(), n)
	cmd.Println("Type a question, or history, clear, exit.")

	session := a.pipeline.Memory()
	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		cmd.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return nil
		case "history":
			printHistory(cmd, session)
			continue
		case "clear":
			session.Clear()
			cmd.Println("Session cleared.")
			continue
		}

		resp, err := a.pipeline.Run(ctx, line)
		if err != nil {
			cmd.PrintErrf("Error: %v\n", err)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if errors.Is(err, selfragerrors.ErrServiceUnavailable) {
				return err
			}
			continue
		}
		printResponse(cmd, resp, chatVerbose)
	}
	cmd.Println()
	return scanner.Err()
}
