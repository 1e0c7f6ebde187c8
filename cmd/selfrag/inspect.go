package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/sweetpotato0/selfrag/rag/chunking"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [file]",
	Short: "Show extraction and chunking statistics for a document",
	Long:  `Extracts and chunks a document with the configured settings without embedding it.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

// inspectJSON is a flag for the inspect command.
var inspectJSON bool

func init() {
	inspectCmd.Flags().BoolVar(&inspectJSON, "json", false, "Print statistics as JSON")
	rootCmd.AddCommand(inspectCmd)
}

type inspectReport struct {
	Source     string         `json:"source"`
	Strategy   string         `json:"strategy"`
	Pages      int            `json:"pages"`
	EmptyPages int            `json:"empty_pages"`
	Characters int            `json:"characters"`
	Chunks     chunking.Stats `json:"chunks"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	cfg := appConfig

	doc, err := loadDocument(ctx, cfg, args[0])
	if err != nil {
		return err
	}
	chunks, err := newChunker(cfg.Chunking).Chunk(ctx, doc.Text)
	if err != nil {
		return fmt.Errorf("chunk document: %w", err)
	}

	report := inspectReport{
		Source:     doc.Source,
		Strategy:   cfg.Chunking.Strategy,
		Pages:      doc.PageCount(),
		Characters: len([]rune(doc.Text)),
		Chunks:     chunking.Summarize(chunks),
	}
	for _, p := range doc.Pages {
		if p == "" {
			report.EmptyPages++
		}
	}

	if inspectJSON {
		data, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Printf("Source: %s\n", report.Source)
	cmd.Printf("Pages: %d", report.Pages)
	if report.EmptyPages > 0 {
		cmd.Printf(" (%d without text)", report.EmptyPages)
	}
	cmd.Println()
	cmd.Printf("Characters: %d\n", report.Characters)
	cmd.Printf("Chunks: %d (avg %.0f chars, %s strategy)\n", report.Chunks.Count, report.Chunks.AvgLength, report.Strategy)
	return nil
}
