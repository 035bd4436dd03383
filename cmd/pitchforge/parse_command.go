package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pitchforge/internal/extract"
	"pitchforge/internal/screenplay"
)

func newParseCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "parse <file>",
		Short: "Extract and parse a screenplay locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read script: %w", err)
			}

			res := extract.Extract(cmd.Context(), filepath.Base(path), data, "", extract.Options{})
			if strings.TrimSpace(res.Text) == "" {
				return fmt.Errorf("no text extracted from %s", path)
			}
			doc := screenplay.Parse(res.Text)
			doc.Warnings = append(doc.Warnings, res.Warnings...)

			if asJSON || !stdoutIsTerminal() {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(doc)
			}

			printDocument(cmd, doc)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit the parsed document as JSON")
	return cmd
}

func printDocument(cmd *cobra.Command, doc *screenplay.ScriptDocument) {
	out := cmd.OutOrStdout()

	title := doc.Title
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(out, "Title: %s\n", title)
	if len(doc.Authors) > 0 {
		fmt.Fprintf(out, "Authors: %s\n", strings.Join(doc.Authors, ", "))
	}
	sum := screenplay.Summarize(doc)
	fmt.Fprintf(out, "Scenes: %d  Dialogue blocks: %d  Action lines: %d  Characters: %d\n\n",
		sum.Scenes, sum.DialogueBlocks, sum.ActionLines, sum.Characters)

	rows := make([][]string, 0, len(doc.Scenes))
	for _, sc := range doc.Scenes {
		rows = append(rows, []string{
			strconv.Itoa(sc.ID),
			truncate(sc.Heading, 48),
			strconv.Itoa(len(sc.Dialogue)),
			strconv.Itoa(len(sc.Action)),
		})
	}
	fmt.Fprintln(out, renderTable([]string{"#", "Heading", "Dialogue", "Action"}, rows))

	if len(doc.Characters) > 0 {
		fmt.Fprintf(out, "\nCharacters: %s\n", strings.Join(doc.Characters, ", "))
	}
	for _, w := range doc.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
}
