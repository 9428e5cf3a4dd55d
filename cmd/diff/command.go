// Package diff provides the "diff" command for comparing two directory
// Merkle path-trees and reporting what changed and what moved.
package diff

import (
	"fmt"
	"strings"
	"time"

	"github.com/kitzbergerg/syncron/internal/assemble"
	syncdiff "github.com/kitzbergerg/syncron/internal/diff"
	"github.com/kitzbergerg/syncron/internal/logger"
	"github.com/kitzbergerg/syncron/internal/scanner"

	"github.com/kitzbergerg/syncron/cmd"
	"github.com/spf13/cobra"
)

// diffCmd represents the diff command for directory comparison.
var diffCmd = &cobra.Command{
	Use:   "diff [pathA] [pathB]",
	Short: "Compare two directory Merkle path-trees",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		pathA := args[0]
		pathB := args[1]
		log := logger.With("pathA", pathA, "pathB", pathB, "command", "diff")

		patterns, err := cmd.Flags().GetStringArray("exclude")
		if err != nil {
			log.Warn("Failed to read exclude patterns", "error", err)
			patterns = []string{}
		}
		customIgnoreFile, err := cmd.Flags().GetString("ignore-file")
		if err != nil {
			log.Warn("Failed to read ignore-file flag", "error", err)
			customIgnoreFile = ""
		}

		log.Info("Starting directory comparison")
		start := time.Now()

		treeA, err := assemble.BuildTree(cmd.Context(), scanner.Options{Root: pathA, ExcludePatterns: patterns, CustomIgnoreFile: customIgnoreFile})
		if err != nil {
			log.Error("Failed to scan pathA", "error", err)
			return err
		}
		treeB, err := assemble.BuildTree(cmd.Context(), scanner.Options{Root: pathB, ExcludePatterns: patterns, CustomIgnoreFile: customIgnoreFile})
		if err != nil {
			log.Error("Failed to scan pathB", "error", err)
			return err
		}

		result := syncdiff.Diff(treeA, treeB)
		duration := time.Since(start)
		log.Info("Comparison completed",
			"duration", duration,
			"changed", len(result.Changed),
			"moves", len(result.Moves),
		)

		for _, line := range formatResult(result) {
			if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
				log.Error("Failed to write output to stdout", "error", err, "line", line)
				return fmt.Errorf("failed to write output: %w", err)
			}
		}

		return nil
	},
}

// formatResult renders a diff.Result as line-oriented, pipeable output.
func formatResult(result syncdiff.Result) []string {
	if result.Identical {
		return []string{"identical"}
	}

	moved := make(map[string]bool, len(result.Moves)*2)
	var lines []string
	for _, m := range result.Moves {
		lines = append(lines, fmt.Sprintf("moved: %s -> %s", strings.Join(m.LeftPath, "/"), strings.Join(m.RightPath, "/")))
		moved[strings.Join(m.LeftPath, "/")] = true
		moved[strings.Join(m.RightPath, "/")] = true
	}

	for _, c := range result.Changed {
		p := strings.Join(c.Path, "/")
		if moved[p] {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s", c.Side, p))
	}

	return lines
}

func init() {
	diffCmd.Flags().StringArrayP("exclude", "e", []string{}, "Exclude patterns (e.g., 'node_modules', '.git'). Can be specified multiple times.")
	diffCmd.Flags().StringP("ignore-file", "i", "", "Path to a custom ignore file. Its patterns join the --exclude patterns and, like them, apply only inside a Git repository, where .syncronignore and .gitignore are always loaded automatically and take precedence over both.")

	cmd.Register(diffCmd)
}
