// Package hash provides the "hash" command for computing Merkle root
// hashes of directories. This is the primary command for generating
// checksums.
package hash

import (
	"fmt"
	"os"
	"time"

	"github.com/kitzbergerg/syncron/internal/assemble"
	"github.com/kitzbergerg/syncron/internal/logger"
	"github.com/kitzbergerg/syncron/internal/scanner"

	"github.com/kitzbergerg/syncron/cmd"
	"github.com/spf13/cobra"
)

// hashCmd represents the hash command for computing Merkle root hashes.
var hashCmd = &cobra.Command{
	Use:   "hash [path]",
	Short: "Compute the Merkle root hash of a directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		log := logger.With("path", path, "command", "hash")

		excludePatterns, err := cmd.Flags().GetStringArray("exclude")
		if err != nil {
			log.Warn("Failed to read exclude patterns", "error", err)
			excludePatterns = []string{}
		}
		customIgnoreFile, err := cmd.Flags().GetString("ignore-file")
		if err != nil {
			log.Warn("Failed to read ignore-file flag", "error", err)
			customIgnoreFile = ""
		}

		pathInfo, err := os.Stat(path)
		if err != nil {
			log.Error("Failed to get path info", "error", err)
			return fmt.Errorf("failed to stat path %q: %w", path, err)
		}

		log.Info("Starting hash computation")
		start := time.Now()

		t, err := assemble.BuildTree(cmd.Context(), scanner.Options{
			Root:             path,
			ExcludePatterns:  excludePatterns,
			CustomIgnoreFile: customIgnoreFile,
		})
		if err != nil {
			log.Error("Hash computation failed", "error", err, "duration", time.Since(start))
			return err
		}

		view := t.View()
		duration := time.Since(start)
		log.Info("Hash computation completed",
			"duration", duration,
			"hash", fmt.Sprintf("%x", view.Hash),
			"size", formatSize(view.TotalSize()),
		)

		pathType := "f"
		if pathInfo.IsDir() {
			pathType = "d"
		}
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %x (size: %s)\n",
			path, pathType, view.Hash, formatSize(view.TotalSize())); err != nil {
			log.Error("Failed to write output to stdout", "error", err)
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	},
}

// formatSize formats a size in bytes to a human-readable string. It
// automatically selects the most appropriate unit (B, KB, MB, GB, TB, PB,
// EB) based on the size value, using binary (1024-based) units.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	units := []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}
	size := float64(bytes)
	exp := 0

	for size >= unit && exp < len(units)-1 {
		size /= unit
		exp++
	}

	if exp == 1 { // KB
		if size == float64(int64(size)) {
			return fmt.Sprintf("%.0f %s", size, units[exp])
		}
		return fmt.Sprintf("%.1f %s", size, units[exp])
	}
	return fmt.Sprintf("%.1f %s", size, units[exp])
}

func init() {
	hashCmd.Flags().StringArrayP("exclude", "e", []string{}, "Exclude patterns (e.g., 'node_modules', '.git'). Can be specified multiple times.")
	hashCmd.Flags().StringP("ignore-file", "i", "", "Path to a custom ignore file. Its patterns join the --exclude patterns and, like them, apply only inside a Git repository, where .syncronignore and .gitignore are always loaded automatically and take precedence over both.")

	cmd.Register(hashCmd)
}
