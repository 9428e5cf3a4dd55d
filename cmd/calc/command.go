// Package calc provides the "calc" command for verifying that a
// directory matches a given Merkle root hash. This is useful for
// integrity verification.
package calc

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/kitzbergerg/syncron/internal/assemble"
	"github.com/kitzbergerg/syncron/internal/logger"
	"github.com/kitzbergerg/syncron/internal/scanner"

	"github.com/kitzbergerg/syncron/cmd"
	"github.com/spf13/cobra"
)

// calcCmd represents the calc command for hash verification.
var calcCmd = &cobra.Command{
	Use:   "calc [path] [hash]",
	Short: "Verify that a directory matches the given root hash",
	Long: `Verify that a directory matches a given hash.
Computes the Merkle root hash of the specified directory and compares it with the provided hash.
Exits with code 0 if the hashes match, non-zero otherwise.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		expectedHashStr := args[1]
		log := logger.With("path", path, "command", "calc", "expected_hash", expectedHashStr)

		expectedHash, err := hex.DecodeString(expectedHashStr)
		if err != nil {
			log.Error("Failed to parse expected hash", "error", err)
			if _, writeErr := fmt.Fprintf(cmd.ErrOrStderr(), "Error: invalid hash format: %q (expected hexadecimal string)\n", expectedHashStr); writeErr != nil {
				log.Error("Failed to write error to stderr", "error", writeErr)
			}
			return fmt.Errorf("invalid hash format: %q (expected hexadecimal string): %w", expectedHashStr, err)
		}

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

		log.Info("Starting hash computation for verification")
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

		computedHash := t.RootHash()
		duration := time.Since(start)
		computedHashStr := fmt.Sprintf("%x", computedHash)
		log.Info("Hash computation completed",
			"duration", duration,
			"computed_hash", computedHashStr,
		)

		if len(expectedHash) != len(computedHash) {
			log.Error("Hash length mismatch",
				"computed_length", len(computedHash),
				"expected_length", len(expectedHash),
			)
			if writeErr := writeHashLengthMismatchOutput(cmd, len(computedHash), len(expectedHash), computedHashStr, expectedHashStr); writeErr != nil {
				log.Error("Failed to write hash length mismatch output", "error", writeErr)
			}
			return fmt.Errorf("hash mismatch")
		}

		match := true
		for i := range computedHash {
			if computedHash[i] != expectedHash[i] {
				match = false
				break
			}
		}

		if match {
			log.Info("Hash verification successful", "hash", computedHashStr)
			if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Hash matches: %s\n", computedHashStr); err != nil {
				log.Error("Failed to write output to stdout", "error", err)
				return fmt.Errorf("failed to write output: %w", err)
			}
			return nil
		}

		log.Error("Hash verification failed",
			"computed_hash", computedHashStr,
			"expected_hash", expectedHashStr,
		)
		if _, err := fmt.Fprintf(cmd.OutOrStderr(), "Hash mismatch!\n"); err != nil {
			log.Error("Failed to write output to stderr", "error", err)
			return fmt.Errorf("failed to write output: %w", err)
		}
		if _, err := fmt.Fprintf(cmd.OutOrStderr(), "Computed: %s\n", computedHashStr); err != nil {
			log.Error("Failed to write output to stderr", "error", err)
			return fmt.Errorf("failed to write output: %w", err)
		}
		if _, err := fmt.Fprintf(cmd.OutOrStderr(), "Expected: %s\n", expectedHashStr); err != nil {
			log.Error("Failed to write output to stderr", "error", err)
			return fmt.Errorf("failed to write output: %w", err)
		}
		return fmt.Errorf("hash mismatch")
	},
}

// writeHashLengthMismatchOutput writes hash length mismatch information to stderr.
func writeHashLengthMismatchOutput(cmd *cobra.Command, computedLen, expectedLen int, computedHash, expectedHash string) error {
	if _, err := fmt.Fprintf(cmd.OutOrStderr(), "Hash mismatch: computed hash length (%d) differs from expected hash length (%d)\n",
		computedLen, expectedLen); err != nil {
		return fmt.Errorf("failed to write length mismatch: %w", err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStderr(), "Computed: %s\n", computedHash); err != nil {
		return fmt.Errorf("failed to write computed hash: %w", err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStderr(), "Expected: %s\n", expectedHash); err != nil {
		return fmt.Errorf("failed to write expected hash: %w", err)
	}
	return nil
}

func init() {
	calcCmd.Flags().StringArrayP("exclude", "e", []string{}, "Exclude patterns (e.g., 'node_modules', '.git'). Can be specified multiple times.")
	calcCmd.Flags().StringP("ignore-file", "i", "", "Path to a custom ignore file. Its patterns join the --exclude patterns and, like them, apply only inside a Git repository, where .syncronignore and .gitignore are always loaded automatically and take precedence over both.")

	cmd.Register(calcCmd)
}
