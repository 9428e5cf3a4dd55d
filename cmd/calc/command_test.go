package calc

import (
	"bytes"
	"context"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kitzbergerg/syncron/cmd"
	"github.com/kitzbergerg/syncron/internal/assemble"
	"github.com/kitzbergerg/syncron/internal/logger"
	"github.com/kitzbergerg/syncron/internal/scanner"
)

func init() {
	// Silence logger during tests - only show errors
	logger.Init("error", "text", io.Discard)
}

func hashOf(t *testing.T, root string, excludes []string) string {
	t.Helper()
	tr, err := assemble.BuildTree(context.Background(), scanner.Options{
		Root:            root,
		ExcludePatterns: excludes,
	})
	if err != nil {
		t.Fatalf("Failed to build tree for %q: %v", root, err)
	}
	h := tr.RootHash()
	return hex.EncodeToString(h[:])
}

func TestCalcCmd_MatchingHash(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.txt")
	if err := os.WriteFile(testFile, []byte("test content"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	expectedHash := hashOf(t, testFile, nil)

	var buf bytes.Buffer
	var errBuf bytes.Buffer
	rootCmd := cmd.GetRootCmd()
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&errBuf)
	rootCmd.SetArgs([]string{"calc", testFile, expectedHash})

	err := rootCmd.Execute()
	if err != nil {
		t.Fatalf("rootCmd.Execute() error = %v, stderr: %s", err, errBuf.String())
	}

	output := buf.String()
	if !strings.Contains(output, "Hash matches:") {
		t.Errorf("Output should indicate hash match, got stdout: %q, stderr: %q", buf.String(), errBuf.String())
	}
	if !strings.Contains(output, expectedHash) {
		t.Errorf("Output should contain the hash, got stdout: %q, stderr: %q", buf.String(), errBuf.String())
	}
}

func TestCalcCmd_MismatchingHash(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.txt")
	if err := os.WriteFile(testFile, []byte("test content"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	// Use a wrong hash (32 zero bytes, hex-encoded)
	wrongHash := strings.Repeat("00", 32)

	var buf bytes.Buffer
	var errBuf bytes.Buffer
	rootCmd := cmd.GetRootCmd()
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&errBuf)
	rootCmd.SetArgs([]string{"calc", testFile, wrongHash})

	err := rootCmd.Execute()
	// The command should exit with non-zero code, so we expect an error
	if err == nil {
		t.Error("rootCmd.Execute() expected error for mismatching hash")
	}

	// Check both stdout and stderr as cobra may redirect output
	output := buf.String() + errBuf.String()
	if !strings.Contains(output, "Hash mismatch!") {
		t.Errorf("Output should indicate hash mismatch, got stdout: %q, stderr: %q", buf.String(), errBuf.String())
	}
}

func TestCalcCmd_Directory(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "file.txt"), []byte("content"), 0644); err != nil {
		t.Fatalf("Failed to create file: %v", err)
	}

	expectedHash := hashOf(t, tmpDir, nil)

	var buf bytes.Buffer
	var errBuf bytes.Buffer
	rootCmd := cmd.GetRootCmd()
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&errBuf)
	rootCmd.SetArgs([]string{"calc", tmpDir, expectedHash})

	err := rootCmd.Execute()
	if err != nil {
		t.Fatalf("rootCmd.Execute() error = %v, stderr: %s", err, errBuf.String())
	}

	output := buf.String()
	if !strings.Contains(output, "Hash matches:") {
		t.Errorf("Output should indicate hash match, got stdout: %q, stderr: %q", buf.String(), errBuf.String())
	}
}

func TestCalcCmd_InvalidHashFormat(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "test.txt")
	if err := os.WriteFile(testFile, []byte("test content"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	// Use an invalid hash format (not hex)
	invalidHash := "not-a-valid-hex-string"

	var buf bytes.Buffer
	var errBuf bytes.Buffer
	rootCmd := cmd.GetRootCmd()
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&errBuf)
	rootCmd.SetArgs([]string{"calc", testFile, invalidHash})

	err := rootCmd.Execute()
	if err == nil {
		t.Error("rootCmd.Execute() expected error for invalid hash format")
	}

	output := errBuf.String()
	if !strings.Contains(output, "invalid hash format") {
		t.Errorf("Output should indicate invalid hash format, got stdout: %q, stderr: %q", buf.String(), errBuf.String())
	}
}

func TestCalcCmd_NonexistentPath(t *testing.T) {
	rootCmd := cmd.GetRootCmd()
	rootCmd.SetArgs([]string{"calc", "/nonexistent/path/that/does/not/exist", strings.Repeat("00", 32)})

	err := rootCmd.Execute()
	if err == nil {
		t.Error("rootCmd.Execute() expected error for nonexistent path")
	}
}

func TestCalcCmd_InvalidArgs(t *testing.T) {
	// Verify that Args validator is set
	if calcCmd.Args == nil {
		t.Fatal("calcCmd should have Args validator set")
	}

	// Test with no args - should return error
	err := calcCmd.Args(calcCmd, []string{})
	if err == nil {
		t.Error("calcCmd.Args() expected error for no args")
	}

	// Test with one arg - should return error
	err = calcCmd.Args(calcCmd, []string{"arg1"})
	if err == nil {
		t.Error("calcCmd.Args() expected error for one arg")
	}

	// Test with too many args - should return error
	err = calcCmd.Args(calcCmd, []string{"arg1", "arg2", "arg3"})
	if err == nil {
		t.Error("calcCmd.Args() expected error for too many args")
	}

	// Test with correct number of args - should not error
	err = calcCmd.Args(calcCmd, []string{"path", "hash"})
	if err != nil {
		t.Errorf("calcCmd.Args() unexpected error for valid args: %v", err)
	}
}

func TestCalcCmd_WithExcludeFlag(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "keep.txt"), []byte("keep"), 0644); err != nil {
		t.Fatalf("Failed to create keep.txt: %v", err)
	}
	if err := os.WriteFile(filepath.Join(tmpDir, "exclude.txt"), []byte("exclude"), 0644); err != nil {
		t.Fatalf("Failed to create exclude.txt: %v", err)
	}

	expectedHash := hashOf(t, tmpDir, []string{"exclude.txt"})

	var buf bytes.Buffer
	var errBuf bytes.Buffer
	rootCmd := cmd.GetRootCmd()
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&errBuf)
	rootCmd.SetArgs([]string{"calc", "-e", "exclude.txt", tmpDir, expectedHash})

	err := rootCmd.Execute()
	if err != nil {
		t.Fatalf("rootCmd.Execute() with exclude flag error = %v, stderr: %s", err, errBuf.String())
	}

	output := buf.String()
	if !strings.Contains(output, "Hash matches:") {
		t.Errorf("Output should indicate hash match, got stdout: %q, stderr: %q", buf.String(), errBuf.String())
	}
}
