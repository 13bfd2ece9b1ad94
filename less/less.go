// Package less shells out to an external preprocessor to expand variables
// and mixins of a LESS stylesheet into plain CSS.
package less

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Expand produces fully expanded CSS text for the stylesheet at path. Inputs
// already in plain CSS are read as is, everything else goes through the
// preprocessor command (lessc compatible: takes the input path, writes CSS to
// stdout). A preprocessor failure aborts the whole run.
func Expand(ctx context.Context, command, path string, log *zap.Logger) ([]byte, error) {
	if strings.EqualFold(filepath.Ext(path), ".css") {
		out, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("unable to read stylesheet: %w", err)
		}
		return out, nil
	}

	if len(command) == 0 {
		command = "lessc"
	}

	log.Debug("Running preprocessor", zap.String("command", command), zap.String("input", path))
	start := time.Now()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, command, path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); len(msg) > 0 {
			return nil, fmt.Errorf("%s failed: %s: %w", command, msg, err)
		}
		return nil, fmt.Errorf("%s failed: %w", command, err)
	}

	log.Debug("Preprocessor completed", zap.Duration("elapsed", time.Since(start)), zap.Int("bytes", stdout.Len()))
	return stdout.Bytes(), nil
}
