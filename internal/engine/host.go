package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// HostCheck reports whether the host can run the engine. It must be cheap and
// must not touch the network.
type HostCheck func() error

// DefaultHostCheck requires process spawning and a writable scratch root.
func DefaultHostCheck(scratchRoot string) HostCheck {
	return func() error {
		return checkHost(runtime.GOOS, scratchRoot)
	}
}

func checkHost(goos, scratchRoot string) error {
	switch goos {
	case "js", "wasip1":
		return fmt.Errorf("%w: %s cannot spawn processes", ErrUnsupportedEnvironment, goos)
	}

	if scratchRoot == "" {
		return fmt.Errorf("%w: no scratch directory configured", ErrUnsupportedEnvironment)
	}
	if err := os.MkdirAll(scratchRoot, 0o755); err != nil {
		return fmt.Errorf("%w: scratch directory: %w", ErrUnsupportedEnvironment, err)
	}

	testFile := filepath.Join(scratchRoot, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return fmt.Errorf("%w: scratch directory is not writable: %w", ErrUnsupportedEnvironment, err)
	}
	_ = os.Remove(testFile)

	return nil
}
