package disc

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Ejector defines disc eject operations.
type Ejector interface {
	Eject(ctx context.Context, device string) error
}

type commandEjector struct {
	binary string
}

// NewEjector creates an ejector that shells out to the eject utility.
func NewEjector() Ejector {
	return NewEjectorWithBinary("eject")
}

// NewEjectorWithBinary creates an ejector using a configured eject binary.
func NewEjectorWithBinary(binary string) Ejector {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "eject"
	}
	return commandEjector{binary: binary}
}

func (e commandEjector) Eject(ctx context.Context, device string) error {
	var cmd *exec.Cmd
	if device == "" {
		cmd = exec.CommandContext(ctx, e.binary)
	} else {
		cmd = exec.CommandContext(ctx, e.binary, device)
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("eject %s: %w", device, err)
	}
	return nil
}
