package preflight

import (
	"context"

	"riptide/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Staging directory (always checked)
	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))

	// Library directory (when configured)
	if cfg.Paths.LibraryDir != "" {
		results = append(results, CheckDirectoryAccess("Library directory", cfg.Paths.LibraryDir))
	}

	// Checksum registry
	if cfg.Verification.Enabled {
		results = append(results, CheckEndpoint(ctx, "Checksum registry", cfg.Verification.RegistryURL))
	}

	// Metadata service
	if cfg.Metadata.Enabled {
		results = append(results, CheckEndpoint(ctx, "Metadata service", cfg.Metadata.BaseURL))
	}

	return results
}
