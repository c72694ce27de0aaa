package stage

import (
	"strings"

	"riptide/internal/queue"
	"riptide/internal/services"
)

// ParseDiscInfo parses a stored disc descriptor and returns it.
// On failure it returns a services.ErrValidation suitable for stage Execute
// methods; ripping and finalizing cannot proceed without a TOC.
func ParseDiscInfo(raw string) (queue.DiscInfo, error) {
	if strings.TrimSpace(raw) == "" {
		return queue.DiscInfo{}, services.Wrap(
			services.ErrValidation, "stage", "parse disc info",
			"Disc descriptor missing; rerun identification", nil)
	}
	info, err := queue.DiscInfoFromJSON(raw)
	if err != nil {
		return queue.DiscInfo{}, services.Wrap(
			services.ErrValidation, "stage", "parse disc info",
			"Disc descriptor invalid; rerun identification", err)
	}
	return info, nil
}
