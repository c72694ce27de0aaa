package preflight

import (
	"strings"

	"riptide/internal/disc"
)

// DiscProbe reports the current optical-drive detection snapshot.
type DiscProbe struct {
	Detected bool
	Device   string
	Status   string
}

// ProbeDisc classifies the drive state via the CDROM status ioctl. Audio
// discs expose no filesystem, so block-device tooling cannot tell whether a
// disc is loaded; the ioctl can.
func ProbeDisc(device string) DiscProbe {
	device = strings.TrimSpace(device)
	if device == "" {
		device = "/dev/sr0"
	}
	status, err := disc.CheckDriveStatus(device)
	if err != nil {
		return DiscProbe{Device: device, Status: "unavailable"}
	}
	return DiscProbe{
		Detected: status == disc.DriveStatusDiscOK,
		Device:   device,
		Status:   status.String(),
	}
}
