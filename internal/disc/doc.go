// Package disc interfaces with physical optical drives.
//
// It wraps the CDROM_DRIVE_STATUS ioctl so the daemon can poll for loaded
// audio discs without mounting anything, and provides the ejector helper the
// ripping stage uses to release discs when a rip completes.
package disc
