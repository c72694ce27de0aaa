package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDrive()
	c.normalizeRipping()
	c.normalizeVerification()
	c.normalizeMetadata()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.LibraryDir, err = expandPath(c.Paths.LibraryDir); err != nil {
		return fmt.Errorf("paths.library_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeDrive() {
	c.Drive.Device = strings.TrimSpace(c.Drive.Device)
	if c.Drive.Device == "" {
		c.Drive.Device = defaultDevice
	}
	if c.Drive.TOCTimeout <= 0 {
		c.Drive.TOCTimeout = defaultTOCTimeout
	}
}

func (c *Config) normalizeRipping() {
	if c.Ripping.BurstTimeout <= 0 {
		c.Ripping.BurstTimeout = defaultBurstTimeout
	}
	if c.Ripping.ParanoiaTimeout <= 0 {
		c.Ripping.ParanoiaTimeout = defaultParanoiaTimeout
	}
	if c.Ripping.LastTrackBurstAttempts <= 0 {
		c.Ripping.LastTrackBurstAttempts = defaultLastTrackBurstAttempts
	}
	if c.Ripping.KillGraceSeconds <= 0 {
		c.Ripping.KillGraceSeconds = defaultKillGraceSeconds
	}
}

func (c *Config) normalizeVerification() {
	c.Verification.RegistryURL = strings.TrimRight(strings.TrimSpace(c.Verification.RegistryURL), "/")
	if c.Verification.RegistryURL == "" {
		c.Verification.RegistryURL = defaultRegistryURL
	}
	if c.Verification.RequestTimeout <= 0 {
		c.Verification.RequestTimeout = defaultRegistryTimeout
	}
}

func (c *Config) normalizeMetadata() {
	c.Metadata.BaseURL = strings.TrimRight(strings.TrimSpace(c.Metadata.BaseURL), "/")
	if c.Metadata.BaseURL == "" {
		c.Metadata.BaseURL = defaultMetadataBaseURL
	}
	c.Metadata.UserAgent = strings.TrimSpace(c.Metadata.UserAgent)
	if c.Metadata.UserAgent == "" {
		c.Metadata.UserAgent = defaultMetadataUserAgent
	}
	if c.Metadata.RequestTimeout <= 0 {
		c.Metadata.RequestTimeout = defaultMetadataTimeout
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("RIPTIDE_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
