package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateDrive(); err != nil {
		return err
	}
	if err := c.validateRipping(); err != nil {
		return err
	}
	if err := c.validateVerification(); err != nil {
		return err
	}
	if err := c.validateEncoding(); err != nil {
		return err
	}
	if err := c.validateMetadata(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		return errors.New("paths.library_dir must be set")
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	return nil
}

func (c *Config) validateDrive() error {
	if !strings.HasPrefix(c.Drive.Device, "/") {
		return fmt.Errorf("drive.device must be an absolute device path, got %q", c.Drive.Device)
	}
	return nil
}

func (c *Config) validateRipping() error {
	return ensurePositiveMap(map[string]int{
		"ripping.burst_timeout":             c.Ripping.BurstTimeout,
		"ripping.paranoia_timeout":          c.Ripping.ParanoiaTimeout,
		"ripping.last_track_burst_attempts": c.Ripping.LastTrackBurstAttempts,
		"ripping.kill_grace_seconds":        c.Ripping.KillGraceSeconds,
		"drive.toc_timeout":                 c.Drive.TOCTimeout,
	})
}

func (c *Config) validateVerification() error {
	if !c.Verification.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Verification.RegistryURL) == "" {
		return errors.New("verification.registry_url must be set when verification.enabled is true")
	}
	if c.Verification.RequestTimeout <= 0 {
		return errors.New("verification.request_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateEncoding() error {
	if c.Encoding.CompressionLevel < 0 || c.Encoding.CompressionLevel > 8 {
		return errors.New("encoding.compression_level must be between 0 and 8")
	}
	return nil
}

func (c *Config) validateMetadata() error {
	if !c.Metadata.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Metadata.BaseURL) == "" {
		return errors.New("metadata.base_url must be set when metadata.enabled is true")
	}
	if strings.TrimSpace(c.Metadata.UserAgent) == "" {
		return errors.New("metadata.user_agent must be set when metadata.enabled is true")
	}
	if c.Metadata.RequestTimeout <= 0 {
		return errors.New("metadata.request_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if err := ensurePositiveMap(map[string]int{
		"workflow.queue_poll_interval":  c.Workflow.QueuePollInterval,
		"workflow.error_retry_interval": c.Workflow.ErrorRetryInterval,
		"workflow.disc_poll_interval":   c.Workflow.DiscPollInterval,
	}); err != nil {
		return err
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= 0 {
		return errors.New("workflow.heartbeat_timeout must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return errors.New("workflow.heartbeat_timeout must be greater than workflow.heartbeat_interval")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive (seconds)")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
