package config

const (
	defaultStagingDir             = "~/.local/share/riptide/staging"
	defaultLibraryDir             = "~/Music"
	defaultLogDir                 = "~/.local/share/riptide/logs"
	defaultLogRetentionDays       = 60
	defaultAPIBind                = "127.0.0.1:7610"
	defaultDevice                 = "/dev/sr0"
	defaultTOCTimeout             = 60
	defaultBurstTimeout           = 600
	defaultParanoiaTimeout        = 1800
	defaultLastTrackBurstAttempts = 2
	defaultKillGraceSeconds       = 5
	defaultRegistryURL            = "http://www.accuraterip.com/accuraterip"
	defaultRegistryTimeout        = 30
	defaultMetadataBaseURL        = "https://musicbrainz.org/ws/2"
	defaultMetadataUserAgent      = "riptide/1.0"
	defaultMetadataTimeout        = 10
	defaultCompressionLevel       = 8
	defaultNotifyTimeout          = 10
	defaultHeartbeatInterval      = 15
	defaultHeartbeatTimeout       = 120
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
			APIBind:    defaultAPIBind,
		},
		Drive: Drive{
			Device:          defaultDevice,
			EjectOnComplete: true,
			TOCTimeout:      defaultTOCTimeout,
		},
		Ripping: Ripping{
			BurstTimeout:           defaultBurstTimeout,
			ParanoiaTimeout:        defaultParanoiaTimeout,
			LastTrackBurstAttempts: defaultLastTrackBurstAttempts,
			KillGraceSeconds:       defaultKillGraceSeconds,
		},
		Verification: Verification{
			Enabled:        true,
			RegistryURL:    defaultRegistryURL,
			RequestTimeout: defaultRegistryTimeout,
		},
		Encoding: Encoding{
			CompressionLevel: defaultCompressionLevel,
			ValidateOutput:   true,
		},
		Metadata: Metadata{
			Enabled:        true,
			BaseURL:        defaultMetadataBaseURL,
			UserAgent:      defaultMetadataUserAgent,
			RequestTimeout: defaultMetadataTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Rip:            true,
			Verification:   true,
			Queue:          true,
			Errors:         true,
		},
		Workflow: Workflow{
			QueuePollInterval:  5,
			ErrorRetryInterval: 10,
			HeartbeatInterval:  defaultHeartbeatInterval,
			HeartbeatTimeout:   defaultHeartbeatTimeout,
			DiscMonitor:        true,
			DiscPollInterval:   5,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
