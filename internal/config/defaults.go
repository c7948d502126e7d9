package config

const (
	defaultWorkDir              = "~/.local/share/subburn/work"
	defaultLogDir               = "~/.local/share/subburn/logs"
	defaultFontFile             = "~/.local/share/subburn/font.ttf"
	defaultFontSize             = 24
	defaultAlignment            = 2
	defaultMarginV              = 35
	defaultFFmpegBinary         = "ffmpeg"
	defaultVideoCodec           = "libx264"
	defaultFCListBinary         = "fc-list"
	defaultFCCacheBinary        = "fc-cache"
	defaultFFprobeBinary        = "ffprobe"
	defaultPollTimeout          = 60
	defaultMaxInlineMB          = 50
	defaultStorageRegion        = "us-east-1"
	defaultStoragePrefix        = "subburn"
	defaultNotifyRequestTimeout = 10
	defaultJanitorStaleMinutes  = 360
	defaultJanitorInterval      = 30
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogRetentionDays     = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Telegram: Telegram{
			PollTimeout: defaultPollTimeout,
		},
		Paths: Paths{
			WorkDir: defaultWorkDir,
			LogDir:  defaultLogDir,
		},
		Style: Style{
			FontFile:  defaultFontFile,
			FontSize:  defaultFontSize,
			Alignment: defaultAlignment,
			MarginV:   defaultMarginV,
		},
		FFmpeg: FFmpeg{
			Binary:        defaultFFmpegBinary,
			VideoCodec:    defaultVideoCodec,
			FCListBinary:  defaultFCListBinary,
			FCCacheBinary: defaultFCCacheBinary,
			ProbeBinary:   defaultFFprobeBinary,
		},
		Delivery: Delivery{
			Mode:        DeliveryInline,
			MaxInlineMB: defaultMaxInlineMB,
		},
		Storage: Storage{
			Region: defaultStorageRegion,
			UseSSL: true,
			Prefix: defaultStoragePrefix,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Completions:    false,
			Failures:       true,
		},
		History: History{
			Enabled: true,
		},
		Janitor: Janitor{
			StaleAfterMinutes: defaultJanitorStaleMinutes,
			IntervalMinutes:   defaultJanitorInterval,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
