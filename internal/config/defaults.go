package config

const (
	defaultConfigPath          = "~/.config/vconv/config.toml"
	projectConfigName          = "vconv.toml"
	defaultStateDir            = "~/.local/share/vconv"
	defaultLogDir              = "~/.local/share/vconv/logs"
	defaultFFmpegBinary        = "ffmpeg"
	defaultFFprobeBinary       = "ffprobe"
	defaultProbeTimeoutSeconds = 5
	defaultNativeChunkSize     = 8192
	minNativeChunkSize         = 512
	maxNativeChunkSize         = 16 << 20
	defaultDelayScale          = 1.0
	maxDelayScale              = 100.0
	defaultFormat              = "mp4"
	defaultResolution          = "original"
	defaultBitrate             = "auto"
	defaultFrameRate           = "original"
	defaultPollIntervalMs      = 100
	minPollIntervalMs          = 10
	maxPollIntervalMs          = 5000
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Tools: Tools{
			FFmpeg:              defaultFFmpegBinary,
			FFprobe:             defaultFFprobeBinary,
			ProbeTimeoutSeconds: defaultProbeTimeoutSeconds,
		},
		Backends: Backends{
			NativeEnabled:   true,
			NativeChunkSize: defaultNativeChunkSize,
		},
		Simulation: Simulation{
			DelayScale: defaultDelayScale,
		},
		Defaults: Defaults{
			Format:     defaultFormat,
			Resolution: defaultResolution,
			Bitrate:    defaultBitrate,
			FrameRate:  defaultFrameRate,
		},
		UI: UI{
			PollIntervalMs: defaultPollIntervalMs,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
