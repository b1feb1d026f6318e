package config

const (
	defaultWorkDir               = "~/.local/share/cuecast/work"
	defaultStateDir              = "~/.local/share/cuecast"
	defaultAPIBind               = "127.0.0.1:8096"
	defaultFFmpegBinary          = "ffmpeg"
	defaultFFprobeBinary         = "ffprobe"
	defaultEncoderTimeoutSeconds = 1800
	defaultVideoCodec            = "libx264"
	defaultPreset                = "veryfast"
	defaultCRF                   = 18
	defaultAudioCodec            = "aac"
	defaultDiagnosticBytes       = 4000
	defaultFetchTimeoutSeconds   = 180
	defaultFetchConcurrency      = 4
	defaultNormalEm              = 0.52
	defaultBoldEm                = 0.56
	defaultOutlinePx             = 4
	defaultMinChars              = 12
	minimumMinChars              = 10
	defaultJobShards             = 32
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:  defaultWorkDir,
			StateDir: defaultStateDir,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Encoder: Encoder{
			FFmpegBinary:    defaultFFmpegBinary,
			FFprobeBinary:   defaultFFprobeBinary,
			TimeoutSeconds:  defaultEncoderTimeoutSeconds,
			VideoCodec:      defaultVideoCodec,
			Preset:          defaultPreset,
			CRF:             defaultCRF,
			AudioCodec:      defaultAudioCodec,
			VerifyOutput:    true,
			DiagnosticBytes: defaultDiagnosticBytes,
		},
		Fetch: Fetch{
			TimeoutSeconds: defaultFetchTimeoutSeconds,
			MaxConcurrency: defaultFetchConcurrency,
		},
		Text: Text{
			NormalEm:  defaultNormalEm,
			BoldEm:    defaultBoldEm,
			OutlinePx: defaultOutlinePx,
			MinChars:  defaultMinChars,
		},
		Jobs: Jobs{
			Shards:     defaultJobShards,
			History:    true,
			ProbeAudio: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
