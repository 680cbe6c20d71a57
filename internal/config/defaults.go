package config

const (
	defaultDataDir             = "~/.local/share/cadence"
	defaultLogDir              = "~/.local/share/cadence/logs"
	defaultInferenceHost       = "http://localhost:11434"
	defaultInferenceModel      = "llama3:8b"
	defaultInferenceTimeout    = 120
	defaultInferenceAttempts   = 3
	defaultLookaheadHours      = 24
	defaultPollIntervalSeconds = 300
	defaultUser                = "default"
	defaultImageStyle          = "professional"
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

var defaultHashtags = []string{"#CareerGrowth", "#TechInnovation", "#Leadership"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
		},
		Inference: Inference{
			Host:           defaultInferenceHost,
			Model:          defaultInferenceModel,
			TimeoutSeconds: defaultInferenceTimeout,
			MaxAttempts:    defaultInferenceAttempts,
		},
		Scheduler: Scheduler{
			LookaheadHours:      defaultLookaheadHours,
			PollIntervalSeconds: defaultPollIntervalSeconds,
			DefaultUser:         defaultUser,
		},
		Content: Content{
			DefaultHashtags: append([]string(nil), defaultHashtags...),
			IncludeImages:   true,
			ImageStyle:      defaultImageStyle,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
