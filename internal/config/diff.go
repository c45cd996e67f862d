package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked individually;
// everything else is listed in RestartRequired.
type ConfigDiff struct {
	VisionChanged bool // provider, endpoint, key, model, prompt or max_tokens
	NewVision     ProviderEntry

	IntervalChanged bool
	NewInterval     int

	WindowInfoChanged bool
	NewWindowInfo     bool

	LogLevelChanged bool
	NewLogLevel     LogLevel

	// RestartRequired names changed settings that only take effect after a
	// restart (e.g. "capture.output_dir").
	RestartRequired []string
}

// Changed reports whether any field differs.
func (d ConfigDiff) Changed() bool {
	return d.VisionChanged || d.IntervalChanged || d.WindowInfoChanged || d.LogLevelChanged || len(d.RestartRequired) > 0
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Vision != new.Vision {
		d.VisionChanged = true
		d.NewVision = new.Vision
	}
	if old.Capture.IntervalSeconds != new.Capture.IntervalSeconds {
		d.IntervalChanged = true
		d.NewInterval = new.Capture.IntervalSeconds
	}
	if old.Capture.WindowInfo != new.Capture.WindowInfo {
		d.WindowInfoChanged = true
		d.NewWindowInfo = new.Capture.WindowInfo
	}
	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Capture.OutputDir != new.Capture.OutputDir {
		d.RestartRequired = append(d.RestartRequired, "capture.output_dir")
	}
	if old.Capture.Display != new.Capture.Display {
		d.RestartRequired = append(d.RestartRequired, "capture.display")
	}
	if old.Server.ListenAddr != new.Server.ListenAddr {
		d.RestartRequired = append(d.RestartRequired, "server.listen_addr")
	}
	if old.Audio != new.Audio {
		d.RestartRequired = append(d.RestartRequired, "audio")
	}

	return d
}
