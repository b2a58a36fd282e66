package config

// Diff describes what changed between two configs. Only fields that can be
// safely hot-reloaded are tracked; everything else needs a restart.
type Diff struct {
	LogLevelChanged  bool
	NewLogLevel      LogLevel
	ThresholdChanged bool
	NewThreshold     float64
	FuzzyChanged     bool
	NewMinFuzzyScore float64
}

// Any reports whether the diff contains at least one change.
func (d Diff) Any() bool {
	return d.LogLevelChanged || d.ThresholdChanged || d.FuzzyChanged
}

// Compare computes the hot-reloadable differences between old and new.
func Compare(old, new *Config) Diff {
	var d Diff
	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	if old.Assist.ConfidenceThreshold != new.Assist.ConfidenceThreshold {
		d.ThresholdChanged = true
		d.NewThreshold = new.Assist.ConfidenceThreshold
	}
	if old.Resolver.MinFuzzyScore != new.Resolver.MinFuzzyScore {
		d.FuzzyChanged = true
		d.NewMinFuzzyScore = new.Resolver.MinFuzzyScore
	}
	return d
}
