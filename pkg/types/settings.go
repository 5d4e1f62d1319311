package types

// Settings holds the global, directory-wide configuration loaded from
// settings.{toml,yml,yaml} (spec.md §6). Later files merge over earlier
// ones field by field: a zero value never overwrites an already-set one.
type Settings struct {
	DefaultProfile ServiceId
	LogLevel       string
	LogJSON        bool
}

// Merge overlays non-zero fields of other onto s, returning the result.
func (s Settings) Merge(other Settings) Settings {
	if other.DefaultProfile != "" {
		s.DefaultProfile = other.DefaultProfile
	}
	if other.LogLevel != "" {
		s.LogLevel = other.LogLevel
	}
	if other.LogJSON {
		s.LogJSON = true
	}
	return s
}
