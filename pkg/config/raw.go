package config

// rawSettings mirrors settings.{toml,yml,yaml} (spec.md §6).
type rawSettings struct {
	DefaultProfile string `toml:"default_profile" yaml:"default_profile"`
	LogLevel       string `toml:"log_level" yaml:"log_level"`
	LogJSON        bool   `toml:"log_json" yaml:"log_json"`
}

// rawService mirrors one *.service.{toml,yml,yaml} file.
type rawService struct {
	Id          string              `toml:"id" yaml:"id"`
	Workdir     string              `toml:"workdir" yaml:"workdir"`
	Env         map[string]string   `toml:"env" yaml:"env"`
	Blocks      []rawBlock          `toml:"blocks" yaml:"blocks"`
	Tasks       []rawTaskDefinition `toml:"tasks" yaml:"tasks"`
	Automations []rawAutomation     `toml:"automations" yaml:"automations"`
}

// rawProfile mirrors one *.profile.{toml,yml,yaml} file. Services names the
// already-declared service ids this profile activates together.
type rawProfile struct {
	Id       string              `toml:"id" yaml:"id"`
	Workdir  string              `toml:"workdir" yaml:"workdir"`
	Services []string            `toml:"services" yaml:"services"`
	Tasks    []rawTaskDefinition `toml:"tasks" yaml:"tasks"`
}

type rawStatusLine struct {
	Symbol string `toml:"symbol" yaml:"symbol"`
	Column int    `toml:"column" yaml:"column"`
}

type rawHealth struct {
	Requirements []rawRequirement `toml:"requirements" yaml:"requirements"`
	Timeout      string           `toml:"timeout" yaml:"timeout"`
}

type rawBlock struct {
	Id            string           `toml:"id" yaml:"id"`
	StatusLine    rawStatusLine    `toml:"status_line" yaml:"status_line"`
	Health        rawHealth        `toml:"health" yaml:"health"`
	Prerequisites []rawRequirement `toml:"prerequisites" yaml:"prerequisites"`
	Work          rawWork          `toml:"work" yaml:"work"`
}

// rawWork mirrors the cmd-seq | process tagged union of spec.md §6.
type rawWork struct {
	Type     string    `toml:"type" yaml:"type"`
	Commands []rawExec `toml:"commands" yaml:"commands"`
	Command  *rawExec  `toml:"command" yaml:"command"`
}

type rawExec struct {
	Executable string            `toml:"executable" yaml:"executable"`
	Args       []string          `toml:"args" yaml:"args"`
	Env        map[string]string `toml:"env" yaml:"env"`
	Workdir    string            `toml:"workdir" yaml:"workdir"`
}

// rawRequirement mirrors the http | port | dependency | state_query |
// file_exists tagged union of spec.md §6, fields unused by a given Type
// left zero.
type rawRequirement struct {
	Type string `toml:"type" yaml:"type"`

	// http
	URL     string `toml:"url" yaml:"url"`
	Method  string `toml:"method" yaml:"method"`
	Timeout string `toml:"timeout" yaml:"timeout"`
	Status  int    `toml:"status" yaml:"status"`

	// port
	Host string `toml:"host" yaml:"host"`
	Port int    `toml:"port" yaml:"port"`

	// dependency
	Service        string `toml:"service" yaml:"service"`
	Block          string `toml:"block" yaml:"block"`
	RequiredStatus string `toml:"required_status" yaml:"required_status"`

	// state_query
	Script string `toml:"script" yaml:"script"`

	// file_exists
	GlobPaths []string `toml:"glob_paths" yaml:"glob_paths"`
}

// rawAutomation mirrors spec.md §6's automation encoding. Exactly one of
// Action.Task, Action.Tasks, Action.Steps should be set.
type rawAutomation struct {
	Name     string       `toml:"name" yaml:"name"`
	Debounce string       `toml:"debounce" yaml:"debounce"`
	Mode     string       `toml:"mode" yaml:"mode"`
	Action   rawAction    `toml:"action" yaml:"action"`
	Triggers []rawTrigger `toml:"triggers" yaml:"triggers"`
	Enabled  *bool        `toml:"enabled" yaml:"enabled"`
}

type rawAction struct {
	Task  string              `toml:"task" yaml:"task"`
	Tasks []string            `toml:"tasks" yaml:"tasks"`
	Steps []rawSequenceStep   `toml:"steps" yaml:"steps"`
}

// rawTrigger mirrors "file_modified: <glob>" | "becomes_true: <script>".
type rawTrigger struct {
	Type   string   `toml:"type" yaml:"type"`
	Paths  []string `toml:"paths" yaml:"paths"`
	Script string   `toml:"script" yaml:"script"`
}

type rawTaskDefinition struct {
	Id    string            `toml:"id" yaml:"id"`
	Name  string            `toml:"name" yaml:"name"`
	Steps []rawSequenceStep `toml:"steps" yaml:"steps"`
}

// rawSequenceStep mirrors the exec | script | wait tagged union of spec.md
// §4.6.
type rawSequenceStep struct {
	Type        string          `toml:"type" yaml:"type"`
	Exec        *rawExec        `toml:"exec" yaml:"exec"`
	Script      string          `toml:"script" yaml:"script"`
	Timeout     string          `toml:"timeout" yaml:"timeout"`
	Requirement *rawRequirement `toml:"requirement" yaml:"requirement"`
}
