package lint

import (
	"fmt"
	"strings"
)

// Config selects linters and carries their settings.
type Config struct {
	// Enabled lists the linters to run. A nil map runs all of them.
	Enabled map[string]bool

	// Settings is keyed by linter name, then setting name.
	Settings map[string]map[string]string
}

func (c Config) IsEnabled(name string) bool {
	if c.Enabled == nil {
		return true
	}

	return c.Enabled[name]
}

// ParseConfig builds a Config from the --linters and --config flags.
//
// linters holds linter names, "all", or "-name" to exclude a linter.
// A list made only of exclusions starts from all linters.
// settings holds entries of the form "linter.key=value".
func ParseConfig(linters []string, settings []string) (Config, error) {
	config := Config{Settings: make(map[string]map[string]string)}

	var (
		include    []string
		exclude    []string
		includeAll bool
	)

	for _, name := range linters {
		name = strings.TrimSpace(name)

		switch {
		case name == "" || name == "all":
			includeAll = true
		case strings.HasPrefix(name, "-"):
			exclude = append(exclude, strings.TrimPrefix(name, "-"))
		default:
			include = append(include, name)
		}
	}

	for _, name := range append(include, exclude...) {
		if _, ok := Get(name); !ok {
			return Config{}, fmt.Errorf("unknown linter: %s", name)
		}
	}

	if !includeAll && len(include) == 0 {
		includeAll = true
	}

	if !includeAll || len(exclude) > 0 {
		config.Enabled = make(map[string]bool)

		if includeAll {
			for _, l := range Linters() {
				config.Enabled[l.Name()] = true
			}
		}

		for _, name := range include {
			config.Enabled[name] = true
		}

		for _, name := range exclude {
			config.Enabled[name] = false
		}
	}

	for _, setting := range settings {
		key, value, ok := strings.Cut(setting, "=")
		if !ok {
			return Config{}, fmt.Errorf("invalid config %q: expected linter.key=value", setting)
		}

		name, key, ok := strings.Cut(strings.TrimSpace(key), ".")
		if !ok || name == "" || key == "" {
			return Config{}, fmt.Errorf("invalid config %q: expected linter.key=value", setting)
		}

		l, ok := Get(name)
		if !ok {
			return Config{}, fmt.Errorf("unknown linter in config %q: %s", setting, name)
		}

		if _, ok := l.(ConfigurableLinter); !ok {
			return Config{}, fmt.Errorf("linter %s does not accept configuration", name)
		}

		if config.Settings[name] == nil {
			config.Settings[name] = make(map[string]string)
		}

		config.Settings[name][key] = strings.TrimSpace(value)
	}

	return config, nil
}
