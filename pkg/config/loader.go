package config

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/kestrel-dev/kestrel/pkg/log"
	"github.com/kestrel-dev/kestrel/pkg/types"
)

// Config is everything Load assembles from one configuration directory:
// merged Settings, every declared Profile (with its Services resolved and
// embedded) ready to hand to pkg/system.Engine.LoadProfiles.
type Config struct {
	Settings types.Settings
	Profiles []types.Profile
}

// Load walks dir recursively, following symlinks, and parses every
// settings/service/profile file it finds into a Config (spec.md §6's
// Configuration directory layout).
func Load(dir string) (Config, error) {
	logger := log.WithComponent("config")

	var settings types.Settings
	services := make(map[types.ServiceId]types.Service)
	var rawProfiles []rawProfile

	err := walk(dir, func(path string) error {
		base := filepath.Base(path)
		kind, format := classify(base)
		if kind == "" {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		switch kind {
		case fileSettings:
			var raw rawSettings
			if err := unmarshal(format, data, &raw); err != nil {
				return fmt.Errorf("parsing %s: %w", path, err)
			}
			settings = settings.Merge(convertSettings(raw))
			logger.Debug().Str("path", path).Msg("loaded settings file")
		case fileService:
			var raw rawService
			if err := unmarshal(format, data, &raw); err != nil {
				return fmt.Errorf("parsing %s: %w", path, err)
			}
			svc, err := convertService(raw)
			if err != nil {
				return fmt.Errorf("converting %s: %w", path, err)
			}
			if svc.Id == "" {
				return fmt.Errorf("%s: service is missing id", path)
			}
			services[svc.Id] = svc
			logger.Debug().Str("path", path).Str("service_id", string(svc.Id)).Msg("loaded service file")
		case fileProfile:
			var raw rawProfile
			if err := unmarshal(format, data, &raw); err != nil {
				return fmt.Errorf("parsing %s: %w", path, err)
			}
			rawProfiles = append(rawProfiles, raw)
			logger.Debug().Str("path", path).Msg("loaded profile file")
		}
		return nil
	})
	if err != nil {
		return Config{}, err
	}

	profiles := make([]types.Profile, 0, len(rawProfiles))
	for _, rp := range rawProfiles {
		profile, err := resolveProfile(rp, services)
		if err != nil {
			return Config{}, err
		}
		profiles = append(profiles, profile)
	}

	return Config{Settings: settings, Profiles: profiles}, nil
}

func resolveProfile(r rawProfile, services map[types.ServiceId]types.Service) (types.Profile, error) {
	resolved := make([]types.Service, 0, len(r.Services))
	for _, id := range r.Services {
		svc, ok := services[types.ServiceId(id)]
		if !ok {
			return types.Profile{}, fmt.Errorf("profile %q references unknown service %q", r.Id, id)
		}
		resolved = append(resolved, svc)
	}
	tasks, err := convertTaskDefinitions(r.Tasks)
	if err != nil {
		return types.Profile{}, fmt.Errorf("profile %q: %w", r.Id, err)
	}
	return types.Profile{
		Id:       types.ServiceId(r.Id),
		Workdir:  r.Workdir,
		Services: resolved,
		Tasks:    tasks,
	}, nil
}

type fileKind int

const (
	fileNone fileKind = iota
	fileSettings
	fileService
	fileProfile
)

type fileFormat int

const (
	formatTOML fileFormat = iota
	formatYAML
)

func classify(base string) (fileKind, fileFormat) {
	switch {
	case matches(base, "settings", ".toml", ".yml", ".yaml"):
		return fileSettings, formatOf(base)
	case strings.HasSuffix(base, ".service.toml"), strings.HasSuffix(base, ".service.yml"), strings.HasSuffix(base, ".service.yaml"):
		return fileService, formatOf(base)
	case strings.HasSuffix(base, ".profile.toml"), strings.HasSuffix(base, ".profile.yml"), strings.HasSuffix(base, ".profile.yaml"):
		return fileProfile, formatOf(base)
	default:
		return fileNone, formatTOML
	}
}

func matches(base, stem string, exts ...string) bool {
	for _, ext := range exts {
		if base == stem+ext {
			return true
		}
	}
	return false
}

func formatOf(base string) fileFormat {
	if strings.HasSuffix(base, ".toml") {
		return formatTOML
	}
	return formatYAML
}

func unmarshal(format fileFormat, data []byte, out interface{}) error {
	if format == formatTOML {
		return toml.Unmarshal(data, out)
	}
	return yaml.Unmarshal(data, out)
}

// walk visits every regular file under dir, recursing into directories and
// following symlinks (spec.md §6: "Directory scan is recursive, symlinks
// followed").
func walk(dir string, visit func(path string) error) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type()&fs.ModeSymlink != 0 {
			resolved, err := filepath.EvalSymlinks(path)
			if err != nil {
				return fmt.Errorf("resolving symlink %s: %w", path, err)
			}
			info, err := os.Stat(resolved)
			if err != nil {
				return fmt.Errorf("stat %s: %w", resolved, err)
			}
			if info.IsDir() {
				return walk(resolved, visit)
			}
			return visit(resolved)
		}
		if d.IsDir() {
			return nil
		}
		return visit(path)
	})
}
