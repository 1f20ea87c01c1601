package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "SEMINDEX_"
	// Delimiter separates nested config keys.
	Delimiter = "."
)

// searchPaths are tried in order when no config file is given.
var searchPaths = []string{
	"semindex.yaml",
	"config.yaml",
	"config.yml",
	"config.json",
	"configs/config.yaml",
	"/etc/semindex/config.yaml",
}

// Loader builds a Config from layered sources. Later layers win:
// defaults, then the config file, then SEMINDEX_* environment variables,
// then explicit overrides. A Loader may be reused for reloads.
type Loader struct {
	mu   sync.Mutex
	file string
}

// NewLoader creates a Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load reads every layer into a fresh koanf instance, so keys removed from
// the file since the previous call fall back to their defaults.
func (l *Loader) Load(configPath string, overrides map[string]interface{}) (*Config, error) {
	k := koanf.New(Delimiter)
	defaults := flatten(DefaultConfig())

	if err := k.Load(confmap.Provider(defaults, Delimiter), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	path := configPath
	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := loadFile(k, path); err != nil {
			if configPath != "" {
				return nil, err
			}
			// A discovered file that fails to parse is skipped.
			path = ""
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, Delimiter, envKeyMapper(defaults)), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	if len(overrides) > 0 {
		if err := k.Load(confmap.Provider(overrides, Delimiter), nil); err != nil {
			return nil, fmt.Errorf("apply overrides: %w", err)
		}
	}

	// A nested override map replaces its whole section; put back what it dropped.
	for key, value := range defaults {
		if !k.Exists(key) {
			if err := k.Set(key, value); err != nil {
				return nil, fmt.Errorf("restore default %s: %w", key, err)
			}
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "mapstructure"}); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := ValidateWithDetails(&cfg); err != nil {
		return nil, err
	}

	l.mu.Lock()
	l.file = path
	l.mu.Unlock()
	return &cfg, nil
}

// File returns the config file used by the last successful Load, or "" when
// only defaults, environment and overrides applied.
func (l *Loader) File() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file
}

func loadFile(k *koanf.Koanf, path string) error {
	var parser koanf.Parser
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return fmt.Errorf("unsupported config file format %q", ext)
	}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("config file not found: %s", path)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func findConfigFile() string {
	for _, path := range searchPaths {
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path
		}
	}
	return ""
}

// envKeyMapper resolves SEMINDEX_SERVER_RATE_LIMIT_BURST to
// server.rate_limit.burst by matching against the known keys, since key
// segments themselves contain underscores. Unknown names map every
// underscore to a dot.
func envKeyMapper(known map[string]interface{}) func(string) string {
	byEnv := make(map[string]string, len(known))
	for key := range known {
		byEnv[strings.ReplaceAll(key, Delimiter, "_")] = key
	}
	return func(name string) string {
		name = strings.ToLower(strings.TrimPrefix(name, EnvPrefix))
		if key, ok := byEnv[name]; ok {
			return key
		}
		return strings.ReplaceAll(name, "_", Delimiter)
	}
}

// flatten turns a config struct into dot-separated keys using the
// mapstructure tags. Empty maps are skipped so they do not shadow values
// loaded from files.
func flatten(v interface{}) map[string]interface{} {
	out := make(map[string]interface{})
	flattenInto(out, reflect.Indirect(reflect.ValueOf(v)), "")
	return out
}

func flattenInto(out map[string]interface{}, val reflect.Value, prefix string) {
	if val.Kind() != reflect.Struct {
		return
	}
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("mapstructure")
		if !field.IsExported() || tag == "" || tag == "-" {
			continue
		}
		key := tag
		if prefix != "" {
			key = prefix + Delimiter + tag
		}

		fv := val.Field(i)
		switch fv.Kind() {
		case reflect.Ptr:
			if !fv.IsNil() {
				flattenInto(out, fv.Elem(), key)
			}
		case reflect.Struct:
			flattenInto(out, fv, key)
		case reflect.Map:
			if fv.Len() > 0 {
				out[key] = fv.Interface()
			}
		case reflect.Slice:
			items := make([]interface{}, fv.Len())
			for j := range items {
				items[j] = fv.Index(j).Interface()
			}
			out[key] = items
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			// Durations land here as nanoseconds and decode back unchanged.
			out[key] = fv.Int()
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			out[key] = fv.Uint()
		default:
			out[key] = fv.Interface()
		}
	}
}

// Load is shorthand for NewLoader().Load.
func Load(configPath string, overrides map[string]interface{}) (*Config, error) {
	return NewLoader().Load(configPath, overrides)
}
