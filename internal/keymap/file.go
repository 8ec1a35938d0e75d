package keymap

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	evdev "github.com/holoplot/go-evdev"
	"gopkg.in/yaml.v3"
)

// profilesFile is the on-disk layout of extra profiles:
//
//	profiles:
//	  mame:
//	    a: KEY_A
//	    key.enter: BTN_START
//	    "1": 2
type profilesFile struct {
	Profiles map[string]map[string]codeValue `yaml:"profiles"`
}

// codeValue accepts either an evdev code name or a raw integer code.
type codeValue KeyCode

func (c *codeValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: key code must be a scalar", node.Line)
	}
	if n, err := strconv.ParseUint(node.Value, 0, 16); err == nil {
		*c = codeValue(n)
		return nil
	}
	code, ok := evdev.KEYFromString[strings.ToUpper(node.Value)]
	if !ok {
		return fmt.Errorf("line %d: unknown key code %q", node.Line, node.Value)
	}
	*c = codeValue(code)
	return nil
}

// ParseProfiles decodes YAML profile definitions into tables.
func ParseProfiles(data []byte) ([]*Table, error) {
	var f profilesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse key profiles: %w", err)
	}

	tables := make([]*Table, 0, len(f.Profiles))
	for name, entries := range f.Profiles {
		if len(entries) == 0 {
			return nil, fmt.Errorf("key profile %q is empty", name)
		}
		codes := make(map[string]KeyCode, len(entries))
		for k, v := range entries {
			codes[k] = KeyCode(v)
		}
		tables = append(tables, NewTable(strings.ToLower(name), codes))
	}
	return tables, nil
}

// LoadProfiles reads extra profile definitions from a YAML file.
func LoadProfiles(path string) ([]*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read key profiles %s: %w", path, err)
	}
	return ParseProfiles(data)
}

// LoadRegistry returns the built-in profiles, extended with the profiles in
// path when path is not empty.
func LoadRegistry(path string) (*Registry, error) {
	if path == "" {
		return NewRegistry(), nil
	}
	tables, err := LoadProfiles(path)
	if err != nil {
		return nil, err
	}
	return NewRegistry(tables...), nil
}
