package specs

import (
	"embed"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

//go:embed fields/*.yaml
var FieldsFS embed.FS

//go:embed scripts/*.tengo
var ScriptsFS embed.FS

// Load returns a field spec document. A name that exists on disk is read from
// disk; anything else is looked up among the embedded fields.
func Load(name string) ([]byte, error) {
	if data, err := os.ReadFile(name); err == nil {
		return data, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return FieldsFS.ReadFile(cleanFieldPath(name))
}

// LoadScript is Load for tengo scripts.
func LoadScript(name string) ([]byte, error) {
	if data, err := os.ReadFile(name); err == nil {
		return data, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return ScriptsFS.ReadFile(cleanScriptPath(name))
}

// ModTime reports the modification time of a spec on disk. Embedded specs
// have none.
func ModTime(name string) (time.Time, bool) {
	info, err := os.Stat(name)
	if err != nil {
		return time.Time{}, false
	}
	return info.ModTime(), true
}

func cleanFieldPath(path string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	s = strings.TrimPrefix(s, "specs/")
	s = strings.TrimPrefix(s, "fields/")
	if filepath.Ext(s) == "" {
		s += ".yaml"
	}
	return "fields/" + s
}

func cleanScriptPath(path string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	s = strings.TrimPrefix(s, "specs/")
	s = strings.TrimPrefix(s, "scripts/")
	if filepath.Ext(s) == "" {
		s += ".tengo"
	}
	return "scripts/" + s
}
