// Package radiocfg translates the hand-edited concentrator configuration
// files into validated hardware configuration structures. Configuration files
// are JSON trees that may carry // and /* */ comments; missing or malformed
// fields degrade to documented defaults rather than failing, because these
// files are edited by hand in the field.
package radiocfg

import (
	"fmt"
	"os"
	"path/filepath"

	kjson "github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/rs/zerolog/log"
)

// Well-known configuration file names, searched in the radio config
// directory. A debug file overrides everything; otherwise the global file is
// loaded with the local file overlaid on top of it; a local file alone also
// works. Finding none of them is fatal: starting the radio with stale or
// unknown prior configuration is unsafe.
const (
	GlobalConfName = "global_conf.json"
	LocalConfName  = "local_conf.json"
	DebugConfName  = "debug_conf.json"
)

// Document is a parsed configuration tree with dotted-path access.
type Document struct {
	k *koanf.Koanf
}

// ParseDocument parses one configuration document from raw bytes.
func ParseDocument(raw []byte) (*Document, error) {
	d := &Document{k: koanf.New(".")}
	if err := d.merge(raw); err != nil {
		return nil, err
	}
	return d, nil
}

// LoadDocument parses one configuration file.
func LoadDocument(path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	d, err := ParseDocument(raw)
	if err != nil {
		return nil, fmt.Errorf("%s is not a valid configuration file: %w", path, err)
	}
	return d, nil
}

// MergeFile overlays another configuration file onto the document. Values in
// the overlay replace values already present.
func (d *Document) MergeFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := d.merge(raw); err != nil {
		return fmt.Errorf("%s is not a valid configuration file: %w", path, err)
	}
	return nil
}

func (d *Document) merge(raw []byte) error {
	return d.k.Load(rawbytes.Provider(stripComments(raw)), kjson.Parser())
}

// Discover locates and loads the configuration document from dir following
// the layering rules above.
func Discover(dir string) (*Document, error) {
	debugPath := filepath.Join(dir, DebugConfName)
	globalPath := filepath.Join(dir, GlobalConfName)
	localPath := filepath.Join(dir, LocalConfName)

	if fileExists(debugPath) {
		log.Info().Str("file", debugPath).Msg("found debug configuration file, other configuration files will be ignored")
		return LoadDocument(debugPath)
	}

	if fileExists(globalPath) {
		log.Info().Str("file", globalPath).Msg("found global configuration file")
		doc, err := LoadDocument(globalPath)
		if err != nil {
			return nil, err
		}
		if fileExists(localPath) {
			log.Info().Str("file", localPath).Msg("found local configuration file, overlaying")
			if err := doc.MergeFile(localPath); err != nil {
				return nil, err
			}
		}
		return doc, nil
	}

	if fileExists(localPath) {
		log.Info().Str("file", localPath).Msg("found local configuration file")
		return LoadDocument(localPath)
	}

	return nil, fmt.Errorf("no configuration file named %s, %s or %s in %s",
		GlobalConfName, LocalConfName, DebugConfName, dir)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// IsObject reports whether path names a JSON object in the document.
func (d *Document) IsObject(path string) bool {
	_, ok := d.k.Get(path).(map[string]interface{})
	return ok
}

// Bool returns the boolean at path. ok is false when the value is absent or
// not a boolean.
func (d *Document) Bool(path string) (v, ok bool) {
	v, ok = d.k.Get(path).(bool)
	return v, ok
}

// Number returns the number at path. ok is false when the value is absent or
// not a number.
func (d *Document) Number(path string) (float64, bool) {
	v, ok := d.k.Get(path).(float64)
	return v, ok
}

// String returns the string at path. ok is false when the value is absent or
// not a string.
func (d *Document) String(path string) (string, bool) {
	v, ok := d.k.Get(path).(string)
	return v, ok
}

// stripComments removes // line comments and /* */ block comments outside of
// string literals, leaving valid JSON. The reference parser for these files
// accepts commented JSON, so hand-edited files in the wild carry comments.
func stripComments(raw []byte) []byte {
	out := make([]byte, 0, len(raw))
	inString := false
	escaped := false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if inString {
			out = append(out, c)
			if escaped {
				escaped = false
			} else if c == '\\' {
				escaped = true
			} else if c == '"' {
				inString = false
			}
			continue
		}
		switch {
		case c == '"':
			inString = true
			out = append(out, c)
		case c == '/' && i+1 < len(raw) && raw[i+1] == '/':
			for i < len(raw) && raw[i] != '\n' {
				i++
			}
			if i < len(raw) {
				out = append(out, '\n')
			}
		case c == '/' && i+1 < len(raw) && raw[i+1] == '*':
			i += 2
			for i+1 < len(raw) && !(raw[i] == '*' && raw[i+1] == '/') {
				i++
			}
			i++ // skip closing slash
		default:
			out = append(out, c)
		}
	}
	return out
}
