package plugin

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"asxhub/internal/tweak"

	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Problem is a definition or factory that could not be loaded.
type Problem struct {
	Source string `json:"source"`
	Key    string `json:"key,omitempty"`
	Err    error  `json:"-"`
}

func (p Problem) Error() string {
	if p.Key == "" {
		return fmt.Sprintf("%s: %v", p.Source, p.Err)
	}
	return fmt.Sprintf("%s: %s: %v", p.Source, p.Key, p.Err)
}

// Result is what a Load produced.
type Result struct {
	// Tweaks are the built-ins in registration order followed by file
	// definitions sorted by file name.
	Tweaks []tweak.Tweak
	// Sources maps every loaded key to "builtin" or its file path.
	Sources  map[string]string
	Problems []Problem
}

// Lookup returns the loaded tweak with key.
func (r *Result) Lookup(key string) (tweak.Tweak, bool) {
	for _, t := range r.Tweaks {
		if t.Metadata().Key == key {
			return t, true
		}
	}
	return nil, false
}

// Loader instantiates registered factories and definition files.
type Loader struct {
	Registry *Registry
	// Dir holds *.yaml and *.yml definition files. Empty disables the scan.
	Dir string
	FS  afero.Fs
	Log *zap.Logger
}

// Load builds every tweak. Failing factories, unreadable or invalid files and
// key collisions are skipped and reported in Result.Problems. The error is
// non-nil only when Dir exists but cannot be listed.
func (l *Loader) Load(env *tweak.Env) (*Result, error) {
	log := l.Log
	if log == nil {
		log = zap.NewNop()
	}
	res := &Result{Sources: make(map[string]string)}

	if l.Registry != nil {
		for _, key := range l.Registry.Keys() {
			f, _ := l.Registry.Lookup(key)
			t, err := f(env)
			if err != nil {
				log.Warn("built-in tweak failed to load", zap.String("tweak", key), zap.Error(err))
				res.Problems = append(res.Problems, Problem{Source: "builtin", Key: key, Err: err})
				continue
			}
			res.Tweaks = append(res.Tweaks, t)
			res.Sources[key] = "builtin"
		}
	}

	if l.Dir == "" {
		return res, nil
	}
	files, err := l.files()
	if err != nil {
		return res, err
	}
	for _, path := range files {
		l.loadFile(path, env, res, log)
	}
	log.Debug("tweaks loaded", zap.Int("count", len(res.Tweaks)), zap.Int("problems", len(res.Problems)))
	return res, nil
}

func (l *Loader) fs() afero.Fs {
	if l.FS == nil {
		return afero.NewOsFs()
	}
	return l.FS
}

// files lists the definition files in Dir, sorted by name.
func (l *Loader) files() ([]string, error) {
	infos, err := afero.ReadDir(l.fs(), l.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list plugin dir: %w", err)
	}
	var files []string
	for _, fi := range infos {
		if fi.IsDir() || !IsDefinitionFile(fi.Name()) {
			continue
		}
		files = append(files, filepath.Join(l.Dir, fi.Name()))
	}
	return files, nil
}

func (l *Loader) loadFile(path string, env *tweak.Env, res *Result, log *zap.Logger) {
	report := func(key string, err error) {
		log.Warn("tweak definition skipped", zap.String("file", path), zap.String("tweak", key), zap.Error(err))
		res.Problems = append(res.Problems, Problem{Source: path, Key: key, Err: err})
	}

	data, err := afero.ReadFile(l.fs(), path)
	if err != nil {
		report("", err)
		return
	}
	defs, err := ParseDefinitions(data)
	if err != nil {
		report("", err)
		return
	}

	for _, def := range defs {
		if src, taken := res.Sources[def.Key]; taken {
			report(def.Key, fmt.Errorf("%w: already defined by %s", ErrDuplicate, src))
			continue
		}
		def.Source = path
		t, err := tweak.Build(def, env)
		if err != nil {
			report(def.Key, err)
			continue
		}
		res.Tweaks = append(res.Tweaks, t)
		res.Sources[def.Key] = path
	}
}

// IsDefinitionFile reports whether name has a YAML extension.
func IsDefinitionFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

type definitionFile struct {
	Tweaks []tweak.Definition `yaml:"tweaks"`
}

// ParseDefinitions decodes a file holding either one definition or a list
// under "tweaks". Unknown fields are rejected.
func ParseDefinitions(data []byte) ([]tweak.Definition, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse yaml: %w", err)
	}
	if len(doc.Content) == 0 {
		return nil, errors.New("empty definition file")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping", root.Line)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if hasKey(root, "tweaks") {
		var f definitionFile
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode tweaks: %w", err)
		}
		if len(f.Tweaks) == 0 {
			return nil, errors.New("empty tweaks list")
		}
		return f.Tweaks, nil
	}

	var def tweak.Definition
	if err := dec.Decode(&def); err != nil {
		return nil, fmt.Errorf("decode tweak: %w", err)
	}
	return []tweak.Definition{def}, nil
}

func hasKey(m *yaml.Node, key string) bool {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return true
		}
	}
	return false
}
