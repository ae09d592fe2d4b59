// Package plan loads merge plans: files listing the fragments to combine,
// their rename requests and the output to write.
package plan

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"ace/internal/workspace"
)

// Format is the encoding of a plan file.
type Format uint8

const (
	// FormatTOML is selected by the .toml extension.
	FormatTOML Format = iota + 1
	// FormatYAML is selected by the .yaml and .yml extensions.
	FormatYAML
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, fmt.Errorf("%s: plan must be a .toml, .yaml or .yml file", path)
	}
}

// Plan describes one merge session.
type Plan struct {
	// Path is the plan file, empty for plans decoded from a reader.
	Path   string  `toml:"-" yaml:"-"`
	Output Output  `toml:"output" yaml:"output"`
	Inputs []Input `toml:"inputs" yaml:"inputs"`
}

// Output names the module receiving every input and where to save it.
type Output struct {
	Name string `toml:"name" yaml:"name"`
	Path string `toml:"path" yaml:"path"`
}

// Input is one fragment merged into the output, in plan order.
type Input struct {
	Ident     string            `toml:"ident" yaml:"ident"`
	Path      string            `toml:"path" yaml:"path"`
	Normalize bool              `toml:"normalize" yaml:"normalize"`
	Renames   map[string]string `toml:"renames" yaml:"renames"`
}

// Load reads a plan file. Relative paths inside it resolve against the
// directory holding the plan.
func Load(path string) (*Plan, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := Decode(bytes.NewReader(data), format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	p.Path = path
	p.resolve(filepath.Dir(path))
	return p, nil
}

// Decode parses and validates a plan.
func Decode(r io.Reader, format Format) (*Plan, error) {
	var (
		p   Plan
		err error
	)
	switch format {
	case FormatTOML:
		err = decodeTOML(r, &p)
	case FormatYAML:
		err = decodeYAML(r, &p)
	default:
		err = fmt.Errorf("unknown plan format %d", format)
	}
	if err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(p.Output.Name) == "" {
		p.Output.Name = workspace.DefaultOutput
	}
	return &p, nil
}

func decodeTOML(r io.Reader, p *Plan) error {
	meta, err := toml.NewDecoder(r).Decode(p)
	if err != nil {
		return fmt.Errorf("failed to parse TOML: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown key %s", undecoded[0])
	}
	if !meta.IsDefined("output") {
		return fmt.Errorf("missing [output]")
	}
	if !meta.IsDefined("output", "path") {
		return fmt.Errorf("missing [output].path")
	}
	if !meta.IsDefined("inputs") {
		return fmt.Errorf("missing [[inputs]]")
	}
	return nil
}

func decodeYAML(r io.Reader, p *Plan) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("empty plan")
		}
		return fmt.Errorf("failed to parse YAML: %w", err)
	}
	return nil
}

// Validate checks the plan independently of its encoding.
func (p *Plan) Validate() error {
	var errs []error
	if strings.TrimSpace(p.Output.Path) == "" {
		errs = append(errs, fmt.Errorf("missing output.path"))
	}
	if len(p.Inputs) == 0 {
		errs = append(errs, fmt.Errorf("plan lists no inputs"))
	}
	for i, in := range p.Inputs {
		if strings.TrimSpace(in.Path) == "" {
			errs = append(errs, fmt.Errorf("inputs[%d]: missing path", i))
		}
		for from, to := range in.Renames {
			if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
				errs = append(errs, fmt.Errorf("inputs[%d]: rename %q -> %q has an empty side", i, from, to))
			}
		}
	}
	return errors.Join(errs...)
}

func (p *Plan) resolve(dir string) {
	abs := func(path string) string {
		if path == "" || filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(dir, filepath.FromSlash(path))
	}
	p.Output.Path = abs(p.Output.Path)
	for i := range p.Inputs {
		p.Inputs[i].Path = abs(p.Inputs[i].Path)
	}
}
