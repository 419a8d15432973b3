package specs

import (
	"errors"
	"fmt"

	"github.com/jakecoffman/cp"
	"github.com/milk9111/fieldroutes/common"
	"gopkg.in/yaml.v3"
)

// ErrInvalidSpec is wrapped by every validation failure.
var ErrInvalidSpec = errors.New("specs: invalid field spec")

// FieldSpec describes a defence field: its grid, entrances, centre and the
// terrain present when it loads.
type FieldSpec struct {
	Name          string         `yaml:"name"`
	Width         int            `yaml:"width"`
	Height        int            `yaml:"height"`
	CellSize      float64        `yaml:"cell_size"`
	Centre        common.Point   `yaml:"centre"`
	Entrances     []EntranceSpec `yaml:"entrances"`
	Obstacles     []ObstacleSpec `yaml:"obstacles"`
	Blocks        []common.Point `yaml:"blocks"`
	Engine        EngineSpec     `yaml:"engine"`
	RerouteScript string         `yaml:"reroute_script"`
}

type EntranceSpec struct {
	Name string `yaml:"name"`
	X    int    `yaml:"x"`
	Y    int    `yaml:"y"`
}

func (e EntranceSpec) Point() common.Point { return common.Point{X: e.X, Y: e.Y} }

// ObstacleSpec is an axis-aligned box in world units.
type ObstacleSpec struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
	W float64 `yaml:"w"`
	H float64 `yaml:"h"`
}

func (o ObstacleSpec) BB() cp.BB {
	return cp.BB{L: o.X, B: o.Y, R: o.X + o.W, T: o.Y + o.H}
}

// EngineSpec tunes the pathfinder. Zero values keep the engine defaults.
type EngineSpec struct {
	MaxConcurrent int `yaml:"max_concurrent"`
	MaxNodes      int `yaml:"max_nodes"`
}

// ObstacleBoxes returns the obstacles as bounding boxes.
func (s *FieldSpec) ObstacleBoxes() []cp.BB {
	out := make([]cp.BB, 0, len(s.Obstacles))
	for _, o := range s.Obstacles {
		out = append(out, o.BB())
	}
	return out
}

// EntrancePoints returns entrance positions in id order.
func (s *FieldSpec) EntrancePoints() []common.Point {
	out := make([]common.Point, 0, len(s.Entrances))
	for _, e := range s.Entrances {
		out = append(out, e.Point())
	}
	return out
}

func (s *FieldSpec) inBounds(p common.Point) bool {
	return p.X >= 0 && p.Y >= 0 && p.X < s.Width && p.Y < s.Height
}

// Validate checks the spec is internally consistent.
func (s *FieldSpec) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: size %dx%d", ErrInvalidSpec, s.Width, s.Height)
	}
	if s.CellSize <= 0 {
		return fmt.Errorf("%w: cell_size %v", ErrInvalidSpec, s.CellSize)
	}
	if !s.inBounds(s.Centre) {
		return fmt.Errorf("%w: centre %s outside field", ErrInvalidSpec, s.Centre)
	}

	names := make(map[string]struct{}, len(s.Entrances))
	for i, e := range s.Entrances {
		if !s.inBounds(e.Point()) {
			return fmt.Errorf("%w: entrance %d at %s outside field", ErrInvalidSpec, i, e.Point())
		}
		if e.Name == "" {
			continue
		}
		if _, dup := names[e.Name]; dup {
			return fmt.Errorf("%w: duplicate entrance name %q", ErrInvalidSpec, e.Name)
		}
		names[e.Name] = struct{}{}
	}

	for _, b := range s.Blocks {
		if !s.inBounds(b) {
			return fmt.Errorf("%w: block %s outside field", ErrInvalidSpec, b)
		}
	}
	for i, o := range s.Obstacles {
		if o.W < 0 || o.H < 0 {
			return fmt.Errorf("%w: obstacle %d has negative size", ErrInvalidSpec, i)
		}
	}
	if s.Engine.MaxConcurrent < 0 || s.Engine.MaxNodes < 0 {
		return fmt.Errorf("%w: negative engine limits", ErrInvalidSpec)
	}
	return nil
}

// ParseFieldSpec decodes and validates a YAML field spec. A missing cell_size
// defaults to 1.
func ParseFieldSpec(data []byte) (*FieldSpec, error) {
	var spec FieldSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("specs: unmarshal field: %w", err)
	}
	if spec.CellSize == 0 {
		spec.CellSize = 1
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// LoadFieldSpec loads a field by path or embedded name ("default").
func LoadFieldSpec(name string) (*FieldSpec, error) {
	data, err := Load(name)
	if err != nil {
		return nil, fmt.Errorf("specs: load %s: %w", name, err)
	}
	spec, err := ParseFieldSpec(data)
	if err != nil {
		return nil, fmt.Errorf("specs: %s: %w", name, err)
	}
	return spec, nil
}
