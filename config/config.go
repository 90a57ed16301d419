package config

import (
	"fmt"
	"strings"

	"github.com/notargets/FDTDMaterial/grid"
	"github.com/notargets/FDTDMaterial/material"
	"github.com/notargets/FDTDMaterial/parallel"
	"github.com/notargets/FDTDMaterial/partitions"
	"github.com/notargets/FDTDMaterial/pml"
	"gopkg.in/gcfg.v1"
)

// Example is a complete configuration file with every key set
const Example = `[Grid]
# 1d, 2d, 3d or cyl
Dimension = 2d
# cells per unit length
Resolution = 10
# extent along each axis the dimension uses; cyl uses R and Z
X = 4
Y = 3
# 0 means one chunk per process
Chunks = 0
# identity, or operations joined by +, e.g. mirror:x + mirror:y
Symmetry = identity
# block or roundrobin
Strategy = block
OutputDir = .

[PML]
Thickness = 0.5
Cmax = 0.5
Fmin = 0.2
Everywhere = true

[Run]
# 0 means one process per CPU
Processes = 0
Verbose = false
`

type GridConfig struct {
	// Required
	Dimension  string
	Resolution float64
	X, Y, Z, R float64

	// Optional
	Chunks    int
	Symmetry  string
	Strategy  string
	OutputDir string
}

func (g *GridConfig) CheckInit() error {
	if g.Resolution <= 0 {
		return fmt.Errorf("Need to specify a positive Resolution in [Grid]")
	}
	if g.Chunks < 0 {
		return fmt.Errorf("Chunks must be non-negative, got %d", g.Chunks)
	}
	v, err := g.Volume()
	if err != nil {
		return err
	}
	for _, d := range grid.Axes(v.Dim) {
		if v.Num[d] < 1 {
			return fmt.Errorf("Need to specify a positive extent along %s for a %s grid", d, v.Dim)
		}
	}

	if g.Symmetry == "" {
		g.Symmetry = "identity"
	}
	if _, err := g.SymmetryGroup(); err != nil {
		return err
	}
	if g.Strategy == "" {
		g.Strategy = partitions.BlockPartition.String()
	}
	if _, err := g.PartitionStrategy(); err != nil {
		return err
	}
	if g.OutputDir == "" {
		g.OutputDir = "."
	}
	return nil
}

// Volume returns the user volume described by the section
func (g *GridConfig) Volume() (grid.Volume, error) {
	switch strings.ToLower(g.Dimension) {
	case "1d":
		return grid.NewVolume1D(g.Z, g.Resolution), nil
	case "2d":
		return grid.NewVolume2D(g.X, g.Y, g.Resolution), nil
	case "3d":
		return grid.NewVolume3D(g.X, g.Y, g.Z, g.Resolution), nil
	case "cyl":
		return grid.NewVolumeCyl(g.R, g.Z, g.Resolution), nil
	}
	return grid.Volume{}, fmt.Errorf("%w: Dimension '%s'", grid.ErrUnsupportedDimension, g.Dimension)
}

// SymmetryGroup parses Symmetry into the group generated by its operations
func (g *GridConfig) SymmetryGroup() (grid.Symmetry, error) {
	s := grid.Identity()
	for _, term := range strings.Split(g.Symmetry, "+") {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" || term == "identity" {
			continue
		}
		name, axis, ok := strings.Cut(term, ":")
		if !ok {
			return s, fmt.Errorf("Symmetry operation '%s' needs an axis, e.g. %s:x", term, term)
		}
		d, err := parseDirection(axis)
		if err != nil {
			return s, err
		}
		var op grid.Symmetry
		switch name {
		case "mirror":
			op = grid.Mirror(d)
		case "rotate2":
			op = grid.Rotate2(d)
		case "rotate4":
			op = grid.Rotate4(d)
		default:
			return s, fmt.Errorf("Unknown symmetry operation '%s'", name)
		}
		s = grid.Compose(s, op)
	}
	return s, nil
}

func parseDirection(s string) (grid.Direction, error) {
	for d := grid.Direction(0); d < grid.NumDirections; d++ {
		if d.String() == strings.TrimSpace(s) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("Unknown direction '%s'", s)
}

// PartitionStrategy parses Strategy
func (g *GridConfig) PartitionStrategy() (partitions.PartitionStrategy, error) {
	for _, s := range []partitions.PartitionStrategy{partitions.BlockPartition, partitions.RoundRobin} {
		if strings.EqualFold(g.Strategy, s.String()) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("Unknown partition Strategy '%s'", g.Strategy)
}

type PMLConfig struct {
	Thickness  float64
	Cmax       float64
	Fmin       float64
	Everywhere bool
}

func (p *PMLConfig) CheckInit() error {
	if p.Thickness < 0 {
		return fmt.Errorf("PML Thickness must be non-negative, got %g", p.Thickness)
	}
	if p.Cmax == 0 {
		p.Cmax = pml.DefaultCmax
	}
	if p.Fmin == 0 {
		p.Fmin = material.DefaultPMLFmin
	}
	if p.Cmax < 0 || p.Fmin < 0 {
		return fmt.Errorf("PML Cmax and Fmin must be positive")
	}
	return nil
}

type RunConfig struct {
	Processes int
	Verbose   bool
}

func (r *RunConfig) CheckInit() error {
	if r.Processes < 0 {
		return fmt.Errorf("Processes must be non-negative, got %d", r.Processes)
	}
	if r.Processes == 0 {
		r.Processes = parallel.NumProcs()
	}
	return nil
}

type Config struct {
	Grid GridConfig
	PML  PMLConfig
	Run  RunConfig
}

// CheckInit validates every section and fills in defaults
func (c *Config) CheckInit() error {
	if err := c.Grid.CheckInit(); err != nil {
		return err
	}
	if err := c.PML.CheckInit(); err != nil {
		return err
	}
	return c.Run.CheckInit()
}

// Read loads and validates a configuration file
func Read(fname string) (*Config, error) {
	c := &Config{}
	if err := gcfg.ReadFileInto(c, fname); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", fname, err)
	}
	if err := c.CheckInit(); err != nil {
		return nil, fmt.Errorf("%s: %w", fname, err)
	}
	return c, nil
}

// Parse loads and validates a configuration held in a string
func Parse(s string) (*Config, error) {
	c := &Config{}
	if err := gcfg.ReadStringInto(c, s); err != nil {
		return nil, err
	}
	if err := c.CheckInit(); err != nil {
		return nil, err
	}
	return c, nil
}
