package config

import (
	"fmt"
	"os"

	log "github.com/cloud-bulldozer/threadbench/pkg/logging"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfiguration is the cause of every rejected shape or experiment file.
var ErrInvalidConfiguration = errors.New("invalid configuration")

// Config describes one concurrency shape under study.
type Config struct {
	Threads int `yaml:"threads" json:"threads"`
	Repeats int `yaml:"repeats" json:"repeats"`
}

// Total is the number of workload invocations a single trial performs.
func (c Config) Total() int {
	return c.Threads * c.Repeats
}

// Study names a workload and the arguments it is measured with.
type Study struct {
	Name string `yaml:"name"`
	Args []int  `yaml:"args,omitempty"`
}

// Experiment describes a full experiment file.
type Experiment struct {
	Samples        int      `yaml:"samples"`
	Configurations []Config `yaml:"configurations,omitempty"`
	Workloads      []Study  `yaml:"workloads"`
}

// DefaultConfigs spreads 16 invocations over 1, 2, 4 and 8 threads.
var DefaultConfigs = []Config{
	{Threads: 1, Repeats: 16},
	{Threads: 2, Repeats: 8},
	{Threads: 4, Repeats: 4},
	{Threads: 8, Repeats: 2},
}

// Validate rejects a shape or trial count that cannot be measured.
func Validate(cfg Config, samples int) error {
	if cfg.Threads < 1 {
		return errors.Wrap(ErrInvalidConfiguration, "threads must be > 0")
	}
	if cfg.Repeats < 1 {
		return errors.Wrap(ErrInvalidConfiguration, "repeats must be > 0")
	}
	if samples < 1 {
		return errors.Wrap(ErrInvalidConfiguration, "samples must be > 0")
	}
	return nil
}

// ValidateSet checks every shape and that they all perform the same number
// of invocations.
func ValidateSet(cfgs []Config) error {
	if len(cfgs) == 0 {
		return errors.Wrap(ErrInvalidConfiguration, "no configurations")
	}
	total := cfgs[0].Total()
	for _, c := range cfgs {
		if err := Validate(c, 1); err != nil {
			return err
		}
		if c.Total() != total {
			return errors.Wrapf(ErrInvalidConfiguration,
				"%d threads x %d repeats = %d invocations, expected %d", c.Threads, c.Repeats, c.Total(), total)
		}
	}
	return nil
}

// ParseConf will read in the experiment file which describes the shapes
// and workloads to measure.
// Returns Experiment struct
func ParseConf(fn string) (Experiment, error) {
	log.Infof("📒 Reading %s file. ", fn)
	var e Experiment
	buf, err := os.ReadFile(fn)
	if err != nil {
		return e, err
	}
	err = yaml.Unmarshal(buf, &e)
	if err != nil {
		return e, fmt.Errorf("in file %q: %v", fn, err)
	}
	if len(e.Configurations) == 0 {
		e.Configurations = DefaultConfigs
	}
	if e.Samples < 1 {
		return e, errors.Wrapf(ErrInvalidConfiguration, "in file %q: samples must be > 0", fn)
	}
	if err := ValidateSet(e.Configurations); err != nil {
		return e, errors.WithMessagef(err, "in file %q", fn)
	}
	if len(e.Workloads) == 0 {
		return e, errors.Wrapf(ErrInvalidConfiguration, "in file %q: no workloads", fn)
	}
	for _, w := range e.Workloads {
		if len(w.Name) == 0 {
			return e, errors.Wrapf(ErrInvalidConfiguration, "in file %q: workload without a name", fn)
		}
	}
	return e, nil
}

// Show Display the shape about to run
func Show(c Config, workload string, samples int) {
	log.Infof("🗒️  Running %s with %d threads x %d repeats (%d samples)", workload, c.Threads, c.Repeats, samples)
}
