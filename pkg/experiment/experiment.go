package experiment

import (
	"github.com/cloud-bulldozer/threadbench/pkg/archive"
	"github.com/cloud-bulldozer/threadbench/pkg/config"
	log "github.com/cloud-bulldozer/threadbench/pkg/logging"
	result "github.com/cloud-bulldozer/threadbench/pkg/results"
	"github.com/cloud-bulldozer/threadbench/pkg/runner"
	"github.com/cloud-bulldozer/threadbench/pkg/workload"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Driver runs a fixed, ordered set of shapes that all perform the same
// number of invocations, and stores each result.
type Driver struct {
	store   archive.Store
	configs []config.Config
}

// New returns a Driver that persists to store. The configuration set is
// copied and must hold threads x repeats constant.
func New(store archive.Store, configs []config.Config) (*Driver, error) {
	if store == nil {
		return nil, errors.New("experiment needs a store")
	}
	if err := config.ValidateSet(configs); err != nil {
		return nil, err
	}
	cfgs := make([]config.Config, len(configs))
	copy(cfgs, configs)
	return &Driver{store: store, configs: cfgs}, nil
}

// Configs returns the experiment design in run order.
func (d *Driver) Configs() []config.Config {
	out := make([]config.Config, len(d.configs))
	copy(out, d.configs)
	return out
}

// RunExperiment measures w under every configuration, one after the other,
// and writes each result as soon as it is known. It stops at the first
// failure; records already written stay in place.
func (d *Driver) RunExperiment(trials int, w workload.Workload, args workload.Args) ([]result.Data, error) {
	log.Infof("🚀 Performing tests for %s(%s)", w.Name(), args)
	var out []result.Data
	for _, cfg := range d.configs {
		r, err := runner.Run(w, args, cfg, trials)
		if err != nil {
			return out, errors.WithMessagef(err, "%s with %d threads x %d repeats", w.Name(), cfg.Threads, cfg.Repeats)
		}
		key := archive.Key(r)
		if err := d.store.Write(key, r); err != nil {
			return out, err
		}
		log.WithFields(logrus.Fields{
			"key":      key,
			"mean":     r.Mean,
			"variance": r.Variance,
		}).Info("Stored result")
		out = append(out, r)
	}
	return out, nil
}
