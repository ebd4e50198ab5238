package runner

import (
	"fmt"
	"time"

	"github.com/cloud-bulldozer/threadbench/pkg/config"
	log "github.com/cloud-bulldozer/threadbench/pkg/logging"
	result "github.com/cloud-bulldozer/threadbench/pkg/results"
	"github.com/cloud-bulldozer/threadbench/pkg/sample"
	"github.com/cloud-bulldozer/threadbench/pkg/workload"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ErrWorkloadFailure matches every error raised by a workload during a trial.
var ErrWorkloadFailure = errors.New("workload failure")

// WorkloadError reports which trial and unit of a run failed.
type WorkloadError struct {
	Workload string
	Trial    int
	Unit     int
	Err      error
}

func (e *WorkloadError) Error() string {
	return fmt.Sprintf("%s failed in trial %d (unit %d): %v", e.Workload, e.Trial, e.Unit, e.Err)
}

func (e *WorkloadError) Unwrap() error { return e.Err }

// Is lets errors.Is match ErrWorkloadFailure as well as the cause.
func (e *WorkloadError) Is(target error) bool { return target == ErrWorkloadFailure }

// Run measures w under the shape in cfg. Each of the trials spawns
// cfg.Threads goroutines that call w cfg.Repeats times in a row and waits
// for all of them. The first workload error aborts the run; nothing is
// retried and nothing times out.
func Run(w workload.Workload, args workload.Args, cfg config.Config, trials int) (result.Data, error) {
	if err := config.Validate(cfg, trials); err != nil {
		return result.Data{}, err
	}
	config.Show(cfg, w.Name(), trials)
	samples := make([]sample.Sample, 0, trials)
	for i := 0; i < trials; i++ {
		s, err := trial(w, args, cfg.Threads, cfg.Repeats)
		if err != nil {
			var we *WorkloadError
			if errors.As(err, &we) {
				we.Trial = i
			}
			return result.Data{}, err
		}
		log.Debugf("Trial %d of %s (%d threads x %d repeats): %fs", i, w.Name(), cfg.Threads, cfg.Repeats, s.Elapsed)
		samples = append(samples, s)
	}
	return result.New(w.Name(), args, cfg, samples)
}

// trial times one fan-out and join. Units share nothing but the read-only
// workload; each gets its own copy of args and of the repeat count.
func trial(w workload.Workload, args workload.Args, threads, repeats int) (sample.Sample, error) {
	var g errgroup.Group
	start := time.Now()
	for u := 0; u < threads; u++ {
		unit, unitArgs, n := u, args.Clone(), repeats
		g.Go(func() error {
			for r := 0; r < n; r++ {
				if err := w.Run(unitArgs); err != nil {
					return &WorkloadError{Workload: w.Name(), Unit: unit, Err: err}
				}
			}
			return nil
		})
	}
	err := g.Wait()
	end := time.Now()
	if err != nil {
		return sample.Sample{}, err
	}
	return sample.New(start, end), nil
}
