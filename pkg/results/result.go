package result

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	moremath "github.com/aclements/go-moremath/stats"
	"github.com/cloud-bulldozer/threadbench/pkg/config"
	"github.com/cloud-bulldozer/threadbench/pkg/logging"
	"github.com/cloud-bulldozer/threadbench/pkg/sample"
	"github.com/cloud-bulldozer/threadbench/pkg/workload"
	stats "github.com/montanaflynn/stats"
	"github.com/olekukonko/tablewriter"
	"github.com/pkg/errors"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Specify Language specific case wrapper as global variable
var caser = cases.Title(language.English)

// Data describes the outcome of one configuration. Individual samples are
// folded into the statistics and not kept.
type Data struct {
	config.Config
	Workload   string        `json:"workload"`
	Args       workload.Args `json:"args"`
	Samples    int           `json:"samples"`
	Mean       float64       `json:"meanElapsed"`
	Variance   float64       `json:"varianceElapsed"`
	Confidence []float64     `json:"confidence"`
	StartTime  time.Time     `json:"startTime"`
	EndTime    time.Time     `json:"endTime"`
}

// ExperimentResults holds every configuration measured by one run of the tool.
type ExperimentResults struct {
	UUID    string
	Results []Data
}

// New folds the trial samples of one configuration into a Data record.
func New(name string, args workload.Args, cfg config.Config, samples []sample.Sample) (Data, error) {
	if len(samples) == 0 {
		return Data{}, errors.New("no samples to summarize")
	}
	elapsed := make([]float64, len(samples))
	for i, s := range samples {
		elapsed[i] = s.Elapsed
	}
	mean, err := Average(elapsed)
	if err != nil {
		return Data{}, err
	}
	if math.IsNaN(mean) || math.IsInf(mean, 0) || mean < 0 {
		return Data{}, errors.Errorf("mean elapsed time %f is not a valid duration", mean)
	}
	variance, err := Variance(elapsed)
	if err != nil {
		return Data{}, err
	}
	lo, hi := ConfidenceInterval(elapsed, 0.95)
	return Data{
		Config:     cfg,
		Workload:   name,
		Args:       args.Clone(),
		Samples:    len(samples),
		Mean:       mean,
		Variance:   variance,
		Confidence: []float64{lo, hi},
		StartTime:  samples[0].Start,
		EndTime:    samples[len(samples)-1].End,
	}, nil
}

// Average accepts array of floats to calculate average
func Average(vals []float64) (float64, error) {
	return stats.Mean(vals)
}

// Variance is the sample variance (N-1 denominator). A single sample has
// zero variance.
func Variance(vals []float64) (float64, error) {
	if len(vals) == 1 {
		return 0, nil
	}
	return stats.SampleVariance(vals)
}

// ConfidenceInterval returns the bounds of the mean at the given confidence.
// A single sample collapses the interval onto itself.
func ConfidenceInterval(vals []float64, ci float64) (float64, float64) {
	if len(vals) < 2 {
		if len(vals) == 0 {
			return 0, 0
		}
		return vals[0], vals[0]
	}
	_, lo, hi := moremath.MeanCI(vals, ci)
	return lo, hi
}

// Speedup is how many times faster d ran than baseline.
func Speedup(baseline, d Data) float64 {
	if d.Mean == 0 {
		return 0
	}
	return baseline.Mean / d.Mean
}

// Baseline finds the first result measured with the same workload and
// arguments as d.
func Baseline(s ExperimentResults, d Data) Data {
	for _, r := range s.Results {
		if r.Workload == d.Workload && r.Args.String() == d.Args.String() {
			return r
		}
	}
	return d
}

// Method to init common table structure.
func initTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	return table
}

// ShowResults presents the results to the user via stdout
func ShowResults(s ExperimentResults) {
	RenderResults(os.Stdout, s)
}

// RenderResults writes one table row per configuration to w.
func RenderResults(w io.Writer, s ExperimentResults) {
	if len(s.Results) == 0 {
		logging.Warn("No results to render")
		return
	}
	logging.Debug("Rendering elapsed time results")
	table := initTable(w, []string{"Result Type", "Workload", "Args", "Threads", "Repeats", "Samples", "Avg elapsed", "Variance", "95% Confidence Interval", "Speedup"})
	for _, r := range s.Results {
		lo, hi := Bounds(r)
		table.Append([]string{
			fmt.Sprintf("📊 %s Results", caser.String(strings.ToLower(r.Workload))),
			r.Workload,
			r.Args.String(),
			strconv.Itoa(r.Threads),
			strconv.Itoa(r.Repeats),
			strconv.Itoa(r.Samples),
			fmt.Sprintf("%f (s)", r.Mean),
			fmt.Sprintf("%g", r.Variance),
			fmt.Sprintf("%f-%f (s)", lo, hi),
			fmt.Sprintf("%.2fx", Speedup(Baseline(s, r), r)),
		})
	}
	table.Render()
}

// Bounds returns the low and high ends of the confidence interval.
func Bounds(r Data) (float64, float64) {
	if len(r.Confidence) != 2 {
		return r.Mean, r.Mean
	}
	return r.Confidence[0], r.Confidence[1]
}
