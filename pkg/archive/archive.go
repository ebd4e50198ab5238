package archive

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloud-bulldozer/go-commons/indexers"
	"github.com/cloud-bulldozer/threadbench/pkg/logging"
	result "github.com/cloud-bulldozer/threadbench/pkg/results"
	"github.com/pkg/errors"
)

const elapsedMetric = "s"

// Doc struct of the JSON document to be indexed
type Doc struct {
	UUID       string    `json:"uuid"`
	Timestamp  time.Time `json:"timestamp"`
	Key        string    `json:"key"`
	Workload   string    `json:"workload"`
	Args       string    `json:"args"`
	Threads    int       `json:"threads"`
	Repeats    int       `json:"repeats"`
	Samples    int       `json:"samples"`
	Mean       float64   `json:"meanElapsed"`
	Variance   float64   `json:"varianceElapsed"`
	Metric     string    `json:"metric"`
	Speedup    float64   `json:"speedup"`
	Confidence []float64 `json:"confidence"`
	StartTime  time.Time `json:"startTime"`
	EndTime    time.Time `json:"endTime"`
}

// Key is the identifier a result is stored under. Measuring the same
// workload, arguments and shape again yields the same key.
func Key(d result.Data) string {
	return fmt.Sprintf("%s_%s_%d_%d", d.Workload, d.Args.String(), d.Threads, d.Repeats)
}

// Connect returns a client connected to the desired cluster.
func Connect(url, index string) (*indexers.Indexer, error) {
	var err error
	var indexer *indexers.Indexer
	indexerConfig := indexers.IndexerConfig{
		Type:               "opensearch",
		Servers:            []string{url},
		Index:              index,
		InsecureSkipVerify: true,
	}
	logging.Infof("📁 Creating indexer: %s", indexerConfig.Type)
	indexer, err = indexers.NewIndexer(indexerConfig)
	if err != nil {
		logging.Errorf("%v indexer: %v", indexerConfig.Type, err.Error())
		return nil, fmt.Errorf("Failure while connnecting to Opensearch")
	}
	logging.Infof("Connected to : %s ", url)
	return indexer, nil
}

// BuildDocs returns the documents that need to be indexed or an error.
func BuildDocs(sr result.ExperimentResults, uuid string) ([]interface{}, error) {
	now := time.Now().UTC()
	var docs []interface{}
	if len(sr.Results) < 1 {
		return nil, fmt.Errorf("no result documents")
	}
	for _, r := range sr.Results {
		lo, hi := result.Bounds(r)
		docs = append(docs, Doc{
			UUID:       uuid,
			Timestamp:  now,
			Key:        Key(r),
			Workload:   r.Workload,
			Args:       r.Args.String(),
			Threads:    r.Threads,
			Repeats:    r.Repeats,
			Samples:    r.Samples,
			Mean:       r.Mean,
			Variance:   r.Variance,
			Metric:     elapsedMetric,
			Speedup:    result.Speedup(result.Baseline(sr, r), r),
			Confidence: []float64{lo, hi},
			StartTime:  r.StartTime,
			EndTime:    r.EndTime,
		})
	}
	return docs, nil
}

// Index sends the documents of a run to OpenSearch.
func Index(indexer indexers.Indexer, sr result.ExperimentResults) error {
	docs, err := BuildDocs(sr, sr.UUID)
	if err != nil {
		return err
	}
	logging.Infof("Indexing [%d] documents with UUID %s", len(docs), sr.UUID)
	resp, err := indexer.Index(docs, indexers.IndexingOpts{})
	if err != nil {
		return err
	}
	logging.Info(resp)
	return nil
}

// Common csv header fields.
func commonCsvHeaderFields() []string {
	return []string{
		"Workload",
		"Args",
		"Threads",
		"Repeats",
		"# of Samples",
		"Confidence metric - low",
		"Confidence metric - high",
	}
}

// Common csv data fields.
func commonCsvDataFields(row result.Data) []string {
	lo, hi := result.Bounds(row)
	return []string{
		row.Workload,
		row.Args.String(),
		strconv.Itoa(row.Threads),
		strconv.Itoa(row.Repeats),
		strconv.Itoa(row.Samples),
		strconv.FormatFloat(lo, 'f', -1, 64),
		strconv.FormatFloat(hi, 'f', -1, 64),
	}
}

// WriteJSONResult sends the results as JSON to stdout
func WriteJSONResult(r result.ExperimentResults) error {
	return writeJSON(os.Stdout, r)
}

func writeJSON(w io.Writer, r result.ExperimentResults) error {
	docs, err := BuildDocs(r, r.UUID)
	if err != nil {
		return err
	}
	p, err := sonic.ConfigStd.MarshalIndent(docs, " ", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(p))
	return err
}

// WriteCSVResult will write the elapsed time summary into dir and return
// the path of the file.
func WriteCSVResult(dir string, r result.ExperimentResults) (string, error) {
	fn := filepath.Join(dir, fmt.Sprintf("result-%d.csv", time.Now().Unix()))
	fp, err := os.Create(fn)
	if err != nil {
		return "", fmt.Errorf("failed to open archive file")
	}
	defer fp.Close()
	if err := writeCSV(fp, r); err != nil {
		return "", err
	}
	return fn, nil
}

func writeCSV(w io.Writer, r result.ExperimentResults) error {
	archive := csv.NewWriter(w)
	data := append(commonCsvHeaderFields(),
		"Avg Elapsed",
		"Variance",
		"Elapsed Metric",
		"Speedup",
	)
	if err := archive.Write(data); err != nil {
		return fmt.Errorf("failed to write result archive to file")
	}
	for _, row := range r.Results {
		data := append(commonCsvDataFields(row),
			fmt.Sprintf("%f", row.Mean),
			fmt.Sprint(row.Variance),
			elapsedMetric,
			fmt.Sprintf("%f", result.Speedup(result.Baseline(r, row), row)),
		)
		if err := archive.Write(data); err != nil {
			return fmt.Errorf("failed to write archive to file")
		}
	}
	archive.Flush()
	return errors.Wrap(archive.Error(), "failed to flush archive")
}
