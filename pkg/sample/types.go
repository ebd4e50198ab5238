package sample

import "time"

// Sample describes the timing we record for each trial.
type Sample struct {
	Start   time.Time
	End     time.Time
	Elapsed float64
}

// New builds a Sample from two readings of the monotonic clock.
func New(start, end time.Time) Sample {
	return Sample{
		Start:   start,
		End:     end,
		Elapsed: end.Sub(start).Seconds(),
	}
}
