package core

import "time"

// TimeSeries is the in-memory representation stored inside an Artifact
// whose FileType is ArtifactTypeTimeSeries. It is deliberately simple
// (parallel slices rather than a dataframe library) since pipeline
// stages only need alignment and windowed lookups, not general
// tabular algebra.
type TimeSeries struct {
	Timestamps     []time.Time
	Values         []float64
	Units          string
	SamplingPeriod time.Duration
	Description    string
}

// Len reports the number of samples.
func (t TimeSeries) Len() int {
	return len(t.Values)
}

// At returns the (timestamp, value) pair at index i.
func (t TimeSeries) At(i int) (time.Time, float64) {
	return t.Timestamps[i], t.Values[i]
}

// Align truncates a and b to their shared length, the simplest
// correct alignment when both series were sampled at the same
// frequency over the same event window. It does not resample or
// interpolate; a future addition could align by interleaving
// timestamps for series captured at different rates.
func Align(a, b TimeSeries) (TimeSeries, TimeSeries) {
	n := min(len(a.Values), len(b.Values))
	a.Values = a.Values[:n]
	b.Values = b.Values[:n]
	if len(a.Timestamps) >= n {
		a.Timestamps = a.Timestamps[:n]
	}
	if len(b.Timestamps) >= n {
		b.Timestamps = b.Timestamps[:n]
	}
	return a, b
}

// Multiply returns the element-wise product of two equal-length
// series, inheriting a's timestamps.
func Multiply(a, b TimeSeries, units, description string) TimeSeries {
	values := make([]float64, len(a.Values))
	for i := range values {
		values[i] = a.Values[i] * b.Values[i]
	}
	return TimeSeries{
		Timestamps:     a.Timestamps,
		Values:         values,
		Units:          units,
		SamplingPeriod: a.SamplingPeriod,
		Description:    description,
	}
}
