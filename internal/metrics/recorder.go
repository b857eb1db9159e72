// Package metrics records pipeline observations. Components depend on the
// Recorder interface; NoopRecorder is the default and PrometheusRecorder is
// wired in when the HTTP server exposes /metrics.
package metrics

import "time"

// Stage names used as label values.
const (
	StageResolve   = "resolve"
	StageExists    = "exists"
	StageDownload  = "download"
	StageExtract   = "extract"
	StageNormalize = "normalize"
	StageRepack    = "repack"
	StageStream    = "stream"
	StageCleanup   = "cleanup"
)

// OutcomeSuccess labels a run that streamed its archive. Failed runs are
// labelled with their error code.
const OutcomeSuccess = "success"

// Recorder defines observability hooks for pipeline runs.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome string)
	AddDownloadedBytes(n int64)
	AddStreamedBytes(n int64)
	IncLockWait()
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveRunDuration(time.Duration)           {}
func (NoopRecorder) IncRunOutcome(string)                       {}
func (NoopRecorder) AddDownloadedBytes(int64)                   {}
func (NoopRecorder) AddStreamedBytes(int64)                     {}
func (NoopRecorder) IncLockWait()                               {}
