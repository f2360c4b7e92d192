package metrics

// NoopRecorder discards all metric events.
type NoopRecorder struct{}

// NewNoop returns a Recorder that does nothing.
func NewNoop() *NoopRecorder {
	return &NoopRecorder{}
}

func (NoopRecorder) IncCreated(string)       {}
func (NoopRecorder) IncUpdated(string)       {}
func (NoopRecorder) IncDeleted(string)       {}
func (NoopRecorder) IncForbidden(string)     {}
func (NoopRecorder) IncInUse(string)         {}
func (NoopRecorder) IncAuthFailure()         {}
func (NoopRecorder) IncListCacheHit(string)  {}
func (NoopRecorder) IncListCacheMiss(string) {}
