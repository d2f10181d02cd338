package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordRender(_ *RenderEvent) error   { return nil }
func (n *NoopRecorder) Recent(_ int) ([]RenderEvent, error) { return []RenderEvent{}, nil }
func (n *NoopRecorder) Close() error                        { return nil }
