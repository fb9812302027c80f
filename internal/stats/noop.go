package stats

import "context"

// noopRecorder 代表未启用统计时的空实现
type noopRecorder struct{}

// NewNoopRecorder 创建空操作记录器
func NewNoopRecorder() Recorder {
	return noopRecorder{}
}

func (noopRecorder) Record(context.Context, Event) error { return nil }

func (noopRecorder) Totals(context.Context) (Totals, error) { return Totals{}, nil }

func (noopRecorder) Close() error { return nil }

func (noopRecorder) Type() string { return "noop" }
