package registry

import "context"

// CallInfo collects facts about one tool call that do not belong in its
// output, such as whether the tool fell back to synthetic data.
type CallInfo struct {
	Tool     string
	Degraded bool
}

type callInfoKey struct{}

// WithCallInfo attaches a fresh CallInfo to ctx.
func WithCallInfo(ctx context.Context) (context.Context, *CallInfo) {
	info := &CallInfo{}
	return context.WithValue(ctx, callInfoKey{}, info), info
}

// MarkDegraded flags the current call as served from fallback data.
// It is a no-op when ctx carries no CallInfo.
func MarkDegraded(ctx context.Context) {
	if info, ok := ctx.Value(callInfoKey{}).(*CallInfo); ok {
		info.Degraded = true
	}
}
