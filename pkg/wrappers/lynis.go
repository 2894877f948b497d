package wrappers

import (
	"context"

	"github.com/user/mssp-agent/pkg/checks"
)

// LynisTool implements the Tool interface for the Lynis hardening audit
type LynisTool struct{ base }

func (l *LynisTool) Name() string {
	return "lynis_audit"
}

func (l *LynisTool) Description() string {
	return "Runs a Lynis system audit on the local machine and returns its warnings, suggestions and hardening index."
}

func (l *LynisTool) Schema() map[string]interface{} {
	return objectSchema(map[string]interface{}{})
}

func (l *LynisTool) Collect(ctx context.Context, args map[string]interface{}) checks.Record {
	report, err := l.Env.RunLynis(ctx)
	return checks.NewRecord(l.Name(), report, err)
}

func (l *LynisTool) Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	return l.run(ctx, l, args, progress)
}
