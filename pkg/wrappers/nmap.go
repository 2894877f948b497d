package wrappers

import (
	"context"

	"github.com/user/mssp-agent/pkg/checks"
)

// PortScanTool implements the Tool interface for the nmap port scan
type PortScanTool struct{ base }

func (p *PortScanTool) Name() string {
	return "open_ports"
}

func (p *PortScanTool) Description() string {
	return "Runs an nmap TCP scan against a host and returns the open ports with their protocol and service."
}

func (p *PortScanTool) Schema() map[string]interface{} {
	return objectSchema(map[string]interface{}{
		"target": stringProp("IP address or hostname to scan. Defaults to 127.0.0.1."),
		"ports":  stringProp("Ports to scan (e.g. '80,443' or '1-1024'). Defaults to 1-1024."),
	})
}

func (p *PortScanTool) Collect(ctx context.Context, args map[string]interface{}) checks.Record {
	target := stringArg(args, "target", checks.DefaultScanTarget)
	ports := stringArg(args, "ports", checks.DefaultScanPorts)
	scan, err := p.Env.ScanPorts(ctx, target, ports)
	return checks.NewRecord(p.Name(), scan, err)
}

func (p *PortScanTool) Execute(ctx context.Context, args map[string]interface{}, progress func(string)) (string, error) {
	return p.run(ctx, p, args, progress)
}
