package engine

// Finding represents a normalized security finding from any check
type Finding struct {
	ID              string `json:"id"`
	SourceTool      string `json:"source_tool"` // check name, e.g. open_ports
	Category        string `json:"category"`    // network / auth / patching / malware / logs / vuln / hardening
	Severity        int    `json:"severity"`    // normalized 1-10
	Confidence      string `json:"confidence"`
	Asset           string `json:"asset"` // ip / port / package / file / host
	Evidence        string `json:"evidence"`
	RemediationHint string `json:"remediation_hint"`
}
