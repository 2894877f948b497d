package checks

import (
	"context"
	"encoding/xml"
	"strings"
)

const (
	DefaultScanTarget = "127.0.0.1"
	DefaultScanPorts  = "1-1024"
)

// OpenPort is one open port from an nmap report.
type OpenPort struct {
	Port     string `json:"port"`
	Protocol string `json:"protocol"`
	Service  string `json:"service"`
}

// PortScan is the open-ports record.
type PortScan struct {
	OpenPorts []OpenPort `json:"open_ports"`
}

// XML structures for nmap -oX output.
type nmapRun struct {
	Hosts []nmapHost `xml:"host"`
}

type nmapHost struct {
	Ports nmapPorts `xml:"ports"`
}

type nmapPorts struct {
	Ports []nmapPort `xml:"port"`
}

type nmapPort struct {
	PortID   string       `xml:"portid,attr"`
	Protocol string       `xml:"protocol,attr"`
	State    nmapState    `xml:"state"`
	Service  *nmapService `xml:"service"`
}

type nmapState struct {
	State string `xml:"state,attr"`
}

type nmapService struct {
	Name string `xml:"name,attr"`
}

// ScanPorts runs nmap against target and returns its open ports. Empty
// arguments fall back to localhost and ports 1-1024.
func (e *Env) ScanPorts(ctx context.Context, target, ports string) (*PortScan, error) {
	if target == "" {
		target = DefaultScanTarget
	}
	if ports == "" {
		ports = DefaultScanPorts
	}

	res, err := e.Runner.Run(ctx, TimeoutPortScan, "nmap", "-p", ports, "-oX", "-", target)
	if err != nil {
		return nil, executionFailed(err, "Nmap error")
	}
	if res.TimedOut {
		return nil, executionFailed(nil, "Nmap error: timed out after %s", TimeoutPortScan)
	}
	if !res.Success {
		return nil, executionFailed(nil, "Nmap error: %s", strings.TrimSpace(res.Stderr))
	}
	return ParseNmapXML([]byte(res.Stdout))
}

// ParseNmapXML extracts the open ports of every host in an nmap XML report.
func ParseNmapXML(data []byte) (*PortScan, error) {
	var run nmapRun
	if err := xml.Unmarshal(data, &run); err != nil {
		return nil, parseFailed(err, "XML parse error")
	}

	scan := &PortScan{OpenPorts: []OpenPort{}}
	for _, host := range run.Hosts {
		for _, port := range host.Ports.Ports {
			if port.State.State != "open" {
				continue
			}
			service := "unknown"
			if port.Service != nil {
				service = port.Service.Name
			}
			scan.OpenPorts = append(scan.OpenPorts, OpenPort{
				Port:     port.PortID,
				Protocol: port.Protocol,
				Service:  service,
			})
		}
	}
	return scan, nil
}
