package checks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/user/mssp-agent/pkg/logging"
)

const (
	DefaultNVDURL     = "https://services.nvd.nist.gov/rest/json/cves/2.0"
	DefaultCVEDays    = 3
	DefaultCVELimit   = 25
	nvdTimeFormat     = "2006-01-02T15:04:05.000Z"
	noDescription     = "No description"
	unknownSeverity   = "unknown"
	maxNVDErrorDetail = 512
)

// CVE is one entry of the vulnerability feed record.
type CVE struct {
	ID        string `json:"id"`
	Published string `json:"published"`
	Summary   string `json:"summary"`
	Severity  string `json:"severity"`
}

// CVEFeed is the vulnerability feed record.
type CVEFeed struct {
	CVEs []CVE `json:"cves"`
}

// CVEQuery selects recent CVEs.
type CVEQuery struct {
	Days    int
	Keyword string
	Limit   int
}

type nvdResponse struct {
	Vulnerabilities []struct {
		CVE nvdCVE `json:"cve"`
	} `json:"vulnerabilities"`
}

type nvdCVE struct {
	ID           string `json:"id"`
	Published    string `json:"published"`
	Descriptions []struct {
		Lang  string `json:"lang"`
		Value string `json:"value"`
	} `json:"descriptions"`
	Metrics map[string][]nvdMetric `json:"metrics"`
}

type nvdMetric struct {
	CVSSData struct {
		BaseScore    float64 `json:"baseScore"`
		BaseSeverity string  `json:"baseSeverity"`
	} `json:"cvssData"`
	// CVSS v2 carries severity beside cvssData rather than inside it.
	BaseSeverity string `json:"baseSeverity"`
}

// cvssPriority lists metric versions from most to least preferred.
var cvssPriority = []string{"cvssMetricV40", "cvssMetricV31", "cvssMetricV30", "cvssMetricV2"}

// FetchRecentCVEs queries the NVD API for CVEs published within the last
// q.Days days, optionally filtered by keyword.
func (e *Env) FetchRecentCVEs(ctx context.Context, q CVEQuery) (*CVEFeed, error) {
	if q.Days == 0 {
		q.Days = DefaultCVEDays
	}
	if q.Limit == 0 {
		q.Limit = DefaultCVELimit
	}

	end := e.Now().UTC()
	start := end.AddDate(0, 0, -q.Days)

	params := url.Values{}
	params.Set("pubStartDate", start.Format(nvdTimeFormat))
	params.Set("pubEndDate", end.Format(nvdTimeFormat))
	params.Set("resultsPerPage", strconv.Itoa(q.Limit))
	if q.Keyword != "" {
		params.Set("keywordSearch", q.Keyword)
	}

	ctx, cancel := context.WithTimeout(ctx, TimeoutVulnFeed)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.NVDURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, executionFailed(err, "building NVD request")
	}
	req.Header.Set("Accept", "application/json")

	logging.Check("vuln_feeds").Str("url", req.URL.String()).Msg("querying NVD")
	resp, err := e.HTTP.Do(req)
	if err != nil {
		return nil, executionFailed(err, "NVD request failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxNVDErrorDetail))
		return nil, executionFailed(nil, "NVD returned %s: %s", resp.Status, string(detail))
	}

	var body nvdResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, parseFailed(err, "decoding NVD response")
	}

	feed := &CVEFeed{CVEs: make([]CVE, 0, len(body.Vulnerabilities))}
	for _, v := range body.Vulnerabilities {
		summary := noDescription
		if len(v.CVE.Descriptions) > 0 {
			summary = v.CVE.Descriptions[0].Value
		}
		feed.CVEs = append(feed.CVEs, CVE{
			ID:        v.CVE.ID,
			Published: v.CVE.Published,
			Summary:   summary,
			Severity:  cveSeverity(v.CVE.Metrics),
		})
	}
	return feed, nil
}

// cveSeverity renders "<SEVERITY> (<score>)" from the most preferred CVSS
// metric present.
func cveSeverity(metrics map[string][]nvdMetric) string {
	for _, version := range cvssPriority {
		list := metrics[version]
		if len(list) == 0 {
			continue
		}
		m := list[0]
		if m.CVSSData.BaseScore == 0 {
			return unknownSeverity
		}
		sev := m.CVSSData.BaseSeverity
		if sev == "" {
			sev = m.BaseSeverity
		}
		return fmt.Sprintf("%s (%s)", sev, formatScore(m.CVSSData.BaseScore))
	}
	return unknownSeverity
}

// formatScore keeps one decimal for whole scores, as NVD prints them.
func formatScore(score float64) string {
	if score == math.Trunc(score) {
		return strconv.FormatFloat(score, 'f', 1, 64)
	}
	return strconv.FormatFloat(score, 'f', -1, 64)
}
