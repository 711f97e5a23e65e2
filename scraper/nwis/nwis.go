// Package nwis fetches instantaneous-value time series from the USGS
// National Water Information System in RDB (tab-delimited) format.
package nwis

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"usgs-water-summary/config"
	"usgs-water-summary/models"
	"usgs-water-summary/utils"
)

const (
	// DefaultBaseURL is the NWIS instantaneous-values service.
	DefaultBaseURL = "https://nwis.waterservices.usgs.gov/nwis/iv/"

	maxErrorBody = 4 << 10
)

// Client issues the single GET a run needs.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *utils.Logger
}

// New creates a Client from the configured base URL and timeout.
// A zero timeout leaves the transport default in place.
func New(cfg *config.Config, logger *utils.Logger) *Client {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		baseURL: base,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.HTTPTimeout) * time.Second,
		},
		logger: logger,
	}
}

// Fetch requests windowDays of history for one site and parameter and
// returns the raw RDB body. Transport failures and non-2xx statuses are
// reported as models.ErrNetwork.
func (c *Client) Fetch(ctx context.Context, siteID, parameterCode string, windowDays int) (string, error) {
	endpoint, err := c.buildURL(siteID, parameterCode, windowDays)
	if err != nil {
		return "", err
	}

	c.logger.Info("[nwis] Connecting to USGS NWIS for Site: %s (Param: %s)...", siteID, parameterCode)
	c.logger.Debug("[nwis] GET %s", endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("nwis: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: nwis request failed: %v", models.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		detail := describeBody(resp.Header.Get("Content-Type"), payload)
		c.logger.Error("[nwis] Server response: %s", detail)
		return "", fmt.Errorf("%w: nwis returned %s: %s", models.ErrNetwork, resp.Status, detail)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: read nwis response: %v", models.ErrNetwork, err)
	}

	c.logger.Info("[nwis] Received %d bytes (%s)", len(body), resp.Status)
	return string(body), nil
}

func (c *Client) buildURL(siteID, parameterCode string, windowDays int) (string, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("nwis: parse base url %q: %w", c.baseURL, err)
	}

	q := u.Query()
	q.Set("format", "rdb")
	q.Set("sites", siteID)
	q.Set("parameterCd", parameterCode)
	q.Set("period", fmt.Sprintf("P%dD", windowDays))
	q.Set("siteStatus", "all")
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// describeBody reduces an error payload to one line. NWIS answers bad
// requests with an HTML page, so markup is stripped down to its text.
func describeBody(contentType string, payload []byte) string {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return "(empty body)"
	}

	text := string(trimmed)
	if strings.Contains(contentType, "html") || bytes.HasPrefix(trimmed, []byte("<")) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(trimmed))
		if err == nil {
			doc.Find("script, style").Remove()
			var parts []string
			collectText(doc.Selection, &parts)
			text = strings.Join(parts, " ")
		}
	}

	return strings.Join(strings.Fields(text), " ")
}

// collectText appends every text node under s in document order, so
// sibling elements such as <h1> and <p> stay separate words.
func collectText(s *goquery.Selection, parts *[]string) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		if goquery.NodeName(c) == "#text" {
			*parts = append(*parts, c.Text())
			return
		}
		collectText(c, parts)
	})
}
