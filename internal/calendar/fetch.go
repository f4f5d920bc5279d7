package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rewired-gh/calendarbot/internal/config"
	"github.com/rewired-gh/calendarbot/internal/logger"
)

const filteredDataPath = "/economic-calendar/Service/getCalendarFilteredData"

// Doer sends HTTP requests. *http.Client satisfies it; so does any client able to
// pass the source's bot-detection challenge.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError reports a non-success response from the calendar endpoint
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("calendar endpoint %s returned status %d", e.URL, e.StatusCode)
}

// Fetcher pages through the calendar's filtered-data endpoint
type Fetcher struct {
	cfg    config.CalendarConfig
	client Doer
}

// NewFetcher creates a Fetcher. A nil client gets NewHTTPClient's default.
func NewFetcher(cfg config.CalendarConfig, client Doer) (*Fetcher, error) {
	if client == nil {
		c, err := NewHTTPClient(cfg)
		if err != nil {
			return nil, err
		}
		client = c
	}
	return &Fetcher{cfg: cfg, client: client}, nil
}

// NewHTTPClient builds the scraping client: proxy from config or environment,
// bounded idle connections, and cfg.Timeout as the per-request ceiling.
func NewHTTPClient(cfg config.CalendarConfig) (*http.Client, error) {
	tr := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         (&net.Dialer{Timeout: 10 * time.Second, KeepAlive: 60 * time.Second}).DialContext,
		MaxIdleConns:        10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil {
			return nil, fmt.Errorf("invalid calendar.proxy: %w", err)
		}
		tr.Proxy = http.ProxyURL(proxyURL)
	}
	return &http.Client{Timeout: cfg.Timeout, Transport: tr}, nil
}

// FetchDay returns the raw fragments covering day, in page order.
// Paging stops at the first empty page or one without event rows, or after MaxPages.
// Any failed request aborts the whole fetch.
func (f *Fetcher) FetchDay(ctx context.Context, day time.Time, importance, countries []int) ([]string, error) {
	var fragments []string
	for page := 0; page < f.cfg.MaxPages; page++ {
		offset := page * f.cfg.PageSize
		fragment, err := f.fetchPage(ctx, f.form(day, importance, countries, offset))
		if err != nil {
			return nil, fmt.Errorf("failed to fetch calendar page %d: %w", page, err)
		}
		if fragment == "" || !strings.Contains(fragment, rowMarker) {
			logger.Debug("Calendar page %d has no event rows, stopping", page)
			break
		}
		fragments = append(fragments, fragment)
	}
	return fragments, nil
}

func (f *Fetcher) form(day time.Time, importance, countries []int, offset int) url.Values {
	form := url.Values{}
	for _, c := range countries {
		form.Add("country[]", strconv.Itoa(c))
	}
	for _, lvl := range importance {
		form.Add("importance[]", strconv.Itoa(lvl))
	}
	form.Set("timeZone", strconv.Itoa(f.cfg.TimeZoneID))
	form.Set("timeFilter", f.cfg.TimeFilter)
	form.Set("dateFrom", day.Format("2006-01-02"))
	form.Set("dateTo", day.AddDate(0, 0, 1).Format("2006-01-02"))
	form.Set("limit_from", strconv.Itoa(offset))
	return form
}

func (f *Fetcher) fetchPage(ctx context.Context, form url.Values) (string, error) {
	base := strings.TrimRight(f.cfg.BaseURL, "/")
	endpoint := base + filteredDataPath

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")
	req.Header.Set("Referer", base+"/economic-calendar/")
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode, URL: endpoint}
	}

	var payload struct {
		Data string `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("failed to decode calendar response: %w", err)
	}
	return strings.TrimSpace(payload.Data), nil
}
