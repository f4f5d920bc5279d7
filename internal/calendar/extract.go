// Package calendar scrapes the investing.com economic calendar.
//
// The source serves a day's events as paginated HTML fragments of <tr> rows. The
// Fetcher pages through them, ExtractRows turns one fragment into models.Event values,
// and BuildTable merges pages into a deduplicated, deterministically ordered Table.
package calendar

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rewired-gh/calendarbot/internal/models"
)

const (
	rowIDPrefix = "eventRowId_"
	// rowMarker is the class every event row carries; a page without it has no rows.
	rowMarker = "js-event-item"

	datetimeAttr   = "data-event-datetime"
	datetimeLayout = "2006/01/02 15:04:05" // UTC
)

// XPath expressions for the event table markup
const (
	rowsExpr      = "//tr[starts-with(@id,'" + rowIDPrefix + "') and contains(@class,'" + rowMarker + "')]"
	timeCell      = "./td[contains(@class,'js-time')]"
	countryCell   = "./td[contains(@class,'flagCur')]/*[@title]"
	eventCell     = "./td[" + hasClass + "' event ')]"
	sentimentCell = "./td[contains(@class,'sentiment')][@data-img_key]"
	actualCell    = "./td[" + hasClass + "' act ')]"
	forecastCell  = "./td[" + hasClass + "' fore ')]"
	previousCell  = "./td[" + hasClass + "' prev ')]"

	// hasClass matches a whole class token; the predicate is closed by the caller
	hasClass = "contains(concat(' ',normalize-space(@class),' '),"
)

var importanceRe = regexp.MustCompile(`bull(\d+)`)

var errNoDatetime = errors.New("row has no datetime attribute")

// ExtractRows parses an HTML fragment into events, in document order.
// Rows that fail to parse are skipped and counted; they never abort extraction.
func ExtractRows(fragment string, loc *time.Location) ([]models.Event, int, error) {
	doc, err := parseFragment(fragment)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to parse fragment: %w", err)
	}

	rows := doc.QueryAll(rowsExpr)
	events := make([]models.Event, 0, len(rows))
	skipped := 0
	for _, row := range rows {
		event, err := extractRow(row, loc)
		if err != nil {
			skipped++
			continue
		}
		events = append(events, event)
	}
	return events, skipped, nil
}

func extractRow(row Node, loc *time.Location) (models.Event, error) {
	event := models.Event{
		RowID:      strings.TrimPrefix(row.Attr("id"), rowIDPrefix),
		Name:       textOf(row.Query(eventCell)),
		Importance: parseImportance(attrOf(row.Query(sentimentCell), "data-img_key")),
		Actual:     models.DisplayValue(resolveField(row, actualCell)),
		Forecast:   models.DisplayValue(resolveField(row, forecastCell)),
		Previous:   models.DisplayValue(resolveField(row, previousCell)),
	}
	event.Country = strings.TrimSpace(attrOf(row.Query(countryCell), "title"))

	if t, err := parseEventTime(row.Attr(datetimeAttr), loc); err == nil {
		event.Time = t
		event.Date = t.Format("2006-01-02")
		event.Clock = t.Format("15:04")
	} else {
		event.Clock = resolveField(row, timeCell)
	}

	if err := event.Validate(); err != nil {
		return models.Event{}, err
	}
	return event, nil
}

// parseImportance reads the trailing level of a sentiment key such as "bull3".
// Anything unrecognized is 0.
func parseImportance(key string) int {
	m := importanceRe.FindStringSubmatch(key)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil || n > models.MaxImportance {
		return 0
	}
	return n
}

// parseEventTime parses the row's UTC datetime and converts it to loc
func parseEventTime(raw string, loc *time.Location) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errNoDatetime
	}
	t, err := time.ParseInLocation(datetimeLayout, raw, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(loc), nil
}

func textOf(n Node) string {
	if n == nil {
		return ""
	}
	return n.Text()
}

func attrOf(n Node, name string) string {
	if n == nil {
		return ""
	}
	return n.Attr(name)
}
