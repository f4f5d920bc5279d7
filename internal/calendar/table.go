package calendar

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/rewired-gh/calendarbot/internal/models"
)

// Table is one day's events, deduplicated and sorted
type Table struct {
	Events  []models.Event
	Pages   int // fragments fetched
	Skipped int // rows dropped as unparseable
}

// BuildTable merges fragments in fetch order, drops repeated row IDs (first wins)
// and sorts by date, time and country with empty values last.
func BuildTable(fragments []string, loc *time.Location) (*Table, error) {
	table := &Table{Pages: len(fragments)}
	if len(fragments) == 0 {
		return table, nil
	}

	events, skipped, err := ExtractRows(strings.Join(fragments, ""), loc)
	if err != nil {
		return nil, err
	}
	table.Skipped = skipped
	table.Events = lo.UniqBy(events, func(e models.Event) string {
		return e.RowID
	})
	SortEvents(table.Events)
	return table, nil
}

// SortEvents stable-sorts events by (Date, Clock, Country), empty values last
func SortEvents(events []models.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := &events[i], &events[j]
		if c := compareEmptyLast(a.Date, b.Date); c != 0 {
			return c < 0
		}
		if c := compareEmptyLast(a.Clock, b.Clock); c != 0 {
			return c < 0
		}
		return compareEmptyLast(a.Country, b.Country) < 0
	})
}

func compareEmptyLast(a, b string) int {
	switch {
	case a == b:
		return 0
	case a == "":
		return 1
	case b == "":
		return -1
	}
	return strings.Compare(a, b)
}

// DayFetcher returns the raw fragments for one day
type DayFetcher interface {
	FetchDay(ctx context.Context, day time.Time, importance, countries []int) ([]string, error)
}

// Service fetches and builds a day's Table with a fixed filter and target zone
type Service struct {
	fetcher    DayFetcher
	loc        *time.Location
	importance []int
	countries  []int
}

// NewService creates a Service
func NewService(fetcher DayFetcher, loc *time.Location, importance, countries []int) *Service {
	return &Service{
		fetcher:    fetcher,
		loc:        loc,
		importance: importance,
		countries:  countries,
	}
}

// Importance returns the levels the service requests
func (s *Service) Importance() []int {
	return s.importance
}

// Day returns the Table for the calendar day containing t in the target zone
func (s *Service) Day(ctx context.Context, t time.Time) (*Table, error) {
	local := t.In(s.loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.loc)

	fragments, err := s.fetcher.FetchDay(ctx, day, s.importance, s.countries)
	if err != nil {
		return nil, err
	}
	table, err := BuildTable(fragments, s.loc)
	if err != nil {
		return nil, fmt.Errorf("failed to build table for %s: %w", day.Format("2006-01-02"), err)
	}
	return table, nil
}
