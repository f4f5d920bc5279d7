package telegram

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rewired-gh/calendarbot/internal/models"
)

// Formatter renders calendar events as plain-text Telegram messages.
// It holds only display settings; rendering does no I/O.
type Formatter struct {
	zoneLabel  string
	importance []int
	alertLead  time.Duration
}

// NewFormatter creates a Formatter. zoneLabel tags displayed times ("TR"),
// importance is the active source filter shown in the summary header, and
// alertLead is how far ahead alerts are sent.
func NewFormatter(zoneLabel string, importance []int, alertLead time.Duration) *Formatter {
	levels := append([]int(nil), importance...)
	sort.Ints(levels)
	return &Formatter{
		zoneLabel:  zoneLabel,
		importance: levels,
		alertLead:  alertLead,
	}
}

// Stars renders an importance level as a star rating
func Stars(importance int) string {
	switch importance {
	case 3:
		return "★★★"
	case 1:
		return "★"
	default:
		// the source filter only returns 2 and 3, so an unparsed level is shown as 2
		return "★★"
	}
}

// FormatSummary renders the day's events as one message
func (f *Formatter) FormatSummary(day time.Time, events []models.Event) string {
	lines := []string{
		fmt.Sprintf("📅 Ekonomik Takvim — %s (%s)", day.Format("2006-01-02 Monday"), f.zoneLabel),
		"Önem: " + f.levels(" ve "),
		"",
	}

	if len(events) == 0 {
		lines = append(lines, fmt.Sprintf("Bugün önemli (%s) olay bulunamadı.", f.levels("/")))
		return strings.Join(lines, "\n")
	}

	for _, e := range events {
		line := fmt.Sprintf("%s — %s — %s (%s)", e.Clock, countryLabel(e.Country), e.Name, Stars(e.Importance))
		if !models.IsPlaceholder(e.Forecast) {
			line += " | Bekl: " + e.Forecast
		}
		if !models.IsPlaceholder(e.Previous) {
			line += " | Önceki: " + e.Previous
		}
		lines = append(lines, line, "")
	}
	return strings.TrimRight(strings.Join(lines, "\n"), " \n")
}

// FormatAlert renders one upcoming event
func (f *Formatter) FormatAlert(e models.Event) string {
	clock := e.Clock
	if e.HasTime() {
		clock = e.Time.Format("15:04")
	}

	lines := []string{
		fmt.Sprintf("⏰ Yaklaşan Etkinlik (%d dk sonra)", int(f.alertLead.Minutes())),
		fmt.Sprintf("Saat: %s (%s)", clock, f.zoneLabel),
		"Ülke: " + countryLabel(e.Country),
		fmt.Sprintf("Olay: %s  %s", e.Name, Stars(e.Importance)),
	}
	if !models.IsPlaceholder(e.Forecast) {
		lines = append(lines, "Beklenti: "+e.Forecast)
	}
	if !models.IsPlaceholder(e.Previous) {
		lines = append(lines, "Önceki: "+e.Previous)
	}
	return strings.Join(lines, "\n")
}

// levels renders the importance filter, e.g. "2★ ve 3★"
func (f *Formatter) levels(sep string) string {
	parts := make([]string, 0, len(f.importance))
	for _, lvl := range f.importance {
		parts = append(parts, fmt.Sprintf("%d★", lvl))
	}
	return strings.Join(parts, sep)
}

func countryLabel(country string) string {
	return strings.TrimSpace(FlagFor(country) + " " + country)
}
