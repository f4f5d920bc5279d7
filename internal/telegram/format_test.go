package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/rewired-gh/calendarbot/internal/models"
)

func testFormatter() *Formatter {
	return NewFormatter("TR", []int{3, 2}, 30*time.Minute)
}

func TestStars(t *testing.T) {
	tests := []struct {
		importance int
		expected   string
	}{
		{3, "★★★"},
		{2, "★★"},
		{1, "★"},
		{0, "★★"},
	}

	for _, tt := range tests {
		result := Stars(tt.importance)
		if result != tt.expected {
			t.Errorf("Stars(%d) = %s, expected %s", tt.importance, result, tt.expected)
		}
	}
}

func TestFlagFor(t *testing.T) {
	tests := []struct {
		country  string
		expected string
	}{
		{"United States", "🇺🇸"},
		{"  euro AREA ", "🇪🇺"},
		{"Türkiye", "🇹🇷"},
		{"Atlantis", ""},
		{"", ""},
	}

	for _, tt := range tests {
		result := FlagFor(tt.country)
		if result != tt.expected {
			t.Errorf("FlagFor(%q) = %q, expected %q", tt.country, result, tt.expected)
		}
	}
}

func TestFormatSummaryEmpty(t *testing.T) {
	day := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)

	result := testFormatter().FormatSummary(day, nil)

	expected := "📅 Ekonomik Takvim — 2026-10-18 Sunday (TR)\n" +
		"Önem: 2★ ve 3★\n" +
		"\n" +
		"Bugün önemli (2★/3★) olay bulunamadı."
	if result != expected {
		t.Errorf("FormatSummary() = %q, expected %q", result, expected)
	}
}

func TestFormatSummary(t *testing.T) {
	day := time.Date(2026, 10, 18, 10, 0, 0, 0, time.UTC)
	events := []models.Event{
		{
			RowID: "1", Clock: "15:30", Country: "United States", Name: "Nonfarm Payrolls (Sep)",
			Importance: 3, Actual: "-", Forecast: "150K", Previous: "142K",
		},
		{
			RowID: "2", Clock: "17:00", Country: "Atlantis", Name: "Tide Index",
			Importance: 2, Actual: "-", Forecast: "-", Previous: "-",
		},
		{
			RowID: "3", Clock: "Tentative", Country: "Japan", Name: "BoJ Statement",
			Importance: 2, Actual: "-", Forecast: "-", Previous: "0.50%",
		},
	}

	result := testFormatter().FormatSummary(day, events)

	expected := strings.Join([]string{
		"📅 Ekonomik Takvim — 2026-10-18 Sunday (TR)",
		"Önem: 2★ ve 3★",
		"",
		"15:30 — 🇺🇸 United States — Nonfarm Payrolls (Sep) (★★★) | Bekl: 150K | Önceki: 142K",
		"",
		"17:00 — Atlantis — Tide Index (★★)",
		"",
		"Tentative — 🇯🇵 Japan — BoJ Statement (★★) | Önceki: 0.50%",
	}, "\n")
	if result != expected {
		t.Errorf("FormatSummary() =\n%s\nexpected\n%s", result, expected)
	}
}

func TestFormatSummarySingleLevel(t *testing.T) {
	f := NewFormatter("UTC", []int{3}, 30*time.Minute)
	result := f.FormatSummary(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC), nil)

	if !strings.Contains(result, "Önem: 3★\n") {
		t.Errorf("expected single-level header, got %q", result)
	}
	if !strings.HasSuffix(result, "Bugün önemli (3★) olay bulunamadı.") {
		t.Errorf("unexpected empty line in %q", result)
	}
}

func TestFormatAlert(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Istanbul")
	if err != nil {
		t.Fatal(err)
	}
	event := models.Event{
		RowID:      "1",
		Time:       time.Date(2026, 10, 18, 12, 30, 0, 0, time.UTC).In(loc),
		Date:       "2026-10-18",
		Clock:      "15:30",
		Country:    "United States",
		Name:       "Nonfarm Payrolls (Sep)",
		Importance: 3,
		Actual:     "-",
		Forecast:   "150K",
		Previous:   "142K",
	}

	result := testFormatter().FormatAlert(event)

	expected := strings.Join([]string{
		"⏰ Yaklaşan Etkinlik (30 dk sonra)",
		"Saat: 15:30 (TR)",
		"Ülke: 🇺🇸 United States",
		"Olay: Nonfarm Payrolls (Sep)  ★★★",
		"Beklenti: 150K",
		"Önceki: 142K",
	}, "\n")
	if result != expected {
		t.Errorf("FormatAlert() =\n%s\nexpected\n%s", result, expected)
	}
}

func TestFormatAlertWithoutFigures(t *testing.T) {
	event := models.Event{
		RowID: "2", Clock: "11:00", Country: "Atlantis", Name: "Tide Index",
		Importance: 2, Forecast: "-", Previous: "",
	}

	result := testFormatter().FormatAlert(event)

	expected := strings.Join([]string{
		"⏰ Yaklaşan Etkinlik (30 dk sonra)",
		"Saat: 11:00 (TR)",
		"Ülke: Atlantis",
		"Olay: Tide Index  ★★",
	}, "\n")
	if result != expected {
		t.Errorf("FormatAlert() =\n%s\nexpected\n%s", result, expected)
	}
}
