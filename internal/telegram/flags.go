package telegram

import "strings"

// countryFlags maps the source's country names (lowercased) to flag emoji
var countryFlags = map[string]string{
	"united states": "🇺🇸", "usa": "🇺🇸", "u.s.": "🇺🇸", "us": "🇺🇸",
	"euro area": "🇪🇺", "eurozone": "🇪🇺", "european union": "🇪🇺",
	"united kingdom": "🇬🇧", "uk": "🇬🇧", "britain": "🇬🇧",
	"germany": "🇩🇪", "france": "🇫🇷", "italy": "🇮🇹", "spain": "🇪🇸",
	"canada": "🇨🇦", "australia": "🇦🇺", "new zealand": "🇳🇿",
	"japan": "🇯🇵", "china": "🇨🇳", "switzerland": "🇨🇭",
	"turkey": "🇹🇷", "türkiye": "🇹🇷",
	"russia": "🇷🇺", "india": "🇮🇳", "brazil": "🇧🇷", "mexico": "🇲🇽",
	"south africa": "🇿🇦", "norway": "🇳🇴", "sweden": "🇸🇪", "denmark": "🇩🇰",
	"poland": "🇵🇱", "hungary": "🇭🇺", "czech republic": "🇨🇿",
	"portugal": "🇵🇹", "ireland": "🇮🇪", "netherlands": "🇳🇱", "belgium": "🇧🇪",
	"austria": "🇦🇹", "greece": "🇬🇷", "finland": "🇫🇮", "iceland": "🇮🇸",
	"south korea": "🇰🇷", "korea": "🇰🇷", "hong kong": "🇭🇰", "singapore": "🇸🇬",
	"taiwan": "🇹🇼", "indonesia": "🇮🇩", "malaysia": "🇲🇾", "thailand": "🇹🇭",
	"philippines": "🇵🇭", "israel": "🇮🇱",
	"saudi arabia": "🇸🇦", "united arab emirates": "🇦🇪", "uae": "🇦🇪",
	"argentina": "🇦🇷", "chile": "🇨🇱", "colombia": "🇨🇴", "peru": "🇵🇪",
	"romania": "🇷🇴", "bulgaria": "🇧🇬", "slovakia": "🇸🇰", "slovenia": "🇸🇮",
	"croatia": "🇭🇷",
}

// FlagFor returns the flag emoji for a country name, or "" when unknown
func FlagFor(country string) string {
	return countryFlags[strings.ToLower(strings.TrimSpace(country))]
}
