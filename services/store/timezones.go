package store

import (
	"fmt"
	"sort"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// recognizedTimezones is the curated set the assistant advertises to users.
// With strict validation only these identifiers are accepted; otherwise any
// zone the local tzdata can load is allowed.
var recognizedTimezones = []string{
	"UTC",
	"America/New_York",
	"America/Chicago",
	"America/Denver",
	"America/Los_Angeles",
	"America/Anchorage",
	"America/Phoenix",
	"America/Toronto",
	"America/Vancouver",
	"America/Mexico_City",
	"America/Sao_Paulo",
	"America/Argentina/Buenos_Aires",
	"Europe/London",
	"Europe/Dublin",
	"Europe/Paris",
	"Europe/Berlin",
	"Europe/Madrid",
	"Europe/Rome",
	"Europe/Amsterdam",
	"Europe/Stockholm",
	"Europe/Warsaw",
	"Europe/Moscow",
	"Europe/Istanbul",
	"Africa/Cairo",
	"Africa/Johannesburg",
	"Africa/Lagos",
	"Africa/Nairobi",
	"Asia/Dubai",
	"Asia/Karachi",
	"Asia/Kolkata",
	"Asia/Dhaka",
	"Asia/Bangkok",
	"Asia/Singapore",
	"Asia/Hong_Kong",
	"Asia/Shanghai",
	"Asia/Seoul",
	"Asia/Tokyo",
	"Australia/Perth",
	"Australia/Sydney",
	"Australia/Melbourne",
	"Pacific/Auckland",
	"Pacific/Honolulu",
}

// NormalizeTimezone validates a timezone identifier and returns its
// canonical form. Unknown identifiers produce an error listing the closest
// recognized zones.
func NormalizeTimezone(id string, strict bool) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("timezone identifier is empty")
	}

	for _, zone := range recognizedTimezones {
		if strings.EqualFold(zone, id) {
			return zone, nil
		}
	}

	if !strict {
		if loc, err := time.LoadLocation(id); err == nil {
			return loc.String(), nil
		}
	}

	if suggestions := SuggestTimezones(id, 3); len(suggestions) > 0 {
		return "", fmt.Errorf("unrecognized timezone %q, did you mean %s?", id, strings.Join(suggestions, ", "))
	}
	return "", fmt.Errorf("unrecognized timezone %q", id)
}

// SuggestTimezones ranks the recognized zones by fuzzy similarity to the
// given identifier and returns up to limit of the best matches.
func SuggestTimezones(id string, limit int) []string {
	ranks := fuzzy.RankFindNormalizedFold(id, recognizedTimezones)
	sort.Sort(ranks)

	var suggestions []string
	for _, rank := range ranks {
		suggestions = append(suggestions, rank.Target)
		if len(suggestions) >= limit {
			break
		}
	}
	return suggestions
}
