package assistant

import (
	"encoding/json"
	"fmt"
	"time"

	"calassist/models"
)

// BuildSystemPrompt synthesizes the leading system turn for one exchange:
// today's date for relative-date resolution, the default-year policy, and a
// snapshot of current events for context-aware answers.
func BuildSystemPrompt(now time.Time, defaultYear int, events []models.Event) string {
	snapshot, err := json.Marshal(events)
	if err != nil {
		snapshot = []byte("[]")
	}

	return fmt.Sprintf(`You are a helpful calendar assistant. Today is %s.
When creating events, use ISO 8601 strings for dates. If the user doesn't specify a year, assume it's %d.
Current events: %s`, formatLongDate(now), defaultYear, snapshot)
}

func formatLongDate(t time.Time) string {
	return fmt.Sprintf("%s, %s %s, %d", t.Weekday(), t.Month(), ordinal(t.Day()), t.Year())
}

func ordinal(day int) string {
	suffix := "th"
	switch {
	case day%100 >= 11 && day%100 <= 13:
	case day%10 == 1:
		suffix = "st"
	case day%10 == 2:
		suffix = "nd"
	case day%10 == 3:
		suffix = "rd"
	}
	return fmt.Sprintf("%d%s", day, suffix)
}
