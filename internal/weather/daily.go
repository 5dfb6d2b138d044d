package weather

import (
	"sort"
	"time"
)

// MaxForecastDays caps the daily forecast.
const MaxForecastDays = 5

// DailyForecast picks one entry per local calendar day from an interval series.
// The current local day (and anything before it) is excluded, the entry closest
// to local noon wins each day, and at most days entries are returned.
func DailyForecast(series ForecastSeries, now time.Time, days int) []ForecastEntry {
	if days <= 0 || days > MaxForecastDays {
		days = MaxForecastDays
	}

	loc := time.FixedZone("", series.UTCOffset)
	today := now.In(loc).Format(time.DateOnly)

	type pick struct {
		entry ForecastEntry
		dist  int
	}

	byDay := make(map[string]pick)
	for _, e := range series.Entries {
		local := e.Time.In(loc)
		k := local.Format(time.DateOnly)
		if k <= today {
			continue
		}

		dist := local.Hour()*60 + local.Minute() - 12*60
		if dist < 0 {
			dist = -dist
		}

		// Ties keep the earlier entry.
		if cur, ok := byDay[k]; ok && cur.dist <= dist {
			continue
		}
		byDay[k] = pick{entry: e, dist: dist}
	}

	keys := make([]string, 0, len(byDay))
	for k := range byDay {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if len(keys) > days {
		keys = keys[:days]
	}

	out := make([]ForecastEntry, 0, len(keys))
	for _, k := range keys {
		out = append(out, byDay[k].entry)
	}
	return out
}
