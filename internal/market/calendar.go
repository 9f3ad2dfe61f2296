package market

import "time"

// ExpectedLastTradingDay returns the most recent weekday strictly before the
// next session would print a bar: for a weekday it is the previous weekday,
// for a weekend it is the preceding Friday. Exchange holidays are not
// modelled; a holiday can only produce a spurious staleness warning, never a
// false "current".
func ExpectedLastTradingDay(now time.Time) time.Time {
	d := now
	for {
		d = d.AddDate(0, 0, -1)
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			break
		}
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}

// IsCurrent reports whether the latest bar date covers the expected last
// trading day relative to now.
func IsCurrent(latestBar, now time.Time) bool {
	expected := ExpectedLastTradingDay(now)
	y1, m1, d1 := latestBar.Date()
	y2, m2, d2 := expected.Date()
	if y1 != y2 {
		return y1 > y2
	}
	if m1 != m2 {
		return m1 > m2
	}
	return d1 >= d2
}

// LastFridayOfMonth finds the last Friday of the month containing date.
func LastFridayOfMonth(date time.Time) time.Time {
	firstOfNext := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location()).AddDate(0, 1, 0)
	d := firstOfNext.AddDate(0, 0, -1)
	for d.Weekday() != time.Friday {
		d = d.AddDate(0, 0, -1)
	}
	return d
}

// LastFridayOfPreviousMonth finds the last Friday of the month before date.
func LastFridayOfPreviousMonth(date time.Time) time.Time {
	lastOfPrev := time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location()).AddDate(0, 0, -1)
	return LastFridayOfMonth(lastOfPrev)
}

// MonthlyDataEndDate returns the rebalance data cutoff used by the rotation
// strategies: the last Friday of the current month once it has passed,
// otherwise the last Friday of the previous month.
func MonthlyDataEndDate(today time.Time) time.Time {
	current := LastFridayOfMonth(today)
	if today.After(current) {
		return current
	}
	return LastFridayOfPreviousMonth(today)
}
