package orders

import (
	"fmt"
	"time"
)

const gtdCutoffHour, gtdCutoffMinute = 15, 44

// gtdStampLayout is zone-naive: the upload consumer interprets the stamp in
// exchange time and rejects offsets.
const gtdStampLayout = "2006-01-02T15:04:05"

// GoodTillTimestamp returns the expiry for GTD orders: today at 15:44
// exchange time, rolled to the next day when the cutoff has already passed.
func GoodTillTimestamp(now time.Time, zone string) (string, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return "", fmt.Errorf("load exchange zone %q: %w", zone, err)
	}
	local := now.In(loc)
	cutoff := time.Date(local.Year(), local.Month(), local.Day(), gtdCutoffHour, gtdCutoffMinute, 0, 0, loc)
	if !local.Before(cutoff) {
		cutoff = cutoff.AddDate(0, 0, 1)
	}
	return cutoff.Format(gtdStampLayout), nil
}
