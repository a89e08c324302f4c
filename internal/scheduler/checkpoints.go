package scheduler

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Checkpoints is the fixed daily refresh schedule: a set of whole hours in a
// fixed-offset zone. The next boundary after 18:00 wraps to the first hour of
// the following day.
type Checkpoints struct {
	hours []int
	zone  *time.Location
}

// NewCheckpoints builds a schedule from hours-of-day in a UTC-offset zone.
func NewCheckpoints(hours []int, zoneOffsetHours int) *Checkpoints {
	sorted := append([]int(nil), hours...)
	sort.Ints(sorted)
	name := fmt.Sprintf("UTC%+d", zoneOffsetHours)
	return &Checkpoints{
		hours: sorted,
		zone:  time.FixedZone(name, zoneOffsetHours*3600),
	}
}

// Next returns the first checkpoint strictly after t, in UTC.
func (c *Checkpoints) Next(t time.Time) time.Time {
	local := t.In(c.zone)
	for _, h := range c.hours {
		cand := time.Date(local.Year(), local.Month(), local.Day(), h, 0, 0, 0, c.zone)
		if cand.After(local) {
			return cand.UTC()
		}
	}
	cand := time.Date(local.Year(), local.Month(), local.Day()+1, c.hours[0], 0, 0, 0, c.zone)
	return cand.UTC()
}

// CronSpec renders the schedule as a standard 5-field cron expression.
func (c *Checkpoints) CronSpec() string {
	parts := make([]string, len(c.hours))
	for i, h := range c.hours {
		parts[i] = strconv.Itoa(h)
	}
	return fmt.Sprintf("0 %s * * *", strings.Join(parts, ","))
}

// Location returns the schedule's fixed zone.
func (c *Checkpoints) Location() *time.Location {
	return c.zone
}
