package analysis

import (
	"time"
	_ "time/tzdata" // embed the IANA database; hosts may lack zoneinfo

	"github.com/reddintoit/redd-into-it/models"
)

// LookupTimezone validates an IANA timezone identifier and returns its
// location. The match is exact and case-sensitive; "Local" and the empty
// string are not valid identifiers.
func LookupTimezone(timezoneID string) (*time.Location, bool) {
	if timezoneID == "" || timezoneID == "Local" {
		return nil, false
	}

	loc, err := time.LoadLocation(timezoneID)
	if err != nil {
		return nil, false
	}

	return loc, true
}

// LocalHour returns the hour of day (0-23) that a UTC instant falls in
// under loc's civil calendar, respecting the offset in effect at that
// instant (including DST transitions).
func LocalHour(epochSeconds int64, loc *time.Location) int {
	return time.Unix(epochSeconds, 0).In(loc).Hour()
}

// BuildHistogram counts posts per local hour of day. Accumulation is
// commutative, so the result does not depend on post order.
func BuildHistogram(posts []models.Post, loc *time.Location) [24]int {
	var histogram [24]int

	for _, post := range posts {
		hour := LocalHour(int64(post.CreatedUTC), loc)
		histogram[hour]++
	}

	return histogram
}

// OptimalHours scans the histogram and returns every hour tied at the
// maximum count, in ascending hour order, along with that count.
func OptimalHours(histogram [24]int) ([]int, int) {
	maxCount := 0
	for _, count := range histogram {
		if count > maxCount {
			maxCount = count
		}
	}

	hours := make([]int, 0, 1)
	for hour, count := range histogram {
		if count == maxCount {
			hours = append(hours, hour)
		}
	}

	return hours, maxCount
}
