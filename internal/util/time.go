package util

import "time"

// YouTube Data API quota resets at midnight Pacific Time.
var pacificLocation *time.Location

func init() {
	var err error
	pacificLocation, err = time.LoadLocation("America/Los_Angeles")
	if err != nil {
		pacificLocation = time.FixedZone("PT", -8*60*60)
	}
}

// NextPacificMidnight returns the first Pacific midnight strictly after t.
func NextPacificMidnight(t time.Time) time.Time {
	pt := t.In(pacificLocation)
	return time.Date(pt.Year(), pt.Month(), pt.Day()+1, 0, 0, 0, 0, pacificLocation)
}
