package models

import "time"

// UsageCounter counts generation calls for one user in one calendar month.
type UsageCounter struct {
	UserID           string    `json:"userId"`
	PeriodStart      time.Time `json:"periodStart"`
	PeriodEnd        time.Time `json:"periodEnd"`
	GenerationsCount int       `json:"generationsCount"`
}

// MonthPeriod returns the first and last day (UTC midnight) of the month containing t.
func MonthPeriod(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return start, end
}
