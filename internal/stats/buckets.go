package stats

import (
	"fmt"
	"strconv"
	"time"

	"pocket/internal/core"
)

// Bucket is one fixed time slot of a series. Key identifies the slot
// (calendar date, year-month or year); Label is the short chart label.
type Bucket struct {
	Key     string     `json:"key"`
	Label   string     `json:"label"`
	Income  core.Money `json:"income"`
	Expense core.Money `json:"expense"`
}

// makeBuckets builds the zero-filled bucket sequence for a granularity
// and returns it together with the start of the first bucket. Buckets
// exist before any data is read, so empty slots still chart as zero.
func makeBuckets(g core.Granularity, now time.Time) ([]Bucket, time.Time) {
	now = now.UTC()
	switch g {
	case core.Weekly:
		return weekBuckets(now)
	case core.Monthly:
		return monthBuckets(now)
	default:
		return yearBuckets(now)
	}
}

// weekBuckets covers Monday through Sunday of the current week.
func weekBuckets(now time.Time) ([]Bucket, time.Time) {
	monday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	monday = monday.AddDate(0, 0, -((int(now.Weekday()) + 6) % 7))

	buckets := make([]Bucket, 7)
	for i := range buckets {
		day := monday.AddDate(0, 0, i)
		buckets[i] = Bucket{
			Key:   day.Format("2006-01-02"),
			Label: day.Weekday().String()[:3],
		}
	}
	return buckets, monday
}

// monthBuckets covers the 12 calendar months of the current year.
func monthBuckets(now time.Time) ([]Bucket, time.Time) {
	start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)

	buckets := make([]Bucket, 12)
	for i := range buckets {
		m := time.Month(i + 1)
		buckets[i] = Bucket{
			Key:   fmt.Sprintf("%04d-%02d", now.Year(), i+1),
			Label: m.String()[:3],
		}
	}
	return buckets, start
}

// yearBuckets covers a five-year window centered on the current year.
func yearBuckets(now time.Time) ([]Bucket, time.Time) {
	first := now.Year() - 2
	start := time.Date(first, time.January, 1, 0, 0, 0, 0, time.UTC)

	buckets := make([]Bucket, 5)
	for i := range buckets {
		y := strconv.Itoa(first + i)
		buckets[i] = Bucket{Key: y, Label: y}
	}
	return buckets, start
}

// bucketKey truncates a transaction date to the granularity's key.
func bucketKey(g core.Granularity, t time.Time) string {
	t = t.UTC()
	switch g {
	case core.Weekly:
		return t.Format("2006-01-02")
	case core.Monthly:
		return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
	default:
		return strconv.Itoa(t.Year())
	}
}
