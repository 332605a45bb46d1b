package kpi

import (
	"encoding/json"
	"fmt"
)

type Bucket int

const (
	BucketNegative Bucket = iota
	Bucket0To12
	Bucket12To24
	Bucket24To48
	Bucket48To72
	BucketOver72
	bucketCount
)

type bucketInfo struct {
	key   string
	title string
	upper float64
}

// верхние границы не включаются; последняя корзина открыта
var buckets = [bucketCount]bucketInfo{
	BucketNegative: {key: "lessThanZero", title: "Less than 0 hours (Negative)", upper: 0},
	Bucket0To12:    {key: "zeroTo12", title: "0-12 hours", upper: 12},
	Bucket12To24:   {key: "between12And24", title: "12-24 hours", upper: 24},
	Bucket24To48:   {key: "between24And48", title: "24-48 hours", upper: 48},
	Bucket48To72:   {key: "between48And72", title: "48-72 hours", upper: 72},
	BucketOver72:   {key: "moreThan72", title: "More than 72 hours"},
}

// Buckets lists all buckets in order.
func Buckets() []Bucket {
	out := make([]Bucket, bucketCount)
	for i := range out {
		out[i] = Bucket(i)
	}
	return out
}

// Classify places any delta into exactly one bucket.
func Classify(hours float64) Bucket {
	for b := BucketNegative; b < BucketOver72; b++ {
		if hours < buckets[b].upper {
			return b
		}
	}
	return BucketOver72
}

func (b Bucket) String() string {
	if b < 0 || b >= bucketCount {
		return fmt.Sprintf("Bucket(%d)", int(b))
	}
	return buckets[b].key
}

func (b Bucket) Title() string {
	if b < 0 || b >= bucketCount {
		return b.String()
	}
	return buckets[b].title
}

func (b Bucket) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.String())
}

func ParseBucket(key string) (Bucket, error) {
	for b := BucketNegative; b < bucketCount; b++ {
		if buckets[b].key == key {
			return b, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBucket, key)
}

type BucketCount struct {
	Bucket Bucket `json:"bucket"`
	Title  string `json:"title"`
	Count  int    `json:"count"`
}

// BucketCounts returns one entry per bucket, zero counts included.
func BucketCounts(rows []MetricRow) []BucketCount {
	var counts [bucketCount]int
	for _, r := range rows {
		counts[r.Bucket]++
	}
	out := make([]BucketCount, 0, bucketCount)
	for _, b := range Buckets() {
		out = append(out, BucketCount{Bucket: b, Title: b.Title(), Count: counts[b]})
	}
	return out
}

// InBucket filters rows of one bucket, preserving order.
func InBucket(rows []MetricRow, b Bucket) []MetricRow {
	out := make([]MetricRow, 0)
	for _, r := range rows {
		if r.Bucket == b {
			out = append(out, r)
		}
	}
	return out
}
