// Package analytics derives the aggregate views of the admin dashboard
// (commissions, rankings, low-stock urgency, trends) from order and product
// snapshots.
//
// Every function in this package except those on Service is pure: it never
// mutates its input, performs no I/O and reads no clock. Time-dependent views
// take an explicit now, and now.Location() defines calendar boundaries.
// Absent, NaN or infinite amounts count as zero, and records missing the
// relation a view groups by are left out of that view.
package analytics

import (
	"math"
	"time"
)

const (
	// DefaultCommissionRate is the platform's cut of an order total.
	DefaultCommissionRate = 0.10
	// DefaultSellerShare is the part of an order total credited to the seller.
	// It is a separate business rule, not derived from DefaultCommissionRate.
	DefaultSellerShare = 0.9
	// DefaultTopN is the size of every top-N ranking on the dashboard.
	DefaultTopN = 5
	// DefaultTopProducts is the size of the top products ranking.
	DefaultTopProducts = 10
)

// finite maps NaN and ±Inf to zero.
func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// startOfDay returns midnight of t's calendar day in loc.
func startOfDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// sameDay reports whether a and b fall on the same calendar day in loc.
func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

// inRange reports whether t is in [from, to).
func inRange(t, from, to time.Time) bool {
	return !t.Before(from) && t.Before(to)
}

func limitOr(limit, def int) int {
	if limit <= 0 {
		return def
	}
	return limit
}

func truncate[T any](s []T, n int) []T {
	if len(s) > n {
		return s[:n]
	}
	return s
}
