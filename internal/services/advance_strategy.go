// Package services provides business logic and orchestration services.
//
// This file implements the strategy registry used to compute the next due
// date of a recurring template. Each frequency has an Advancer that moves a
// date forward by exactly one period.

package services

import (
	"tesoretto/internal/core"
)

// Advancer moves a due date forward by one period of its frequency.
type Advancer interface {
	Next(current core.Date) core.Date
}

// DayStep advances by a fixed number of days.
type DayStep int

func (s DayStep) Next(current core.Date) core.Date {
	return current.AddDays(int(s))
}

// MonthStep advances by a number of calendar months.
type MonthStep int

func (s MonthStep) Next(current core.Date) core.Date {
	return current.AddMonths(int(s))
}

// AdvancerRegistry maps frequencies to advancers. A registry is never
// modified after construction; With returns an extended copy.
type AdvancerRegistry struct {
	advancers map[core.Frequency]Advancer
	fallback  Advancer
}

// NewAdvancerRegistry returns the registry for the built-in frequencies.
// Unknown frequencies fall back to monthly.
func NewAdvancerRegistry() AdvancerRegistry {
	return AdvancerRegistry{
		advancers: map[core.Frequency]Advancer{
			core.Daily:     DayStep(1),
			core.Weekly:    DayStep(7),
			core.Biweekly:  DayStep(14),
			core.Monthly:   MonthStep(1),
			core.Quarterly: MonthStep(3),
			core.Yearly:    MonthStep(12),
		},
		fallback: MonthStep(1),
	}
}

// With returns a copy of the registry with an extra (or replaced) frequency.
func (r AdvancerRegistry) With(f core.Frequency, a Advancer) AdvancerRegistry {
	out := AdvancerRegistry{
		advancers: make(map[core.Frequency]Advancer, len(r.advancers)+1),
		fallback:  r.fallback,
	}
	for k, v := range r.advancers {
		out.advancers[k] = v
	}
	out.advancers[f] = a
	return out
}

// Lookup returns the advancer for f and whether f was known.
func (r AdvancerRegistry) Lookup(f core.Frequency) (Advancer, bool) {
	if a, ok := r.advancers[f]; ok {
		return a, true
	}
	if r.fallback == nil {
		return MonthStep(1), false
	}
	return r.fallback, false
}

// Advance returns the next due date after current. It always consumes
// exactly one period, however far in the past current is.
func (r AdvancerRegistry) Advance(current core.Date, f core.Frequency) core.Date {
	a, _ := r.Lookup(f)
	return a.Next(current)
}

var defaultAdvancers = NewAdvancerRegistry()

// Advance computes the next due date using the built-in frequencies.
func Advance(current core.Date, f core.Frequency) core.Date {
	return defaultAdvancers.Advance(current, f)
}
