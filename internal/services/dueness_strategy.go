// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for recurring transaction
// scheduling. Each frequency has its own strategy that computes the next
// occurrence of a template after its watermark.

package services

import (
	"fmt"

	"conti/internal/core"
)

// DuenessChecker is the strategy interface for recurring schedules.
type DuenessChecker interface {
	// Next returns the first occurrence of r strictly after `after`. A zero
	// `after` (nothing generated yet) asks for the first occurrence on or
	// after the template's start date.
	Next(r core.RecurringTransaction, after core.Date) core.Date
}

// anchor normalizes the watermark: a template that never ran, or whose start
// date was moved past its watermark, restarts from the start date.
func anchor(r core.RecurringTransaction, after core.Date) (ref core.Date, inclusive bool) {
	if after.IsZero() || after.Before(r.StartDate) {
		return r.StartDate, true
	}
	return after, false
}

// DailyChecker schedules one occurrence per day.
type DailyChecker struct{}

func (DailyChecker) Next(r core.RecurringTransaction, after core.Date) core.Date {
	ref, inclusive := anchor(r, after)
	if inclusive {
		return ref
	}
	return ref.AddDays(1)
}

// WeeklyChecker schedules every seven days from the start date.
type WeeklyChecker struct{}

func (WeeklyChecker) Next(r core.RecurringTransaction, after core.Date) core.Date {
	ref, inclusive := anchor(r, after)
	if inclusive {
		return ref
	}
	return ref.AddDays(7)
}

// MonthlyChecker schedules on DayOfMonth, or the start date's day when unset.
// Days past the end of a short month fall on its last day.
type MonthlyChecker struct{}

func (MonthlyChecker) Next(r core.RecurringTransaction, after core.Date) core.Date {
	day := r.StartDate.Day()
	if r.DayOfMonth != nil {
		day = *r.DayOfMonth
	}
	ref, inclusive := anchor(r, after)
	for i := 0; ; i++ {
		first := core.NewDate(ref.Year(), ref.Month()+i, 1)
		candidate := clampedDate(first.Year(), first.Month(), day)
		if candidate.After(ref) || (inclusive && !candidate.Before(ref)) {
			return candidate
		}
	}
}

// YearlyChecker schedules on the start date's anniversary. A 29 February
// start falls on 28 February in common years.
type YearlyChecker struct{}

func (YearlyChecker) Next(r core.RecurringTransaction, after core.Date) core.Date {
	month, day := r.StartDate.Month(), r.StartDate.Day()
	ref, inclusive := anchor(r, after)
	for year := ref.Year(); ; year++ {
		candidate := clampedDate(year, month, day)
		if candidate.After(ref) || (inclusive && !candidate.Before(ref)) {
			return candidate
		}
	}
}

func clampedDate(year, month, day int) core.Date {
	if last := core.DaysInMonth(year, month); day > last {
		day = last
	}
	return core.NewDate(year, month, day)
}

// duenessStrategies maps frequencies to their checkers.
var duenessStrategies = map[core.Frequency]DuenessChecker{
	core.Daily:      DailyChecker{},
	core.Weekly:     WeeklyChecker{},
	core.EveryMonth: MonthlyChecker{},
	core.EveryYear:  YearlyChecker{},
}

// GetDuenessChecker returns the checker for a frequency.
func GetDuenessChecker(frequency core.Frequency) (DuenessChecker, error) {
	checker, ok := duenessStrategies[frequency]
	if !ok {
		return nil, fmt.Errorf("unknown frequency: %s", frequency)
	}
	return checker, nil
}

// DueDates lists the occurrences of r after its watermark up to and including
// today, within [StartDate, EndDate], capped at limit.
func DueDates(r core.RecurringTransaction, today core.Date, limit int) ([]core.Date, error) {
	checker, err := GetDuenessChecker(r.Frequency)
	if err != nil {
		return nil, err
	}
	var due []core.Date
	for next := checker.Next(r, r.LastGenerated); !next.After(today) && len(due) < limit; next = checker.Next(r, next) {
		if !r.ActiveOn(next) {
			break
		}
		due = append(due, next)
	}
	return due, nil
}
