package services

import (
	"testing"

	"conti/internal/core"
)

func newTemplate(freq core.Frequency, start core.Date) core.RecurringTransaction {
	return core.RecurringTransaction{
		Owner: "alice", AccountID: 1, CategoryID: 1, Type: core.Expense,
		Amount: core.MustParseMoney("10"), Description: "Rent", Frequency: freq,
		StartDate: start, IsActive: true,
	}
}

func TestDailyChecker_Next(t *testing.T) {
	r := newTemplate(core.Daily, core.NewDate(2024, 1, 1))

	tests := []struct {
		name  string
		after core.Date
		want  core.Date
	}{
		{name: "never generated - start date", after: core.Date{}, want: core.NewDate(2024, 1, 1)},
		{name: "generated yesterday - today", after: core.NewDate(2024, 1, 14), want: core.NewDate(2024, 1, 15)},
		{name: "month boundary", after: core.NewDate(2024, 1, 31), want: core.NewDate(2024, 2, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DailyChecker{}.Next(r, tt.after)
			if got.String() != tt.want.String() {
				t.Errorf("DailyChecker.Next() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWeeklyChecker_Next(t *testing.T) {
	r := newTemplate(core.Weekly, core.NewDate(2024, 1, 1))

	tests := []struct {
		name  string
		after core.Date
		want  core.Date
	}{
		{name: "never generated - start date", after: core.Date{}, want: core.NewDate(2024, 1, 1)},
		{name: "one week later", after: core.NewDate(2024, 1, 1), want: core.NewDate(2024, 1, 8)},
		{name: "watermark before start restarts", after: core.NewDate(2023, 12, 1), want: core.NewDate(2024, 1, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeeklyChecker{}.Next(r, tt.after)
			if got.String() != tt.want.String() {
				t.Errorf("WeeklyChecker.Next() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMonthlyChecker_Next(t *testing.T) {
	day := func(d int) *int { return &d }

	tests := []struct {
		name       string
		start      core.Date
		dayOfMonth *int
		after      core.Date
		want       core.Date
	}{
		{
			name:  "never generated - start date",
			start: core.NewDate(2024, 1, 15),
			want:  core.NewDate(2024, 1, 15),
		},
		{
			name:  "falls back to start day",
			start: core.NewDate(2024, 1, 15),
			after: core.NewDate(2024, 1, 15),
			want:  core.NewDate(2024, 2, 15),
		},
		{
			name:       "day of month after start day",
			start:      core.NewDate(2024, 1, 10),
			dayOfMonth: day(20),
			want:       core.NewDate(2024, 1, 20),
		},
		{
			name:       "day of month before start day moves to next month",
			start:      core.NewDate(2024, 1, 10),
			dayOfMonth: day(5),
			want:       core.NewDate(2024, 2, 5),
		},
		{
			name:       "31st clamps to leap february",
			start:      core.NewDate(2024, 1, 1),
			dayOfMonth: day(31),
			after:      core.NewDate(2024, 1, 31),
			want:       core.NewDate(2024, 2, 29),
		},
		{
			name:       "clamping does not drift",
			start:      core.NewDate(2024, 1, 1),
			dayOfMonth: day(31),
			after:      core.NewDate(2024, 2, 29),
			want:       core.NewDate(2024, 3, 31),
		},
		{
			name:  "year boundary",
			start: core.NewDate(2024, 1, 15),
			after: core.NewDate(2024, 12, 15),
			want:  core.NewDate(2025, 1, 15),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTemplate(core.EveryMonth, tt.start)
			r.DayOfMonth = tt.dayOfMonth
			got := MonthlyChecker{}.Next(r, tt.after)
			if got.String() != tt.want.String() {
				t.Errorf("MonthlyChecker.Next() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestYearlyChecker_Next(t *testing.T) {
	tests := []struct {
		name  string
		start core.Date
		after core.Date
		want  core.Date
	}{
		{name: "never generated", start: core.NewDate(2024, 3, 15), want: core.NewDate(2024, 3, 15)},
		{name: "next anniversary", start: core.NewDate(2024, 3, 15), after: core.NewDate(2024, 3, 15), want: core.NewDate(2025, 3, 15)},
		{name: "leap day in common year", start: core.NewDate(2024, 2, 29), after: core.NewDate(2024, 2, 29), want: core.NewDate(2025, 2, 28)},
		{name: "leap day returns in leap year", start: core.NewDate(2024, 2, 29), after: core.NewDate(2027, 2, 28), want: core.NewDate(2028, 2, 29)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := YearlyChecker{}.Next(newTemplate(core.EveryYear, tt.start), tt.after)
			if got.String() != tt.want.String() {
				t.Errorf("YearlyChecker.Next() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGetDuenessChecker(t *testing.T) {
	for _, f := range []core.Frequency{core.Daily, core.Weekly, core.EveryMonth, core.EveryYear} {
		if _, err := GetDuenessChecker(f); err != nil {
			t.Errorf("GetDuenessChecker(%s) error = %v", f, err)
		}
	}
	if _, err := GetDuenessChecker("hourly"); err == nil {
		t.Error("GetDuenessChecker(hourly) should fail")
	}
}

func TestDueDates(t *testing.T) {
	tests := []struct {
		name     string
		template func() core.RecurringTransaction
		today    core.Date
		limit    int
		want     []string
	}{
		{
			name: "catches up missed months",
			template: func() core.RecurringTransaction {
				return newTemplate(core.EveryMonth, core.NewDate(2024, 1, 5))
			},
			today: core.NewDate(2024, 3, 10),
			limit: 10,
			want:  []string{"2024-01-05", "2024-02-05", "2024-03-05"},
		},
		{
			name: "nothing due after watermark",
			template: func() core.RecurringTransaction {
				r := newTemplate(core.EveryMonth, core.NewDate(2024, 1, 5))
				r.LastGenerated = core.NewDate(2024, 3, 5)
				return r
			},
			today: core.NewDate(2024, 3, 31),
			limit: 10,
		},
		{
			name: "stops at end date",
			template: func() core.RecurringTransaction {
				r := newTemplate(core.Daily, core.NewDate(2024, 1, 1))
				r.EndDate = core.NewDate(2024, 1, 3)
				return r
			},
			today: core.NewDate(2024, 1, 10),
			limit: 10,
			want:  []string{"2024-01-01", "2024-01-02", "2024-01-03"},
		},
		{
			name: "not started yet",
			template: func() core.RecurringTransaction {
				return newTemplate(core.Weekly, core.NewDate(2024, 6, 1))
			},
			today: core.NewDate(2024, 5, 1),
			limit: 10,
		},
		{
			name: "respects limit",
			template: func() core.RecurringTransaction {
				return newTemplate(core.Daily, core.NewDate(2024, 1, 1))
			},
			today: core.NewDate(2024, 12, 31),
			limit: 2,
			want:  []string{"2024-01-01", "2024-01-02"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DueDates(tt.template(), tt.today, tt.limit)
			if err != nil {
				t.Fatalf("DueDates() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("DueDates() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i].String() != tt.want[i] {
					t.Errorf("DueDates()[%d] = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}
