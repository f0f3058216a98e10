package services

import (
	"testing"
	"time"

	"cashbook/internal/core"
)

func TestExactDayChecker_IsDue(t *testing.T) {
	checker := ExactDayChecker{}

	tests := []struct {
		name string
		day  int
		date core.Date
		want bool
	}{
		{
			name: "matching day - is due",
			day:  15,
			date: core.NewDate(2024, time.March, 15),
			want: true,
		},
		{
			name: "other day - not due",
			day:  15,
			date: core.NewDate(2024, time.March, 14),
			want: false,
		},
		{
			name: "day 31 in a 30 day month - never due",
			day:  31,
			date: core.NewDate(2024, time.April, 30),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(core.Transaction{RecurringDay: tt.day}, tt.date)
			if got != tt.want {
				t.Errorf("ExactDayChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClampedDayChecker_IsDue(t *testing.T) {
	checker := ClampedDayChecker{}

	tests := []struct {
		name string
		day  int
		date core.Date
		want bool
	}{
		{
			name: "matching day - is due",
			day:  10,
			date: core.NewDate(2024, time.May, 10),
			want: true,
		},
		{
			name: "day 31 on April 30 - is due",
			day:  31,
			date: core.NewDate(2024, time.April, 30),
			want: true,
		},
		{
			name: "day 30 on leap February 29 - is due",
			day:  30,
			date: core.NewDate(2024, time.February, 29),
			want: true,
		},
		{
			name: "day 29 on February 28 of a common year - is due",
			day:  29,
			date: core.NewDate(2023, time.February, 28),
			want: true,
		},
		{
			name: "day 31 on April 29 - not due",
			day:  31,
			date: core.NewDate(2024, time.April, 29),
			want: false,
		},
		{
			name: "day 31 on March 30 - not due",
			day:  31,
			date: core.NewDate(2024, time.March, 30),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checker.IsDue(core.Transaction{RecurringDay: tt.day}, tt.date)
			if got != tt.want {
				t.Errorf("ClampedDayChecker.IsDue() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetDuenessChecker(t *testing.T) {
	tests := []struct {
		name    string
		want    DuenessChecker
		wantErr bool
	}{
		{"", ExactDayChecker{}, false},
		{StrategyExact, ExactDayChecker{}, false},
		{StrategyClamp, ClampedDayChecker{}, false},
		{"weekly", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetDuenessChecker(tt.name)
			if (err != nil) != tt.wantErr {
				t.Fatalf("GetDuenessChecker() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("GetDuenessChecker() = %T, want %T", got, tt.want)
			}
		})
	}
}

type everyDay struct{}

func (everyDay) IsDue(core.Transaction, core.Date) bool { return true }

func TestRegisterDuenessChecker(t *testing.T) {
	RegisterDuenessChecker("every-day", everyDay{})
	t.Cleanup(func() { delete(duenessStrategies, "every-day") })

	checker, err := GetDuenessChecker("every-day")
	if err != nil {
		t.Fatalf("GetDuenessChecker() error = %v", err)
	}
	if !checker.IsDue(core.Transaction{}, core.NewDate(2024, time.January, 1)) {
		t.Errorf("custom checker not used")
	}
	names := StrategyNames()
	if len(names) != 3 || names[0] != StrategyClamp {
		t.Errorf("StrategyNames() = %v", names)
	}
}
