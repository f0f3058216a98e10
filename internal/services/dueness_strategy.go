// Package services provides business logic and orchestration services.
//
// This file implements the Strategy Pattern for deciding whether a recurring
// template is due on a given day. Strategies are looked up by name so the
// rule can be chosen from configuration.

package services

import (
	"fmt"
	"slices"

	"cashbook/internal/core"
)

// Strategy names accepted by GetDuenessChecker.
const (
	StrategyExact = "exact"
	StrategyClamp = "clamp"
)

// DuenessChecker is the strategy interface for checking if a template is due.
type DuenessChecker interface {
	// IsDue reports whether template should be materialized on day.
	IsDue(template core.Transaction, day core.Date) bool
}

// ExactDayChecker fires only when the day of month equals the template's
// recurring day. A template for the 31st never fires in a 30-day month.
type ExactDayChecker struct{}

func (ExactDayChecker) IsDue(template core.Transaction, day core.Date) bool {
	return template.RecurringDay == day.Day()
}

// ClampedDayChecker behaves like ExactDayChecker but moves recurring days
// past the end of the month onto the month's last day.
type ClampedDayChecker struct{}

func (ClampedDayChecker) IsDue(template core.Transaction, day core.Date) bool {
	target := template.RecurringDay
	if last := day.DaysInMonth(); target > last {
		target = last
	}
	return target == day.Day()
}

var duenessStrategies = map[string]DuenessChecker{
	StrategyExact: ExactDayChecker{},
	StrategyClamp: ClampedDayChecker{},
}

// GetDuenessChecker returns the checker registered under name.
// An empty name selects StrategyExact.
func GetDuenessChecker(name string) (DuenessChecker, error) {
	if name == "" {
		name = StrategyExact
	}
	checker, ok := duenessStrategies[name]
	if !ok {
		return nil, fmt.Errorf("unknown recurring strategy: %s", name)
	}
	return checker, nil
}

// RegisterDuenessChecker adds or replaces a named strategy. It is meant to
// be called during program initialization.
func RegisterDuenessChecker(name string, checker DuenessChecker) {
	duenessStrategies[name] = checker
}

// StrategyNames lists the registered strategies in lexical order.
func StrategyNames() []string {
	out := make([]string, 0, len(duenessStrategies))
	for k := range duenessStrategies {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
