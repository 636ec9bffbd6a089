package journal

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrUnknownTab is returned by ParseTab for an unrecognised period.
var ErrUnknownTab = errors.New("unknown tab")

// Tab selects the period a view covers: the whole year, one calendar month,
// or one of the non-list modes.
type Tab int

const (
	TabAll Tab = 0
	// 1..12 are the calendar months.
	TabAdd      Tab = 13
	TabPlaybook Tab = 14
)

var monthAbbrev = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthTab returns the tab of calendar month m.
func MonthTab(m time.Month) Tab {
	return Tab(m)
}

// Tabs lists the tabs in display order.
func Tabs() []Tab {
	out := []Tab{TabAll}
	for m := time.January; m <= time.December; m++ {
		out = append(out, MonthTab(m))
	}
	return append(out, TabAdd, TabPlaybook)
}

// ParseTab accepts "all" (or "dashboard", or empty), a month abbreviation or
// full name in any case, a month number 1-12, "add" and "playbook".
func ParseTab(s string) (Tab, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "", "all", "dashboard":
		return TabAll, nil
	case "add":
		return TabAdd, nil
	case "playbook":
		return TabPlaybook, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		if n >= 1 && n <= 12 {
			return Tab(n), nil
		}
		return TabAll, fmt.Errorf("%w: %q", ErrUnknownTab, s)
	}
	for i, abbrev := range monthAbbrev {
		m := time.Month(i + 1)
		if v == strings.ToLower(abbrev) || v == strings.ToLower(m.String()) {
			return MonthTab(m), nil
		}
	}
	return TabAll, fmt.Errorf("%w: %q", ErrUnknownTab, s)
}

// Month returns the calendar month of a month tab.
func (t Tab) Month() (time.Month, bool) {
	if t >= 1 && t <= 12 {
		return time.Month(t), true
	}
	return 0, false
}

// IsList reports whether the tab displays trades. Non-list modes always
// scope to an empty set.
func (t Tab) IsList() bool {
	return t >= TabAll && t <= 12
}

func (t Tab) String() string {
	switch {
	case t == TabAll:
		return "all"
	case t == TabAdd:
		return "add"
	case t == TabPlaybook:
		return "playbook"
	}
	if m, ok := t.Month(); ok {
		return monthAbbrev[m-1]
	}
	return "Tab(" + strconv.Itoa(int(t)) + ")"
}

// Title is the dashboard heading for the tab, empty for non-list tabs.
func (t Tab) Title(year int) string {
	if t == TabAll {
		return fmt.Sprintf("All %d Performance", year)
	}
	if m, ok := t.Month(); ok {
		return fmt.Sprintf("%s %d Performance", m, year)
	}
	return ""
}

// MarshalText lets tabs travel as their string form in JSON.
func (t Tab) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Tab) UnmarshalText(b []byte) error {
	parsed, err := ParseTab(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
