package pricing

import (
	"math"
	"time"
)

// Planned date types accepted for shopping lists
const (
	PlannedThisWeek  = "this_week"
	PlannedNextWeek  = "next_week"
	PlannedThisMonth = "this_month"
	PlannedNextMonth = "next_month"
	PlannedCustom    = "custom"
	PlannedNone      = "none"
)

// Budget statuses reported by BudgetStatus
const (
	BudgetNone     = "none"
	BudgetOK       = "ok"
	BudgetWarning  = "warning"
	BudgetExceeded = "exceeded"
)

const dateLayout = "2006-01-02"

// PlannedDate resolves a planned date type to a calendar date relative to now.
// Weeks end on Sunday. It returns "" for unknown types or an empty custom date.
func PlannedDate(dateType, custom string, now time.Time) string {
	switch dateType {
	case PlannedThisWeek:
		return now.AddDate(0, 0, 7-int(now.Weekday())).Format(dateLayout)
	case PlannedNextWeek:
		return now.AddDate(0, 0, 14-int(now.Weekday())).Format(dateLayout)
	case PlannedThisMonth:
		return lastDayOfMonth(now, 0).Format(dateLayout)
	case PlannedNextMonth:
		return lastDayOfMonth(now, 1).Format(dateLayout)
	case PlannedCustom:
		return custom
	default:
		return ""
	}
}

// lastDayOfMonth returns the last day of the month offset months after t
func lastDayOfMonth(t time.Time, offset int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(offset)+1, 0, 0, 0, 0, 0, t.Location())
}

// BudgetPercentage returns how much of budget total represents, rounded to
// the nearest percent. It returns nil when there is no usable budget.
func BudgetPercentage(total float64, budget *float64) *int {
	if budget == nil || *budget <= 0 {
		return nil
	}
	pct := int(math.Round(total / *budget * 100))
	return &pct
}

// BudgetStatus classifies a budget percentage
func BudgetStatus(pct *int) string {
	switch {
	case pct == nil:
		return BudgetNone
	case *pct > 100:
		return BudgetExceeded
	case *pct >= 90:
		return BudgetWarning
	default:
		return BudgetOK
	}
}

// IsDatePassed reports whether a planned date lies before today
func IsDatePassed(date string, now time.Time) bool {
	if date == "" {
		return false
	}
	d, err := time.ParseInLocation(dateLayout, date, now.Location())
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return d.Before(today)
}
