package coverage

import (
	"time"

	"github.com/voyageshield/voyageshield/internal/pkg/money"
)

type Milestone string

const (
	MilestoneNone         Milestone = "none"
	MilestoneHalfway      Milestone = "halfway"
	MilestoneAlmostThere  Milestone = "almost-there"
	MilestoneFullyInsured Milestone = "fully-insured"
)

// ReminderWindowDays is how close to departure an unpaid balance triggers a
// reminder on the dashboard.
const ReminderWindowDays = 30

// Schedule is the savings plan shown on the traveler dashboard.
type Schedule struct {
	DaysLeft     int          `json:"daysLeft"`
	WeeksLeft    int          `json:"weeksLeft"`
	WeeklyAmount money.Amount `json:"weeklyAmount"`
	Milestone    Milestone    `json:"milestone"`
	Reminder     bool         `json:"reminder"`
}

// SavingsSchedule spreads the remaining balance over the whole weeks left
// until travel. There is always at least one week, so the last contribution
// is never divided by zero.
func SavingsSchedule(p Progress, travelDate, now time.Time) Schedule {
	days := 0
	if until := travelDate.Sub(now); until > 0 {
		day := 24 * time.Hour
		days = int((until + day - 1) / day)
	}

	weeks := days / 7
	if weeks < 1 {
		weeks = 1
	}

	var weekly money.Amount
	if p.Remaining.IsPositive() {
		weekly = money.FromCents((p.Remaining.Cents() + int64(weeks) - 1) / int64(weeks))
	}

	return Schedule{
		DaysLeft:     days,
		WeeksLeft:    weeks,
		WeeklyAmount: weekly,
		Milestone:    milestoneFor(p),
		Reminder:     days <= ReminderWindowDays && p.Remaining.IsPositive(),
	}
}

func milestoneFor(p Progress) Milestone {
	switch {
	case p.FullyPaid:
		return MilestoneFullyInsured
	case p.Percent >= 75:
		return MilestoneAlmostThere
	case p.Percent >= 50:
		return MilestoneHalfway
	default:
		return MilestoneNone
	}
}
