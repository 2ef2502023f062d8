package planner

import (
	"fmt"

	"github.com/cadencio-app/cadencio/internal/domain"
)

// ExistingMonthlyLoad is the heaviest calendar month of unpaid cycles owed
// from the current month onward, skipping the obligation excludeID.
func ExistingMonthlyLoad(obligations []domain.Obligation, excludeID, today string) int64 {
	current := domain.MonthPrefix(today)
	perMonth := make(map[string]int64)
	for _, o := range obligations {
		if o.ID == excludeID {
			continue
		}
		for _, c := range o.Cycles {
			if c.Status == domain.CyclePaid {
				continue
			}
			month := domain.MonthPrefix(c.DueDate)
			if month < current {
				continue
			}
			perMonth[month] += c.Amount
		}
	}

	var peak int64
	for _, v := range perMonth {
		peak = max(peak, v)
	}
	return peak
}

func dateOn(year, month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}
