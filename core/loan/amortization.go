package loan

import (
	"math"
	"time"
)

// Schedule is the repayment plan of a loan.
type Schedule struct {
	Monthly float64
	Total   float64
}

// Amortize computes the plan of `amount` borrowed at the monthly `rate` (percent)
// over `months`, interest compounding monthly.
func Amortize(amount, rate float64, months int) Schedule {
	if months <= 0 {
		return Schedule{Monthly: amount, Total: amount}
	}
	total := amount * math.Pow(1+rate/100, float64(months))
	return Schedule{Monthly: total / float64(months), Total: total}
}

// DueDate is the date the last instalment of a loan approved at `approvedAt` is due.
func DueDate(approvedAt time.Time, months int) time.Time {
	return approvedAt.AddDate(0, months, 0)
}

// LateFee is the fee charged on a repayment of `amount` made after the due date.
func LateFee(amount float64) float64 {
	return amount * LateFeeRate
}
