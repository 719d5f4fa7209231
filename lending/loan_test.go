package lending_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/AntonStoeckl/library-circulation-go/lending"
)

func Test_BuildLoan_DueDateIsIssueDatePlusLoanDays(t *testing.T) {
	issuedOn := time.Date(2024, time.January, 25, 0, 0, 0, 0, time.UTC)

	loan := lending.BuildLoan(1, "Ada", "The Hobbit", 10, issuedOn)
	assert.Equal(t, time.Date(2024, time.February, 4, 0, 0, 0, 0, time.UTC), loan.DueOn)

	loan = lending.BuildLoan(1, "Ada", "The Hobbit", 0, issuedOn)
	assert.Equal(t, issuedOn.AddDate(0, 0, lending.DefaultLoanDays), loan.DueOn)

	loan = lending.BuildLoan(1, "Ada", "The Hobbit", -3, issuedOn)
	assert.Equal(t, issuedOn.AddDate(0, 0, lending.DefaultLoanDays), loan.DueOn)
}

func Test_Loan_IsOverdue_IsStrict(t *testing.T) {
	issuedOn := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
	loan := lending.BuildLoan(1, "Ada", "The Hobbit", 14, issuedOn)

	assert.False(t, loan.IsOverdue(loan.DueOn))
	assert.False(t, loan.IsOverdue(loan.DueOn.Add(-time.Second)))
	assert.True(t, loan.IsOverdue(loan.DueOn.Add(time.Nanosecond)))

	status := loan.StatusAt(loan.DueOn.Add(time.Hour))
	assert.True(t, status.Overdue)
	assert.Equal(t, loan, status.Loan)
}

func Test_ParseLoanDays(t *testing.T) {
	testCases := map[string]int{
		"":      lending.DefaultLoanDays,
		"abc":   lending.DefaultLoanDays,
		"0":     lending.DefaultLoanDays,
		"-5":    lending.DefaultLoanDays,
		" 7 ":   7,
		"30":    30,
		"7days": lending.DefaultLoanDays,
	}

	for raw, expected := range testCases {
		assert.Equal(t, expected, lending.ParseLoanDays(raw), "input %q", raw)
	}
}
