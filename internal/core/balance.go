package core

// MonthTotals are the income and expense sums for one calendar month, kept
// separate for display. They are never netted against each other.
type MonthTotals struct {
	Income   Money
	Expenses Money
}

// RunningBalance folds the full transaction list into the all-time net
// position: incomes add, expenses subtract. It deliberately ignores month
// and year; the displayed balance is never restricted to the selected
// month even when the monthly figures are.
func RunningBalance(txs []Transaction) Money {
	var cents int64
	for _, t := range txs {
		if t.Type == Income {
			cents += t.Amount.Cents
		} else {
			cents -= t.Amount.Cents
		}
	}
	return Money{Cents: cents}
}

// TotalsForMonth sums incomes and expenses restricted to the given month
// ("MM") and year.
func TotalsForMonth(txs []Transaction, month string, year int) MonthTotals {
	var out MonthTotals
	for _, t := range txs {
		if t.Month != month || t.Year != year {
			continue
		}
		if t.Type == Income {
			out.Income.Cents += t.Amount.Cents
		} else {
			out.Expenses.Cents += t.Amount.Cents
		}
	}
	return out
}
