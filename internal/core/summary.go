package core

// CategoryAmount is the amount aggregated for one category. Share is the
// percentage of the ledger total, rounded to one decimal.
type CategoryAmount struct {
	Category Category `json:"category"`
	Name     string   `json:"name"`
	Amount   Money    `json:"amount"`
	Share    float64  `json:"share"`
}

// Summary carries every dashboard card for a reference date.
type Summary struct {
	ReferenceDate Date             `json:"referenceDate"`
	Count         int              `json:"count"`
	Total         Money            `json:"total"`
	MonthlyTotal  Money            `json:"monthlyTotal"`
	DailyAverage  Money            `json:"dailyAverage"`
	Balance       Money            `json:"balance"`
	TotalCredit   Money            `json:"totalCredit"`
	TotalDebit    Money            `json:"totalDebit"`
	ByCategory    []CategoryAmount `json:"byCategory"`
}
