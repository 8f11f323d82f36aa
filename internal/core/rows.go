package core

// Row is one entry of a render sequence: either a transaction or a synthetic
// divider separating calendar days.
type Row struct {
	Divider bool
	Label   string // localized date, set on dividers only
	Tx      Transaction
}

// RowsWithDayDividers walks the transactions in their given order and inserts
// a divider row whenever the local calendar day changes from the previous
// row's day, never before the first row. It performs no sorting: callers
// decide whether the list is date-ordered or id-ordered.
func RowsWithDayDividers(txs []Transaction) []Row {
	rows := make([]Row, 0, len(txs))
	lastKey := ""
	for _, tx := range txs {
		key := DayKey(tx.Date)
		if lastKey != "" && key != lastKey {
			rows = append(rows, Row{Divider: true, Label: FormatDateIT(tx.Date)})
		}
		lastKey = key
		rows = append(rows, Row{Tx: tx})
	}
	return rows
}
