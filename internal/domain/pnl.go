package domain

// ProfitLoss returns the absolute and percentage result of exiting a
// position opened at entry when the market is at exit.
// BUY gains when the price rises, SELL gains when it falls.
func ProfitLoss(side Side, entry, exit float64) (pl, pct float64) {
	if side == SideSell {
		pl = entry - exit
	} else {
		pl = exit - entry
	}
	return pl, pl / entry * 100
}

// Variation is the market move from entry to price in percent, independent of side.
func Variation(entry, price float64) float64 {
	return (price - entry) / entry * 100
}
