package optimizer

const microsPerUnit = 1_000_000

// MicrosToCurrency converts a micro-currency amount (millionths of the base
// unit, as the ads API reports all monetary fields) into currency units.
func MicrosToCurrency(micros int64) float64 {
	return float64(micros) / microsPerUnit
}

// CurrencyToMicros converts currency units back into micros for mutations.
func CurrencyToMicros(amount float64) int64 {
	return int64(amount * microsPerUnit)
}

// SafeRatio returns num/den, or 0 when den is 0. Derived metrics must never
// be NaN or negative from a zero denominator.
func SafeRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}

// SafePercent returns num/den expressed as a percentage, or 0 when den is 0.
func SafePercent(num, den float64) float64 {
	return SafeRatio(num, den) * 100
}
