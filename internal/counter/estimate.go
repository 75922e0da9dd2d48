package counter

// EstimateHz возвращает мгновенную частоту входа: refHz * periods / corrected.
// Считается в float64, чтобы не терять дробную часть при целочисленном делении.
// corrected == 0 даёт ErrDivisionByZero, refHz == 0 — ErrNoReference.
func EstimateHz(refHz, periods uint32, corrected uint64) (float64, error) {
	if corrected == 0 {
		return 0, ErrDivisionByZero
	}
	if refHz == 0 {
		return 0, ErrNoReference
	}
	if periods == 0 {
		periods = 1
	}
	return float64(refHz) * float64(periods) / float64(corrected), nil
}
