package reconcile

// Standardize maps each row's label text to its canonical name. Labels
// outside the mapping keep their own text, so unmapped concepts survive
// with full fidelity.
func Standardize(rows []Row, rawToStandard map[string]string) []Row {
	for i := range rows {
		r := &rows[i]
		if std, ok := rawToStandard[r.LabelText]; ok {
			r.StandardName = std
		} else {
			r.StandardName = r.LabelText
		}
	}
	return rows
}
