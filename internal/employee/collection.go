package employee

// Replace returns rows with the row whose ID matches saved replaced by saved.
// Order and length are preserved; rows without a match are returned unchanged.
func Replace(rows []Employee, saved Employee) []Employee {
	out := make([]Employee, len(rows))
	for i, row := range rows {
		if row.ID == saved.ID {
			out[i] = saved
			continue
		}
		out[i] = row
	}
	return out
}

// Append returns rows with created added at the end.
func Append(rows []Employee, created Employee) []Employee {
	out := make([]Employee, 0, len(rows)+1)
	out = append(out, rows...)
	return append(out, created)
}

// Remove returns rows without the row whose ID is id.
func Remove(rows []Employee, id int64) []Employee {
	out := make([]Employee, 0, len(rows))
	for _, row := range rows {
		if row.ID != id {
			out = append(out, row)
		}
	}
	return out
}

// Find returns the row with the given ID.
func Find(rows []Employee, id int64) (Employee, bool) {
	for _, row := range rows {
		if row.ID == id {
			return row, true
		}
	}
	return Employee{}, false
}
