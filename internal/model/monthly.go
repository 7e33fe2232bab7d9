package model

// MonthlyEntry is one cell of the phasing grid.
type MonthlyEntry struct {
	Budget       Money
	Actual       Money
	Forecast     Money
	CustomerRate Money
	Locked       bool
}

// EntryPatch carries a partial update. Nil fields are left as they are.
type EntryPatch struct {
	Budget       *Money
	Actual       *Money
	Forecast     *Money
	CustomerRate *Money
	Locked       *bool
}

// Apply merges p into e and returns the result.
func (p EntryPatch) Apply(e MonthlyEntry) MonthlyEntry {
	if p.Budget != nil {
		e.Budget = *p.Budget
	}
	if p.Actual != nil {
		e.Actual = *p.Actual
	}
	if p.Forecast != nil {
		e.Forecast = *p.Forecast
	}
	if p.CustomerRate != nil {
		e.CustomerRate = *p.CustomerRate
	}
	if p.Locked != nil {
		e.Locked = *p.Locked
	}
	return e
}

// MonthlyData maps line ID to month to entry.
type MonthlyData map[string]map[MonthKey]MonthlyEntry

// Clone returns a deep copy. A nil receiver clones to an empty map.
func (d MonthlyData) Clone() MonthlyData {
	out := make(MonthlyData, len(d))
	for lineID, months := range d {
		cp := make(map[MonthKey]MonthlyEntry, len(months))
		for k, e := range months {
			cp[k] = e
		}
		out[lineID] = cp
	}
	return out
}

// Entry returns the entry at (lineID, mk) and whether it exists.
func (d MonthlyData) Entry(lineID string, mk MonthKey) (MonthlyEntry, bool) {
	months, ok := d[lineID]
	if !ok {
		return MonthlyEntry{}, false
	}
	e, ok := months[mk]
	return e, ok
}

// Set stores e at (lineID, mk), creating the line's month map on first write.
// It mutates d; callers working on snapshots should Clone first.
func (d MonthlyData) Set(lineID string, mk MonthKey, e MonthlyEntry) {
	months, ok := d[lineID]
	if !ok {
		months = make(map[MonthKey]MonthlyEntry)
		d[lineID] = months
	}
	months[mk] = e
}

// Equal reports whether two grids hold the same entries, comparing amounts numerically.
func (d MonthlyData) Equal(o MonthlyData) bool {
	if len(d) != len(o) {
		return false
	}
	for lineID, months := range d {
		other, ok := o[lineID]
		if !ok || len(other) != len(months) {
			return false
		}
		for k, e := range months {
			oe, ok := other[k]
			if !ok || !e.Equal(oe) {
				return false
			}
		}
	}
	return true
}

// Equal compares two entries field by field.
func (e MonthlyEntry) Equal(o MonthlyEntry) bool {
	return e.Locked == o.Locked &&
		SameAmount(e.Budget, o.Budget) &&
		SameAmount(e.Actual, o.Actual) &&
		SameAmount(e.Forecast, o.Forecast) &&
		SameAmount(e.CustomerRate, o.CustomerRate)
}
