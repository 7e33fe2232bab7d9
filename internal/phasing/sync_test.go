package phasing

import (
	"testing"

	"github.com/theirongolddev/finphase/internal/model"
)

func TestMerge_KeepsUnproposedFieldsAndCells(t *testing.T) {
	existing := model.MonthlyData{
		"l": {
			"2024-04": {Budget: money(500), Actual: money(450), Forecast: money(1), CustomerRate: money(900), Locked: true},
			"2024-05": {Forecast: money(7)},
		},
	}
	proposals := Proposals{
		"l": {
			"2024-04": {Forecast: dec(t, "1200")},
			"2024-06": {Forecast: dec(t, "300"), Budget: money(300)},
		},
	}

	out := Merge(existing, proposals)

	apr, _ := out.Entry("l", "2024-04")
	assertAmount(t, "apr forecast", apr.Forecast, "1200")
	assertAmount(t, "apr budget", apr.Budget, "500")
	assertAmount(t, "apr actual", apr.Actual, "450")
	assertAmount(t, "apr customer rate", apr.CustomerRate, "900")
	if !apr.Locked {
		t.Error("apr lost its locked flag")
	}

	may, _ := out.Entry("l", "2024-05")
	assertAmount(t, "may forecast", may.Forecast, "7")

	jun, ok := out.Entry("l", "2024-06")
	if !ok {
		t.Fatal("jun entry not created")
	}
	assertAmount(t, "jun budget", jun.Budget, "300")

	orig, _ := existing.Entry("l", "2024-04")
	assertAmount(t, "input forecast", orig.Forecast, "1")
	if _, ok := existing.Entry("l", "2024-06"); ok {
		t.Fatal("Merge mutated its input")
	}
}
