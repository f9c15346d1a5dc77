package selection

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/verdantio/plotproof/internal/domain/plot"
	"github.com/verdantio/plotproof/pkg/errors"
)

func classified(id, country string, area float64, risk plot.RiskLevel, compliance plot.ComplianceStatus) plot.ClassifiedPlot {
	return plot.ClassifiedPlot{
		NormalizedPlot: plot.NormalizedPlot{
			PlotID:       id,
			Country:      country,
			AreaHectares: plot.Hectares(area),
		},
		DatasetLoss:      map[plot.Dataset]plot.DatasetLoss{},
		OverallRisk:      risk,
		ComplianceStatus: compliance,
		WDPAStatus:       plot.NotProtected,
		PeatlandStatus:   plot.NotPeatland,
		ClassifiedAt:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func sampleSnapshot() []plot.ClassifiedPlot {
	return []plot.ClassifiedPlot{
		classified("P3", "Ghana", 12.5, plot.RiskLow, plot.Compliant),
		classified("P1", "Brazil", 3.2, plot.RiskHigh, plot.NonCompliant),
		classified("P2", "ghana", 7.8, plot.RiskLow, plot.Compliant),
		classified("P4", "Indonesia", 0.9, plot.RiskUnknown, plot.ComplianceUnknown),
	}
}

func ids(plots []plot.ClassifiedPlot) []string {
	out := make([]string, len(plots))
	for i, p := range plots {
		out[i] = p.PlotID
	}
	return out
}

func TestFilterPredicatesANDCombined(t *testing.T) {
	e := NewEngine(sampleSnapshot(), 0)

	e.SetFilter(Filter{Country: "ghana"})
	if got := ids(e.Filtered()); !reflect.DeepEqual(got, []string{"P2", "P3"}) {
		t.Errorf("country filter: got %v", got)
	}

	e.SetFilter(Filter{Country: "ghana", Query: "P3"})
	if got := ids(e.Filtered()); !reflect.DeepEqual(got, []string{"P3"}) {
		t.Errorf("AND-combined: got %v", got)
	}

	e.SetFilter(Filter{Risk: plot.RiskHigh, Compliance: plot.Compliant})
	if got := e.Filtered(); len(got) != 0 {
		t.Errorf("contradictory predicates must match nothing, got %v", ids(got))
	}
}

func TestFilterQuerySubstring(t *testing.T) {
	e := NewEngine(sampleSnapshot(), 0)
	e.SetFilter(Filter{Query: "bra"})
	if got := ids(e.Filtered()); !reflect.DeepEqual(got, []string{"P1"}) {
		t.Errorf("query matches country substring case-insensitively, got %v", got)
	}
}

func TestSortNumericVsString(t *testing.T) {
	e := NewEngine(sampleSnapshot(), 0)

	e.SetSort(SortArea, false)
	if got := ids(e.Filtered()); !reflect.DeepEqual(got, []string{"P4", "P1", "P2", "P3"}) {
		t.Errorf("numeric asc: got %v", got)
	}

	e.SetSort(SortArea, true)
	if got := ids(e.Filtered()); !reflect.DeepEqual(got, []string{"P3", "P2", "P1", "P4"}) {
		t.Errorf("numeric desc: got %v", got)
	}

	// Country sorts as case-insensitive string: Brazil < Ghana == ghana < Indonesia,
	// stable order preserves snapshot order of the two Ghanas.
	e.SetSort(SortCountry, false)
	if got := ids(e.Filtered()); !reflect.DeepEqual(got, []string{"P1", "P3", "P2", "P4"}) {
		t.Errorf("string asc: got %v", got)
	}
}

func TestPaginationResetOnFilterAndSortChange(t *testing.T) {
	var plots []plot.ClassifiedPlot
	for i := 1; i <= 10; i++ {
		plots = append(plots, classified(fmt.Sprintf("P%02d", i), "Ghana", float64(i), plot.RiskLow, plot.Compliant))
	}
	e := NewEngine(plots, 3)

	if e.PageCount() != 4 {
		t.Fatalf("want 4 pages, got %d", e.PageCount())
	}
	e.SetPage(2)
	if got := ids(e.Page()); !reflect.DeepEqual(got, []string{"P07", "P08", "P09"}) {
		t.Errorf("page 2: got %v", got)
	}

	e.SetSort(SortArea, true)
	if e.CurrentPage() != 0 {
		t.Error("sort change must reset to first page")
	}
	e.SetPage(3)
	e.SetFilter(Filter{Query: "P0"})
	if e.CurrentPage() != 0 {
		t.Error("filter change must reset to first page")
	}

	e.SetPage(99)
	if e.CurrentPage() != e.PageCount()-1 {
		t.Errorf("page clamped to %d, got %d", e.PageCount()-1, e.CurrentPage())
	}
}

// A selected plot stays selected after a re-sort moves its row.
func TestSelectionSurvivesResort(t *testing.T) {
	e := NewEngine(sampleSnapshot(), 0)
	e.SetSort(SortPlotID, false)

	if err := e.Select("P2"); err != nil {
		t.Fatal(err)
	}

	e.SetSort(SortArea, true)
	if !e.IsSelected("P2") {
		t.Error("selection lost after re-sort")
	}
	if got := e.Selected(); !reflect.DeepEqual(got, []string{"P2"}) {
		t.Errorf("got %v", got)
	}
}

func TestSelectionSurvivesRefilter(t *testing.T) {
	e := NewEngine(sampleSnapshot(), 0)
	if err := e.Select("P1"); err != nil {
		t.Fatal(err)
	}

	// Filter P1 out, then back in: membership is untouched.
	e.SetFilter(Filter{Country: "ghana"})
	if !e.IsSelected("P1") {
		t.Error("selection dropped by re-filter")
	}
	e.SetFilter(Filter{})
	if got := e.Selected(); !reflect.DeepEqual(got, []string{"P1"}) {
		t.Errorf("got %v", got)
	}
}

func TestSelectRequiresFilteredMembership(t *testing.T) {
	e := NewEngine(sampleSnapshot(), 0)
	e.SetFilter(Filter{Country: "ghana"})

	err := e.Select("P1")
	if !errors.IsValidation(err) {
		t.Errorf("selecting a filtered-out plot: want Validation, got %v", err)
	}
	if err := e.Select("P2"); err != nil {
		t.Errorf("selecting a visible plot: %v", err)
	}
}

func TestDeselectAndClear(t *testing.T) {
	e := NewEngine(sampleSnapshot(), 0)
	for _, id := range []string{"P1", "P2", "P3"} {
		if err := e.Select(id); err != nil {
			t.Fatal(err)
		}
	}

	e.Deselect("P2")
	if got := e.Selected(); !reflect.DeepEqual(got, []string{"P1", "P3"}) {
		t.Errorf("got %v", got)
	}
	e.Deselect("never-selected")

	e.ClearSelection()
	if len(e.Selected()) != 0 {
		t.Errorf("got %v", e.Selected())
	}
}
