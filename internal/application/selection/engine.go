// Package selection filters, sorts, pages, and exports a classified plot
// snapshot held in memory.  It never touches the network: the snapshot comes
// from a restored session and every operation is a pure recomputation over
// it.
package selection

import (
	"sort"
	"strings"

	"github.com/verdantio/plotproof/internal/domain/plot"
	"github.com/verdantio/plotproof/pkg/errors"
)

// Filter is a set of AND-combined predicates.  Zero values match everything.
type Filter struct {
	// Query substring-matches plot ID or country, case-insensitively.
	Query string
	// Risk matches the overall risk level exactly.
	Risk plot.RiskLevel
	// Compliance matches the compliance status exactly.
	Compliance plot.ComplianceStatus
	// Country matches the country exactly (case-insensitive).
	Country string
}

func (f Filter) matches(p plot.ClassifiedPlot) bool {
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(p.PlotID), q) &&
			!strings.Contains(strings.ToLower(p.Country), q) {
			return false
		}
	}
	if f.Risk != "" && p.OverallRisk != f.Risk {
		return false
	}
	if f.Compliance != "" && p.ComplianceStatus != f.Compliance {
		return false
	}
	if f.Country != "" && !strings.EqualFold(p.Country, f.Country) {
		return false
	}
	return true
}

// SortField names a sortable column.
type SortField string

const (
	SortPlotID     SortField = "plotId"
	SortCountry    SortField = "country"
	SortArea       SortField = "area"
	SortRisk       SortField = "overallRisk"
	SortCompliance SortField = "complianceStatus"
	SortGFWLoss    SortField = "gfwLossArea"
	SortJRCLoss    SortField = "jrcLossArea"
	SortSBTNLoss   SortField = "sbtnLossArea"
)

// numericValue returns the field's numeric value when the field sorts
// numerically.
func numericValue(p plot.ClassifiedPlot, field SortField) (float64, bool) {
	switch field {
	case SortArea:
		return float64(p.AreaHectares), true
	case SortGFWLoss:
		return float64(p.DatasetLoss[plot.DatasetGFW].AreaHectares), true
	case SortJRCLoss:
		return float64(p.DatasetLoss[plot.DatasetJRC].AreaHectares), true
	case SortSBTNLoss:
		return float64(p.DatasetLoss[plot.DatasetSBTN].AreaHectares), true
	}
	return 0, false
}

func stringValue(p plot.ClassifiedPlot, field SortField) string {
	switch field {
	case SortCountry:
		return p.Country
	case SortRisk:
		return string(p.OverallRisk)
	case SortCompliance:
		return string(p.ComplianceStatus)
	default:
		return p.PlotID
	}
}

// Engine holds one snapshot plus the current filter, sort, page, and
// selection.  Selection is keyed by plot ID, never by row index, so a
// selected plot stays selected across re-sorts and re-filters.
type Engine struct {
	plots    []plot.ClassifiedPlot
	filter   Filter
	sortBy   SortField
	sortDesc bool
	pageSize int
	page     int

	// selectedOrder preserves the order plots were selected in;
	// selectedSet answers membership.
	selectedOrder []string
	selectedSet   map[string]struct{}
}

const DefaultPageSize = 25

// NewEngine snapshots the given plots, unsorted and unfiltered.
func NewEngine(plots []plot.ClassifiedPlot, pageSize int) *Engine {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Engine{
		plots:       plots,
		sortBy:      SortPlotID,
		pageSize:    pageSize,
		selectedSet: make(map[string]struct{}),
	}
}

// SetFilter replaces the active filter and resets to the first page.
func (e *Engine) SetFilter(f Filter) {
	e.filter = f
	e.page = 0
}

// SetSort replaces the sort key and direction and resets to the first page.
func (e *Engine) SetSort(field SortField, desc bool) {
	e.sortBy = field
	e.sortDesc = desc
	e.page = 0
}

// Filtered recomputes the filtered, sorted view.  The sort is stable:
// equal keys keep their relative snapshot order.
func (e *Engine) Filtered() []plot.ClassifiedPlot {
	out := make([]plot.ClassifiedPlot, 0, len(e.plots))
	for _, p := range e.plots {
		if e.filter.matches(p) {
			out = append(out, p)
		}
	}

	field := e.sortBy
	sort.SliceStable(out, func(i, j int) bool {
		var less bool
		if a, numeric := numericValue(out[i], field); numeric {
			b, _ := numericValue(out[j], field)
			less = a < b
		} else {
			less = strings.ToLower(stringValue(out[i], field)) < strings.ToLower(stringValue(out[j], field))
		}
		if e.sortDesc {
			return !less && !equalKey(out[i], out[j], field)
		}
		return less
	})
	return out
}

func equalKey(a, b plot.ClassifiedPlot, field SortField) bool {
	if av, numeric := numericValue(a, field); numeric {
		bv, _ := numericValue(b, field)
		return av == bv
	}
	return strings.EqualFold(stringValue(a, field), stringValue(b, field))
}

// Page returns the current page of the filtered view.
func (e *Engine) Page() []plot.ClassifiedPlot {
	filtered := e.Filtered()
	start := e.page * e.pageSize
	if start >= len(filtered) {
		return nil
	}
	end := start + e.pageSize
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[start:end]
}

// PageCount reports how many pages the filtered view spans.
func (e *Engine) PageCount() int {
	n := len(e.Filtered())
	if n == 0 {
		return 0
	}
	return (n + e.pageSize - 1) / e.pageSize
}

// SetPage moves to a page, clamped to the valid range.
func (e *Engine) SetPage(n int) {
	if n < 0 {
		n = 0
	}
	if last := e.PageCount() - 1; last >= 0 && n > last {
		n = last
	}
	e.page = n
}

// CurrentPage reports the zero-based current page.
func (e *Engine) CurrentPage() int { return e.page }

// Select adds a plot to the selection by ID.  The plot must be in the
// current filtered view.
func (e *Engine) Select(plotID string) error {
	found := false
	for _, p := range e.Filtered() {
		if p.PlotID == plotID {
			found = true
			break
		}
	}
	if !found {
		return errors.Newf(errors.ErrCodeValidation, "plot %q is not in the filtered view", plotID)
	}
	if _, ok := e.selectedSet[plotID]; ok {
		return nil
	}
	e.selectedSet[plotID] = struct{}{}
	e.selectedOrder = append(e.selectedOrder, plotID)
	return nil
}

// Deselect removes a plot from the selection.
func (e *Engine) Deselect(plotID string) {
	if _, ok := e.selectedSet[plotID]; !ok {
		return
	}
	delete(e.selectedSet, plotID)
	for i, id := range e.selectedOrder {
		if id == plotID {
			e.selectedOrder = append(e.selectedOrder[:i], e.selectedOrder[i+1:]...)
			break
		}
	}
}

// ClearSelection empties the selection.
func (e *Engine) ClearSelection() {
	e.selectedOrder = nil
	e.selectedSet = make(map[string]struct{})
}

// Selected reports the selected plot IDs in selection order.
func (e *Engine) Selected() []string {
	out := make([]string, len(e.selectedOrder))
	copy(out, e.selectedOrder)
	return out
}

// IsSelected answers membership by plot ID.
func (e *Engine) IsSelected(plotID string) bool {
	_, ok := e.selectedSet[plotID]
	return ok
}

// exportSet resolves which plots an export covers: the selected plots in
// selection order, or every filtered plot when nothing is selected.
func (e *Engine) exportSet() []plot.ClassifiedPlot {
	filtered := e.Filtered()
	if len(e.selectedOrder) == 0 {
		return filtered
	}
	byID := make(map[string]plot.ClassifiedPlot, len(filtered))
	for _, p := range filtered {
		byID[p.PlotID] = p
	}
	out := make([]plot.ClassifiedPlot, 0, len(e.selectedOrder))
	for _, id := range e.selectedOrder {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}
