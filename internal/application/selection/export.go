package selection

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/verdantio/plotproof/internal/domain/plot"
	"github.com/verdantio/plotproof/pkg/errors"
)

// utf8BOM makes spreadsheet tools detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// exportNote is appended to every row so the methodology travels with the
// file.
const exportNote = "Screened against GFW, JRC TMF and SBTN forest-loss datasets; loss detection threshold 0.001 ha"

var exportHeader = []string{
	"Plot ID",
	"Country",
	"Area (HA)",
	"Overall Risk",
	"Compliance Status",
	"GFW Loss",
	"JRC Loss",
	"SBTN Loss",
	"GFW Loss Area (HA)",
	"JRC Loss Area (HA)",
	"SBTN Loss Area (HA)",
	"WDPA Status",
	"Peatland Status",
	"High Risk Datasets",
	"Analysis Date",
	"Reference",
}

// WriteCSV writes the plots as a UTF-8 CSV with a leading BOM.  Fields
// containing commas, quotes, or newlines are quoted with internal quotes
// doubled, per encoding/csv.
func WriteCSV(w io.Writer, plots []plot.ClassifiedPlot) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return errors.Wrap(err, errors.ErrCodeInternal, "failed to write csv preamble")
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to write csv header")
	}
	for _, p := range plots {
		if err := cw.Write(exportRow(p)); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to write csv row")
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to flush csv")
	}
	return nil
}

// Export writes the engine's selected plots (or all filtered plots when
// nothing is selected) as CSV, in selection order.
func (e *Engine) Export(w io.Writer) error {
	return WriteCSV(w, e.exportSet())
}

func exportRow(p plot.ClassifiedPlot) []string {
	gfw := p.DatasetLoss[plot.DatasetGFW]
	jrc := p.DatasetLoss[plot.DatasetJRC]
	sbtn := p.DatasetLoss[plot.DatasetSBTN]

	date := ""
	if !p.ClassifiedAt.IsZero() {
		date = p.ClassifiedAt.UTC().Format("2006-01-02")
	}

	return []string{
		p.PlotID,
		p.Country,
		formatHectares(p.AreaHectares),
		string(p.OverallRisk),
		string(p.ComplianceStatus),
		lossLabel(gfw),
		lossLabel(jrc),
		lossLabel(sbtn),
		formatHectares(gfw.AreaHectares),
		formatHectares(jrc.AreaHectares),
		formatHectares(sbtn.AreaHectares),
		string(p.WDPAStatus),
		string(p.PeatlandStatus),
		strings.Join(p.HighRiskDatasets, ";"),
		date,
		exportNote,
	}
}

func lossLabel(dl plot.DatasetLoss) string {
	switch dl.Status {
	case plot.RiskHigh:
		return "YES"
	case plot.RiskLow:
		return "NO"
	default:
		return "UNKNOWN"
	}
}

func formatHectares(h plot.Hectares) string {
	return strconv.FormatFloat(float64(h), 'f', -1, 64)
}
