// Package export writes zonal summary tables in download formats.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"go.ngs.io/hydroviewer/internal/domain"
)

// Header returns the CSV columns of a summary of v. The value column is
// named after the variable and the profile column after its soil-layer
// dimension.
func Header(v domain.Variable) []string {
	h := []string{"region", "time", "time_index", "ensemble"}
	if v.HasProfile() {
		h = append(h, v.ProfileDim)
	}
	return append(h, v.Name)
}

// WriteCSV writes the rows of table as CSV.
func WriteCSV(w io.Writer, table *domain.SummaryTable, v domain.Variable) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header(v)); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range table.Rows {
		ts := ""
		if !r.Time.IsZero() {
			ts = r.Time.UTC().Format("2006-01-02T15:04:05Z")
		}
		rec := []string{table.RegionID, ts, strconv.Itoa(r.TimeIndex), strconv.Itoa(r.Ensemble)}
		if v.HasProfile() {
			rec = append(rec, strconv.Itoa(r.Profile))
		}
		rec = append(rec, strconv.FormatFloat(r.Value, 'g', -1, 64))
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}
	return nil
}

// Filename suggests a download name for the summary of v over region.
func Filename(regionID string, v domain.Variable, profile *int) string {
	if profile != nil && v.HasProfile() {
		return fmt.Sprintf("zonal_%s_%s_profile%d.csv", regionID, v.Name, *profile)
	}
	return fmt.Sprintf("zonal_%s_%s.csv", regionID, v.Name)
}
