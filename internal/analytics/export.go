package analytics

import (
	"encoding/csv"
	"fmt"
	"io"
)

// WriteMonthlyCSV writes "month,total" followed by one row per bucket.
func WriteMonthlyCSV(w io.Writer, buckets []MonthBucket) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"month", "total"}); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, b := range buckets {
		if err := cw.Write([]string{b.Label, b.Total.StringFixed(2)}); err != nil {
			return fmt.Errorf("write csv row %s: %w", b.Label, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
