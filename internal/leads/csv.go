package leads

import (
	"encoding/csv"
	"io"
)

var csvHeader = []string{"Name", "Email", "Phone", "Service", "Additional Message", "Date"}

const csvDateLayout = "Jan 2, 2006, 03:04 PM"

// WriteCSV renders leads with the dashboard export columns.
func WriteCSV(w io.Writer, leads []*Lead) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, lead := range leads {
		if err := cw.Write([]string{
			lead.Name,
			lead.Email,
			lead.Phone,
			lead.Service,
			lead.AdditionalMessage,
			lead.CreatedAt.UTC().Format(csvDateLayout),
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
