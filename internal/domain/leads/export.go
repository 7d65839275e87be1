package leads

import (
	"context"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

var exportHeader = []string{
	"Lead ID", "Created", "Form", "Email", "First Name", "Last Name", "Firm", "Title",
	"Phone", "Notes", "Wants Demo", "Source", "Booked At", "Booking Ref",
}

// Export writes every lead as one row of an XLSX sheet and returns the row
// count.
func (s *Service) Export(ctx context.Context, w io.Writer) (int, error) {
	all, err := s.List(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "export: list leads")
	}

	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Leads")
	if err != nil {
		return 0, eris.Wrap(err, "export: add sheet")
	}
	addRow(sheet, exportHeader)
	for _, l := range all {
		if err := ctx.Err(); err != nil {
			return 0, eris.Wrap(err, "export: context cancelled")
		}
		booked := ""
		if l.BookedAt != nil {
			booked = l.BookedAt.UTC().Format(time.RFC3339)
		}
		demo := "no"
		if l.WantsDemo {
			demo = "yes"
		}
		addRow(sheet, []string{
			l.ID, l.CreatedAt.UTC().Format(time.RFC3339), string(l.FormType), l.Email, l.FirstName, l.LastName,
			l.FirmName, l.Title, l.Phone, l.Notes, demo, l.Source, booked, l.BookingRef,
		})
	}
	if err := file.Write(w); err != nil {
		return 0, eris.Wrap(err, "export: write xlsx")
	}
	return len(all), nil
}

func addRow(sheet *xlsx.Sheet, values []string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
