// Package export writes bookings to spreadsheet files.
package export

import (
	"bytes"
	"fmt"
	"time"

	"roombook/pkg/model"

	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	SheetName       = "Bookings"
	timeLayout      = "2006-01-02 15:04"
)

var Header = []string{
	"Booking ID",
	"Room",
	"Title",
	"Booked By",
	"Email",
	"Contact Number",
	"Start",
	"End",
	"Attendees",
	"Status",
	"Created At",
}

var columnWidths = []float64{26, 24, 30, 22, 28, 18, 18, 18, 11, 12, 18}

// FileName names an export covering [from, to) in loc.
func FileName(from, to time.Time, loc *time.Location) string {
	return fmt.Sprintf("bookings_%s_%s.xlsx", from.In(loc).Format("20060102"), to.In(loc).Format("20060102"))
}

// XLSX writes one row per booking, times rendered in loc. roomNames maps room
// ids to display names; unknown rooms fall back to the id.
func XLSX(bookings []*model.Booking, roomNames map[string]string, loc *time.Location) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#E6F3FF"},
			Pattern: 1,
		},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &Header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}
	lastHeader, err := excelize.CoordinatesToCellName(len(Header), 1)
	if err != nil {
		return nil, fmt.Errorf("failed to convert coordinates: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to set header style: %w", err)
	}

	for i, width := range columnWidths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, fmt.Errorf("failed to convert column number: %w", err)
		}
		if err := f.SetColWidth(SheetName, col, col, width); err != nil {
			return nil, fmt.Errorf("failed to set column width: %w", err)
		}
	}

	for i, b := range bookings {
		room := roomNames[b.RoomID]
		if room == "" {
			room = b.RoomID
		}
		row := []any{
			b.ID,
			room,
			b.Title,
			b.BookedBy,
			b.Email,
			b.ContactNumber,
			b.StartTime.In(loc).Format(timeLayout),
			b.EndTime.In(loc).Format(timeLayout),
			b.NumberOfAttendees,
			b.Status.String(),
			b.CreatedAt.In(loc).Format(timeLayout),
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("failed to convert coordinates: %w", err)
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("failed to freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
