package services

import (
	"fmt"

	"unitimetable/models"

	"github.com/xuri/excelize/v2"
)

// ExportService renders a timetable grid into an xlsx workbook, one row
// per time slot and one column per day.
type ExportService struct {
	publish *PublishService
}

func NewExportService(publish *PublishService) *ExportService {
	return &ExportService{publish: publish}
}

func cellText(entry *models.TimetableEntry) string {
	if entry == nil {
		return ""
	}

	subject := entry.Subject.Name
	professor := entry.Professor.DisplayName()

	text := fmt.Sprintf("%s\n%s\n%s (%s)", subject, professor, entry.Room, entry.ClassType)

	switch entry.Split() {
	case models.SplitSameTime:
		subject2 := subject
		if entry.Subject2 != nil {
			subject2 = entry.Subject2.Name
		}
		professor2 := ""
		if entry.Professor2 != nil {
			professor2 = entry.Professor2.DisplayName()
		}
		text = fmt.Sprintf("%s: %s, %s, %s\n%s: %s, %s, %s",
			entry.Subgroup1, subject, professor, entry.Room,
			entry.Subgroup2, subject2, professor2, entry.Room2)
	case models.SplitSingleGroup:
		text += "\n" + entry.Subgroup + " only"
	}

	if entry.IsCanceled {
		text += "\nCANCELED"
	} else if entry.IsReschedule {
		text += "\nRESCHEDULED"
	}
	return text
}

// Export renders the (year, group) grid as an xlsx file and returns its
// bytes plus a download name.
func (s *ExportService) Export(yearID, groupID uint, admin bool) ([]byte, string, error) {
	grid, _, err := s.publish.Get(yearID, groupID, admin)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Timetable"
	f.SetSheetName(f.GetSheetName(0), sheet)

	f.SetCellValue(sheet, "A1", "Time")
	for i, day := range models.Days {
		col, _ := excelize.ColumnNumberToName(i + 2)
		f.SetCellValue(sheet, col+"1", day)
		f.SetColWidth(sheet, col, col, 30)
	}

	style, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
	})
	if err == nil {
		lastCol, _ := excelize.ColumnNumberToName(len(models.Days) + 1)
		f.SetCellStyle(sheet, "A2", fmt.Sprintf("%s%d", lastCol, len(models.TimeSlots)+1), style)
	}

	for r, slot := range models.TimeSlots {
		row := r + 2
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), slot)
		f.SetRowHeight(sheet, row, 70)
		for c, day := range models.Days {
			col, _ := excelize.ColumnNumberToName(c + 2)
			if slots, ok := grid[day]; ok {
				if entry, ok := slots[slot]; ok {
					f.SetCellValue(sheet, fmt.Sprintf("%s%d", col, row), cellText(entry))
				}
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	name := fmt.Sprintf("timetable_%d_%d.xlsx", yearID, groupID)
	return buf.Bytes(), name, nil
}
