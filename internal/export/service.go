package export

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dsifab/fabsched/constants"
	"github.com/dsifab/fabsched/internal/entity"
)

// Service produces XLSX bytes for schedule and buffer exports.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// ExportScheduleXLSX returns an XLSX workbook with one row per job and a
// start/end column pair per department.
func (s *Service) ExportScheduleXLSX(jobs []*entity.Job) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	const sheet = "Schedule"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	headers := []string{"Job", "Customer", "Type", "Points", "Due Date", "Status"}
	for _, dept := range constants.PipelineOrder {
		headers = append(headers, dept.DisplayName()+" Start", dept.DisplayName()+" End")
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for r, j := range jobs {
		row := []any{
			j.JobNumber,
			j.CustomerName,
			string(j.ProductType),
			j.WeldingPoints,
			j.DueDate.Format("2006-01-02"),
			statusLabel(j),
		}
		for _, dept := range constants.PipelineOrder {
			if w, ok := j.WindowFor(dept); ok {
				row = append(row, w.Start.Format("2006-01-02"), w.End.Format("2006-01-02"))
			} else {
				row = append(row, "", "")
			}
		}
		for cIdx, v := range row {
			cell, _ := excelize.CoordinatesToCellName(cIdx+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	s.logger.Info("exported schedule workbook",
		"jobs", len(jobs), "elapsed", time.Since(start))
	return buf.Bytes(), nil
}

// ExportBufferXLSX writes the per-department days-of-work-queued report.
func (s *Service) ExportBufferXLSX(buffer map[constants.Department]float64, asOf time.Time) ([]byte, error) {
	f := excelize.NewFile()
	const sheet = "Buffer"
	if index, _ := f.GetSheetIndex(sheet); index == -1 {
		if _, err := f.NewSheet(sheet); err != nil {
			return nil, err
		}
	}
	activeIndex, _ := f.GetSheetIndex(sheet)
	f.SetActiveSheet(activeIndex)

	for i, h := range []string{"Department", "Days of Work Queued", "As Of"} {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}
	for r, dept := range constants.PipelineOrder {
		vals := []any{dept.DisplayName(), buffer[dept], asOf.Format("2006-01-02")}
		for cIdx, v := range vals {
			cell, _ := excelize.CoordinatesToCellName(cIdx+1, r+2)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func statusLabel(j *entity.Job) string {
	switch {
	case j.SchedulingConflict && j.IsOverdue:
		return "OVERDUE"
	case j.SchedulingConflict:
		return "CONFLICT"
	case j.ProgressStatus != "":
		return string(j.ProgressStatus)
	}
	return "SCHEDULED"
}
