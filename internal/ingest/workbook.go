// Package ingest parses the shop's JCS schedule workbook into Job records.
// The workbook is hierarchical: customer/project header rows set context, job
// rows under them carry the schedulable work, component rows are purchasing
// detail the scheduler ignores.
package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/dsifab/fabsched/constants"
	"github.com/dsifab/fabsched/internal/calendar"
	"github.com/dsifab/fabsched/internal/entity"
)

// RowWarning reports a workbook row that could not become a job. One bad row
// never fails the import.
type RowWarning struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Result is the outcome of one workbook import.
type Result struct {
	ImportID uuid.UUID     `json:"import_id"`
	Sheet    string        `json:"sheet"`
	Rows     int           `json:"rows"`
	Jobs     []*entity.Job `json:"jobs"`
	Warnings []RowWarning  `json:"warnings,omitempty"`
}

// column headers the JCS export uses.
const (
	colSalesOrder  = "SALES_ORDER"
	colMarkInfo    = "MARK_INFO"
	colCustomer    = "CUSTOMER"
	colCodeSort    = "CODE_SORT"
	colJob         = "JOB"
	colDescription = "DESCRIPTION"
	colDueDate     = "DATE_DUE_LINE"
	colPoints      = "WELD_POINTS"
	colQuantity    = "QTY_ORDER"
)

var dateLayouts = []string{
	"2006-01-02", "1/2/06", "01/02/06", "1/2/2006", "01/02/2006",
	"2006-01-02 15:04:05", "1-2-06", time.RFC3339,
}

// ParseWorkbook reads the named sheet (or the first sheet when name is empty)
// and returns the job records it contains.
func ParseWorkbook(path, sheet string) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	res := &Result{ImportID: uuid.New(), Sheet: sheet, Rows: len(rows)}

	headerIdx, cols := findHeader(rows)
	if headerIdx < 0 {
		return nil, fmt.Errorf("sheet %q: no header row found", sheet)
	}

	var curCustomer, curSalesOrder, curCodeSort, curMark string
	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		get := func(name string) string {
			idx, ok := cols[name]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		switch {
		case get(colMarkInfo) != "" && get(colCustomer) != "":
			// Customer/project header row: sets context for the job rows
			// below it.
			curCustomer = get(colCustomer)
			curMark = get(colMarkInfo)
			if so := get(colSalesOrder); so != "" {
				curSalesOrder = so
			}
			if cs := get(colCodeSort); cs != "" {
				curCodeSort = cs
			}

		case get(colJob) != "":
			job, warn := buildJob(i+1, get, curCustomer, curSalesOrder, curCodeSort, curMark)
			if warn != nil {
				res.Warnings = append(res.Warnings, *warn)
				continue
			}
			res.Jobs = append(res.Jobs, job)

		default:
			// Component detail row; purchasing data, not schedulable work.
		}
	}
	return res, nil
}

func buildJob(rowNum int, get func(string) string, customer, salesOrder, codeSort, mark string) (*entity.Job, *RowWarning) {
	due, err := parseDate(get(colDueDate))
	if err != nil {
		return nil, &RowWarning{Row: rowNum, Reason: "unparseable due date: " + get(colDueDate)}
	}

	points, err := parseFloat(get(colPoints))
	if err != nil || points <= 0 {
		return nil, &RowWarning{Row: rowNum, Reason: "missing or invalid welding points"}
	}

	productType, _ := constants.CanonicalProductType(codeSort)
	qty := 0
	if q, err := parseFloat(get(colQuantity)); err == nil && q > 0 {
		qty = int(q)
	}

	desc := get(colDescription)
	return &entity.Job{
		ID:            uuid.New(),
		JobNumber:     get(colJob),
		JobName:       mark,
		Description:   desc,
		CustomerName:  customer,
		SalesOrder:    salesOrder,
		ProductType:   productType,
		WeldingPoints: points,
		Quantity:      qty,
		DueDate:       due,
	}, nil
}

// findHeader locates the first row with enough recognized headers and maps
// column names to indexes.
func findHeader(rows [][]string) (int, map[string]int) {
	for i, row := range rows {
		cols := make(map[string]int)
		for idx, cell := range row {
			name := strings.ToUpper(strings.TrimSpace(cell))
			if name != "" {
				cols[name] = idx
			}
		}
		_, hasJob := cols[colJob]
		_, hasCustomer := cols[colCustomer]
		if hasJob && hasCustomer && len(cols) > 3 {
			return i, cols
		}
		if i > 10 {
			break
		}
	}
	return -1, nil
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return calendar.Normalize(t), nil
		}
	}
	// Excel serial dates show up when the cell has no date format.
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 20000 {
		base := time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC)
		return base.AddDate(0, 0, int(serial)), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func parseFloat(s string) (float64, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0, fmt.Errorf("empty number")
	}
	return strconv.ParseFloat(s, 64)
}
