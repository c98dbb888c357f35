package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/xuri/excelize/v2"

	"issue-detection-service/internal/domain/detection"
)

const exportSheet = "Reports"

// ExportReports renders every stored report into an XLSX workbook and
// returns the serialized file.
func (s *ReportService) ExportReports(ctx context.Context) ([]byte, error) {
	reports, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("create export sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("drop default sheet: %w", err)
	}

	header := []interface{}{
		"ID", "Created At", "Summary", "Total Issues",
		"Severity", "Department", "Latitude", "Longitude", "Image", "Feedback",
	}
	if err := f.SetSheetRow(exportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write export header: %w", err)
	}

	for i, report := range reports {
		row, err := exportRow(&report)
		if err != nil {
			return nil, err
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write export row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize export workbook: %w", err)
	}

	s.log.Info().Int("reports", len(reports)).Msg("exported reports to xlsx")
	return buf.Bytes(), nil
}

func exportRow(report *detection.Report) ([]interface{}, error) {
	summaryJSON, err := json.Marshal(report.Summary)
	if err != nil {
		return nil, fmt.Errorf("marshal summary of report %d: %w", report.ID, err)
	}

	var latitude, longitude interface{}
	if report.Latitude != nil {
		latitude = *report.Latitude
	}
	if report.Longitude != nil {
		longitude = *report.Longitude
	}

	return []interface{}{
		report.ID,
		report.CreatedAt.Format("2006-01-02 15:04:05"),
		string(summaryJSON),
		report.Summary.Total(),
		string(report.Severity),
		string(report.Dept),
		latitude,
		longitude,
		report.ImageURL,
		string(report.Feedback),
	}, nil
}
