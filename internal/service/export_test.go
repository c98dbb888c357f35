package service

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"issue-detection-service/internal/domain/detection"
)

func TestExportReports(t *testing.T) {
	det := &fakeDetector{detections: []detection.Detection{
		{Class: detection.ClassPothole, Confidence: 0.9, Box: detection.Box{X1: 0, Y1: 0, X2: 5, Y2: 5}},
		{Class: detection.ClassGarbage, Confidence: 0.7, Box: detection.Box{X1: 10, Y1: 10, X2: 15, Y2: 15}},
	}}
	svc := newTestService(t, det)

	_, err := svc.ProcessImage(context.Background(), testImagePNG(t), nil, nil)
	require.NoError(t, err)
	_, err = svc.ProcessImage(context.Background(), testImagePNG(t), nil, nil)
	require.NoError(t, err)

	workbook, err := svc.ExportReports(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, workbook)

	f, err := excelize.OpenReader(bytes.NewReader(workbook))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3, "header plus one row per report")
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "Severity", rows[0][4])
	assert.Equal(t, string(detection.SeverityMedium), rows[1][4])
	assert.Equal(t, string(detection.DepartmentRoads), rows[1][5])
}

func TestExportReportsEmptyStore(t *testing.T) {
	svc := newTestService(t, &fakeDetector{})

	workbook, err := svc.ExportReports(context.Background())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(workbook))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(exportSheet)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "header only")
}
