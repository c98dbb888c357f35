package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"issue-detection-service/internal/domain/detection"
)

// ErrNotFound is returned when a report id does not exist.
var ErrNotFound = errors.New("report not found")

type ReportRepository struct {
	db *gorm.DB
}

func NewReportRepository(db *gorm.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (Report) TableName() string {
	return "reports"
}

// Report is the persistence shape of a detection report. The summary is
// stored as a JSON object so the class set can evolve without schema
// changes, mirroring how the analytics fold consumes it.
type Report struct {
	ID         uint `gorm:"primaryKey;autoIncrement"`
	CreatedAt  time.Time
	Summary    datatypes.JSON `gorm:"not null;default:'{}'"`
	Severity   string         `gorm:"not null"`
	Department string         `gorm:"not null"`
	Latitude   *float64
	Longitude  *float64
	ImageURL   string `gorm:"not null;default:''"`
	Feedback   *string
}

// Create persists a new report in a single insert. The id is assigned by
// the database, so concurrent creates never collide.
func (r *ReportRepository) Create(ctx context.Context, report *detection.Report) error {
	raw, err := json.Marshal(report.Summary)
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}

	row := Report{
		CreatedAt:  time.Now(),
		Summary:    datatypes.JSON(raw),
		Severity:   string(report.Severity),
		Department: string(report.Dept),
		Latitude:   report.Latitude,
		Longitude:  report.Longitude,
		ImageURL:   report.ImageURL,
	}

	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}

	report.ID = row.ID
	report.CreatedAt = row.CreatedAt
	return nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id uint) (*detection.Report, error) {
	var row Report
	err := r.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get report %d: %w", id, err)
	}
	return toDomain(&row)
}

// List returns all reports, most recent first.
func (r *ReportRepository) List(ctx context.Context) ([]detection.Report, error) {
	var rows []Report
	if err := r.db.WithContext(ctx).Order("id DESC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}

	reports := make([]detection.Report, 0, len(rows))
	for i := range rows {
		report, err := toDomain(&rows[i])
		if err != nil {
			return nil, err
		}
		reports = append(reports, *report)
	}
	return reports, nil
}

// UpdateFeedback sets the feedback verdict on a report. Last write wins;
// a zero rows-affected result means the report is gone.
func (r *ReportRepository) UpdateFeedback(ctx context.Context, id uint, verdict detection.Feedback) error {
	result := r.db.WithContext(ctx).
		Model(&Report{}).
		Where("id = ?", id).
		Update("feedback", string(verdict))
	if result.Error != nil {
		return fmt.Errorf("update feedback for report %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ReportRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&Report{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete report %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAll removes every report and returns how many were deleted.
func (r *ReportRepository) DeleteAll(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Where("1 = 1").Delete(&Report{})
	if result.Error != nil {
		return 0, fmt.Errorf("delete all reports: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func toDomain(row *Report) (*detection.Report, error) {
	var raw map[string]int
	if len(row.Summary) > 0 {
		if err := json.Unmarshal(row.Summary, &raw); err != nil {
			return nil, fmt.Errorf("unmarshal summary of report %d: %w", row.ID, err)
		}
	}

	// Summary keys form a closed set; a row with a key outside it is
	// corrupt and must not leak into the domain as a silent zero.
	summary := detection.Summary{}
	for name, count := range raw {
		class, err := detection.ParseClass(name)
		if err != nil {
			return nil, fmt.Errorf("summary of report %d: %w", row.ID, err)
		}
		summary[class] = count
	}

	feedback := detection.FeedbackUnset
	if row.Feedback != nil {
		feedback = detection.Feedback(*row.Feedback)
	}

	return &detection.Report{
		ID:        row.ID,
		CreatedAt: row.CreatedAt,
		Summary:   summary,
		Severity:  detection.Severity(row.Severity),
		Dept:      detection.Department(row.Department),
		Latitude:  row.Latitude,
		Longitude: row.Longitude,
		ImageURL:  row.ImageURL,
		Feedback:  feedback,
	}, nil
}
