package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"
	"time"

	_ "image/gif"
	_ "image/jpeg"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"issue-detection-service/internal/annotator"
	"issue-detection-service/internal/domain/detection"
	"issue-detection-service/internal/repository"
	"issue-detection-service/internal/storage"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("not found")
	ErrInference    = errors.New("inference failed")
	ErrStorage      = errors.New("storage failed")
)

type ReportService struct {
	repo     *repository.ReportRepository
	detector detection.Detector
	images   storage.ImageStore
	timeout  time.Duration
	log      zerolog.Logger
}

func NewReportService(
	repo *repository.ReportRepository,
	det detection.Detector,
	images storage.ImageStore,
	inferenceTimeout time.Duration,
	log zerolog.Logger,
) *ReportService {
	if inferenceTimeout <= 0 {
		inferenceTimeout = 10 * time.Second
	}
	return &ReportService{
		repo:     repo,
		detector: det,
		images:   images,
		timeout:  inferenceTimeout,
		log:      log,
	}
}

// PredictResult is what a successful image submission returns to the
// caller: the annotated image plus the classified outcome and the id of
// the persisted report.
type PredictResult struct {
	ImageBase64 string               `json:"image"`
	Summary     detection.Summary    `json:"summary"`
	Severity    detection.Severity   `json:"severity"`
	Department  detection.Department `json:"department"`
	ReportID    uint                 `json:"report_id"`
	Message     string               `json:"message"`
}

// ProcessImage runs the full detection-to-report pipeline: decode,
// inference, summarize, annotate, classify, persist. The report id is
// only returned after the record is durably created; zero detections is a
// valid outcome and yields a "no issue" report.
func (s *ReportService) ProcessImage(ctx context.Context, imageData []byte, latitude, longitude *float64) (*PredictResult, error) {
	if len(imageData) == 0 {
		return nil, fmt.Errorf("%w: image is required", ErrInvalidInput)
	}

	img, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot decode image: %v", ErrInvalidInput, err)
	}

	detections, err := s.runInference(ctx, imageData)
	if err != nil {
		return nil, err
	}

	summary := detection.Summarize(detections)
	severity := detection.ClassifySeverity(summary)
	department := detection.RouteDepartment(summary)

	annotated := annotator.Annotate(img, detections)
	var buf bytes.Buffer
	if err := png.Encode(&buf, annotated); err != nil {
		return nil, fmt.Errorf("encode annotated image: %w", err)
	}

	// Both coordinates or neither; a lone value is dropped.
	if latitude == nil || longitude == nil {
		latitude, longitude = nil, nil
	}

	key := fmt.Sprintf("report_%s.png", uuid.New().String())
	imageURL, err := s.images.Save(ctx, key, buf.Bytes(), "image/png")
	if err != nil {
		s.log.Error().Err(err).Str("key", key).Msg("failed to store annotated image")
		return nil, fmt.Errorf("%w: store annotated image: %v", ErrStorage, err)
	}

	report := &detection.Report{
		Summary:   summary,
		Severity:  severity,
		Dept:      department,
		Latitude:  latitude,
		Longitude: longitude,
		ImageURL:  imageURL,
	}
	if err := s.repo.Create(ctx, report); err != nil {
		s.log.Error().Err(err).Msg("failed to create report")
		return nil, fmt.Errorf("%w: create report: %v", ErrStorage, err)
	}

	s.log.Info().
		Uint("report_id", report.ID).
		Int("detections", summary.Total()).
		Str("severity", string(severity)).
		Str("department", string(department)).
		Msg("saved detection report")

	return &PredictResult{
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		Summary:     summary,
		Severity:    severity,
		Department:  department,
		ReportID:    report.ID,
		Message:     detection.Describe(summary),
	}, nil
}

// runInference invokes the detector with a bounded wait. A model call that
// never returns fails this request only, not the whole service.
func (s *ReportService) runInference(ctx context.Context, imageData []byte) ([]detection.Detection, error) {
	inferCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type outcome struct {
		detections []detection.Detection
		err        error
	}
	resultCh := make(chan outcome, 1)
	go func() {
		detections, err := s.detector.Detect(inferCtx, imageData)
		resultCh <- outcome{detections: detections, err: err}
	}()

	select {
	case out := <-resultCh:
		if out.err != nil {
			s.log.Error().Err(out.err).Msg("inference failed")
			return nil, fmt.Errorf("%w: %v", ErrInference, out.err)
		}
		return out.detections, nil
	case <-inferCtx.Done():
		s.log.Error().Dur("timeout", s.timeout).Msg("inference timed out")
		return nil, fmt.Errorf("%w: timed out after %s", ErrInference, s.timeout)
	}
}

// SubmitFeedback records a correctness verdict on a report. Last write
// wins: repeating a verdict is a harmless overwrite.
func (s *ReportService) SubmitFeedback(ctx context.Context, reportID uint, verdict string) error {
	feedback, err := detection.ParseFeedback(verdict)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	if err := s.repo.UpdateFeedback(ctx, reportID, feedback); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: report %d", ErrNotFound, reportID)
		}
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}

	s.log.Info().
		Uint("report_id", reportID).
		Str("feedback", string(feedback)).
		Msg("recorded feedback")
	return nil
}

func (s *ReportService) GetReport(ctx context.Context, reportID uint) (*detection.Report, error) {
	report, err := s.repo.GetByID(ctx, reportID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: report %d", ErrNotFound, reportID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return report, nil
}

func (s *ReportService) ListReports(ctx context.Context) ([]detection.Report, error) {
	reports, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return reports, nil
}

// Snapshot folds the full report list into aggregate statistics. It is
// recomputed on demand, never cached, so it always reflects the store at
// the instant of the call.
func (s *ReportService) Snapshot(ctx context.Context) (*detection.Snapshot, error) {
	reports, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorage, err)
	}

	snapshot := &detection.Snapshot{
		TotalReports:  len(reports),
		TotalPerClass: make(map[detection.Class]int, len(detection.Classes())),
	}
	for _, class := range detection.Classes() {
		snapshot.TotalPerClass[class] = 0
	}
	for _, report := range reports {
		if report.Summary.Empty() {
			snapshot.NoIssueReports++
			continue
		}
		for class, count := range report.Summary {
			snapshot.TotalPerClass[class] += count
		}
	}
	return snapshot, nil
}

func (s *ReportService) DeleteReport(ctx context.Context, reportID uint) error {
	report, err := s.repo.GetByID(ctx, reportID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: report %d", ErrNotFound, reportID)
		}
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if err := s.repo.Delete(ctx, reportID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: report %d", ErrNotFound, reportID)
		}
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	s.removeImage(ctx, report.ImageURL)
	s.log.Info().Uint("report_id", reportID).Msg("deleted report")
	return nil
}

func (s *ReportService) DeleteAllReports(ctx context.Context) (int64, error) {
	reports, err := s.repo.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	deleted, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	for _, report := range reports {
		s.removeImage(ctx, report.ImageURL)
	}
	s.log.Info().Int64("deleted_count", deleted).Msg("deleted all reports")
	return deleted, nil
}

// removeImage drops a report's stored annotated image. The row is
// already gone at this point, so a cleanup failure is logged instead of
// surfaced to the caller.
func (s *ReportService) removeImage(ctx context.Context, ref string) {
	if ref == "" {
		return
	}
	if err := s.images.Delete(ctx, ref); err != nil {
		s.log.Warn().Err(err).Str("image", ref).Msg("failed to remove annotated image")
	}
}
