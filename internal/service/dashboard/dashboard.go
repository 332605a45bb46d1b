package dashboard

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"shipment-kpi/internal/service/kpi"
	"shipment-kpi/internal/sheet"
	"shipment-kpi/internal/storage"
)

type UploadStorage interface {
	SaveUpload(ctx context.Context, u *storage.Upload) error
	GetUpload(ctx context.Context, slot sheet.Variant) (*storage.Upload, error)
	ListUploads(ctx context.Context) ([]*storage.Upload, error)
	DeleteUploads(ctx context.Context) (int, error)
}

type Options struct {
	Floor        time.Time
	StatusColumn int
	Ports        []string
	PageSize     int
	Now          func() time.Time
}

type Service struct {
	log     *slog.Logger
	storage UploadStorage
	opts    Options
}

func NewService(log *slog.Logger, storage UploadStorage, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if !kpi.ValidPageSize(opts.PageSize) {
		opts.PageSize = kpi.DefaultPageSize
	}
	return &Service{log: log, storage: storage, opts: opts}
}

// DefaultState is the filter state of a fresh table.
func (s *Service) DefaultState() kpi.FilterState {
	return kpi.DefaultFilterState(s.opts.PageSize)
}

// Ingest parses one workbook and replaces the slot's data. On any error the
// slot keeps what it had.
func (s *Service) Ingest(ctx context.Context, slot sheet.Variant, fileName string, r io.Reader) (*storage.Upload, error) {
	const op = "service.dashboard.Ingest"

	log := s.log.With(
		slog.String("op", op),
		slog.String("slot", slot.String()),
		slog.String("file_name", fileName),
	)

	if err := sheet.CheckFileName(fileName); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	grid, err := sheet.ReadGrid(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ex := kpi.Extract(grid, slot, kpi.ExtractOptions{
		Floor:        s.opts.Floor,
		StatusColumn: s.opts.StatusColumn,
	})

	upload := &storage.Upload{
		ID:         uuid.New().String(),
		Slot:       slot,
		FileName:   fileName,
		UploadedAt: s.opts.Now().UTC(),
		Stats:      ex.Stats,
		Extraction: &ex,
	}

	if err := s.storage.SaveUpload(ctx, upload); err != nil {
		return nil, fmt.Errorf("%s: сохранение загрузки: %w", op, err)
	}

	for _, w := range ex.Stats.Warnings {
		log.Warn("layout mismatch", slog.String("warning", w))
	}
	log.Info("upload parsed",
		slog.String("upload_id", upload.ID),
		slog.Int("records", ex.Stats.Records),
		slog.Int("unlocated", ex.Stats.Unlocated),
		slog.Int("before_floor", ex.Stats.BeforeFloor),
		slog.Int("malformed", ex.Stats.Malformed),
		slog.Int("invalid_dates", ex.Stats.InvalidDates),
	)

	return upload, nil
}

func (s *Service) Uploads(ctx context.Context) ([]*storage.Upload, error) {
	const op = "service.dashboard.Uploads"

	list, err := s.storage.ListUploads(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// Reset drops all uploads.
func (s *Service) Reset(ctx context.Context) (int, error) {
	const op = "service.dashboard.Reset"

	n, err := s.storage.DeleteUploads(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("uploads dropped", slog.String("op", op), slog.Int("count", n))
	return n, nil
}

func (s *Service) extraction(ctx context.Context, slot sheet.Variant) (*kpi.Extraction, error) {
	u, err := s.storage.GetUpload(ctx, slot)
	if err != nil {
		return nil, err
	}
	return u.Extraction, nil
}

type BucketSummary struct {
	Metric     kpi.Metric        `json:"metric"`
	Source     sheet.Variant     `json:"source"`
	Buckets    []kpi.BucketCount `json:"buckets"`
	Total      int               `json:"total"`
	Ports      []string          `json:"ports"`
	Categories []string          `json:"categories"`
}

// Buckets counts metric rows per bucket after the state's filters.
func (s *Service) Buckets(ctx context.Context, slot sheet.Variant, m kpi.Metric, state kpi.FilterState) (*BucketSummary, error) {
	const op = "service.dashboard.Buckets"

	ex, err := s.extraction(ctx, slot)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows := kpi.Select(kpi.Compute(ex.Records, m), state, kpi.MetricSchema)
	return &BucketSummary{
		Metric:     m,
		Source:     slot,
		Buckets:    kpi.BucketCounts(rows),
		Total:      len(rows),
		Ports:      kpi.DimensionOptions(ex.Records, s.opts.Ports),
		Categories: kpi.CategoryOptions(ex.Records),
	}, nil
}

type BucketPage struct {
	Metric kpi.Metric              `json:"metric"`
	Bucket kpi.Bucket              `json:"bucket"`
	Title  string                  `json:"title"`
	Rows   kpi.Page[kpi.MetricRow] `json:"rows"`
}

func (s *Service) BucketPage(ctx context.Context, slot sheet.Variant, m kpi.Metric, b kpi.Bucket, state kpi.FilterState) (*BucketPage, error) {
	const op = "service.dashboard.BucketPage"

	ex, err := s.extraction(ctx, slot)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows := kpi.InBucket(kpi.Compute(ex.Records, m), b)
	return &BucketPage{
		Metric: m,
		Bucket: b,
		Title:  b.Title(),
		Rows:   kpi.Run(rows, state, kpi.MetricSchema),
	}, nil
}

type AverageView struct {
	Metric           kpi.Metric              `json:"metric"`
	From             time.Time               `json:"from"`
	To               time.Time               `json:"to"`
	Overall          float64                 `json:"overall_average"`
	OverallFormatted string                  `json:"overall_average_formatted"`
	Ports            []kpi.DimensionStat     `json:"ports"`
	Rows             kpi.Page[kpi.MetricRow] `json:"rows"`
	PortOptions      []string                `json:"port_options"`
	Categories       []string                `json:"categories"`
}

// Average без диапазона дат берет его по умолчанию: от floor до последнего ATA.
func (s *Service) Average(ctx context.Context, slot sheet.Variant, m kpi.Metric, state kpi.FilterState) (*AverageView, error) {
	const op = "service.dashboard.Average"

	ex, err := s.extraction(ctx, slot)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if state.From.IsZero() && state.To.IsZero() {
		state.From, state.To = kpi.DefaultDateRange(ex.Records, s.opts.Floor, s.opts.Now())
	}

	all := kpi.Compute(ex.Records, m)
	rows := kpi.Select(all, state, kpi.MetricSchema)
	ports := kpi.Select(all, state.WithDimension(kpi.All), kpi.MetricSchema)
	overall := kpi.OverallMean(rows)

	return &AverageView{
		Metric:           m,
		From:             state.From,
		To:               state.To,
		Overall:          overall,
		OverallFormatted: kpi.FormatHours(overall),
		Ports:            kpi.AggregateByDimension(ports),
		Rows:             kpi.Run(rows, state, kpi.MetricSchema),
		PortOptions:      kpi.DimensionOptions(ex.Records, s.opts.Ports),
		Categories:       kpi.CategoryOptions(ex.Records),
	}, nil
}

func (s *Service) Threshold(ctx context.Context, slot sheet.Variant, m kpi.Metric, state kpi.FilterState, hours float64) (*kpi.ThresholdReport, error) {
	const op = "service.dashboard.Threshold"

	ex, err := s.extraction(ctx, slot)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows := kpi.Select(kpi.Compute(ex.Records, m), state, kpi.MetricSchema)
	rep := kpi.AggregateBelowThreshold(rows, hours)
	return &rep, nil
}

type QualityView struct {
	Status  kpi.Page[kpi.StatusEntry]  `json:"status_flags"`
	Missing kpi.Page[kpi.MissingEntry] `json:"missing_milestones"`
}

func (s *Service) Quality(ctx context.Context, slot sheet.Variant, state kpi.FilterState) (*QualityView, error) {
	const op = "service.dashboard.Quality"

	ex, err := s.extraction(ctx, slot)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &QualityView{
		Status:  kpi.Run(kpi.StatusCheck(*ex), state, kpi.StatusSchema),
		Missing: kpi.Run(kpi.MissingMilestones(ex.Records), state, kpi.MissingSchema),
	}, nil
}

// MetricRows returns every row of the metric that passes the state, optionally
// limited to one bucket. Used by exports, so nothing is paged.
func (s *Service) MetricRows(ctx context.Context, slot sheet.Variant, m kpi.Metric, b *kpi.Bucket, state kpi.FilterState) ([]kpi.MetricRow, error) {
	const op = "service.dashboard.MetricRows"

	ex, err := s.extraction(ctx, slot)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	rows := kpi.Compute(ex.Records, m)
	if b != nil {
		rows = kpi.InBucket(rows, *b)
	}
	return kpi.Select(rows, state, kpi.MetricSchema), nil
}

func (s *Service) QualityRows(ctx context.Context, slot sheet.Variant, state kpi.FilterState) ([]kpi.StatusEntry, []kpi.MissingEntry, error) {
	const op = "service.dashboard.QualityRows"

	ex, err := s.extraction(ctx, slot)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	status := kpi.Select(kpi.StatusCheck(*ex), state, kpi.StatusSchema)
	missing := kpi.Select(kpi.MissingMilestones(ex.Records), state, kpi.MissingSchema)
	return status, missing, nil
}

type MetricOverview struct {
	Metric  kpi.Metric        `json:"metric"`
	Buckets []kpi.BucketCount `json:"buckets"`
	Total   int               `json:"total"`
	Average float64           `json:"average"`
}

type Overview struct {
	Upload            *storage.Upload  `json:"upload"`
	Metrics           []MetricOverview `json:"metrics"`
	StatusFlags       int              `json:"status_flags"`
	MissingMilestones int              `json:"missing_milestones"`
}

// Overview считает сводку по всем показателям параллельно.
func (s *Service) Overview(ctx context.Context, slot sheet.Variant) (*Overview, error) {
	const op = "service.dashboard.Overview"

	u, err := s.storage.GetUpload(ctx, slot)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	ex := u.Extraction

	out := &Overview{
		Upload:  u,
		Metrics: make([]MetricOverview, len(kpi.Metrics)),
	}

	g, gctx := errgroup.WithContext(ctx)

	for i, m := range kpi.Metrics {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rows := kpi.Compute(ex.Records, m)
			out.Metrics[i] = MetricOverview{
				Metric:  m,
				Buckets: kpi.BucketCounts(rows),
				Total:   len(rows),
				Average: kpi.OverallMean(rows),
			}
			return nil
		})
	}

	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		out.StatusFlags = len(kpi.StatusCheck(*ex))
		return nil
	})

	g.Go(func() error {
		if err := gctx.Err(); err != nil {
			return err
		}
		out.MissingMilestones = len(kpi.MissingMilestones(ex.Records))
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}
