package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/FACorreiaa/go-place-recs/app/observability/metrics"
	"github.com/FACorreiaa/go-place-recs/internal/types"
)

// Ensure implementation satisfies the interface
var _ IngestService = (*IngestServiceImpl)(nil)

// IngestService defines the business logic contract for export ingestion.
type IngestService interface {
	ParseExport(ctx context.Context, r io.Reader) ([]string, int, error)
}

// IngestServiceImpl provides the implementation for IngestService.
type IngestServiceImpl struct {
	logger *slog.Logger
}

// NewIngestService creates a new ingest service instance.
func NewIngestService(logger *slog.Logger) *IngestServiceImpl {
	return &IngestServiceImpl{logger: logger}
}

// ParseExport decodes a saved-places export and normalizes every record,
// returning the usable place names and the total record count. Records that
// yield no name are skipped; an export where nothing survives is an error.
func (s *IngestServiceImpl) ParseExport(ctx context.Context, r io.Reader) ([]string, int, error) {
	ctx, span := otel.Tracer("IngestService").Start(ctx, "ParseExport")
	defer span.End()

	l := s.logger.With(slog.String("method", "ParseExport"))

	var payload any
	if err := json.NewDecoder(r).Decode(&payload); err != nil {
		l.WarnContext(ctx, "Export is not valid JSON", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Invalid JSON")
		return nil, 0, fmt.Errorf("%w: %v", types.ErrInvalidExportFormat, err)
	}

	records, err := recordsOf(payload)
	if err != nil {
		l.WarnContext(ctx, "Export has an unrecognised container shape")
		span.RecordError(err)
		span.SetStatus(codes.Error, "Unrecognised container")
		return nil, 0, err
	}

	names := make([]string, 0, len(records))
	skipped := 0
	for _, element := range records {
		rec, ok := element.(map[string]any)
		if !ok {
			skipped++
			continue
		}
		name, ok := NormalizeRecord(types.ExportRecord(rec))
		if !ok {
			skipped++
			continue
		}
		names = append(names, name)
	}

	m := metrics.Get()
	m.ExportRecordsNormalized.Add(ctx, int64(len(names)))
	m.ExportRecordsSkipped.Add(ctx, int64(skipped))

	span.SetAttributes(
		attribute.Int("export.records", len(records)),
		attribute.Int("export.usable", len(names)),
		attribute.Int("export.skipped", skipped),
	)

	if len(names) == 0 {
		l.WarnContext(ctx, "Export contained no usable records",
			slog.Int("total_records", len(records)))
		span.SetStatus(codes.Error, "No usable places")
		return nil, len(records), types.ErrNoUsablePlaces
	}

	l.InfoContext(ctx, "Export parsed",
		slog.Int("total_records", len(records)),
		slog.Int("usable", len(names)),
		slog.Int("skipped", skipped))
	span.SetStatus(codes.Ok, "Export parsed")
	return names, len(records), nil
}

// recordsOf accepts the two container shapes exports come in: a bare array
// of records, or an object wrapping the array under "features".
func recordsOf(payload any) ([]any, error) {
	switch v := payload.(type) {
	case []any:
		return v, nil
	case map[string]any:
		if features, ok := v["features"].([]any); ok {
			return features, nil
		}
		return nil, fmt.Errorf("%w: object has no features array", types.ErrInvalidExportFormat)
	default:
		return nil, fmt.Errorf("%w: top level must be an array or object", types.ErrInvalidExportFormat)
	}
}
