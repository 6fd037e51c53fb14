package parcel

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"landq/internal/events"
	"landq/internal/platform/metrics"
	dErrors "landq/pkg/domain-errors"
	"landq/pkg/requestcontext"
)

// Renderer captures a boundary polygon to a temp PNG and returns its path.
type Renderer interface {
	Render(ctx context.Context, coords [][2]float64) (string, error)
}

// Pinner pushes payloads to the content-addressed store.
type Pinner interface {
	Pin(ctx context.Context, data []byte, filename, contentType string) (string, error)
	URI(contentID string) string
	GatewayURL(contentID string) string
}

// Service sequences render, upload and compose into one request/response
// unit. The steps are logically atomic but not infrastructurally so: an
// artifact pinned before a later failing step stays pinned. Content-addressed
// orphans are inert, so no rollback is attempted.
type Service struct {
	renderer Renderer
	pins     Pinner
	emitter  events.Emitter
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   trace.Tracer
}

// NewService wires the creation pipeline.
func NewService(renderer Renderer, pins Pinner, emitter events.Emitter, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		renderer: renderer,
		pins:     pins,
		emitter:  emitter,
		logger:   logger,
		metrics:  m,
		tracer:   otel.Tracer("landq/parcel"),
	}
}

// Create runs the full pipeline. Input errors reject before any external
// call; upstream failures abort the remaining steps.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if req.Country == "" || req.State == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "missing required fields: country or state")
	}

	var coords [][2]float64
	if err := json.Unmarshal([]byte(req.CoordinatesJSON), &coords); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "coordinates must be a JSON array of [lat,lng] pairs")
	}
	if len(coords) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "coordinates must contain at least one point")
	}

	now := requestcontext.Now(ctx)
	stamp := now.UnixMilli()

	imageCID, err := s.renderAndPinSnapshot(ctx, coords, stamp)
	if err != nil {
		return nil, err
	}

	documentCID := ""
	if len(req.Document) > 0 {
		documentCID, err = s.pinDocument(ctx, req)
		if err != nil {
			return nil, err
		}
	}

	metadata := Compose(req, coords, imageCID, documentCID, now)

	metadataCID, err := s.pinMetadata(ctx, metadata, stamp)
	if err != nil {
		return nil, err
	}

	s.metrics.ParcelsCreated.Inc()
	s.emitter.Emit(events.Event{
		Type:      events.TypeParcelCreated,
		RequestID: requestcontext.RequestID(ctx),
	})
	s.logger.InfoContext(ctx, "parcel metadata published",
		"request_id", requestcontext.RequestID(ctx),
		"metadata_cid", metadataCID,
		"image_cid", imageCID,
		"has_document", documentCID != "",
	)

	result := &CreateResult{
		MetadataURI: s.pins.URI(metadataCID),
		Metadata:    metadata,
		Gateway: GatewayLinks{
			Image:    s.pins.GatewayURL(imageCID),
			Metadata: s.pins.GatewayURL(metadataCID),
		},
	}
	if documentCID != "" {
		result.Gateway.Document = s.pins.GatewayURL(documentCID)
	}
	return result, nil
}

// renderAndPinSnapshot renders the snapshot and pins it. The local capture is
// deleted unconditionally once the pin attempt finishes, success or failure.
func (s *Service) renderAndPinSnapshot(ctx context.Context, coords [][2]float64, stamp int64) (string, error) {
	ctx, span := s.tracer.Start(ctx, "snapshot.render",
		trace.WithAttributes(attribute.Int("vertices", len(coords))))
	start := time.Now()
	path, err := s.renderer.Render(ctx, coords)
	s.metrics.SnapshotDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.End()
		s.metrics.PipelineFailures.WithLabelValues("render").Inc()
		return "", dErrors.Wrap(dErrors.CodeUpstream, "snapshot rendering failed", err)
	}
	span.End()
	defer os.Remove(path)

	data, err := os.ReadFile(path)
	if err != nil {
		s.metrics.PipelineFailures.WithLabelValues("render").Inc()
		return "", dErrors.Wrap(dErrors.CodeInternal, "snapshot unreadable", err)
	}

	cid, err := s.pin(ctx, data, fmt.Sprintf("snapshot-%d.png", stamp), "image/png")
	if err != nil {
		s.metrics.PipelineFailures.WithLabelValues("pin_image").Inc()
		return "", err
	}
	return cid, nil
}

func (s *Service) pinDocument(ctx context.Context, req CreateRequest) (string, error) {
	contentType := req.DocumentType
	if contentType == "" {
		contentType = "application/pdf"
	}
	cid, err := s.pin(ctx, req.Document, req.DocumentName, contentType)
	if err != nil {
		s.metrics.PipelineFailures.WithLabelValues("pin_document").Inc()
		return "", err
	}
	return cid, nil
}

func (s *Service) pinMetadata(ctx context.Context, metadata Metadata, stamp int64) (string, error) {
	payload, err := json.Marshal(metadata)
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeInternal, "encode metadata", err)
	}
	cid, err := s.pin(ctx, payload, fmt.Sprintf("metadata-%d.json", stamp), "application/json")
	if err != nil {
		s.metrics.PipelineFailures.WithLabelValues("pin_metadata").Inc()
		return "", err
	}
	return cid, nil
}

func (s *Service) pin(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "cas.pin",
		trace.WithAttributes(
			attribute.String("filename", filename),
			attribute.Int("bytes", len(data)),
		))
	defer span.End()

	start := time.Now()
	cid, err := s.pins.Pin(ctx, data, filename, contentType)
	s.metrics.PinDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		return "", dErrors.Wrap(dErrors.CodeUpstream, "upload failed", err)
	}
	return cid, nil
}
