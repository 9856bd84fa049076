package server

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/gym-slots/internal/common"
	"github.com/joseph-ayodele/gym-slots/internal/pipeline"
)

const (
	IngestionServiceName = "gymslots.v1.IngestionService"
	IngestSourceMethod   = "/" + IngestionServiceName + "/IngestSource"
)

// IngestionServer ingests one source per call. Requests and responses are
// google.protobuf.Struct with the same fields as POST /api/parse-pdf.
type IngestionServer interface {
	IngestSource(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

var IngestionServiceDesc = grpc.ServiceDesc{
	ServiceName: IngestionServiceName,
	HandlerType: (*IngestionServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "IngestSource", Handler: ingestSourceHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gymslots/v1/ingestion.proto",
}

func ingestSourceHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(IngestionServer).IngestSource(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: IngestSourceMethod}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(IngestionServer).IngestSource(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

// IngestSource calls the ingestion service over conn.
func IngestSource(ctx context.Context, conn grpc.ClientConnInterface, sourceID, url string) (*structpb.Struct, error) {
	in, err := structpb.NewStruct(map[string]interface{}{"sourceId": sourceID, "url": url})
	if err != nil {
		return nil, err
	}
	out := new(structpb.Struct)
	if err := conn.Invoke(ctx, IngestSourceMethod, in, out); err != nil {
		return nil, err
	}
	return out, nil
}

type IngestionService struct {
	ingester Ingester
	logger   *slog.Logger
}

func NewIngestionService(ing Ingester, logger *slog.Logger) *IngestionService {
	if logger == nil {
		logger = slog.Default()
	}
	return &IngestionService{ingester: ing, logger: logger}
}

func (s *IngestionService) IngestSource(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	fields := req.GetFields()
	sourceID := strings.TrimSpace(fields["sourceId"].GetStringValue())
	url := strings.TrimSpace(fields["url"].GetStringValue())
	v := common.NewValidator().
		Field("sourceId", sourceID, common.Required).
		Field("url", url, common.Required)
	if err := common.ValidateAndReturnError(v); err != nil {
		s.logger.Error("grpc.ingest.invalid", "error", err)
		return nil, err
	}

	s.logger.Info("grpc.ingest.start", "source_id", sourceID, "url", url)
	res, err := s.ingester.Ingest(ctx, pipeline.Request{SourceID: sourceID, URL: url})
	if err != nil {
		s.logger.Error("grpc.ingest.failed", "source_id", sourceID, "error", err)
		return nil, ingestStatus(err)
	}

	errs := make([]interface{}, 0, len(res.Errors))
	for _, e := range res.Errors {
		errs = append(errs, e)
	}
	return structpb.NewStruct(map[string]interface{}{
		"success":     true,
		"gymId":       res.GymID,
		"slotsAdded":  res.SlotsAdded,
		"slotsFailed": res.SlotsFailed,
		"errors":      errs,
	})
}

// ingestStatus maps a failed run to a gRPC status.
func ingestStatus(err error) error {
	msg := "Failed to parse PDF: " + err.Error()
	switch {
	case errors.Is(err, common.ErrNotFound):
		return common.NotFoundError(msg)
	case common.IsCode(err, common.CodeConfig):
		return status.Error(codes.FailedPrecondition, msg)
	case common.IsCode(err, common.CodeFetch), common.IsCode(err, common.CodeAIService):
		return status.Error(codes.Unavailable, msg)
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, msg)
	default:
		return common.InternalError(msg)
	}
}

// NewGRPCServer registers the ingestion and health services.
func NewGRPCServer(ing Ingester, logger *slog.Logger) (*grpc.Server, *health.Server) {
	if logger == nil {
		logger = slog.Default()
	}
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(loggingInterceptor(logger)))
	s.RegisterService(&IngestionServiceDesc, NewIngestionService(ing, logger))

	hs := health.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	hs.SetServingStatus(IngestionServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(s, hs)
	return s, hs
}

func loggingInterceptor(logger *slog.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("grpc.request",
			"method", info.FullMethod,
			"code", status.Code(err).String(),
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return resp, err
	}
}
