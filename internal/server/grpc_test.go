package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/joseph-ayodele/gym-slots/internal/common"
	"github.com/joseph-ayodele/gym-slots/internal/pipeline"
)

func dialBufconn(t *testing.T, ing Ingester) *grpc.ClientConn {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	lis := bufconn.Listen(1 << 20)
	srv, _ := NewGRPCServer(ing, logger)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(context.Context, string) (net.Conn, error) { return lis.Dial() }),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestGRPC_IngestSource(t *testing.T) {
	ing := &stubIngester{res: pipeline.Result{GymID: "gym_1", SlotsAdded: 2, Errors: []string{"Sport not found: 水泳"}}}
	conn := dialBufconn(t, ing)

	out, err := IngestSource(context.Background(), conn, "source_1", "https://example.com/a.pdf")
	if err != nil {
		t.Fatalf("IngestSource: %v", err)
	}
	f := out.GetFields()
	if !f["success"].GetBoolValue() || f["gymId"].GetStringValue() != "gym_1" {
		t.Fatalf("response = %v", out)
	}
	if f["slotsAdded"].GetNumberValue() != 2 || f["slotsFailed"].GetNumberValue() != 0 {
		t.Fatalf("counts = %v", out)
	}
	if len(f["errors"].GetListValue().GetValues()) != 1 {
		t.Fatalf("errors = %v", f["errors"])
	}
	if len(ing.reqs) != 1 || ing.reqs[0].SourceID != "source_1" {
		t.Fatalf("reqs = %+v", ing.reqs)
	}
}

func TestGRPC_IngestSourceErrors(t *testing.T) {
	tests := []struct {
		name     string
		sourceID string
		url      string
		err      error
		want     codes.Code
	}{
		{"missing url", "source_1", "", nil, codes.InvalidArgument},
		{"missing source", "", "https://example.com/a.pdf", nil, codes.InvalidArgument},
		{"unknown source", "source_1", "https://example.com/a.pdf",
			&pipeline.StageError{Stage: pipeline.StageUpdateSource, Err: common.ErrNotFound}, codes.NotFound},
		{"fetch", "source_1", "https://example.com/a.pdf",
			&pipeline.StageError{Stage: pipeline.StageFetch, Err: common.FetchError("https://example.com/a.pdf", 503, nil)}, codes.Unavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := dialBufconn(t, &stubIngester{err: tt.err})
			_, err := IngestSource(context.Background(), conn, tt.sourceID, tt.url)
			if status.Code(err) != tt.want {
				t.Fatalf("code = %v (%v), want %v", status.Code(err), err, tt.want)
			}
		})
	}
}

func TestGRPC_Health(t *testing.T) {
	conn := dialBufconn(t, &stubIngester{})
	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: IngestionServiceName})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_SERVING {
		t.Fatalf("status = %v", resp.GetStatus())
	}
}

func TestIngestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want codes.Code
	}{
		{"not found", common.ErrNotFound, codes.NotFound},
		{"config", &pipeline.StageError{Stage: pipeline.StageExtractSlots, Err: common.ConfigError("DEEPSEEK_API_KEY is not set")}, codes.FailedPrecondition},
		{"fetch", common.FetchError("u", 500, nil), codes.Unavailable},
		{"ai service", &pipeline.StageError{Stage: pipeline.StageExtractSlots, Err: common.AIServiceError("down", nil)}, codes.Unavailable},
		{"deadline", fmt.Errorf("fetch: %w", context.DeadlineExceeded), codes.DeadlineExceeded},
		{"ai parse", common.AIParseError("bad reply", nil), codes.Internal},
		{"other", errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ingestStatus(tt.err)
			if got := status.Code(err); got != tt.want {
				t.Fatalf("code = %v, want %v", got, tt.want)
			}
			if !strings.HasPrefix(status.Convert(err).Message(), "Failed to parse PDF: ") {
				t.Fatalf("message = %q", status.Convert(err).Message())
			}
		})
	}
}
