// Package gateway adapts the provider HTTP clients to the tracker's
// Gateway contract: one status fetch plus normalization per call.
// Network and decode errors propagate so the poller can treat them as
// transient; normalization itself never fails.
package gateway

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dkhalov/genflow/internal/heygen"
	"github.com/dkhalov/genflow/internal/kieai"
	"github.com/dkhalov/genflow/internal/status"
	"github.com/dkhalov/genflow/internal/tracker"
)

// KieJobs polls the kie.ai unified jobs endpoint (Sora 2, Kling).
type KieJobs struct {
	client kieai.Client
	logger *slog.Logger
}

// NewKieJobs creates a gateway over the kie.ai jobs endpoint.
func NewKieJobs(client kieai.Client, logger *slog.Logger) *KieJobs {
	if logger == nil {
		logger = slog.Default()
	}
	return &KieJobs{client: client, logger: logger}
}

// FetchStatus fetches and normalizes the status of a jobs-endpoint task.
func (g *KieJobs) FetchStatus(ctx context.Context, taskID string) (status.Normalized, error) {
	rec, err := g.client.TaskRecordInfo(ctx, taskID)
	if err != nil {
		return status.Normalized{}, fmt.Errorf("kie jobs gateway: %w", err)
	}

	res := status.NormalizeKieJob(rec)
	logOutcome(g.logger, "kie_jobs", taskID, rec.Code, res)
	return res, nil
}

// Veo polls the kie.ai Veo record-info endpoint.
type Veo struct {
	client kieai.Client
	logger *slog.Logger
}

// NewVeo creates a gateway over the kie.ai Veo endpoint.
func NewVeo(client kieai.Client, logger *slog.Logger) *Veo {
	if logger == nil {
		logger = slog.Default()
	}
	return &Veo{client: client, logger: logger}
}

// FetchStatus fetches and normalizes the status of a Veo task.
func (g *Veo) FetchStatus(ctx context.Context, taskID string) (status.Normalized, error) {
	rec, err := g.client.VeoRecordInfo(ctx, taskID)
	if err != nil {
		return status.Normalized{}, fmt.Errorf("veo gateway: %w", err)
	}

	res := status.NormalizeVeo(rec)
	logOutcome(g.logger, "veo", taskID, rec.Code, res)
	return res, nil
}

// HeyGen polls the HeyGen video status endpoint.
type HeyGen struct {
	client heygen.Client
	logger *slog.Logger
}

// NewHeyGen creates a gateway over the HeyGen API.
func NewHeyGen(client heygen.Client, logger *slog.Logger) *HeyGen {
	if logger == nil {
		logger = slog.Default()
	}
	return &HeyGen{client: client, logger: logger}
}

// FetchStatus fetches and normalizes the status of a HeyGen video.
func (g *HeyGen) FetchStatus(ctx context.Context, videoID string) (status.Normalized, error) {
	env, err := g.client.VideoStatus(ctx, videoID)
	if err != nil {
		return status.Normalized{}, fmt.Errorf("heygen gateway: %w", err)
	}

	res := status.NormalizeHeyGen(env)
	logOutcome(g.logger, "heygen", videoID, env.Code, res)
	return res, nil
}

// logOutcome records the normalized verdict of one poll at low severity.
func logOutcome(logger *slog.Logger, family, taskID string, code int, res status.Normalized) {
	logger.Debug("status normalized",
		slog.String("family", family),
		slog.String("task_id", taskID),
		slog.Int("envelope_code", code),
		slog.String("state", string(res.State)),
		slog.String("result_url", res.ResultURL),
		slog.String("reason", res.Reason),
	)
}

// Compile-time checks that all gateways implement tracker.Gateway.
var (
	_ tracker.Gateway = (*KieJobs)(nil)
	_ tracker.Gateway = (*Veo)(nil)
	_ tracker.Gateway = (*HeyGen)(nil)
)
