package catalog

import (
	"context"
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/shared"
	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/verification"
	"github.com/google/uuid"
)

// UploadArchive keeps the original uploaded files
type UploadArchive interface {
	Put(ctx context.Context, batchID uuid.UUID, fileName string, data []byte) (string, error)
	DownloadURL(ctx context.Context, objectKey string) (string, time.Time, error)
	Delete(ctx context.Context, objectKey string) error
}

// PipelineRecorder receives pipeline measurements. Keys are plain strings
// so the recorder does not depend on domain types.
type PipelineRecorder interface {
	RecordVerdicts(ctx context.Context, counts map[string]int)
	RecordPlan(ctx context.Context, counts map[string]int)
	RecordApproval(ctx context.Context, outcome string)
	RecordCommit(ctx context.Context, applied, stale, failed int)
	ObserveStage(ctx context.Context, stage string, d time.Duration)
}

// EngineSource hands out the verification engine currently in force
type EngineSource interface {
	Engine() *verification.Engine
}

// Pipeline stage names reported to the PipelineRecorder
const (
	StageDecode    = "decode"
	StageNormalize = "normalize"
	StageVerify    = "verify"
	StageReconcile = "reconcile"
	StageCommit    = "commit"
)

type nopRecorder struct{}

func (nopRecorder) RecordVerdicts(context.Context, map[string]int)      {}
func (nopRecorder) RecordPlan(context.Context, map[string]int)          {}
func (nopRecorder) RecordApproval(context.Context, string)              {}
func (nopRecorder) RecordCommit(context.Context, int, int, int)         {}
func (nopRecorder) ObserveStage(context.Context, string, time.Duration) {}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, ...shared.DomainEvent) error { return nil }
