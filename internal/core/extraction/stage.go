package extraction

import (
	"context"
	"fmt"
	"time"

	"ingredient-extractor/internal/pkg/common"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Stage 管線中的單一階段；Run 失敗時由 Fallback 以確定性邏輯接手
type Stage[In, Out any] interface {
	Name() string
	Run(ctx context.Context, in In) (Out, error)
	Fallback(ctx context.Context, in In, cause error) (Out, error)
}

// stageOutcome 單一階段的執行紀錄
type stageOutcome struct {
	FallbackUsed bool
	Reason       string
}

// stageRunner 負責執行階段並記錄指標與 span
type stageRunner struct {
	metrics *Metrics
	tracer  trace.Tracer
}

// runStage 先執行 Run，失敗或 panic 時改用 Fallback；Fallback 也失敗才返回錯誤
func runStage[In, Out any](ctx context.Context, r stageRunner, s Stage[In, Out], in In) (Out, stageOutcome, error) {
	name := s.Name()
	ctx, span := r.tracer.Start(ctx, "stage."+name, trace.WithAttributes(attribute.String("stage.name", name)))
	defer span.End()

	start := time.Now()
	out, err := safeCall(func() (Out, error) { return s.Run(ctx, in) })
	if err == nil {
		r.metrics.observeStage(name, outcomePrimary, time.Since(start))
		common.LogDebug("階段完成", zap.String("stage", name), zap.Duration("duration", time.Since(start)))
		return out, stageOutcome{}, nil
	}

	reason := err.Error()
	span.RecordError(err)
	span.SetAttributes(attribute.Bool("stage.fallback", true))
	common.LogWarn("階段失敗，改用備援邏輯",
		zap.String("stage", name),
		zap.Error(err))

	fb, ferr := safeCall(func() (Out, error) { return s.Fallback(ctx, in, err) })
	if ferr != nil {
		r.metrics.observeStage(name, outcomeFailed, time.Since(start))
		span.SetStatus(codes.Error, ferr.Error())
		common.LogError("備援邏輯失敗",
			zap.String("stage", name),
			zap.Error(ferr))
		var zero Out
		return zero, stageOutcome{FallbackUsed: true, Reason: reason}, fmt.Errorf("%s fallback failed: %w", name, ferr)
	}

	r.metrics.observeStage(name, outcomeFallback, time.Since(start))
	return fb, stageOutcome{FallbackUsed: true, Reason: reason}, nil
}

// safeCall 將 panic 轉為錯誤
func safeCall[Out any](fn func() (Out, error)) (out Out, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			var zero Out
			out = zero
			err = fmt.Errorf("%w: panic: %v", common.ErrStageFailure, rec)
		}
	}()
	return fn()
}
