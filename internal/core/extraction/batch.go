package extraction

import (
	"context"
	"time"

	"ingredient-extractor/internal/core/ingredient"
	"ingredient-extractor/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// BatchItem 批次擷取的單一食譜
type BatchItem struct {
	ID      string             `json:"id"`
	Recipe  *common.RecipeData `json:"recipe,omitempty"`
	RawText string             `json:"raw_text,omitempty"`
}

// BatchResult 批次擷取結果，順序與輸入相同
type BatchResult struct {
	ID     string            `json:"id"`
	Result *ExtractionResult `json:"result"`
}

// ExtractBatch 以有限的 worker 數並行擷取，每次啟動之間依設定延遲限速
func (o *Orchestrator) ExtractBatch(ctx context.Context, items []BatchItem, opts Options) ([]BatchResult, error) {
	results := make([]BatchResult, len(items))
	if len(items) == 0 {
		return results, nil
	}

	workers := o.cfg.Batch.Workers
	if workers <= 0 {
		workers = 1
	}
	limit := rate.Inf
	if o.cfg.Batch.Delay > 0 {
		limit = rate.Every(o.cfg.Batch.Delay)
	}
	limiter := rate.NewLimiter(limit, 1)

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i, item := range items {
		if err := limiter.Wait(gctx); err != nil {
			break
		}
		i, item := i, item
		g.Go(func() error {
			id := item.ID
			if id == "" {
				id = common.GenerateUUID()
			}
			results[i] = BatchResult{
				ID:     id,
				Result: o.ExtractIngredients(gctx, item.Recipe, item.RawText, opts),
			}
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		common.LogWarn("批次擷取已取消", zap.Error(err))
		return nil, err
	}

	common.LogInfo("Batch extraction finished",
		zap.Int("recipes", len(items)),
		zap.Int("workers", workers),
		zap.Duration("duration", time.Since(start)))
	return results, nil
}

// ConsolidateShoppingList 合併多份食譜的食材後產生一份採買清單
func ConsolidateShoppingList(results []BatchResult, minConfidence float64) []ShoppingListItem {
	var all []ingredient.CategorizedIngredient
	for _, r := range results {
		if r.Result == nil {
			continue
		}
		for _, it := range r.Result.Ingredients {
			all = append(all, it.CategorizedIngredient)
		}
	}
	merged, _ := ingredient.Deduplicate(all)
	return BuildShoppingList(merged, minConfidence)
}
