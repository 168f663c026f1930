package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync/atomic"

	"ingredient-extractor/internal/core/ai/cache"
	"ingredient-extractor/internal/core/ai/provider"
	"ingredient-extractor/internal/pkg/common"

	"go.uber.org/zap"
)

// Service 在 Invoker 外包一層回應快取
type Service struct {
	invoker      provider.Invoker
	cache        cache.Store
	defaultModel string
	cacheType    string

	hits   atomic.Int64
	misses atomic.Int64
}

var _ provider.Invoker = (*Service)(nil)

// NewService 創建 AI 服務；cacheStore 為 nil 時不做快取
func NewService(invoker provider.Invoker, cacheStore cache.Store, defaultModel string) *Service {
	cacheType := "none"
	switch cacheStore.(type) {
	case *cache.CacheManager:
		cacheType = "memory"
	case *cache.Service:
		cacheType = "redis"
	}
	return &Service{
		invoker:      invoker,
		cache:        cacheStore,
		defaultModel: defaultModel,
		cacheType:    cacheType,
	}
}

// Invoke 先查快取，未命中時呼叫底層 Invoker 並寫回快取
func (s *Service) Invoke(ctx context.Context, prompt string, opts provider.Options) (string, error) {
	if s.invoker == nil {
		return "", common.ErrLLMDisabled
	}
	if s.cache == nil {
		return s.invoker.Invoke(ctx, prompt, opts)
	}

	key := s.cacheKey(prompt, opts)
	if val, err := s.cache.Get(ctx, key); err == nil && val != "" {
		s.hits.Add(1)
		common.LogCacheHit(s.cacheType)
		return val, nil
	} else if err != nil && !errors.Is(err, common.ErrCacheMiss) {
		common.LogWarn("快取讀取失敗", zap.Error(err))
	}
	s.misses.Add(1)
	common.LogCacheMiss(s.cacheType)

	content, err := s.invoker.Invoke(ctx, prompt, opts)
	if err != nil {
		return "", err
	}

	if err := s.cache.Set(ctx, key, content); err != nil {
		common.LogWarn("快取寫入失敗", zap.Error(err))
	}
	return content, nil
}

// Stats 返回快取命中與未命中次數
func (s *Service) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

// cacheKey 統一 prompt 空白後生成快取鍵；送出的 prompt 本身不變
func (s *Service) cacheKey(prompt string, opts provider.Options) string {
	model := opts.Model
	if model == "" {
		model = s.defaultModel
	}
	normalized := strings.Join(strings.Fields(prompt), " ")
	return cache.GenerateKey(
		model,
		normalized,
		strconv.Itoa(opts.MaxTokens),
		strconv.FormatFloat(opts.Temperature, 'f', -1, 64),
	)
}
