package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"datesshop/internal/domain/model"
	repo "datesshop/internal/repository"

	"github.com/rs/zerolog"
)

const productVersionKey = "products:ver"

type cachedPage struct {
	Items []model.Product `json:"items"`
	Total int64           `json:"total"`
}

// 公開商品一覧のcache-aside。書き込みのたびにバージョンを上げて古いキーを捨てる
// キャッシュの失敗はDBにフォールバックする
type ProductRepository struct {
	repo.ProductRepository
	cache Cache
	ttl   time.Duration
	log   zerolog.Logger
}

func NewProductRepository(inner repo.ProductRepository, c Cache, ttl time.Duration, log zerolog.Logger) *ProductRepository {
	return &ProductRepository{ProductRepository: inner, cache: c, ttl: ttl, log: log}
}

func (r *ProductRepository) version(ctx context.Context) (string, error) {
	b, err := r.cache.Get(ctx, productVersionKey)
	if errors.Is(err, ErrMiss) {
		return "0", nil
	}
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func listKey(ver string, q repo.ProductListQuery) string {
	raw, _ := json.Marshal(q)
	sum := sha1.Sum(raw)
	return fmt.Sprintf("products:v%s:list:%s", ver, hex.EncodeToString(sum[:]))
}

func (r *ProductRepository) ListPublic(ctx context.Context, q repo.ProductListQuery) ([]model.Product, int64, error) {
	ver, err := r.version(ctx)
	if err != nil {
		r.log.Warn().Err(err).Msg("product cache unavailable")
		return r.ProductRepository.ListPublic(ctx, q)
	}
	key := listKey(ver, q)

	if b, err := r.cache.Get(ctx, key); err == nil {
		var p cachedPage
		if json.Unmarshal(b, &p) == nil {
			return p.Items, p.Total, nil
		}
	} else if !errors.Is(err, ErrMiss) {
		r.log.Warn().Err(err).Str("key", key).Msg("product cache get failed")
	}

	items, total, err := r.ProductRepository.ListPublic(ctx, q)
	if err != nil {
		return items, total, err
	}

	if b, err := json.Marshal(cachedPage{Items: items, Total: total}); err == nil {
		if err := r.cache.Set(ctx, key, b, r.ttl); err != nil {
			r.log.Warn().Err(err).Str("key", key).Msg("product cache set failed")
		}
	}
	return items, total, nil
}

// 一覧キャッシュを無効化
func (r *ProductRepository) Invalidate(ctx context.Context) error {
	_, err := r.cache.Incr(ctx, productVersionKey)
	return err
}

func (r *ProductRepository) Create(ctx context.Context, p model.Product) (model.Product, error) {
	created, err := r.ProductRepository.Create(ctx, p)
	if err == nil {
		r.invalidate(ctx)
	}
	return created, err
}

func (r *ProductRepository) Update(ctx context.Context, p model.Product) error {
	err := r.ProductRepository.Update(ctx, p)
	if err == nil {
		r.invalidate(ctx)
	}
	return err
}

func (r *ProductRepository) SoftDelete(ctx context.Context, id int64) error {
	err := r.ProductRepository.SoftDelete(ctx, id)
	if err == nil {
		r.invalidate(ctx)
	}
	return err
}

func (r *ProductRepository) invalidate(ctx context.Context) {
	if err := r.Invalidate(ctx); err != nil {
		r.log.Warn().Err(err).Msg("product cache invalidate failed")
	}
}

// lookup一覧のキャッシュ（kind + includeInactive 単位）
type LookupRepository struct {
	repo.LookupRepository
	cache Cache
	ttl   time.Duration
	log   zerolog.Logger
}

const lookupVersionKey = "lookups:ver"

func NewLookupRepository(inner repo.LookupRepository, c Cache, ttl time.Duration, log zerolog.Logger) *LookupRepository {
	return &LookupRepository{LookupRepository: inner, cache: c, ttl: ttl, log: log}
}

func (r *LookupRepository) List(ctx context.Context, kind model.LookupKind, includeInactive bool) ([]model.Lookup, error) {
	if includeInactive {
		// 管理画面は常にDB
		return r.LookupRepository.List(ctx, kind, includeInactive)
	}

	ver := "0"
	if b, err := r.cache.Get(ctx, lookupVersionKey); err == nil {
		ver = string(b)
	} else if !errors.Is(err, ErrMiss) {
		r.log.Warn().Err(err).Msg("lookup cache unavailable")
		return r.LookupRepository.List(ctx, kind, includeInactive)
	}
	key := "lookups:v" + ver + ":" + string(kind)

	if b, err := r.cache.Get(ctx, key); err == nil {
		var items []model.Lookup
		if json.Unmarshal(b, &items) == nil {
			return items, nil
		}
	}

	items, err := r.LookupRepository.List(ctx, kind, includeInactive)
	if err != nil {
		return items, err
	}
	if b, err := json.Marshal(items); err == nil {
		if err := r.cache.Set(ctx, key, b, r.ttl); err != nil {
			r.log.Warn().Err(err).Str("key", key).Msg("lookup cache set failed")
		}
	}
	return items, nil
}

func (r *LookupRepository) Create(ctx context.Context, l model.Lookup) (model.Lookup, error) {
	created, err := r.LookupRepository.Create(ctx, l)
	if err == nil {
		r.bump(ctx)
	}
	return created, err
}

func (r *LookupRepository) Update(ctx context.Context, l model.Lookup) error {
	err := r.LookupRepository.Update(ctx, l)
	if err == nil {
		r.bump(ctx)
	}
	return err
}

func (r *LookupRepository) Delete(ctx context.Context, id int64) error {
	err := r.LookupRepository.Delete(ctx, id)
	if err == nil {
		r.bump(ctx)
	}
	return err
}

func (r *LookupRepository) bump(ctx context.Context) {
	if _, err := r.cache.Incr(ctx, lookupVersionKey); err != nil {
		r.log.Warn().Err(err).Msg("lookup cache invalidate failed")
	}
}
