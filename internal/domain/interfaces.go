package domain

import (
	"context"
	"io"
	"time"
)

// DealPatch описывает частичное изменение предложения владельцем.
// nil-поля не трогаются.
type DealPatch struct {
	Title         *string
	Description   *string
	Category      *DealCategory
	Tags          []string
	OriginalPrice *int64
	SharePrice    *int64
	IsForSale     *bool
	ExpiryDate    *time.Time
	Status        *DealStatus
	ImageURL      *string
	VoucherURL    *string
}

// DealRepo управляет предложениями.
type DealRepo interface {
	ListActiveDeals(ctx context.Context) ([]Deal, error)
	GetDealByID(ctx context.Context, id string) (Deal, error)
	CreateDeal(ctx context.Context, deal Deal) (Deal, error)
	UpdateDeal(ctx context.Context, id, userID string, patch DealPatch) (Deal, error)
	DeleteDeal(ctx context.Context, id, userID string) (Deal, error)
}

// ClaimRepo управляет записями о занятых слотах.
type ClaimRepo interface {
	CreateClaim(ctx context.Context, dealID, userID string) (Claim, error)
	ListClaimedDeals(ctx context.Context, userID string) ([]Deal, error)
}

// FavoriteRepo управляет закладками.
type FavoriteRepo interface {
	AddFavorite(ctx context.Context, dealID, userID string) (bool, error)
	RemoveFavorite(ctx context.Context, dealID, userID string) error
	ListFavoriteDeals(ctx context.Context, userID string) ([]Deal, error)
}

// ProfileRepo управляет профилями.
type ProfileRepo interface {
	GetProfile(ctx context.Context, id string) (Profile, error)
	UpsertProfile(ctx context.Context, profile Profile) (Profile, error)
}

// ContactRepo сохраняет сообщения обратной связи и согласия.
type ContactRepo interface {
	CreateContactMessage(ctx context.Context, msg ContactMessage) (ContactMessage, error)
	RecordConsent(ctx context.Context, consent UserConsent) error
}

// StatsRepo возвращает агрегаты для админской панели.
type StatsRepo interface {
	AdminStats(ctx context.Context, now time.Time) (AdminStats, error)
}

// Cache — простое TTL-хранилище с явной инвалидацией.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// Бакеты объектного хранилища.
const (
	BucketDealImages   = "deal-images"
	BucketVoucherFiles = "voucher-files"
	BucketDemoVideos   = "demo-videos"
	BucketAvatars      = "avatars"
)

// FileStore — внешнее объектное хранилище. Upload возвращает стабильный
// публичный URL, Delete принимает путь внутри бакета.
type FileStore interface {
	Upload(ctx context.Context, bucket, name, contentType string, data io.Reader) (string, error)
	Delete(ctx context.Context, bucket, path string) error
}
