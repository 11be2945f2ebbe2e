package domain

import (
	"strings"
	"time"
)

// DealCategory описывает категорию предложения.
type DealCategory string

const (
	CategorySubscription DealCategory = "subscription"
	CategoryMembership   DealCategory = "membership"
	CategoryReward       DealCategory = "reward"
	CategoryCinema       DealCategory = "cinema"
	CategoryGym          DealCategory = "gym"
	CategoryRestaurant   DealCategory = "restaurant"
	CategoryVouchers     DealCategory = "vouchers"
	CategoryDiscounts    DealCategory = "discounts"
	CategoryOther        DealCategory = "other"
)

var knownCategories = map[DealCategory]struct{}{
	CategorySubscription: {},
	CategoryMembership:   {},
	CategoryReward:       {},
	CategoryCinema:       {},
	CategoryGym:          {},
	CategoryRestaurant:   {},
	CategoryVouchers:     {},
	CategoryDiscounts:    {},
	CategoryOther:        {},
}

// ParseCategory нормализует категорию; неизвестные значения сводятся к other.
func ParseCategory(raw string) DealCategory {
	c := DealCategory(strings.ToLower(strings.TrimSpace(raw)))
	if _, ok := knownCategories[c]; ok {
		return c
	}
	return CategoryOther
}

// DealStatus описывает жизненный цикл предложения. Статус хранится в БД и
// не пересчитывается автоматически при истечении срока.
type DealStatus string

const (
	DealStatusActive  DealStatus = "active"
	DealStatusClaimed DealStatus = "claimed"
	DealStatusExpired DealStatus = "expired"
)

// Profile — read-only проекция владельца предложения.
type Profile struct {
	ID          string
	DisplayName string
	AvatarURL   string
	IsAdmin     bool
	CreatedAt   time.Time
}

// Deal описывает предложение с ограниченным числом слотов.
// Цены хранятся в минорных единицах.
type Deal struct {
	ID            string
	Title         string
	Description   string
	Category      DealCategory
	Tags          []string
	OriginalPrice int64
	SharePrice    int64
	IsForSale     bool
	TotalSlots    int
	ClaimsCount   int
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ExpiryDate    *time.Time
	Status        DealStatus
	SharedBy      *Profile
	ImageURL      string
	VoucherURL    string
}

// IsFree сообщает, отдаётся ли предложение бесплатно.
func (d Deal) IsFree() bool { return !d.IsForSale }

// AvailableSlots пересчитывается при каждом чтении и не опускается ниже нуля.
func (d Deal) AvailableSlots() int {
	free := d.TotalSlots - d.ClaimsCount
	if free < 0 {
		return 0
	}
	return free
}

// ExpiringSoon — отображаемый флаг «скоро истекает», статус при этом не меняется.
func (d Deal) ExpiringSoon(now time.Time) bool {
	if d.ExpiryDate == nil {
		return false
	}
	cutoff := now.AddDate(0, 0, 7)
	return !d.ExpiryDate.After(cutoff)
}

// Claim фиксирует занятие одного слота. Запись неизменяема, пути «unclaim» нет.
type Claim struct {
	ID        string
	DealID    string
	UserID    string
	ClaimedAt time.Time
}

// Favorite — закладка пользователя, независимая от claim.
type Favorite struct {
	DealID    string
	UserID    string
	CreatedAt time.Time
}

// ContactMessage — сообщение из формы обратной связи.
type ContactMessage struct {
	ID        string
	Name      string
	Email     string
	Message   string
	CreatedAt time.Time
}

// UserConsent фиксирует согласие пользователя (cookies, рассылка и т.п.).
type UserConsent struct {
	UserID     string
	Kind       string
	Granted    bool
	RecordedAt time.Time
}

// AdminStats — агрегаты для админской панели.
type AdminStats struct {
	TotalDeals    int
	ActiveDeals   int
	TotalClaims   int
	TotalUsers    int
	ClaimsToday   int
	DealsThisWeek int
}
