package catalog

import (
	"sort"
	"strings"
	"time"

	"splitclub-server/internal/domain"
)

// SortMode задаёт порядок выдачи каталога.
type SortMode string

const (
	SortNewest    SortMode = "newest"
	SortExpiring  SortMode = "expiring"
	SortPriceLow  SortMode = "price-low"
	SortPriceHigh SortMode = "price-high"
	SortPopular   SortMode = "popular"
)

// ExpiryWindow ограничивает выдачу близкими к истечению предложениями.
// Ноль означает «без ограничения».
type ExpiryWindow int

const (
	ExpiryAny    ExpiryWindow = 0
	ExpiryWeek   ExpiryWindow = 7
	ExpiryTwoWk  ExpiryWindow = 14
	ExpiryMonth  ExpiryWindow = 30
)

// FilterState — состояние фильтров каталога. Нулевое значение ничего
// не фильтрует.
type FilterState struct {
	Categories    []domain.DealCategory
	PriceMin      int64
	PriceMax      int64 // 0 — без верхней границы
	OnlyFree      bool
	AvailableOnly bool
	ExpiringIn    ExpiryWindow
	Sort          SortMode
}

// Apply прогоняет список предложений через фильтры, поиск и сортировку.
// Чистая функция: вход не модифицируется, порядок сортировки стабильный.
// Битые записи (пустой id, отсутствующий владелец) молча пропускаются.
func Apply(deals []domain.Deal, state FilterState, searchQuery, excludeUserID string, now time.Time) []domain.Deal {
	search := strings.ToLower(strings.TrimSpace(searchQuery))

	out := make([]domain.Deal, 0, len(deals))
	for _, deal := range deals {
		if deal.ID == "" || deal.SharedBy == nil {
			continue
		}
		if excludeUserID != "" && deal.SharedBy.ID == excludeUserID {
			continue
		}
		if !matchCategory(deal, state.Categories) {
			continue
		}
		if !matchPrice(deal, state) {
			continue
		}
		if state.AvailableOnly && (deal.Status != domain.DealStatusActive || deal.AvailableSlots() == 0) {
			continue
		}
		if !matchExpiry(deal, state.ExpiringIn, now) {
			continue
		}
		if !matchSearch(deal, search) {
			continue
		}
		out = append(out, deal)
	}

	sortDeals(out, state.Sort)
	return out
}

func matchCategory(deal domain.Deal, categories []domain.DealCategory) bool {
	if len(categories) == 0 {
		return true
	}
	for _, c := range categories {
		if deal.Category == c {
			return true
		}
	}
	return false
}

// matchPrice: для бесплатных предложений ценовой диапазон не применяется,
// а onlyFree перекрывает диапазон целиком.
func matchPrice(deal domain.Deal, state FilterState) bool {
	if state.OnlyFree {
		return deal.IsFree()
	}
	if deal.IsFree() {
		return true
	}
	if deal.SharePrice < state.PriceMin {
		return false
	}
	if state.PriceMax > 0 && deal.SharePrice > state.PriceMax {
		return false
	}
	return true
}

// matchExpiry: граница включительная; предложения без срока выпадают из
// выдачи, когда окно задано.
func matchExpiry(deal domain.Deal, window ExpiryWindow, now time.Time) bool {
	if window == ExpiryAny {
		return true
	}
	if deal.ExpiryDate == nil {
		return false
	}
	cutoff := now.AddDate(0, 0, int(window))
	return !deal.ExpiryDate.After(cutoff)
}

func matchSearch(deal domain.Deal, search string) bool {
	if search == "" {
		return true
	}
	if strings.Contains(strings.ToLower(deal.Title), search) {
		return true
	}
	if strings.Contains(strings.ToLower(deal.Description), search) {
		return true
	}
	for _, tag := range deal.Tags {
		if strings.Contains(strings.ToLower(tag), search) {
			return true
		}
	}
	return false
}

func sortDeals(deals []domain.Deal, mode SortMode) {
	switch mode {
	case SortExpiring:
		// Без срока — в конец.
		sort.SliceStable(deals, func(i, j int) bool {
			a, b := deals[i].ExpiryDate, deals[j].ExpiryDate
			switch {
			case a == nil:
				return false
			case b == nil:
				return true
			default:
				return a.Before(*b)
			}
		})
	case SortPriceLow:
		sort.SliceStable(deals, func(i, j int) bool {
			return effectivePrice(deals[i]) < effectivePrice(deals[j])
		})
	case SortPriceHigh:
		sort.SliceStable(deals, func(i, j int) bool {
			return effectivePrice(deals[i]) > effectivePrice(deals[j])
		})
	case SortPopular:
		sort.SliceStable(deals, func(i, j int) bool {
			return deals[i].ClaimsCount > deals[j].ClaimsCount
		})
	default: // SortNewest
		sort.SliceStable(deals, func(i, j int) bool {
			return deals[i].CreatedAt.After(deals[j].CreatedAt)
		})
	}
}

func effectivePrice(deal domain.Deal) int64 {
	if deal.IsFree() {
		return 0
	}
	return deal.SharePrice
}

// ParseSort нормализует режим сортировки из query-параметра.
func ParseSort(raw string) SortMode {
	switch SortMode(strings.ToLower(strings.TrimSpace(raw))) {
	case SortExpiring:
		return SortExpiring
	case SortPriceLow:
		return SortPriceLow
	case SortPriceHigh:
		return SortPriceHigh
	case SortPopular:
		return SortPopular
	default:
		return SortNewest
	}
}

// ParseExpiryWindow принимает any|7|14|30; всё прочее означает «любой срок».
func ParseExpiryWindow(raw string) ExpiryWindow {
	switch strings.TrimSpace(raw) {
	case "7":
		return ExpiryWeek
	case "14":
		return ExpiryTwoWk
	case "30":
		return ExpiryMonth
	default:
		return ExpiryAny
	}
}
