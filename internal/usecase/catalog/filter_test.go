package catalog

import (
	"testing"
	"time"

	"splitclub-server/internal/domain"
)

var testNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func makeDeal(id string, mutate func(*domain.Deal)) domain.Deal {
	deal := domain.Deal{
		ID:         id,
		Title:      "Предложение " + id,
		Category:   domain.CategorySubscription,
		IsForSale:  true,
		SharePrice: 500,
		TotalSlots: 3,
		Status:     domain.DealStatusActive,
		CreatedAt:  testNow.Add(-time.Hour),
		SharedBy:   &domain.Profile{ID: "owner-" + id},
	}
	if mutate != nil {
		mutate(&deal)
	}
	return deal
}

func ids(deals []domain.Deal) []string {
	out := make([]string, len(deals))
	for i, d := range deals {
		out[i] = d.ID
	}
	return out
}

func TestApplySkipsMalformedDeals(t *testing.T) {
	deals := []domain.Deal{
		makeDeal("a", nil),
		{ID: "", SharedBy: &domain.Profile{ID: "x"}},
		{ID: "no-owner"},
	}
	got := Apply(deals, FilterState{}, "", "", testNow)
	if len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("ожидали только валидное предложение, получили %v", ids(got))
	}
}

func TestApplyExcludesOwnDeals(t *testing.T) {
	deals := []domain.Deal{
		makeDeal("mine", func(d *domain.Deal) { d.SharedBy.ID = "me" }),
		makeDeal("other", nil),
	}
	got := Apply(deals, FilterState{}, "", "me", testNow)
	if len(got) != 1 || got[0].ID != "other" {
		t.Fatalf("своё предложение должно выпадать из выдачи, получили %v", ids(got))
	}
}

func TestApplyOnlyFreeOverridesPriceRange(t *testing.T) {
	deals := []domain.Deal{
		makeDeal("free", func(d *domain.Deal) { d.IsForSale = false; d.SharePrice = 0 }),
		makeDeal("cheap", func(d *domain.Deal) { d.SharePrice = 100 }),
	}
	state := FilterState{OnlyFree: true, PriceMin: 50, PriceMax: 200}
	got := Apply(deals, state, "", "", testNow)
	if len(got) != 1 || got[0].ID != "free" {
		t.Fatalf("onlyFree должен перекрывать ценовой диапазон, получили %v", ids(got))
	}
}

func TestApplyPriceRangeIgnoresFreeDeals(t *testing.T) {
	deals := []domain.Deal{
		makeDeal("free", func(d *domain.Deal) { d.IsForSale = false }),
		makeDeal("expensive", func(d *domain.Deal) { d.SharePrice = 10_000 }),
	}
	state := FilterState{PriceMin: 0, PriceMax: 1000}
	got := Apply(deals, state, "", "", testNow)
	if len(got) != 1 || got[0].ID != "free" {
		t.Fatalf("бесплатные предложения не фильтруются по цене, получили %v", ids(got))
	}
}

func TestApplyExpiryWindowInclusiveBoundary(t *testing.T) {
	onBoundary := testNow.AddDate(0, 0, 7)
	past := testNow.AddDate(0, 0, 8)
	deals := []domain.Deal{
		makeDeal("boundary", func(d *domain.Deal) { d.ExpiryDate = &onBoundary }),
		makeDeal("beyond", func(d *domain.Deal) { d.ExpiryDate = &past }),
		makeDeal("no-expiry", nil),
	}
	got := Apply(deals, FilterState{ExpiringIn: ExpiryWeek}, "", "", testNow)
	if len(got) != 1 || got[0].ID != "boundary" {
		t.Fatalf("граница окна включительная, без срока — мимо; получили %v", ids(got))
	}
}

func TestApplySearchIsCaseInsensitiveOverTags(t *testing.T) {
	deals := []domain.Deal{
		makeDeal("tagged", func(d *domain.Deal) { d.Tags = []string{"Фитнес", "Premium"} }),
		makeDeal("plain", nil),
	}
	got := Apply(deals, FilterState{}, "pRemIum", "", testNow)
	if len(got) != 1 || got[0].ID != "tagged" {
		t.Fatalf("поиск должен находить по тегу без учёта регистра, получили %v", ids(got))
	}
}

func TestApplyAvailableOnly(t *testing.T) {
	deals := []domain.Deal{
		makeDeal("full", func(d *domain.Deal) { d.TotalSlots = 2; d.ClaimsCount = 2 }),
		makeDeal("closed", func(d *domain.Deal) { d.Status = domain.DealStatusClaimed }),
		makeDeal("open", nil),
	}
	got := Apply(deals, FilterState{AvailableOnly: true}, "", "", testNow)
	if len(got) != 1 || got[0].ID != "open" {
		t.Fatalf("ожидали только предложение со свободными слотами, получили %v", ids(got))
	}
}

func TestApplySortExpiringPutsMissingLast(t *testing.T) {
	soon := testNow.AddDate(0, 0, 1)
	later := testNow.AddDate(0, 0, 20)
	deals := []domain.Deal{
		makeDeal("none", nil),
		makeDeal("later", func(d *domain.Deal) { d.ExpiryDate = &later }),
		makeDeal("soon", func(d *domain.Deal) { d.ExpiryDate = &soon }),
	}
	got := Apply(deals, FilterState{Sort: SortExpiring}, "", "", testNow)
	want := []string{"soon", "later", "none"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("ожидали порядок %v, получили %v", want, ids(got))
		}
	}
}

func TestApplySortPriceTreatsFreeAsZero(t *testing.T) {
	deals := []domain.Deal{
		makeDeal("paid", func(d *domain.Deal) { d.SharePrice = 300 }),
		makeDeal("free", func(d *domain.Deal) { d.IsForSale = false; d.SharePrice = 9999 }),
	}
	got := Apply(deals, FilterState{Sort: SortPriceLow}, "", "", testNow)
	if got[0].ID != "free" {
		t.Fatalf("бесплатное предложение должно сортироваться как нулевая цена, получили %v", ids(got))
	}
}

func TestApplySortNewestIsDefaultAndStable(t *testing.T) {
	deals := []domain.Deal{
		makeDeal("old", func(d *domain.Deal) { d.CreatedAt = testNow.Add(-48 * time.Hour) }),
		makeDeal("same-a", func(d *domain.Deal) { d.CreatedAt = testNow.Add(-time.Hour) }),
		makeDeal("same-b", func(d *domain.Deal) { d.CreatedAt = testNow.Add(-time.Hour) }),
	}
	got := Apply(deals, FilterState{}, "", "", testNow)
	want := []string{"same-a", "same-b", "old"}
	for i, id := range want {
		if got[i].ID != id {
			t.Fatalf("ожидали порядок %v, получили %v", want, ids(got))
		}
	}
}

func TestApplyPopularSortsByClaims(t *testing.T) {
	deals := []domain.Deal{
		makeDeal("quiet", func(d *domain.Deal) { d.ClaimsCount = 0 }),
		makeDeal("hot", func(d *domain.Deal) { d.ClaimsCount = 5; d.TotalSlots = 10 }),
	}
	got := Apply(deals, FilterState{Sort: SortPopular}, "", "", testNow)
	if got[0].ID != "hot" {
		t.Fatalf("ожидали популярное первым, получили %v", ids(got))
	}
}
