package cache

// Ключи кэша. Единое место, чтобы инвалидация и чтение не разъезжались.

const CatalogKey = "catalog:deals"

func DealKey(dealID string) string {
	return "deal:" + dealID
}

func FavoritesKey(userID string) string {
	return "favorites:" + userID
}

func ClaimedKey(userID string) string {
	return "claimed:" + userID
}

func WizardDraftKey(userID string) string {
	return "wizard:" + userID
}
