package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"splitclub-server/internal/domain"
	"splitclub-server/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.DealRepo           = (*Postgres)(nil)
	_ domain.ClaimRepo          = (*Postgres)(nil)
	_ domain.FavoriteRepo       = (*Postgres)(nil)
	_ domain.ProfileRepo        = (*Postgres)(nil)
	_ domain.ContactRepo        = (*Postgres)(nil)
	_ domain.StatsRepo          = (*Postgres)(nil)
	_ domain.BusinessMetricRepo = (*Postgres)(nil)
)

const uniqueViolation = "23505"

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func (p *Postgres) connCtxWithParent(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		return p.connCtx()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

const dealColumns = `id, user_id, title, description, category, tags, original_price, share_price, is_for_sale, total_slots, expiry_date, status, image_url, voucher_url, created_at, updated_at`

func scanDeal(row pgx.Row) (domain.Deal, string, error) {
	var (
		deal    domain.Deal
		ownerID string
		expiry  sql.NullTime
		image   sql.NullString
		voucher sql.NullString
	)
	err := row.Scan(&deal.ID, &ownerID, &deal.Title, &deal.Description, &deal.Category, &deal.Tags,
		&deal.OriginalPrice, &deal.SharePrice, &deal.IsForSale, &deal.TotalSlots,
		&expiry, &deal.Status, &image, &voucher, &deal.CreatedAt, &deal.UpdatedAt)
	if err != nil {
		return domain.Deal{}, "", err
	}
	if expiry.Valid {
		ts := expiry.Time
		deal.ExpiryDate = &ts
	}
	if image.Valid {
		deal.ImageURL = image.String
	}
	if voucher.Valid {
		deal.VoucherURL = voucher.String
	}
	return deal, ownerID, nil
}

// attachRefs догружает профили владельцев и счётчики claim двумя
// дополнительными запросами и сшивает их в память по id.
func (p *Postgres) attachRefs(ctx context.Context, deals []domain.Deal, owners []string) ([]domain.Deal, error) {
	if len(deals) == 0 {
		return deals, nil
	}

	ownerSet := make(map[string]struct{}, len(owners))
	ownerIDs := make([]string, 0, len(owners))
	for _, id := range owners {
		if _, ok := ownerSet[id]; ok {
			continue
		}
		ownerSet[id] = struct{}{}
		ownerIDs = append(ownerIDs, id)
	}

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, display_name, avatar_url, is_admin, created_at
FROM profiles WHERE id = ANY($1)
`, ownerIDs)
	metrics.ObserveNetworkRequest("postgres", "profiles_list_by_ids", "profiles", start, err)
	if err != nil {
		return nil, err
	}
	profiles := make(map[string]domain.Profile, len(ownerIDs))
	for rows.Next() {
		var (
			profile domain.Profile
			avatar  sql.NullString
		)
		if err := rows.Scan(&profile.ID, &profile.DisplayName, &avatar, &profile.IsAdmin, &profile.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		if avatar.Valid {
			profile.AvatarURL = avatar.String
		}
		profiles[profile.ID] = profile
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	dealIDs := make([]string, 0, len(deals))
	for _, d := range deals {
		dealIDs = append(dealIDs, d.ID)
	}
	start = time.Now()
	rows, err = p.pool.Query(ctx, `
SELECT deal_id, COUNT(*) FROM deal_claims WHERE deal_id = ANY($1) GROUP BY deal_id
`, dealIDs)
	metrics.ObserveNetworkRequest("postgres", "deal_claims_count_grouped", "deal_claims", start, err)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int, len(deals))
	for rows.Next() {
		var (
			dealID string
			count  int
		)
		if err := rows.Scan(&dealID, &count); err != nil {
			rows.Close()
			return nil, err
		}
		counts[dealID] = count
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range deals {
		deals[i].ClaimsCount = counts[deals[i].ID]
		if profile, ok := profiles[owners[i]]; ok {
			pCopy := profile
			deals[i].SharedBy = &pCopy
		}
	}
	return deals, nil
}

func (p *Postgres) listDeals(ctx context.Context, query string, args ...any) ([]domain.Deal, []string, error) {
	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	var (
		deals  []domain.Deal
		owners []string
	)
	for rows.Next() {
		deal, ownerID, err := scanDeal(rows)
		if err != nil {
			return nil, nil, err
		}
		deals = append(deals, deal)
		owners = append(owners, ownerID)
	}
	return deals, owners, rows.Err()
}

// ListActiveDeals возвращает активные предложения, свежие первыми.
// Ошибки чтения пробрасываются: пустой список и упавший запрос различимы.
func (p *Postgres) ListActiveDeals(ctx context.Context) ([]domain.Deal, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	deals, owners, err := p.listDeals(ctx, `
SELECT `+dealColumns+`
FROM deals WHERE status='active'
ORDER BY created_at DESC
`)
	metrics.ObserveNetworkRequest("postgres", "deals_list_active", "deals", start, err)
	if err != nil {
		return nil, err
	}
	return p.attachRefs(ctx, deals, owners)
}

// GetDealByID возвращает предложение со сшитым профилем и счётчиком claim.
func (p *Postgres) GetDealByID(ctx context.Context, id string) (domain.Deal, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	deal, ownerID, err := scanDeal(p.pool.QueryRow(ctx, `
SELECT `+dealColumns+`
FROM deals WHERE id=$1
`, id))
	metrics.ObserveNetworkRequest("postgres", "deals_get_by_id", "deals", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Deal{}, domain.ErrDealNotFound
	}
	if err != nil {
		return domain.Deal{}, err
	}
	deals, err := p.attachRefs(ctx, []domain.Deal{deal}, []string{ownerID})
	if err != nil {
		return domain.Deal{}, err
	}
	return deals[0], nil
}

// CreateDeal вставляет строку предложения. Файлы к этому моменту уже загружены.
func (p *Postgres) CreateDeal(ctx context.Context, deal domain.Deal) (domain.Deal, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	if deal.ID == "" {
		deal.ID = uuid.NewString()
	}
	if deal.Status == "" {
		deal.Status = domain.DealStatusActive
	}
	ownerID := ""
	if deal.SharedBy != nil {
		ownerID = deal.SharedBy.ID
	}

	var expiry any
	if deal.ExpiryDate != nil {
		expiry = *deal.ExpiryDate
	}

	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO deals (id, user_id, title, description, category, tags, original_price, share_price, is_for_sale, total_slots, expiry_date, status, image_url, voucher_url)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,NULLIF($13,''),NULLIF($14,''))
RETURNING created_at, updated_at
`, deal.ID, ownerID, deal.Title, deal.Description, deal.Category, deal.Tags,
		deal.OriginalPrice, deal.SharePrice, deal.IsForSale, deal.TotalSlots,
		expiry, deal.Status, deal.ImageURL, deal.VoucherURL).Scan(&deal.CreatedAt, &deal.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "deals_insert", "deals", start, err)
	if err != nil {
		return domain.Deal{}, err
	}

	userID := ownerID
	_ = p.saveBusinessMetric(ctx, domain.BusinessMetric{
		Event:  domain.BusinessMetricEventDealPublished,
		UserID: &userID,
		DealID: &deal.ID,
		Metadata: map[string]any{
			"category":    deal.Category,
			"total_slots": deal.TotalSlots,
			"is_for_sale": deal.IsForSale,
		},
	})
	return p.GetDealByID(ctx, deal.ID)
}

// checkOwnership проверяет существование отдельно от владения, чтобы
// «не найдено» и «не ваш» были различимыми ошибками.
func checkOwnership(ctx context.Context, tx pgx.Tx, id, userID string) error {
	var ownerID string
	start := time.Now()
	err := tx.QueryRow(ctx, `SELECT user_id FROM deals WHERE id=$1`, id).Scan(&ownerID)
	metrics.ObserveNetworkRequest("postgres", "deals_get_owner", "deals", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrDealNotFound
	}
	if err != nil {
		return err
	}
	if ownerID != userID {
		return domain.ErrNotOwner
	}
	return nil
}

// UpdateDeal применяет частичное изменение предложения владельцем.
func (p *Postgres) UpdateDeal(ctx context.Context, id, userID string, patch domain.DealPatch) (domain.Deal, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "deals", start, err)
	if err != nil {
		return domain.Deal{}, err
	}
	defer tx.Rollback(ctx)

	if err := checkOwnership(ctx, tx, id, userID); err != nil {
		return domain.Deal{}, err
	}

	var expiry any
	if patch.ExpiryDate != nil {
		expiry = *patch.ExpiryDate
	}
	var tags any
	if patch.Tags != nil {
		tags = patch.Tags
	}

	start = time.Now()
	_, err = tx.Exec(ctx, `
UPDATE deals SET
    title = COALESCE($2, title),
    description = COALESCE($3, description),
    category = COALESCE($4, category),
    tags = COALESCE($5, tags),
    original_price = COALESCE($6, original_price),
    share_price = COALESCE($7, share_price),
    is_for_sale = COALESCE($8, is_for_sale),
    expiry_date = COALESCE($9, expiry_date),
    status = COALESCE($10, status),
    image_url = NULLIF(COALESCE($11, image_url), ''),
    voucher_url = NULLIF(COALESCE($12, voucher_url), ''),
    updated_at = now()
WHERE id=$1 AND user_id=$13
`, id, patch.Title, patch.Description, patch.Category, tags,
		patch.OriginalPrice, patch.SharePrice, patch.IsForSale, expiry,
		patch.Status, patch.ImageURL, patch.VoucherURL, userID)
	metrics.ObserveNetworkRequest("postgres", "deals_update", "deals", start, err)
	if err != nil {
		return domain.Deal{}, err
	}

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "deals", start, err)
	if err != nil {
		return domain.Deal{}, err
	}
	return p.GetDealByID(ctx, id)
}

// DeleteDeal удаляет предложение владельца и возвращает удалённую строку,
// чтобы вызывающий мог подчистить файлы. Claims и favorites уходят каскадом.
func (p *Postgres) DeleteDeal(ctx context.Context, id, userID string) (domain.Deal, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	deal, err := p.GetDealByID(ctx, id)
	if err != nil {
		return domain.Deal{}, err
	}
	if deal.SharedBy == nil || deal.SharedBy.ID != userID {
		return domain.Deal{}, domain.ErrNotOwner
	}

	start := time.Now()
	res, err := p.pool.Exec(ctx, `DELETE FROM deals WHERE id=$1 AND user_id=$2`, id, userID)
	metrics.ObserveNetworkRequest("postgres", "deals_delete", "deals", start, err)
	if err != nil {
		return domain.Deal{}, err
	}
	if res.RowsAffected() == 0 {
		return domain.Deal{}, domain.ErrDealNotFound
	}

	uid := userID
	_ = p.saveBusinessMetric(ctx, domain.BusinessMetric{
		Event:  domain.BusinessMetricEventDealDeleted,
		UserID: &uid,
		DealID: &id,
	})
	return deal, nil
}

// CreateClaim занимает слот в транзакции с блокировкой строки предложения:
// два конкурентных claim не могут продать последний слот дважды.
func (p *Postgres) CreateClaim(ctx context.Context, dealID, userID string) (domain.Claim, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{})
	metrics.ObserveNetworkRequest("postgres", "begin_tx", "deal_claims", start, err)
	if err != nil {
		return domain.Claim{}, err
	}
	defer tx.Rollback(ctx)

	var (
		ownerID    string
		totalSlots int
		status     domain.DealStatus
	)
	start = time.Now()
	err = tx.QueryRow(ctx, `
SELECT user_id, total_slots, status FROM deals WHERE id=$1 FOR UPDATE
`, dealID).Scan(&ownerID, &totalSlots, &status)
	metrics.ObserveNetworkRequest("postgres", "deals_get_for_update", "deals", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Claim{}, domain.ErrDealNotFound
	}
	if err != nil {
		return domain.Claim{}, err
	}
	if ownerID == userID {
		return domain.Claim{}, domain.ErrOwnDeal
	}
	if status != domain.DealStatusActive {
		return domain.Claim{}, domain.ErrNoSlots
	}

	var claimed int
	start = time.Now()
	err = tx.QueryRow(ctx, `SELECT COUNT(*) FROM deal_claims WHERE deal_id=$1`, dealID).Scan(&claimed)
	metrics.ObserveNetworkRequest("postgres", "deal_claims_count", "deal_claims", start, err)
	if err != nil {
		return domain.Claim{}, err
	}
	if claimed >= totalSlots {
		return domain.Claim{}, domain.ErrNoSlots
	}

	claim := domain.Claim{ID: uuid.NewString(), DealID: dealID, UserID: userID}
	start = time.Now()
	err = tx.QueryRow(ctx, `
INSERT INTO deal_claims (id, deal_id, user_id)
VALUES ($1,$2,$3)
RETURNING claimed_at
`, claim.ID, dealID, userID).Scan(&claim.ClaimedAt)
	metrics.ObserveNetworkRequest("postgres", "deal_claims_insert", "deal_claims", start, err)
	if err != nil {
		if pgErr, ok := err.(*pgconn.PgError); ok && pgErr.Code == uniqueViolation {
			return domain.Claim{}, domain.ErrAlreadyClaimed
		}
		return domain.Claim{}, err
	}

	start = time.Now()
	err = tx.Commit(ctx)
	metrics.ObserveNetworkRequest("postgres", "commit", "deal_claims", start, err)
	if err != nil {
		return domain.Claim{}, err
	}

	uid := userID
	_ = p.saveBusinessMetric(ctx, domain.BusinessMetric{
		Event:  domain.BusinessMetricEventDealClaimed,
		UserID: &uid,
		DealID: &dealID,
		Metadata: map[string]any{
			"slots_left": totalSlots - claimed - 1,
		},
	})
	return claim, nil
}

// ListClaimedDeals возвращает предложения, в которых пользователь занял слот.
func (p *Postgres) ListClaimedDeals(ctx context.Context, userID string) ([]domain.Deal, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	deals, owners, err := p.listDeals(ctx, `
SELECT d.`+joinColumns()+`
FROM deals d JOIN deal_claims c ON c.deal_id = d.id
WHERE c.user_id=$1
ORDER BY c.claimed_at DESC
`, userID)
	metrics.ObserveNetworkRequest("postgres", "deals_list_claimed", "deal_claims", start, err)
	if err != nil {
		return nil, err
	}
	return p.attachRefs(ctx, deals, owners)
}

// AddFavorite добавляет закладку; повторное добавление не является ошибкой.
func (p *Postgres) AddFavorite(ctx context.Context, dealID, userID string) (bool, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	res, err := p.pool.Exec(ctx, `
INSERT INTO deal_favorites (deal_id, user_id)
VALUES ($1,$2)
ON CONFLICT (deal_id, user_id) DO NOTHING
`, dealID, userID)
	metrics.ObserveNetworkRequest("postgres", "deal_favorites_add", "deal_favorites", start, err)
	if err != nil {
		return false, err
	}
	return res.RowsAffected() > 0, nil
}

// RemoveFavorite удаляет закладку.
func (p *Postgres) RemoveFavorite(ctx context.Context, dealID, userID string) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `DELETE FROM deal_favorites WHERE deal_id=$1 AND user_id=$2`, dealID, userID)
	metrics.ObserveNetworkRequest("postgres", "deal_favorites_remove", "deal_favorites", start, err)
	return err
}

// ListFavoriteDeals возвращает закладки пользователя.
func (p *Postgres) ListFavoriteDeals(ctx context.Context, userID string) ([]domain.Deal, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	deals, owners, err := p.listDeals(ctx, `
SELECT d.`+joinColumns()+`
FROM deals d JOIN deal_favorites f ON f.deal_id = d.id
WHERE f.user_id=$1
ORDER BY f.created_at DESC
`, userID)
	metrics.ObserveNetworkRequest("postgres", "deals_list_favorites", "deal_favorites", start, err)
	if err != nil {
		return nil, err
	}
	return p.attachRefs(ctx, deals, owners)
}

// GetProfile возвращает профиль по id.
func (p *Postgres) GetProfile(ctx context.Context, id string) (domain.Profile, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var (
		profile domain.Profile
		avatar  sql.NullString
	)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, display_name, avatar_url, is_admin, created_at
FROM profiles WHERE id=$1
`, id).Scan(&profile.ID, &profile.DisplayName, &avatar, &profile.IsAdmin, &profile.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "profiles_get_by_id", "profiles", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.Profile{}, err
	}
	if avatar.Valid {
		profile.AvatarURL = avatar.String
	}
	return profile, nil
}

// UpsertProfile сохраняет профиль.
func (p *Postgres) UpsertProfile(ctx context.Context, profile domain.Profile) (domain.Profile, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	if profile.ID == "" {
		profile.ID = uuid.NewString()
	}
	var avatar sql.NullString
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO profiles (id, display_name, avatar_url, is_admin)
VALUES ($1,$2,NULLIF($3,''),$4)
ON CONFLICT (id) DO UPDATE SET display_name=EXCLUDED.display_name, avatar_url=EXCLUDED.avatar_url
RETURNING id, display_name, avatar_url, is_admin, created_at
`, profile.ID, profile.DisplayName, profile.AvatarURL, profile.IsAdmin).
		Scan(&profile.ID, &profile.DisplayName, &avatar, &profile.IsAdmin, &profile.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "profiles_upsert", "profiles", start, err)
	if err != nil {
		return domain.Profile{}, err
	}
	profile.AvatarURL = ""
	if avatar.Valid {
		profile.AvatarURL = avatar.String
	}
	return profile, nil
}

// CreateContactMessage сохраняет сообщение обратной связи.
func (p *Postgres) CreateContactMessage(ctx context.Context, msg domain.ContactMessage) (domain.ContactMessage, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO contact_messages (id, name, email, message)
VALUES ($1,$2,$3,$4)
RETURNING created_at
`, msg.ID, msg.Name, msg.Email, msg.Message).Scan(&msg.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "contact_messages_insert", "contact_messages", start, err)
	if err != nil {
		return domain.ContactMessage{}, err
	}
	return msg, nil
}

// RecordConsent сохраняет или обновляет согласие пользователя.
func (p *Postgres) RecordConsent(ctx context.Context, consent domain.UserConsent) error {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO user_consents (user_id, kind, granted, recorded_at)
VALUES ($1,$2,$3,now())
ON CONFLICT (user_id, kind) DO UPDATE SET granted=EXCLUDED.granted, recorded_at=now()
`, consent.UserID, consent.Kind, consent.Granted)
	metrics.ObserveNetworkRequest("postgres", "user_consents_upsert", "user_consents", start, err)
	return err
}

// AdminStats собирает агрегаты для админской панели одним запросом.
func (p *Postgres) AdminStats(ctx context.Context, now time.Time) (domain.AdminStats, error) {
	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var stats domain.AdminStats
	dayStart := now.UTC().Truncate(24 * time.Hour)
	weekStart := dayStart.AddDate(0, 0, -7)
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT
    (SELECT COUNT(*) FROM deals),
    (SELECT COUNT(*) FROM deals WHERE status='active'),
    (SELECT COUNT(*) FROM deal_claims),
    (SELECT COUNT(*) FROM profiles),
    (SELECT COUNT(*) FROM deal_claims WHERE claimed_at >= $1),
    (SELECT COUNT(*) FROM deals WHERE created_at >= $2)
`, dayStart, weekStart).Scan(&stats.TotalDeals, &stats.ActiveDeals, &stats.TotalClaims,
		&stats.TotalUsers, &stats.ClaimsToday, &stats.DealsThisWeek)
	metrics.ObserveNetworkRequest("postgres", "admin_stats", "deals", start, err)
	return stats, err
}

func (p *Postgres) saveBusinessMetric(ctx context.Context, metric domain.BusinessMetric) error {
	if metric.Event == "" {
		return nil
	}

	if metric.OccurredAt.IsZero() {
		metric.OccurredAt = time.Now().UTC()
	}

	ctx, cancel := p.connCtxWithParent(ctx)
	defer cancel()

	var userID sql.NullString
	if metric.UserID != nil {
		userID = sql.NullString{String: *metric.UserID, Valid: true}
	}
	var dealID sql.NullString
	if metric.DealID != nil {
		dealID = sql.NullString{String: *metric.DealID, Valid: true}
	}

	var payload []byte
	if metric.Metadata != nil {
		if data, err := json.Marshal(metric.Metadata); err == nil {
			payload = data
		}
	}

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO business_metrics (event, user_id, deal_id, metadata, occurred_at)
VALUES ($1, $2, $3, $4, $5)
`, metric.Event, userID, dealID, payload, metric.OccurredAt)
	metrics.ObserveNetworkRequest("postgres", "business_metrics_insert", "business_metrics", start, err)
	return err
}

// RecordBusinessMetric сохраняет бизнесовую метрику в БД.
func (p *Postgres) RecordBusinessMetric(ctx context.Context, metric domain.BusinessMetric) error {
	return p.saveBusinessMetric(ctx, metric)
}

func joinColumns() string {
	return `id, d.user_id, d.title, d.description, d.category, d.tags, d.original_price, d.share_price, d.is_for_sale, d.total_slots, d.expiry_date, d.status, d.image_url, d.voucher_url, d.created_at, d.updated_at`
}
