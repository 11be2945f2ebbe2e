package claims

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"splitclub-server/internal/domain"
	"splitclub-server/internal/infra/metrics"
)

// Service реализует занятие слотов. Повторных попыток нет: отклонённый
// claim возвращается вызывающему как есть.
type Service struct {
	deals  domain.DealRepo
	claims domain.ClaimRepo
	feed   domain.ChangeFeed
	queue  domain.NotifyQueue
	logger zerolog.Logger
}

func NewService(deals domain.DealRepo, claims domain.ClaimRepo, feed domain.ChangeFeed, queue domain.NotifyQueue, logger zerolog.Logger) *Service {
	return &Service{deals: deals, claims: claims, feed: feed, queue: queue, logger: logger}
}

// Claim занимает слот в предложении. Владелец отсекается до обращения к
// транзакции: своё предложение занять нельзя.
func (s *Service) Claim(ctx context.Context, dealID, userID string) (domain.Claim, error) {
	deal, err := s.deals.GetDealByID(ctx, dealID)
	if err != nil {
		if errors.Is(err, domain.ErrDealNotFound) {
			metrics.IncClaimRejection("not_found")
		}
		return domain.Claim{}, err
	}
	if deal.SharedBy != nil && deal.SharedBy.ID == userID {
		metrics.IncClaimRejection("own_deal")
		return domain.Claim{}, domain.ErrOwnDeal
	}

	claim, err := s.claims.CreateClaim(ctx, dealID, userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNoSlots):
			metrics.IncClaimRejection("no_slots")
		case errors.Is(err, domain.ErrAlreadyClaimed):
			metrics.IncClaimRejection("already_claimed")
		case errors.Is(err, domain.ErrOwnDeal):
			metrics.IncClaimRejection("own_deal")
		}
		return domain.Claim{}, err
	}

	metrics.ClaimsTotal.Inc()
	s.publish(domain.ChangeEvent{Table: domain.TableClaims, Op: domain.ChangeInsert, DealID: dealID, UserID: userID})
	s.enqueue(ctx, domain.NotificationJob{
		Kind:      domain.NotifyClaimCreated,
		DealID:    dealID,
		DealTitle: deal.Title,
		UserID:    userID,
	})
	return claim, nil
}

// ListClaimed возвращает предложения, в которых пользователь занял слот.
func (s *Service) ListClaimed(ctx context.Context, userID string) ([]domain.Deal, error) {
	return s.claims.ListClaimedDeals(ctx, userID)
}

func (s *Service) publish(event domain.ChangeEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.feed.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("table", event.Table).Msg("не удалось опубликовать событие изменения")
	}
}

func (s *Service) enqueue(ctx context.Context, job domain.NotificationJob) {
	if s.queue == nil {
		return
	}
	job.ID = uuid.NewString()
	job.RequestedAt = time.Now().UTC()
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.logger.Warn().Err(err).Str("kind", string(job.Kind)).Msg("не удалось поставить уведомление в очередь")
	}
}
