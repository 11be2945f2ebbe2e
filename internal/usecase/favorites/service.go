package favorites

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"splitclub-server/internal/domain"
)

// Service управляет закладками пользователя.
type Service struct {
	favorites domain.FavoriteRepo
	feed      domain.ChangeFeed
	logger    zerolog.Logger
}

func NewService(favorites domain.FavoriteRepo, feed domain.ChangeFeed, logger zerolog.Logger) *Service {
	return &Service{favorites: favorites, feed: feed, logger: logger}
}

// Add добавляет закладку. Повторное добавление — no-op без события.
func (s *Service) Add(ctx context.Context, dealID, userID string) error {
	added, err := s.favorites.AddFavorite(ctx, dealID, userID)
	if err != nil {
		return err
	}
	if added {
		s.publish(domain.ChangeEvent{Table: domain.TableFavorites, Op: domain.ChangeInsert, DealID: dealID, UserID: userID})
	}
	return nil
}

// Remove удаляет закладку.
func (s *Service) Remove(ctx context.Context, dealID, userID string) error {
	if err := s.favorites.RemoveFavorite(ctx, dealID, userID); err != nil {
		return err
	}
	s.publish(domain.ChangeEvent{Table: domain.TableFavorites, Op: domain.ChangeDelete, DealID: dealID, UserID: userID})
	return nil
}

// List возвращает закладки пользователя.
func (s *Service) List(ctx context.Context, userID string) ([]domain.Deal, error) {
	return s.favorites.ListFavoriteDeals(ctx, userID)
}

func (s *Service) publish(event domain.ChangeEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := s.feed.Publish(ctx, event); err != nil {
		s.logger.Warn().Err(err).Str("table", event.Table).Msg("не удалось опубликовать событие изменения")
	}
}
