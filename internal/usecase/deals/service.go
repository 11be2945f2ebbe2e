package deals

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"splitclub-server/internal/domain"
	"splitclub-server/internal/infra/cache"
	"splitclub-server/internal/infra/metrics"
)

const draftTTL = 24 * time.Hour

// FileUpload — файл, прикладываемый к предложению.
type FileUpload struct {
	Name        string
	ContentType string
	Size        int64
	Data        io.Reader
}

// CreateInput — данные нового предложения.
type CreateInput struct {
	Title         string
	Description   string
	Category      domain.DealCategory
	Tags          []string
	OriginalPrice int64
	SharePrice    int64
	IsForSale     bool
	TotalSlots    int
	ExpiryDate    *time.Time
	Image         *FileUpload
	Voucher       *FileUpload
}

// UpdateInput — частичное изменение; новые файлы замещают старые,
// флаги Remove* очищают колонку и удаляют объект из хранилища.
type UpdateInput struct {
	Patch         domain.DealPatch
	Image         *FileUpload
	Voucher       *FileUpload
	RemoveImage   bool
	RemoveVoucher bool
}

// Service оркестрирует жизненный цикл предложения: файлы, строка БД,
// события изменений, уведомления.
type Service struct {
	deals  domain.DealRepo
	files  domain.FileStore
	store  domain.Cache
	feed   domain.ChangeFeed
	queue  domain.NotifyQueue
	logger zerolog.Logger
}

func NewService(deals domain.DealRepo, files domain.FileStore, store domain.Cache, feed domain.ChangeFeed, queue domain.NotifyQueue, logger zerolog.Logger) *Service {
	return &Service{deals: deals, files: files, store: store, feed: feed, queue: queue, logger: logger}
}

// Create публикует предложение. Файлы заливаются до записи строки:
// упавшая загрузка не оставляет предложение без вложений.
func (s *Service) Create(ctx context.Context, userID string, input CreateInput) (domain.Deal, error) {
	imageURL, err := s.uploadFile(ctx, userID, domain.BucketDealImages, input.Image)
	if err != nil {
		return domain.Deal{}, fmt.Errorf("загрузка изображения: %w", err)
	}
	voucherURL, err := s.uploadFile(ctx, userID, domain.BucketVoucherFiles, input.Voucher)
	if err != nil {
		s.cleanupByURL(imageURL)
		return domain.Deal{}, fmt.Errorf("загрузка ваучера: %w", err)
	}

	deal, err := s.deals.CreateDeal(ctx, domain.Deal{
		Title:         input.Title,
		Description:   input.Description,
		Category:      input.Category,
		Tags:          input.Tags,
		OriginalPrice: input.OriginalPrice,
		SharePrice:    input.SharePrice,
		IsForSale:     input.IsForSale,
		TotalSlots:    input.TotalSlots,
		ExpiryDate:    input.ExpiryDate,
		ImageURL:      imageURL,
		VoucherURL:    voucherURL,
		SharedBy:      &domain.Profile{ID: userID},
	})
	if err != nil {
		s.cleanupByURL(imageURL)
		s.cleanupByURL(voucherURL)
		return domain.Deal{}, err
	}

	s.publish(domain.ChangeEvent{Table: domain.TableDeals, Op: domain.ChangeInsert, DealID: deal.ID, UserID: userID})
	s.enqueue(ctx, domain.NotificationJob{
		Kind:      domain.NotifyDealPublished,
		DealID:    deal.ID,
		DealTitle: deal.Title,
		UserID:    userID,
	})
	return deal, nil
}

// Update меняет предложение владельца. Новый файл заливается до обновления
// строки, старый удаляется после — лучше осиротевший файл, чем битая ссылка.
func (s *Service) Update(ctx context.Context, dealID, userID string, input UpdateInput) (domain.Deal, error) {
	current, err := s.deals.GetDealByID(ctx, dealID)
	if err != nil {
		return domain.Deal{}, err
	}
	if current.SharedBy == nil || current.SharedBy.ID != userID {
		return domain.Deal{}, domain.ErrNotOwner
	}

	patch := input.Patch
	if input.Image != nil {
		newURL, err := s.uploadFile(ctx, userID, domain.BucketDealImages, input.Image)
		if err != nil {
			return domain.Deal{}, fmt.Errorf("загрузка изображения: %w", err)
		}
		patch.ImageURL = &newURL
	} else if input.RemoveImage {
		empty := ""
		patch.ImageURL = &empty
	}
	if input.Voucher != nil {
		newURL, err := s.uploadFile(ctx, userID, domain.BucketVoucherFiles, input.Voucher)
		if err != nil {
			return domain.Deal{}, fmt.Errorf("загрузка ваучера: %w", err)
		}
		patch.VoucherURL = &newURL
	} else if input.RemoveVoucher {
		empty := ""
		patch.VoucherURL = &empty
	}

	deal, err := s.deals.UpdateDeal(ctx, dealID, userID, patch)
	if err != nil {
		if patch.ImageURL != nil && input.Image != nil {
			s.cleanupByURL(*patch.ImageURL)
		}
		if patch.VoucherURL != nil && input.Voucher != nil {
			s.cleanupByURL(*patch.VoucherURL)
		}
		return domain.Deal{}, err
	}

	if (input.Image != nil || input.RemoveImage) && current.ImageURL != "" {
		s.cleanupByURL(current.ImageURL)
	}
	if (input.Voucher != nil || input.RemoveVoucher) && current.VoucherURL != "" {
		s.cleanupByURL(current.VoucherURL)
	}

	s.publish(domain.ChangeEvent{Table: domain.TableDeals, Op: domain.ChangeUpdate, DealID: deal.ID, UserID: userID})
	return deal, nil
}

// Delete удаляет предложение владельца и подчищает файлы best-effort.
func (s *Service) Delete(ctx context.Context, dealID, userID string) error {
	deal, err := s.deals.DeleteDeal(ctx, dealID, userID)
	if err != nil {
		return err
	}

	s.cleanupByURL(deal.ImageURL)
	s.cleanupByURL(deal.VoucherURL)
	s.publish(domain.ChangeEvent{Table: domain.TableDeals, Op: domain.ChangeDelete, DealID: dealID, UserID: userID})
	return nil
}

// SaveDraft сохраняет черновик мастера публикации.
func (s *Service) SaveDraft(ctx context.Context, userID string, draft domain.WizardDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	return s.store.Set(ctx, cache.WizardDraftKey(userID), data, draftTTL)
}

// LoadDraft возвращает черновик; отсутствие черновика — это новый черновик.
func (s *Service) LoadDraft(ctx context.Context, userID string) (domain.WizardDraft, error) {
	data, err := s.store.Get(ctx, cache.WizardDraftKey(userID))
	if err != nil {
		return domain.NewWizardDraft(userID, time.Now().UTC()), nil
	}
	var draft domain.WizardDraft
	if err := json.Unmarshal(data, &draft); err != nil {
		return domain.NewWizardDraft(userID, time.Now().UTC()), nil
	}
	return draft, nil
}

// ClearDraft удаляет черновик после публикации или отмены.
func (s *Service) ClearDraft(ctx context.Context, userID string) error {
	return s.store.Del(ctx, cache.WizardDraftKey(userID))
}

func (s *Service) uploadFile(ctx context.Context, userID, bucket string, file *FileUpload) (string, error) {
	if file == nil {
		return "", nil
	}
	name := objectName(userID, file.Name)
	publicURL, err := s.files.Upload(ctx, bucket, name, file.ContentType, file.Data)
	if err != nil {
		return "", err
	}
	if file.Size > 0 {
		metrics.DealUploadsBytes.WithLabelValues(bucket).Add(float64(file.Size))
	}
	return publicURL, nil
}

func (s *Service) cleanupByURL(fileURL string) {
	if fileURL == "" {
		return
	}
	bucket, name, ok := splitObjectURL(fileURL)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.files.Delete(ctx, bucket, name); err != nil {
		s.logger.Warn().Err(err).Str("url", fileURL).Msg("не удалось удалить файл из хранилища")
	}
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
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.RequestedAt.IsZero() {
		job.RequestedAt = time.Now().UTC()
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.logger.Warn().Err(err).Str("kind", string(job.Kind)).Msg("не удалось поставить уведомление в очередь")
	}
}

func objectName(userID, fileName string) string {
	ext := path.Ext(fileName)
	return fmt.Sprintf("%s/%s%s", userID, uuid.NewString(), ext)
}

// splitObjectURL разбирает публичный URL вида
// .../storage/v1/object/public/<bucket>/<name>.
func splitObjectURL(fileURL string) (bucket, name string, ok bool) {
	const marker = "/storage/v1/object/public/"
	idx := strings.Index(fileURL, marker)
	if idx < 0 {
		return "", "", false
	}
	rest := fileURL[idx+len(marker):]
	parts := strings.SplitN(rest, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", false
	}
	bucket, err := url.PathUnescape(parts[0])
	if err != nil {
		return "", "", false
	}
	name, err = url.PathUnescape(parts[1])
	if err != nil {
		return "", "", false
	}
	return bucket, name, true
}
