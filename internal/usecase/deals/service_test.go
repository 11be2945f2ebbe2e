package deals

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"splitclub-server/internal/domain"
)

type stubDealRepo struct {
	created  []domain.Deal
	deleted  domain.Deal
	getDeal  domain.Deal
	getErr   error
	failNext bool
}

func (s *stubDealRepo) ListActiveDeals(ctx context.Context) ([]domain.Deal, error) { return nil, nil }

func (s *stubDealRepo) GetDealByID(ctx context.Context, id string) (domain.Deal, error) {
	return s.getDeal, s.getErr
}

func (s *stubDealRepo) CreateDeal(ctx context.Context, deal domain.Deal) (domain.Deal, error) {
	if s.failNext {
		return domain.Deal{}, errors.New("insert failed")
	}
	deal.ID = "deal-1"
	s.created = append(s.created, deal)
	return deal, nil
}

func (s *stubDealRepo) UpdateDeal(ctx context.Context, id, userID string, patch domain.DealPatch) (domain.Deal, error) {
	deal := s.getDeal
	if patch.ImageURL != nil {
		deal.ImageURL = *patch.ImageURL
	}
	return deal, nil
}

func (s *stubDealRepo) DeleteDeal(ctx context.Context, id, userID string) (domain.Deal, error) {
	return s.deleted, nil
}

type stubFileStore struct {
	uploads    []string
	deletes    []string
	failBucket string
}

func (s *stubFileStore) Upload(ctx context.Context, bucket, name, contentType string, data io.Reader) (string, error) {
	if bucket == s.failBucket {
		return "", errors.New("хранилище недоступно")
	}
	s.uploads = append(s.uploads, bucket)
	return "https://files.example/storage/v1/object/public/" + bucket + "/" + name, nil
}

func (s *stubFileStore) Delete(ctx context.Context, bucket, path string) error {
	s.deletes = append(s.deletes, bucket+"/"+path)
	return nil
}

type stubFeed struct {
	events []domain.ChangeEvent
}

func (s *stubFeed) Publish(ctx context.Context, event domain.ChangeEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubQueue struct {
	jobs []domain.NotificationJob
}

func (s *stubQueue) Enqueue(ctx context.Context, job domain.NotificationJob) error {
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *stubQueue) Pop(ctx context.Context) (domain.NotificationJob, error) {
	return domain.NotificationJob{}, errors.New("пусто")
}

type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: make(map[string][]byte)} }

func (c *memCache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("нет ключа")
}

func (c *memCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.data[key] = value
	return nil
}

func (c *memCache) Del(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func newTestService(repo *stubDealRepo, files *stubFileStore, feed *stubFeed, queue *stubQueue) *Service {
	return NewService(repo, files, newMemCache(), feed, queue, zerolog.Nop())
}

func upload(name string) *FileUpload {
	return &FileUpload{Name: name, ContentType: "image/png", Size: 4, Data: strings.NewReader("data")}
}

func TestCreateUploadsBeforeInsert(t *testing.T) {
	repo := &stubDealRepo{}
	files := &stubFileStore{}
	feed := &stubFeed{}
	queue := &stubQueue{}
	svc := newTestService(repo, files, feed, queue)

	deal, err := svc.Create(context.Background(), "user-1", CreateInput{
		Title:      "Абонемент",
		Category:   domain.CategoryGym,
		TotalSlots: 2,
		Image:      upload("photo.png"),
		Voucher:    upload("voucher.pdf"),
	})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if deal.ImageURL == "" || deal.VoucherURL == "" {
		t.Fatalf("URL файлов должны попасть в строку: %+v", deal)
	}
	if len(feed.events) != 1 || feed.events[0].Table != domain.TableDeals {
		t.Fatalf("ожидали событие по deals, получили %+v", feed.events)
	}
	if len(queue.jobs) != 1 || queue.jobs[0].Kind != domain.NotifyDealPublished {
		t.Fatalf("ожидали уведомление о публикации, получили %+v", queue.jobs)
	}
}

func TestCreateFailedVoucherUploadAbortsAndCleansImage(t *testing.T) {
	repo := &stubDealRepo{}
	files := &stubFileStore{failBucket: domain.BucketVoucherFiles}
	svc := newTestService(repo, files, &stubFeed{}, &stubQueue{})

	_, err := svc.Create(context.Background(), "user-1", CreateInput{
		Title:      "Абонемент",
		TotalSlots: 1,
		Image:      upload("photo.png"),
		Voucher:    upload("voucher.pdf"),
	})
	if err == nil {
		t.Fatalf("ожидали ошибку загрузки")
	}
	if len(repo.created) != 0 {
		t.Fatalf("строка не должна записываться при упавшей загрузке")
	}
	if len(files.deletes) != 1 {
		t.Fatalf("уже залитое изображение должно подчищаться, deletes=%v", files.deletes)
	}
}

func TestCreateFailedInsertCleansUploads(t *testing.T) {
	repo := &stubDealRepo{failNext: true}
	files := &stubFileStore{}
	svc := newTestService(repo, files, &stubFeed{}, &stubQueue{})

	_, err := svc.Create(context.Background(), "user-1", CreateInput{
		Title:      "Абонемент",
		TotalSlots: 1,
		Image:      upload("photo.png"),
	})
	if err == nil {
		t.Fatalf("ожидали ошибку вставки")
	}
	if len(files.deletes) != 1 {
		t.Fatalf("файлы должны подчищаться при упавшей вставке, deletes=%v", files.deletes)
	}
}

func TestUpdateByNonOwnerRejected(t *testing.T) {
	repo := &stubDealRepo{getDeal: domain.Deal{ID: "deal-1", SharedBy: &domain.Profile{ID: "owner"}}}
	svc := newTestService(repo, &stubFileStore{}, &stubFeed{}, &stubQueue{})

	_, err := svc.Update(context.Background(), "deal-1", "intruder", UpdateInput{})
	if !errors.Is(err, domain.ErrNotOwner) {
		t.Fatalf("ожидали ErrNotOwner, получили %v", err)
	}
}

func TestUpdateReplacesImageAndDeletesOld(t *testing.T) {
	repo := &stubDealRepo{getDeal: domain.Deal{
		ID:       "deal-1",
		SharedBy: &domain.Profile{ID: "owner"},
		ImageURL: "https://files.example/storage/v1/object/public/deal-images/owner/old.png",
	}}
	files := &stubFileStore{}
	feed := &stubFeed{}
	svc := newTestService(repo, files, feed, &stubQueue{})

	_, err := svc.Update(context.Background(), "deal-1", "owner", UpdateInput{Image: upload("new.png")})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(files.deletes) != 1 || !strings.HasPrefix(files.deletes[0], domain.BucketDealImages+"/") {
		t.Fatalf("старое изображение должно удаляться, deletes=%v", files.deletes)
	}
	if len(feed.events) != 1 || feed.events[0].Op != domain.ChangeUpdate {
		t.Fatalf("ожидали событие update, получили %+v", feed.events)
	}
}

func TestUpdateRemoveImageClearsColumnAndDeletesFile(t *testing.T) {
	repo := &stubDealRepo{getDeal: domain.Deal{
		ID:       "deal-1",
		SharedBy: &domain.Profile{ID: "owner"},
		ImageURL: "https://files.example/storage/v1/object/public/deal-images/owner/old.png",
	}}
	files := &stubFileStore{}
	svc := newTestService(repo, files, &stubFeed{}, &stubQueue{})

	deal, err := svc.Update(context.Background(), "deal-1", "owner", UpdateInput{RemoveImage: true})
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if deal.ImageURL != "" {
		t.Fatalf("колонка изображения должна очищаться, получили %q", deal.ImageURL)
	}
	if len(files.deletes) != 1 || !strings.HasPrefix(files.deletes[0], domain.BucketDealImages+"/") {
		t.Fatalf("объект должен удаляться из хранилища, deletes=%v", files.deletes)
	}
	if len(files.uploads) != 0 {
		t.Fatalf("удаление не должно ничего заливать, uploads=%v", files.uploads)
	}
}

func TestDeleteCleansFilesBestEffort(t *testing.T) {
	repo := &stubDealRepo{deleted: domain.Deal{
		ID:         "deal-1",
		ImageURL:   "https://files.example/storage/v1/object/public/deal-images/owner/a.png",
		VoucherURL: "https://files.example/storage/v1/object/public/voucher-files/owner/b.pdf",
	}}
	files := &stubFileStore{}
	feed := &stubFeed{}
	svc := newTestService(repo, files, feed, &stubQueue{})

	if err := svc.Delete(context.Background(), "deal-1", "owner"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if len(files.deletes) != 2 {
		t.Fatalf("оба файла должны подчищаться, deletes=%v", files.deletes)
	}
	if len(feed.events) != 1 || feed.events[0].Op != domain.ChangeDelete {
		t.Fatalf("ожидали событие delete, получили %+v", feed.events)
	}
}

func TestDraftRoundTrip(t *testing.T) {
	svc := newTestService(&stubDealRepo{}, &stubFileStore{}, &stubFeed{}, &stubQueue{})

	draft := domain.NewWizardDraft("user-1", time.Now().UTC())
	draft.Title = "Киносеанс"
	if err := svc.SaveDraft(context.Background(), "user-1", draft); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	loaded, err := svc.LoadDraft(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if loaded.Title != "Киносеанс" {
		t.Fatalf("черновик должен сохраняться, получили %+v", loaded)
	}

	if err := svc.ClearDraft(context.Background(), "user-1"); err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	fresh, _ := svc.LoadDraft(context.Background(), "user-1")
	if fresh.Title != "" {
		t.Fatalf("после очистки должен возвращаться пустой черновик")
	}
}
