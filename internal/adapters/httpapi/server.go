package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"splitclub-server/internal/domain"
	infrahttp "splitclub-server/internal/infra/http"
	"splitclub-server/internal/usecase/catalog"
	"splitclub-server/internal/usecase/claims"
	"splitclub-server/internal/usecase/deals"
	"splitclub-server/internal/usecase/favorites"
)

// Handler собирает HTTP API поверх usecase-сервисов.
type Handler struct {
	catalog   *catalog.Service
	deals     *deals.Service
	claims    *claims.Service
	favorites *favorites.Service
	contacts  domain.ContactRepo
	profiles  domain.ProfileRepo
	stats     domain.StatsRepo
	biz       domain.BusinessMetricRepo
	queue     domain.NotifyQueue
	files     domain.FileStore

	validate  *validator.Validate
	secret    string
	maxUpload int64
	logger    zerolog.Logger
}

type Deps struct {
	Catalog   *catalog.Service
	Deals     *deals.Service
	Claims    *claims.Service
	Favorites *favorites.Service
	Contacts  domain.ContactRepo
	Profiles  domain.ProfileRepo
	Stats     domain.StatsRepo
	Biz       domain.BusinessMetricRepo
	Queue     domain.NotifyQueue
	Files     domain.FileStore
	Secret    string
	MaxUpload int64
	Logger    zerolog.Logger
}

func NewHandler(deps Deps) *Handler {
	return &Handler{
		catalog:   deps.Catalog,
		deals:     deps.Deals,
		claims:    deps.Claims,
		favorites: deps.Favorites,
		contacts:  deps.Contacts,
		profiles:  deps.Profiles,
		stats:     deps.Stats,
		biz:       deps.Biz,
		queue:     deps.Queue,
		files:     deps.Files,
		validate:  validator.New(),
		secret:    deps.Secret,
		maxUpload: deps.MaxUpload,
		logger:    deps.Logger,
	}
}

// Routes монтирует маршруты API под /api/v1.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(infrahttp.OptionalAuthMiddleware(h.secret))
			r.Get("/deals", h.listDeals)
			r.Get("/deals/{id}", h.getDeal)
		})

		r.Group(func(r chi.Router) {
			r.Use(infrahttp.UserAuthMiddleware(h.secret))
			r.Post("/deals", h.createDeal)
			r.Patch("/deals/{id}", h.updateDeal)
			r.Delete("/deals/{id}", h.deleteDeal)
			r.Post("/deals/{id}/claim", h.claimDeal)
			r.Get("/claims", h.listClaimed)
			r.Put("/deals/{id}/favorite", h.addFavorite)
			r.Delete("/deals/{id}/favorite", h.removeFavorite)
			r.Get("/favorites", h.listFavorites)
			r.Post("/uploads/{bucket}", h.uploadFile)
			r.Post("/consents", h.recordConsent)
			r.Get("/wizard/draft", h.getDraft)
			r.Put("/wizard/draft", h.saveDraft)
			r.Delete("/wizard/draft", h.clearDraft)
			r.Get("/admin/stats", h.adminStats)
		})

		r.Post("/contact", h.createContact)
	})
}

type apiError struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrDealNotFound), errors.Is(err, domain.ErrProfileNotFound):
		writeJSON(w, http.StatusNotFound, apiError{Error: err.Error()})
	case errors.Is(err, domain.ErrNotOwner), errors.Is(err, domain.ErrOwnDeal):
		writeJSON(w, http.StatusForbidden, apiError{Error: err.Error()})
	case errors.Is(err, domain.ErrAlreadyClaimed):
		writeJSON(w, http.StatusConflict, apiError{Error: err.Error()})
	case errors.Is(err, domain.ErrNoSlots):
		writeJSON(w, http.StatusGone, apiError{Error: err.Error()})
	default:
		h.logger.Error().Err(err).Msg("внутренняя ошибка API")
		writeJSON(w, http.StatusInternalServerError, apiError{Error: "internal error"})
	}
}

func (h *Handler) badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, apiError{Error: msg})
}

type profileDTO struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl,omitempty"`
}

type dealDTO struct {
	ID             string      `json:"id"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Category       string      `json:"category"`
	Tags           []string    `json:"tags"`
	OriginalPrice  int64       `json:"originalPrice"`
	SharePrice     int64       `json:"sharePrice"`
	IsFree         bool        `json:"isFree"`
	IsForSale      bool        `json:"isForSale"`
	TotalSlots     int         `json:"totalSlots"`
	AvailableSlots int         `json:"availableSlots"`
	ClaimsCount    int         `json:"claimsCount"`
	CreatedAt      time.Time   `json:"createdAt"`
	ExpiryDate     *time.Time  `json:"expiryDate,omitempty"`
	ExpiringSoon   bool        `json:"expiringSoon"`
	Status         string      `json:"status"`
	SharedBy       *profileDTO `json:"sharedBy,omitempty"`
	ImageURL       string      `json:"imageUrl,omitempty"`
	VoucherFileURL string      `json:"voucherFileUrl,omitempty"`
}

func toDealDTO(deal domain.Deal, now time.Time) dealDTO {
	dto := dealDTO{
		ID:             deal.ID,
		Title:          deal.Title,
		Description:    deal.Description,
		Category:       string(deal.Category),
		Tags:           deal.Tags,
		OriginalPrice:  deal.OriginalPrice,
		SharePrice:     deal.SharePrice,
		IsFree:         deal.IsFree(),
		IsForSale:      deal.IsForSale,
		TotalSlots:     deal.TotalSlots,
		AvailableSlots: deal.AvailableSlots(),
		ClaimsCount:    deal.ClaimsCount,
		CreatedAt:      deal.CreatedAt,
		ExpiryDate:     deal.ExpiryDate,
		ExpiringSoon:   deal.ExpiringSoon(now),
		Status:         string(deal.Status),
		ImageURL:       deal.ImageURL,
		VoucherFileURL: deal.VoucherURL,
	}
	if dto.Tags == nil {
		dto.Tags = []string{}
	}
	if deal.SharedBy != nil {
		dto.SharedBy = &profileDTO{
			ID:          deal.SharedBy.ID,
			DisplayName: deal.SharedBy.DisplayName,
			AvatarURL:   deal.SharedBy.AvatarURL,
		}
	}
	return dto
}

func toDealDTOs(deals []domain.Deal) []dealDTO {
	now := time.Now().UTC()
	out := make([]dealDTO, 0, len(deals))
	for _, d := range deals {
		out = append(out, toDealDTO(d, now))
	}
	return out
}
