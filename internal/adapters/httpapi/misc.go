package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"splitclub-server/internal/domain"
	infrahttp "splitclub-server/internal/infra/http"
)

func (h *Handler) addFavorite(w http.ResponseWriter, r *http.Request) {
	userID, _ := infrahttp.UserIDFrom(r.Context())
	if err := h.favorites.Add(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeFavorite(w http.ResponseWriter, r *http.Request) {
	userID, _ := infrahttp.UserIDFrom(r.Context())
	if err := h.favorites.Remove(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listFavorites(w http.ResponseWriter, r *http.Request) {
	userID, _ := infrahttp.UserIDFrom(r.Context())
	result, err := h.favorites.List(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deals": toDealDTOs(result)})
}

var allowedBuckets = map[string]struct{}{
	domain.BucketDealImages:   {},
	domain.BucketVoucherFiles: {},
	domain.BucketDemoVideos:   {},
	domain.BucketAvatars:      {},
}

// uploadFile принимает multipart-файл и кладёт его в объектное хранилище.
// Размер ограничивается до чтения тела, бакеты — белым списком.
func (h *Handler) uploadFile(w http.ResponseWriter, r *http.Request) {
	bucket := chi.URLParam(r, "bucket")
	if _, ok := allowedBuckets[bucket]; !ok {
		h.badRequest(w, "unknown bucket")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		h.badRequest(w, "file too large or malformed form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		h.badRequest(w, "file field is required")
		return
	}
	defer file.Close()

	userID, _ := infrahttp.UserIDFrom(r.Context())
	name := userID + "/" + uuid.NewString() + "-" + header.Filename
	publicURL, err := h.files.Upload(r.Context(), bucket, name, headerContentType(header), file)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"url": publicURL})
}

type contactPayload struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Message string `json:"message" validate:"required,min=5,max=4000"`
}

func (h *Handler) createContact(w http.ResponseWriter, r *http.Request) {
	var payload contactPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.badRequest(w, "malformed request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		h.badRequest(w, err.Error())
		return
	}

	msg, err := h.contacts.CreateContactMessage(r.Context(), domain.ContactMessage{
		Name:    payload.Name,
		Email:   payload.Email,
		Message: payload.Message,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	if h.queue != nil {
		job := domain.NotificationJob{
			ID:          uuid.NewString(),
			Kind:        domain.NotifyContactMessage,
			Message:     payload.Message,
			RequestedAt: time.Now().UTC(),
		}
		if err := h.queue.Enqueue(r.Context(), job); err != nil {
			h.logger.Warn().Err(err).Msg("не удалось поставить уведомление в очередь")
		}
	}
	_ = h.biz.RecordBusinessMetric(r.Context(), domain.BusinessMetric{
		Event: domain.BusinessMetricEventContactMessage,
	})

	writeJSON(w, http.StatusCreated, map[string]string{"id": msg.ID})
}

type consentPayload struct {
	Kind    string `json:"kind" validate:"required,oneof=cookies marketing terms"`
	Granted bool   `json:"granted"`
}

func (h *Handler) recordConsent(w http.ResponseWriter, r *http.Request) {
	userID, _ := infrahttp.UserIDFrom(r.Context())

	var payload consentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.badRequest(w, "malformed request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		h.badRequest(w, err.Error())
		return
	}

	err := h.contacts.RecordConsent(r.Context(), domain.UserConsent{
		UserID:  userID,
		Kind:    payload.Kind,
		Granted: payload.Granted,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) getDraft(w http.ResponseWriter, r *http.Request) {
	userID, _ := infrahttp.UserIDFrom(r.Context())
	draft, err := h.deals.LoadDraft(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

type draftPayload struct {
	Move  string             `json:"move" validate:"omitempty,oneof=next back"`
	Draft domain.WizardDraft `json:"draft"`
}

// saveDraft сохраняет черновик мастера; move=next/back двигает шаг по
// таблице переходов, недопустимый переход отклоняется.
func (h *Handler) saveDraft(w http.ResponseWriter, r *http.Request) {
	userID, _ := infrahttp.UserIDFrom(r.Context())

	var payload draftPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.badRequest(w, "malformed request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		h.badRequest(w, err.Error())
		return
	}

	draft := payload.Draft
	draft.UserID = userID
	draft.UpdatedAt = time.Now().UTC()
	if draft.State == "" {
		draft.State = domain.WizardChooseCategory
	}

	isFree := !draft.IsForSale
	switch payload.Move {
	case "next":
		next, err := domain.NextWizardState(draft.State, isFree)
		if err != nil {
			h.badRequest(w, err.Error())
			return
		}
		draft.State = next
	case "back":
		prev, err := domain.PrevWizardState(draft.State, isFree)
		if err != nil {
			h.badRequest(w, err.Error())
			return
		}
		draft.State = prev
	}

	if err := h.deals.SaveDraft(r.Context(), userID, draft); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

func (h *Handler) clearDraft(w http.ResponseWriter, r *http.Request) {
	userID, _ := infrahttp.UserIDFrom(r.Context())
	if err := h.deals.ClearDraft(r.Context(), userID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// adminStats отдаёт агрегаты только пользователям с админским флагом.
func (h *Handler) adminStats(w http.ResponseWriter, r *http.Request) {
	userID, _ := infrahttp.UserIDFrom(r.Context())

	profile, err := h.profiles.GetProfile(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if !profile.IsAdmin {
		writeJSON(w, http.StatusForbidden, apiError{Error: "admin only"})
		return
	}

	stats, err := h.stats.AdminStats(r.Context(), time.Now().UTC())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{
		"totalDeals":    stats.TotalDeals,
		"activeDeals":   stats.ActiveDeals,
		"totalClaims":   stats.TotalClaims,
		"totalUsers":    stats.TotalUsers,
		"claimsToday":   stats.ClaimsToday,
		"dealsThisWeek": stats.DealsThisWeek,
	})
}
