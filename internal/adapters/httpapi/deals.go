package httpapi

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"

	"splitclub-server/internal/domain"
	infrahttp "splitclub-server/internal/infra/http"
	"splitclub-server/internal/usecase/catalog"
	"splitclub-server/internal/usecase/deals"
)

// filterStateFromQuery разбирает состояние фильтров из query-параметров.
// Невалидные значения не валят запрос, а сводятся к значениям по умолчанию.
func filterStateFromQuery(r *http.Request) catalog.FilterState {
	q := r.URL.Query()

	var categories []domain.DealCategory
	if raw := q.Get("categories"); raw != "" {
		for _, item := range strings.Split(raw, ",") {
			if item = strings.TrimSpace(item); item != "" {
				categories = append(categories, domain.ParseCategory(item))
			}
		}
	}

	priceMin, _ := strconv.ParseInt(q.Get("priceMin"), 10, 64)
	priceMax, _ := strconv.ParseInt(q.Get("priceMax"), 10, 64)

	return catalog.FilterState{
		Categories:    categories,
		PriceMin:      priceMin,
		PriceMax:      priceMax,
		OnlyFree:      q.Get("onlyFree") == "true",
		AvailableOnly: q.Get("availableOnly") == "true",
		ExpiringIn:    catalog.ParseExpiryWindow(q.Get("expiringWithin")),
		Sort:          catalog.ParseSort(q.Get("sort")),
	}
}

func (h *Handler) listDeals(w http.ResponseWriter, r *http.Request) {
	state := filterStateFromQuery(r)
	search := r.URL.Query().Get("q")

	excludeUserID := ""
	if r.URL.Query().Get("excludeOwn") == "true" {
		if userID, ok := infrahttp.UserIDFrom(r.Context()); ok {
			excludeUserID = userID
		}
	}

	result, err := h.catalog.ListDeals(r.Context(), state, search, excludeUserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deals": toDealDTOs(result)})
}

func (h *Handler) getDeal(w http.ResponseWriter, r *http.Request) {
	deal, err := h.catalog.GetDeal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDealDTO(deal, time.Now().UTC()))
}

type dealPayload struct {
	Title         string   `json:"title" validate:"required,min=3,max=120"`
	Description   string   `json:"description" validate:"max=2000"`
	Category      string   `json:"category" validate:"required"`
	Tags          []string `json:"tags" validate:"max=10,dive,min=1,max=30"`
	OriginalPrice int64    `json:"originalPrice" validate:"gte=0"`
	SharePrice    int64    `json:"sharePrice" validate:"gte=0"`
	IsForSale     bool     `json:"isForSale"`
	TotalSlots    int      `json:"totalSlots" validate:"required,gte=1,lte=100"`
	ExpiryDate    string   `json:"expiryDate" validate:"omitempty,datetime=2006-01-02"`
}

func (p dealPayload) expiry() *time.Time {
	if p.ExpiryDate == "" {
		return nil
	}
	ts, err := time.Parse("2006-01-02", p.ExpiryDate)
	if err != nil {
		return nil
	}
	return &ts
}

// decodeDealForm принимает либо application/json, либо multipart с частью
// payload и файлами image/voucher.
func (h *Handler) decodeDealForm(r *http.Request) (dealPayload, *deals.FileUpload, *deals.FileUpload, error) {
	var payload dealPayload

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxUpload); err != nil {
			return payload, nil, nil, err
		}
		if err := json.Unmarshal([]byte(r.FormValue("payload")), &payload); err != nil {
			return payload, nil, nil, err
		}
		image := fileFromForm(r, "image")
		voucher := fileFromForm(r, "voucher")
		return payload, image, voucher, nil
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return payload, nil, nil, err
	}
	return payload, nil, nil, nil
}

func fileFromForm(r *http.Request, field string) *deals.FileUpload {
	file, header, err := r.FormFile(field)
	if err != nil {
		return nil
	}
	return &deals.FileUpload{
		Name:        header.Filename,
		ContentType: headerContentType(header),
		Size:        header.Size,
		Data:        file,
	}
}

func headerContentType(header *multipart.FileHeader) string {
	if ct := header.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

func (h *Handler) createDeal(w http.ResponseWriter, r *http.Request) {
	userID, _ := infrahttp.UserIDFrom(r.Context())

	payload, image, voucher, err := h.decodeDealForm(r)
	if err != nil {
		h.badRequest(w, "malformed request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		h.badRequest(w, err.Error())
		return
	}

	deal, err := h.deals.Create(r.Context(), userID, deals.CreateInput{
		Title:         payload.Title,
		Description:   payload.Description,
		Category:      domain.ParseCategory(payload.Category),
		Tags:          payload.Tags,
		OriginalPrice: payload.OriginalPrice,
		SharePrice:    payload.SharePrice,
		IsForSale:     payload.IsForSale,
		TotalSlots:    payload.TotalSlots,
		ExpiryDate:    payload.expiry(),
		Image:         image,
		Voucher:       voucher,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDealDTO(deal, time.Now().UTC()))
}

type dealPatchPayload struct {
	Title         *string  `json:"title" validate:"omitempty,min=3,max=120"`
	Description   *string  `json:"description" validate:"omitempty,max=2000"`
	Category      *string  `json:"category"`
	Tags          []string `json:"tags" validate:"omitempty,max=10,dive,min=1,max=30"`
	OriginalPrice *int64   `json:"originalPrice" validate:"omitempty,gte=0"`
	SharePrice    *int64   `json:"sharePrice" validate:"omitempty,gte=0"`
	IsForSale     *bool    `json:"isForSale"`
	ExpiryDate    *string  `json:"expiryDate" validate:"omitempty,datetime=2006-01-02"`
	Status        *string  `json:"status" validate:"omitempty,oneof=active claimed expired"`
	ImageURL      *string  `json:"imageUrl" validate:"omitempty,url"`
	VoucherURL    *string  `json:"voucherUrl" validate:"omitempty,url"`
	RemoveImage   bool     `json:"removeImage"`
	RemoveVoucher bool     `json:"removeVoucher"`
}

// decodePatchForm принимает либо application/json, либо multipart с частью
// payload и замещающими файлами image/voucher.
func (h *Handler) decodePatchForm(r *http.Request) (dealPatchPayload, *deals.FileUpload, *deals.FileUpload, error) {
	var payload dealPatchPayload

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxUpload); err != nil {
			return payload, nil, nil, err
		}
		if raw := r.FormValue("payload"); raw != "" {
			if err := json.Unmarshal([]byte(raw), &payload); err != nil {
				return payload, nil, nil, err
			}
		}
		return payload, fileFromForm(r, "image"), fileFromForm(r, "voucher"), nil
	}

	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		return payload, nil, nil, err
	}
	return payload, nil, nil, nil
}

func (h *Handler) updateDeal(w http.ResponseWriter, r *http.Request) {
	userID, _ := infrahttp.UserIDFrom(r.Context())

	payload, image, voucher, err := h.decodePatchForm(r)
	if err != nil {
		h.badRequest(w, "malformed request body")
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		h.badRequest(w, err.Error())
		return
	}

	patch := domain.DealPatch{
		Title:         payload.Title,
		Description:   payload.Description,
		Tags:          payload.Tags,
		OriginalPrice: payload.OriginalPrice,
		SharePrice:    payload.SharePrice,
		IsForSale:     payload.IsForSale,
	}
	if payload.Category != nil {
		category := domain.ParseCategory(*payload.Category)
		patch.Category = &category
	}
	if payload.ExpiryDate != nil {
		if ts, err := time.Parse("2006-01-02", *payload.ExpiryDate); err == nil {
			patch.ExpiryDate = &ts
		}
	}
	if payload.Status != nil {
		status := domain.DealStatus(*payload.Status)
		patch.Status = &status
	}
	// Прямые URL принимаются от уже загруженных через /uploads файлов;
	// multipart-файлы имеют приоритет над ними.
	if image == nil && payload.ImageURL != nil {
		patch.ImageURL = payload.ImageURL
	}
	if voucher == nil && payload.VoucherURL != nil {
		patch.VoucherURL = payload.VoucherURL
	}

	deal, err := h.deals.Update(r.Context(), chi.URLParam(r, "id"), userID, deals.UpdateInput{
		Patch:         patch,
		Image:         image,
		Voucher:       voucher,
		RemoveImage:   payload.RemoveImage,
		RemoveVoucher: payload.RemoveVoucher,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toDealDTO(deal, time.Now().UTC()))
}

func (h *Handler) deleteDeal(w http.ResponseWriter, r *http.Request) {
	userID, _ := infrahttp.UserIDFrom(r.Context())
	if err := h.deals.Delete(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) claimDeal(w http.ResponseWriter, r *http.Request) {
	userID, _ := infrahttp.UserIDFrom(r.Context())
	claim, err := h.claims.Claim(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"dealId":    claim.DealID,
		"claimedAt": claim.ClaimedAt,
	})
}

func (h *Handler) listClaimed(w http.ResponseWriter, r *http.Request) {
	userID, _ := infrahttp.UserIDFrom(r.Context())
	result, err := h.claims.ListClaimed(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deals": toDealDTOs(result)})
}
