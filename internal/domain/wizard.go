package domain

import (
	"errors"
	"time"
)

// WizardState — именованный шаг мастера публикации предложения.
type WizardState string

const (
	WizardChooseCategory WizardState = "choose_category"
	WizardDetails        WizardState = "details"
	WizardPricing        WizardState = "pricing"
	WizardConditions     WizardState = "conditions"
	WizardPreview        WizardState = "preview"
	WizardPublished      WizardState = "published"
)

// ErrWizardTransition возвращается при недопустимом переходе мастера.
var ErrWizardTransition = errors.New("недопустимый переход мастера")

// wizardNext — таблица переходов вперёд. Шаг Pricing пропускается для
// бесплатных предложений.
var wizardNext = map[WizardState]WizardState{
	WizardChooseCategory: WizardDetails,
	WizardDetails:        WizardPricing,
	WizardPricing:        WizardConditions,
	WizardConditions:     WizardPreview,
	WizardPreview:        WizardPublished,
}

var wizardPrev = map[WizardState]WizardState{
	WizardDetails:    WizardChooseCategory,
	WizardPricing:    WizardDetails,
	WizardConditions: WizardPricing,
	WizardPreview:    WizardConditions,
}

// NextWizardState возвращает следующий шаг по таблице переходов.
func NextWizardState(state WizardState, isFree bool) (WizardState, error) {
	next, ok := wizardNext[state]
	if !ok {
		return "", ErrWizardTransition
	}
	if isFree && next == WizardPricing {
		next = wizardNext[WizardPricing]
	}
	return next, nil
}

// PrevWizardState возвращает предыдущий шаг.
func PrevWizardState(state WizardState, isFree bool) (WizardState, error) {
	prev, ok := wizardPrev[state]
	if !ok {
		return "", ErrWizardTransition
	}
	if isFree && prev == WizardPricing {
		prev = wizardPrev[WizardPricing]
	}
	return prev, nil
}

// WizardDraft — черновик предложения, накапливаемый по шагам мастера.
type WizardDraft struct {
	UserID        string       `json:"user_id"`
	State         WizardState  `json:"state"`
	Title         string       `json:"title"`
	Description   string       `json:"description"`
	Category      DealCategory `json:"category"`
	Tags          []string     `json:"tags"`
	OriginalPrice int64        `json:"original_price"`
	SharePrice    int64        `json:"share_price"`
	IsForSale     bool         `json:"is_for_sale"`
	TotalSlots    int          `json:"total_slots"`
	ExpiryDate    *time.Time   `json:"expiry_date,omitempty"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// NewWizardDraft начинает мастер с выбора категории.
func NewWizardDraft(userID string, now time.Time) WizardDraft {
	return WizardDraft{UserID: userID, State: WizardChooseCategory, UpdatedAt: now}
}

// CanPublish сообщает, дошёл ли черновик до предпросмотра.
func (d WizardDraft) CanPublish() bool {
	return d.State == WizardPreview
}
