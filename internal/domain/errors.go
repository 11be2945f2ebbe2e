package domain

import "errors"

var (
	// ErrDealNotFound возвращается, когда предложение не существует.
	ErrDealNotFound = errors.New("предложение не найдено")
	// ErrNotOwner возвращается при попытке изменить чужое предложение.
	// Не путать с ErrDealNotFound: существование проверяется отдельно.
	ErrNotOwner = errors.New("предложение принадлежит другому пользователю")
	// ErrOwnDeal возвращается при попытке занять слот собственного предложения.
	ErrOwnDeal = errors.New("нельзя занять слот собственного предложения")
	// ErrNoSlots возвращается, когда свободных слотов не осталось.
	ErrNoSlots = errors.New("свободных слотов не осталось")
	// ErrAlreadyClaimed возвращается при повторном claim того же пользователя.
	ErrAlreadyClaimed = errors.New("слот уже занят этим пользователем")
	// ErrProfileNotFound возвращается, когда профиль не существует.
	ErrProfileNotFound = errors.New("профиль не найден")
)
