package domain

import (
	"testing"
	"time"
)

func TestWizardPaidPathVisitsPricing(t *testing.T) {
	state := WizardChooseCategory
	var visited []WizardState
	for state != WizardPublished {
		next, err := NextWizardState(state, false)
		if err != nil {
			t.Fatalf("не ожидали ошибку: %v", err)
		}
		visited = append(visited, next)
		state = next
	}
	expected := []WizardState{WizardDetails, WizardPricing, WizardConditions, WizardPreview, WizardPublished}
	if len(visited) != len(expected) {
		t.Fatalf("ожидали %d шагов, получили %d", len(expected), len(visited))
	}
	for i, st := range expected {
		if visited[i] != st {
			t.Fatalf("шаг %d: ожидали %s, получили %s", i, st, visited[i])
		}
	}
}

func TestWizardFreePathSkipsPricing(t *testing.T) {
	state, err := NextWizardState(WizardDetails, true)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if state != WizardConditions {
		t.Fatalf("ожидали пропуск шага pricing, получили %s", state)
	}
	prev, err := PrevWizardState(WizardConditions, true)
	if err != nil {
		t.Fatalf("не ожидали ошибку: %v", err)
	}
	if prev != WizardDetails {
		t.Fatalf("ожидали возврат к details, получили %s", prev)
	}
}

func TestWizardInvalidTransition(t *testing.T) {
	if _, err := NextWizardState(WizardPublished, false); err == nil {
		t.Fatalf("ожидали ошибку перехода из published")
	}
	if _, err := PrevWizardState(WizardChooseCategory, false); err == nil {
		t.Fatalf("ожидали ошибку возврата из первого шага")
	}
}

func TestWizardDraftCanPublish(t *testing.T) {
	draft := NewWizardDraft("u1", time.Now())
	if draft.CanPublish() {
		t.Fatalf("черновик на первом шаге не готов к публикации")
	}
	draft.State = WizardPreview
	if !draft.CanPublish() {
		t.Fatalf("черновик на предпросмотре готов к публикации")
	}
}
