// Package menu — навигация по интерактивному сообщению: одно сообщение,
// которое перерисовывается на месте, а не копится лентой.
package menu

import (
	"strings"

	"trade_ledger/internal/models"
)

type ActionKind string

const (
	ActionOpen    ActionKind = "open"
	ActionBack    ActionKind = "back"
	ActionRefresh ActionKind = "refresh"
)

const dataPrefix = "menu:"

// Action — то, что прилетает из кнопки.
type Action struct {
	Kind ActionKind
	View models.View // только для ActionOpen
}

func Open(v models.View) Action { return Action{Kind: ActionOpen, View: v} }
func Back() Action              { return Action{Kind: ActionBack} }
func Refresh() Action           { return Action{Kind: ActionRefresh} }

// MainMenu — кнопка «главное меню», то же самое что open(MAIN).
func MainMenu() Action { return Open(models.ViewMain) }

// Transition — (state, action) -> state. Без гардов: любой вид доступен из любого.
func Transition(current models.View, a Action) models.View {
	switch a.Kind {
	case ActionBack:
		return models.ViewMain
	case ActionRefresh:
		if !current.Valid() {
			return models.ViewMain
		}
		return current
	case ActionOpen:
		if !a.View.Valid() {
			return current
		}
		return a.View
	default:
		return current
	}
}

// Data кодирует действие в callback data.
func (a Action) Data() string {
	switch a.Kind {
	case ActionOpen:
		return dataPrefix + string(ActionOpen) + ":" + string(a.View)
	default:
		return dataPrefix + string(a.Kind)
	}
}

// IsMenuData — наш ли это callback.
func IsMenuData(data string) bool {
	return strings.HasPrefix(data, dataPrefix)
}

// ParseAction — обратное к Data.
func ParseAction(data string) (Action, bool) {
	if !IsMenuData(data) {
		return Action{}, false
	}
	parts := strings.Split(strings.TrimPrefix(data, dataPrefix), ":")

	switch ActionKind(parts[0]) {
	case ActionBack:
		if len(parts) != 1 {
			return Action{}, false
		}
		return Back(), true
	case ActionRefresh:
		if len(parts) != 1 {
			return Action{}, false
		}
		return Refresh(), true
	case ActionOpen:
		if len(parts) != 2 {
			return Action{}, false
		}
		v := models.View(parts[1])
		if !v.Valid() {
			return Action{}, false
		}
		return Open(v), true
	default:
		return Action{}, false
	}
}
