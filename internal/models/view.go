package models

// View — что сейчас показывает интерактивное сообщение.
type View string

const (
	ViewMain        View = "MAIN"
	ViewRealtimePnL View = "REALTIME_PNL"
	ViewDailyStats  View = "DAILY_STATS"
	ViewOpenTrades  View = "OPEN_TRADES"
	ViewWeeklyStats View = "WEEKLY_STATS"
	ViewAlgoStatus  View = "ALGO_STATUS"
)

// AllViews в порядке кнопок главного меню.
var AllViews = []View{
	ViewMain,
	ViewRealtimePnL,
	ViewDailyStats,
	ViewOpenTrades,
	ViewWeeklyStats,
	ViewAlgoStatus,
}

func (v View) Valid() bool {
	for _, known := range AllViews {
		if v == known {
			return true
		}
	}
	return false
}

// Button — кнопка навигации; Action уходит в callback data.
type Button struct {
	Label  string
	Action string
}

// Message — результат форматирования, не зависит от транспорта.
type Message struct {
	Text      string
	ParseMode string
	Buttons   [][]Button
}

const ParseModeMarkdown = "Markdown"

// MessageRef — адрес уже отправленного сообщения (surface).
type MessageRef struct {
	ChatID    int64
	MessageID int
}
