// Package format рендерит сделки и сводки в текст для чата.
// Никакой сети и стора: на одинаковом входе и одинаковом now — одинаковый выход.
package format

import (
	"fmt"
	"strings"
	"time"

	"trade_ledger/internal/menu"
	"trade_ledger/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

const (
	LabelProfit = "PROFIT"
	LabelLoss   = "LOSS"

	quoteCurrency = "USD"
	clockLayout   = "15:04:05 MST"
	reportLayout  = "02/01/2006"
)

var hundred = decimal.NewFromInt(100)

// Formatter держит опорную таймзону и статичное описание алгоритма.
type Formatter struct {
	loc  *time.Location
	algo models.AlgoInfo
}

func New(loc *time.Location, algo models.AlgoInfo) *Formatter {
	if loc == nil {
		loc = time.UTC
	}
	return &Formatter{loc: loc, algo: algo}
}

func (f *Formatter) Location() *time.Location { return f.loc }

// EntryAlert — алерт на открытие сделки.
func (f *Formatter) EntryAlert(t models.Trade) models.Message {
	var b strings.Builder
	b.WriteString("🚀 *NEW ENTRY*\n\n")
	fmt.Fprintf(&b, "🎯 %s - %s\n", esc(t.Symbol), t.Side)
	fmt.Fprintf(&b, "💰 *Price:* %s %s\n", price(t.EntryPrice), quoteCurrency)
	fmt.Fprintf(&b, "📊 *Quantity:* %s\n", qty(t.Quantity))
	fmt.Fprintf(&b, "⏰ *Time:* %s\n", f.clock(t.EntryTime))
	if f.algo.Name != "" {
		fmt.Fprintf(&b, "\n🔥 *Algorithm:* %s\n", esc(f.algo.Name))
	}
	if f.algo.Signal != "" {
		fmt.Fprintf(&b, "📈 *Signal:* %s\n", esc(f.algo.Signal))
	}
	return markdown(b.String())
}

// ExitAlert — алерт на закрытие. pctBase — цена входа для процента, nil — без процента.
func (f *Formatter) ExitAlert(t models.Trade, pctBase *decimal.Decimal) models.Message {
	pnl := t.PnL()
	label := Classify(pnl)
	emoji := "❤️"
	if label == LabelProfit {
		emoji = "💚"
	}

	exitPrice := decimal.Zero
	if t.ExitPrice != nil {
		exitPrice = *t.ExitPrice
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s *TRADE CLOSED - %s*\n\n", emoji, label)
	fmt.Fprintf(&b, "🎯 %s\n", esc(t.Symbol))
	fmt.Fprintf(&b, "💰 *Exit price:* %s %s\n", price(exitPrice), quoteCurrency)
	if pctBase != nil && !pctBase.IsZero() {
		pct := pnl.Div(*pctBase).Mul(hundred)
		fmt.Fprintf(&b, "📊 *P&L:* %s %s (%s%%)\n", signed(pnl), quoteCurrency, signed(pct))
	} else {
		fmt.Fprintf(&b, "📊 *P&L:* %s %s\n", signed(pnl), quoteCurrency)
	}
	if t.ExitTime != nil {
		fmt.Fprintf(&b, "⏰ *Time:* %s\n", f.clock(*t.ExitTime))
	}
	fmt.Fprintf(&b, "\n🎯 *Result:* %s\n", label)
	return markdown(b.String())
}

// Classify: строго положительный PnL — PROFIT, всё остальное — LOSS.
func Classify(pnl decimal.Decimal) string {
	if pnl.Sign() > 0 {
		return LabelProfit
	}
	return LabelLoss
}

// DailyStats — вид DAILY_STATS и команда /stats.
func (f *Formatter) DailyStats(s models.DailyStats) models.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Daily statistics* (%s)\n\n", s.Date)
	fmt.Fprintf(&b, "🎯 *Trades:* %d\n", s.TotalTrades)
	fmt.Fprintf(&b, "✅ *Winning:* %d\n", s.WinningTrades)
	fmt.Fprintf(&b, "❌ *Losing:* %d\n", s.LosingTrades)
	fmt.Fprintf(&b, "📈 *Win rate:* %s\n", winRate(s.WinRate))
	fmt.Fprintf(&b, "💰 *Total P&L:* %s %s\n", signed(s.TotalPnL), quoteCurrency)
	return markdown(b.String())
}

// Window — вид WEEKLY_STATS: PnL по дням (сначала свежие), итог и среднее.
func (f *Formatter) Window(w models.WindowStats) models.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 *Last %d days* (%s)\n\n", w.DaysCount, w.Total.Date)
	for _, d := range w.Days {
		fmt.Fprintf(&b, "• %s: %s %s (%d trades, %s)\n",
			d.Date, signed(d.TotalPnL), quoteCurrency, d.TotalTrades, winRate(d.WinRate))
	}
	fmt.Fprintf(&b, "\n💰 *Window total:* %s %s\n", signed(w.Total.TotalPnL), quoteCurrency)
	fmt.Fprintf(&b, "🎯 *Trades:* %d\n", w.Total.TotalTrades)
	fmt.Fprintf(&b, "✅ *Win rate:* %s\n", winRate(w.Total.WinRate))
	fmt.Fprintf(&b, "📊 *Average per day:* %s %s\n", signed(w.AveragePerDay), quoteCurrency)
	return markdown(b.String())
}

// PnLSummary — вид REALTIME_PNL и команда /pnl. Только реализованный PnL.
func (f *Formatter) PnLSummary(today models.DailyStats, w models.WindowStats) models.Message {
	var b strings.Builder
	b.WriteString("💰 *P&L Summary*\n\n")
	fmt.Fprintf(&b, "📈 *Today:* %s %s\n", signed(today.TotalPnL), quoteCurrency)
	fmt.Fprintf(&b, "📊 *Last %d days:* %s %s\n\n", w.DaysCount, signed(w.Total.TotalPnL), quoteCurrency)
	fmt.Fprintf(&b, "🎯 *Trades today:* %d\n", today.TotalTrades)
	fmt.Fprintf(&b, "✅ *Win rate:* %s\n", winRate(today.WinRate))
	return markdown(b.String())
}

// OpenTrades — вид OPEN_TRADES и команда /trades.
func (f *Formatter) OpenTrades(trades []models.Trade, now time.Time) models.Message {
	if len(trades) == 0 {
		return markdown("📊 No open trades right now")
	}

	var b strings.Builder
	b.WriteString("📊 *Open trades:*\n")
	for _, t := range trades {
		elapsed := now.Sub(t.EntryTime)
		if elapsed < 0 {
			elapsed = 0
		}
		fmt.Fprintf(&b, "\n🎯 %s - %s\n", esc(t.Symbol), t.Side)
		fmt.Fprintf(&b, "💰 Price: %s\n", price(t.EntryPrice))
		fmt.Fprintf(&b, "📊 Qty: %s\n", qty(t.Quantity))
		fmt.Fprintf(&b, "⏱️ Duration: %.1fh\n", elapsed.Hours())
		fmt.Fprintf(&b, "📅 %s\n", f.clock(t.EntryTime))
	}
	return markdown(b.String())
}

// AlgoStatus — статичные поля плюс живое число открытых сделок.
func (f *Formatter) AlgoStatus(openCount int) models.Message {
	var b strings.Builder
	b.WriteString("🤖 *Algo status*\n\n")
	fmt.Fprintf(&b, "🚀 *Algorithm:* %s\n", esc(f.algo.Name))
	if f.algo.Signal != "" {
		fmt.Fprintf(&b, "📈 *Signal:* %s\n", esc(f.algo.Signal))
	}
	fmt.Fprintf(&b, "⚡ *Status:* %s\n", esc(f.algo.Status))
	fmt.Fprintf(&b, "🎯 *Risk:* %s\n", esc(f.algo.Risk))
	fmt.Fprintf(&b, "📂 *Open trades:* %d\n", openCount)
	f.writeSessions(&b)
	return markdown(b.String())
}

// DailyReport — ежедневный отчёт и команда /report.
func (f *Formatter) DailyReport(now time.Time, today, yesterday models.DailyStats, w models.WindowStats) models.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *DAILY REPORT* - %s\n\n", now.In(f.loc).Format(reportLayout))

	b.WriteString("🎯 *TODAY*\n")
	fmt.Fprintf(&b, "• Trades: %d\n", today.TotalTrades)
	fmt.Fprintf(&b, "• Win rate: %s\n", winRate(today.WinRate))
	fmt.Fprintf(&b, "• P&L: %s %s\n\n", signed(today.TotalPnL), quoteCurrency)

	b.WriteString("📈 *YESTERDAY*\n")
	fmt.Fprintf(&b, "• P&L: %s %s\n", signed(yesterday.TotalPnL), quoteCurrency)
	fmt.Fprintf(&b, "• Trades: %d\n\n", yesterday.TotalTrades)

	fmt.Fprintf(&b, "📊 *LAST %d DAYS*\n", w.DaysCount)
	fmt.Fprintf(&b, "• Total P&L: %s %s\n", signed(w.Total.TotalPnL), quoteCurrency)
	fmt.Fprintf(&b, "• Total trades: %d\n", w.Total.TotalTrades)
	fmt.Fprintf(&b, "• Average P&L/day: %s %s\n\n", signed(w.AveragePerDay), quoteCurrency)

	fmt.Fprintf(&b, "🚀 *ALGORITHM:* %s\n", esc(f.algo.Name))
	fmt.Fprintf(&b, "⚡ *STATUS:* %s\n", esc(f.algo.Status))
	fmt.Fprintf(&b, "🎯 *RISK:* %s\n", esc(f.algo.Risk))
	f.writeSessions(&b)
	return markdown(b.String())
}

// Welcome — ответ на /start.
func (f *Formatter) Welcome() models.Message {
	var b strings.Builder
	fmt.Fprintf(&b, "🚀 %s - *Welcome!*\n\n", esc(f.algo.Name))
	b.WriteString("📊 *Commands:*\n")
	b.WriteString("/menu - interactive menu\n")
	b.WriteString("/stats - today's statistics\n")
	b.WriteString("/trades - open trades\n")
	b.WriteString("/pnl - P&L summary\n")
	b.WriteString("/report - detailed report\n\n")
	b.WriteString("📈 *You will receive automatically:*\n")
	b.WriteString("• Real-time entry alerts\n")
	b.WriteString("• Exit alerts with P&L\n")
	b.WriteString("• A daily report\n")
	return markdown(b.String())
}

// Started — сообщение в канал при старте процесса.
func (f *Formatter) Started() models.Message {
	return markdown("🚀 *TRADING BOT STARTED*\n\n📊 Signal monitoring enabled\n⚡ Ready to receive alerts!")
}

// Apology — короткий ответ, когда запрос не удалось выполнить.
func (f *Formatter) Apology() models.Message {
	return models.Message{Text: "⚠️ Sorry, the data is unavailable right now. Please try again later."}
}

// MainMenu — корневой вид интерактивного меню.
func (f *Formatter) MainMenu(now time.Time) models.Message {
	text := fmt.Sprintf("🏠 *Main menu*\n\n🤖 %s\n🕒 %s\n\nPick a view:", esc(f.algo.Name), now.In(f.loc).Format("2006-01-02 15:04 MST"))
	msg := markdown(text)
	msg.Buttons = [][]models.Button{
		{
			{Label: "💰 P&L", Action: menu.Open(models.ViewRealtimePnL).Data()},
			{Label: "📊 Today", Action: menu.Open(models.ViewDailyStats).Data()},
		},
		{
			{Label: "📂 Open trades", Action: menu.Open(models.ViewOpenTrades).Data()},
			{Label: "📅 Week", Action: menu.Open(models.ViewWeeklyStats).Data()},
		},
		{
			{Label: "🤖 Algo status", Action: menu.Open(models.ViewAlgoStatus).Data()},
			{Label: "🔄 Refresh", Action: menu.Refresh().Data()},
		},
	}
	return msg
}

// WithNavigation добавляет кнопки «обновить / назад / меню» к не-корневому виду.
func WithNavigation(msg models.Message) models.Message {
	msg.Buttons = append(msg.Buttons,
		[]models.Button{
			{Label: "🔄 Refresh", Action: menu.Refresh().Data()},
			{Label: "⬅️ Back", Action: menu.Back().Data()},
		},
		[]models.Button{
			{Label: "🏠 Main menu", Action: menu.MainMenu().Data()},
		},
	)
	return msg
}

func (f *Formatter) writeSessions(b *strings.Builder) {
	if len(f.algo.Sessions) == 0 {
		return
	}
	b.WriteString("\n💡 *Trading sessions:*\n")
	for _, s := range f.algo.Sessions {
		fmt.Fprintf(b, "• %s\n", esc(s))
	}
}

func (f *Formatter) clock(t time.Time) string {
	return t.In(f.loc).Format(clockLayout)
}

// esc экранирует подставляемые значения для legacy Markdown. Значения всегда
// стоят вне сущностей (*...*), иначе обратный слэш останется в тексте.
func esc(s string) string { return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s) }

func markdown(text string) models.Message {
	return models.Message{Text: text, ParseMode: models.ParseModeMarkdown}
}

func price(d decimal.Decimal) string { return d.StringFixed(2) }
func qty(d decimal.Decimal) string   { return d.StringFixed(4) }

func signed(d decimal.Decimal) string {
	s := d.StringFixed(2)
	if d.Round(2).Sign() >= 0 {
		return "+" + s
	}
	return s
}

func winRate(d decimal.Decimal) string {
	return d.StringFixed(1) + "%"
}
