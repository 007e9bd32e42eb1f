package service

import (
	"time"

	"trade_ledger/internal/models"

	"github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// ErrMalformedEvent — событие отклонено на входе, до леджера не дошло.
var ErrMalformedEvent = errors.New("malformed event")

const (
	ActionEntry = "entry"
	ActionExit  = "exit"
)

// Payload — сырое событие от источника сигналов.
// Числа принимаются и как JSON number, и как строка.
type Payload struct {
	Action     string           `json:"action" validate:"required,oneof=entry exit"`
	Symbol     string           `json:"symbol" validate:"required"`
	Side       string           `json:"side,omitempty"`
	Price      *decimal.Decimal `json:"price" validate:"required"`
	Quantity   *decimal.Decimal `json:"quantity,omitempty"`
	PnL        *decimal.Decimal `json:"pnl,omitempty"`
	ID         string           `json:"id,omitempty"`
	EntryPrice *decimal.Decimal `json:"entry_price,omitempty"`
}

var validate = validator.New()

// DecodeEvent разбирает JSON и превращает его в EntryEvent или ExitEvent.
// at — момент прихода события, он же время входа/выхода.
func DecodeEvent(body []byte, at time.Time) (models.Event, error) {
	var p Payload
	if err := sonic.Unmarshal(body, &p); err != nil {
		return nil, errors.Wrap(ErrMalformedEvent, "invalid json: "+err.Error())
	}
	return p.Event(at)
}

// Event валидирует payload и строит закрытый вариант события.
func (p Payload) Event(at time.Time) (models.Event, error) {
	if err := validate.Struct(p); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, errors.Wrapf(ErrMalformedEvent, "field %s failed %q", verrs[0].Field(), verrs[0].Tag())
		}
		return nil, errors.Wrap(ErrMalformedEvent, err.Error())
	}
	if p.Price.Sign() < 0 {
		return nil, errors.Wrap(ErrMalformedEvent, "price must be >= 0")
	}

	switch p.Action {
	case ActionEntry:
		side, err := models.ParseSide(p.Side)
		if err != nil {
			return nil, errors.Wrap(ErrMalformedEvent, err.Error())
		}
		ev := models.EntryEvent{
			ID:     p.ID,
			Symbol: p.Symbol,
			Side:   side,
			Price:  *p.Price,
			At:     at,
		}
		if p.Quantity != nil {
			if p.Quantity.Sign() < 0 {
				return nil, errors.Wrap(ErrMalformedEvent, "quantity must be >= 0")
			}
			q := *p.Quantity
			ev.Quantity = &q
		}
		return ev, nil

	default:
		ev := models.ExitEvent{
			ID:         p.ID,
			Symbol:     p.Symbol,
			Price:      *p.Price,
			PnL:        decimal.Zero,
			EntryPrice: p.EntryPrice,
			At:         at,
		}
		if p.PnL != nil {
			ev.PnL = *p.PnL
		}
		return ev, nil
	}
}

// IsMalformed — ошибка класса «плохой вход».
func IsMalformed(err error) bool {
	return errors.Is(err, ErrMalformedEvent)
}
