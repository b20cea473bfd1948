package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EventTypeForceOrder - тег события ликвидации в потоке биржи
const EventTypeForceOrder = "forceOrder"

// Side - направление рыночного ордера ликвидации
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// PositionSide - какая позиция была закрыта ликвидацией
type PositionSide string

const (
	PositionLong  PositionSide = "Long"
	PositionShort PositionSide = "Short"
)

// ClosedPosition возвращает сторону ликвидированной позиции.
// Ликвидация лонга исполняется ордером SELL, шорта - ордером BUY.
func (s Side) ClosedPosition() PositionSide {
	if s == SideSell {
		return PositionLong
	}
	return PositionShort
}

// LiquidationEvent - декодированный кадр из потока. Живет только на время одной обработки.
type LiquidationEvent struct {
	Type      string
	Symbol    string
	Side      Side
	AvgPrice  decimal.Decimal
	Quantity  decimal.Decimal
	EventTime time.Time
}

// Value - стоимость ликвидации: средняя цена * исполненный объем
func (e LiquidationEvent) Value() decimal.Decimal {
	return e.AvgPrice.Mul(e.Quantity)
}

// OutboundMessage - готовый текст уведомления и канал назначения
type OutboundMessage struct {
	Channel string
	Text    string
}
