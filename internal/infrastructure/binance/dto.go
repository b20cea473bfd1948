package binance

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/adshao/go-binance/v2/futures"
	"github.com/romanzzaa/liquidation-bot/internal/domain"
	"github.com/shopspring/decimal"
)

const maxFrameInError = 256

// decodeFrame разбирает кадр forceOrder. Чужие события возвращаются только с Type,
// решение о них принимает гейт. Полный DTO go-binance декодируем только для forceOrder:
// у других событий поле "o" другой формы (в 24hrTicker это строка).
func decodeFrame(frame []byte) (domain.LiquidationEvent, error) {
	payload, fields, err := unwrapEnvelope(frame)
	if err != nil {
		return domain.LiquidationEvent{}, decodeFault(frame, err)
	}

	eventType := eventTypeOf(fields)
	if eventType != domain.EventTypeForceOrder {
		return domain.LiquidationEvent{Type: eventType}, nil
	}

	var raw futures.WsLiquidationOrderEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return domain.LiquidationEvent{}, decodeFault(frame, err)
	}

	event := domain.LiquidationEvent{Type: eventType}
	order := raw.LiquidationOrder
	avgPrice, err := decimal.NewFromString(order.AvgPrice)
	if err != nil {
		return domain.LiquidationEvent{}, decodeFault(frame, fmt.Errorf("field ap: %w", err))
	}
	qty, err := decimal.NewFromString(order.OrigQuantity)
	if err != nil {
		return domain.LiquidationEvent{}, decodeFault(frame, fmt.Errorf("field q: %w", err))
	}

	event.Symbol = order.Symbol
	event.Side = toDomainSide(order.Side)
	event.AvgPrice = avgPrice
	event.Quantity = qty
	if raw.Time > 0 {
		event.EventTime = time.UnixMilli(raw.Time).UTC()
	}
	return event, nil
}

// unwrapEnvelope снимает обертку combined stream ({"stream":...,"data":{...}}).
// Ключи сравниваются точно: encoding/json в структуре сопоставил бы "E" с "e".
func unwrapEnvelope(frame []byte) ([]byte, map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(frame, &fields); err != nil {
		return nil, nil, err
	}

	data, hasData := fields["data"]
	if _, hasStream := fields["stream"]; !hasStream || !hasData || len(data) == 0 {
		return frame, fields, nil
	}

	var inner map[string]json.RawMessage
	if err := json.Unmarshal(data, &inner); err != nil {
		return nil, nil, fmt.Errorf("field data: %w", err)
	}
	return data, inner, nil
}

// eventTypeOf - значение "e"; отсутствующий или нестроковый тег дает ""
func eventTypeOf(fields map[string]json.RawMessage) string {
	var eventType string
	if raw, ok := fields["e"]; ok {
		_ = json.Unmarshal(raw, &eventType)
	}
	return eventType
}

func toDomainSide(side futures.SideType) domain.Side {
	switch side {
	case futures.SideTypeSell:
		return domain.SideSell
	case futures.SideTypeBuy:
		return domain.SideBuy
	default:
		return domain.Side(side)
	}
}

func decodeFault(frame []byte, err error) *domain.DecodeFault {
	s := string(frame)
	if len(s) > maxFrameInError {
		s = s[:maxFrameInError] + "..."
	}
	return &domain.DecodeFault{Frame: s, Err: err}
}
