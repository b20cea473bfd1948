package usecase

import (
	"fmt"
	"strconv"

	"github.com/romanzzaa/liquidation-bot/internal/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// ValueUnit - в каких единицах показываем стоимость ликвидации
type ValueUnit string

const (
	ValueUnitRaw       ValueUnit = "raw"
	ValueUnitThousands ValueUnit = "thousands" // ÷1000 с суффиксом "K"
)

const priceSignificantDigits = 8

var (
	tier1 = decimal.NewFromInt(100_000)
	tier2 = decimal.NewFromInt(1_000_000)
	tier3 = decimal.NewFromInt(10_000_000)

	thousand = decimal.NewFromInt(1000)
)

// Formatter собирает текст алерта. Чистая функция от входных данных.
type Formatter struct {
	unit     ValueUnit
	decimals int32
	printer  *message.Printer
}

func NewFormatter(unit ValueUnit, decimals int) (*Formatter, error) {
	switch unit {
	case ValueUnitRaw, ValueUnitThousands:
	default:
		return nil, fmt.Errorf("unknown value unit %q", unit)
	}
	if decimals < 0 {
		return nil, fmt.Errorf("value decimals must be >= 0, got %d", decimals)
	}
	return &Formatter{
		unit:     unit,
		decimals: int32(decimals),
		printer:  message.NewPrinter(language.English),
	}, nil
}

// Format возвращает двухстрочное сообщение:
//
//	📉 #BTCUSDT Liquidated Long
//	$65.0K at 65000.123
func (f *Formatter) Format(event domain.LiquidationEvent, value, avgPrice decimal.Decimal) string {
	side := event.Side.ClosedPosition()

	return fmt.Sprintf("%s #%s Liquidated %s\n$%s%s at %s",
		DirectionGlyph(side),
		event.Symbol,
		side,
		f.FormatValue(value),
		IntensityMarker(value),
		FormatPrice(avgPrice),
	)
}

// FormatValue - стоимость с разделителями тысяч в выбранных единицах
func (f *Formatter) FormatValue(value decimal.Decimal) string {
	suffix := ""
	if f.unit == ValueUnitThousands {
		value = value.Div(thousand)
		suffix = "K"
	}
	// Округляем в decimal, printer только группирует разряды
	rounded := value.Round(f.decimals).InexactFloat64()
	return f.printer.Sprint(number.Decimal(rounded, number.Scale(int(f.decimals)))) + suffix
}

// DirectionGlyph: лонги ликвидируют на падении, шорты на росте
func DirectionGlyph(side domain.PositionSide) string {
	if side == domain.PositionLong {
		return "📉"
	}
	return "📈"
}

// IntensityMarker - декоративная "сила" ликвидации по порогам 100K / 1M / 10M
func IntensityMarker(value decimal.Decimal) string {
	switch {
	case value.GreaterThanOrEqual(tier3):
		return "🔥🔥🔥"
	case value.GreaterThanOrEqual(tier2):
		return "🔥🔥"
	case value.GreaterThanOrEqual(tier1):
		return "🔥"
	default:
		return ""
	}
}

// FormatPrice - 8 значащих цифр, хвостовые нули отбрасываются
func FormatPrice(price decimal.Decimal) string {
	return strconv.FormatFloat(price.InexactFloat64(), 'g', priceSignificantDigits, 64)
}
