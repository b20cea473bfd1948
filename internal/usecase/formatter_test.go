package usecase

import (
	"testing"
	"unicode/utf8"

	"github.com/romanzzaa/liquidation-bot/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func liquidation(side domain.Side, price, qty string) domain.LiquidationEvent {
	return domain.LiquidationEvent{
		Type:     domain.EventTypeForceOrder,
		Symbol:   "BTCUSDT",
		Side:     side,
		AvgPrice: decimal.RequireFromString(price),
		Quantity: decimal.RequireFromString(qty),
	}
}

func newThousandsFormatter(t *testing.T) *Formatter {
	t.Helper()
	f, err := NewFormatter(ValueUnitThousands, 1)
	require.NoError(t, err)
	return f
}

func mustFormatter(t *testing.T, unit ValueUnit, decimals int) *Formatter {
	t.Helper()
	f, err := NewFormatter(unit, decimals)
	require.NoError(t, err)
	return f
}

func TestFormatter_Format(t *testing.T) {
	f := newThousandsFormatter(t)

	t.Run("long below first tier", func(t *testing.T) {
		ev := liquidation(domain.SideSell, "65000.12345678", "1.0")
		got := f.Format(ev, ev.Value(), ev.AvgPrice)
		assert.Equal(t, "📉 #BTCUSDT Liquidated Long\n$65.0K at 65000.123", got)
	})

	t.Run("long with tier one marker", func(t *testing.T) {
		ev := liquidation(domain.SideSell, "65000.12345678", "2.0")
		got := f.Format(ev, ev.Value(), ev.AvgPrice)
		assert.Equal(t, "📉 #BTCUSDT Liquidated Long\n$130.0K🔥 at 65000.123", got)
	})

	t.Run("short", func(t *testing.T) {
		ev := liquidation(domain.SideBuy, "3400.5", "5000")
		got := f.Format(ev, ev.Value(), ev.AvgPrice)
		assert.Equal(t, "📈 #BTCUSDT Liquidated Short\n$17,002.5K🔥🔥🔥 at 3400.5", got)
	})

	t.Run("deterministic", func(t *testing.T) {
		ev := liquidation(domain.SideSell, "0.00012345", "900000000")
		first := f.Format(ev, ev.Value(), ev.AvgPrice)
		assert.Equal(t, first, f.Format(ev, ev.Value(), ev.AvgPrice))
	})
}

func TestFormatter_FormatValue(t *testing.T) {
	value := decimal.RequireFromString("130000.24691356")

	raw, err := NewFormatter(ValueUnitRaw, 2)
	require.NoError(t, err)
	assert.Equal(t, "130,000.25", raw.FormatValue(value))

	rawInt, err := NewFormatter(ValueUnitRaw, 0)
	require.NoError(t, err)
	assert.Equal(t, "130,000", rawInt.FormatValue(value))

	assert.Equal(t, "130.0K", newThousandsFormatter(t).FormatValue(value))
	assert.Equal(t, "1,234.6K", newThousandsFormatter(t).FormatValue(decimal.NewFromInt(1_234_567)))
	assert.Equal(t, "65.0K", newThousandsFormatter(t).FormatValue(decimal.RequireFromString("65000.12345678")))
	assert.Equal(t, "12,345,678.9", mustFormatter(t, ValueUnitRaw, 1).FormatValue(decimal.RequireFromString("12345678.9")))
	assert.Equal(t, "999", mustFormatter(t, ValueUnitRaw, 0).FormatValue(decimal.NewFromInt(999)))
}

func TestNewFormatter_Invalid(t *testing.T) {
	_, err := NewFormatter("millions", 1)
	assert.Error(t, err)

	_, err = NewFormatter(ValueUnitRaw, -1)
	assert.Error(t, err)
}

func TestIntensityMarker(t *testing.T) {
	cases := map[string]string{
		"99999.99":  "",
		"100000":    "🔥",
		"999999.99": "🔥",
		"1000000":   "🔥🔥",
		"9999999":   "🔥🔥",
		"10000000":  "🔥🔥🔥",
		"250000000": "🔥🔥🔥",
	}
	for in, want := range cases {
		assert.Equal(t, want, IntensityMarker(decimal.RequireFromString(in)), in)
	}
}

func TestIntensityMarker_Monotonic(t *testing.T) {
	prev := 0
	for v := int64(50_000); v <= 20_000_000; v += 50_000 {
		n := utf8.RuneCountInString(IntensityMarker(decimal.NewFromInt(v)))
		assert.GreaterOrEqual(t, n, prev, "value %d", v)
		prev = n
	}
}

func TestFormatPrice(t *testing.T) {
	cases := map[string]string{
		"65000.12345678": "65000.123",
		"2.50000000":     "2.5",
		"0.00012345":     "0.00012345",
		"65000":          "65000",
		"123456789":      "1.2345679e+08",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatPrice(decimal.RequireFromString(in)), in)
	}
}
