package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStrike(t *testing.T) {
	strike, err := ParseStrike("KXBTCD-26FEB0317-T78499.99")
	require.NoError(t, err)
	assert.InDelta(t, 78499.99, strike, 1e-9)

	_, err = ParseStrike("KXBTCD-26FEB0317")
	assert.ErrorIs(t, err, ErrNoStrike)

	_, err = ParseStrike("KXBTCD-26FEB0317-Tabc")
	assert.ErrorIs(t, err, ErrNoStrike)
}

func TestDeriveNoAsk(t *testing.T) {
	assert.Equal(t, 72, DeriveNoAsk(28))
	assert.Equal(t, 0, DeriveNoAsk(0))
}

func TestNewMarketQuote(t *testing.T) {
	closeAt := time.Date(2026, 2, 3, 22, 0, 0, 0, time.UTC)
	m := NewMarketQuote("KXBTCD-26FEB0317-T80000", 65, 70, &closeAt)

	assert.InDelta(t, 80000.0, m.Strike, 1e-9)
	assert.Equal(t, 35, m.NoAsk)

	mins := m.MinutesRemaining(closeAt.Add(-90 * time.Minute))
	require.NotNil(t, mins)
	assert.InDelta(t, 90.0, *mins, 1e-9)

	m.CloseTime = nil
	assert.Nil(t, m.MinutesRemaining(closeAt))
}

func TestActionSide(t *testing.T) {
	assert.Equal(t, SideYes, ActionBuyYes.Side())
	assert.Equal(t, SideNo, ActionBuyNo.Side())
}

func TestFormatUSD(t *testing.T) {
	assert.Equal(t, "$78,499.99", FormatUSD(78499.99, 2))
	assert.Equal(t, "$78,500", FormatUSD(78499.99, 0))
	assert.Equal(t, "$999", FormatUSD(999, 0))
	assert.Equal(t, "$1,000,000.00", FormatUSD(1e6, 2))
	assert.Equal(t, "-$3.00", FormatUSD(-3, 2))
}

func TestBuildThesis(t *testing.T) {
	snap := PriceSnapshot{Change24h: 2.04}
	score := SignalScore{Score: 4, Signals: make([]Signal, 5)}
	assert.Equal(t,
		"BTC up +2.0% 24h, score 4/5. Betting it closes above $78,500 at settlement.",
		BuildThesis(snap, score, 78499.99))

	snap.Change24h = -1.5
	assert.Contains(t, BuildThesis(snap, score, 90000), "BTC down -1.5% 24h")
}
