package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"EventPulse/internal/domain/models"
)

func TestGetPricesRangeAndLimit(t *testing.T) {
	uc := NewPriceHistoryUseCase(&fakePrices{days: weekdays(30)})

	res, err := uc.GetPrices(context.Background(), GetPricesParams{
		Ticker: "acme",
		From:   date(1, 8),
		To:     date(1, 19),
		Limit:  3,
	})
	require.NoError(t, err)
	assert.Equal(t, "ACME", res.Ticker)
	require.Equal(t, 3, res.Count)
	assert.Equal(t, date(1, 17), res.Days[0].Date)
	assert.Equal(t, date(1, 19), res.Days[2].Date)
	assert.Equal(t, 114.0, res.Days[2].Close)
}

func TestGetPricesEmpty(t *testing.T) {
	uc := NewPriceHistoryUseCase(&fakePrices{})
	res, err := uc.GetPrices(context.Background(), GetPricesParams{Ticker: "ACME"})
	require.NoError(t, err)
	assert.Zero(t, res.Count)
	assert.NotNil(t, res.Days)
}

func TestGetPricesValidation(t *testing.T) {
	uc := NewPriceHistoryUseCase(&fakePrices{days: weekdays(5)})

	_, err := uc.GetPrices(context.Background(), GetPricesParams{})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = uc.GetPrices(context.Background(), GetPricesParams{Ticker: "A", From: date(2, 1), To: date(1, 1)})
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestGetPricesSourceError(t *testing.T) {
	uc := NewPriceHistoryUseCase(&fakePrices{err: errors.New("down")})
	_, err := uc.GetPrices(context.Background(), GetPricesParams{Ticker: "ACME"})
	assert.Error(t, err)
}
