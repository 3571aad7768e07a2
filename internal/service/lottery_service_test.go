package service

import (
	"testing"
	"time"

	"github.com/optical-member/internal/config"
	"github.com/optical-member/internal/constants"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupLotteryServiceTest(t *testing.T, name string) (*LotteryService, *serviceTestEnv) {
	t.Helper()
	env := setupServiceTest(t, name)
	return NewLotteryService(env.cfg.Lottery, env.lotteryRepo, env.customerRepo), env
}

func TestDefaultLotteryCatalogSumsToOne(t *testing.T) {
	total := decimal.Zero
	for _, prize := range DefaultLotteryCatalog() {
		total = total.Add(prize.Probability)
	}
	if !total.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("probability sum = %s, want 1", total)
	}
}

func TestLotteryPickUsesCumulativeProbability(t *testing.T) {
	svc := NewLotteryService(config.LotteryConfig{}, nil, nil)
	cases := []struct {
		roll float64
		want int
	}{
		{0.0, constants.LotteryPrizeDiscount},
		{0.099, constants.LotteryPrizeDiscount},
		{0.10, constants.LotteryPrizeCleaning},
		{0.50, constants.LotteryPrizeCloth},
		{0.80, constants.LotteryPrizePoints},
		{0.95, constants.LotteryPrizeNone},
		{0.9999, constants.LotteryPrizeNone},
	}
	for _, tc := range cases {
		roll := tc.roll
		svc.roll = func() float64 { return roll }
		prize, err := svc.pick()
		require.NoError(t, err)
		if prize.ID != tc.want {
			t.Fatalf("roll %v: want prize %d, got %d", tc.roll, tc.want, prize.ID)
		}
	}
}

func TestLotteryDrawOncePerDay(t *testing.T) {
	svc, env := setupLotteryServiceTest(t, "lottery_daily")
	customer := env.createCustomer(t, "openid-lottery", 0)
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.Local)
	svc.now = fixedClock(now)
	svc.roll = func() float64 { return 0.2 }

	record, err := svc.Draw(customer.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.LotteryPrizeCleaning, record.PrizeKind)
	assert.Equal(t, "2026-03-01", record.DrawDate)
	assert.WithinDuration(t, now.AddDate(0, 0, 3), record.ExpireAt, time.Second)

	_, err = svc.Draw(customer.ID)
	assert.ErrorIs(t, err, ErrLotteryAlreadyDrawn)

	today, err := svc.CheckToday(customer.ID)
	require.NoError(t, err)
	assert.True(t, today.HasDrawn)
	require.NotNil(t, today.Record)
	assert.Equal(t, record.ID, today.Record.ID)

	svc.now = fixedClock(now.Add(24 * time.Hour))
	tomorrow, err := svc.CheckToday(customer.ID)
	require.NoError(t, err)
	assert.False(t, tomorrow.HasDrawn)
	_, err = svc.Draw(customer.ID)
	require.NoError(t, err)
}

func TestLotteryDrawPointsPrizeAddsPoints(t *testing.T) {
	svc, env := setupLotteryServiceTest(t, "lottery_points")
	customer := env.createCustomer(t, "openid-points", 0)
	svc.roll = func() float64 { return 0.8 }

	record, err := svc.Draw(customer.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.LotteryPrizePoints, record.PrizeKind)
	assert.Equal(t, int64(10), env.reloadCustomer(t, customer.ID).Points)
}

func TestLotteryListMyPrizesSkipsNone(t *testing.T) {
	svc, env := setupLotteryServiceTest(t, "lottery_my_prizes")
	customer := env.createCustomer(t, "openid-my-prizes", 0)
	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)

	rolls := []float64{0.2, 0.95, 0.5}
	for i, roll := range rolls {
		svc.now = fixedClock(start.AddDate(0, 0, i))
		r := roll
		svc.roll = func() float64 { return r }
		_, err := svc.Draw(customer.ID)
		require.NoError(t, err)
	}

	prizes, err := svc.ListMyPrizes(customer.ID)
	require.NoError(t, err)
	require.Len(t, prizes, 2)
	for _, prize := range prizes {
		assert.NotEqual(t, constants.LotteryPrizeNone, prize.PrizeKind)
	}
}

func TestLotteryUsePrize(t *testing.T) {
	svc, env := setupLotteryServiceTest(t, "lottery_use")
	customer := env.createCustomer(t, "openid-use", 0)
	other := env.createCustomer(t, "openid-use-other", 0)
	now := time.Now()
	prize := env.createPrize(t, customer, "免费清洗", now.Add(time.Hour), "2026-03-10")
	expired := env.createPrize(t, customer, "眼镜布", now.Add(-time.Hour), "2026-03-11")
	svc.now = fixedClock(now)

	_, err := svc.UsePrize(other.ID, prize.ID)
	assert.ErrorIs(t, err, ErrPrizeNotFound)

	used, err := svc.UsePrize(customer.ID, prize.ID)
	require.NoError(t, err)
	assert.True(t, used.IsUsed)

	_, err = svc.UsePrize(customer.ID, prize.ID)
	assert.ErrorIs(t, err, ErrPrizeAlreadyUsed)

	_, err = svc.UsePrize(customer.ID, expired.ID)
	assert.ErrorIs(t, err, ErrPrizeExpired)
}

func TestLotteryDrawUnknownCustomer(t *testing.T) {
	svc, _ := setupLotteryServiceTest(t, "lottery_unknown")
	_, err := svc.Draw(404)
	assert.ErrorIs(t, err, ErrCustomerNotFound)
}
