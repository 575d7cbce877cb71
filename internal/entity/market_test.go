package entity_test

import (
	"math/big"
	"testing"

	"MarketGraph/internal/entity"
)

func tradingMarket() *entity.Market {
	m := entity.NewMarket("0xm1")
	m.Phase = entity.MarketPhaseTrading
	m.CreatedTimestamp = 1000
	m.TradingEndTimestamp = 1500
	m.ReportingEndTimestamp = 1800
	m.WaitingEndTimestamp = 2300
	m.DisputeEndTimestamp = 1850
	return m
}

func TestMarket_StatusAt(t *testing.T) {
	m := tradingMarket()

	cases := []struct {
		now  int64
		want entity.MarketStatus
	}{
		{1000, entity.MarketStatusTrading},
		{1499, entity.MarketStatusTrading},
		{1500, entity.MarketStatusReporting},
		{1799, entity.MarketStatusReporting},
		{1800, entity.MarketStatusWaiting},
		// disputeEnd (1850) sits inside the waiting window (ends 2300):
		// waiting wins while now < waitingEnd, so Disputing is never
		// observed for this parameter set.
		{1849, entity.MarketStatusWaiting},
		{2299, entity.MarketStatusWaiting},
		{2300, entity.MarketStatusPendingSettlement},
		{10000, entity.MarketStatusPendingSettlement},
	}
	for _, tc := range cases {
		if got := m.StatusAt(tc.now); got != tc.want {
			t.Errorf("StatusAt(%d) = %s, want %s", tc.now, got, tc.want)
		}
	}
}

func TestMarket_StatusAt_DisputeWindow(t *testing.T) {
	m := tradingMarket()
	// A dispute window longer than the waiting window exposes Disputing.
	m.WaitingEndTimestamp = 1800
	m.DisputeEndTimestamp = 2000

	if got := m.StatusAt(1900); got != entity.MarketStatusDisputing {
		t.Errorf("StatusAt(1900) = %s, want Disputing", got)
	}
	if got := m.StatusAt(2000); got != entity.MarketStatusPendingSettlement {
		t.Errorf("StatusAt(2000) = %s, want PendingSettlement", got)
	}
}

func TestMarket_StatusAt_SettledWinsOverTime(t *testing.T) {
	m := tradingMarket()
	m.Phase = entity.MarketPhaseSettled

	// Once the event-driven phase is Settled, time no longer matters.
	if got := m.StatusAt(1000); got != entity.MarketStatusSettled {
		t.Errorf("StatusAt(1000) = %s, want Settled", got)
	}
}

func TestMarket_CloneIsDeep(t *testing.T) {
	m := tradingMarket()
	m.TotalParticipation = big.NewInt(100)
	m.Users = []string{"0xalice"}

	c := m.Clone().(*entity.Market)
	c.TotalParticipation.SetInt64(999)
	c.Users = append(c.Users, "0xbob")

	if m.TotalParticipation.Int64() != 100 {
		t.Errorf("big.Int shared with clone: %s", m.TotalParticipation)
	}
	if len(m.Users) != 1 {
		t.Errorf("Users slice shared with clone: %v", m.Users)
	}
}

func TestUser_CloneIsDeep(t *testing.T) {
	u := entity.NewUser("0xalice")
	u.TotalPNL = big.NewInt(-10)

	c := u.Clone().(*entity.User)
	c.TotalPNL.SetInt64(0)
	c.TotalRewardsClaimed.SetInt64(7)

	if u.TotalPNL.Int64() != -10 || u.TotalRewardsClaimed.Sign() != 0 {
		t.Errorf("clone aliases original: %s/%s", u.TotalPNL, u.TotalRewardsClaimed)
	}
}

func TestPool_CloneIsDeep(t *testing.T) {
	p := entity.NewPool("0xm1", 0, big.NewInt(0), big.NewInt(100))

	c := p.Clone().(*entity.Pool)
	c.Staked.SetInt64(50)
	c.Upper.SetInt64(7)

	if p.Staked.Sign() != 0 || p.Upper.Int64() != 100 {
		t.Errorf("clone aliases original: %s/%s", p.Staked, p.Upper)
	}
}

func TestNewPool_DoesNotAliasBounds(t *testing.T) {
	lower := big.NewInt(0)
	upper := big.NewInt(100)
	p := entity.NewPool("0xm1", 0, lower, upper)

	upper.SetInt64(1)
	if p.Upper.Int64() != 100 {
		t.Errorf("pool bound aliases caller value: %s", p.Upper)
	}
}

func TestMarketUserID(t *testing.T) {
	if got := entity.MarketUserID("0xm1", "0xalice"); got != "0xm1-0xalice" {
		t.Errorf("got %q", got)
	}
}

func TestPoolID(t *testing.T) {
	if got := entity.PoolID("0xm1", 3); got != "0xm1-3" {
		t.Errorf("got %q", got)
	}
}
