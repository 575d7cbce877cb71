package event_test

import (
	"encoding/json"
	"math/big"
	"reflect"
	"testing"

	"MarketGraph/internal/event"
)

func testMeta() event.Meta {
	return event.Meta{
		Contract:    "0xfactory",
		BlockNumber: 120,
		TxHash:      "0xabc",
		TxIndex:     3,
		LogIndex:    7,
		Timestamp:   1700000000,
	}
}

func TestDecodePayloadRoundTrip(t *testing.T) {
	amount, _ := new(big.Int).SetString("340282366920938463463374607431768211456", 10)

	events := []event.Event{
		&event.Init{
			Meta:               testMeta(),
			Owner:              "0xowner",
			ReportingWindow:    3600,
			CreatorFee:         2,
			MinMarketLiquidity: big.NewInt(1000),
		},
		&event.CreateMarket{
			Meta:       testMeta(),
			Creator:    "0xcreator",
			AssetID:    "btc-usd",
			Market:     "0xmarket",
			Duration:   86400,
			Liquidity:  amount,
			PoolsRange: []*big.Int{big.NewInt(50000), big.NewInt(60000)},
		},
		&event.PlacePrediction{
			Meta:      testMeta(),
			Market:    "0xmarket",
			User:      "0xuser",
			PoolIndex: 1,
			Amount:    amount,
			Leverage:  2,
			Positions: big.NewInt(200),
		},
		&event.ClaimReturns{
			Meta:                testMeta(),
			Market:              "0xmarket",
			User:                "0xuser",
			TotalReturns:        big.NewInt(150),
			ParticipationAmount: big.NewInt(100),
		},
		&event.AddVestingSchedule{
			Meta:        testMeta(),
			ScheduleID:  "sched-1",
			Beneficiary: "0xuser",
			AmountTotal: amount,
			Released:    big.NewInt(0),
			UpFront:     big.NewInt(10),
		},
	}

	for _, want := range events {
		t.Run(want.EventType().String(), func(t *testing.T) {
			payload, err := json.Marshal(want)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}

			got, err := event.DecodePayload(want.EventType(), payload)
			if err != nil {
				t.Fatalf("DecodePayload: %v", err)
			}

			if !reflect.DeepEqual(got, want) {
				t.Errorf("round trip mismatch:\ngot  %+v\nwant %+v", got, want)
			}
		})
	}
}

func TestDecodePayloadUnknownType(t *testing.T) {
	if _, err := event.DecodePayload(event.EventTypeUnknown, []byte(`{}`)); err == nil {
		t.Error("DecodePayload(Unknown) = nil error, want error")
	}
}

func TestEventTypeFromString(t *testing.T) {
	for et := event.EventTypeInit; et <= event.EventTypeUpfrontTokenTransfer; et++ {
		if got := event.EventTypeFromString(et.String()); got != et {
			t.Errorf("EventTypeFromString(%q) = %v, want %v", et.String(), got, et)
		}
	}
	if got := event.EventTypeFromString("NoSuchEvent"); got != event.EventTypeUnknown {
		t.Errorf("EventTypeFromString(bogus) = %v, want Unknown", got)
	}
}
