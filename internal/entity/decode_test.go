package entity_test

import (
	"encoding/json"
	"math/big"
	"reflect"
	"testing"

	"MarketGraph/internal/entity"
)

func TestDecodeRecordRoundTrip(t *testing.T) {
	liquidity, _ := new(big.Int).SetString("115792089237316195423570985008687907853269984665640564039457", 10)

	market := entity.NewMarket("0xmarket")
	market.Asset = "btc-usd"
	market.Creator = "0xcreator"
	market.Liquidity = liquidity
	market.TotalParticipants = 3
	market.Users = []string{"0xa", "0xb", "0xc"}

	user := entity.NewUser("0xuser")
	user.TotalPredictions = 5
	user.TotalPNL = big.NewInt(-250)

	records := []entity.Record{
		entity.NewFactory(entity.FactoryID),
		market,
		user,
		entity.NewPool("0xmarket", 1, big.NewInt(50000), big.NewInt(60000)),
		entity.NewMarketUser("0xmarket", "0xuser"),
	}

	for _, want := range records {
		t.Run(string(want.EntityKind()), func(t *testing.T) {
			body, err := json.Marshal(want)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}

			got, err := entity.DecodeRecord(want.EntityKind(), body)
			if err != nil {
				t.Fatalf("DecodeRecord: %v", err)
			}

			if !reflect.DeepEqual(got, want) {
				t.Errorf("round trip mismatch for %s:\ngot  %+v\nwant %+v", want.EntityKind(), got, want)
			}
		})
	}
}

func TestDecodeRecordUnknownKind(t *testing.T) {
	if _, err := entity.DecodeRecord(entity.Kind("Nope"), []byte(`{}`)); err == nil {
		t.Error("DecodeRecord(unknown kind) = nil error, want error")
	}
}

func TestDecodeRecordBadBody(t *testing.T) {
	if _, err := entity.DecodeRecord(entity.KindMarket, []byte(`{`)); err == nil {
		t.Error("DecodeRecord(malformed body) = nil error, want error")
	}
}
