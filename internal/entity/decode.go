package entity

import (
	"encoding/json"
	"fmt"
)

// DecodeRecord unmarshals a JSON entity body back into its typed record.
// Used on snapshot restore, where bodies round-trip through Postgres.
func DecodeRecord(kind Kind, body []byte) (Record, error) {
	var rec Record

	switch kind {
	case KindFactory:
		rec = &Factory{}
	case KindAsset:
		rec = &Asset{}
	case KindMarket:
		rec = &Market{}
	case KindPool:
		rec = &Pool{}
	case KindUser:
		rec = &User{}
	case KindMarketUser:
		rec = &MarketUser{}
	case KindMarketPrediction:
		rec = &MarketPrediction{}
	case KindFactoryHourData:
		rec = &FactoryHourData{}
	case KindFactoryDayData:
		rec = &FactoryDayData{}
	case KindAssetHourData:
		rec = &AssetHourData{}
	case KindAssetDayData:
		rec = &AssetDayData{}
	case KindUserDayData:
		rec = &UserDayData{}
	case KindUserMonthData:
		rec = &UserMonthData{}
	case KindVestingSchedule:
		rec = &VestingSchedule{}
	case KindClaim:
		rec = &Claim{}
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}

	if err := json.Unmarshal(body, rec); err != nil {
		return nil, fmt.Errorf("decode %s: %w", kind, err)
	}
	return rec, nil
}
