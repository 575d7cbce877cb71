package event

import (
	"encoding/json"
	"fmt"
)

// DecodePayload unmarshals an envelope payload back into its typed
// event. Used on startup replay, where payloads round-trip through the
// event log.
func DecodePayload(et EventType, payload []byte) (Event, error) {
	var evt Event

	switch et {
	case EventTypeInit:
		evt = &Init{}
	case EventTypeAddAsset:
		evt = &AddAsset{}
	case EventTypeAddMarketToken:
		evt = &AddMarketToken{}
	case EventTypeCreateMarket:
		evt = &CreateMarket{}
	case EventTypeUpdateMinMarketLiquidity:
		evt = &UpdateMinMarketLiquidity{}
	case EventTypeUpdateLossConstant:
		evt = &UpdateLossConstant{}
	case EventTypeUpdateMarketWindowParams:
		evt = &UpdateMarketWindowParams{}
	case EventTypeUpdateMarketDurationParams:
		evt = &UpdateMarketDurationParams{}
	case EventTypeUpdateMarketFeesPercentage:
		evt = &UpdateMarketFeesPercentage{}
	case EventTypePlacePrediction:
		evt = &PlacePrediction{}
	case EventTypeSettleMarket:
		evt = &SettleMarket{}
	case EventTypeDistributeMarketFee:
		evt = &DistributeMarketFee{}
	case EventTypeClaimReturns:
		evt = &ClaimReturns{}
	case EventTypeAddVestingSchedule:
		evt = &AddVestingSchedule{}
	case EventTypeReleaseVestedToken:
		evt = &ReleaseVestedToken{}
	case EventTypeUpfrontTokenTransfer:
		evt = &UpfrontTokenTransfer{}
	default:
		return nil, fmt.Errorf("unknown event type %d", et)
	}

	if err := json.Unmarshal(payload, evt); err != nil {
		return nil, fmt.Errorf("decode %s: %w", et, err)
	}
	return evt, nil
}

// EventTypeFromString maps the wire name back to the discriminator.
func EventTypeFromString(s string) EventType {
	switch s {
	case "Init":
		return EventTypeInit
	case "AddAsset":
		return EventTypeAddAsset
	case "AddMarketToken":
		return EventTypeAddMarketToken
	case "CreateMarket":
		return EventTypeCreateMarket
	case "UpdateMinMarketLiquidity":
		return EventTypeUpdateMinMarketLiquidity
	case "UpdateLossConstant":
		return EventTypeUpdateLossConstant
	case "UpdateMarketWindowParams":
		return EventTypeUpdateMarketWindowParams
	case "UpdateMarketDurationParams":
		return EventTypeUpdateMarketDurationParams
	case "UpdateMarketFeesPercentage":
		return EventTypeUpdateMarketFeesPercentage
	case "PlacePrediction":
		return EventTypePlacePrediction
	case "SettleMarket":
		return EventTypeSettleMarket
	case "DistributeMarketFee":
		return EventTypeDistributeMarketFee
	case "ClaimReturns":
		return EventTypeClaimReturns
	case "AddVestingSchedule":
		return EventTypeAddVestingSchedule
	case "ReleaseVestedToken":
		return EventTypeReleaseVestedToken
	case "UpfrontTokenTransfer":
		return EventTypeUpfrontTokenTransfer
	default:
		return EventTypeUnknown
	}
}
