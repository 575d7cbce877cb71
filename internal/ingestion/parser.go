package ingestion

import (
	"encoding/json"
	"fmt"
	"math/big"

	"MarketGraph/internal/event"
)

// ParseRawEvent converts a RawEvent (JSON bytes + event type string)
// into a typed event.Event. The shell validates and converts raw events
// before they reach the projection core.
func ParseRawEvent(raw RawEvent, eventType string) (event.Event, error) {
	switch eventType {
	case "Init":
		return parseInit(raw.Data)
	case "AddAsset":
		return parseAddAsset(raw.Data)
	case "AddMarketToken":
		return parseAddMarketToken(raw.Data)
	case "CreateMarket":
		return parseCreateMarket(raw.Data)
	case "UpdateMinMarketLiquidity":
		return parseUpdateMinMarketLiquidity(raw.Data)
	case "UpdateLossConstant":
		return parseUpdateLossConstant(raw.Data)
	case "UpdateMarketWindowParams":
		return parseUpdateMarketWindowParams(raw.Data)
	case "UpdateMarketDurationParams":
		return parseUpdateMarketDurationParams(raw.Data)
	case "UpdateMarketFeesPercentage":
		return parseUpdateMarketFeesPercentage(raw.Data)
	case "PlacePrediction":
		return parsePlacePrediction(raw.Data)
	case "SettleMarket":
		return parseSettleMarket(raw.Data)
	case "DistributeMarketFee":
		return parseDistributeMarketFee(raw.Data)
	case "ClaimReturns":
		return parseClaimReturns(raw.Data)
	case "AddVestingSchedule":
		return parseAddVestingSchedule(raw.Data)
	case "ReleaseVestedToken":
		return parseReleaseVestedToken(raw.Data)
	case "UpfrontTokenTransfer":
		return parseUpfrontTokenTransfer(raw.Data)
	default:
		return nil, fmt.Errorf("unknown event type: %s", eventType)
	}
}

// --- JSON wire formats ---
// These structs represent the JSON payloads received from NATS.
// Field names use snake_case to match the upstream chain indexer.
// Uint256 amounts travel as base-10 decimal strings.

// chainMetaJSON carries the per-log chain metadata common to every
// payload. The (block_number, tx_index, log_index) triple is the total
// order the core relies on; timestamp is the block timestamp.
type chainMetaJSON struct {
	Contract    string `json:"contract"`
	BlockNumber int64  `json:"block_number"`
	TxHash      string `json:"tx_hash"`
	TxIndex     int64  `json:"tx_index"`
	LogIndex    int64  `json:"log_index"`
	Timestamp   int64  `json:"timestamp"`
}

func (j chainMetaJSON) meta() event.Meta {
	return event.Meta{
		Contract:    j.Contract,
		BlockNumber: j.BlockNumber,
		TxHash:      j.TxHash,
		TxIndex:     j.TxIndex,
		LogIndex:    j.LogIndex,
		Timestamp:   j.Timestamp,
	}
}

// parseBig decodes a base-10 decimal string into a big.Int.
func parseBig(field, s string) (*big.Int, error) {
	if s == "" {
		return nil, fmt.Errorf("parse %s: empty", field)
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("parse %s: bad integer %q", field, s)
	}
	return v, nil
}

type initJSON struct {
	chainMetaJSON
	Owner              string `json:"owner"`
	ReportingWindow    int64  `json:"reporting_window"`
	WaitingWindow      int64  `json:"waiting_window"`
	DisputeWindow      int64  `json:"dispute_window"`
	MinMarketDuration  int64  `json:"min_market_duration"`
	MaxMarketDuration  int64  `json:"max_market_duration"`
	CreatorFee         int64  `json:"creator_fee"`
	SettlerFee         int64  `json:"settler_fee"`
	PlatformFee        int64  `json:"platform_fee"`
	LossConstant       int64  `json:"loss_constant"`
	MinMarketLiquidity string `json:"min_market_liquidity"`
}

func parseInit(data []byte) (*event.Init, error) {
	var j initJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse Init: %w", err)
	}
	minLiquidity, err := parseBig("min_market_liquidity", j.MinMarketLiquidity)
	if err != nil {
		return nil, err
	}
	return &event.Init{
		Meta:               j.meta(),
		Owner:              j.Owner,
		ReportingWindow:    j.ReportingWindow,
		WaitingWindow:      j.WaitingWindow,
		DisputeWindow:      j.DisputeWindow,
		MinMarketDuration:  j.MinMarketDuration,
		MaxMarketDuration:  j.MaxMarketDuration,
		CreatorFee:         j.CreatorFee,
		SettlerFee:         j.SettlerFee,
		PlatformFee:        j.PlatformFee,
		LossConstant:       j.LossConstant,
		MinMarketLiquidity: minLiquidity,
	}, nil
}

type addAssetJSON struct {
	chainMetaJSON
	AssetID  string `json:"asset_id"`
	Symbols  string `json:"symbols"`
	Creator  string `json:"creator"`
	Decimals int64  `json:"decimals"`
	FeedType int32  `json:"feed_type"`
	Feed     string `json:"feed"`
}

func parseAddAsset(data []byte) (*event.AddAsset, error) {
	var j addAssetJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse AddAsset: %w", err)
	}
	return &event.AddAsset{
		Meta:     j.meta(),
		AssetID:  j.AssetID,
		Symbols:  j.Symbols,
		Creator:  j.Creator,
		Decimals: j.Decimals,
		FeedType: j.FeedType,
		Feed:     j.Feed,
	}, nil
}

type addMarketTokenJSON struct {
	chainMetaJSON
	Token string `json:"token"`
}

func parseAddMarketToken(data []byte) (*event.AddMarketToken, error) {
	var j addMarketTokenJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse AddMarketToken: %w", err)
	}
	return &event.AddMarketToken{
		Meta:  j.meta(),
		Token: j.Token,
	}, nil
}

type createMarketJSON struct {
	chainMetaJSON
	Creator      string   `json:"creator"`
	AssetID      string   `json:"asset_id"`
	Market       string   `json:"market"`
	Duration     int64    `json:"duration"`
	Token        string   `json:"token"`
	CreationTime int64    `json:"creation_time"`
	Liquidity    string   `json:"liquidity"`
	PoolsRange   []string `json:"pools_range"`
}

func parseCreateMarket(data []byte) (*event.CreateMarket, error) {
	var j createMarketJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse CreateMarket: %w", err)
	}
	liquidity, err := parseBig("liquidity", j.Liquidity)
	if err != nil {
		return nil, err
	}
	poolsRange := make([]*big.Int, 0, len(j.PoolsRange))
	for i, s := range j.PoolsRange {
		threshold, err := parseBig(fmt.Sprintf("pools_range[%d]", i), s)
		if err != nil {
			return nil, err
		}
		poolsRange = append(poolsRange, threshold)
	}
	return &event.CreateMarket{
		Meta:         j.meta(),
		Creator:      j.Creator,
		AssetID:      j.AssetID,
		Market:       j.Market,
		Duration:     j.Duration,
		Token:        j.Token,
		CreationTime: j.CreationTime,
		Liquidity:    liquidity,
		PoolsRange:   poolsRange,
	}, nil
}

type updateMinMarketLiquidityJSON struct {
	chainMetaJSON
	MinMarketLiquidity string `json:"min_market_liquidity"`
}

func parseUpdateMinMarketLiquidity(data []byte) (*event.UpdateMinMarketLiquidity, error) {
	var j updateMinMarketLiquidityJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse UpdateMinMarketLiquidity: %w", err)
	}
	minLiquidity, err := parseBig("min_market_liquidity", j.MinMarketLiquidity)
	if err != nil {
		return nil, err
	}
	return &event.UpdateMinMarketLiquidity{
		Meta:               j.meta(),
		MinMarketLiquidity: minLiquidity,
	}, nil
}

type updateLossConstantJSON struct {
	chainMetaJSON
	LossConstant int64 `json:"loss_constant"`
}

func parseUpdateLossConstant(data []byte) (*event.UpdateLossConstant, error) {
	var j updateLossConstantJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse UpdateLossConstant: %w", err)
	}
	return &event.UpdateLossConstant{
		Meta:         j.meta(),
		LossConstant: j.LossConstant,
	}, nil
}

type updateMarketWindowParamsJSON struct {
	chainMetaJSON
	ReportingWindow int64 `json:"reporting_window"`
	WaitingWindow   int64 `json:"waiting_window"`
	DisputeWindow   int64 `json:"dispute_window"`
}

func parseUpdateMarketWindowParams(data []byte) (*event.UpdateMarketWindowParams, error) {
	var j updateMarketWindowParamsJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse UpdateMarketWindowParams: %w", err)
	}
	return &event.UpdateMarketWindowParams{
		Meta:            j.meta(),
		ReportingWindow: j.ReportingWindow,
		WaitingWindow:   j.WaitingWindow,
		DisputeWindow:   j.DisputeWindow,
	}, nil
}

type updateMarketDurationParamsJSON struct {
	chainMetaJSON
	MinMarketDuration int64 `json:"min_market_duration"`
	MaxMarketDuration int64 `json:"max_market_duration"`
}

func parseUpdateMarketDurationParams(data []byte) (*event.UpdateMarketDurationParams, error) {
	var j updateMarketDurationParamsJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse UpdateMarketDurationParams: %w", err)
	}
	return &event.UpdateMarketDurationParams{
		Meta:              j.meta(),
		MinMarketDuration: j.MinMarketDuration,
		MaxMarketDuration: j.MaxMarketDuration,
	}, nil
}

type updateMarketFeesPercentageJSON struct {
	chainMetaJSON
	CreatorFee  int64 `json:"creator_fee"`
	SettlerFee  int64 `json:"settler_fee"`
	PlatformFee int64 `json:"platform_fee"`
}

func parseUpdateMarketFeesPercentage(data []byte) (*event.UpdateMarketFeesPercentage, error) {
	var j updateMarketFeesPercentageJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse UpdateMarketFeesPercentage: %w", err)
	}
	return &event.UpdateMarketFeesPercentage{
		Meta:        j.meta(),
		CreatorFee:  j.CreatorFee,
		SettlerFee:  j.SettlerFee,
		PlatformFee: j.PlatformFee,
	}, nil
}

type placePredictionJSON struct {
	chainMetaJSON
	Market    string `json:"market"`
	User      string `json:"user"`
	PoolIndex int64  `json:"pool_index"`
	Amount    string `json:"amount"`
	Leverage  int64  `json:"leverage"`
	Positions string `json:"positions"`
}

func parsePlacePrediction(data []byte) (*event.PlacePrediction, error) {
	var j placePredictionJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse PlacePrediction: %w", err)
	}
	amount, err := parseBig("amount", j.Amount)
	if err != nil {
		return nil, err
	}
	positions, err := parseBig("positions", j.Positions)
	if err != nil {
		return nil, err
	}
	return &event.PlacePrediction{
		Meta:      j.meta(),
		Market:    j.Market,
		User:      j.User,
		PoolIndex: j.PoolIndex,
		Amount:    amount,
		Leverage:  j.Leverage,
		Positions: positions,
	}, nil
}

type settleMarketJSON struct {
	chainMetaJSON
	Market          string `json:"market"`
	WinningPool     int64  `json:"winning_pool"`
	Settler         string `json:"settler"`
	CreatorReward   string `json:"creator_reward"`
	PlatformReward  string `json:"platform_reward"`
	SettlerReward   string `json:"settler_reward"`
	UsersRewardPool string `json:"users_reward_pool"`
	RewardPool      string `json:"reward_pool"`
}

func parseSettleMarket(data []byte) (*event.SettleMarket, error) {
	var j settleMarketJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse SettleMarket: %w", err)
	}
	creatorReward, err := parseBig("creator_reward", j.CreatorReward)
	if err != nil {
		return nil, err
	}
	platformReward, err := parseBig("platform_reward", j.PlatformReward)
	if err != nil {
		return nil, err
	}
	settlerReward, err := parseBig("settler_reward", j.SettlerReward)
	if err != nil {
		return nil, err
	}
	usersRewardPool, err := parseBig("users_reward_pool", j.UsersRewardPool)
	if err != nil {
		return nil, err
	}
	rewardPool, err := parseBig("reward_pool", j.RewardPool)
	if err != nil {
		return nil, err
	}
	return &event.SettleMarket{
		Meta:            j.meta(),
		Market:          j.Market,
		WinningPool:     j.WinningPool,
		Settler:         j.Settler,
		CreatorReward:   creatorReward,
		PlatformReward:  platformReward,
		SettlerReward:   settlerReward,
		UsersRewardPool: usersRewardPool,
		RewardPool:      rewardPool,
	}, nil
}

type distributeMarketFeeJSON struct {
	chainMetaJSON
	Market    string `json:"market"`
	User      string `json:"user"`
	AwardType int32  `json:"award_type"`
	Amount    string `json:"amount"`
}

func parseDistributeMarketFee(data []byte) (*event.DistributeMarketFee, error) {
	var j distributeMarketFeeJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse DistributeMarketFee: %w", err)
	}
	amount, err := parseBig("amount", j.Amount)
	if err != nil {
		return nil, err
	}
	return &event.DistributeMarketFee{
		Meta:      j.meta(),
		Market:    j.Market,
		User:      j.User,
		AwardType: j.AwardType,
		Amount:    amount,
	}, nil
}

type claimReturnsJSON struct {
	chainMetaJSON
	Market              string `json:"market"`
	User                string `json:"user"`
	TotalReturns        string `json:"total_returns"`
	ParticipationAmount string `json:"participation_amount"`
}

func parseClaimReturns(data []byte) (*event.ClaimReturns, error) {
	var j claimReturnsJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse ClaimReturns: %w", err)
	}
	totalReturns, err := parseBig("total_returns", j.TotalReturns)
	if err != nil {
		return nil, err
	}
	participationAmount, err := parseBig("participation_amount", j.ParticipationAmount)
	if err != nil {
		return nil, err
	}
	return &event.ClaimReturns{
		Meta:                j.meta(),
		Market:              j.Market,
		User:                j.User,
		TotalReturns:        totalReturns,
		ParticipationAmount: participationAmount,
	}, nil
}

type addVestingScheduleJSON struct {
	chainMetaJSON
	ScheduleID         string `json:"schedule_id"`
	Beneficiary        string `json:"beneficiary"`
	Cliff              int64  `json:"cliff"`
	Start              int64  `json:"start"`
	Duration           int64  `json:"duration"`
	SlicePeriodSeconds int64  `json:"slice_period_seconds"`
	Revocable          bool   `json:"revocable"`
	AmountTotal        string `json:"amount_total"`
	Released           string `json:"released"`
	Revoked            bool   `json:"revoked"`
	UpFront            string `json:"up_front"`
}

func parseAddVestingSchedule(data []byte) (*event.AddVestingSchedule, error) {
	var j addVestingScheduleJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse AddVestingSchedule: %w", err)
	}
	amountTotal, err := parseBig("amount_total", j.AmountTotal)
	if err != nil {
		return nil, err
	}
	released, err := parseBig("released", j.Released)
	if err != nil {
		return nil, err
	}
	upFront, err := parseBig("up_front", j.UpFront)
	if err != nil {
		return nil, err
	}
	return &event.AddVestingSchedule{
		Meta:               j.meta(),
		ScheduleID:         j.ScheduleID,
		Beneficiary:        j.Beneficiary,
		Cliff:              j.Cliff,
		Start:              j.Start,
		Duration:           j.Duration,
		SlicePeriodSeconds: j.SlicePeriodSeconds,
		Revocable:          j.Revocable,
		AmountTotal:        amountTotal,
		Released:           released,
		Revoked:            j.Revoked,
		UpFront:            upFront,
	}, nil
}

type vestingTransferJSON struct {
	chainMetaJSON
	ScheduleID  string `json:"schedule_id"`
	Beneficiary string `json:"beneficiary"`
	Amount      string `json:"amount"`
}

func parseReleaseVestedToken(data []byte) (*event.ReleaseVestedToken, error) {
	var j vestingTransferJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse ReleaseVestedToken: %w", err)
	}
	amount, err := parseBig("amount", j.Amount)
	if err != nil {
		return nil, err
	}
	return &event.ReleaseVestedToken{
		Meta:        j.meta(),
		ScheduleID:  j.ScheduleID,
		Beneficiary: j.Beneficiary,
		Amount:      amount,
	}, nil
}

func parseUpfrontTokenTransfer(data []byte) (*event.UpfrontTokenTransfer, error) {
	var j vestingTransferJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return nil, fmt.Errorf("parse UpfrontTokenTransfer: %w", err)
	}
	amount, err := parseBig("amount", j.Amount)
	if err != nil {
		return nil, err
	}
	return &event.UpfrontTokenTransfer{
		Meta:        j.meta(),
		ScheduleID:  j.ScheduleID,
		Beneficiary: j.Beneficiary,
		Amount:      amount,
	}, nil
}
