package event

import "math/big"

// Init bootstraps the factory singleton with its initial configuration.
// Re-emission overwrites configuration in place but never resets counters.
type Init struct {
	Meta
	Owner              string
	ReportingWindow    int64 // seconds
	WaitingWindow      int64 // seconds
	DisputeWindow      int64 // seconds
	MinMarketDuration  int64 // seconds
	MaxMarketDuration  int64 // seconds
	CreatorFee         int64 // percentage, divisor 100
	SettlerFee         int64
	PlatformFee        int64
	LossConstant       int64
	MinMarketLiquidity *big.Int
}

func (e *Init) EventType() EventType { return EventTypeInit }
func (e *Init) ChainMeta() Meta      { return e.Meta }

// AddAsset registers a tradeable asset pair with the factory.
// Symbols is the composite "sym0:sym1" string emitted by the contract.
type AddAsset struct {
	Meta
	AssetID  string
	Symbols  string
	Creator  string
	Decimals int64
	FeedType int32 // 0=Price, 1=Volume, 2=Rank; anything else defaults to Price
	Feed     string
}

func (e *AddAsset) EventType() EventType { return EventTypeAddAsset }
func (e *AddAsset) ChainMeta() Meta      { return e.Meta }

// AddMarketToken registers an accepted participation token.
type AddMarketToken struct {
	Meta
	Token string
}

func (e *AddMarketToken) EventType() EventType { return EventTypeAddMarketToken }
func (e *AddMarketToken) ChainMeta() Meta      { return e.Meta }

// CreateMarket announces a new market instance spawned by the factory.
// PoolsRange is the ascending list of outcome thresholds; n thresholds
// partition the outcome domain into n+1 pools.
type CreateMarket struct {
	Meta
	Creator      string
	AssetID      string
	Market       string
	Duration     int64 // trading period, seconds
	Token        string
	CreationTime int64 // unix seconds
	Liquidity    *big.Int
	PoolsRange   []*big.Int
}

func (e *CreateMarket) EventType() EventType { return EventTypeCreateMarket }
func (e *CreateMarket) ChainMeta() Meta      { return e.Meta }

// UpdateMinMarketLiquidity overwrites the factory liquidity floor.
type UpdateMinMarketLiquidity struct {
	Meta
	MinMarketLiquidity *big.Int
}

func (e *UpdateMinMarketLiquidity) EventType() EventType { return EventTypeUpdateMinMarketLiquidity }
func (e *UpdateMinMarketLiquidity) ChainMeta() Meta      { return e.Meta }

// UpdateLossConstant overwrites the factory loss constant. Markets created
// before the update keep their creation-time snapshot.
type UpdateLossConstant struct {
	Meta
	LossConstant int64
}

func (e *UpdateLossConstant) EventType() EventType { return EventTypeUpdateLossConstant }
func (e *UpdateLossConstant) ChainMeta() Meta      { return e.Meta }

// UpdateMarketWindowParams overwrites the reporting/waiting/dispute windows.
type UpdateMarketWindowParams struct {
	Meta
	ReportingWindow int64
	WaitingWindow   int64
	DisputeWindow   int64
}

func (e *UpdateMarketWindowParams) EventType() EventType { return EventTypeUpdateMarketWindowParams }
func (e *UpdateMarketWindowParams) ChainMeta() Meta      { return e.Meta }

// UpdateMarketDurationParams overwrites the market duration bounds.
type UpdateMarketDurationParams struct {
	Meta
	MinMarketDuration int64
	MaxMarketDuration int64
}

func (e *UpdateMarketDurationParams) EventType() EventType {
	return EventTypeUpdateMarketDurationParams
}
func (e *UpdateMarketDurationParams) ChainMeta() Meta { return e.Meta }

// UpdateMarketFeesPercentage overwrites the factory fee percentages.
type UpdateMarketFeesPercentage struct {
	Meta
	CreatorFee  int64
	SettlerFee  int64
	PlatformFee int64
}

func (e *UpdateMarketFeesPercentage) EventType() EventType {
	return EventTypeUpdateMarketFeesPercentage
}
func (e *UpdateMarketFeesPercentage) ChainMeta() Meta { return e.Meta }
