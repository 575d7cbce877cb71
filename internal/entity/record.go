// Package entity defines the persistent entity graph the projection core
// materializes from the chain event stream. Every record is identified by
// a stable string key; no record is ever deleted.
package entity

// Kind names an entity table.
type Kind string

const (
	KindFactory          Kind = "Factory"
	KindAsset            Kind = "Asset"
	KindMarket           Kind = "Market"
	KindPool             Kind = "Pool"
	KindUser             Kind = "User"
	KindMarketUser       Kind = "MarketUser"
	KindMarketPrediction Kind = "MarketPrediction"
	KindFactoryHourData  Kind = "FactoryHourData"
	KindFactoryDayData   Kind = "FactoryDayData"
	KindAssetHourData    Kind = "AssetHourData"
	KindAssetDayData     Kind = "AssetDayData"
	KindUserDayData      Kind = "UserDayData"
	KindUserMonthData    Kind = "UserMonthData"
	KindVestingSchedule  Kind = "VestingSchedule"
	KindClaim            Kind = "Claim"
)

// FactoryID is the well-known key of the factory singleton. The factory
// is addressed through the same load/upsert contract as every other
// entity — there is no special-cased global.
const FactoryID = "0xc5a5C42992dECbae36851359345FE25997F5C42d"

// Record is implemented by every entity type. Clone must return a deep
// copy: the store hands out and retains copies so that an abandoned
// handler leaves no trace.
type Record interface {
	EntityKind() Kind
	EntityKey() string
	Clone() Record
}
