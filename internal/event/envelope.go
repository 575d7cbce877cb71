package event

import "fmt"

// EventType discriminator for event payloads
type EventType int32

const (
	EventTypeUnknown EventType = iota
	EventTypeInit
	EventTypeAddAsset
	EventTypeAddMarketToken
	EventTypeCreateMarket
	EventTypeUpdateMinMarketLiquidity
	EventTypeUpdateLossConstant
	EventTypeUpdateMarketWindowParams
	EventTypeUpdateMarketDurationParams
	EventTypeUpdateMarketFeesPercentage
	EventTypePlacePrediction
	EventTypeSettleMarket
	EventTypeDistributeMarketFee
	EventTypeClaimReturns
	EventTypeAddVestingSchedule
	EventTypeReleaseVestedToken
	EventTypeUpfrontTokenTransfer
)

// Meta is the chain metadata the upstream source attaches to every log:
// emitting contract, block position, and the block timestamp. The
// (BlockNumber, TxIndex, LogIndex) triple is the total order the core
// relies on.
type Meta struct {
	Contract    string
	BlockNumber int64
	TxHash      string
	TxIndex     int64
	LogIndex    int64
	Timestamp   int64 // block timestamp, unix seconds
}

// IdempotencyKey returns the stable per-log dedup key.
func (m Meta) IdempotencyKey() string {
	return fmt.Sprintf("%s-%d", m.TxHash, m.LogIndex)
}

// Order returns the chain-order position of the log.
func (m Meta) Order() Order {
	return Order{Block: m.BlockNumber, TxIndex: m.TxIndex, LogIndex: m.LogIndex}
}

// Order is a point in the chain's total event order.
type Order struct {
	Block    int64
	TxIndex  int64
	LogIndex int64
}

// Compare returns -1, 0 or +1 ordering o against other.
func (o Order) Compare(other Order) int {
	switch {
	case o.Block != other.Block:
		if o.Block < other.Block {
			return -1
		}
		return 1
	case o.TxIndex != other.TxIndex:
		if o.TxIndex < other.TxIndex {
			return -1
		}
		return 1
	case o.LogIndex != other.LogIndex:
		if o.LogIndex < other.LogIndex {
			return -1
		}
		return 1
	}
	return 0
}

// Event is the interface all event payloads implement.
type Event interface {
	// EventType returns the discriminator
	EventType() EventType

	// ChainMeta returns the attached chain metadata
	ChainMeta() Meta
}

// Envelope wraps every processed event in the log.
type Envelope struct {
	// Global monotonic sequence assigned by the core
	Sequence int64

	// Stable idempotency key ({txHash}-{logIndex})
	IdempotencyKey string

	// Event type discriminator
	EventType EventType

	// Chain position of the source log
	BlockNumber int64

	// Block timestamp of the source log (unix seconds, NOT wall-clock)
	Timestamp int64

	// JSON-encoded event-specific payload
	Payload []byte

	// SHA-256 over the entity writes of this event
	StateHash [32]byte

	// Previous event's state hash (chain integrity)
	PrevHash [32]byte
}

func (et EventType) String() string {
	switch et {
	case EventTypeInit:
		return "Init"
	case EventTypeAddAsset:
		return "AddAsset"
	case EventTypeAddMarketToken:
		return "AddMarketToken"
	case EventTypeCreateMarket:
		return "CreateMarket"
	case EventTypeUpdateMinMarketLiquidity:
		return "UpdateMinMarketLiquidity"
	case EventTypeUpdateLossConstant:
		return "UpdateLossConstant"
	case EventTypeUpdateMarketWindowParams:
		return "UpdateMarketWindowParams"
	case EventTypeUpdateMarketDurationParams:
		return "UpdateMarketDurationParams"
	case EventTypeUpdateMarketFeesPercentage:
		return "UpdateMarketFeesPercentage"
	case EventTypePlacePrediction:
		return "PlacePrediction"
	case EventTypeSettleMarket:
		return "SettleMarket"
	case EventTypeDistributeMarketFee:
		return "DistributeMarketFee"
	case EventTypeClaimReturns:
		return "ClaimReturns"
	case EventTypeAddVestingSchedule:
		return "AddVestingSchedule"
	case EventTypeReleaseVestedToken:
		return "ReleaseVestedToken"
	case EventTypeUpfrontTokenTransfer:
		return "UpfrontTokenTransfer"
	default:
		return "Unknown"
	}
}
