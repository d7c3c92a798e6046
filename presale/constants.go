package presale

import "fmt"

const (
	contractAddressRegex = `^klp-[a-fA-F0-9]+-cc$`

	configKey        = "presale_config"
	ownerKey         = "owner"
	treasuryKey      = "treasury"
	thresholdKey     = "threshold"
	brokerKey        = "broker"
	vestingRangesKey = "vesting_ranges"
	totalInvestedKey = "total_invested"
	poolKey          = "pool"
	lockIDKey        = "lock_id"
	lockReleasedKey  = "lock_released"
	lockWithdrawnKey = "lock_withdrawn"

	investmentKeyPrefix = "investments_"
	streamsKeyPrefix    = "streams_"

	day = 24 * 60 * 60

	defaultLockDuration    = 180 * day
	maxLockDuration        = 100 * 365 * day
	defaultCliffDuration   = 30 * day
	defaultVestingDuration = 180 * day

	maxBrokerFee = 10000

	// Events Keys
	InvestmentEvent           = "Investment"
	TreasuryUpdatedEvent      = "TreasuryUpdated"
	ThresholdUpdatedEvent     = "ThresholdUpdated"
	VestingRangeAddedEvent    = "VestingRangeAdded"
	VestingRangeUpdatedEvent  = "VestingRangeUpdated"
	BrokerUpdatedEvent        = "BrokerUpdated"
	LiquidityCreatedEvent     = "LiquidityCreated"
	LiquidityWithdrawnEvent   = "LiquidityWithdrawn"
	AssetExtractedEvent       = "AssetExtracted"
	OwnershipTransferredEvent = "OwnershipTransferred"
)

// Backend selects the AMM family a pool is created on.
type Backend int

const (
	BackendNone Backend = iota
	BackendUniswap
	BackendAerodrome
)

func (b Backend) String() string {
	if b < BackendNone || b > BackendAerodrome {
		return fmt.Sprintf("Backend(%d)", int(b))
	}
	return [...]string{
		"None",
		"Uniswap",
		"Aerodrome",
	}[b]
}

// Phase is the lifecycle stage derived from the stored state.
type Phase int

const (
	Unconfigured Phase = iota
	Raising
	ThresholdMet
	Locked
	PartiallyUnlocked
	Released
)

func (p Phase) String() string {
	if p < Unconfigured || p > Released {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return [...]string{
		"Unconfigured",
		"Raising",
		"ThresholdMet",
		"Locked",
		"PartiallyUnlocked",
		"Released",
	}[p]
}
