package presale

import (
	"encoding/json"
	"net/http"

	"github.com/p2eengineering/kalp-sdk-public/kalpsdk"
)

type SmartContract struct {
	kalpsdk.Contract
}

// Initialize stores the deployment configuration and makes the signer the
// owner. configJSON is a JSON encoded Config.
func (s *SmartContract) Initialize(ctx kalpsdk.TransactionContextInterface, configJSON string) error {
	var config Config
	if err := json.Unmarshal([]byte(configJSON), &config); err != nil {
		return NewCustomError(http.StatusBadRequest, "failed to unmarshal config", err)
	}
	return initialize(ctx, config)
}

// Invest contributes amount of the funding asset and returns the id of the
// vesting stream opened for it.
func (s *SmartContract) Invest(ctx kalpsdk.TransactionContextInterface, amount string) (string, error) {
	event, err := invest(ctx, amount)
	if err != nil {
		return "", err
	}
	return event.StreamID, nil
}

func (s *SmartContract) SetTreasury(ctx kalpsdk.TransactionContextInterface, treasury string) error {
	return setTreasury(ctx, treasury)
}

func (s *SmartContract) SetThreshold(ctx kalpsdk.TransactionContextInterface, threshold string) error {
	return setThreshold(ctx, threshold)
}

func (s *SmartContract) AddVestingRange(ctx kalpsdk.TransactionContextInterface, vestingRange VestingRange) (int, error) {
	return addVestingRange(ctx, vestingRange)
}

func (s *SmartContract) SetVestingRange(ctx kalpsdk.TransactionContextInterface, index int, vestingRange VestingRange) error {
	return setVestingRange(ctx, index, vestingRange)
}

func (s *SmartContract) SetBroker(ctx kalpsdk.TransactionContextInterface, broker Broker) error {
	return setBroker(ctx, broker)
}

// CreateLiquidityPool seeds the pool on Uniswap when isUniswap is true and on
// Aerodrome otherwise, then locks the position.
func (s *SmartContract) CreateLiquidityPool(ctx kalpsdk.TransactionContextInterface, tokenAmount string, isUniswap bool) (*LiquidityCreatedEventData, error) {
	backend := BackendAerodrome
	if isUniswap {
		backend = BackendUniswap
	}
	return createLiquidityPool(ctx, tokenAmount, backend)
}

func (s *SmartContract) Withdraw(ctx kalpsdk.TransactionContextInterface) (string, error) {
	event, err := withdraw(ctx)
	if err != nil {
		return "", err
	}
	return event.Amount, nil
}

func (s *SmartContract) PanicWithdraw(ctx kalpsdk.TransactionContextInterface) (string, error) {
	event, err := panicWithdraw(ctx)
	if err != nil {
		return "", err
	}
	return event.Amount, nil
}

func (s *SmartContract) ExtractERC20(ctx kalpsdk.TransactionContextInterface, asset string, amount string) error {
	return extractERC20(ctx, asset, amount)
}

func (s *SmartContract) TransferOwnership(ctx kalpsdk.TransactionContextInterface, newOwner string) error {
	return transferOwnership(ctx, newOwner)
}

func (s *SmartContract) Owner(ctx kalpsdk.TransactionContextInterface) (string, error) {
	return GetOwner(ctx)
}

func (s *SmartContract) Treasury(ctx kalpsdk.TransactionContextInterface) (string, error) {
	return GetTreasury(ctx)
}

func (s *SmartContract) Threshold(ctx kalpsdk.TransactionContextInterface) (string, error) {
	threshold, err := GetThreshold(ctx)
	if err != nil {
		return "", err
	}
	return threshold.String(), nil
}

func (s *SmartContract) ConversionRate(ctx kalpsdk.TransactionContextInterface) (string, error) {
	config, err := GetConfig(ctx)
	if err != nil {
		return "", err
	}
	return config.ConversionRate, nil
}

func (s *SmartContract) TotalInvested(ctx kalpsdk.TransactionContextInterface) (string, error) {
	total, err := GetTotalInvested(ctx)
	if err != nil {
		return "", err
	}
	return total.String(), nil
}

func (s *SmartContract) Investments(ctx kalpsdk.TransactionContextInterface, investor string) (string, error) {
	investment, err := GetInvestment(ctx, NormalizeAddress(investor))
	if err != nil {
		return "", err
	}
	return investment.String(), nil
}

// Remaining is how much can still be invested before the threshold.
func (s *SmartContract) Remaining(ctx kalpsdk.TransactionContextInterface) (string, error) {
	remaining, err := remainingHeadroom(ctx)
	if err != nil {
		return "", err
	}
	if remaining.Sign() < 0 {
		return "0", nil
	}
	return remaining.String(), nil
}

func (s *SmartContract) GetStreams(ctx kalpsdk.TransactionContextInterface, investor string) ([]string, error) {
	return GetStreams(ctx, NormalizeAddress(investor))
}

// GetStream reads a vesting stream back from the stream issuer.
func (s *SmartContract) GetStream(ctx kalpsdk.TransactionContextInterface, streamID string) (*Stream, error) {
	return getStream(ctx, streamID)
}

func (s *SmartContract) VestingRanges(ctx kalpsdk.TransactionContextInterface, index int) (*VestingRange, error) {
	ranges, err := GetVestingRanges(ctx)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(ranges) {
		return nil, configError(ErrIndexOutOfRange, "invalid index %d, table has %d ranges", index, len(ranges))
	}
	return &ranges[index], nil
}

func (s *SmartContract) GetVestingRanges(ctx kalpsdk.TransactionContextInterface) ([]VestingRange, error) {
	return GetVestingRanges(ctx)
}

func (s *SmartContract) Broker(ctx kalpsdk.TransactionContextInterface) (*Broker, error) {
	return GetBroker(ctx)
}

// GetPair returns the zero PoolIdentity before the pool exists.
func (s *SmartContract) GetPair(ctx kalpsdk.TransactionContextInterface) (*PoolIdentity, error) {
	pool, err := GetPool(ctx)
	if err != nil {
		return nil, err
	}
	if pool == nil {
		return &PoolIdentity{Backend: BackendNone}, nil
	}
	return pool, nil
}

func (s *SmartContract) LockID(ctx kalpsdk.TransactionContextInterface) (string, error) {
	lockID, err := GetLockID(ctx)
	if err != nil {
		return "", err
	}
	if lockID == "" {
		return "0", nil
	}
	return lockID, nil
}

func (s *SmartContract) GetLock(ctx kalpsdk.TransactionContextInterface) (*LockInfo, error) {
	config, err := GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	lockID, err := GetLockID(ctx)
	if err != nil {
		return nil, err
	}
	if lockID == "" {
		return nil, lifecycleError(ErrNotBootstrapped, "liquidity has not been locked yet")
	}
	return Locker{Address: config.LockCustodian}.GetLock(ctx, lockID)
}

func (s *SmartContract) Phase(ctx kalpsdk.TransactionContextInterface) (string, error) {
	p, err := phase(ctx)
	if err != nil {
		return "", err
	}
	return p.String(), nil
}

// TreasuryCoverage compares the current treasury's allowance with
// threshold * conversionRate.
func (s *SmartContract) TreasuryCoverage(ctx kalpsdk.TransactionContextInterface) (*TreasuryCoverage, error) {
	config, err := GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	treasury, err := GetTreasury(ctx)
	if err != nil {
		return nil, err
	}
	if treasury == "" {
		return nil, configError(ErrTreasuryUndefined, "Treasury not defined")
	}
	return treasuryCoverage(ctx, config, treasury)
}
