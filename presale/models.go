package presale

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
)

// Config is the deployment configuration handed to Initialize. It never
// changes afterwards.
type Config struct {
	ContractAddress string `json:"contractAddress"`
	FundingAsset    string `json:"fundingAsset"`
	SaleToken       string `json:"saleToken"`
	Threshold       string `json:"threshold"`
	ConversionRate  string `json:"conversionRate"`
	UniswapRouter   string `json:"uniswapRouter"`
	AerodromeRouter string `json:"aerodromeRouter"`
	LockCustodian   string `json:"lockCustodian"`
	StreamIssuer    string `json:"streamIssuer"`
	Broker          Broker `json:"broker"`
	LockDuration    uint64 `json:"lockDuration"`
	DefaultCliff    uint64 `json:"defaultCliff"`
	DefaultDuration uint64 `json:"defaultDuration"`
}

type Broker struct {
	Account string `json:"account"`
	Fee     uint64 `json:"fee"`
}

type VestingRange struct {
	StartAmount   string `json:"startAmount"`
	EndAmount     string `json:"endAmount"`
	CliffDuration uint64 `json:"cliffDuration"`
	VestDuration  uint64 `json:"vestDuration"`
}

type PoolIdentity struct {
	Backend Backend `json:"backend"`
	Pair    string  `json:"pair"`
}

// LockInfo is the lock custodian's view of a locked position.
type LockInfo struct {
	LockID             string `json:"lockId"`
	Token              string `json:"token"`
	LockedAmount       string `json:"lockedAmount"`
	WithdrawableAmount string `json:"withdrawableAmount"`
	UnlockTime         uint64 `json:"unlockTime"`
	Beneficiary        string `json:"beneficiary"`
}

type TreasuryCoverage struct {
	Treasury  string `json:"treasury"`
	Required  string `json:"required"`
	Allowance string `json:"allowance"`
	Covered   bool   `json:"covered"`
}

func getJSON(ctx TransactionContext, key string, v interface{}) (bool, error) {
	data, err := ctx.GetState(key)
	if err != nil {
		return false, internalError(err, "failed to get state with Key %s", key)
	}
	if data == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, internalError(err, "failed to unmarshal state with Key %s", key)
	}
	return true, nil
}

func putJSON(ctx TransactionContext, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return internalError(err, "failed to marshal state with Key %s", key)
	}
	if err := ctx.PutStateWithoutKYC(key, data); err != nil {
		return internalError(err, "failed to set state with Key %s", key)
	}
	return nil
}

func getString(ctx TransactionContext, key string) (string, error) {
	data, err := ctx.GetState(key)
	if err != nil {
		return "", internalError(err, "failed to get state with Key %s", key)
	}
	return string(data), nil
}

func putString(ctx TransactionContext, key, value string) error {
	if err := ctx.PutStateWithoutKYC(key, []byte(value)); err != nil {
		return internalError(err, "failed to set state with Key %s", key)
	}
	return nil
}

func getBigInt(ctx TransactionContext, key string) (*big.Int, error) {
	data, err := ctx.GetState(key)
	if err != nil {
		return nil, internalError(err, "failed to get state with Key %s", key)
	}

	value := big.NewInt(0)
	if data != nil {
		if _, ok := value.SetString(string(data), 10); !ok {
			return nil, internalError(nil, "failed to parse amount stored with Key %s", key)
		}
	}
	return value, nil
}

func putBigInt(ctx TransactionContext, key string, value *big.Int) error {
	data, err := value.MarshalText()
	if err != nil {
		return internalError(err, "failed to marshal amount with Key %s", key)
	}
	if err := ctx.PutStateWithoutKYC(key, data); err != nil {
		return internalError(err, "failed to set amount with Key %s", key)
	}
	return nil
}

func GetConfig(ctx TransactionContext) (*Config, error) {
	var config Config
	found, err := getJSON(ctx, configKey, &config)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, NewCustomError(http.StatusPreconditionFailed, "presale is not initialized", ErrNotInitialized)
	}
	return &config, nil
}

func GetOwner(ctx TransactionContext) (string, error) {
	owner, err := getString(ctx, ownerKey)
	if err != nil {
		return "", err
	}
	if owner == "" {
		return "", NewCustomError(http.StatusPreconditionFailed, "presale is not initialized", ErrNotInitialized)
	}
	return owner, nil
}

func SetOwner(ctx TransactionContext, owner string) error {
	return putString(ctx, ownerKey, owner)
}

// GetTreasury returns "" when no treasury has been set.
func GetTreasury(ctx TransactionContext) (string, error) {
	return getString(ctx, treasuryKey)
}

func SetTreasury(ctx TransactionContext, treasury string) error {
	return putString(ctx, treasuryKey, treasury)
}

func GetThreshold(ctx TransactionContext) (*big.Int, error) {
	return getBigInt(ctx, thresholdKey)
}

func SetThreshold(ctx TransactionContext, threshold *big.Int) error {
	return putBigInt(ctx, thresholdKey, threshold)
}

func GetTotalInvested(ctx TransactionContext) (*big.Int, error) {
	return getBigInt(ctx, totalInvestedKey)
}

func SetTotalInvested(ctx TransactionContext, total *big.Int) error {
	return putBigInt(ctx, totalInvestedKey, total)
}

func GetInvestment(ctx TransactionContext, investor string) (*big.Int, error) {
	return getBigInt(ctx, investmentKeyPrefix+investor)
}

func SetInvestment(ctx TransactionContext, investor string, amount *big.Int) error {
	return putBigInt(ctx, investmentKeyPrefix+investor, amount)
}

func GetStreams(ctx TransactionContext, investor string) ([]string, error) {
	streams := []string{}
	if _, err := getJSON(ctx, streamsKeyPrefix+investor, &streams); err != nil {
		return nil, err
	}
	return streams, nil
}

func SetStreams(ctx TransactionContext, investor string, streams []string) error {
	return putJSON(ctx, streamsKeyPrefix+investor, streams)
}

func GetBroker(ctx TransactionContext) (*Broker, error) {
	var broker Broker
	if _, err := getJSON(ctx, brokerKey, &broker); err != nil {
		return nil, err
	}
	return &broker, nil
}

func SetBroker(ctx TransactionContext, broker *Broker) error {
	return putJSON(ctx, brokerKey, broker)
}

func GetVestingRanges(ctx TransactionContext) (VestingTable, error) {
	var ranges VestingTable
	found, err := getJSON(ctx, vestingRangesKey, &ranges)
	if err != nil {
		return nil, err
	}
	if !found || len(ranges) == 0 {
		return nil, NewCustomError(http.StatusPreconditionFailed, "vesting table is not initialized", ErrNotInitialized)
	}
	return ranges, nil
}

func SetVestingRanges(ctx TransactionContext, ranges VestingTable) error {
	return putJSON(ctx, vestingRangesKey, ranges)
}

// GetPool returns nil before the pool has been created.
func GetPool(ctx TransactionContext) (*PoolIdentity, error) {
	var pool PoolIdentity
	found, err := getJSON(ctx, poolKey, &pool)
	if err != nil || !found {
		return nil, err
	}
	return &pool, nil
}

// SetPool writes the pool identity once. A second write fails with
// ErrAlreadyBootstrapped.
func SetPool(ctx TransactionContext, pool *PoolIdentity) error {
	existing, err := GetPool(ctx)
	if err != nil {
		return err
	}
	if existing != nil {
		return lifecycleError(ErrAlreadyBootstrapped, "pool %s already created", existing.Pair)
	}
	return putJSON(ctx, poolKey, pool)
}

// GetLockID returns "" before liquidity has been locked.
func GetLockID(ctx TransactionContext) (string, error) {
	return getString(ctx, lockIDKey)
}

func SetLockID(ctx TransactionContext, lockID string) error {
	existing, err := GetLockID(ctx)
	if err != nil {
		return err
	}
	if existing != "" {
		return lifecycleError(ErrAlreadyBootstrapped, "lock %s already recorded", existing)
	}
	if lockID == "" || lockID == "0" {
		return internalError(ErrCollaboratorFailed, "lock custodian returned an empty lock id")
	}
	return putString(ctx, lockIDKey, lockID)
}

func IsLockReleased(ctx TransactionContext) (bool, error) {
	released, err := getString(ctx, lockReleasedKey)
	if err != nil {
		return false, err
	}
	return released == "true", nil
}

func SetLockReleased(ctx TransactionContext) error {
	return putString(ctx, lockReleasedKey, "true")
}

// GetLockWithdrawn is the running total of liquidity tokens taken out of the
// lock, through Withdraw or PanicWithdraw.
func GetLockWithdrawn(ctx TransactionContext) (*big.Int, error) {
	return getBigInt(ctx, lockWithdrawnKey)
}

func SetLockWithdrawn(ctx TransactionContext, amount *big.Int) error {
	return putBigInt(ctx, lockWithdrawnKey, amount)
}

func (c *Config) validate() error {
	if !IsContractAddressValid(c.ContractAddress) {
		return configError(ErrInvalidAddress, "invalid contract address %q", c.ContractAddress)
	}

	collaborators := map[string]string{
		"funding asset":    c.FundingAsset,
		"sale token":       c.SaleToken,
		"uniswap router":   c.UniswapRouter,
		"aerodrome router": c.AerodromeRouter,
		"lock custodian":   c.LockCustodian,
		"stream issuer":    c.StreamIssuer,
	}
	for name, address := range collaborators {
		if !IsContractAddressValid(address) {
			return configError(ErrInvalidAddress, "invalid %s address %q", name, address)
		}
	}
	if c.FundingAsset == c.SaleToken {
		return configError(ErrInvalidAddress, "funding asset and sale token must differ")
	}

	if _, err := parsePositiveAmount("threshold", c.Threshold); err != nil {
		return err
	}
	if _, err := parsePositiveAmount("conversion rate", c.ConversionRate); err != nil {
		return err
	}

	if err := c.Broker.validate(); err != nil {
		return err
	}

	if c.LockDuration == 0 {
		c.LockDuration = defaultLockDuration
	}
	if c.LockDuration > maxLockDuration {
		return configError(ErrInvalidRange, "lock duration %d exceeds %d seconds", c.LockDuration, maxLockDuration)
	}
	if c.DefaultDuration == 0 {
		if c.DefaultCliff == 0 {
			c.DefaultCliff = defaultCliffDuration
		}
		c.DefaultDuration = defaultVestingDuration
	}
	if c.DefaultCliff > c.DefaultDuration {
		return configError(ErrInvalidRange, "default cliff %d exceeds duration %d", c.DefaultCliff, c.DefaultDuration)
	}

	return nil
}

func (b *Broker) validate() error {
	if b.Account != "" && !IsAccountValid(b.Account) {
		return configError(ErrInvalidAddress, "invalid broker account %q", b.Account)
	}
	if b.Fee > maxBrokerFee {
		return configError(ErrInvalidBrokerFee, "broker fee %d exceeds %d basis points", b.Fee, maxBrokerFee)
	}
	if b.Account == "" && b.Fee != 0 {
		return configError(ErrInvalidBrokerFee, "broker fee %d set without a broker account", b.Fee)
	}
	b.Account = NormalizeAddress(b.Account)
	return nil
}

func (c *Config) conversionRate() *big.Int {
	rate, _ := new(big.Int).SetString(c.ConversionRate, 10)
	return rate
}

func (c *Config) router(backend Backend) (string, error) {
	switch backend {
	case BackendUniswap:
		return c.UniswapRouter, nil
	case BackendAerodrome:
		return c.AerodromeRouter, nil
	}
	return "", configError(ErrInvalidBackend, "unknown backend %d", backend)
}

func (p *PoolIdentity) String() string {
	return fmt.Sprintf("%s:%s", p.Backend, p.Pair)
}
