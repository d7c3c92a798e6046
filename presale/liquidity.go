package presale

import (
	"math"

	"go.uber.org/zap"
)

// createLiquidityPool is the one-way transition out of the raise: it pairs
// every custodied funding-asset unit with tokenAmount sale tokens from the
// treasury on the chosen backend and locks the position with the custodian.
func createLiquidityPool(ctx TransactionContext, tokenAmount string, backend Backend) (*LiquidityCreatedEventData, error) {
	if _, err := requireOwner(ctx); err != nil {
		return nil, err
	}

	config, err := GetConfig(ctx)
	if err != nil {
		return nil, err
	}

	existing, err := GetPool(ctx)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, lifecycleError(ErrAlreadyBootstrapped, "Pool has been already created: %s", existing)
	}

	amm, err := NewAMM(config, backend)
	if err != nil {
		return nil, err
	}

	saleAmount, err := parsePositiveAmount("token amount", tokenAmount)
	if err != nil {
		return nil, err
	}

	remaining, err := remainingHeadroom(ctx)
	if err != nil {
		return nil, err
	}
	if remaining.Sign() > 0 {
		return nil, lifecycleError(ErrThresholdNotReached, "PreSale did not reach the threshold, %s remaining", remaining)
	}

	treasury, err := GetTreasury(ctx)
	if err != nil {
		return nil, err
	}
	if treasury == "" {
		return nil, configError(ErrTreasuryUndefined, "Treasury not defined")
	}

	fundingAsset := Token{Address: config.FundingAsset}
	saleToken := Token{Address: config.SaleToken}

	fundingAmount, err := fundingAsset.BalanceOf(ctx, config.ContractAddress)
	if err != nil {
		return nil, err
	}
	if fundingAmount.Sign() == 0 {
		return nil, lifecycleError(ErrNoFundsAvailable, "No tokens available for liquidity")
	}

	if err := saleToken.TransferFrom(ctx, treasury, config.ContractAddress, saleAmount); err != nil {
		return nil, err
	}

	pair, err := amm.CreatePair(ctx, config.SaleToken, config.FundingAsset)
	if err != nil {
		return nil, err
	}

	if err := saleToken.Approve(ctx, amm.Router(), saleAmount); err != nil {
		return nil, err
	}
	if err := fundingAsset.Approve(ctx, amm.Router(), fundingAmount); err != nil {
		return nil, err
	}

	liquidity, err := amm.AddLiquidity(ctx, config.SaleToken, config.FundingAsset, saleAmount, fundingAmount, config.ContractAddress)
	if err != nil {
		return nil, err
	}
	if liquidity.Sign() == 0 {
		return nil, internalError(ErrCollaboratorFailed, "%s minted no liquidity on %s", amm.Kind(), pair)
	}

	now, err := txTime(ctx)
	if err != nil {
		return nil, err
	}
	if config.LockDuration > math.MaxUint64-now {
		return nil, configError(ErrInvalidRange, "lock duration %d overflows unlock time", config.LockDuration)
	}
	unlockTime := now + config.LockDuration

	locker := Locker{Address: config.LockCustodian}
	if err := (Token{Address: pair}).Approve(ctx, locker.Address, liquidity); err != nil {
		return nil, err
	}
	lockID, err := locker.Lock(ctx, pair, liquidity, unlockTime, config.ContractAddress)
	if err != nil {
		return nil, err
	}

	if err := SetPool(ctx, &PoolIdentity{Backend: amm.Kind(), Pair: pair}); err != nil {
		return nil, err
	}
	if err := SetLockID(ctx, lockID); err != nil {
		return nil, err
	}

	event := &LiquidityCreatedEventData{
		Backend:       amm.Kind().String(),
		Pair:          pair,
		TokenAmount:   saleAmount.String(),
		FundingAmount: fundingAmount.String(),
		Liquidity:     liquidity.String(),
		LockID:        lockID,
		UnlockTime:    unlockTime,
	}
	if err := EmitLiquidityCreated(ctx, *event); err != nil {
		return nil, internalError(err, "failed to emit %s", LiquidityCreatedEvent)
	}

	zap.L().Info("liquidity pool created and locked",
		zap.String("backend", event.Backend),
		zap.String("pair", pair),
		zap.String("token-amount", event.TokenAmount),
		zap.String("funding-amount", event.FundingAmount),
		zap.String("liquidity", event.Liquidity),
		zap.String("lock-id", lockID),
		zap.Uint64("unlock-time", unlockTime),
	)

	return event, nil
}
