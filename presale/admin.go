package presale

import (
	"errors"
	"net/http"

	"go.uber.org/zap"
)

func initialize(ctx TransactionContext, config Config) error {
	signer, err := GetUserId(ctx)
	if err != nil {
		return NewCustomError(http.StatusBadRequest, "failed to get client id", err)
	}

	if _, err := GetConfig(ctx); err == nil {
		return NewCustomError(http.StatusConflict, "presale is already initialized", ErrAlreadyInitialized)
	} else if !errors.Is(err, ErrNotInitialized) {
		return err
	}

	if err := config.validate(); err != nil {
		return err
	}

	threshold, _ := parsePositiveAmount("threshold", config.Threshold)

	if err := putJSON(ctx, configKey, config); err != nil {
		return err
	}
	if err := SetOwner(ctx, signer); err != nil {
		return err
	}
	if err := SetThreshold(ctx, threshold); err != nil {
		return err
	}
	if err := SetBroker(ctx, &config.Broker); err != nil {
		return err
	}
	if err := SetVestingRanges(ctx, NewVestingTable(config.DefaultCliff, config.DefaultDuration)); err != nil {
		return err
	}

	zap.L().Info("presale initialized",
		zap.String("owner", signer),
		zap.String("contract", config.ContractAddress),
		zap.String("funding-asset", config.FundingAsset),
		zap.String("sale-token", config.SaleToken),
		zap.String("threshold", config.Threshold),
		zap.String("conversion-rate", config.ConversionRate),
	)
	return nil
}

func addVestingRange(ctx TransactionContext, r VestingRange) (int, error) {
	if _, err := requireOwner(ctx); err != nil {
		return 0, err
	}

	ranges, err := GetVestingRanges(ctx)
	if err != nil {
		return 0, err
	}
	ranges, err = ranges.Append(r)
	if err != nil {
		return 0, err
	}
	if err := SetVestingRanges(ctx, ranges); err != nil {
		return 0, err
	}

	index := len(ranges) - 1
	if err := emit(ctx, VestingRangeAddedEvent, VestingRangeEventData{Index: index, Range: r}); err != nil {
		return 0, internalError(err, "failed to emit %s", VestingRangeAddedEvent)
	}

	zap.L().Info("vesting range added",
		zap.Int("index", index),
		zap.String("start", r.StartAmount),
		zap.String("end", r.EndAmount),
		zap.Uint64("cliff", r.CliffDuration),
		zap.Uint64("duration", r.VestDuration),
	)
	return index, nil
}

func setVestingRange(ctx TransactionContext, index int, r VestingRange) error {
	if _, err := requireOwner(ctx); err != nil {
		return err
	}

	ranges, err := GetVestingRanges(ctx)
	if err != nil {
		return err
	}
	ranges, err = ranges.Update(index, r)
	if err != nil {
		return err
	}
	if err := SetVestingRanges(ctx, ranges); err != nil {
		return err
	}

	if err := emit(ctx, VestingRangeUpdatedEvent, VestingRangeEventData{Index: index, Range: ranges[index]}); err != nil {
		return internalError(err, "failed to emit %s", VestingRangeUpdatedEvent)
	}

	zap.L().Info("vesting range updated",
		zap.Int("index", index),
		zap.Uint64("cliff", ranges[index].CliffDuration),
		zap.Uint64("duration", ranges[index].VestDuration),
	)
	return nil
}

func setBroker(ctx TransactionContext, broker Broker) error {
	if _, err := requireOwner(ctx); err != nil {
		return err
	}
	if err := broker.validate(); err != nil {
		return err
	}
	if err := SetBroker(ctx, &broker); err != nil {
		return err
	}
	if err := emit(ctx, BrokerUpdatedEvent, broker); err != nil {
		return internalError(err, "failed to emit %s", BrokerUpdatedEvent)
	}

	zap.L().Info("broker updated", zap.String("account", broker.Account), zap.Uint64("fee", broker.Fee))
	return nil
}

// extractERC20 sends any held asset to the owner. It is not gated on the
// lifecycle, so draining the funding asset before the pool is created makes
// createLiquidityPool fail with ErrNoFundsAvailable.
func extractERC20(ctx TransactionContext, asset, amount string) error {
	owner, err := requireOwner(ctx)
	if err != nil {
		return err
	}

	if !IsContractAddressValid(asset) {
		return configError(ErrInvalidAddress, "invalid asset address %q", asset)
	}
	value, err := parsePositiveAmount("amount", amount)
	if err != nil {
		return err
	}

	if err := (Token{Address: asset}).Transfer(ctx, owner, value); err != nil {
		return err
	}

	if err := emit(ctx, AssetExtractedEvent, AssetExtractedEventData{Asset: asset, Amount: value.String(), To: owner}); err != nil {
		return internalError(err, "failed to emit %s", AssetExtractedEvent)
	}

	zap.L().Info("asset extracted", zap.String("asset", asset), zap.String("amount", value.String()), zap.String("to", owner))
	return nil
}

func transferOwnership(ctx TransactionContext, newOwner string) error {
	previous, err := requireOwner(ctx)
	if err != nil {
		return err
	}
	if !IsUserAddressValid(newOwner) {
		return configError(ErrInvalidAddress, "invalid owner address %q", newOwner)
	}
	newOwner = NormalizeAddress(newOwner)

	if err := SetOwner(ctx, newOwner); err != nil {
		return err
	}
	if err := emit(ctx, OwnershipTransferredEvent, OwnershipTransferredEventData{Previous: previous, Owner: newOwner}); err != nil {
		return internalError(err, "failed to emit %s", OwnershipTransferredEvent)
	}

	zap.L().Info("ownership transferred", zap.String("previous", previous), zap.String("owner", newOwner))
	return nil
}

func phase(ctx TransactionContext) (Phase, error) {
	pool, err := GetPool(ctx)
	if err != nil {
		return Unconfigured, err
	}
	if pool != nil {
		released, err := IsLockReleased(ctx)
		if err != nil {
			return Unconfigured, err
		}
		if released {
			return Released, nil
		}
		withdrawn, err := GetLockWithdrawn(ctx)
		if err != nil {
			return Unconfigured, err
		}
		if withdrawn.Sign() > 0 {
			return PartiallyUnlocked, nil
		}
		return Locked, nil
	}

	treasury, err := GetTreasury(ctx)
	if err != nil {
		return Unconfigured, err
	}
	if treasury == "" {
		return Unconfigured, nil
	}

	remaining, err := remainingHeadroom(ctx)
	if err != nil {
		return Unconfigured, err
	}
	if remaining.Sign() <= 0 {
		return ThresholdMet, nil
	}
	return Raising, nil
}
