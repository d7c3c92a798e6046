package presale

import (
	"math/big"

	"go.uber.org/zap"
)

// setTreasury replaces the treasury only when the candidate has already
// approved this contract for threshold * conversionRate sale tokens, the
// worst-case draw of all streams plus the pool.
func setTreasury(ctx TransactionContext, treasury string) error {
	if _, err := requireOwner(ctx); err != nil {
		return err
	}

	config, err := GetConfig(ctx)
	if err != nil {
		return err
	}

	if !IsAccountValid(treasury) {
		return configError(ErrInvalidAddress, "invalid treasury address %q", treasury)
	}
	treasury = NormalizeAddress(treasury)

	coverage, err := treasuryCoverage(ctx, config, treasury)
	if err != nil {
		return err
	}
	if !coverage.Covered {
		return configError(ErrInsufficientAllowance, "Insufficient allowance: %s granted, %s required", coverage.Allowance, coverage.Required)
	}

	previous, err := GetTreasury(ctx)
	if err != nil {
		return err
	}
	if err := SetTreasury(ctx, treasury); err != nil {
		return err
	}

	if err := emit(ctx, TreasuryUpdatedEvent, TreasuryUpdatedEventData{
		Previous:  previous,
		Treasury:  treasury,
		Allowance: coverage.Allowance,
	}); err != nil {
		return internalError(err, "failed to emit %s", TreasuryUpdatedEvent)
	}

	zap.L().Info("treasury updated",
		zap.String("previous", previous),
		zap.String("treasury", treasury),
		zap.String("allowance", coverage.Allowance),
		zap.String("required", coverage.Required),
	)
	return nil
}

// setThreshold never goes below what has already been raised. It does not
// re-check the treasury allowance; a raise that leaves the treasury short is
// logged and visible through TreasuryCoverage.
func setThreshold(ctx TransactionContext, value string) error {
	if _, err := requireOwner(ctx); err != nil {
		return err
	}

	config, err := GetConfig(ctx)
	if err != nil {
		return err
	}

	threshold, err := parsePositiveAmount("threshold", value)
	if err != nil {
		return err
	}

	total, err := GetTotalInvested(ctx)
	if err != nil {
		return err
	}
	if threshold.Cmp(total) < 0 {
		return capacityError(ErrThresholdBelowRaised, "The investment should be more than current investment: %s < %s", threshold, total)
	}

	previous, err := GetThreshold(ctx)
	if err != nil {
		return err
	}
	if err := SetThreshold(ctx, threshold); err != nil {
		return err
	}

	if err := emit(ctx, ThresholdUpdatedEvent, ThresholdUpdatedEventData{
		Previous:  previous.String(),
		Threshold: threshold.String(),
	}); err != nil {
		return internalError(err, "failed to emit %s", ThresholdUpdatedEvent)
	}

	zap.L().Info("threshold updated",
		zap.String("previous", previous.String()),
		zap.String("threshold", threshold.String()),
	)

	treasury, err := GetTreasury(ctx)
	if err != nil {
		return err
	}
	if treasury != "" {
		coverage, err := treasuryCoverage(ctx, config, treasury)
		if err != nil {
			zap.L().Warn("could not read treasury allowance", zap.String("treasury", treasury), zap.Error(err))
		} else if !coverage.Covered {
			zap.L().Warn("treasury allowance no longer covers threshold",
				zap.String("treasury", treasury),
				zap.String("allowance", coverage.Allowance),
				zap.String("required", coverage.Required),
			)
		}
	}

	return nil
}

func treasuryCoverage(ctx TransactionContext, config *Config, treasury string) (*TreasuryCoverage, error) {
	threshold, err := GetThreshold(ctx)
	if err != nil {
		return nil, err
	}
	required := new(big.Int).Mul(threshold, config.conversionRate())

	allowance, err := Token{Address: config.SaleToken}.Allowance(ctx, treasury, config.ContractAddress)
	if err != nil {
		return nil, err
	}

	return &TreasuryCoverage{
		Treasury:  treasury,
		Required:  required.String(),
		Allowance: allowance.String(),
		Covered:   allowance.Cmp(required) >= 0,
	}, nil
}
