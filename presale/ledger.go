package presale

import (
	"math/big"

	"go.uber.org/zap"
)

// invest accepts up to the remaining headroom below the threshold from the
// signer, opens a vesting stream for the converted sale-token amount and
// books the contribution.
func invest(ctx TransactionContext, amount string) (*InvestmentEventData, error) {
	config, err := GetConfig(ctx)
	if err != nil {
		return nil, err
	}

	investor, err := GetUserId(ctx)
	if err != nil {
		return nil, configError(err, "failed to get client id")
	}

	treasury, err := GetTreasury(ctx)
	if err != nil {
		return nil, err
	}
	if treasury == "" {
		return nil, configError(ErrTreasuryUndefined, "Treasury not defined")
	}

	requested, err := parseAmount("amount", amount)
	if err != nil {
		return nil, err
	}
	if requested.Sign() == 0 {
		return nil, capacityError(ErrInvalidAmount, "Invalid amount")
	}

	pool, err := GetPool(ctx)
	if err != nil {
		return nil, err
	}
	if pool != nil {
		return nil, lifecycleError(ErrAlreadyBootstrapped, "presale closed, pool %s already created", pool.Pair)
	}

	accepted, err := acceptedAmount(ctx, requested)
	if err != nil {
		return nil, err
	}

	fundingAsset := Token{Address: config.FundingAsset}
	if err := fundingAsset.TransferFrom(ctx, investor, config.ContractAddress, accepted); err != nil {
		return nil, err
	}

	ranges, err := GetVestingRanges(ctx)
	if err != nil {
		return nil, err
	}
	tier := ranges.SelectTier(accepted)

	tokenAmount := new(big.Int).Mul(accepted, config.conversionRate())

	streamID, err := openStream(ctx, config, treasury, investor, tokenAmount, tier)
	if err != nil {
		return nil, err
	}

	if err := bookInvestment(ctx, investor, accepted, streamID); err != nil {
		return nil, err
	}

	event := &InvestmentEventData{
		Investor:    investor,
		Amount:      accepted.String(),
		TokenAmount: tokenAmount.String(),
		StreamID:    streamID,
	}
	if err := EmitInvestment(ctx, event.Investor, event.Amount, event.TokenAmount, event.StreamID); err != nil {
		return nil, internalError(err, "failed to emit %s", InvestmentEvent)
	}

	zap.L().Info("investment accepted",
		zap.String("investor", investor),
		zap.String("requested", requested.String()),
		zap.String("accepted", event.Amount),
		zap.String("token-amount", event.TokenAmount),
		zap.String("stream-id", streamID),
		zap.Uint64("cliff", tier.CliffDuration),
		zap.Uint64("duration", tier.VestDuration),
	)

	return event, nil
}

// acceptedAmount caps requested at threshold - totalInvested. A request that
// would be filled with nothing fails instead.
func acceptedAmount(ctx TransactionContext, requested *big.Int) (*big.Int, error) {
	remaining, err := remainingHeadroom(ctx)
	if err != nil {
		return nil, err
	}
	if remaining.Sign() <= 0 {
		return nil, capacityError(ErrThresholdReached, "threshold already reached")
	}

	if requested.Cmp(remaining) > 0 {
		return remaining, nil
	}
	return new(big.Int).Set(requested), nil
}

func remainingHeadroom(ctx TransactionContext) (*big.Int, error) {
	threshold, err := GetThreshold(ctx)
	if err != nil {
		return nil, err
	}
	total, err := GetTotalInvested(ctx)
	if err != nil {
		return nil, err
	}
	return new(big.Int).Sub(threshold, total), nil
}

// openStream moves tokenAmount sale tokens from the treasury into the
// stream issuer on behalf of investor.
func openStream(ctx TransactionContext, config *Config, treasury, investor string, tokenAmount *big.Int, tier VestingRange) (string, error) {
	saleToken := Token{Address: config.SaleToken}
	if err := saleToken.TransferFrom(ctx, treasury, config.ContractAddress, tokenAmount); err != nil {
		return "", err
	}

	issuer := StreamIssuer{Address: config.StreamIssuer}
	if err := saleToken.Approve(ctx, issuer.Address, tokenAmount); err != nil {
		return "", err
	}

	broker, err := GetBroker(ctx)
	if err != nil {
		return "", err
	}

	return issuer.CreateLinearStream(ctx, StreamParams{
		Sender:        treasury,
		Recipient:     investor,
		TotalAmount:   tokenAmount.String(),
		Asset:         config.SaleToken,
		Cancelable:    false,
		Transferable:  true,
		CliffDuration: tier.CliffDuration,
		TotalDuration: tier.VestDuration,
		Broker:        *broker,
	})
}

func bookInvestment(ctx TransactionContext, investor string, accepted *big.Int, streamID string) error {
	investment, err := GetInvestment(ctx, investor)
	if err != nil {
		return err
	}
	if err := SetInvestment(ctx, investor, investment.Add(investment, accepted)); err != nil {
		return err
	}

	total, err := GetTotalInvested(ctx)
	if err != nil {
		return err
	}
	if err := SetTotalInvested(ctx, total.Add(total, accepted)); err != nil {
		return err
	}

	streams, err := GetStreams(ctx, investor)
	if err != nil {
		return err
	}
	return SetStreams(ctx, investor, append(streams, streamID))
}
