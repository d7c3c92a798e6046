package presale

import (
	"encoding/json"
	"fmt"
)

type InvestmentEventData struct {
	Investor    string `json:"investor"`
	Amount      string `json:"amount"`
	TokenAmount string `json:"tokenAmount"`
	StreamID    string `json:"streamId"`
}

type TreasuryUpdatedEventData struct {
	Previous  string `json:"previous"`
	Treasury  string `json:"treasury"`
	Allowance string `json:"allowance"`
}

type ThresholdUpdatedEventData struct {
	Previous  string `json:"previous"`
	Threshold string `json:"threshold"`
}

type VestingRangeEventData struct {
	Index int          `json:"index"`
	Range VestingRange `json:"range"`
}

type LiquidityCreatedEventData struct {
	Backend       string `json:"backend"`
	Pair          string `json:"pair"`
	TokenAmount   string `json:"tokenAmount"`
	FundingAmount string `json:"fundingAmount"`
	Liquidity     string `json:"liquidity"`
	LockID        string `json:"lockId"`
	UnlockTime    uint64 `json:"unlockTime"`
}

type LiquidityWithdrawnEventData struct {
	LockID string `json:"lockId"`
	Amount string `json:"amount"`
	To     string `json:"to"`
	Panic  bool   `json:"panic"`
}

type AssetExtractedEventData struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
	To     string `json:"to"`
}

type OwnershipTransferredEventData struct {
	Previous string `json:"previous"`
	Owner    string `json:"owner"`
}

func emit(ctx TransactionContext, name string, event interface{}) error {
	eventJSON, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to obtain JSON encoding: %v", err)
	}

	err = ctx.SetEvent(name, eventJSON)
	if err != nil {
		return fmt.Errorf("failed to set event: %v", err)
	}

	return nil
}

func EmitInvestment(ctx TransactionContext, investor, amount, tokenAmount, streamID string) error {
	return emit(ctx, InvestmentEvent, InvestmentEventData{
		Investor:    investor,
		Amount:      amount,
		TokenAmount: tokenAmount,
		StreamID:    streamID,
	})
}

func EmitLiquidityCreated(ctx TransactionContext, event LiquidityCreatedEventData) error {
	return emit(ctx, LiquidityCreatedEvent, event)
}

func EmitLiquidityWithdrawn(ctx TransactionContext, lockID, amount, to string, emergency bool) error {
	return emit(ctx, LiquidityWithdrawnEvent, LiquidityWithdrawnEventData{
		LockID: lockID,
		Amount: amount,
		To:     to,
		Panic:  emergency,
	})
}
