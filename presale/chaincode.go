package presale

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
)

func invoke(ctx TransactionContext, chaincode, function string, args ...string) ([]byte, error) {
	callArgs := make([][]byte, 0, len(args)+1)
	callArgs = append(callArgs, []byte(function))
	for _, arg := range args {
		callArgs = append(callArgs, []byte(arg))
	}

	resp := ctx.InvokeChaincode(chaincode, callArgs, ctx.GetChannelID())
	if resp.Status != http.StatusOK {
		return nil, internalError(
			fmt.Errorf("%w: %s", ErrCollaboratorFailed, resp.Message),
			"%s.%s failed with status %d", chaincode, function, resp.Status,
		)
	}
	return resp.Payload, nil
}

func invokeJSON(ctx TransactionContext, chaincode, function string, v interface{}, args ...string) error {
	payload, err := invoke(ctx, chaincode, function, args...)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return internalError(err, "failed to unmarshal %s.%s result", chaincode, function)
	}
	return nil
}

func invokeAmount(ctx TransactionContext, chaincode, function string, args ...string) (*big.Int, error) {
	payload, err := invoke(ctx, chaincode, function, args...)
	if err != nil {
		return nil, err
	}

	raw := strings.Trim(strings.TrimSpace(string(payload)), `"`)
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, internalError(ErrCollaboratorFailed, "%s.%s returned invalid amount %q", chaincode, function, raw)
	}
	return amount, nil
}

// Token is a fungible ledger chaincode: the funding asset, the sale token or
// a pool's liquidity-position token.
type Token struct {
	Address string
}

func (t Token) BalanceOf(ctx TransactionContext, account string) (*big.Int, error) {
	return invokeAmount(ctx, t.Address, "BalanceOf", account)
}

func (t Token) Allowance(ctx TransactionContext, owner, spender string) (*big.Int, error) {
	return invokeAmount(ctx, t.Address, "Allowance", owner, spender)
}

func (t Token) Transfer(ctx TransactionContext, to string, amount *big.Int) error {
	return t.expectTrue(ctx, "Transfer", to, amount.String())
}

func (t Token) TransferFrom(ctx TransactionContext, from, to string, amount *big.Int) error {
	return t.expectTrue(ctx, "TransferFrom", from, to, amount.String())
}

func (t Token) Approve(ctx TransactionContext, spender string, amount *big.Int) error {
	return t.expectTrue(ctx, "Approve", spender, amount.String())
}

func (t Token) expectTrue(ctx TransactionContext, function string, args ...string) error {
	payload, err := invoke(ctx, t.Address, function, args...)
	if err != nil {
		return NewCustomError(http.StatusInternalServerError, fmt.Sprintf("%s on %s failed", function, t.Address), fmt.Errorf("%w: %v", ErrTransferFailed, err))
	}
	if strings.Trim(strings.TrimSpace(string(payload)), `"`) != "true" {
		return NewCustomError(http.StatusInternalServerError, fmt.Sprintf("%s on %s returned %q", function, t.Address, payload), ErrTransferFailed)
	}
	return nil
}
