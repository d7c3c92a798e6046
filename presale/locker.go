package presale

import (
	"fmt"
	"math/big"
	"strings"
)

// Locker wraps the lock custodian chaincode that escrows liquidity-position
// tokens.
type Locker struct {
	Address string
}

func (l Locker) Lock(ctx TransactionContext, token string, amount *big.Int, unlockTime uint64, beneficiary string) (string, error) {
	payload, err := invoke(ctx, l.Address, "Lock", token, amount.String(), fmt.Sprint(unlockTime), beneficiary)
	if err != nil {
		return "", err
	}
	lockID := strings.Trim(strings.TrimSpace(string(payload)), `"`)
	if lockID == "" || lockID == "0" {
		return "", internalError(ErrCollaboratorFailed, "%s returned an empty lock id", l.Address)
	}
	return lockID, nil
}

func (l Locker) GetLock(ctx TransactionContext, lockID string) (*LockInfo, error) {
	var lock LockInfo
	if err := invokeJSON(ctx, l.Address, "GetLock", &lock, lockID); err != nil {
		return nil, err
	}
	return &lock, nil
}

// Withdraw pulls amount of the unlocked position back to the beneficiary.
func (l Locker) Withdraw(ctx TransactionContext, lockID string, amount *big.Int) error {
	_, err := invoke(ctx, l.Address, "Withdraw", lockID, amount.String())
	return err
}

// Release hands the whole position back to the beneficiary regardless of the
// unlock time and reports how much was released.
func (l Locker) Release(ctx TransactionContext, lockID string) (*big.Int, error) {
	return invokeAmount(ctx, l.Address, "Release", lockID)
}
