package presale

import (
	"math/big"

	"go.uber.org/zap"
)

type lockedPosition struct {
	owner  string
	config *Config
	pool   *PoolIdentity
	lockID string
}

func loadLockedPosition(ctx TransactionContext) (*lockedPosition, error) {
	owner, err := requireOwner(ctx)
	if err != nil {
		return nil, err
	}

	config, err := GetConfig(ctx)
	if err != nil {
		return nil, err
	}

	lockID, err := GetLockID(ctx)
	if err != nil {
		return nil, err
	}
	pool, err := GetPool(ctx)
	if err != nil {
		return nil, err
	}
	if lockID == "" || pool == nil {
		return nil, lifecycleError(ErrNotBootstrapped, "liquidity has not been locked yet")
	}

	released, err := IsLockReleased(ctx)
	if err != nil {
		return nil, err
	}
	if released {
		return nil, lifecycleError(ErrLockReleased, "lock %s has already been released", lockID)
	}

	return &lockedPosition{owner: owner, config: config, pool: pool, lockID: lockID}, nil
}

// withdraw takes out exactly what the custodian reports as withdrawable and
// forwards it to the owner.
func withdraw(ctx TransactionContext) (*LiquidityWithdrawnEventData, error) {
	position, err := loadLockedPosition(ctx)
	if err != nil {
		return nil, err
	}

	locker := Locker{Address: position.config.LockCustodian}
	lock, err := locker.GetLock(ctx, position.lockID)
	if err != nil {
		return nil, err
	}

	withdrawable, err := parseAmount("withdrawable amount", lock.WithdrawableAmount)
	if err != nil {
		return nil, internalError(err, "custodian reported an invalid lock")
	}
	locked, err := parseAmount("locked amount", lock.LockedAmount)
	if err != nil {
		return nil, internalError(err, "custodian reported an invalid lock")
	}
	if withdrawable.Sign() == 0 {
		return nil, lifecycleError(ErrLockNotExpired, "Withdraw is not available, update the unlock conditions (unlock time %d)", lock.UnlockTime)
	}

	if err := locker.Withdraw(ctx, position.lockID, withdrawable); err != nil {
		return nil, err
	}

	fullyReleased := withdrawable.Cmp(locked) >= 0
	return position.payout(ctx, withdrawable, fullyReleased, false)
}

// panicWithdraw releases the whole position regardless of the unlock time.
func panicWithdraw(ctx TransactionContext) (*LiquidityWithdrawnEventData, error) {
	position, err := loadLockedPosition(ctx)
	if err != nil {
		return nil, err
	}

	amount, err := Locker{Address: position.config.LockCustodian}.Release(ctx, position.lockID)
	if err != nil {
		return nil, err
	}

	return position.payout(ctx, amount, true, true)
}

func (p *lockedPosition) payout(ctx TransactionContext, amount *big.Int, released, emergency bool) (*LiquidityWithdrawnEventData, error) {
	if amount.Sign() > 0 {
		if err := (Token{Address: p.pool.Pair}).Transfer(ctx, p.owner, amount); err != nil {
			return nil, err
		}
	}

	withdrawn, err := GetLockWithdrawn(ctx)
	if err != nil {
		return nil, err
	}
	if err := SetLockWithdrawn(ctx, withdrawn.Add(withdrawn, amount)); err != nil {
		return nil, err
	}
	if released {
		if err := SetLockReleased(ctx); err != nil {
			return nil, err
		}
	}

	event := &LiquidityWithdrawnEventData{
		LockID: p.lockID,
		Amount: amount.String(),
		To:     p.owner,
		Panic:  emergency,
	}
	if err := EmitLiquidityWithdrawn(ctx, event.LockID, event.Amount, event.To, event.Panic); err != nil {
		return nil, internalError(err, "failed to emit %s", LiquidityWithdrawnEvent)
	}

	zap.L().Info("liquidity withdrawn",
		zap.String("lock-id", p.lockID),
		zap.String("pair", p.pool.Pair),
		zap.String("amount", event.Amount),
		zap.Bool("panic", emergency),
		zap.Bool("released", released),
	)

	return event, nil
}
