package presale

import (
	"math/big"
	"strings"
)

// AMM is the capability set both market-maker families expose to the
// bootstrap.
type AMM interface {
	Kind() Backend
	Router() string
	CreatePair(ctx TransactionContext, tokenA, tokenB string) (string, error)
	AddLiquidity(ctx TransactionContext, tokenA, tokenB string, amountA, amountB *big.Int, to string) (*big.Int, error)
}

type uniswapV2 struct {
	router string
}

func (u uniswapV2) Kind() Backend  { return BackendUniswap }
func (u uniswapV2) Router() string { return u.router }

func (u uniswapV2) CreatePair(ctx TransactionContext, tokenA, tokenB string) (string, error) {
	return createPair(ctx, u.router, tokenA, tokenB)
}

func (u uniswapV2) AddLiquidity(ctx TransactionContext, tokenA, tokenB string, amountA, amountB *big.Int, to string) (*big.Int, error) {
	return invokeAmount(ctx, u.router, "AddLiquidity", tokenA, tokenB, amountA.String(), amountB.String(), to)
}

// aerodrome pools carry a stable/volatile flag; a freshly listed token always
// gets a volatile pool.
type aerodrome struct {
	router string
}

func (a aerodrome) Kind() Backend  { return BackendAerodrome }
func (a aerodrome) Router() string { return a.router }

func (a aerodrome) CreatePair(ctx TransactionContext, tokenA, tokenB string) (string, error) {
	return createPair(ctx, a.router, tokenA, tokenB, "false")
}

func (a aerodrome) AddLiquidity(ctx TransactionContext, tokenA, tokenB string, amountA, amountB *big.Int, to string) (*big.Int, error) {
	return invokeAmount(ctx, a.router, "AddLiquidity", tokenA, tokenB, "false", amountA.String(), amountB.String(), to)
}

func createPair(ctx TransactionContext, router, tokenA, tokenB string, extra ...string) (string, error) {
	args := append([]string{tokenA, tokenB}, extra...)
	payload, err := invoke(ctx, router, "CreatePair", args...)
	if err != nil {
		return "", err
	}

	pair := strings.Trim(strings.TrimSpace(string(payload)), `"`)
	if !IsContractAddressValid(pair) {
		return "", internalError(ErrCollaboratorFailed, "%s.CreatePair returned invalid pair %q", router, pair)
	}
	return pair, nil
}

// NewAMM returns the backend adapter for kind, wired to the router stored in
// config.
func NewAMM(config *Config, kind Backend) (AMM, error) {
	router, err := config.router(kind)
	if err != nil {
		return nil, err
	}

	switch kind {
	case BackendUniswap:
		return uniswapV2{router: router}, nil
	default:
		return aerodrome{router: router}, nil
	}
}
