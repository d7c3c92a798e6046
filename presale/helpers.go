package presale

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"net/http"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

var contractAddressPattern = regexp.MustCompile(contractAddressRegex)

func GetUserId(ctx TransactionContext) (string, error) {
	b64ID, err := ctx.GetClientIdentity().GetID()
	if err != nil {
		return "", fmt.Errorf("failed to read clientID: %v", err)
	}

	decodeID, err := base64.StdEncoding.DecodeString(b64ID)
	if err != nil {
		return "", fmt.Errorf("failed to base64 decode clientID: %v", err)
	}

	completeId := string(decodeID)
	start := strings.Index(completeId, "x509::CN=")
	end := strings.Index(completeId, ",")
	if start < 0 || end < start+9 {
		return "", fmt.Errorf("malformed clientID %q", completeId)
	}

	userId := completeId[start+9 : end]
	if !IsUserAddressValid(userId) {
		return "", fmt.Errorf("%w: %s", ErrInvalidAddress, userId)
	}

	return NormalizeAddress(userId), nil
}

func IsContractAddressValid(address string) bool {
	if address == "" {
		return false
	}
	return contractAddressPattern.MatchString(address)
}

func IsUserAddressValid(address string) bool {
	if !common.IsHexAddress(address) {
		return false
	}
	return common.HexToAddress(address) != (common.Address{})
}

// IsAccountValid accepts both user and contract addresses; treasuries and
// brokers may be either.
func IsAccountValid(address string) bool {
	return IsUserAddressValid(address) || IsContractAddressValid(address)
}

// NormalizeAddress lower-cases user addresses and strips any 0x prefix so
// state keys do not depend on how the caller spelled the address.
// Contract addresses are returned unchanged.
func NormalizeAddress(address string) string {
	if IsContractAddressValid(address) {
		return address
	}
	if common.IsHexAddress(address) {
		return strings.ToLower(common.HexToAddress(address).Hex()[2:])
	}
	return address
}

func parseAmount(entity, value string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok || amount.Sign() < 0 {
		return nil, capacityError(ErrInvalidAmount, "invalid amount for %s with value %q", entity, value)
	}
	return amount, nil
}

func parsePositiveAmount(entity, value string) (*big.Int, error) {
	amount, err := parseAmount(entity, value)
	if err != nil {
		return nil, err
	}
	if amount.Sign() == 0 {
		return nil, capacityError(ErrInvalidAmount, "%s cannot be zero", entity)
	}
	return amount, nil
}

func txTime(ctx TransactionContext) (uint64, error) {
	ts, err := ctx.GetTxTimestamp()
	if err != nil {
		return 0, internalError(err, "failed to get tx timestamp")
	}
	return uint64(ts.GetSeconds()), nil
}

func requireOwner(ctx TransactionContext) (string, error) {
	signer, err := GetUserId(ctx)
	if err != nil {
		return "", NewCustomError(http.StatusBadRequest, "failed to get client id", err)
	}

	owner, err := GetOwner(ctx)
	if err != nil {
		return "", err
	}

	if signer != owner {
		return "", NewCustomError(http.StatusForbidden, fmt.Sprintf("signer %s is not the owner", signer), ErrUnauthorized)
	}

	return signer, nil
}
