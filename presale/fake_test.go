package presale

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"testing"
	"time"

	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/hyperledger/fabric-protos-go/peer"
	"github.com/p2eengineering/kalp-sdk-public/response"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/timestamppb"
)

const (
	contractAddress = "klp-70726573616c65-cc"
	wethAddress     = "klp-77657468-cc"
	icotAddress     = "klp-69636f74-cc"
	uniswapRouter   = "klp-756e69-cc"
	aerodromeRouter = "klp-6165726f-cc"
	uncxAddress     = "klp-756e6378-cc"
	sablierAddress  = "klp-7361626c-cc"

	uniswapPair   = "klp-a11ce-cc"
	aerodromePair = "klp-b0b-cc"

	owner     = "0b87970433b22494faff1cc7a819e71bddc7880c"
	investor  = "1111111111111111111111111111111111111111"
	investor2 = "2222222222222222222222222222222222222222"
	treasury2 = "3333333333333333333333333333333333333333"
	brokerAcc = "4444444444444444444444444444444444444444"

	startTime = 1737373900
)

type recordedEvent struct {
	Name    string
	Payload []byte
}

type chaincodeFunc func(w *world, function string, args []string) ([]byte, error)

// world is the ledger shared by the presale contract and the fake chaincodes
// it talks to. Every fake keeps its state in the same map so a failed
// transaction can be rolled back as a whole.
type world struct {
	t          *testing.T
	state      map[string][]byte
	events     []recordedEvent
	now        int64
	signer     string
	chaincodes map[string]chaincodeFunc
}

func newWorld(t *testing.T) *world {
	w := &world{
		t:      t,
		state:  map[string][]byte{},
		now:    startTime,
		signer: owner,
	}
	w.chaincodes = map[string]chaincodeFunc{
		wethAddress:     fakeToken(wethAddress),
		icotAddress:     fakeToken(icotAddress),
		uniswapPair:     fakeToken(uniswapPair),
		aerodromePair:   fakeToken(aerodromePair),
		uniswapRouter:   fakeRouter(uniswapRouter, uniswapPair, false),
		aerodromeRouter: fakeRouter(aerodromeRouter, aerodromePair, true),
		uncxAddress:     fakeLocker,
		sablierAddress:  fakeStreamIssuer,
	}
	return w
}

// submit runs fn as one transaction signed by signer. Writes are discarded
// when fn fails, as the peer does.
func (w *world) submit(signer string, fn func(ctx TransactionContext) error) error {
	snapshot := make(map[string][]byte, len(w.state))
	for k, v := range w.state {
		snapshot[k] = v
	}
	events := len(w.events)

	w.signer = signer
	err := fn(&fakeContext{w: w})
	if err != nil {
		w.state = snapshot
		w.events = w.events[:events]
	}
	return err
}

func (w *world) ctx() TransactionContext {
	return &fakeContext{w: w}
}

func (w *world) advance(d time.Duration) {
	w.now += int64(d / time.Second)
}

func (w *world) lastEvent() recordedEvent {
	require.NotEmpty(w.t, w.events)
	return w.events[len(w.events)-1]
}

type fakeContext struct {
	w *world
}

func (c *fakeContext) GetState(key string) ([]byte, error) {
	return c.w.state[key], nil
}

func (c *fakeContext) PutStateWithoutKYC(key string, value []byte) error {
	c.w.state[key] = append([]byte(nil), value...)
	return nil
}

func (c *fakeContext) SetEvent(name string, payload []byte) error {
	c.w.events = append(c.w.events, recordedEvent{Name: name, Payload: payload})
	return nil
}

func (c *fakeContext) GetClientIdentity() cid.ClientIdentity {
	completeId := fmt.Sprintf("x509::CN=%s,O=Organization,L=City,ST=State,C=Country", c.w.signer)
	return &fakeIdentity{id: base64.StdEncoding.EncodeToString([]byte(completeId))}
}

func (c *fakeContext) GetTxTimestamp() (*timestamppb.Timestamp, error) {
	return timestamppb.New(time.Unix(c.w.now, 0)), nil
}

func (c *fakeContext) GetChannelID() string {
	return "kalp"
}

func (c *fakeContext) InvokeChaincode(chaincodeName string, args [][]byte, channel string) response.Response {
	handler, ok := c.w.chaincodes[chaincodeName]
	if !ok {
		return errorResponse(fmt.Errorf("chaincode %s not found on channel %s", chaincodeName, channel))
	}

	strArgs := make([]string, 0, len(args)-1)
	for _, arg := range args[1:] {
		strArgs = append(strArgs, string(arg))
	}

	payload, err := handler(c.w, string(args[0]), strArgs)
	if err != nil {
		return errorResponse(err)
	}
	return response.Response{
		Response: peer.Response{
			Status:  http.StatusOK,
			Payload: payload,
		},
	}
}

func errorResponse(err error) response.Response {
	return response.Response{
		Response: peer.Response{
			Status:  http.StatusInternalServerError,
			Message: err.Error(),
		},
	}
}

type fakeIdentity struct {
	id string
}

func (f *fakeIdentity) GetID() (string, error)    { return f.id, nil }
func (f *fakeIdentity) GetMSPID() (string, error) { return "KalpMSP", nil }
func (f *fakeIdentity) GetAttributeValue(string) (string, bool, error) {
	return "", false, nil
}
func (f *fakeIdentity) AssertAttributeValue(string, string) error { return nil }
func (f *fakeIdentity) GetX509Certificate() (*x509.Certificate, error) {
	return nil, nil
}

// ledger helpers shared by the fakes and the tests

func amount(v int64) *big.Int {
	return big.NewInt(v)
}

func (w *world) getAmount(key string) *big.Int {
	value := big.NewInt(0)
	if raw, ok := w.state[key]; ok {
		value.SetString(string(raw), 10)
	}
	return value
}

func (w *world) setAmount(key string, value *big.Int) {
	w.state[key] = []byte(value.String())
}

func balanceKey(token, account string) string {
	return fmt.Sprintf("fake~%s~balance~%s", token, account)
}

func allowanceKey(token, holder, spender string) string {
	return fmt.Sprintf("fake~%s~allowance~%s~%s", token, holder, spender)
}

func (w *world) balance(token, account string) *big.Int {
	return w.getAmount(balanceKey(token, account))
}

func (w *world) mint(token, account string, value int64) {
	w.setAmount(balanceKey(token, account), new(big.Int).Add(w.balance(token, account), amount(value)))
}

func (w *world) approve(token, holder, spender string, value *big.Int) {
	w.setAmount(allowanceKey(token, holder, spender), value)
}

func (w *world) move(token, from, to string, value *big.Int) error {
	fromBalance := w.balance(token, from)
	if fromBalance.Cmp(value) < 0 {
		return fmt.Errorf("insufficient balance: %s has %s of %s, needs %s", from, fromBalance, token, value)
	}
	w.setAmount(balanceKey(token, from), fromBalance.Sub(fromBalance, value))
	w.setAmount(balanceKey(token, to), new(big.Int).Add(w.balance(token, to), value))
	return nil
}

// pull spends spender's allowance on holder's tokens.
func (w *world) pull(token, holder, spender, to string, value *big.Int) error {
	allowance := w.getAmount(allowanceKey(token, holder, spender))
	if allowance.Cmp(value) < 0 {
		return fmt.Errorf("insufficient allowance: %s granted %s to %s, needs %s", holder, allowance, spender, value)
	}
	if err := w.move(token, holder, to, value); err != nil {
		return err
	}
	w.setAmount(allowanceKey(token, holder, spender), allowance.Sub(allowance, value))
	return nil
}

func parseArgs(args []string, n int) error {
	if len(args) != n {
		return fmt.Errorf("expected %d args, got %d", n, len(args))
	}
	return nil
}

func parseInt(value string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return v, nil
}

// fakeToken is a fungible ledger whose only caller is the presale contract.
func fakeToken(token string) chaincodeFunc {
	return func(w *world, function string, args []string) ([]byte, error) {
		switch function {
		case "BalanceOf":
			if err := parseArgs(args, 1); err != nil {
				return nil, err
			}
			return []byte(w.balance(token, args[0]).String()), nil
		case "Allowance":
			if err := parseArgs(args, 2); err != nil {
				return nil, err
			}
			return []byte(w.getAmount(allowanceKey(token, args[0], args[1])).String()), nil
		case "Transfer":
			if err := parseArgs(args, 2); err != nil {
				return nil, err
			}
			value, err := parseInt(args[1])
			if err != nil {
				return nil, err
			}
			if err := w.move(token, contractAddress, args[0], value); err != nil {
				return nil, err
			}
			return []byte("true"), nil
		case "TransferFrom":
			if err := parseArgs(args, 3); err != nil {
				return nil, err
			}
			value, err := parseInt(args[2])
			if err != nil {
				return nil, err
			}
			if err := w.pull(token, args[0], contractAddress, args[1], value); err != nil {
				return nil, err
			}
			return []byte("true"), nil
		case "Approve":
			if err := parseArgs(args, 2); err != nil {
				return nil, err
			}
			value, err := parseInt(args[1])
			if err != nil {
				return nil, err
			}
			w.approve(token, contractAddress, args[0], value)
			return []byte("true"), nil
		}
		return nil, fmt.Errorf("unknown function %s", function)
	}
}

func fakeRouter(router, pair string, stableFlag bool) chaincodeFunc {
	return func(w *world, function string, args []string) ([]byte, error) {
		if stableFlag {
			if len(args) < 3 || args[2] != "false" {
				return nil, fmt.Errorf("expected volatile pool flag in %v", args)
			}
			args = append(args[:2:2], args[3:]...)
		}

		switch function {
		case "CreatePair":
			if err := parseArgs(args, 2); err != nil {
				return nil, err
			}
			w.state["fake~"+router+"~pair"] = []byte(args[0] + "/" + args[1])
			return []byte(pair), nil
		case "AddLiquidity":
			if err := parseArgs(args, 5); err != nil {
				return nil, err
			}
			if _, ok := w.state["fake~"+router+"~pair"]; !ok {
				return nil, fmt.Errorf("pair does not exist")
			}
			amountA, err := parseInt(args[2])
			if err != nil {
				return nil, err
			}
			amountB, err := parseInt(args[3])
			if err != nil {
				return nil, err
			}
			if err := w.pull(args[0], contractAddress, router, pair, amountA); err != nil {
				return nil, err
			}
			if err := w.pull(args[1], contractAddress, router, pair, amountB); err != nil {
				return nil, err
			}
			liquidity := new(big.Int).Sqrt(new(big.Int).Mul(amountA, amountB))
			w.setAmount(balanceKey(pair, args[4]), new(big.Int).Add(w.balance(pair, args[4]), liquidity))
			return []byte(liquidity.String()), nil
		}
		return nil, fmt.Errorf("unknown function %s", function)
	}
}

type fakeLock struct {
	LockInfo
	Partial string `json:"partial"`
}

func lockKey(lockID string) string {
	return "fake~uncx~lock~" + lockID
}

func (w *world) loadLock(lockID string) (*fakeLock, error) {
	raw, ok := w.state[lockKey(lockID)]
	if !ok {
		return nil, fmt.Errorf("lock %s not found", lockID)
	}
	var lock fakeLock
	if err := json.Unmarshal(raw, &lock); err != nil {
		return nil, err
	}
	return &lock, nil
}

func (w *world) storeLock(lock *fakeLock) {
	raw, err := json.Marshal(lock)
	require.NoError(w.t, err)
	w.state[lockKey(lock.LockID)] = raw
}

// unlockPartially makes value of the lock withdrawable before its unlock time.
func (w *world) unlockPartially(lockID string, value int64) {
	lock, err := w.loadLock(lockID)
	require.NoError(w.t, err)
	lock.Partial = fmt.Sprint(value)
	w.storeLock(lock)
}

func (w *world) withdrawable(lock *fakeLock) *big.Int {
	locked, _ := parseInt(lock.LockedAmount)
	if uint64(w.now) >= lock.UnlockTime {
		return locked
	}
	if lock.Partial != "" {
		partial, _ := parseInt(lock.Partial)
		if partial.Cmp(locked) > 0 {
			return locked
		}
		return partial
	}
	return big.NewInt(0)
}

func fakeLocker(w *world, function string, args []string) ([]byte, error) {
	switch function {
	case "Lock":
		if err := parseArgs(args, 4); err != nil {
			return nil, err
		}
		value, err := parseInt(args[1])
		if err != nil {
			return nil, err
		}
		if err := w.pull(args[0], contractAddress, uncxAddress, uncxAddress, value); err != nil {
			return nil, err
		}
		unlockTime, err := parseInt(args[2])
		if err != nil {
			return nil, err
		}
		next := new(big.Int).Add(w.getAmount("fake~uncx~nonce"), big.NewInt(1))
		w.setAmount("fake~uncx~nonce", next)
		w.storeLock(&fakeLock{LockInfo: LockInfo{
			LockID:       next.String(),
			Token:        args[0],
			LockedAmount: value.String(),
			UnlockTime:   unlockTime.Uint64(),
			Beneficiary:  args[3],
		}})
		return []byte(next.String()), nil
	case "GetLock":
		if err := parseArgs(args, 1); err != nil {
			return nil, err
		}
		lock, err := w.loadLock(args[0])
		if err != nil {
			return nil, err
		}
		lock.WithdrawableAmount = w.withdrawable(lock).String()
		return json.Marshal(lock.LockInfo)
	case "Withdraw":
		if err := parseArgs(args, 2); err != nil {
			return nil, err
		}
		lock, err := w.loadLock(args[0])
		if err != nil {
			return nil, err
		}
		value, err := parseInt(args[1])
		if err != nil {
			return nil, err
		}
		if value.Cmp(w.withdrawable(lock)) > 0 {
			return nil, fmt.Errorf("amount %s exceeds withdrawable", value)
		}
		if err := w.move(lock.Token, uncxAddress, lock.Beneficiary, value); err != nil {
			return nil, err
		}
		locked, _ := parseInt(lock.LockedAmount)
		lock.LockedAmount = locked.Sub(locked, value).String()
		if lock.Partial != "" {
			partial, _ := parseInt(lock.Partial)
			if partial.Cmp(value) > 0 {
				lock.Partial = partial.Sub(partial, value).String()
			} else {
				lock.Partial = ""
			}
		}
		w.storeLock(lock)
		return nil, nil
	case "Release":
		if err := parseArgs(args, 1); err != nil {
			return nil, err
		}
		lock, err := w.loadLock(args[0])
		if err != nil {
			return nil, err
		}
		locked, _ := parseInt(lock.LockedAmount)
		if err := w.move(lock.Token, uncxAddress, lock.Beneficiary, locked); err != nil {
			return nil, err
		}
		lock.LockedAmount = "0"
		lock.Partial = ""
		w.storeLock(lock)
		return []byte(locked.String()), nil
	}
	return nil, fmt.Errorf("unknown function %s", function)
}

func streamKey(streamID string) string {
	return "fake~sablier~stream~" + streamID
}

func fakeStreamIssuer(w *world, function string, args []string) ([]byte, error) {
	switch function {
	case "CreateWithDurations":
		if err := parseArgs(args, 1); err != nil {
			return nil, err
		}
		var params StreamParams
		if err := json.Unmarshal([]byte(args[0]), &params); err != nil {
			return nil, err
		}
		total, err := parseInt(params.TotalAmount)
		if err != nil {
			return nil, err
		}
		if err := w.pull(params.Asset, contractAddress, sablierAddress, sablierAddress, total); err != nil {
			return nil, err
		}

		fee := new(big.Int).Mul(total, new(big.Int).SetUint64(params.Broker.Fee))
		fee.Div(fee, big.NewInt(10000))
		if fee.Sign() > 0 {
			if err := w.move(params.Asset, sablierAddress, params.Broker.Account, fee); err != nil {
				return nil, err
			}
		}

		next := new(big.Int).Add(w.getAmount("fake~sablier~nonce"), big.NewInt(1))
		w.setAmount("fake~sablier~nonce", next)
		now := uint64(w.now)
		stream := Stream{
			StreamID:        next.String(),
			Sender:          params.Sender,
			Recipient:       params.Recipient,
			StartTime:       now,
			CliffTime:       now + params.CliffDuration,
			EndTime:         now + params.TotalDuration,
			DepositedAmount: new(big.Int).Sub(total, fee).String(),
			WithdrawnAmount: "0",
		}
		raw, err := json.Marshal(stream)
		if err != nil {
			return nil, err
		}
		w.state[streamKey(stream.StreamID)] = raw
		return []byte(stream.StreamID), nil
	case "GetStream":
		if err := parseArgs(args, 1); err != nil {
			return nil, err
		}
		raw, ok := w.state[streamKey(args[0])]
		if !ok {
			return nil, fmt.Errorf("stream %s not found", args[0])
		}
		return raw, nil
	}
	return nil, fmt.Errorf("unknown function %s", function)
}

// fixtures

func testConfig() Config {
	return Config{
		ContractAddress: contractAddress,
		FundingAsset:    wethAddress,
		SaleToken:       icotAddress,
		Threshold:       "50",
		ConversionRate:  "3",
		UniswapRouter:   uniswapRouter,
		AerodromeRouter: aerodromeRouter,
		LockCustodian:   uncxAddress,
		StreamIssuer:    sablierAddress,
		Broker:          Broker{Account: owner, Fee: 0},
	}
}

// newPresale returns an initialized presale whose owner is also a funded,
// fully approved treasury.
func newPresale(t *testing.T) *world {
	w := newWorld(t)
	require.NoError(t, w.submit(owner, func(ctx TransactionContext) error {
		return initialize(ctx, testConfig())
	}))

	w.mint(icotAddress, owner, 1000)
	for _, account := range []string{owner, investor, investor2} {
		w.mint(wethAddress, account, 100)
		w.approve(wethAddress, account, contractAddress, amount(2000))
	}
	return w
}

func withTreasury(t *testing.T, w *world) *world {
	w.approve(icotAddress, owner, contractAddress, amount(50*3+150))
	require.NoError(t, w.submit(owner, func(ctx TransactionContext) error {
		return setTreasury(ctx, owner)
	}))
	return w
}

func investAs(w *world, signer string, value string) (*InvestmentEventData, error) {
	var event *InvestmentEventData
	err := w.submit(signer, func(ctx TransactionContext) error {
		var err error
		event, err = invest(ctx, value)
		return err
	})
	return event, err
}

func fillThreshold(t *testing.T, w *world) {
	_, err := investAs(w, investor, "50")
	require.NoError(t, err)
}

func bootstrap(w *world, tokenAmount string, backend Backend) (*LiquidityCreatedEventData, error) {
	var event *LiquidityCreatedEventData
	err := w.submit(owner, func(ctx TransactionContext) error {
		var err error
		event, err = createLiquidityPool(ctx, tokenAmount, backend)
		return err
	})
	return event, err
}

func (w *world) stream(streamID string) Stream {
	stream, err := getStream(w.ctx(), streamID)
	require.NoError(w.t, err)
	return *stream
}

func requireErrorIs(t *testing.T, err error, target error, status int) {
	t.Helper()
	require.Error(t, err)
	require.ErrorIs(t, err, target)
	require.Equal(t, status, StatusCode(err), err.Error())
}
