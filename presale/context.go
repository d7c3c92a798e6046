package presale

import (
	"github.com/hyperledger/fabric-chaincode-go/pkg/cid"
	"github.com/p2eengineering/kalp-sdk-public/response"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// TransactionContext is the part of kalpsdk.TransactionContextInterface the
// presale engine touches.
type TransactionContext interface {
	GetState(key string) ([]byte, error)
	PutStateWithoutKYC(key string, value []byte) error
	SetEvent(name string, payload []byte) error
	GetClientIdentity() cid.ClientIdentity
	GetTxTimestamp() (*timestamppb.Timestamp, error)
	GetChannelID() string
	InvokeChaincode(chaincodeName string, args [][]byte, channel string) response.Response
}
