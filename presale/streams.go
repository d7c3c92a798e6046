package presale

import (
	"encoding/json"
	"strings"
)

// StreamParams mirrors a linear lockup stream created with relative
// durations.
type StreamParams struct {
	Sender        string `json:"sender"`
	Recipient     string `json:"recipient"`
	TotalAmount   string `json:"totalAmount"`
	Asset         string `json:"asset"`
	Cancelable    bool   `json:"cancelable"`
	Transferable  bool   `json:"transferable"`
	CliffDuration uint64 `json:"cliffDuration"`
	TotalDuration uint64 `json:"totalDuration"`
	Broker        Broker `json:"broker"`
}

type Stream struct {
	StreamID        string `json:"streamId"`
	Sender          string `json:"sender"`
	Recipient       string `json:"recipient"`
	StartTime       uint64 `json:"startTime"`
	CliffTime       uint64 `json:"cliffTime"`
	EndTime         uint64 `json:"endTime"`
	DepositedAmount string `json:"depositedAmount"`
	WithdrawnAmount string `json:"withdrawnAmount"`
}

// StreamIssuer wraps the vesting-stream chaincode. The issuer pulls the
// stream total from the caller, so the caller approves it first.
type StreamIssuer struct {
	Address string
}

func (s StreamIssuer) CreateLinearStream(ctx TransactionContext, params StreamParams) (string, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return "", internalError(err, "failed to marshal stream params")
	}

	payload, err := invoke(ctx, s.Address, "CreateWithDurations", string(data))
	if err != nil {
		return "", err
	}

	streamID := strings.Trim(strings.TrimSpace(string(payload)), `"`)
	if streamID == "" {
		return "", internalError(ErrCollaboratorFailed, "%s returned an empty stream id", s.Address)
	}
	return streamID, nil
}

func (s StreamIssuer) GetStream(ctx TransactionContext, streamID string) (*Stream, error) {
	var stream Stream
	if err := invokeJSON(ctx, s.Address, "GetStream", &stream, streamID); err != nil {
		return nil, err
	}
	return &stream, nil
}


func getStream(ctx TransactionContext, streamID string) (*Stream, error) {
	config, err := GetConfig(ctx)
	if err != nil {
		return nil, err
	}
	return StreamIssuer{Address: config.StreamIssuer}.GetStream(ctx, streamID)
}
