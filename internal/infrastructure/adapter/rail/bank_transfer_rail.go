package rail

import (
	"context"
	"time"

	"github.com/fairwaymarket/escrow-processor/internal/domain/entity"
	coreport "github.com/fairwaymarket/escrow-processor/internal/domain/port/core"
	"github.com/fairwaymarket/escrow-processor/internal/domain/port/payment"
)

// BankTransferRail moves funds to a seller's connected payout account at the
// card-network provider
type BankTransferRail struct {
	client *client
	logger coreport.Logger
}

// NewBankTransferRail creates the bank-transfer rail adapter
func NewBankTransferRail(baseURL, apiKey string, timeout time.Duration, logger coreport.Logger) *BankTransferRail {
	return &BankTransferRail{
		client: newClient(string(entity.RailBankTransfer), baseURL, apiKey, timeout, logger),
		logger: logger,
	}
}

// Kind identifies the rail
func (r *BankTransferRail) Kind() entity.RailKind {
	return entity.RailBankTransfer
}

type bankTransferRequest struct {
	Destination string `json:"destination"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description,omitempty"`
}

type bankTransferResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Transfer moves funds to the connected account
func (r *BankTransferRail) Transfer(ctx context.Context, req payment.TransferRequest) (*payment.TransferResult, error) {
	r.logger.Debug("Initiating bank transfer", map[string]any{
		"destination": req.DestinationRef,
		"amount":      req.Amount,
		"currency":    req.Currency,
	})

	var resp bankTransferResponse
	err := r.client.post(ctx, "/v1/transfers", bankTransferRequest{
		Destination: req.DestinationRef,
		Amount:      req.Amount,
		Currency:    req.Currency,
		Description: req.Description,
	}, req.IdempotencyKey, &resp)
	if err != nil {
		return nil, err
	}

	return &payment.TransferResult{
		TransferID: resp.ID,
		Status:     resp.Status,
	}, nil
}

type accountVerifyRequest struct {
	Destination string `json:"destination"`
}

// VerifyAccount checks that a connected account can receive payouts
func (r *BankTransferRail) VerifyAccount(ctx context.Context, destinationRef string) error {
	return r.client.post(ctx, "/v1/accounts/verify", accountVerifyRequest{
		Destination: destinationRef,
	}, "", nil)
}
