package rail

import (
	"context"
	"time"

	"github.com/fairwaymarket/escrow-processor/internal/domain/entity"
	coreport "github.com/fairwaymarket/escrow-processor/internal/domain/port/core"
	"github.com/fairwaymarket/escrow-processor/internal/domain/port/payment"
)

// WalletRail moves funds to a seller's wallet handle at the wallet provider
type WalletRail struct {
	client *client
	logger coreport.Logger
}

// NewWalletRail creates the wallet rail adapter
func NewWalletRail(baseURL, apiKey string, timeout time.Duration, logger coreport.Logger) *WalletRail {
	return &WalletRail{
		client: newClient(string(entity.RailWallet), baseURL, apiKey, timeout, logger),
		logger: logger,
	}
}

// Kind identifies the rail
func (r *WalletRail) Kind() entity.RailKind {
	return entity.RailWallet
}

type walletPayoutRequest struct {
	Receiver string `json:"receiver"`
	Value    int64  `json:"value"`
	Currency string `json:"currency"`
	Note     string `json:"note,omitempty"`
}

type walletPayoutResponse struct {
	PayoutItemID string `json:"payout_item_id"`
	Status       string `json:"status"`
}

// Transfer sends a payout to the wallet handle
func (r *WalletRail) Transfer(ctx context.Context, req payment.TransferRequest) (*payment.TransferResult, error) {
	r.logger.Debug("Initiating wallet payout", map[string]any{
		"receiver": req.DestinationRef,
		"amount":   req.Amount,
		"currency": req.Currency,
	})

	var resp walletPayoutResponse
	err := r.client.post(ctx, "/v1/payouts", walletPayoutRequest{
		Receiver: req.DestinationRef,
		Value:    req.Amount,
		Currency: req.Currency,
		Note:     req.Description,
	}, req.IdempotencyKey, &resp)
	if err != nil {
		return nil, err
	}

	return &payment.TransferResult{
		TransferID: resp.PayoutItemID,
		Status:     resp.Status,
	}, nil
}

type walletVerifyRequest struct {
	Receiver string `json:"receiver"`
}

// VerifyAccount checks that a wallet handle can receive payouts
func (r *WalletRail) VerifyAccount(ctx context.Context, destinationRef string) error {
	return r.client.post(ctx, "/v1/receivers/verify", walletVerifyRequest{
		Receiver: destinationRef,
	}, "", nil)
}
