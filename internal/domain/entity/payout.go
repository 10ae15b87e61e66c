package entity

import (
	"time"

	coreport "github.com/fairwaymarket/escrow-processor/internal/domain/port/core"
)

// PayoutStatus defines the lifecycle of one money-movement attempt
type PayoutStatus string

// Payout statuses. A payout is immutable once completed; at most one
// completed payout may ever exist per transaction.
const (
	PayoutStatusProcessing PayoutStatus = "processing"
	PayoutStatusCompleted  PayoutStatus = "completed"
	PayoutStatusFailed     PayoutStatus = "failed"
)

// Payout records one attempted or successful money movement to a seller
// for a transaction
type Payout struct {
	ID            string
	TransactionID string
	SellerID      string
	Rail          RailKind

	GrossAmount      int64
	CommissionAmount int64
	ProcessingFee    int64
	NetAmount        int64
	Currency         string

	Status        PayoutStatus
	TransferID    string // provider-side transfer reference
	FailureReason string

	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// NewPayout creates a payout attempt in processing state
func NewPayout(
	id string,
	transactionID string,
	sellerID string,
	rail RailKind,
	gross, commission, fee, net int64,
	currency string,
	timeProvider coreport.TimeProvider,
) *Payout {
	return &Payout{
		ID:               id,
		TransactionID:    transactionID,
		SellerID:         sellerID,
		Rail:             rail,
		GrossAmount:      gross,
		CommissionAmount: commission,
		ProcessingFee:    fee,
		NetAmount:        net,
		Currency:         currency,
		Status:           PayoutStatusProcessing,
		CreatedAt:        timeProvider.Now(),
	}
}

// Complete seals the payout with the provider's transfer reference
func (p *Payout) Complete(timeProvider coreport.TimeProvider, transferID string) {
	now := timeProvider.Now()
	p.Status = PayoutStatusCompleted
	p.TransferID = transferID
	p.ProcessedAt = &now
}

// Fail records the failure reason for a payout attempt
func (p *Payout) Fail(timeProvider coreport.TimeProvider, reason string) {
	now := timeProvider.Now()
	p.Status = PayoutStatusFailed
	p.FailureReason = reason
	p.ProcessedAt = &now
}

// Seller is the read-only seller projection this engine needs: the
// subscription tier for commission and the configured payout destinations
type Seller struct {
	ID             string
	Email          string
	Tier           SellerTier
	BankAccountRef string // connected payout account at the card-network provider
	WalletHandle   string // wallet rail destination
}

// PreferredRail selects the payout rail from the seller's configuration:
// the bank-transfer rail when a connected account exists, the wallet rail
// as the alternate. Returns false when neither destination is configured.
func (s *Seller) PreferredRail() (RailKind, bool) {
	if s.BankAccountRef != "" {
		return RailBankTransfer, true
	}
	if s.WalletHandle != "" {
		return RailWallet, true
	}
	return "", false
}

// PayoutDestination returns the destination reference for the given rail
func (s *Seller) PayoutDestination(rail RailKind) string {
	switch rail {
	case RailBankTransfer:
		return s.BankAccountRef
	case RailWallet:
		return s.WalletHandle
	default:
		return ""
	}
}

// ProductStatus values the engine flips at the catalog boundary
const (
	ProductActive  = "active"
	ProductPending = "pending"
	ProductSold    = "sold"
)
