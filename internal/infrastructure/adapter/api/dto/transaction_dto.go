package dto

import (
	"time"

	"github.com/fairwaymarket/escrow-processor/internal/domain/entity"
)

// ShipRequest represents the seller's shipping notification
type ShipRequest struct {
	Carrier             string     `json:"carrier" binding:"required"`
	TrackingNumber      string     `json:"trackingNumber" binding:"required"`
	EstimatedDeliveryAt *time.Time `json:"estimatedDeliveryAt,omitempty"`
}

// ConfirmDeliveryRequest represents the buyer's verdict on the received
// goods. Satisfied=false raises a dispute with the given reason.
type ConfirmDeliveryRequest struct {
	Satisfied     *bool  `json:"satisfied" binding:"required"`
	DisputeReason string `json:"disputeReason,omitempty"`
}

// TransactionResponse represents the transaction view returned to its parties
type TransactionResponse struct {
	ID               string `json:"id"`
	ProductID        string `json:"productId"`
	SellerID         string `json:"sellerId"`
	BuyerEmail       string `json:"buyerEmail"`
	Amount           int64  `json:"amount"`
	CommissionRate   string `json:"commissionRate"`
	CommissionAmount int64  `json:"commissionAmount"`
	SellerAmount     int64  `json:"sellerAmount"`
	Currency         string `json:"currency"`
	HoldStatus       string `json:"holdStatus"`

	Carrier        string `json:"carrier,omitempty"`
	TrackingNumber string `json:"trackingNumber,omitempty"`

	PaidAt              *time.Time `json:"paidAt,omitempty"`
	ShippedAt           *time.Time `json:"shippedAt,omitempty"`
	EstimatedDeliveryAt *time.Time `json:"estimatedDeliveryAt,omitempty"`
	DeliveredAt         *time.Time `json:"deliveredAt,omitempty"`
	DeliveryConfirmedAt *time.Time `json:"deliveryConfirmedAt,omitempty"`
	DisputedAt          *time.Time `json:"disputedAt,omitempty"`
	ReleaseRequestedAt  *time.Time `json:"releaseRequestedAt,omitempty"`
	ReleasedAt          *time.Time `json:"releasedAt,omitempty"`
	TransferredAt       *time.Time `json:"transferredAt,omitempty"`
}

// FromTransaction maps a transaction entity to its API view
func FromTransaction(txn *entity.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                  txn.ID,
		ProductID:           txn.ProductID,
		SellerID:            txn.SellerID,
		BuyerEmail:          txn.BuyerEmail,
		Amount:              txn.Amount,
		CommissionRate:      txn.CommissionRate,
		CommissionAmount:    txn.CommissionAmount,
		SellerAmount:        txn.SellerAmount,
		Currency:            txn.Currency,
		HoldStatus:          string(txn.HoldStatus),
		Carrier:             txn.Carrier,
		TrackingNumber:      txn.TrackingNumber,
		PaidAt:              txn.PaidAt,
		ShippedAt:           txn.ShippedAt,
		EstimatedDeliveryAt: txn.EstimatedDeliveryAt,
		DeliveredAt:         txn.DeliveredAt,
		DeliveryConfirmedAt: txn.DeliveryConfirmedAt,
		DisputedAt:          txn.DisputedAt,
		ReleaseRequestedAt:  txn.ReleaseRequestedAt,
		ReleasedAt:          txn.ReleasedAt,
		TransferredAt:       txn.TransferredAt,
	}
}
