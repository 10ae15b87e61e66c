package dto

// CaptureEventRequest represents a payment-captured webhook delivery
type CaptureEventRequest struct {
	CorrelationID string `json:"correlationId" binding:"required"`
	ProductID     string `json:"productId" binding:"required"`
	SellerID      string `json:"sellerId" binding:"required"`
	BuyerEmail    string `json:"buyerEmail" binding:"required,email"`
	Amount        int64  `json:"amount" binding:"required,gt=0"`
	Currency      string `json:"currency" binding:"required,len=3"`
}

// CaptureEventResponse acknowledges a webhook delivery. Duplicate deliveries
// acknowledge with the original transaction id so the provider stops
// retrying.
type CaptureEventResponse struct {
	TransactionID string `json:"transactionId"`
	Duplicate     bool   `json:"duplicate,omitempty"`
}
