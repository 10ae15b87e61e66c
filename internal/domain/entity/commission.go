package entity

import (
	"github.com/shopspring/decimal"
)

// SellerTier represents a seller's subscription tier, which determines the
// platform commission rate applied to their sales
type SellerTier string

// Seller tiers
const (
	TierPGAPro   SellerTier = "pga_pro"
	TierBusiness SellerTier = "business"
	TierPro      SellerTier = "pro"
	TierFree     SellerTier = "free"
)

// RailKind identifies a money-movement mechanism
type RailKind string

// Payout rails
const (
	RailBankTransfer RailKind = "bank_transfer"
	RailWallet       RailKind = "wallet"
)

// Default flat fees per rail in minor units. Overridable via Calculator
// configuration; independent of the payout amount.
const (
	DefaultBankTransferFee int64 = 20
	DefaultWalletFee       int64 = 35
)

// PayoutBreakdown is the result of splitting a gross sale amount into the
// platform commission, the rail's flat fee, and the seller's net payout.
// All amounts are integer minor units of the sale currency.
type PayoutBreakdown struct {
	GrossAmount      int64
	CommissionRate   string
	CommissionAmount int64
	RailFee          int64
	NetAmount        int64
}

// Calculator computes payout splits. It is a pure value: identical inputs
// always produce identical outputs, which keeps the figures recorded at
// hold-creation time and the figures paid at payout time in agreement.
type Calculator struct {
	rates    map[SellerTier]decimal.Decimal
	railFees map[RailKind]int64
}

// NewCalculator creates a Calculator with the platform's standard tier rates
// and the given per-rail flat fees. Nil railFees falls back to the defaults.
func NewCalculator(railFees map[RailKind]int64) *Calculator {
	if railFees == nil {
		railFees = map[RailKind]int64{
			RailBankTransfer: DefaultBankTransferFee,
			RailWallet:       DefaultWalletFee,
		}
	}
	return &Calculator{
		rates: map[SellerTier]decimal.Decimal{
			TierPGAPro:   decimal.NewFromFloat(0.01),
			TierBusiness: decimal.NewFromFloat(0.03),
			TierPro:      decimal.NewFromFloat(0.03),
			TierFree:     decimal.NewFromFloat(0.05),
		},
		railFees: railFees,
	}
}

// Rate returns the commission rate for a tier. Unknown or empty tiers get
// the free-tier rate.
func (c *Calculator) Rate(tier SellerTier) decimal.Decimal {
	if rate, ok := c.rates[tier]; ok {
		return rate
	}
	return c.rates[TierFree]
}

// RailFee returns the flat fee for a rail in minor units
func (c *Calculator) RailFee(rail RailKind) int64 {
	return c.railFees[rail]
}

// Calculate splits grossMinor into commission, rail fee and net payout.
// Commission is rounded half-up to a whole minor unit. The net amount is
// floored at zero; the fee is never charged beyond what the gross covers.
func (c *Calculator) Calculate(grossMinor int64, tier SellerTier, rail RailKind) PayoutBreakdown {
	if grossMinor < 0 {
		grossMinor = 0
	}

	rate := c.Rate(tier)
	gross := decimal.NewFromInt(grossMinor)
	commission := gross.Mul(rate).Round(0).IntPart()

	fee := c.railFees[rail]
	net := grossMinor - commission - fee
	if net < 0 {
		net = 0
	}

	return PayoutBreakdown{
		GrossAmount:      grossMinor,
		CommissionRate:   rate.String(),
		CommissionAmount: commission,
		RailFee:          fee,
		NetAmount:        net,
	}
}
