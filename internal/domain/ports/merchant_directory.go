package ports

import "context"

// MerchantBanking is the settlement data registered for a POS terminal's merchant
type MerchantBanking struct {
	MerchantCode    string
	MerchantName    string
	SettlementSwift string
	SettlementIban  string
	MerchantStatus  string
}

// MerchantDirectory resolves a POS terminal code to the merchant's settlement bank identifiers
type MerchantDirectory interface {
	// Lookup returns an error for any failure: network, unknown terminal, or malformed response
	Lookup(ctx context.Context, posCode string) (*MerchantBanking, error)
}
