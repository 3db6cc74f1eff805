package fixtures

import "github.com/kevin07696/transaction-gateway/internal/domain/ports"

const (
	TestPosCode      = "POS-0001"
	TestMerchantCode = "COM-100"
	TestSwift        = "BANKUS33XXX"
	TestIban         = "DE89370400440532013000"
)

// NewMerchantBanking returns the settlement data of an active test merchant.
func NewMerchantBanking() *ports.MerchantBanking {
	return &ports.MerchantBanking{
		MerchantCode:    TestMerchantCode,
		MerchantName:    "Test Merchant",
		SettlementSwift: TestSwift,
		SettlementIban:  TestIban,
		MerchantStatus:  "ACT",
	}
}
