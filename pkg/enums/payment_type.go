package enums

import "fmt"

// PaymentType identifies how a payment against an order was made.
type PaymentType string

const (
	PaymentTypeCash             PaymentType = "cash"
	PaymentTypeCheque           PaymentType = "cheque"
	PaymentTypeCredit           PaymentType = "credit"
	PaymentTypeCreditSettlement PaymentType = "credit_settlement"
)

var validPaymentTypes = []PaymentType{
	PaymentTypeCash,
	PaymentTypeCheque,
	PaymentTypeCredit,
	PaymentTypeCreditSettlement,
}

// String implements fmt.Stringer.
func (p PaymentType) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentType.
func (p PaymentType) IsValid() bool {
	for _, candidate := range validPaymentTypes {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentType converts raw input into a PaymentType.
func ParsePaymentType(value string) (PaymentType, error) {
	for _, candidate := range validPaymentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment type %q", value)
}
