package payments

import "time"

type Method string

const (
	MethodCash Method = "Cash"
	MethodUPI  Method = "UPI"
	MethodCard Method = "Card"
)

func (m Method) Valid() bool {
	switch m {
	case MethodCash, MethodUPI, MethodCard:
		return true
	}
	return false
}

// Payment is an immutable ledger row; it is never updated or deleted.
type Payment struct {
	ID        int64     `json:"id"`
	TenantID  int64     `json:"-"`
	MemberID  int64     `json:"memberId"`
	Amount    float64   `json:"amount"`
	Date      time.Time `json:"date"`
	Method    Method    `json:"method"`
	Plan      string    `json:"plan"`
	CreatedAt time.Time `json:"createdAt"`
}

// ExportRow is the flattened read-side projection handed to spreadsheets.
type ExportRow struct {
	PaymentID  int64     `json:"paymentId"`
	MemberID   int64     `json:"memberId"`
	MemberName string    `json:"memberName"`
	Amount     float64   `json:"amount"`
	Plan       string    `json:"plan"`
	Method     Method    `json:"method"`
	Date       time.Time `json:"date"`
}
