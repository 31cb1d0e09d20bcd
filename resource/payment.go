package resource

// PaymentStatus represents the confirmation state of a payment
type PaymentStatus string

// Payment statuses known to the platform
const (
	PaymentPending   PaymentStatus = "pending"
	PaymentConfirmed PaymentStatus = "confirmed"
)

// PayableType discriminates what a payment allocation was applied to
type PayableType string

// Payable types known to the platform
const (
	PayableReport              PayableType = "report"
	PayableLevy                PayableType = "levy"
	PayableMandatoryCollection PayableType = "mandatoryCollection"
)

// Payer represents the account that made a payment
type Payer struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	ParishName string `json:"parishName,omitempty"`
	Deanery    string `json:"deanery,omitempty"`
	Category   string `json:"category,omitempty"`
}

// Allocation represents the portion of a payment applied to a payable
type Allocation struct {
	ID                    string      `json:"id"`
	PaymentID             string      `json:"paymentId"`
	PayableType           PayableType `json:"payableType"`
	PayableID             string      `json:"payableId"`
	ParentPayableID       string      `json:"parentPayableId,omitempty"`
	Amount                Money       `json:"amount"`
	PaymentType           string      `json:"paymentType,omitempty"`
	PayableEntityName     string      `json:"payableEntityName,omitempty"`
	PayableEntityCreated  string      `json:"payableEntityCreatedAt,omitempty"`
	CreatedAt             string      `json:"createdAt,omitempty"`
	UpdatedAt             string      `json:"updatedAt,omitempty"`
}

// Confirmer represents the admin account that confirmed a payment
type Confirmer struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// Payment represents a transaction submitted by a parish
type Payment struct {
	ID                    string        `json:"id"`
	Amount                Money         `json:"amount"`
	TotalAllocationAmount Money         `json:"totalAllocationAmount"`
	ReceiptURL            string        `json:"receiptUrl,omitempty"`
	ReceiptURL2           string        `json:"receiptUrl2,omitempty"`
	PaidFromWallet        bool          `json:"paidFromWallet"`
	PaymentDate           string        `json:"paymentDate,omitempty"`
	PayerID               string        `json:"payerId"`
	Payer                 Payer         `json:"payer"`
	ConfirmedBy           *Confirmer    `json:"confirmedBy,omitempty"`
	ConfirmationDate      string        `json:"confirmationDate,omitempty"`
	ConfirmationComment   string        `json:"confirmationComment,omitempty"`
	Comment               string        `json:"comment,omitempty"`
	ProcessingTimeMinutes float64       `json:"processingTimeMinutes,omitempty"`
	Status                PaymentStatus `json:"status"`
	Allocations           []Allocation  `json:"allocations,omitempty"`
	CreatedAt             string        `json:"createdAt,omitempty"`
	UpdatedAt             string        `json:"updatedAt,omitempty"`
}
