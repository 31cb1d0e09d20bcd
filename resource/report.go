package resource

// ReportStatus represents the lifecycle state of a parish financial report
type ReportStatus string

// Report statuses known to the platform
const (
	ReportPaid        ReportStatus = "paid"
	ReportUnpaid      ReportStatus = "unpaid"
	ReportSubmitted   ReportStatus = "submitted"
	ReportUnsubmitted ReportStatus = "unsubmitted"
	ReportProcessing  ReportStatus = "processing"
	ReportOverdue     ReportStatus = "overdue"
	ReportDraft       ReportStatus = "draft"
)

// ReportParish represents the parish a report belongs to
type ReportParish struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	ParishName string `json:"parishName,omitempty"`
	Diocese    string `json:"diocese,omitempty"`
	Deanery    string `json:"deanery,omitempty"`
	Acronym    string `json:"acronym,omitempty"`
}

// Report represents a monthly parish financial report
type Report struct {
	ID                     string        `json:"id"`
	ParishID               string        `json:"parishId"`
	Month                  int           `json:"month,omitempty"`
	Year                   int           `json:"year,omitempty"`
	Status                 ReportStatus  `json:"status"`
	SubmissionDate         string        `json:"submissionDate,omitempty"`
	BalanceCarriedOver     Money         `json:"balanceCarriedOver"`
	BalanceBroughtForward  Money         `json:"balanceBroughtForward"`
	ICTFee                 Money         `json:"ictFee"`
	TotalClaimedPaidAmount Money         `json:"totalClaimedPaidAmount"`
	ClaimedBalance         Money         `json:"claimedBalance"`
	TotalIncome            Money         `json:"totalIncome"`
	TotalExpenditure       Money         `json:"totalExpenditure"`
	Balance                Money         `json:"balance"`
	RequiredPaymentAmount  Money         `json:"requiredPaymentAmount"`
	PaidAmount             Money         `json:"paidAmount"`
	Compliance             float64       `json:"compliance,omitempty"`
	Version                int           `json:"version"`
	Parish                 *ReportParish `json:"parish,omitempty"`
	CreatedAt              string        `json:"createdAt,omitempty"`
	UpdatedAt              string        `json:"updatedAt,omitempty"`
}
