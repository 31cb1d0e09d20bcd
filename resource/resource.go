package resource

// Known backend resource names. A resource name identifies a backend
// collection and scopes cache invalidation.
const (
	Users         = "users"
	Reports       = "reports"
	Payments      = "payments"
	Collections   = "collections"
	Levies        = "levies"
	BankAccounts  = "bank-accounts"
	AdminSettings = "admin-settings"
	Wallet        = "wallet"
)
