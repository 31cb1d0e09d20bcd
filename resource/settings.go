package resource

// Settings represents the global platform configuration editable from
// the dashboard. All policy enforcement happens server-side.
type Settings struct {
	ICTFee                        Money `json:"ictFee"`
	MaxFailedLoginAttempts        int   `json:"maxFailedLoginAttempts"`
	AccountLockoutDurationMinutes int   `json:"accountLockoutDurationMinutes"`
	SMSNotificationsEnabled       bool  `json:"smsNotificationsEnabled"`
}
