package resource

// UserStats represents aggregate compliance figures computed server-side
type UserStats struct {
	AverageRequiredPaymentAmount Money   `json:"averageRequiredPaymentAmount"`
	AverageCompliance            float64 `json:"averageCompliance"`
}

// User represents a platform account (parish, deanery, diocese or admin)
type User struct {
	ID                           string    `json:"id"`
	Email                        string    `json:"email"`
	Name                         string    `json:"name"`
	Role                         string    `json:"role"`
	ParishName                   string    `json:"parishName,omitempty"`
	Diocese                      string    `json:"diocese,omitempty"`
	Deanery                      string    `json:"deanery,omitempty"`
	LGA                          string    `json:"lga,omitempty"`
	Address                      string    `json:"address,omitempty"`
	Acronym                      string    `json:"acronym,omitempty"`
	Town                         string    `json:"town,omitempty"`
	Category                     string    `json:"category,omitempty"`
	Phone                        string    `json:"phone,omitempty"`
	AlternativeEmail             string    `json:"alternativeEmail,omitempty"`
	AlternativePhone             string    `json:"alternativePhone,omitempty"`
	PermissionGroup              string    `json:"permissionGroup,omitempty"`
	Permissions                  []string  `json:"permissions,omitempty"`
	HasUpdatedBalanceCarriedOver bool      `json:"hasUpdatedBalanceCarriedOver"`
	StartNow                     bool      `json:"startNow"`
	ExternalWalletStatus         string    `json:"externalWalletStatus,omitempty"`
	HasAccountNumber             bool      `json:"hasAccountNumber"`
	Stats                        UserStats `json:"stats,omitempty"`
	CreatedAt                    string    `json:"createdAt,omitempty"`
	UpdatedAt                    string    `json:"updatedAt,omitempty"`
}

// RoleAdmin is the only role allowed into the dashboard
const RoleAdmin = "admin"

// User roles known to the platform
const (
	RoleParish  = "parish"
	RoleDiocese = "diocese"
	RoleDeanery = "deanery"
)
