package model

import "time"

// UnlimitedQuantity marks a role listing that never sells out.
const UnlimitedQuantity = -1

// RoleListing is a purchasable server role.
type RoleListing struct {
	ServerID    string   `json:"serverId"`
	RoleID      string   `json:"roleId"`
	Name        string   `json:"name"`
	Price       int64    `json:"price"`
	Quantity    int      `json:"quantity"`
	Description string   `json:"description,omitempty"`
	PurchasedBy []string `json:"purchasedBy"`
}

// SoldOut reports whether no copies remain.
func (l RoleListing) SoldOut() bool {
	return l.Quantity != UnlimitedQuantity && l.Quantity <= 0
}

// OwnedBy reports whether userID already bought the role.
func (l RoleListing) OwnedBy(userID string) bool {
	for _, id := range l.PurchasedBy {
		if id == userID {
			return true
		}
	}
	return false
}

// RoleSubmission is a premium role waiting for developer review.
type RoleSubmission struct {
	ServerID    string    `json:"serverId"`
	ServerName  string    `json:"serverName"`
	RoleID      string    `json:"roleId"`
	RoleName    string    `json:"roleName"`
	Description string    `json:"description,omitempty"`
	SubmittedBy string    `json:"submittedBy"`
	SubmittedAt time.Time `json:"submittedAt"`
}

// ApprovedRole is a reviewed premium role shown on a profile.
type ApprovedRole struct {
	ServerID    string    `json:"serverId"`
	ServerName  string    `json:"serverName"`
	RoleID      string    `json:"roleId"`
	RoleName    string    `json:"roleName"`
	Description string    `json:"description,omitempty"`
	ApprovedBy  string    `json:"approvedBy"`
	ApprovedAt  time.Time `json:"approvedAt"`
}

// Profile lists a user's approved premium roles across servers.
type Profile struct {
	UserID string         `json:"userId"`
	Roles  []ApprovedRole `json:"roles"`
}
