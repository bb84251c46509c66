package model

import "time"

// User represents an application user record as stored in the `users`
// table.  Users are owned by the authentication layer; the reservation
// core only needs the ID.
//
// Fields:
//
//	ID           – primary key identifier of the user.
//	Username     – unique login name.
//	PasswordHash – bcrypt hashed password.
//	Role         – CUSTOMER or ADMIN.
//	IsActive     – whether the account is active.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type User struct {
	ID           uint64    // users.id
	Username     string    // users.username
	PasswordHash string    // users.password_hash
	Role         string    // users.role
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

const (
	RoleCustomer = "CUSTOMER"
	RoleAdmin    = "ADMIN"
)

// UserReservation is a user's block of seats on one airplane type.  There
// is at most one per (UserID, Type); an empty Seats slice means the user
// has no active reservation for that type.
type UserReservation struct {
	UserID uint64       `json:"userId"`
	Type   AirplaneType `json:"type"`
	Seats  []string     `json:"seats"`
}

// Active reports whether the reservation holds any seats.
func (r UserReservation) Active() bool { return len(r.Seats) > 0 }

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA‑256 hash of the raw token is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    uint64     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
