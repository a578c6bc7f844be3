package dto

// LoginRequest is the request body for logging in.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued token and the account it belongs to.
type LoginResponse struct {
	Token        string   `json:"token"`
	UserID       string   `json:"userId"`
	Username     string   `json:"username"`
	DisplayName  string   `json:"displayName"`
	Capabilities []string `json:"capabilities"`
}

// CreateUserRequest is the request body for creating an account.
type CreateUserRequest struct {
	Username     string   `json:"username" binding:"required"`
	Password     string   `json:"password" binding:"required"`
	DisplayName  string   `json:"displayName"`
	Capabilities []string `json:"capabilities"`
}

// ChangePasswordRequest is the request body for changing a password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// SetActiveRequest enables or disables an account.
type SetActiveRequest struct {
	IsActive bool `json:"isActive"`
}
