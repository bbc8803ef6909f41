// Package schemas defines the request structures for various operations in the application.
package schemas

// RegistrationRequest is a struct that represents a registration request
// Name is required and must be less than 50 characters
// Email is required, must be less than 255 characters and must match the email grammar
// Password is required and must be at least 6 characters
type RegistrationRequest struct {
	Name     string `json:"name" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,max=255,email_format"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// ActivationRequest is a struct that represents an activation request
// Token is the plaintext activation token from the activation mail
type ActivationRequest struct {
	Token string `json:"token" validate:"required"`
}

// LoginRequest is a struct that represents a login request
// Email is required and must match the email grammar
// Password is required and must be at least 6 characters
// RememberMe requests a persistent remember token on top of the JWT pair
type LoginRequest struct {
	Email      string `json:"email" validate:"required,max=255,email_format"`
	Password   string `json:"password" validate:"required,min=6,max=72"`
	RememberMe bool   `json:"rememberMe"`
}

// RefreshTokenRequest is a struct that represents a RefreshToken request
// RefreshToken is required and must be a valid refresh token
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// ChangePasswordRequest is a struct that represents a PasswordChange request
// OldPassword is required and must be at least 6 characters
// NewPassword is required and must be at least 6 characters
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required,min=6,max=72"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=72"`
}

// CreateResetRequest is a struct that represents a password reset creation request
// Email is required and must match the email grammar
type CreateResetRequest struct {
	Email string `json:"email" validate:"required,max=255,email_format"`
}

// UpdatePasswordRequest is a struct that represents a password reset completion request
// Token is the plaintext reset token from the reset mail
// Password is the new password and must be at least 6 characters
type UpdatePasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// CreateMicropostRequest is a struct that represents a create micropost request
// Content is required and must be less than 140 characters
type CreateMicropostRequest struct {
	Content string `json:"content" validate:"required,max=140"`
}

// RelationshipRequest is a struct that represents a follow request
// UserID is the id of the user to follow
type RelationshipRequest struct {
	UserID int64 `json:"userId" validate:"required,gt=0"`
}
