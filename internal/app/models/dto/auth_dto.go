package dto

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email" example:"author@example.com"`
	Password string `json:"password" binding:"required,min=8" example:"s3cretpass"`
	FullName string `json:"fullName" binding:"required" example:"Jane Doe"`
}

// LoginRequest represents a login request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"author@example.com"`
	Password string `json:"password" binding:"required" example:"s3cretpass"`
}

// TokenResponse represents the token pair returned after authentication
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn" example:"3600"`
}
