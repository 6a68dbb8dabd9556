package dto

type RegisterRequest struct {
	Email    string  `json:"email" binding:"required,email,max=100"`
	Username string  `json:"username" binding:"required,min=3,max=50"`
	Password string  `json:"password" binding:"required,min=8,max=72"`
	FullName *string `json:"full_name" binding:"omitempty,max=100"`
}

// LoginForm is form-encoded (OAuth2 password-grant shape), not JSON.
type LoginForm struct {
	Username string `form:"username" binding:"required"`
	Password string `form:"password" binding:"required"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type UpdateUserRequest struct {
	Email    *string `json:"email" binding:"omitempty,email,max=100"`
	Username *string `json:"username" binding:"omitempty,min=3,max=50"`
	Password *string `json:"password" binding:"omitempty,min=8,max=72"`
	FullName *string `json:"full_name" binding:"omitempty,max=100"`
}
