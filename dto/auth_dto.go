package dto

type RegisterUserDTO struct {
	Username string `form:"username" binding:"required"`
	Email    string `form:"email" binding:"required"`
	Password string `form:"password" binding:"required,min=6"`
	FullName string `form:"fullName" binding:"required"`
}

// LoginDTO accepts either username or email; the service enforces that at
// least one of them is present.
type LoginDTO struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshDTO struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordDTO struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=6"`
}
