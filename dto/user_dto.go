package dto

type UpdateProfileDTO struct {
	FullName *string `json:"fullName,omitempty"`
	Email    *string `json:"email,omitempty"`
}
