package dto

// LoginRequest payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the issued token.
type AuthResponse struct {
	Token    string `json:"token"`
	PersonID int64  `json:"person_id"`
	Name     string `json:"name"`
}

// PasswordChangeRequest payload.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// ProfileResponse describes the authenticated person and their authority.
type ProfileResponse struct {
	PersonID      int64                   `json:"person_id"`
	Name          string                  `json:"name"`
	Email         string                  `json:"email"`
	ApprovalLevel int                     `json:"approval_level"`
	Grants        []ApprovalGrantResponse `json:"grants"`
}

// ApprovalGrantResponse describes one active or inactive grant.
type ApprovalGrantResponse struct {
	ApprovalLevel int     `json:"approval_level"`
	PlantCode     *string `json:"plant_code"`
	AreaCode      *string `json:"area_code"`
	LineCode      *string `json:"line_code"`
	MachineCode   *string `json:"machine_code"`
	IsActive      bool    `json:"is_active"`
}
