package dto

type CreateLoanInput struct {
	LibroID string `json:"libro_id" binding:"required,uuid"`
}
