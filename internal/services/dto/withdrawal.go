package dto

import "time"

type RequestWithdrawalRequest struct {
	Amount float64 `json:"amount" validate:"required,gt=0"`
}

type RejectWithdrawalRequest struct {
	Reason string `json:"reason"`
}

type WithdrawalView struct {
	ID          string        `json:"id"`
	User        *OwnerSummary `json:"user,omitempty"`
	Amount      float64       `json:"amount"`
	Fee         float64       `json:"fee"`
	NetAmount   float64       `json:"netAmount"`
	Status      string        `json:"status"`
	Receipt     string        `json:"receipt,omitempty"`
	AdminNote   string        `json:"adminNote,omitempty"`
	RequestedAt time.Time     `json:"requestedAt"`
	ProcessedAt *time.Time    `json:"processedAt,omitempty"`
}
