package core

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Split records a shared expense divided evenly between participants.
type Split struct {
	ID             int64           `json:"id"`
	GroupID        string          `json:"group_id"`
	PayerID        string          `json:"payer_id"`
	Amount         decimal.Decimal `json:"amount"`
	Participants   []string        `json:"participants"`
	Description    string          `json:"description"`
	SharePerPerson decimal.Decimal `json:"share_per_person"`
	CreatedAt      time.Time       `json:"created_at"`
}

// SplitDebt divides amount evenly and rounds each share to cents.
func SplitDebt(amount decimal.Decimal, participants []string) (decimal.Decimal, error) {
	if len(participants) == 0 {
		return zero, ErrEmptyParticipants
	}
	if amount.IsNegative() {
		return zero, ErrInvalidAmount
	}
	return amount.Div(decimal.NewFromInt(int64(len(participants)))).Round(2), nil
}

// NewSplit validates the split and fills in the per-person share.
func NewSplit(groupID, payerID string, amount decimal.Decimal, participants []string, description string) (Split, error) {
	if strings.TrimSpace(groupID) == "" || strings.TrimSpace(payerID) == "" {
		return Split{}, ErrEmptyName
	}
	if err := validateDescription(description, false); err != nil {
		return Split{}, err
	}
	cleaned := make([]string, 0, len(participants))
	for _, p := range participants {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	share, err := SplitDebt(amount, cleaned)
	if err != nil {
		return Split{}, err
	}
	return Split{
		GroupID:        strings.TrimSpace(groupID),
		PayerID:        strings.TrimSpace(payerID),
		Amount:         amount,
		Participants:   cleaned,
		Description:    description,
		SharePerPerson: share,
	}, nil
}
