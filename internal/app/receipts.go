package app

import (
	"fmt"
	"time"

	"github.com/form3tech-oss/jwt-go"
	"github.com/google/uuid"

	"crazyeights/internal/domain"
)

// ReceiptService issues signed receipts for finished games so clients can
// present results to external services without those services trusting the
// client.
type ReceiptService struct {
	secret string
	issuer string
}

// receiptTTL bounds how long a receipt stays verifiable.
const receiptTTL = 30 * 24 * time.Hour

func NewReceiptService(secret, issuer string) *ReceiptService {
	return &ReceiptService{
		secret: secret,
		issuer: issuer,
	}
}

// IssueReceipt signs a result receipt for a finished game.
func (s *ReceiptService) IssueReceipt(game *domain.Game) (string, error) {
	if s == nil {
		return "", fmt.Errorf("receipt service is nil")
	}
	if game == nil {
		return "", fmt.Errorf("game is required")
	}
	if game.Phase != domain.PhaseFinished || game.Winner == domain.SeatNone {
		return "", fmt.Errorf("game has no result to certify")
	}
	if s.secret == "" || s.issuer == "" {
		return "", fmt.Errorf("receipt config is incomplete")
	}

	claims := jwt.MapClaims{
		"iss":    s.issuer,
		"sub":    game.Seats[game.Winner],
		"exp":    time.Now().Add(receiptTTL).Unix(),
		"jti":    uuid.NewString(),
		"game":   game.ID,
		"winner": game.Seats[game.Winner],
		"loser":  game.Seats[game.Winner.Other()],
		"stake":  game.Stake,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.secret))
}
