package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/shopspring/decimal"
	razorpay "github.com/razorpay/razorpay-go"
)

// PaymentVerifier confirms an online payment before it is recorded on a ticket.
type PaymentVerifier interface {
	Verify(ctx context.Context, paymentID string, amount decimal.Decimal) error
}

// paymentFetcher is the part of the Razorpay client used here.
type paymentFetcher interface {
	Fetch(paymentID string, queryParams map[string]interface{}, extraHeaders map[string]string) (map[string]interface{}, error)
}

type RazorpayService struct {
	payments paymentFetcher
}

// NewRazorpayService returns nil when no credentials are configured; razorpay
// payments are then rejected.
func NewRazorpayService(keyID, keySecret string) *RazorpayService {
	if keyID == "" || keySecret == "" {
		log.Println("[Razorpay] Not configured, online payments disabled")
		return nil
	}
	client := razorpay.NewClient(keyID, keySecret)
	return &RazorpayService{payments: client.Payment}
}

// Verify fetches the payment and checks it was captured (or authorized) for
// at least the amount being recorded. Razorpay amounts are in the minor unit.
func (s *RazorpayService) Verify(ctx context.Context, paymentID string, amount decimal.Decimal) error {
	paymentID = strings.TrimSpace(paymentID)
	if paymentID == "" {
		return fmt.Errorf("%w: payment reference required", ErrPaymentUnverified)
	}
	payment, err := s.payments.Fetch(paymentID, nil, nil)
	if err != nil {
		log.Printf("[Razorpay] Failed to fetch payment %s: %v", paymentID, err)
		return fmt.Errorf("%w: %v", ErrPaymentUnverified, err)
	}

	status, _ := payment["status"].(string)
	if status != "captured" && status != "authorized" {
		return fmt.Errorf("%w: payment status is %q", ErrPaymentUnverified, status)
	}
	paid, ok := payment["amount"].(float64)
	if !ok {
		return fmt.Errorf("%w: payment has no amount", ErrPaymentUnverified)
	}
	want := amount.Mul(decimal.NewFromInt(100)).Round(0)
	if decimal.NewFromFloat(paid).LessThan(want) {
		return fmt.Errorf("%w: gateway amount %s is below %s", ErrPaymentUnverified,
			decimal.NewFromFloat(paid).Div(decimal.NewFromInt(100)).StringFixed(2), amount.StringFixed(2))
	}
	return nil
}
