package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront/api/responses"
	"github.com/angelmondragon/storefront/internal/payments"
	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/logger"
	providerstripe "github.com/angelmondragon/storefront/pkg/stripe"
)

// VerificationResponse is the payload of the order-success landing.
type VerificationResponse struct {
	Verified  bool                      `json:"verified"`
	Outcome   enums.VerificationOutcome `json:"outcome"`
	Attempts  int                       `json:"attempts"`
	SessionID string                    `json:"session_id,omitempty"`
	Canceled  bool                      `json:"canceled,omitempty"`
	Title     string                    `json:"title"`
	Message   string                    `json:"message"`
}

// CancelResponse is the payload of the order-cancel landing.
type CancelResponse struct {
	Title   string   `json:"title"`
	Message string   `json:"message"`
	Links   []string `json:"links"`
}

// OrderSuccess handles the provider's success redirect. It blocks while the verifier
// polls and renders the outcome; a missing session id yields an unverified answer
// without any status query.
func OrderSuccess(verifier payments.Verifier, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		sessionID := strings.TrimSpace(r.URL.Query().Get("session_id"))
		if sessionID != "" {
			ctx = logg.WithFields(logg.WithSessionID(ctx, sessionID), map[string]any{
				"stripe_env": providerstripe.Environment(sessionID),
			})
		}

		result := verifier.Verify(ctx, sessionID)

		resp := VerificationResponse{
			Verified:  result.Verified(),
			Outcome:   result.Outcome,
			Attempts:  result.Attempts,
			SessionID: result.SessionID,
			Canceled:  result.Canceled,
		}
		switch {
		case resp.Verified:
			resp.Title = "Order Successful!"
			resp.Message = "Thank you for your purchase. Your order has been confirmed."
		case result.Outcome == enums.VerificationOutcomeUnconfirmed:
			resp.Title = "Order Received"
			resp.Message = "We could not find a payment session to confirm."
		default:
			resp.Title = "Payment Pending"
			resp.Message = "We have not received confirmation of your payment yet."
		}

		logg.Info(logg.WithFields(ctx, map[string]any{
			"outcome":  string(result.Outcome),
			"attempts": result.Attempts,
		}), "order success landing served")
		responses.WriteSuccess(w, resp)
	}
}

// OrderCancel handles the provider's cancel redirect. Nothing is sent to the backend;
// the order record left by checkout stays pending.
func OrderCancel() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, CancelResponse{
			Title:   "Payment Cancelled",
			Message: "Your payment was cancelled. No charges were made to your account.",
			Links:   []string{"/cart", "/products"},
		})
	}
}
