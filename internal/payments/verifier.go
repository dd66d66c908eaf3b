package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/storefront/pkg/enums"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/metrics"
	providerstripe "github.com/angelmondragon/storefront/pkg/stripe"
	"github.com/angelmondragon/storefront/pkg/types"
	"github.com/sethvargo/go-retry"
)

const (
	DefaultMaxAttempts = 5
	DefaultInterval    = 2 * time.Second
)

var errNotSettled = errors.New("payment not settled yet")

// Verifier confirms settlement of a provider session after the shopper returns.
type Verifier interface {
	Verify(ctx context.Context, sessionID string) Result
}

type statusBackend interface {
	GetPaymentStatus(ctx context.Context, sessionID string) (*types.PaymentStatusReport, error)
}

// Config bounds the polling loop. OptimisticTimeout makes an exhausted poll count as
// verified for display.
type Config struct {
	MaxAttempts       int
	Interval          time.Duration
	OptimisticTimeout bool
}

// Result is the terminal state of one verification.
type Result struct {
	SessionID  string
	Outcome    enums.VerificationOutcome
	Attempts   int
	LastStatus enums.PaymentStatus
	LastErr    error
	// Canceled is set when the caller abandoned the poll before it finished.
	Canceled   bool
	optimistic bool
}

// Verified collapses the outcome for display. An exhausted poll is treated as
// verified only under the optimistic-timeout policy; the backend webhook reconciles
// the order either way.
func (r Result) Verified() bool {
	switch r.Outcome {
	case enums.VerificationOutcomePaid:
		return true
	case enums.VerificationOutcomePollExhausted:
		return r.optimistic
	default:
		return false
	}
}

// VerifierParams bundles the dependencies required to build a verifier.
type VerifierParams struct {
	Backend statusBackend
	Config  Config
	Metrics *metrics.StorefrontMetrics
	Logger  *logger.Logger
}

type verifier struct {
	backend statusBackend
	cfg     Config
	metrics *metrics.StorefrontMetrics
	logg    *logger.Logger
}

func NewVerifier(params VerifierParams) (Verifier, error) {
	if params.Backend == nil {
		return nil, fmt.Errorf("commerce backend is required")
	}
	cfg := params.Config
	if cfg.MaxAttempts <= 0 {
		return nil, fmt.Errorf("max attempts must be positive")
	}
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &verifier{
		backend: params.Backend,
		cfg:     cfg,
		metrics: params.Metrics,
		logg:    logg,
	}, nil
}

// Verify polls the settlement status up to MaxAttempts times with a fixed Interval
// between queries. It stops at the first paid answer. Query failures consume an
// attempt and never end the loop early.
func (v *verifier) Verify(ctx context.Context, sessionID string) Result {
	sessionID = strings.TrimSpace(sessionID)
	result := Result{
		SessionID:  sessionID,
		LastStatus: enums.PaymentStatusUnknown,
		optimistic: v.cfg.OptimisticTimeout,
	}
	if sessionID == "" {
		result.Outcome = enums.VerificationOutcomeUnconfirmed
		v.metrics.IncVerification(string(result.Outcome))
		return result
	}
	ctx = v.logg.WithSessionID(ctx, sessionID)

	backoff := retry.WithMaxRetries(uint64(v.cfg.MaxAttempts-1), retry.NewConstant(v.cfg.Interval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		result.Attempts++
		attemptCtx := v.logg.WithField(ctx, "attempt", result.Attempts)

		report, err := v.backend.GetPaymentStatus(ctx, sessionID)
		if err != nil {
			result.LastErr = err
			v.metrics.IncPollAttempt("error")
			v.logg.WarnErr(attemptCtx, "payment status query failed", err)
			return retry.RetryableError(err)
		}
		result.LastStatus = report.PaymentStatus
		v.metrics.IncPollAttempt(string(report.PaymentStatus))
		if report.PaymentStatus.IsPaid() {
			return nil
		}
		if report.SessionStatus != "" && !providerstripe.SessionOpen(report.SessionStatus) {
			v.logg.Warn(v.logg.WithField(attemptCtx, "session_status", report.SessionStatus), "provider session closed without payment")
		} else {
			v.logg.Debug(attemptCtx, "payment not settled yet")
		}
		return retry.RetryableError(errNotSettled)
	})

	switch {
	case err == nil:
		result.Outcome = enums.VerificationOutcomePaid
		v.logg.Info(ctx, "payment confirmed")
	default:
		result.Outcome = enums.VerificationOutcomePollExhausted
		result.Canceled = ctx.Err() != nil
		v.logg.Warn(v.logg.WithFields(ctx, map[string]any{
			"attempts": result.Attempts,
			"canceled": result.Canceled,
		}), "payment not confirmed before polling stopped")
	}
	v.metrics.IncVerification(string(result.Outcome))
	return result
}
