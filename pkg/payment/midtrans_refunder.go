package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"shopnest-be/internal/pkg/apperrors"

	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/coreapi"
)

// midtransRefunder issues refunds through the Midtrans Core API. The
// resolution request id is passed as the refund key, which Midtrans
// deduplicates server-side.
type midtransRefunder struct {
	client coreapi.Client
}

func NewMidtransRefunder(serverKey string, isProduction bool) RefundProcessor {
	env := midtrans.Sandbox
	if isProduction {
		env = midtrans.Production
	}

	var client coreapi.Client
	client.New(serverKey, env)

	return &midtransRefunder{client: client}
}

func (m *midtransRefunder) Issue(ctx context.Context, requestId, orderId string, amount float64, reason string) (*RefundResult, error) {
	req := &coreapi.RefundReq{
		RefundKey: requestId,
		Amount:    int64(amount),
		Reason:    reason,
	}

	resp, midErr := m.client.RefundTransaction(orderId, req)
	if midErr != nil {
		if isTimeout(midErr) {
			return nil, &apperrors.PaymentGatewayError{Timeout: true, Err: midErr}
		}
		// A duplicate refund key means the refund already went through on a
		// previous attempt; confirm via the status endpoint.
		if midErr.StatusCode == http.StatusConflict || strings.Contains(strings.ToLower(midErr.Message), "duplicate") {
			return m.Status(ctx, requestId, orderId)
		}
		return nil, &apperrors.PaymentGatewayError{Err: fmt.Errorf("refund rejected: %s", midErr.Message)}
	}

	return &RefundResult{
		TransactionId: resp.TransactionID,
		Settled:       true,
	}, nil
}

func (m *midtransRefunder) Status(ctx context.Context, requestId, orderId string) (*RefundResult, error) {
	resp, midErr := m.client.CheckTransaction(orderId)
	if midErr != nil {
		if isTimeout(midErr) {
			return nil, &apperrors.PaymentGatewayError{Timeout: true, Err: midErr}
		}
		return nil, &apperrors.PaymentGatewayError{Err: fmt.Errorf("status check failed: %s", midErr.Message)}
	}

	settled := resp.TransactionStatus == "refund" || resp.TransactionStatus == "partial_refund"
	return &RefundResult{
		TransactionId: resp.TransactionID,
		Settled:       settled,
	}, nil
}

func isTimeout(midErr *midtrans.Error) bool {
	if midErr.RawError == nil {
		return false
	}
	if errors.Is(midErr.RawError, context.DeadlineExceeded) || errors.Is(midErr.RawError, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	if errors.As(midErr.RawError, &netErr) {
		return netErr.Timeout()
	}
	return false
}
