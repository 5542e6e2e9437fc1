package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"gigsbot/internal/domain"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InitiateRequest is the body of an STK push request
type InitiateRequest struct {
	PhoneNumber string      `json:"phone_number"`
	Amount      json.Number `json:"amount"`
	ClerkID     string      `json:"clerk_id"`
}

// NewInitiateRequest builds a request for a full international number
func NewInitiateRequest(phoneNumber string, amount decimal.Decimal, externalID string) InitiateRequest {
	return InitiateRequest{
		PhoneNumber: phoneNumber,
		Amount:      json.Number(amount.String()),
		ClerkID:     externalID,
	}
}

// InitiateResult is either InitiateAccepted or InitiateRejected
type InitiateResult interface {
	initiateResult()
}

// InitiateAccepted means the prompt was sent to the phone
type InitiateAccepted struct {
	TrackingID      string
	CustomerMessage string
}

// InitiateRejected means the backend refused the request. Message may be
// empty when the backend gave none.
type InitiateRejected struct {
	StatusCode int
	Message    string
}

func (InitiateAccepted) initiateResult() {}
func (InitiateRejected) initiateResult() {}

type stkPushResponse struct {
	MerchantRequestID   string `json:"MerchantRequestID"`
	CheckoutRequestID   string `json:"CheckoutRequestID"`
	ResponseCode        string `json:"ResponseCode"`
	ResponseDescription string `json:"ResponseDescription"`
	CustomerMessage     string `json:"CustomerMessage"`
	ErrorMessage        string `json:"errorMessage"`
	Detail              string `json:"detail"`
}

func (r stkPushResponse) message() string {
	switch {
	case r.CustomerMessage != "":
		return r.CustomerMessage
	case r.ErrorMessage != "":
		return r.ErrorMessage
	default:
		return r.Detail
	}
}

// InitiatePush asks the backend to send an M-Pesa prompt. The returned error
// is non-nil only when the request did not complete.
func (c *Client) InitiatePush(ctx context.Context, req InitiateRequest) (InitiateResult, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post("/stk-push/")
	if err != nil {
		c.logger.Error("STK push request failed",
			zap.String("clerk_id", req.ClerkID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	var body stkPushResponse
	if err := decode(resp.Body(), &body); err != nil {
		c.logger.Warn("Malformed STK push response",
			zap.Int("status", resp.StatusCode()),
			zap.Error(err),
		)
		return InitiateRejected{StatusCode: resp.StatusCode()}, nil
	}

	if !resp.IsSuccess() {
		c.logger.Warn("STK push rejected",
			zap.Int("status", resp.StatusCode()),
			zap.String("message", body.message()),
		)
		return InitiateRejected{StatusCode: resp.StatusCode(), Message: body.message()}, nil
	}

	if body.CheckoutRequestID == "" || (body.ResponseCode != "" && body.ResponseCode != "0") {
		c.logger.Warn("STK push not accepted",
			zap.String("response_code", body.ResponseCode),
			zap.String("message", body.message()),
		)
		return InitiateRejected{StatusCode: resp.StatusCode(), Message: body.message()}, nil
	}

	c.logger.Info("STK push accepted", zap.String("tracking_id", body.CheckoutRequestID))

	return InitiateAccepted{
		TrackingID:      body.CheckoutRequestID,
		CustomerMessage: body.CustomerMessage,
	}, nil
}

type statusResponse struct {
	Status string `json:"status"`
}

// PaymentStatus fetches the state of a push payment by tracking id
func (c *Client) PaymentStatus(ctx context.Context, trackingID string) (domain.PaymentStatus, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		Get("/check-status/" + url.PathEscape(trackingID) + "/")
	if err != nil {
		return domain.PaymentPending, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	if !resp.IsSuccess() {
		return domain.PaymentPending, fmt.Errorf("%w: status %d", ErrUnexpectedResponse, resp.StatusCode())
	}

	var body statusResponse
	if err := decode(resp.Body(), &body); err != nil {
		return domain.PaymentPending, fmt.Errorf("%w: %w", ErrUnexpectedResponse, err)
	}

	return domain.ParsePaymentStatus(body.Status), nil
}
