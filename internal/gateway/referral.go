package gateway

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"
)

// SalesPerson is the referring agent behind a code
type SalesPerson struct {
	ID   string
	Name string
	Code string
}

// VerifyResult is either VerifyValid or VerifyInvalid
type VerifyResult interface {
	verifyResult()
}

// VerifyValid means the code belongs to an active sales person
type VerifyValid struct {
	SalesPerson SalesPerson
}

// VerifyInvalid means the code is unknown or inactive
type VerifyInvalid struct {
	Message string
}

func (VerifyValid) verifyResult()   {}
func (VerifyInvalid) verifyResult() {}

type verifyRequest struct {
	Code string `json:"code"`
}

type verifyResponse struct {
	Valid       bool `json:"valid"`
	SalesPerson *struct {
		ID   flexString `json:"id"`
		Name string     `json:"name"`
		Code string     `json:"code"`
	} `json:"sales_person"`
	Error string `json:"error"`
}

// VerifyReferralCode looks up a normalized referral code
func (c *Client) VerifyReferralCode(ctx context.Context, code string) (VerifyResult, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(verifyRequest{Code: code}).
		Post("/referrals/verify_code/")
	if err != nil {
		c.logger.Error("Referral verification request failed",
			zap.String("code", code),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}

	if resp.StatusCode() >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: status %d", ErrUnexpectedResponse, resp.StatusCode())
	}

	var body verifyResponse
	if err := decode(resp.Body(), &body); err != nil {
		c.logger.Warn("Malformed referral verification response",
			zap.Int("status", resp.StatusCode()),
			zap.Error(err),
		)
		return VerifyInvalid{}, nil
	}

	if !resp.IsSuccess() || !body.Valid || body.SalesPerson == nil || body.SalesPerson.Name == "" {
		return VerifyInvalid{Message: body.Error}, nil
	}

	return VerifyValid{SalesPerson: SalesPerson{
		ID:   string(body.SalesPerson.ID),
		Name: body.SalesPerson.Name,
		Code: body.SalesPerson.Code,
	}}, nil
}

// ConfirmRequest records the referral for an identity once onboarding proceeds
type ConfirmRequest struct {
	ReferralCode string `json:"referral_code"`
	ClerkID      string `json:"clerk_id"`
}

// ConfirmError is a refusal from the confirm endpoint
type ConfirmError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ConfirmError) Error() string {
	return fmt.Sprintf("referral confirm refused (%d %s): %s", e.StatusCode, e.Code, e.Message)
}

type confirmErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// ConfirmReferral records the referral against the user's identity
func (c *Client) ConfirmReferral(ctx context.Context, req ConfirmRequest) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post("/referrals/confirm/")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}

	if resp.IsSuccess() {
		return nil
	}

	var body confirmErrorResponse
	_ = decode(resp.Body(), &body)
	return &ConfirmError{
		StatusCode: resp.StatusCode(),
		Code:       body.Code,
		Message:    body.Error,
	}
}
