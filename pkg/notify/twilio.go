// Package notify delivers owner alerts through Twilio.
package notify

import (
	"context"
	"errors"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/doodlesbykumbi/pawguardian/pkg/secrets"
	"github.com/doodlesbykumbi/pawguardian/pkg/tools"
)

// ErrMissingNumber is returned when a sender or recipient is empty
var ErrMissingNumber = errors.New("phone number not configured")

var _ tools.Notifier = (*Twilio)(nil)

// Twilio sends SMS and places voice calls with the REST API
type Twilio struct {
	client *twilio.RestClient
}

// NewTwilio creates a client for the given account credentials
func NewTwilio(accountSID, authToken string) *Twilio {
	return &Twilio{
		client: twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		}),
	}
}

// Dial builds a Twilio notifier from loaded secrets
func Dial(s *secrets.Secrets) tools.Notifier {
	return NewTwilio(s.AccountSID, s.AuthToken)
}

// SendSMS sends body to the recipient and returns the message SID
func (t *Twilio) SendSMS(ctx context.Context, from, to, body string) (string, error) {
	if from == "" || to == "" {
		return "", ErrMissingNumber
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &openapi.CreateMessageParams{}
	params.SetFrom(from)
	params.SetTo(to)
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return "", err
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}

// Call places a voice call that plays twiml and returns the call SID
func (t *Twilio) Call(ctx context.Context, from, to, twiml string) (string, error) {
	if from == "" || to == "" {
		return "", ErrMissingNumber
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	params := &openapi.CreateCallParams{}
	params.SetFrom(from)
	params.SetTo(to)
	params.SetTwiml(twiml)

	resp, err := t.client.Api.CreateCall(params)
	if err != nil {
		return "", err
	}
	if resp.Sid == nil {
		return "", nil
	}
	return *resp.Sid, nil
}
