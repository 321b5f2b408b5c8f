package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/doodlesbykumbi/pawguardian/pkg/secrets"
)

func TestMissingNumbers(t *testing.T) {
	n := NewTwilio("AC1", "token")

	_, err := n.SendSMS(context.Background(), "", "+819000000000", "hi")
	assert.ErrorIs(t, err, ErrMissingNumber)

	_, err = n.Call(context.Background(), "+815000000001", "", "<Response/>")
	assert.ErrorIs(t, err, ErrMissingNumber)
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n := NewTwilio("AC1", "token")
	_, err := n.SendSMS(ctx, "+815000000002", "+819000000000", "hi")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDial(t *testing.T) {
	n := Dial(&secrets.Secrets{AccountSID: "AC1", AuthToken: "token"})
	assert.IsType(t, &Twilio{}, n)
}
