package secrets

import (
	"context"
	"errors"
	"log"
	"sync"
)

// Secret identifiers, shared by Secret Manager and the environment
const (
	TwilioAccountSID  = "TWILIO_ACCOUNT_SID"
	TwilioAuthToken   = "TWILIO_AUTH_TOKEN"
	TwilioPhoneNumber = "TWILIO_PHONE_NUMBER"
	TwilioSMSNumber   = "TWILIO_SMS_NUMBER"
	OwnerPhoneNumber  = "OWNER_PHONE_NUMBER"
)

// Required lists every secret Load reads
var Required = []string{
	TwilioAccountSID,
	TwilioAuthToken,
	TwilioPhoneNumber,
	TwilioSMSNumber,
	OwnerPhoneNumber,
}

// ErrSecretNotFound is returned by a Source when the secret does not exist
var ErrSecretNotFound = errors.New("secret not found")

// Source reads a single secret value
type Source interface {
	Access(ctx context.Context, id string) (string, error)
}

// Secrets holds the loaded credentials. Missing values are empty.
type Secrets struct {
	AccountSID string
	AuthToken  string
	// VoiceFrom is the caller id for emergency calls
	VoiceFrom string
	// SMSFrom is the sender for SMS alerts
	SMSFrom string
	// Owner is the number alerts are delivered to
	Owner string

	// Missing lists the ids that could not be loaded
	Missing []string
}

// TwilioConfigured reports whether the account credentials are present
func (s *Secrets) TwilioConfigured() bool {
	return s != nil && s.AccountSID != "" && s.AuthToken != ""
}

// Load reads every required secret from src. A secret that fails to load is
// logged and recorded in Missing; Load itself only fails when ctx is done.
func Load(ctx context.Context, src Source) (*Secrets, error) {
	values := make(map[string]string, len(Required))
	s := &Secrets{}

	for _, id := range Required {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := src.Access(ctx, id)
		if err != nil {
			log.Printf("Warning: Could not load %s: %v", id, err)
			s.Missing = append(s.Missing, id)
			continue
		}
		values[id] = v
	}

	s.AccountSID = values[TwilioAccountSID]
	s.AuthToken = values[TwilioAuthToken]
	s.VoiceFrom = values[TwilioPhoneNumber]
	s.SMSFrom = values[TwilioSMSNumber]
	s.Owner = values[OwnerPhoneNumber]
	return s, nil
}

// Cache loads secrets once and hands out the same value afterwards
type Cache struct {
	src Source

	mu     sync.Mutex
	loaded *Secrets
}

// NewCache creates a Cache over src
func NewCache(src Source) *Cache {
	return &Cache{src: src}
}

// Get returns the cached secrets, loading them on first use. A failed load
// is not cached.
func (c *Cache) Get(ctx context.Context) (*Secrets, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.loaded != nil {
		return c.loaded, nil
	}
	s, err := Load(ctx, c.src)
	if err != nil {
		return nil, err
	}
	c.loaded = s
	return s, nil
}

// Reset drops the cached value so the next Get reloads
func (c *Cache) Reset() {
	c.mu.Lock()
	c.loaded = nil
	c.mu.Unlock()
}
