package media

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientEmail(t *testing.T) {
	t.Run("service account key", func(t *testing.T) {
		email, err := clientEmail([]byte(`{"type":"service_account","client_email":"guard@sentientcarguard.iam.gserviceaccount.com"}`))
		require.NoError(t, err)
		assert.Equal(t, "guard@sentientcarguard.iam.gserviceaccount.com", email)
	})

	t.Run("metadata server credentials", func(t *testing.T) {
		_, err := clientEmail(nil)
		assert.ErrorIs(t, err, ErrNoServiceAccount)
	})

	t.Run("user credentials", func(t *testing.T) {
		_, err := clientEmail([]byte(`{"type":"authorized_user","client_id":"x"}`))
		assert.ErrorIs(t, err, ErrNoServiceAccount)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := clientEmail([]byte(`{`))
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoServiceAccount)
	})
}
