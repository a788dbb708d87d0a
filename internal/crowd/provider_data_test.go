package crowd

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderData_ListOptions(t *testing.T) {
	pd := NewProviderData(nil, 250)
	assert.Equal(t, &ListOptions{MaxResults: 250}, pd.ListOptions())
}

func TestProviderData_ValidateConnection(t *testing.T) {
	t.Run("no client", func(t *testing.T) {
		pd := NewProviderData(nil, 100)
		err := pd.ValidateConnection(t.Context())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not initialized")
	})

	t.Run("reachable", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request, _ recordedRequest) {
			respond(w, http.StatusOK, `{"groups":[]}`)
		})
		pd := NewProviderData(client, 100)
		assert.NoError(t, pd.ValidateConnection(t.Context()))
	})

	t.Run("credentials rejected", func(t *testing.T) {
		client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request, _ recordedRequest) {
			respond(w, http.StatusUnauthorized, "")
		})
		pd := NewProviderData(client, 100)

		err := pd.ValidateConnection(t.Context())
		require.Error(t, err)
		assert.True(t, IsAuthenticationError(err))
	})
}
