package audit

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siad-agro/siad-api/internal/db/dbtest"
)

func TestAppendAndList(t *testing.T) {
	repo := NewRepo(dbtest.Open(t), nil)
	ctx := context.Background()
	require.NoError(t, repo.Append(ctx, Entry{UserID: 1, Action: ActionLogin}))

	req := httptest.NewRequest("POST", "/prices/refresh", nil)
	req.RemoteAddr = "198.51.100.4:443"
	repo.Record(req, 2, ActionPriceRefresh, map[string]any{"quotes": 4})

	got, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ActionPriceRefresh, got[0].Action)
	assert.Equal(t, "198.51.100.4", got[0].IPAddress)
	assert.EqualValues(t, 4, got[0].Payload["quotes"])
	assert.Equal(t, ActionLogin, got[1].Action)
	assert.Empty(t, got[1].Payload)
}
