package integration

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakobhellermann/beancount-staging/internal/adapter/http/dto"
	"github.com/jakobhellermann/beancount-staging/internal/adapter/repository/postgres"
	fixtures "github.com/jakobhellermann/beancount-staging/tests/testutil"
)

func TestCommitAttemptsAreAudited(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	db := fixtures.NewTestDB(t)
	db.TruncateAll(t.Context())

	ws := fixtures.NewWorkspace(t)
	s := newStack(t, ws, stackOptions{audit: postgres.NewAuditRepository(db.Pool, postgres.NewRetrier())})

	var state dto.InitResponse
	require.Equal(t, http.StatusOK, s.get(t, "/api/init", &state))
	id := state.Items[0].ID

	resp := s.post(t, "/api/transaction/"+id+"/commit", dto.CommitRequest{ExpenseAccount: "coffee"}, nil, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = s.post(t, "/api/transaction/"+id+"/commit", dto.CommitRequest{ExpenseAccount: "Expenses:Coffee"}, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var history []dto.AuditRecordResponse
	require.Equal(t, http.StatusOK, s.get(t, "/api/history?pending_id="+id, &history))
	require.Len(t, history, 2)
	assert.Equal(t, "success", history[0].Status)
	assert.Equal(t, "Expenses:Coffee", history[0].Account)
	assert.Equal(t, "2024-01-16", history[0].EntryDate)
	assert.Equal(t, "rejected", history[1].Status)
	assert.NotEmpty(t, history[1].ErrorMessage)
}
