package devicegw

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListPunches_Success(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/organizations/org-1/punches", r.URL.Path)
		assert.NotEmpty(t, r.URL.Query().Get("since"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"punches":[{"employee_id":"emp-1","device_id":"dev-1","timestamp":"2026-03-02T09:02:00Z"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "org-1")
	punches, err := client.ListPunches(context.Background(), time.Now().Add(-time.Hour))
	require.NoError(t, err)

	require.Len(t, punches, 1)
	assert.Equal(t, "emp-1", punches[0].EmployeeID)
	assert.Equal(t, "dev-1", punches[0].DeviceID)
}

func TestListPunches_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"punches":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "org-1")
	_, err := client.ListPunches(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestListPunches_DoesNotRetryClientErrors(t *testing.T) {
	t.Parallel()

	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient(server.URL, "org-1")
	_, err := client.ListPunches(context.Background(), time.Now())
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestListPunches_CancelledContextStopsRetries(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient(server.URL, "org-1")
	_, err := client.ListPunches(ctx, time.Now())
	require.Error(t, err)
}
