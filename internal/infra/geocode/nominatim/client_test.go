package nominatim

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/krishi-vaani/internal/domain/environment"
)

func TestReverseParsesAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "9.9312", r.URL.Query().Get("lat"))
		require.Equal(t, "json", r.URL.Query().Get("format"))
		require.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"address":{"village":"Kumbalangi","county":"Kochi","state":"Kerala"}}`))
	}))
	defer srv.Close()

	addr, err := NewClient(srv.URL, "test-agent", 0).Reverse(context.Background(), environment.Coordinates{Latitude: 9.9312, Longitude: 76.2673})
	require.NoError(t, err)
	require.Equal(t, "Kumbalangi", addr.Locality())
}

func TestReverseReportsUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", 0).Reverse(context.Background(), environment.Coordinates{})
	require.ErrorContains(t, err, "Unable to geocode")
}
