package openmeteo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/krishi-vaani/internal/domain/environment"
)

func TestHourlyRequestsExpectedFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		require.Equal(t, "10.52", q.Get("latitude"))
		require.Equal(t, "76.21", q.Get("longitude"))
		require.Equal(t, hourlyFields, q.Get("hourly"))
		_, _ = w.Write([]byte(`{
			"hourly": {
				"time": ["2025-06-01T00:00", "2025-06-01T01:00"],
				"temperature_2m": [24.3, 25.1],
				"relative_humidity_2m": [88, 85],
				"wind_speed_10m": [4.1, null],
				"precipitation": [0.2, 1.6]
			}
		}`))
	}))
	defer srv.Close()

	series, err := NewClient(srv.URL, 0).Hourly(context.Background(), environment.Coordinates{Latitude: 10.52, Longitude: 76.21})
	require.NoError(t, err)

	sample, err := series.Latest()
	require.NoError(t, err)
	require.Equal(t, "2025-06-01T01:00", sample.Time)
	require.Equal(t, 25.1, sample.Temperature)
	require.Equal(t, 85.0, sample.Humidity)
	require.Zero(t, sample.WindSpeed)
	require.Equal(t, 1.6, sample.Rainfall)
}

func TestHourlyWithoutPrecipitation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"hourly":{"time":["t0"],"temperature_2m":[30],"relative_humidity_2m":[55],"wind_speed_10m":[2]}}`))
	}))
	defer srv.Close()

	series, err := NewClient(srv.URL, 0).Hourly(context.Background(), environment.Coordinates{})
	require.NoError(t, err)
	require.Nil(t, series.Precipitation)
	sample, err := series.Latest()
	require.NoError(t, err)
	require.Zero(t, sample.Rainfall)
}

func TestHourlyErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("latitude") == "91" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":true,"reason":"Latitude must be in range of -90 to 90°."}`))
			return
		}
		_, _ = w.Write([]byte(`{"error":true,"reason":"maintenance"}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 0)
	_, err := client.Hourly(context.Background(), environment.Coordinates{Latitude: 91})
	require.ErrorContains(t, err, "status=400")

	_, err = client.Hourly(context.Background(), environment.Coordinates{Latitude: 1})
	require.ErrorContains(t, err, "maintenance")
}
