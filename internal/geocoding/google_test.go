package geocoding_test

import (
	"log/slog"
	"testing"

	"github.com/UnknownOlympus/usermap/internal/geocoding"
	"github.com/UnknownOlympus/usermap/test/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"googlemaps.github.io/maps"
)

func TestGoogleProvider_Geocode(t *testing.T) {
	mockClient := mocks.NewGoogleAPIClient(t)
	provider := geocoding.NewGoogleProvider(mockClient, slog.Default())
	ctx := t.Context()

	t.Run("api returns error", func(t *testing.T) {
		address := "some invalid place"
		req := &maps.GeocodingRequest{Address: address}

		mockClient.On("Geocode", ctx, req).Return(nil, assert.AnError).Once()

		_, err := provider.Geocode(ctx, address)

		require.Error(t, err)
		require.ErrorIs(t, err, assert.AnError)
		mockClient.AssertExpectations(t)
	})

	t.Run("api returns empty response", func(t *testing.T) {
		address := "some invalid place"
		req := &maps.GeocodingRequest{Address: address}

		mockClient.On("Geocode", ctx, req).Return(nil, nil).Once()

		coords, err := provider.Geocode(ctx, address)

		require.Nil(t, coords)
		require.ErrorIs(t, err, geocoding.ErrNoResults)
		mockClient.AssertExpectations(t)
	})

	t.Run("successful geocoding", func(t *testing.T) {
		address := "1600 Amphitheatre Parkway, Mountain View, CA"
		req := &maps.GeocodingRequest{Address: address}
		mockResponse := []maps.GeocodingResult{
			{Geometry: maps.AddressGeometry{Location: maps.LatLng{Lat: 37.42, Lng: -122.08}}},
		}

		mockClient.On("Geocode", ctx, req).Return(mockResponse, nil).Once()

		coords, err := provider.Geocode(ctx, address)

		require.NoError(t, err)
		require.NotNil(t, coords)
		require.InEpsilon(t, 37.42, coords.Latitude, 0.01)
		require.InEpsilon(t, -122.08, coords.Longitude, 0.01)
		mockClient.AssertExpectations(t)
	})
}

func TestGoogleProvider_ReverseGeocode(t *testing.T) {
	mockClient := mocks.NewGoogleAPIClient(t)
	provider := geocoding.NewGoogleProvider(mockClient, slog.Default())
	ctx := t.Context()

	t.Run("returns first political component", func(t *testing.T) {
		req := &maps.GeocodingRequest{LatLng: &maps.LatLng{Lat: 52.52, Lng: 13.405}}
		mockResponse := []maps.GeocodingResult{
			{AddressComponents: []maps.AddressComponent{
				{LongName: "Unter den Linden", Types: []string{"route"}},
				{LongName: "Mitte", Types: []string{"sublocality", "political"}},
				{LongName: "Berlin", Types: []string{"locality", "political"}},
			}},
		}

		mockClient.On("ReverseGeocode", ctx, req).Return(mockResponse, nil).Once()

		name, err := provider.ReverseGeocode(ctx, 52.52, 13.405)

		require.NoError(t, err)
		assert.Equal(t, "Mitte", name)
		mockClient.AssertExpectations(t)
	})

	t.Run("empty response yields empty name", func(t *testing.T) {
		req := &maps.GeocodingRequest{LatLng: &maps.LatLng{Lat: 0, Lng: 0}}

		mockClient.On("ReverseGeocode", ctx, req).Return(nil, nil).Once()

		name, err := provider.ReverseGeocode(ctx, 0, 0)

		require.NoError(t, err)
		assert.Empty(t, name)
		mockClient.AssertExpectations(t)
	})

	t.Run("api returns error", func(t *testing.T) {
		req := &maps.GeocodingRequest{LatLng: &maps.LatLng{Lat: 52.52, Lng: 13.405}}

		mockClient.On("ReverseGeocode", ctx, req).Return(nil, assert.AnError).Once()

		_, err := provider.ReverseGeocode(ctx, 52.52, 13.405)

		require.Error(t, err)
		require.ErrorIs(t, err, assert.AnError)
		mockClient.AssertExpectations(t)
	})
}
