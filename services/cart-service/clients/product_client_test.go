package clients

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/MeetKhetani2003/Groovy-Frozen-Server/services/common/errors"
)

func newProductServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/products/p1", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message":"Product fetched successfully","data":{"_id":"p1","name":"Fries A","packetPrice":12.5,"stockQuantity":40}}`))
	})
	mux.HandleFunc("/api/v1/products/missing", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"message":"Product not found","error":"An unexpected error occurred"}`))
	})
	mux.HandleFunc("/api/v1/products/bad", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"message":"Invalid or missing product ID"}`))
	})
	mux.HandleFunc("/api/v1/products/boom", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"message":"Internal Server Error"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestGetProduct(t *testing.T) {
	client := NewProductClient(newProductServer(t).URL+"/", time.Second)

	p, err := client.GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, "Fries A", p.Name)
	assert.Equal(t, 12.5, p.PacketPrice)
	assert.Equal(t, 40.0, p.StockQuantity)
}

func TestGetProductErrors(t *testing.T) {
	client := NewProductClient(newProductServer(t).URL, time.Second)

	_, err := client.GetProduct(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = client.GetProduct(context.Background(), "bad")
	require.ErrorIs(t, err, apperrors.ErrInvalidArgument)
	assert.Equal(t, "Invalid or missing product ID", apperrors.From(err).Message)

	_, err = client.GetProduct(context.Background(), "boom")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, apperrors.From(err).Code)
}

func TestGetProductUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := NewProductClient(srv.URL, time.Second).GetProduct(context.Background(), "p1")
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, apperrors.From(err).Code)
}
