package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MeetKhetani2003/Groovy-Frozen-Server/services/cart-service/models"
	apperrors "github.com/MeetKhetani2003/Groovy-Frozen-Server/services/common/errors"
)

// ProductClient reads products from product-service over HTTP.
type ProductClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewProductClient(baseURL string, timeout time.Duration) *ProductClient {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ProductClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// GetProduct fetches one product. Not-found and invalid-id answers come back
// as the matching application errors; anything else is a 502.
func (c *ProductClient) GetProduct(ctx context.Context, productID string) (*models.ProductSnapshot, error) {
	endpoint := fmt.Sprintf("%s/api/v1/products/%s", c.baseURL, url.PathEscape(productID))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, unavailable(err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, unavailable(err)
	}
	defer resp.Body.Close()

	var body envelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, unavailable(fmt.Errorf("decode response (status %d): %w", resp.StatusCode, err))
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return nil, apperrors.NotFound("Product not found")
	case http.StatusBadRequest:
		return nil, apperrors.InvalidArgument(body.Message, nil)
	default:
		return nil, unavailable(fmt.Errorf("product service returned %d: %s", resp.StatusCode, body.Message))
	}

	var product models.ProductSnapshot
	if err := json.Unmarshal(body.Data, &product); err != nil {
		return nil, unavailable(fmt.Errorf("decode product: %w", err))
	}
	return &product, nil
}

func unavailable(err error) error {
	return apperrors.New(apperrors.KindInternal, http.StatusBadGateway, "Product service unavailable", err)
}
