package courier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"shopnest-be/internal/pkg/apperrors"

	gocache "github.com/patrickmn/go-cache"
)

// httpGateway talks to the carrier aggregator's REST API. Bookings are
// reference-keyed: before creating anything it asks the carrier whether a
// booking with the same reference already exists, so a retried call after a
// timeout reuses the AWB the carrier already issued.
type httpGateway struct {
	baseURL    string
	apiKey     string
	client     *http.Client
	trackCache *gocache.Cache
}

func NewHTTPGateway(baseURL, apiKey string, timeout time.Duration) Gateway {
	return &httpGateway{
		baseURL:    baseURL,
		apiKey:     apiKey,
		client:     &http.Client{Timeout: timeout},
		trackCache: gocache.New(30*time.Second, time.Minute),
	}
}

type bookingRequest struct {
	Reference string        `json:"reference"`
	Direction string        `json:"direction"` // reverse | forward
	Items     []bookingItem `json:"items"`
}

type bookingItem struct {
	Sku  string `json:"sku"`
	Name string `json:"name"`
	Qty  int    `json:"qty"`
}

type bookingResponse struct {
	Awb           string     `json:"awb"`
	Partner       string     `json:"partner"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	Status        string     `json:"status"`
}

func (g *httpGateway) SchedulePickup(ctx context.Context, requestId string, items []PickupItem) (*PickupResult, error) {
	booking, err := g.book(ctx, requestId, "reverse", items)
	if err != nil {
		return nil, err
	}
	result := &PickupResult{Awb: booking.Awb, Partner: booking.Partner}
	if booking.ScheduledDate != nil {
		result.ScheduledDate = *booking.ScheduledDate
	} else {
		result.ScheduledDate = time.Now().AddDate(0, 0, 1)
	}
	return result, nil
}

func (g *httpGateway) CreateShipment(ctx context.Context, requestId string, items []PickupItem) (*ShipmentResult, error) {
	booking, err := g.book(ctx, requestId, "forward", items)
	if err != nil {
		return nil, err
	}
	return &ShipmentResult{Awb: booking.Awb, Partner: booking.Partner}, nil
}

func (g *httpGateway) book(ctx context.Context, reference, direction string, items []PickupItem) (*bookingResponse, error) {
	// Reference lookup first: if a previous attempt reached the carrier
	// before timing out, the booking already exists.
	if existing, err := g.findByReference(ctx, reference, direction); err == nil && existing != nil {
		return existing, nil
	}

	payload := bookingRequest{Reference: reference, Direction: direction}
	for _, item := range items {
		payload.Items = append(payload.Items, bookingItem(item))
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/v1/bookings", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		// Network errors and timeouts are retryable.
		return nil, &apperrors.CarrierError{Transient: true, Op: "book", Err: err}
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var booking bookingResponse
		if err := json.Unmarshal(data, &booking); err != nil {
			return nil, &apperrors.CarrierError{Transient: false, Op: "book", Err: err}
		}
		return &booking, nil
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return nil, &apperrors.CarrierError{
			Transient: true,
			Op:        "book",
			Err:       fmt.Errorf("carrier returned %d: %s", resp.StatusCode, data),
		}
	default:
		return nil, &apperrors.CarrierError{
			Transient: false,
			Op:        "book",
			Err:       fmt.Errorf("carrier rejected booking (%d): %s", resp.StatusCode, data),
		}
	}
}

func (g *httpGateway) findByReference(ctx context.Context, reference, direction string) (*bookingResponse, error) {
	url := fmt.Sprintf("%s/v1/bookings?reference=%s&direction=%s", g.baseURL, reference, direction)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lookup returned %d", resp.StatusCode)
	}

	var booking bookingResponse
	if err := json.NewDecoder(resp.Body).Decode(&booking); err != nil {
		return nil, err
	}
	if booking.Awb == "" {
		return nil, nil
	}
	return &booking, nil
}

func (g *httpGateway) Track(ctx context.Context, awb string) (string, error) {
	if status, found := g.trackCache.Get(awb); found {
		return status.(string), nil
	}

	url := fmt.Sprintf("%s/v1/tracking/%s", g.baseURL, awb)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", &apperrors.CarrierError{Transient: true, Op: "track", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &apperrors.CarrierError{
			Transient: resp.StatusCode >= 500,
			Op:        "track",
			Err:       fmt.Errorf("tracking returned %d", resp.StatusCode),
		}
	}

	var result struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", err
	}

	g.trackCache.Set(awb, result.Status, gocache.DefaultExpiration)
	return result.Status, nil
}
