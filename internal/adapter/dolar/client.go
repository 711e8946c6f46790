package dolar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/celulandia/cuentas/internal/domain"
)

// DefaultBaseURL is the public dolarapi endpoint.
const DefaultBaseURL = "https://dolarapi.com"

// Client implements usecase.ExchangeRateProvider against a dolarapi-style service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a new Client. A zero timeout leaves the http.Client default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

type rateResponse struct {
	Compra             decimal.Decimal `json:"compra"`
	Venta              decimal.Decimal `json:"venta"`
	FechaActualizacion time.Time       `json:"fechaActualizacion"`
}

// Current fetches the oficial and blue rates concurrently.
func (c *Client) Current(ctx context.Context) (*domain.ExchangeRateQuote, error) {
	var oficial, blue rateResponse

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return c.fetch(gctx, "oficial", &oficial)
	})
	g.Go(func() error {
		return c.fetch(gctx, "blue", &blue)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	updated := oficial.FechaActualizacion
	if blue.FechaActualizacion.After(updated) {
		updated = blue.FechaActualizacion
	}

	return &domain.ExchangeRateQuote{
		Oficial:             positive(oficial.Venta),
		Blue:                positive(blue.Venta),
		UltimaActualizacion: updated,
	}, nil
}

func (c *Client) fetch(ctx context.Context, casa string, out *rateResponse) error {
	url := fmt.Sprintf("%s/v1/dolares/%s", c.baseURL, casa)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("dolar %s: %w", casa, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("dolar %s: http %d", casa, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("dolar %s: decode: %w", casa, err)
	}

	return nil
}

func positive(d decimal.Decimal) decimal.NullDecimal {
	if !d.IsPositive() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
