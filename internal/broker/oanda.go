package broker

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"fxstats/internal/metrics"
	"fxstats/internal/models"
	"fxstats/pkg/ratelimit"
	"fxstats/pkg/retry"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// OandaClient - клиент OANDA v20 REST API
//
// Все запросы проходят через rate limiter (token bucket) и retry с
// экспоненциальным backoff. 4xx ответы не повторяются, 5xx и 429 -
// повторяются.
//
// OANDA возвращает все числовые значения строками ("1.10235"), парсинг
// выполняется на границе клиента; наружу выходят готовые float64.
type OandaClient struct {
	baseURL   string
	token     string
	accountID string

	http    *HTTPClient
	limiter *ratelimit.RateLimiter
	retry   retry.Config
	logger  *zap.Logger
}

// OandaConfig - параметры создания клиента
type OandaConfig struct {
	BaseURL    string
	Token      string
	AccountID  string
	RateLimit  float64
	RateBurst  float64
	MaxRetries int
	HTTPConfig HTTPClientConfig
}

// NewOandaClient создает клиент OANDA
func NewOandaClient(cfg OandaConfig, logger *zap.Logger) *OandaClient {
	retryCfg := retry.DefaultConfig()
	if cfg.MaxRetries > 0 {
		retryCfg.MaxRetries = cfg.MaxRetries
	}
	retryCfg.RetryIf = retry.IsRetryable

	return &OandaClient{
		baseURL:   cfg.BaseURL,
		token:     cfg.Token,
		accountID: cfg.AccountID,
		http:      NewHTTPClient(cfg.HTTPConfig),
		limiter:   ratelimit.NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		retry:     retryCfg,
		logger:    logger,
	}
}

// Проверка реализации интерфейса на этапе компиляции
var _ Client = (*OandaClient)(nil)

// get выполняет GET запрос с rate limiting и retry, декодирует ответ в out.
// endpoint - метка для метрик (без ID счета, чтобы не раздувать кардинальность)
func (c *OandaClient) get(ctx context.Context, endpoint, path string, query url.Values, out interface{}) error {
	start := time.Now()

	requestURL := c.baseURL + path
	if len(query) > 0 {
		requestURL += "?" + query.Encode()
	}

	operation := func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return retry.Permanent(err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return retry.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.token)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return &Error{Message: "request failed", Original: err}
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return &Error{Message: "reading response body", Original: err}
		}

		if resp.StatusCode != http.StatusOK {
			return &Error{
				StatusCode: resp.StatusCode,
				Message:    string(body),
			}
		}

		if err := json.Unmarshal(body, out); err != nil {
			return retry.Permanent(&Error{Message: "decoding response", Original: err})
		}

		return nil
	}

	err := retry.Do(ctx, operation, c.retry)
	metrics.ObserveBrokerRequest(endpoint, time.Since(start).Seconds())
	if err != nil {
		c.logger.Warn("broker request failed",
			zap.String("path", path),
			zap.Error(err),
		)
	}
	return err
}

// ============================================================
// Pricing
// ============================================================

type pricingResponse struct {
	Prices []struct {
		Instrument string `json:"instrument"`
		Time       string `json:"time"`
		Bids       []struct {
			Price string `json:"price"`
		} `json:"bids"`
		Asks []struct {
			Price string `json:"price"`
		} `json:"asks"`
	} `json:"prices"`
}

// GetPrice получает текущую котировку инструмента
func (c *OandaClient) GetPrice(ctx context.Context, symbol string) (*Price, error) {
	var resp pricingResponse

	query := url.Values{}
	query.Set("instruments", symbol)

	path := fmt.Sprintf("/v3/accounts/%s/pricing", c.accountID)
	if err := c.get(ctx, "pricing", path, query, &resp); err != nil {
		return nil, err
	}

	if len(resp.Prices) == 0 {
		return nil, &Error{Message: "no price returned for " + symbol}
	}

	p := resp.Prices[0]
	if len(p.Bids) == 0 || len(p.Asks) == 0 {
		return nil, &Error{Message: "incomplete price for " + symbol}
	}

	bid, err := parseFloat(p.Bids[0].Price)
	if err != nil {
		return nil, &Error{Message: "parsing bid price", Original: err}
	}
	ask, err := parseFloat(p.Asks[0].Price)
	if err != nil {
		return nil, &Error{Message: "parsing ask price", Original: err}
	}

	return &Price{
		Symbol: p.Instrument,
		Bid:    bid,
		Ask:    ask,
		Time:   parseTime(p.Time),
	}, nil
}

// ============================================================
// Account
// ============================================================

type accountSummaryResponse struct {
	Account struct {
		ID                string `json:"id"`
		Currency          string `json:"currency"`
		Balance           string `json:"balance"`
		NAV               string `json:"NAV"`
		UnrealizedPL      string `json:"unrealizedPL"`
		PL                string `json:"pl"`
		ResettablePL      string `json:"resettablePL"`
		MarginUsed        string `json:"marginUsed"`
		MarginAvailable   string `json:"marginAvailable"`
		MarginCallPercent string `json:"marginCallPercent"`
		PositionValue     string `json:"positionValue"`
		OpenTradeCount    int    `json:"openTradeCount"`
		PendingOrderCount int    `json:"pendingOrderCount"`
		LastTransactionID string `json:"lastTransactionID"`
	} `json:"account"`
}

// GetAccountSummary получает сводку счета
func (c *OandaClient) GetAccountSummary(ctx context.Context) (*models.AccountSummary, error) {
	var resp accountSummaryResponse

	path := fmt.Sprintf("/v3/accounts/%s/summary", c.accountID)
	if err := c.get(ctx, "summary", path, nil, &resp); err != nil {
		return nil, err
	}

	a := resp.Account
	summary := &models.AccountSummary{
		AccountID:         a.ID,
		Currency:          a.Currency,
		OpenTradeCount:    a.OpenTradeCount,
		OpenOrderCount:    a.PendingOrderCount,
		LastTransactionID: a.LastTransactionID,
		UpdatedAt:         time.Now(),
	}

	// Числовые поля OANDA приходят строками; непарсящееся поле оставляет ноль
	summary.Balance, _ = parseFloat(a.Balance)
	summary.NAV, _ = parseFloat(a.NAV)
	summary.UnrealizedPL, _ = parseFloat(a.UnrealizedPL)
	summary.PL, _ = parseFloat(a.PL)
	summary.ResettablePL, _ = parseFloat(a.ResettablePL)
	summary.MarginUsed, _ = parseFloat(a.MarginUsed)
	summary.MarginAvailable, _ = parseFloat(a.MarginAvailable)
	summary.MarginCallPercent, _ = parseFloat(a.MarginCallPercent)
	summary.PositionValue, _ = parseFloat(a.PositionValue)

	return summary, nil
}

// ============================================================
// Orders / Trades
// ============================================================

type orderResponse struct {
	Order struct {
		ID         string `json:"id"`
		Type       string `json:"type"`
		Instrument string `json:"instrument"`
		Units      string `json:"units"`
		Price      string `json:"price"`
		State      string `json:"state"`
		CreateTime string `json:"createTime"`
		FilledTime string `json:"filledTime"`
	} `json:"order"`
}

// GetOrder получает ордер по ID на стороне брокера
func (c *OandaClient) GetOrder(ctx context.Context, orderID string) (*OrderDetails, error) {
	var resp orderResponse

	path := fmt.Sprintf("/v3/accounts/%s/orders/%s", c.accountID, orderID)
	if err := c.get(ctx, "order", path, nil, &resp); err != nil {
		return nil, err
	}

	o := resp.Order
	details := &OrderDetails{
		ID:         o.ID,
		Type:       o.Type,
		Instrument: o.Instrument,
		State:      o.State,
		CreateTime: parseTime(o.CreateTime),
	}
	details.Units, _ = parseFloat(o.Units)
	details.Price, _ = parseFloat(o.Price)

	if o.FilledTime != "" {
		t := parseTime(o.FilledTime)
		details.FilledTime = &t
	}

	return details, nil
}

type tradeResponse struct {
	Trade struct {
		ID           string `json:"id"`
		Instrument   string `json:"instrument"`
		CurrentUnits string `json:"currentUnits"`
		InitialUnits string `json:"initialUnits"`
		Price        string `json:"price"`
		UnrealizedPL string `json:"unrealizedPL"`
		RealizedPL   string `json:"realizedPL"`
		State        string `json:"state"`
		OpenTime     string `json:"openTime"`
		CloseTime    string `json:"closeTime"`
	} `json:"trade"`
}

// GetTrade получает трейд по ID на стороне брокера
func (c *OandaClient) GetTrade(ctx context.Context, tradeID string) (*TradeDetails, error) {
	var resp tradeResponse

	path := fmt.Sprintf("/v3/accounts/%s/trades/%s", c.accountID, tradeID)
	if err := c.get(ctx, "trade", path, nil, &resp); err != nil {
		return nil, err
	}

	t := resp.Trade
	details := &TradeDetails{
		ID:         t.ID,
		Instrument: t.Instrument,
		State:      t.State,
		OpenTime:   parseTime(t.OpenTime),
	}

	// Для закрытого трейда currentUnits = 0, объем берется из initialUnits
	details.Units, _ = parseFloat(t.CurrentUnits)
	if details.Units == 0 {
		details.Units, _ = parseFloat(t.InitialUnits)
	}
	details.Price, _ = parseFloat(t.Price)
	details.UnrealizedPL, _ = parseFloat(t.UnrealizedPL)
	details.RealizedPL, _ = parseFloat(t.RealizedPL)

	if t.CloseTime != "" {
		ct := parseTime(t.CloseTime)
		details.CloseTime = &ct
	}

	return details, nil
}

// Close закрывает idle-соединения клиента
func (c *OandaClient) Close() {
	c.http.Close()
}

// parseFloat парсит числовую строку OANDA; пустая строка дает 0 без ошибки
func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// parseTime парсит таймстамп OANDA (RFC3339 с наносекундами)
// Непарсящееся значение дает нулевое время
func parseTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
