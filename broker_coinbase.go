// FILE: broker_coinbase.go
// Package main – Coinbase Advanced Trade REST client.
//
// One authenticated HTTP call per operation, no retry/backoff:
//   • GetNowPrice            GET  /api/v3/brokerage/products/{id}
//   • GetOrderBook           GET  /api/v3/brokerage/product_book
//   • ListAccounts           GET  /api/v3/brokerage/accounts
//   • GetAvailableBalance    (sum over ListAccounts)
//   • PlaceMarketBuy         POST /api/v3/brokerage/orders (market_market_ioc)
//
// Auth modes:
//   - If COINBASE_BEARER_TOKEN is set, use it as a fixed bearer
//   - Else mint a short-lived JWT per request from the configured key name
//     and private key PEM (ES256 for EC keys, RS256 for RSA keys)

package main

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type CoinbaseBroker struct {
	apiBase string // default https://api.coinbase.com
	hc      *http.Client
	// Auth:
	//  - If bearerToken set, use it
	//  - Else mint per-request JWT from keyName + privateKeyPEM
	keyName       string
	privateKeyPEM string
	bearerToken   string
}

func NewCoinbaseBroker(cfg Config) *CoinbaseBroker {
	return &CoinbaseBroker{
		apiBase:       strings.TrimRight(cfg.APIBase, "/"),
		hc:            &http.Client{Timeout: 15 * time.Second},
		keyName:       strings.TrimSpace(cfg.APIKey),
		privateKeyPEM: normalizeMultiline(cfg.APISecret),
		bearerToken:   strings.TrimSpace(getEnv("COINBASE_BEARER_TOKEN", "")),
	}
}

func (cb *CoinbaseBroker) Name() string { return "coinbase" }

// ---------- Price ----------

func (cb *CoinbaseBroker) GetNowPrice(ctx context.Context, product string) (float64, error) {
	u := fmt.Sprintf("%s/api/v3/brokerage/products/%s", cb.apiBase, url.PathEscape(product))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, err
	}
	cb.addAuthIfAvailable(req) // product is often public, but allow auth too

	body, err := cb.do("product", req)
	if err != nil {
		return 0, err
	}
	var j map[string]any
	if err := json.Unmarshal(body, &j); err != nil {
		return 0, &APIError{Op: "product", Err: err}
	}
	// Try common numeric fields
	for _, k := range []string{"price", "mid_market_price", "best_ask", "best_bid"} {
		if f := parseFloat(j[k]); f > 0 {
			return f, nil
		}
	}
	return 0, &APIError{Op: "product", Err: errors.New("no usable price in product payload")}
}

// ---------- Order book ----------

type bookLevelRow struct {
	Price string `json:"price"`
	Size  string `json:"size"`
}

type bookResponse struct {
	Pricebook struct {
		ProductID string         `json:"product_id"`
		Bids      []bookLevelRow `json:"bids"`
		Asks      []bookLevelRow `json:"asks"`
	} `json:"pricebook"`
}

func (cb *CoinbaseBroker) GetOrderBook(ctx context.Context, product string, limit int) (*OrderBook, error) {
	if limit <= 0 {
		limit = 10
	}
	qs := url.Values{
		"product_id": []string{product},
		"limit":      []string{strconv.Itoa(limit)},
	}
	u := fmt.Sprintf("%s/api/v3/brokerage/product_book?%s", cb.apiBase, qs.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	cb.addAuthIfAvailable(req)

	body, err := cb.do("product_book", req)
	if err != nil {
		return nil, err
	}
	var j bookResponse
	if err := json.Unmarshal(body, &j); err != nil {
		return nil, &APIError{Op: "product_book", Err: err}
	}
	out := &OrderBook{
		Bids: toBookLevels(j.Pricebook.Bids, limit),
		Asks: toBookLevels(j.Pricebook.Asks, limit),
	}
	return out, nil
}

func toBookLevels(rows []bookLevelRow, limit int) []BookLevel {
	if len(rows) > limit {
		rows = rows[:limit]
	}
	out := make([]BookLevel, 0, len(rows))
	for _, r := range rows {
		p, _ := strconv.ParseFloat(strings.TrimSpace(r.Price), 64)
		s, _ := strconv.ParseFloat(strings.TrimSpace(r.Size), 64)
		if p <= 0 {
			continue
		}
		out = append(out, BookLevel{Price: p, Size: s})
	}
	return out
}

// ---------- Accounts / Balances ----------

type moneyRow struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type accountRow struct {
	UUID             string   `json:"uuid"`
	Currency         string   `json:"currency"`
	AvailableBalance moneyRow `json:"available_balance"`
}

type accountsResponse struct {
	Accounts []accountRow `json:"accounts"`
	HasNext  bool         `json:"has_next"`
	Cursor   string       `json:"cursor"`
}

func (cb *CoinbaseBroker) ListAccounts(ctx context.Context) ([]Account, error) {
	u := fmt.Sprintf("%s/api/v3/brokerage/accounts?limit=250", cb.apiBase)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if err := cb.addAuth(req); err != nil {
		return nil, &APIError{Op: "accounts", Err: err}
	}

	body, err := cb.do("accounts", req)
	if err != nil {
		return nil, err
	}
	var j accountsResponse
	if err := json.Unmarshal(body, &j); err != nil {
		return nil, &APIError{Op: "accounts", Err: err}
	}
	out := make([]Account, 0, len(j.Accounts))
	for _, a := range j.Accounts {
		out = append(out, Account{
			UUID:      a.UUID,
			Currency:  strings.ToUpper(strings.TrimSpace(a.Currency)),
			Available: parseFloat(a.AvailableBalance.Value),
		})
	}
	return out, nil
}

// GetAvailableBalance sums available funds across all accounts of a currency
// (Coinbase may split a currency over several portfolios).
func (cb *CoinbaseBroker) GetAvailableBalance(ctx context.Context, currency string) (float64, error) {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return 0, fmt.Errorf("empty currency")
	}
	accounts, err := cb.ListAccounts(ctx)
	if err != nil {
		return 0, err
	}
	total := 0.0
	for _, a := range accounts {
		if a.Currency == currency {
			total += a.Available
		}
	}
	return total, nil
}

// ---------- Orders (market by quote) ----------

func (cb *CoinbaseBroker) PlaceMarketBuy(ctx context.Context, product string, quoteUSD float64) (*PlacedOrder, error) {
	if quoteUSD <= 0 {
		return nil, fmt.Errorf("invalid quote USD: %.2f", quoteUSD)
	}
	clientOrderID := uuid.New().String()
	reqBody := map[string]any{
		"client_order_id": clientOrderID,
		"product_id":      product,
		"side":            string(SideBuy),
		"order_configuration": map[string]any{
			"market_market_ioc": map[string]string{
				"quote_size": fmt.Sprintf("%.2f", quoteUSD),
			},
		},
	}
	bs, _ := json.Marshal(reqBody)
	u := cb.apiBase + "/api/v3/brokerage/orders"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(bs))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if err := cb.addAuth(req); err != nil {
		return nil, &APIError{Op: "orders", Err: err}
	}

	body, err := cb.do("orders", req)
	if err != nil {
		return nil, err
	}

	// Parse flexible response shapes; at times wrapped like
	// {"success_response":{"order_id":"..."}, ...}
	var generic map[string]any
	_ = json.Unmarshal(body, &generic)
	orderID := firstString(
		generic["order_id"],
		nested(generic, "success_response", "order_id"),
	)
	if strings.TrimSpace(orderID) == "" {
		// Fallback to client id if nothing else
		orderID = clientOrderID
	}

	return &PlacedOrder{
		ID:            orderID,
		ClientOrderID: clientOrderID,
		ProductID:     product,
		Side:          SideBuy,
		QuoteSpent:    quoteUSD,
		CreateTime:    time.Now().UTC(),
	}, nil
}

// ---------- transport ----------

// do executes the request and returns the body, mapping transport failures
// and non-2xx statuses to *APIError. Also feeds the API request counter.
func (cb *CoinbaseBroker) do(op string, req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", "coinbot/coinbase-go")
	res, err := cb.hc.Do(req)
	if err != nil {
		IncAPIRequest(op, "error")
		return nil, &APIError{Op: op, Err: err}
	}
	defer res.Body.Close()
	b, _ := io.ReadAll(res.Body)
	if res.StatusCode >= 300 {
		IncAPIRequest(op, "error")
		return nil, &APIError{Op: op, Status: res.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	IncAPIRequest(op, "ok")
	return b, nil
}

// ---------- auth helpers ----------

func (cb *CoinbaseBroker) addAuthIfAvailable(req *http.Request) {
	if cb.bearerToken != "" || (cb.keyName != "" && cb.privateKeyPEM != "") {
		_ = cb.addAuth(req)
	}
}

func (cb *CoinbaseBroker) addAuth(req *http.Request) error {
	// Prefer fixed bearer if provided (useful for externally-minted tokens)
	if cb.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+cb.bearerToken)
		return nil
	}
	if cb.keyName == "" || cb.privateKeyPEM == "" {
		return errors.New("coinbase auth not configured (set COINBASE_API_KEY + COINBASE_API_SECRET or COINBASE_BEARER_TOKEN)")
	}
	token, err := mintBrokerageJWT(cb.keyName, cb.privateKeyPEM, 25*time.Second)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	// Many clients include the key name as an extra header:
	req.Header.Set("CB-ACCESS-KEY", cb.keyName)
	return nil
}

// mintBrokerageJWT builds a short-lived token for the Advanced Trade API.
// CDP keys are EC (ES256); legacy RSA keys still work via RS256.
func mintBrokerageJWT(keyName, privatePEM string, ttl time.Duration) (string, error) {
	block, _ := pem.Decode([]byte(privatePEM))
	if block == nil {
		return "", errors.New("invalid private key (no PEM block)")
	}

	var method jwt.SigningMethod
	var signKey any
	switch block.Type {
	case "EC PRIVATE KEY":
		k, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return "", err
		}
		method, signKey = jwt.SigningMethodES256, k
	case "RSA PRIVATE KEY":
		k, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return "", err
		}
		method, signKey = jwt.SigningMethodRS256, k
	case "PRIVATE KEY":
		k, err := x509.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return "", err
		}
		switch t := k.(type) {
		case *ecdsa.PrivateKey:
			method, signKey = jwt.SigningMethodES256, t
		case *rsa.PrivateKey:
			method, signKey = jwt.SigningMethodRS256, t
		default:
			return "", errors.New("unsupported PKCS8 key type")
		}
	default:
		return "", fmt.Errorf("unsupported key type: %s", block.Type)
	}

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": keyName,           // API key name
		"aud": "retail_rest_api", // audience per Advanced Trade docs
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
		"nbf": now.Add(-5 * time.Second).Unix(),
		"jti": uuid.New().String(),
	}
	t := jwt.NewWithClaims(method, claims)
	return t.SignedString(signKey)
}

// ---------- small utils ----------

func firstString(vals ...any) string {
	for _, v := range vals {
		switch t := v.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				return s
			}
		case fmt.Stringer:
			if s := strings.TrimSpace(t.String()); s != "" {
				return s
			}
		}
	}
	return ""
}

func nested(m map[string]any, keys ...string) any {
	var cur any = m
	for _, k := range keys {
		mm, ok := cur.(map[string]any)
		if !ok {
			return nil
		}
		cur = mm[k]
	}
	return cur
}

func parseFloat(v any) float64 {
	switch t := v.(type) {
	case string:
		f, _ := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f
	case float64:
		return t
	case json.Number:
		f, _ := t.Float64()
		return f
	default:
		return 0
	}
}

func normalizeMultiline(s string) string {
	if strings.Contains(s, `\n`) {
		return strings.ReplaceAll(s, `\n`, "\n")
	}
	return s
}
