package payment

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

// Gateway is the payment collaborator the workflow engine charges escrow
// through. The engine never talks HTTP itself.
type Gateway interface {
	Charge(merchantRef string, amount int64, customerName, customerEmail, itemName string) (*ChargeResult, error)
}

type ChargeResult struct {
	Reference   string
	MerchantRef string
	Amount      int64
	CheckoutURL string
}

// HTTPGateway talks to the hosted payment provider's REST API.
type HTTPGateway struct {
	Client       *http.Client
	APIKey       string
	PrivateKey   string
	MerchantCode string
	BaseURL      string
}

func NewHTTPGateway() *HTTPGateway {
	baseURL := "https://gateway.coffeeforfeedback.com/api-sandbox" // Default to sandbox
	if os.Getenv("GATEWAY_ENV") == "production" {
		baseURL = "https://gateway.coffeeforfeedback.com/api"
	}

	return &HTTPGateway{
		Client:       &http.Client{Timeout: 15 * time.Second},
		APIKey:       os.Getenv("GATEWAY_API_KEY"),
		PrivateKey:   os.Getenv("GATEWAY_PRIVATE_KEY"),
		MerchantCode: os.Getenv("GATEWAY_MERCHANT_CODE"),
		BaseURL:      baseURL,
	}
}

type chargeRequest struct {
	MerchantRef   string `json:"merchant_ref"`
	Amount        int64  `json:"amount"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	ItemName      string `json:"item_name"`
	Callback      string `json:"callback_url"`
	ExpiredTime   int64  `json:"expired_time"` // Unix timestamp
	Signature     string `json:"signature"`
}

type chargeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		Reference   string `json:"reference"`
		MerchantRef string `json:"merchant_ref"`
		CheckoutURL string `json:"checkout_url"`
		Amount      int64  `json:"amount"`
	} `json:"data"`
}

// Charge posts a charge against the founder's registered payment method.
// Signature: HMAC-SHA256( merchant_code + merchant_ref + amount, private_key )
func (s *HTTPGateway) Charge(merchantRef string, amount int64, customerName, customerEmail, itemName string) (*ChargeResult, error) {
	sigData := fmt.Sprintf("%s%s%d", s.MerchantCode, merchantRef, amount)
	signature := s.generateSignature(sigData)

	baseURL := os.Getenv("APP_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	reqBody := chargeRequest{
		MerchantRef:   merchantRef,
		Amount:        amount,
		CustomerName:  customerName,
		CustomerEmail: customerEmail,
		ItemName:      itemName,
		Callback:      baseURL + "/api/payments/callback",
		ExpiredTime:   time.Now().Add(24 * time.Hour).Unix(),
		Signature:     signature,
	}

	jsonBody, _ := json.Marshal(reqBody)

	req, err := http.NewRequest("POST", s.BaseURL+"/transaction/charge", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+s.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	bodyBytes, _ := io.ReadAll(resp.Body)

	var apiResp chargeResponse
	if err := json.Unmarshal(bodyBytes, &apiResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %v", err)
	}

	if !apiResp.Success {
		return nil, fmt.Errorf("gateway error: %s", apiResp.Message)
	}

	return &ChargeResult{
		Reference:   apiResp.Data.Reference,
		MerchantRef: apiResp.Data.MerchantRef,
		Amount:      apiResp.Data.Amount,
		CheckoutURL: apiResp.Data.CheckoutURL,
	}, nil
}

func (s *HTTPGateway) generateSignature(data string) string {
	h := hmac.New(sha256.New, []byte(s.PrivateKey))
	h.Write([]byte(data))
	return hex.EncodeToString(h.Sum(nil))
}

// ValidateSignature checks a callback signature.
// Callback signature: HMAC-SHA256( JSON_BODY, private_key )
func (s *HTTPGateway) ValidateSignature(incomingSig, jsonBody string) bool {
	h := hmac.New(sha256.New, []byte(s.PrivateKey))
	h.Write([]byte(jsonBody))
	calculated := hex.EncodeToString(h.Sum(nil))
	return calculated == incomingSig
}
