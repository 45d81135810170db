package messaging

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"

	"wedding/config"
)

var ErrNotConfigured = errors.New("messaging service is not configured")

// Sender delivers a text message to a phone number in E.164 format and returns the message ID
type Sender interface {
	Send(to, body string) (string, error)
}

var httpClient = http.Client{}

// WhatsApp sends messages through a Twilio compatible REST gateway
type WhatsApp struct {
	BaseURL    string
	AccountSID string
	AuthToken  string
	From       string
	Client     *http.Client
}

// NewWhatsApp returns a sender configured from the environment
func NewWhatsApp() *WhatsApp {
	return &WhatsApp{
		BaseURL:    config.WHATSAPP_API_URL,
		AccountSID: config.WHATSAPP_ACCOUNT_SID,
		AuthToken:  config.WHATSAPP_AUTH_TOKEN,
		From:       config.WHATSAPP_FROM,
	}
}

func (w *WhatsApp) Configured() bool {
	return w.BaseURL != "" && w.AccountSID != "" && w.AuthToken != "" && w.From != ""
}

type gatewayResponse struct {
	SID     string `json:"sid"`
	Message string `json:"message"`
}

func (w *WhatsApp) Send(to, body string) (string, error) {
	if !w.Configured() {
		return "", ErrNotConfigured
	}
	form := url.Values{}
	form.Set("To", "whatsapp:"+to)
	form.Set("From", "whatsapp:"+w.From)
	form.Set("Body", body)
	endpoint := strings.TrimSuffix(w.BaseURL, "/") + "/Accounts/" + url.PathEscape(w.AccountSID) + "/Messages.json"
	req, err := http.NewRequest(http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(w.AccountSID, w.AuthToken)

	client := w.Client
	if client == nil {
		client = &httpClient
	}
	resp, err := client.Do(req)
	if err != nil {
		log.Printf("WhatsApp send error: %v", err)
		return "", err
	}
	defer resp.Body.Close()
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	result := gatewayResponse{}
	_ = json.Unmarshal(data, &result)
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if result.Message == "" {
			result.Message = strings.TrimSpace(string(data))
		}
		log.Printf("WhatsApp send error, status: %d, %s", resp.StatusCode, result.Message)
		return "", fmt.Errorf("status: %d, %s", resp.StatusCode, result.Message)
	}
	log.Printf("WhatsApp message sent, SID: %s", result.SID)
	return result.SID, nil
}
