package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/skip2/go-qrcode"
	"github.com/volcanocoin/backend/internal/models"
)

// QRService issues scannable payment requests: the payee encodes their
// address and a display-unit amount, the payer scans and submits the
// resulting transfer. Payloads are cached in Redis with a short TTL
// and consumed on first scan.
type QRService struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewQRService(rdb *redis.Client) *QRService {
	return &QRService{
		redis: rdb,
		ttl:   5 * time.Minute,
	}
}

// PaymentRequest is the decoded content of a payment QR code.
type PaymentRequest struct {
	Recipient models.Address `json:"recipient"`
	Amount    string         `json:"amount"`
	Nonce     string         `json:"nonce"`
	Timestamp int64          `json:"timestamp"`
}

// GeneratePaymentRequest returns the opaque code plus a base64 PNG of
// its QR rendering. Amount stays in display units; conversion happens
// when the payer submits the transfer.
func (s *QRService) GeneratePaymentRequest(ctx context.Context, recipient models.Address, amount string) (string, string, error) {
	if s.redis == nil {
		return "", "", fmt.Errorf("payment requests unavailable without redis")
	}

	if _, err := models.ToSmallestUnit(amount); err != nil {
		return "", "", err
	}

	nonce, err := generateNonce()
	if err != nil {
		return "", "", fmt.Errorf("generating nonce: %w", err)
	}

	payload := PaymentRequest{
		Recipient: recipient,
		Amount:    amount,
		Nonce:     nonce,
		Timestamp: time.Now().Unix(),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", "", err
	}

	code := base64.URLEncoding.EncodeToString(jsonData)

	key := fmt.Sprintf("qr:%s", code)
	if err := s.redis.Set(ctx, key, jsonData, s.ttl).Err(); err != nil {
		return "", "", err
	}

	qr, err := qrcode.New(code, qrcode.Medium)
	if err != nil {
		return "", "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return "", "", err
	}

	return code, base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// ResolvePaymentRequest validates a scanned code and consumes it, so a
// request cannot be paid twice.
func (s *QRService) ResolvePaymentRequest(ctx context.Context, code string) (*PaymentRequest, error) {
	if s.redis == nil {
		return nil, fmt.Errorf("payment requests unavailable without redis")
	}

	key := fmt.Sprintf("qr:%s", code)

	data, err := s.redis.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, fmt.Errorf("invalid or expired payment request")
	}
	if err != nil {
		return nil, err
	}

	var req PaymentRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}

	s.redis.Del(ctx, key)

	return &req, nil
}

func generateNonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
