// Package media provides image handling for visitor photos and QR artifacts.
package media

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/logiclens/gatepass-go/internal/domain/entities/visitor"
	qrcode "github.com/skip2/go-qrcode"
)

const qrImageSize = 256

// qrPayload is the structure scanned at the gate. The expiry travels inside
// the image so a stale pass is detectable offline.
type qrPayload struct {
	Code      string `json:"code"`
	Name      string `json:"name"`
	ExpiresAt string `json:"expiresAt"`
}

// EncodeVisitorQR serializes the visitor code, name, and expiry into a QR
// image and returns it as a PNG data URI. Failures are wrapped in
// visitor.QREncodingError; callers treat them as fatal to registration.
func EncodeVisitorQR(code, name string, expiresAt time.Time) (string, error) {
	payload, err := json.Marshal(qrPayload{
		Code:      code,
		Name:      name,
		ExpiresAt: expiresAt.UTC().Format(time.RFC3339),
	})
	if err != nil {
		return "", &visitor.QREncodingError{Err: err}
	}

	png, err := qrcode.Encode(string(payload), qrcode.Medium, qrImageSize)
	if err != nil {
		return "", &visitor.QREncodingError{Err: err}
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}
