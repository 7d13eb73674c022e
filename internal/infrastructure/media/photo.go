package media

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

const photoMaxDimension = 480

// DecodeDataURI decodes a base64 image, with or without a data-URI prefix,
// into an image.Image. Webcam captures arrive as jpeg, png, or webp.
func DecodeDataURI(data string) (image.Image, error) {
	if data == "" {
		return nil, fmt.Errorf("empty image data")
	}

	raw := data
	mime := ""
	if strings.HasPrefix(data, "data:") {
		parts := strings.SplitN(data, ",", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed data URI")
		}
		mime = parts[0]
		raw = parts[1]
	}

	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 image: %w", err)
	}

	if strings.Contains(mime, "image/webp") {
		img, err := webp.Decode(bytes.NewReader(decoded))
		if err != nil {
			return nil, fmt.Errorf("failed to decode webp image: %w", err)
		}
		return img, nil
	}

	img, err := imaging.Decode(bytes.NewReader(decoded))
	if err != nil {
		// The mime prefix lies sometimes; try webp before giving up.
		if wimg, werr := webp.Decode(bytes.NewReader(decoded)); werr == nil {
			return wimg, nil
		}
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	return img, nil
}

// NormalizePhoto validates and shrinks a captured visitor photo, returning a
// JPEG data URI bounded to photoMaxDimension on the long edge. Records store
// the normalized form so pass rendering never re-processes the original.
func NormalizePhoto(data string) (string, error) {
	img, err := DecodeDataURI(data)
	if err != nil {
		return "", err
	}

	fitted := imaging.Fit(img, photoMaxDimension, photoMaxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, fitted, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("failed to encode photo: %w", err)
	}

	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// DataURIToPNG re-encodes any supported data-URI image as raw PNG bytes, the
// one format every PDF embed path accepts.
func DataURIToPNG(data string) ([]byte, error) {
	img, err := DecodeDataURI(data)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode png: %w", err)
	}
	return buf.Bytes(), nil
}
