package decode

import (
	"image"
	_ "image/jpeg" // register the JPEG decoder
	_ "image/png"  // register the PNG decoder
	"io"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"

	"scouthub/internal/domain"
)

// CapabilityQRImage names the image decoding capability in UnavailableError.
const CapabilityQRImage = "qr-image"

// Decoder decodes scanned payloads. Image decoding is resolved once at startup.
type Decoder struct {
	qrEnabled bool
}

// NewDecoder creates a Decoder. With qrEnabled false, DecodeImage reports the
// capability as unavailable.
func NewDecoder(qrEnabled bool) *Decoder {
	return &Decoder{qrEnabled: qrEnabled}
}

// QREnabled reports whether images can be decoded.
func (d *Decoder) QREnabled() bool { return d.qrEnabled }

// DecodeText decodes a textual payload.
func (d *Decoder) DecodeText(text string) (map[string]any, error) {
	return DecodePayload(text)
}

// DecodeImage reads a PNG or JPEG image, finds a QR code in it, and decodes the
// code's text as a payload.
func (d *Decoder) DecodeImage(r io.Reader) (map[string]any, error) {
	if !d.qrEnabled {
		return nil, &domain.UnavailableError{Capability: CapabilityQRImage}
	}
	img, _, err := image.Decode(io.LimitReader(r, 16<<20))
	if err != nil {
		return nil, domain.ErrValidation("unreadable image: %v", err)
	}
	text, err := readQR(img)
	if err != nil {
		return nil, err
	}
	return DecodePayload(text)
}

func readQR(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", domain.ErrValidation("unusable image: %v", err)
	}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return "", domain.ErrValidation("no readable QR code in image: %v", err)
	}
	return result.GetText(), nil
}
