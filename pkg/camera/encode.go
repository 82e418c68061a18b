package camera

import (
	"bytes"
	"fmt"
	"time"

	"github.com/disintegration/imaging"
)

// Reduce decodes an image, downscales it to maxWidth (keeping aspect ratio) and
// re-encodes it as JPEG at quality. EXIF orientation is applied on decode.
func Reduce(data []byte, maxWidth, quality int) (Frame, error) {
	if len(data) == 0 {
		return Frame{}, ErrEmptyFrame
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return Frame{}, fmt.Errorf("decode frame: %w", err)
	}

	if maxWidth > 0 && img.Bounds().Dx() > maxWidth {
		img = imaging.Resize(img, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return Frame{}, fmt.Errorf("encode frame: %w", err)
	}

	b := img.Bounds()
	return Frame{
		JPEG:       buf.Bytes(),
		Width:      b.Dx(),
		Height:     b.Dy(),
		CapturedAt: time.Now(),
	}, nil
}
