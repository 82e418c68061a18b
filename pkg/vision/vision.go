// Package vision finds the most prominent object in a frame using Google Cloud
// Vision object localization.
//
// Example usage:
//
//	client, _ := vision.NewCloudClient(ctx,
//	    vision.WithAPIKey(os.Getenv("GOOGLE_VISION_API_KEY")),
//	)
//	det, _ := client.Detect(ctx, frame)
//	if det == nil {
//	    // nothing detected
//	}
package vision

import (
	"context"

	"github.com/teslashibe/naveye-assist/pkg/camera"
	"github.com/teslashibe/naveye-assist/pkg/position"
)

// Detection is the top-ranked object found in a frame.
type Detection struct {
	Name  string           `json:"name"`
	Score float64          `json:"score"`
	Box   position.Polygon `json:"box"`
}

// Detector finds at most one object per frame.
type Detector interface {
	// Detect returns the top-ranked object, or nil (and no error) when the
	// service found nothing or answered with something unusable.
	Detect(ctx context.Context, frame camera.Frame) (*Detection, error)
}
