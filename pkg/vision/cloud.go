package vision

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	visionapi "google.golang.org/api/vision/v1"

	"github.com/teslashibe/naveye-assist/internal/httpc"
	"github.com/teslashibe/naveye-assist/pkg/camera"
	"github.com/teslashibe/naveye-assist/pkg/position"
)

// CloudClient implements Detector with the Cloud Vision images:annotate call.
type CloudClient struct {
	config  *Config
	service *visionapi.Service
	logger  *slog.Logger
}

// NewCloudClient creates a client. Credentials come from the API key when set,
// otherwise from Application Default Credentials.
func NewCloudClient(ctx context.Context, opts ...Option) (*CloudClient, error) {
	cfg := DefaultConfig()
	cfg.Apply(opts...)
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 1
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	clientOpts, err := clientOptions(ctx, cfg)
	if err != nil {
		return nil, err
	}

	svc, err := visionapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("vision: create service: %w", err)
	}

	return &CloudClient{
		config:  cfg,
		service: svc,
		logger:  cfg.Logger.With("component", "vision"),
	}, nil
}

func clientOptions(ctx context.Context, cfg *Config) ([]option.ClientOption, error) {
	var opts []option.ClientOption
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}

	switch {
	case cfg.HTTPClient != nil:
		opts = append(opts, option.WithHTTPClient(cfg.HTTPClient))
	case cfg.APIKey != "":
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	default:
		ts, err := google.DefaultTokenSource(ctx, visionapi.CloudVisionScope)
		if err != nil {
			return nil, fmt.Errorf("vision: no API key and no default credentials: %w", err)
		}
		base := context.WithValue(ctx, oauth2.HTTPClient, httpc.NewClient(cfg.Timeout))
		opts = append(opts, option.WithHTTPClient(oauth2.NewClient(base, ts)))
	}
	return opts, nil
}

// Detect sends the frame for object localization and returns the top-ranked object.
func (c *CloudClient) Detect(ctx context.Context, frame camera.Frame) (*Detection, error) {
	if frame.Empty() {
		return nil, ErrEmptyFrame
	}

	start := time.Now()
	req := &visionapi.BatchAnnotateImagesRequest{
		Requests: []*visionapi.AnnotateImageRequest{{
			Image: &visionapi.Image{
				Content: base64.StdEncoding.EncodeToString(frame.JPEG),
			},
			Features: []*visionapi.Feature{{
				Type:       FeatureObjectLocalization,
				MaxResults: c.config.MaxResults,
			}},
		}},
	}

	resp, err := c.annotateWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}

	det, err := topDetection(resp)
	if err != nil {
		return nil, err
	}

	if det == nil {
		c.logger.Debug("no objects detected", "latency_ms", time.Since(start).Milliseconds())
	} else {
		c.logger.Debug("object detected",
			"name", det.Name,
			"score", det.Score,
			"bytes", len(frame.JPEG),
			"latency_ms", time.Since(start).Milliseconds(),
		)
	}
	return det, nil
}

// annotateWithRetry performs the request, retrying rate-limit and server
// errors up to MaxRetries times.
func (c *CloudClient) annotateWithRetry(ctx context.Context, req *visionapi.BatchAnnotateImagesRequest) (*visionapi.BatchAnnotateImagesResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryDelay * time.Duration(attempt)):
			}
		}

		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if c.config.Timeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		}
		resp, err := c.service.Images.Annotate(req).Context(callCtx).Do()
		cancel()
		if err == nil {
			return resp, nil
		}

		lastErr = wrapCallError(err)
		var apiErr *APIError
		if !errors.As(lastErr, &apiErr) || !apiErr.IsRetryable() {
			return nil, lastErr
		}
		c.logger.Warn("retrying request", "attempt", attempt+1, "status", apiErr.StatusCode)
	}

	return nil, lastErr
}

func wrapCallError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return &APIError{StatusCode: gerr.Code, Message: gerr.Message}
	}
	return fmt.Errorf("vision: request failed: %w", err)
}

// topDetection picks the first annotation of the first response. Missing
// responses, annotations without a polygon and unnamed objects count as nothing found.
func topDetection(resp *visionapi.BatchAnnotateImagesResponse) (*Detection, error) {
	if resp == nil || len(resp.Responses) == 0 || resp.Responses[0] == nil {
		return nil, nil
	}

	r := resp.Responses[0]
	if r.Error != nil && r.Error.Code != 0 {
		return nil, &APIError{StatusCode: int(r.Error.Code), Message: r.Error.Message}
	}
	if len(r.LocalizedObjectAnnotations) == 0 {
		return nil, nil
	}

	top := r.LocalizedObjectAnnotations[0]
	if top == nil || top.Name == "" || top.BoundingPoly == nil || len(top.BoundingPoly.NormalizedVertices) == 0 {
		return nil, nil
	}

	box := make(position.Polygon, 0, len(top.BoundingPoly.NormalizedVertices))
	for _, v := range top.BoundingPoly.NormalizedVertices {
		if v == nil {
			return nil, nil
		}
		box = append(box, position.Vertex{X: v.X, Y: v.Y})
	}

	return &Detection{Name: top.Name, Score: top.Score, Box: box}, nil
}

var _ Detector = (*CloudClient)(nil)
