// Package inference adapts a remote vision model service to the
// classifier contract. The service receives one JPEG frame per call and
// answers with the structured per-frame signals.
package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/guvenlisinav/proctor/internal/core/detect"
)

type Config struct {
	URL string
}

type Client struct {
	cfg Config
	cli *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg: cfg,
		cli: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        30,
				MaxIdleConnsPerHost: 30,
				MaxConnsPerHost:     100,
			},
		},
	}
}

// classifyResponse wire format of the model service
type classifyResponse struct {
	FacePresent  bool             `json:"face_present"`
	FaceCount    int              `json:"face_count"`
	LeftEye      detect.EyeSample `json:"left_eye"`
	RightEye     detect.EyeSample `json:"right_eye"`
	Objects      []detect.Object  `json:"objects"`
	MouthMoving  bool             `json:"mouth_moving"`
	RecognizedID string           `json:"recognized_id"`
	HasFace      bool             `json:"has_face_result"`
	HasGaze      bool             `json:"has_gaze_result"`
	HasObjects   bool             `json:"has_object_result"`
}

// Classify posts the frame to the model service. Transport errors
// propagate; the pool layer converts them into unavailable samples.
func (c *Client) Classify(ctx context.Context, frame detect.Frame) (detect.Sample, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL+"/classify", bytes.NewReader(frame.Data))
	if err != nil {
		return detect.Unavailable(frame.Timestamp), err
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := c.cli.Do(req)
	if err != nil {
		return detect.Unavailable(frame.Timestamp), err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return detect.Unavailable(frame.Timestamp), fmt.Errorf("inference status %d", resp.StatusCode)
	}

	var out classifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return detect.Unavailable(frame.Timestamp), err
	}
	return detect.Sample{
		FacePresent:   out.FacePresent,
		FaceCount:     out.FaceCount,
		LeftEye:       out.LeftEye,
		RightEye:      out.RightEye,
		Objects:       out.Objects,
		MouthMoving:   out.MouthMoving,
		RecognizedID:  out.RecognizedID,
		FaceAvailable: out.HasFace,
		GazeAvailable: out.HasGaze,
		ObjsAvailable: out.HasObjects,
		Timestamp:     frame.Timestamp,
	}, nil
}

// Disabled is used when no inference service is configured: every frame
// comes back unavailable and server-side detection stays quiet.
type Disabled struct{}

func (Disabled) Classify(_ context.Context, frame detect.Frame) (detect.Sample, error) {
	return detect.Unavailable(frame.Timestamp), nil
}
