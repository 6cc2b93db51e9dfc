package telemetry

import (
	"context"
	"fmt"
	"strconv"

	"github.com/calvinmclean/babyapi"
)

// HTTPPublisher posts samples to a babyapi server at addr/samples
type HTTPPublisher struct {
	client *babyapi.Client[*sample]
}

var _ Publisher = &HTTPPublisher{}

type sample struct {
	// include NilResource so we don't implement Render/Bind which are not needed
	*babyapi.NilResource
	Sample
}

func (s sample) GetID() string {
	return strconv.FormatUint(s.Cycle, 10)
}

// NewHTTPPublisher creates a client for the server at addr
func NewHTTPPublisher(addr string) *HTTPPublisher {
	client := babyapi.NewClient[*sample](addr, "/samples")
	return &HTTPPublisher{client: client}
}

// Publish creates the sample on the server
func (p *HTTPPublisher) Publish(ctx context.Context, s Sample) error {
	_, err := p.client.Post(ctx, &sample{Sample: s})
	if err != nil {
		return fmt.Errorf("error posting sample: %w", err)
	}
	return nil
}

func (p *HTTPPublisher) Close() error {
	return nil
}
