package gateway

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

const (
	qrisDataPrefix   = "KWALRAM-QRIS-"
	qrRenderEndpoint = "https://api.qrserver.com/v1/create-qr-code/?size=200x200&data="
)

// SimulatedQrisGenerator produces a scannable QRIS artifact without a
// payment gateway: the amount is encoded into a deterministic payload and
// rendered through a public QR service, after a fixed delay that stands
// in for the gateway round trip.
type SimulatedQrisGenerator struct {
	delay time.Duration
}

func NewSimulatedQrisGenerator(delay time.Duration) *SimulatedQrisGenerator {
	return &SimulatedQrisGenerator{delay: delay}
}

func (g *SimulatedQrisGenerator) Generate(ctx context.Context, amount int64) (string, error) {
	timer := time.NewTimer(g.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-timer.C:
	}

	data := fmt.Sprintf("%s%d", qrisDataPrefix, amount)
	return qrRenderEndpoint + url.QueryEscape(data), nil
}
