// Package telemetry encodes classified packets into the outbound structured
// record and publishes them on the message bus for downstream consumers.
package telemetry

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/gre0071/lora-logger/internal/classify"
	"github.com/gre0071/lora-logger/internal/concentrator"
)

// Record is the outbound record, one per received packet. PHYPayload is
// contiguous uppercase hex with no separators, unlike the dash-grouped form
// in the audit log.
type Record struct {
	Size       uint32  `json:"size"`
	SF         uint32  `json:"sf"`
	Bandwidth  uint32  `json:"bandwidth"`
	CodeRate   uint32  `json:"code_rate"`
	Timestamp  int64   `json:"timestamp"`
	PHYPayload string  `json:"phy_payload"`
	RSSI       float64 `json:"rssi"`
}

// Encode builds the outbound record for one packet. capturedAt is the loop's
// wall-clock read, at seconds resolution.
func Encode(f classify.Frame, p concentrator.RxPacket, capturedAt time.Time) Record {
	return Record{
		Size:       uint32(p.Size),
		SF:         f.Datarate,
		Bandwidth:  f.BandwidthHz,
		CodeRate:   f.CodeRate,
		Timestamp:  capturedAt.Unix(),
		PHYPayload: strings.ToUpper(hex.EncodeToString(p.Payload[:p.Size])),
		RSSI:       float64(p.RSSI),
	}
}

// Publisher hands records to NATS on the per-gateway uplink subject.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher creates a publisher for the given gateway identity string.
func NewPublisher(nc *nats.Conn, gatewayID string) *Publisher {
	return &Publisher{
		nc:      nc,
		subject: fmt.Sprintf("gateway.%s.rx", gatewayID),
	}
}

// Publish sends one record. Use Fatal to decide whether a returned error
// ends the capture loop or only skips this record.
func (p *Publisher) Publish(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", p.subject, err)
	}
	return nil
}

// Fatal reports whether a publish error is of the resource-exhaustion class
// that makes continuing pointless. Transient delivery errors are not fatal;
// the frame is skipped and the loop continues.
func Fatal(err error) bool {
	return errors.Is(err, nats.ErrConnectionClosed) ||
		errors.Is(err, nats.ErrInvalidConnection) ||
		errors.Is(err, nats.ErrReconnectBufExceeded) ||
		errors.Is(err, nats.ErrMaxPayload)
}
