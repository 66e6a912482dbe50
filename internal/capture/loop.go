// Package capture drives the receive loop: poll the concentrator for packet
// batches, classify each packet, append it to the audit log, encode it and
// hand it to the output sink.
package capture

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gre0071/lora-logger/internal/classify"
	"github.com/gre0071/lora-logger/internal/concentrator"
	"github.com/gre0071/lora-logger/internal/pktlog"
	"github.com/gre0071/lora-logger/internal/telemetry"
)

const (
	// batchSize bounds one Receive call.
	batchSize = 16
	// idleSleep is how long the loop suspends when no packets arrived.
	idleSleep = 3 * time.Millisecond
	// rotateCheckEvery limits rotation checks to every Nth iteration,
	// trading boundary precision for fewer clock reads.
	rotateCheckEvery = 8

	fetchTimeLayout = "2006-01-02 15:04:05.000"
)

// Sink receives one encoded record per packet.
type Sink interface {
	Publish(rec telemetry.Record) error
}

// Stats is a read-only snapshot of the loop for the status endpoint.
type Stats struct {
	SessionID string    `json:"session_id"`
	GatewayID string    `json:"gateway_id"`
	Started   time.Time `json:"started"`
	LogFile   string    `json:"log_file"`
	LogRows   uint64    `json:"log_rows"`
	Received  uint64    `json:"received"`
	Published uint64    `json:"published"`
	Rejected  uint64    `json:"rejected"`
}

// Loop owns one capture session. All packet processing happens on the single
// goroutine running Run; the only cross-goroutine state is the quit flag and
// the stats counters.
type Loop struct {
	conc      concentrator.Concentrator
	logw      *pktlog.Writer
	sink      Sink
	gatewayID string
	sessionID uuid.UUID

	started   time.Time
	quit      atomic.Bool
	received  atomic.Uint64
	published atomic.Uint64
	rejected  atomic.Uint64
}

// New creates a capture loop over an already configured front end and an
// already opened audit log.
func New(conc concentrator.Concentrator, logw *pktlog.Writer, sink Sink, gatewayID string) *Loop {
	return &Loop{
		conc:      conc,
		logw:      logw,
		sink:      sink,
		gatewayID: gatewayID,
		sessionID: uuid.New(),
		started:   time.Now(),
	}
}

// Quit requests an immediate stop: the loop flushes and closes the audit log
// but makes no further hardware calls. Safe to call from a signal handler
// goroutine.
func (l *Loop) Quit() {
	l.quit.Store(true)
}

// Run executes the capture loop until ctx is cancelled (graceful stop: close
// the log, stop the front end), Quit is called, or an unrecoverable error
// occurs. A front-end receive error is returned to the caller, which must
// terminate the process: the radio is a singleton resource and a clean
// restart beats undiagnosed retries.
func (l *Loop) Run(ctx context.Context) error {
	log.Info().
		Str("session", l.sessionID.String()).
		Str("gateway", l.gatewayID).
		Msg("capture loop started")

	checks := 0
	for {
		if l.quit.Load() {
			log.Info().Msg("immediate stop requested, leaving hardware untouched")
			l.logw.Close()
			return nil
		}
		select {
		case <-ctx.Done():
			l.shutdown()
			return nil
		default:
		}

		pkts, err := l.conc.Receive(batchSize)
		if err != nil {
			return fmt.Errorf("failed packet fetch: %w", err)
		}

		if len(pkts) == 0 {
			time.Sleep(idleSleep)
		} else {
			// One wall-clock timestamp per batch; accurate hardware
			// time is unavailable at this design point.
			now := time.Now().UTC()
			fetchTimestamp := now.Format(fetchTimeLayout) + "Z"

			for i := range pkts {
				if err := l.process(&pkts[i], fetchTimestamp, now); err != nil {
					return err
				}
			}
			l.received.Add(uint64(len(pkts)))
		}

		checks++
		if checks >= rotateCheckEvery {
			checks = 0
			if err := l.logw.MaybeRotate(time.Now()); err != nil {
				return fmt.Errorf("log rotation: %w", err)
			}
		}
	}
}

func (l *Loop) process(p *concentrator.RxPacket, fetchTimestamp string, capturedAt time.Time) error {
	if int(p.Size) > concentrator.MaxPayloadSize || int(p.Size) > len(p.Payload) {
		log.Error().
			Uint16("size", p.Size).
			Int("max", concentrator.MaxPayloadSize).
			Msg("declared payload size exceeds maximum, frame rejected")
		l.rejected.Add(1)
		return nil
	}

	frame := classify.Classify(*p)

	if err := l.logw.Append(frame, *p, fetchTimestamp); err != nil {
		return fmt.Errorf("audit log append: %w", err)
	}

	rec := telemetry.Encode(frame, *p, capturedAt)
	if err := l.sink.Publish(rec); err != nil {
		if telemetry.Fatal(err) {
			return fmt.Errorf("telemetry sink: %w", err)
		}
		log.Warn().Err(err).Msg("telemetry publish failed, record skipped")
		return nil
	}
	l.published.Add(1)
	return nil
}

func (l *Loop) shutdown() {
	log.Info().Msg("graceful stop requested")
	l.logw.Close()
	if err := l.conc.Stop(); err != nil {
		log.Warn().Err(err).Msg("failed to stop concentrator")
	}
}

// Stats snapshots the loop counters.
func (l *Loop) Stats() Stats {
	return Stats{
		SessionID: l.sessionID.String(),
		GatewayID: l.gatewayID,
		Started:   l.started,
		LogFile:   l.logw.FileName(),
		LogRows:   l.logw.Rows(),
		Received:  l.received.Load(),
		Published: l.published.Load(),
		Rejected:  l.rejected.Load(),
	}
}
