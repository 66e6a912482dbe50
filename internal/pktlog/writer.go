// Package pktlog maintains the rotating CSV audit log of received packets.
package pktlog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gre0071/lora-logger/internal/classify"
	"github.com/gre0071/lora-logger/internal/concentrator"
)

// header names every CSV column. It is written exactly once per file,
// immediately after creation, before any packet row. The LoRaWAN protocol
// columns after "payload" are reserved and never populated here; downstream
// tooling must not assume they carry values.
const header = `"gateway ID","node MAC","UTC timestamp","us count","frequency","RF chain","RX chain","status","size","modulation","bandwidth","datarate","coderate","RSSI","SNR","payload","messageType","AppEUI","DevEUI","DevNonce","MIC","DevAddr","AppNonce","NetID","DLSettings","RxDelay","CFList","PHYPayload","MHDR","MACPayload","FCtrl","FHDR","FCnt","FPort","FRMPayload","FOpts"` + "\n"

// reservedColumns is the count of reserved LoRaWAN protocol columns emitted
// empty at the end of every row.
const reservedColumns = 20

// Writer appends one CSV row per packet to the current log file and owns the
// file lifecycle: open at startup, close and reopen at each rotation
// boundary, close on shutdown. All mutation happens on the capture loop
// goroutine; the mutex only protects the snapshot methods used by the status
// endpoint.
type Writer struct {
	dir            string
	gatewayID      string
	rotateInterval int // seconds; negative means never rotate

	mu        sync.Mutex
	file      *os.File
	fileName  string
	startTime time.Time
	rows      uint64
}

// New creates a Writer placing log files in dir. rotateSeconds below zero
// disables rotation.
func New(dir, gatewayID string, rotateSeconds int) *Writer {
	return &Writer{
		dir:            dir,
		gatewayID:      gatewayID,
		rotateInterval: rotateSeconds,
	}
}

// Open creates (or append-opens) the log file for now and writes the header
// row. Failure here is fatal to the caller: an audit pipeline that silently
// drops its sink must not keep running.
func (w *Writer) Open(now time.Time) error {
	name := fmt.Sprintf("pktlog_%s_%s.csv", w.gatewayID, now.UTC().Format("20060102T150405")+"Z")
	path := filepath.Join(w.dir, name)

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("impossible to create log file %s: %w", path, err)
	}
	if _, err := file.WriteString(header); err != nil {
		file.Close()
		return fmt.Errorf("impossible to write to log file %s: %w", path, err)
	}

	w.mu.Lock()
	w.file = file
	w.fileName = path
	w.startTime = now
	w.rows = 0
	w.mu.Unlock()

	log.Info().Str("file", path).Msg("now writing to log file")
	return nil
}

// Append writes one packet row and flushes it to the file immediately;
// durability beats throughput on an audit trail.
func (w *Writer) Append(f classify.Frame, p concentrator.RxPacket, fetchTimestamp string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%q,", w.gatewayID)
	b.WriteString(`"",`) // node MAC: payload parsing not implemented upstream
	fmt.Fprintf(&b, "%q,", fetchTimestamp)
	fmt.Fprintf(&b, "%10d,", p.CountUS)
	fmt.Fprintf(&b, "%10d,", p.FreqHz)
	fmt.Fprintf(&b, "%d,", p.RFChain)
	fmt.Fprintf(&b, "%2d,", p.IFChain)
	fmt.Fprintf(&b, "%q,", f.Status)
	fmt.Fprintf(&b, "%d,", p.Size)
	fmt.Fprintf(&b, "%q,", f.Modulation)
	fmt.Fprintf(&b, "%d,", f.BandwidthHz)
	fmt.Fprintf(&b, "%d,", f.Datarate)
	fmt.Fprintf(&b, "%d,", f.CodeRate)
	fmt.Fprintf(&b, "%+.0f,", p.RSSI)
	fmt.Fprintf(&b, "%+5.1f,", p.SNR)

	// Hex payload, dash-separated every 4 bytes.
	b.WriteByte('"')
	for i := 0; i < int(p.Size); i++ {
		if i > 0 && i%4 == 0 {
			b.WriteByte('-')
		}
		fmt.Fprintf(&b, "%02X", p.Payload[i])
	}
	b.WriteByte('"')

	b.WriteString(strings.Repeat(",", reservedColumns))
	b.WriteByte('\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return fmt.Errorf("log file not open")
	}
	if _, err := w.file.WriteString(b.String()); err != nil {
		return fmt.Errorf("impossible to write to log file %s: %w", w.fileName, err)
	}
	w.rows++
	return nil
}

// MaybeRotate closes and reopens the log file when the rotation interval has
// elapsed. A negative interval never rotates, whatever the elapsed time. The
// caller rate-limits these calls, so rotation is accurate to roughly the
// loop's polling granularity, not to the second.
func (w *Writer) MaybeRotate(now time.Time) error {
	if w.rotateInterval < 0 {
		return nil
	}
	w.mu.Lock()
	elapsed := now.Sub(w.startTime)
	w.mu.Unlock()
	if elapsed <= time.Duration(w.rotateInterval)*time.Second {
		return nil
	}
	w.Close()
	return w.Open(now)
}

// Close closes the current file, reporting the number of rows it received.
func (w *Writer) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return
	}
	w.file.Close()
	log.Info().Str("file", w.fileName).Uint64("packets", w.rows).Msg("log file closed")
	w.file = nil
}

// FileName returns the path of the current log file.
func (w *Writer) FileName() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fileName
}

// Rows returns the number of packet rows written to the current file.
func (w *Writer) Rows() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}
