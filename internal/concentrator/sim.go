package concentrator

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Open returns the concentrator driver named by the configuration. The "sim"
// driver emits synthetic traffic and is the only driver built into this
// binary; the HAL-backed driver lives in a separate hardware module.
func Open(driver string) (Concentrator, error) {
	switch driver {
	case "sim":
		return NewSim(), nil
	default:
		return nil, fmt.Errorf("unknown concentrator driver %q", driver)
	}
}

// Sim is a software stand-in for the concentrator. It accepts any
// configuration and produces a synthetic LoRa packet at a fixed cadence once
// started. Packets can also be queued explicitly, which tests rely on.
type Sim struct {
	mu      sync.Mutex
	started bool
	queue   []RxPacket
	last    time.Time
	seq     uint32
}

const simPacketInterval = 200 * time.Millisecond

var simFrequencies = []uint32{868100000, 868300000, 868500000}

var simDatarates = []Datarate{DRLoraSF7, DRLoraSF8, DRLoraSF9, DRLoraSF10, DRLoraSF11, DRLoraSF12}

// NewSim creates a simulated concentrator.
func NewSim() *Sim {
	return &Sim{}
}

func (s *Sim) SetBoardConf(conf BoardConf) error {
	log.Debug().Bool("lorawan_public", conf.LorawanPublic).Uint8("clksrc", conf.ClkSrc).Msg("sim: board configured")
	return nil
}

func (s *Sim) SetRFConf(chain int, conf RFConf) error {
	if chain < 0 || chain >= RFChainCount {
		return fmt.Errorf("rf chain %d out of range", chain)
	}
	return nil
}

func (s *Sim) SetIFConf(channel int, conf IFConf) error {
	if channel < 0 || channel >= ChannelCount {
		return fmt.Errorf("if channel %d out of range", channel)
	}
	return nil
}

func (s *Sim) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	s.last = time.Now()
	return nil
}

func (s *Sim) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = false
	return nil
}

// Enqueue appends packets to be returned by the next Receive calls.
func (s *Sim) Enqueue(pkts ...RxPacket) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = append(s.queue, pkts...)
}

// Receive returns queued packets first, then synthetic traffic at the
// simulated cadence. It never blocks.
func (s *Sim) Receive(max int) ([]RxPacket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return nil, fmt.Errorf("concentrator not started")
	}

	if len(s.queue) > 0 {
		n := max
		if n > len(s.queue) {
			n = len(s.queue)
		}
		out := make([]RxPacket, n)
		copy(out, s.queue[:n])
		s.queue = s.queue[n:]
		return out, nil
	}

	if time.Since(s.last) < simPacketInterval {
		return nil, nil
	}
	s.last = time.Now()
	return []RxPacket{s.synthetic()}, nil
}

func (s *Sim) synthetic() RxPacket {
	s.seq++
	payload := make([]byte, 8+rand.Intn(24))
	rand.Read(payload)
	return RxPacket{
		CountUS:    s.seq * uint32(simPacketInterval.Microseconds()),
		FreqHz:     simFrequencies[int(s.seq)%len(simFrequencies)],
		RFChain:    uint8(s.seq % RFChainCount),
		IFChain:    uint8(s.seq % MultiSFCount),
		Status:     StatCRCOK,
		Size:       uint16(len(payload)),
		Modulation: ModLora,
		Bandwidth:  BW125K,
		Datarate:   simDatarates[int(s.seq)%len(simDatarates)],
		Coderate:   CRLora4_5,
		RSSI:       -30 - rand.Float32()*80,
		SNR:        -10 + rand.Float32()*20,
		Payload:    payload,
	}
}
