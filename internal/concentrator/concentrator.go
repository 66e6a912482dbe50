// Package concentrator defines the narrow contract to the LoRa concentrator
// front end: submit the board, RF chain and IF channel configurations, start
// the radio, fetch received packets in batches, stop.
package concentrator

// Physical layout of the concentrator board.
const (
	// RFChainCount is the number of physical radio chains.
	RFChainCount = 2
	// MultiSFCount is the number of multi-SF LoRa channels.
	MultiSFCount = 8
	// StdChannelIndex is the IF channel index of the LoRa standard channel.
	StdChannelIndex = 8
	// FSKChannelIndex is the IF channel index of the FSK channel.
	FSKChannelIndex = 9
	// ChannelCount is the total number of IF channels.
	ChannelCount = 10
	// MaxPayloadSize is the largest payload the hardware can deliver, in bytes.
	MaxPayloadSize = 256
)

// RadioType identifies the radio chip driving an RF chain.
type RadioType uint8

const (
	RadioTypeNone RadioType = iota
	RadioTypeSX1255
	RadioTypeSX1257
)

// Status is the CRC status reported for a received packet.
type Status uint8

const (
	StatUndefined Status = 0x00
	StatNoCRC     Status = 0x01
	StatCRCOK     Status = 0x10
	StatCRCBad    Status = 0x11
)

// Modulation identifies the demodulator that produced a packet.
type Modulation uint8

const (
	ModUndefined Modulation = 0x00
	ModLora      Modulation = 0x10
	ModFSK       Modulation = 0x20
)

// Bandwidth is the hardware bandwidth code.
type Bandwidth uint8

const (
	BWUndefined Bandwidth = 0x00
	BW500K      Bandwidth = 0x01
	BW250K      Bandwidth = 0x02
	BW125K      Bandwidth = 0x03
	BW62K5      Bandwidth = 0x04
	BW31K2      Bandwidth = 0x05
	BW15K6      Bandwidth = 0x06
	BW7K8       Bandwidth = 0x07
)

// Datarate carries either a LoRa spreading-factor code or, for FSK, the bit
// rate in bits per second.
type Datarate uint32

const (
	DRUndefined Datarate = 0x00
	DRLoraSF7   Datarate = 0x02
	DRLoraSF8   Datarate = 0x04
	DRLoraSF9   Datarate = 0x08
	DRLoraSF10  Datarate = 0x10
	DRLoraSF11  Datarate = 0x20
	DRLoraSF12  Datarate = 0x40
)

// CodeRate is the LoRa forward-error-correction code rate.
type CodeRate uint8

const (
	CRUndefined CodeRate = 0x00
	CRLora4_5   CodeRate = 0x01
	CRLora4_6   CodeRate = 0x02
	CRLora4_7   CodeRate = 0x03
	CRLora4_8   CodeRate = 0x04
)

// BoardConf is the board-level concentrator configuration.
type BoardConf struct {
	LorawanPublic bool
	ClkSrc        uint8
}

// RFConf configures one RF chain. A disabled chain must still be submitted
// zeroed so the front end does not retain state from a previous run.
type RFConf struct {
	Enable     bool
	FreqHz     uint32
	RSSIOffset float32
	Type       RadioType
	TxEnable   bool
}

// IFConf configures one IF channel. Bandwidth and Datarate are only
// meaningful for the standard LoRa and FSK channels.
type IFConf struct {
	Enable    bool
	RFChain   uint8
	FreqHz    int32
	Bandwidth Bandwidth
	Datarate  Datarate
}

// RxPacket is one received packet with its physical-layer metadata. It is
// read-only to the rest of the system.
type RxPacket struct {
	CountUS    uint32
	FreqHz     uint32
	RFChain    uint8
	IFChain    uint8
	Status     Status
	Size       uint16
	Modulation Modulation
	Bandwidth  Bandwidth
	Datarate   Datarate
	Coderate   CodeRate
	RSSI       float32
	SNR        float32
	Payload    []byte
}

// Concentrator is the front-end collaborator. Receive returns an empty slice
// when no packets are pending, which is a valid and common result; an error
// from Receive is unrecoverable.
type Concentrator interface {
	SetBoardConf(conf BoardConf) error
	SetRFConf(chain int, conf RFConf) error
	SetIFConf(channel int, conf IFConf) error
	Start() error
	Receive(max int) ([]RxPacket, error)
	Stop() error
}
