// Package classify maps the raw hardware enumerations of a received packet
// into the closed human-readable vocabulary used by the audit log and the
// telemetry record.
package classify

import (
	"math"

	"github.com/gre0071/lora-logger/internal/concentrator"
)

// Unknown marks a numeric field whose hardware enum was not in the known
// set. It is a valid, meaningful value for downstream consumers, not a
// failure.
const Unknown = uint32(math.MaxUint32)

// Status labels.
const (
	StatusCRCOK     = "CRC_OK"
	StatusCRCBad    = "CRC_BAD"
	StatusNoCRC     = "NO_CRC"
	StatusUndefined = "UNDEF"
	StatusError     = "ERR"
)

// Modulation labels.
const (
	ModulationLora  = "LORA"
	ModulationFSK   = "FSK"
	ModulationError = "ERR"
)

// Frame is the classified view of one received packet.
type Frame struct {
	Status     string
	Modulation string
	// BandwidthHz is the bandwidth in Hz; 0 when the hardware reported it
	// undefined, Unknown when the enum was unrecognized.
	BandwidthHz uint32
	// Datarate is the LoRa spreading factor, or the bit rate for FSK.
	Datarate uint32
	// CodeRate is the denominator of the 4/x code rate; 0 when undefined.
	CodeRate uint32
}

// Classify is a pure, total function: every unrecognized hardware value maps
// to a sentinel, never to an error.
func Classify(p concentrator.RxPacket) Frame {
	return Frame{
		Status:      status(p.Status),
		Modulation:  modulation(p.Modulation),
		BandwidthHz: bandwidthHz(p.Bandwidth),
		Datarate:    datarate(p.Modulation, p.Datarate),
		CodeRate:    codeRate(p.Coderate),
	}
}

func status(s concentrator.Status) string {
	switch s {
	case concentrator.StatCRCOK:
		return StatusCRCOK
	case concentrator.StatCRCBad:
		return StatusCRCBad
	case concentrator.StatNoCRC:
		return StatusNoCRC
	case concentrator.StatUndefined:
		return StatusUndefined
	default:
		return StatusError
	}
}

func modulation(m concentrator.Modulation) string {
	switch m {
	case concentrator.ModLora:
		return ModulationLora
	case concentrator.ModFSK:
		return ModulationFSK
	default:
		return ModulationError
	}
}

func bandwidthHz(bw concentrator.Bandwidth) uint32 {
	switch bw {
	case concentrator.BW500K:
		return 500000
	case concentrator.BW250K:
		return 250000
	case concentrator.BW125K:
		return 125000
	case concentrator.BW62K5:
		return 62500
	case concentrator.BW31K2:
		return 31200
	case concentrator.BW15K6:
		return 15600
	case concentrator.BW7K8:
		return 7800
	case concentrator.BWUndefined:
		return 0
	default:
		return Unknown
	}
}

func datarate(m concentrator.Modulation, dr concentrator.Datarate) uint32 {
	switch m {
	case concentrator.ModLora:
		switch dr {
		case concentrator.DRLoraSF7:
			return 7
		case concentrator.DRLoraSF8:
			return 8
		case concentrator.DRLoraSF9:
			return 9
		case concentrator.DRLoraSF10:
			return 10
		case concentrator.DRLoraSF11:
			return 11
		case concentrator.DRLoraSF12:
			return 12
		default:
			return Unknown
		}
	case concentrator.ModFSK:
		// FSK reports the bit rate directly.
		return uint32(dr)
	default:
		return Unknown
	}
}

func codeRate(cr concentrator.CodeRate) uint32 {
	switch cr {
	case concentrator.CRLora4_5:
		return 5
	case concentrator.CRLora4_6:
		return 6
	case concentrator.CRLora4_7:
		return 7
	case concentrator.CRLora4_8:
		return 8
	case concentrator.CRUndefined:
		return 0
	default:
		return Unknown
	}
}
