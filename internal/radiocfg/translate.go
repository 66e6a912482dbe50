package radiocfg

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/gre0071/lora-logger/internal/concentrator"
)

// GatewayID is the 64-bit gateway identity. Zero is a legal, if degenerate,
// value used when the configuration does not carry an identity.
type GatewayID uint64

// String renders the identity as 16 uppercase hex digits, both halves
// zero-padded. This rendering is embedded in log file names and CSV rows.
func (id GatewayID) String() string {
	return fmt.Sprintf("%08X%08X", uint32(id>>32), uint32(id))
}

// Diagnostic records one field that was defaulted or rejected during
// translation, so the forgiving fallback policy stays observable instead of
// being swallowed by control flow.
type Diagnostic struct {
	Path   string
	Reason string
}

func (d Diagnostic) String() string {
	return d.Path + ": " + d.Reason
}

// Result is the outcome of one translation pass: everything the front end
// needs, fully populated. Chains and channels for absent or disabled sections
// are present as zeroed structures so submission clears any stale state.
type Result struct {
	Board    concentrator.BoardConf
	Chains   [concentrator.RFChainCount]concentrator.RFConf
	Channels [concentrator.ChannelCount]concentrator.IFConf
	Gateway  GatewayID
	Diags    []Diagnostic
}

func (r *Result) defaulted(path, reason string) {
	r.Diags = append(r.Diags, Diagnostic{Path: path, Reason: reason})
}

// Translate walks the configuration document and produces the hardware
// configuration. It never fails: a missing section or a value of the wrong
// kind degrades to a documented default and is recorded as a diagnostic.
// Only an unparseable document is fatal, and that is caught at load time.
func Translate(doc *Document) *Result {
	r := &Result{}
	r.translateBoard(doc)
	r.translateChains(doc)
	r.translateMultiSF(doc)
	r.translateStdChannel(doc)
	r.translateFSKChannel(doc)
	r.translateGateway(doc)
	return r
}

const sx1301Section = "SX1301_conf"

func (r *Result) translateBoard(doc *Document) {
	if !doc.IsObject(sx1301Section) {
		r.defaulted(sx1301Section, "section missing, board left at defaults")
		return
	}

	v, ok := doc.Bool(sx1301Section + ".lorawan_public")
	if !ok {
		r.defaulted(sx1301Section+".lorawan_public", "data type seems wrong, defaulting to false")
	}
	r.Board.LorawanPublic = v

	n, ok := doc.Number(sx1301Section + ".clksrc")
	if !ok {
		r.defaulted(sx1301Section+".clksrc", "data type seems wrong, defaulting to 0")
	}
	r.Board.ClkSrc = uint8(n)
}

func (r *Result) translateChains(doc *Document) {
	for i := 0; i < concentrator.RFChainCount; i++ {
		prefix := fmt.Sprintf("%s.radio_%d", sx1301Section, i)
		if !doc.IsObject(prefix) {
			r.defaulted(prefix, "no configuration, radio disabled")
			continue
		}

		conf := &r.Chains[i]
		conf.Enable, _ = doc.Bool(prefix + ".enable")
		if !conf.Enable {
			// Radio disabled, nothing else to parse.
			continue
		}

		freq, _ := doc.Number(prefix + ".freq")
		conf.FreqHz = uint32(freq)
		offset, _ := doc.Number(prefix + ".rssi_offset")
		conf.RSSIOffset = float32(offset)

		typ, _ := doc.String(prefix + ".type")
		switch {
		case strings.HasPrefix(typ, "SX1255"):
			conf.Type = concentrator.RadioTypeSX1255
		case strings.HasPrefix(typ, "SX1257"):
			conf.Type = concentrator.RadioTypeSX1257
		default:
			r.defaulted(prefix+".type", fmt.Sprintf("invalid radio type %q (should be SX1255 or SX1257)", typ))
		}

		conf.TxEnable, _ = doc.Bool(prefix + ".tx_enable")
	}
}

func (r *Result) translateMultiSF(doc *Document) {
	for i := 0; i < concentrator.MultiSFCount; i++ {
		prefix := fmt.Sprintf("%s.chan_multiSF_%d", sx1301Section, i)
		if !doc.IsObject(prefix) {
			r.defaulted(prefix, "no configuration, channel disabled")
			continue
		}

		conf := &r.Channels[i]
		conf.Enable, _ = doc.Bool(prefix + ".enable")
		if !conf.Enable {
			continue
		}

		chain, _ := doc.Number(prefix + ".radio")
		conf.RFChain = uint8(chain)
		ifHz, _ := doc.Number(prefix + ".if")
		conf.FreqHz = int32(ifHz)
	}
}

func (r *Result) translateStdChannel(doc *Document) {
	const prefix = sx1301Section + ".chan_Lora_std"
	if !doc.IsObject(prefix) {
		r.defaulted(prefix, "no configuration, channel disabled")
		return
	}

	conf := &r.Channels[concentrator.StdChannelIndex]
	conf.Enable, _ = doc.Bool(prefix + ".enable")
	if !conf.Enable {
		return
	}

	chain, _ := doc.Number(prefix + ".radio")
	conf.RFChain = uint8(chain)
	ifHz, _ := doc.Number(prefix + ".if")
	conf.FreqHz = int32(ifHz)

	bw, _ := doc.Number(prefix + ".bandwidth")
	conf.Bandwidth = stdBandwidth(bw)
	if conf.Bandwidth == concentrator.BWUndefined {
		r.defaulted(prefix+".bandwidth", fmt.Sprintf("unrecognized bandwidth %.0f Hz", bw))
	}

	sf, _ := doc.Number(prefix + ".spread_factor")
	conf.Datarate = loraSpreadFactor(sf)
	if conf.Datarate == concentrator.DRUndefined {
		r.defaulted(prefix+".spread_factor", fmt.Sprintf("unrecognized spreading factor %.0f", sf))
	}
}

func (r *Result) translateFSKChannel(doc *Document) {
	const prefix = sx1301Section + ".chan_FSK"
	if !doc.IsObject(prefix) {
		r.defaulted(prefix, "no configuration, channel disabled")
		return
	}

	conf := &r.Channels[concentrator.FSKChannelIndex]
	conf.Enable, _ = doc.Bool(prefix + ".enable")
	if !conf.Enable {
		return
	}

	chain, _ := doc.Number(prefix + ".radio")
	conf.RFChain = uint8(chain)
	ifHz, _ := doc.Number(prefix + ".if")
	conf.FreqHz = int32(ifHz)

	bw, _ := doc.Number(prefix + ".bandwidth")
	conf.Bandwidth = fskBandwidth(bw)
	if conf.Bandwidth == concentrator.BWUndefined {
		r.defaulted(prefix+".bandwidth", fmt.Sprintf("unrecognized bandwidth %.0f Hz", bw))
	}

	rate, _ := doc.Number(prefix + ".datarate")
	conf.Datarate = concentrator.Datarate(rate)
}

func (r *Result) translateGateway(doc *Document) {
	const section = "gateway_conf"
	if !doc.IsObject(section) {
		r.defaulted(section, "section missing, gateway ID left at zero")
		return
	}

	str, ok := doc.String(section + ".gateway_ID")
	if !ok {
		r.defaulted(section+".gateway_ID", "missing, gateway ID left at zero")
		return
	}
	id, err := strconv.ParseUint(str, 16, 64)
	if err != nil {
		r.defaulted(section+".gateway_ID", fmt.Sprintf("not a hex value: %q", str))
		return
	}
	r.Gateway = GatewayID(id)
}

// stdBandwidth maps a standard-channel bandwidth in Hz through the exact
// value table. No interpolation, no rounding.
func stdBandwidth(hz float64) concentrator.Bandwidth {
	switch hz {
	case 500000:
		return concentrator.BW500K
	case 250000:
		return concentrator.BW250K
	case 125000:
		return concentrator.BW125K
	default:
		return concentrator.BWUndefined
	}
}

// loraSpreadFactor maps a spreading-factor integer through the exact value
// table.
func loraSpreadFactor(sf float64) concentrator.Datarate {
	switch sf {
	case 7:
		return concentrator.DRLoraSF7
	case 8:
		return concentrator.DRLoraSF8
	case 9:
		return concentrator.DRLoraSF9
	case 10:
		return concentrator.DRLoraSF10
	case 11:
		return concentrator.DRLoraSF11
	case 12:
		return concentrator.DRLoraSF12
	default:
		return concentrator.DRUndefined
	}
}

// fskBandwidth maps an FSK bandwidth in Hz through the ordered threshold
// table. Negative or out-of-range values are Undefined.
func fskBandwidth(hz float64) concentrator.Bandwidth {
	if hz < 0 {
		return concentrator.BWUndefined
	}
	bw := uint32(hz)
	switch {
	case bw <= 7800:
		return concentrator.BW7K8
	case bw <= 15600:
		return concentrator.BW15K6
	case bw <= 31200:
		return concentrator.BW31K2
	case bw <= 62500:
		return concentrator.BW62K5
	case bw <= 125000:
		return concentrator.BW125K
	case bw <= 250000:
		return concentrator.BW250K
	case bw <= 500000:
		return concentrator.BW500K
	default:
		return concentrator.BWUndefined
	}
}

// Apply submits the translated configuration to the front end. Individual
// submission failures are warnings: the front end validates again on Start,
// which is the fatal gate.
func Apply(c concentrator.Concentrator, r *Result) {
	if err := c.SetBoardConf(r.Board); err != nil {
		log.Warn().Err(err).Msg("failed to configure board")
	}
	for i, chain := range r.Chains {
		if err := c.SetRFConf(i, chain); err != nil {
			log.Warn().Err(err).Int("chain", i).Msg("invalid configuration for radio")
		}
	}
	for i, ch := range r.Channels {
		if err := c.SetIFConf(i, ch); err != nil {
			log.Warn().Err(err).Int("channel", i).Msg("invalid configuration for channel")
		}
	}
}
