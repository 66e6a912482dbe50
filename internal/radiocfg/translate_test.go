package radiocfg

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gre0071/lora-logger/internal/concentrator"
)

func mustDoc(t *testing.T, raw string) *Document {
	t.Helper()
	doc, err := ParseDocument([]byte(raw))
	require.NoError(t, err)
	return doc
}

func TestTranslateEndToEnd(t *testing.T) {
	doc := mustDoc(t, `{
		"SX1301_conf": {
			"lorawan_public": true,
			"clksrc": 1,
			"chan_Lora_std": {"enable": true, "radio": 0, "if": 0, "bandwidth": 125000, "spread_factor": 9}
		},
		"gateway_conf": {"gateway_ID": "00000000AABBCCDD"}
	}`)

	r := Translate(doc)
	require.True(t, r.Board.LorawanPublic)
	require.Equal(t, uint8(1), r.Board.ClkSrc)

	std := r.Channels[concentrator.StdChannelIndex]
	require.True(t, std.Enable)
	require.Equal(t, concentrator.BW125K, std.Bandwidth)
	require.Equal(t, concentrator.DRLoraSF9, std.Datarate)

	require.Equal(t, "00000000AABBCCDD", r.Gateway.String())
}

func TestTranslateEmptyDocument(t *testing.T) {
	r := Translate(mustDoc(t, `{}`))

	require.Equal(t, concentrator.BoardConf{}, r.Board)
	for _, chain := range r.Chains {
		require.Equal(t, concentrator.RFConf{}, chain)
	}
	for _, ch := range r.Channels {
		require.Equal(t, concentrator.IFConf{}, ch)
	}
	require.Equal(t, GatewayID(0), r.Gateway)
	require.NotEmpty(t, r.Diags)
}

func TestTranslateWrongTypeDegrades(t *testing.T) {
	doc := mustDoc(t, `{"SX1301_conf": {"lorawan_public": "yes", "clksrc": true}}`)
	r := Translate(doc)

	require.False(t, r.Board.LorawanPublic)
	require.Equal(t, uint8(0), r.Board.ClkSrc)

	var paths []string
	for _, d := range r.Diags {
		paths = append(paths, d.Path)
	}
	require.Contains(t, paths, "SX1301_conf.lorawan_public")
	require.Contains(t, paths, "SX1301_conf.clksrc")
}

func TestTranslateRadioChains(t *testing.T) {
	doc := mustDoc(t, `{"SX1301_conf": {
		"radio_0": {"enable": true, "freq": 867500000, "rssi_offset": -166.0, "type": "SX1257", "tx_enable": true},
		"radio_1": {"enable": false, "freq": 868500000}
	}}`)
	r := Translate(doc)

	require.Equal(t, concentrator.RFConf{
		Enable:     true,
		FreqHz:     867500000,
		RSSIOffset: -166.0,
		Type:       concentrator.RadioTypeSX1257,
		TxEnable:   true,
	}, r.Chains[0])

	// Disabled radio short-circuits: remaining fields are not read.
	require.Equal(t, concentrator.RFConf{}, r.Chains[1])
}

func TestTranslateInvalidRadioType(t *testing.T) {
	doc := mustDoc(t, `{"SX1301_conf": {
		"radio_0": {"enable": true, "freq": 867500000, "type": "SX9999"}
	}}`)
	r := Translate(doc)

	// Unrecognized type leaves the field unset but the chain stays enabled.
	require.True(t, r.Chains[0].Enable)
	require.Equal(t, concentrator.RadioTypeNone, r.Chains[0].Type)

	found := false
	for _, d := range r.Diags {
		if d.Path == "SX1301_conf.radio_0.type" {
			found = true
		}
	}
	require.True(t, found, "expected a diagnostic for the invalid radio type")
}

func TestTranslateMultiSFChannels(t *testing.T) {
	doc := mustDoc(t, `{"SX1301_conf": {
		"chan_multiSF_0": {"enable": true, "radio": 1, "if": -187500},
		"chan_multiSF_3": {"enable": false, "radio": 0, "if": 0}
	}}`)
	r := Translate(doc)

	require.Equal(t, concentrator.IFConf{Enable: true, RFChain: 1, FreqHz: -187500}, r.Channels[0])
	require.Equal(t, concentrator.IFConf{}, r.Channels[3])
	require.Equal(t, concentrator.IFConf{}, r.Channels[5])
}

func TestTranslateFSKChannel(t *testing.T) {
	doc := mustDoc(t, `{"SX1301_conf": {
		"chan_FSK": {"enable": true, "radio": 1, "if": 0, "bandwidth": 125000, "datarate": 50000}
	}}`)
	r := Translate(doc)

	fsk := r.Channels[concentrator.FSKChannelIndex]
	require.True(t, fsk.Enable)
	require.Equal(t, concentrator.BW125K, fsk.Bandwidth)
	require.Equal(t, concentrator.Datarate(50000), fsk.Datarate)
}

func TestFSKBandwidthTiers(t *testing.T) {
	tests := []struct {
		hz   float64
		want concentrator.Bandwidth
	}{
		{7800, concentrator.BW7K8},
		{15600, concentrator.BW15K6},
		{31200, concentrator.BW31K2},
		{62500, concentrator.BW62K5},
		{125000, concentrator.BW125K},
		{250000, concentrator.BW250K},
		{500000, concentrator.BW500K},
		{500001, concentrator.BWUndefined},
		{-1, concentrator.BWUndefined},
		{0, concentrator.BW7K8},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%.0f", tt.hz), func(t *testing.T) {
			require.Equal(t, tt.want, fskBandwidth(tt.hz))
		})
	}
}

func TestStdBandwidthExactMatch(t *testing.T) {
	require.Equal(t, concentrator.BW500K, stdBandwidth(500000))
	require.Equal(t, concentrator.BW250K, stdBandwidth(250000))
	require.Equal(t, concentrator.BW125K, stdBandwidth(125000))
	// No rounding: close values are undefined.
	require.Equal(t, concentrator.BWUndefined, stdBandwidth(125001))
	require.Equal(t, concentrator.BWUndefined, stdBandwidth(0))
}

func TestLoraSpreadFactors(t *testing.T) {
	want := map[float64]concentrator.Datarate{
		7:  concentrator.DRLoraSF7,
		8:  concentrator.DRLoraSF8,
		9:  concentrator.DRLoraSF9,
		10: concentrator.DRLoraSF10,
		11: concentrator.DRLoraSF11,
		12: concentrator.DRLoraSF12,
	}
	for sf, dr := range want {
		require.Equal(t, dr, loraSpreadFactor(sf))
	}
	require.Equal(t, concentrator.DRUndefined, loraSpreadFactor(6))
	require.Equal(t, concentrator.DRUndefined, loraSpreadFactor(13))
}

func TestGatewayIDString(t *testing.T) {
	tests := []struct {
		id   GatewayID
		want string
	}{
		{0, "0000000000000000"},
		{0xAABBCCDD, "00000000AABBCCDD"},
		{0x0102030405060708, "0102030405060708"},
		{GatewayID(math.MaxUint64), "FFFFFFFFFFFFFFFF"},
	}
	for _, tt := range tests {
		got := tt.id.String()
		require.Len(t, got, 16)
		require.Equal(t, tt.want, got)
	}
}

func TestTranslateGatewayIDParseFailure(t *testing.T) {
	r := Translate(mustDoc(t, `{"gateway_conf": {"gateway_ID": "not-hex"}}`))
	require.Equal(t, GatewayID(0), r.Gateway)

	found := false
	for _, d := range r.Diags {
		if d.Path == "gateway_conf.gateway_ID" {
			found = true
		}
	}
	require.True(t, found)
}

func TestApplySubmitsEverything(t *testing.T) {
	sim := concentrator.NewSim()
	r := Translate(mustDoc(t, `{}`))
	// Warn-only contract: Apply must not panic or abort on a zeroed result.
	Apply(sim, r)
}
