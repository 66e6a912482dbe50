package classify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gre0071/lora-logger/internal/concentrator"
)

func TestClassifyLoraFrame(t *testing.T) {
	f := Classify(concentrator.RxPacket{
		Status:     concentrator.StatCRCOK,
		Modulation: concentrator.ModLora,
		Bandwidth:  concentrator.BW125K,
		Datarate:   concentrator.DRLoraSF9,
		Coderate:   concentrator.CRLora4_5,
	})
	require.Equal(t, Frame{
		Status:      StatusCRCOK,
		Modulation:  ModulationLora,
		BandwidthHz: 125000,
		Datarate:    9,
		CodeRate:    5,
	}, f)
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		in   concentrator.Status
		want string
	}{
		{concentrator.StatCRCOK, StatusCRCOK},
		{concentrator.StatCRCBad, StatusCRCBad},
		{concentrator.StatNoCRC, StatusNoCRC},
		{concentrator.StatUndefined, StatusUndefined},
		{concentrator.Status(0x7f), StatusError},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Classify(concentrator.RxPacket{Status: tt.in}).Status)
	}
}

func TestClassifyBandwidth(t *testing.T) {
	tests := []struct {
		in   concentrator.Bandwidth
		want uint32
	}{
		{concentrator.BW500K, 500000},
		{concentrator.BW250K, 250000},
		{concentrator.BW125K, 125000},
		{concentrator.BW62K5, 62500},
		{concentrator.BW31K2, 31200},
		{concentrator.BW15K6, 15600},
		{concentrator.BW7K8, 7800},
		{concentrator.BWUndefined, 0},
		{concentrator.Bandwidth(0x42), Unknown},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Classify(concentrator.RxPacket{Bandwidth: tt.in}).BandwidthHz)
	}
}

func TestClassifyDatarate(t *testing.T) {
	sf := map[concentrator.Datarate]uint32{
		concentrator.DRLoraSF7:  7,
		concentrator.DRLoraSF8:  8,
		concentrator.DRLoraSF9:  9,
		concentrator.DRLoraSF10: 10,
		concentrator.DRLoraSF11: 11,
		concentrator.DRLoraSF12: 12,
	}
	for dr, want := range sf {
		f := Classify(concentrator.RxPacket{Modulation: concentrator.ModLora, Datarate: dr})
		require.Equal(t, want, f.Datarate)
	}

	// Unrecognized LoRa datarate code.
	f := Classify(concentrator.RxPacket{Modulation: concentrator.ModLora, Datarate: 0x55})
	require.Equal(t, Unknown, f.Datarate)

	// FSK reports the bit rate directly.
	f = Classify(concentrator.RxPacket{Modulation: concentrator.ModFSK, Datarate: 50000})
	require.Equal(t, uint32(50000), f.Datarate)

	// Unknown modulation has no interpretable datarate.
	f = Classify(concentrator.RxPacket{Modulation: concentrator.Modulation(0x01), Datarate: 50000})
	require.Equal(t, Unknown, f.Datarate)
	require.Equal(t, ModulationError, f.Modulation)
}

func TestClassifyCodeRate(t *testing.T) {
	tests := []struct {
		in   concentrator.CodeRate
		want uint32
	}{
		{concentrator.CRLora4_5, 5},
		{concentrator.CRLora4_6, 6},
		{concentrator.CRLora4_7, 7},
		{concentrator.CRLora4_8, 8},
		{concentrator.CRUndefined, 0},
		{concentrator.CodeRate(0x99), Unknown},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, Classify(concentrator.RxPacket{Coderate: tt.in}).CodeRate)
	}
}
