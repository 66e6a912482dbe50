package concentrator

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("sx1301")
	require.Error(t, err)

	c, err := Open("sim")
	require.NoError(t, err)
	require.NotNil(t, c)
}

func TestSimReceiveRequiresStart(t *testing.T) {
	s := NewSim()
	_, err := s.Receive(16)
	require.Error(t, err)
}

func TestSimQueuedPackets(t *testing.T) {
	s := NewSim()
	require.NoError(t, s.Start())
	defer s.Stop()

	s.Enqueue(RxPacket{Size: 1, Payload: []byte{0x01}}, RxPacket{Size: 2, Payload: []byte{0x01, 0x02}})

	pkts, err := s.Receive(1)
	require.NoError(t, err)
	require.Len(t, pkts, 1)
	require.Equal(t, uint16(1), pkts[0].Size)

	pkts, err = s.Receive(16)
	require.NoError(t, err)
	require.Len(t, pkts, 1)
	require.Equal(t, uint16(2), pkts[0].Size)
}

func TestSimConfigurationBounds(t *testing.T) {
	s := NewSim()
	require.NoError(t, s.SetBoardConf(BoardConf{ClkSrc: 1}))
	require.NoError(t, s.SetRFConf(0, RFConf{}))
	require.Error(t, s.SetRFConf(RFChainCount, RFConf{}))
	require.NoError(t, s.SetIFConf(FSKChannelIndex, IFConf{}))
	require.Error(t, s.SetIFConf(ChannelCount, IFConf{}))
}
