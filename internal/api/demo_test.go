package api

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angristan/magichome/internal/models"
)

func TestDemoFleetData(t *testing.T) {
	fleet, err := NewDemoFleet()
	require.NoError(t, err)
	defer fleet.Close()

	require.Len(t, fleet.Servers, 3)
	assert.Len(t, fleet.Addresses(), 3)

	for _, s := range fleet.Servers {
		reply, ok := ParseDiscoveryReply(s.DiscoveryReply())
		require.True(t, ok)
		assert.Equal(t, s.Addr(), reply.Host)
		assert.NotEmpty(t, reply.ID)
		assert.NotEmpty(t, reply.Model)
	}

	warm := fleet.Servers[1].State()
	assert.Equal(t, uint8(180), warm.WarmWhite)
	assert.True(t, warm.Color.IsEmpty())
}

func TestDemoServerStatusReply(t *testing.T) {
	s := newTestServer(t, DemoConfig{On: true, Color: models.NewColor(1, 2, 3)})

	conn, err := net.Dial("tcp", s.Addr())
	require.NoError(t, err)
	defer conn.Close()

	fc := frameConn{conn: conn, timeout: time.Second}
	require.NoError(t, fc.write(context.Background(), EncodeFrame(StatusQueryCommand(models.ProtocolLEDENET), true)))

	reply, err := fc.readFull(context.Background(), StatusLength)
	require.NoError(t, err)
	assert.Equal(t, byte(0x81), reply[0])
	assert.Equal(t, byte(0x23), reply[2])
	assert.Equal(t, byte(0x61), reply[3])
	assert.Equal(t, []byte{1, 2, 3}, reply[6:9])
	assert.Equal(t, Checksum(reply[:13]), reply[13])
}

func TestDemoServerCountsBadChecksums(t *testing.T) {
	s := newTestServer(t, DemoConfig{})

	conn, err := net.Dial("tcp", s.Addr())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write([]byte{0x71, 0x23, 0x0f, 0x00})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return s.BadChecksums() == 1 }, time.Second, 10*time.Millisecond)
	assert.True(t, s.State().On)
}

func TestDemoServerWaitCommands(t *testing.T) {
	s := newTestServer(t, DemoConfig{})
	assert.False(t, s.WaitCommands(1, 20*time.Millisecond))

	conn, err := net.Dial("tcp", s.Addr())
	require.NoError(t, err)
	defer conn.Close()

	_, err = conn.Write(EncodeFrame([]byte{0x71, 0x23, 0x0f}, true))
	require.NoError(t, err)

	require.True(t, s.WaitCommands(1, time.Second))
	assert.True(t, s.State().On)
	assert.False(t, s.WaitCommands(2, 20*time.Millisecond))
}

func TestDemoServerCloseIdempotent(t *testing.T) {
	s, err := NewDemoServer(DemoConfig{})
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
}
