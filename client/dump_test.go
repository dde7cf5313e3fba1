package client

import (
	"encoding/binary"
	"net"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rusuly/mysql-cdc/packet"
)

// readComBinlogDump reads one COM_BINLOG_DUMP packet off conn and returns
// the server_id field it carried.
func readComBinlogDump(t *testing.T, conn *packet.Conn) uint32 {
	t.Helper()
	data, _, err := conn.ReadPacket()
	require.NoError(t, err)
	// byte 0: command, 4: position, 2: flags, then 4-byte server_id.
	return binary.LittleEndian.Uint32(data[1+4+2 : 1+4+2+4])
}

func TestRequestMySqlDumpZeroesServerIDWhenNonBlocking(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	defer clientSide.Close()
	defer serverSide.Close()

	c := &Conn{
		packetConn: packet.NewConn(clientSide),
		options: &ReplicaOptions{
			ServerID: 1234,
			Blocking: false,
			Binlog:   FromPosition("bin.000001", 4),
		},
	}
	serverConn := packet.NewConn(serverSide)

	done := make(chan error, 1)
	go func() { done <- c.requestMySqlDump() }()

	require.Equal(t, uint32(0), readComBinlogDump(t, serverConn))
	require.NoError(t, <-done)
}

func TestRequestMySqlDumpSendsConfiguredServerIDWhenBlocking(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	defer clientSide.Close()
	defer serverSide.Close()

	c := &Conn{
		packetConn: packet.NewConn(clientSide),
		options: &ReplicaOptions{
			ServerID: 1234,
			Blocking: true,
			Binlog:   FromPosition("bin.000001", 4),
		},
	}
	serverConn := packet.NewConn(serverSide)

	done := make(chan error, 1)
	go func() { done <- c.requestMySqlDump() }()

	require.Equal(t, uint32(1234), readComBinlogDump(t, serverConn))
	require.NoError(t, <-done)
}

func TestRequestMariaDbDumpZeroesServerIDWhenNonBlocking(t *testing.T) {
	clientSide, serverSide := net.Pipe()
	defer clientSide.Close()
	defer serverSide.Close()

	c := &Conn{
		packetConn: packet.NewConn(clientSide),
		options: &ReplicaOptions{
			ServerID: 999,
			Blocking: false,
			Binlog:   FromPosition("bin.000001", 4),
		},
	}
	serverConn := packet.NewConn(serverSide)

	done := make(chan error, 1)
	go func() { done <- c.requestMariaDbDump() }()

	// First packet is the "SET @mariadb_slave_capability = 4" query; reply OK.
	_, _, err := serverConn.ReadPacket()
	require.NoError(t, err)
	require.NoError(t, serverConn.WritePacket([]byte{0x00}))

	require.Equal(t, uint32(0), readComBinlogDump(t, serverConn))
	require.NoError(t, <-done)
}
