package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"

	"github.com/pingcap/errors"

	"github.com/rusuly/mysql-cdc/mysql"
	"github.com/rusuly/mysql-cdc/packet"
)

// Conn is the narrow connection handle a session drives through the
// handshake, authentication, session setup, and dump-dispatch phases. It
// wraps a packet.Conn with the bits of server-announced state later phases
// need (§4.4, §4.5).
type Conn struct {
	packetConn *packet.Conn
	options    *ReplicaOptions

	serverVersion  string
	connectionID   uint32
	capability     uint32
	authPluginName string
	scramble       []byte

	useSSL bool
}

// Dial opens a TCP connection to the configured host and wraps it in a
// packet-framed Conn.
func Dial(ctx context.Context, options *ReplicaOptions) (*Conn, error) {
	address := fmt.Sprintf("%s:%d", options.Hostname, options.Port)
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, errors.Annotatef(packet.NewIoError(err), "dial %s", address)
	}
	return &Conn{packetConn: packet.NewConn(nc), options: options}, nil
}

func (c *Conn) ReadPacket() ([]byte, error) {
	data, _, err := c.packetConn.ReadPacket()
	if err != nil {
		return nil, err
	}
	if len(data) > 0 && data[0] == mysql.ErrHeader {
		return nil, decodeErrorPacket(data, c.capability)
	}
	return data, nil
}

func (c *Conn) WritePacket(data []byte) error {
	return c.packetConn.WritePacket(data)
}

func (c *Conn) ResetSequence() {
	c.packetConn.ResetSequence()
}

func (c *Conn) Close() error {
	return c.packetConn.Close()
}

func (c *Conn) upgradeToSSL(config *tls.Config) error {
	if err := c.packetConn.UpgradeToSSL(config); err != nil {
		return err
	}
	c.useSSL = true
	return nil
}
