package client

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/pingcap/errors"

	"github.com/rusuly/mysql-cdc/mysql"
	"github.com/rusuly/mysql-cdc/replication"
)

// binlogDumpOKByte prefixes every packet in a COM_BINLOG_DUMP response
// stream ahead of the event bytes proper (§4.8).
const binlogDumpOKByte = 0x00

// EventHandler is called once per decoded event. Returning an error stops
// Replicate and propagates the error to its caller.
type EventHandler func(header *replication.EventHeader, event replication.Event) error

// RawEventHandler is called once per event with its header decoded and the
// event's raw bytes as received (header, body and any trailing checksum),
// for callers that want to decode lazily or re-serialize events unchanged
// (§6).
type RawEventHandler func(header *replication.EventHeader, payload []byte) error

// BinlogClient drives one replica session end to end: connect, authenticate,
// negotiate session parameters, dispatch a binlog dump, and decode the
// resulting event stream, tracking the position each event advances to so a
// caller can persist it for resumption (§4, §4.11).
type BinlogClient struct {
	options *ReplicaOptions
	conn    *Conn
	decoder *replication.EventDecoder

	pendingMySqlSource *uuid.UUID
	pendingMySqlTxID   int64
	pendingMariaDbGtid *mysql.Gtid
	inTransaction      bool

	logger *slog.Logger
}

// NewBinlogClient builds a client from options. Connect happens lazily in
// Replicate.
func NewBinlogClient(options ReplicaOptions) *BinlogClient {
	return &BinlogClient{options: &options, decoder: replication.NewEventDecoder(), logger: slog.Default()}
}

// WithLogger overrides the client's logger, which otherwise defaults to
// slog.Default().
func (c *BinlogClient) WithLogger(logger *slog.Logger) *BinlogClient {
	c.logger = logger
	return c
}

// Options returns a copy of the session's options, with the binlog position
// as of the call. The GTID set/list pointers in the copy are shared with the
// session.
func (c *BinlogClient) Options() ReplicaOptions {
	return *c.options
}

// ChecksumType returns the checksum algorithm negotiated during session
// setup. It is only meaningful once Replicate/ReplicateRaw has connected.
func (c *BinlogClient) ChecksumType() mysql.ChecksumType {
	return c.decoder.ChecksumType()
}

// connectAndDump performs the shared connect/authenticate/negotiate/dump
// sequence both Replicate and ReplicateRaw drive.
func (c *BinlogClient) connectAndDump(ctx context.Context) (*Conn, error) {
	c.logger.Info("BinlogClient: connecting", slog.String("host", c.options.Hostname), slog.Uint64("port", uint64(c.options.Port)))

	conn, err := Dial(ctx, c.options)
	if err != nil {
		c.logger.Error("BinlogClient: dial failed", slog.Any("error", err))
		return nil, err
	}

	if err := conn.authenticate(); err != nil {
		conn.Close()
		c.logger.Error("BinlogClient: authenticate failed", slog.Any("error", err))
		return nil, errors.Annotatef(err, "authenticate")
	}

	checksumType, err := conn.setupSession()
	if err != nil {
		conn.Close()
		c.logger.Error("BinlogClient: setup session failed", slog.Any("error", err))
		return nil, errors.Annotatef(err, "setup session")
	}
	c.decoder = replication.NewEventDecoderWithChecksum(checksumType)

	if err := conn.requestBinlogDump(); err != nil {
		conn.Close()
		c.logger.Error("BinlogClient: request binlog dump failed", slog.Any("error", err))
		return nil, errors.Annotatef(err, "request binlog dump")
	}

	c.logger.Info("BinlogClient: dump started",
		slog.String("filename", c.options.Binlog.Filename),
		slog.Any("position", c.options.Binlog.Position))
	c.conn = conn
	return conn, nil
}

// nextPacket reads one binlog-dump response packet, stripping its leading
// OK-byte marker.
func nextPacket(ctx context.Context, conn *Conn) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	raw, err := conn.ReadPacket()
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || raw[0] != binlogDumpOKByte {
		return nil, mysql.NewError(mysql.KindProtocol, "unexpected binlog dump packet marker 0x%02x", raw[0])
	}
	return raw[1:], nil
}

// Replicate connects, authenticates, negotiates the session, dispatches the
// dump, and decodes events until ctx is cancelled, the handler returns an
// error, or the connection fails. It always closes the underlying
// connection before returning.
func (c *BinlogClient) Replicate(ctx context.Context, handler EventHandler) error {
	conn, err := c.connectAndDump(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	for {
		payload, err := nextPacket(ctx, conn)
		if err != nil {
			return err
		}

		event, err := c.decoder.DecodeEvent(payload)
		if err != nil {
			return errors.Annotatef(err, "decode event")
		}

		if tm, ok := event.Event.(*replication.TableMapEvent); ok {
			if err := c.resolveColumns(ctx, tm); err != nil {
				return errors.Annotatef(err, "resolve columns for %s.%s", tm.SchemaName, tm.TableName)
			}
		}

		c.Commit(event.Header, event.Event)

		if !c.included(event.Header.EventType) {
			continue
		}
		if err := handler(event.Header, event.Event); err != nil {
			return err
		}
	}
}

// ReplicateRaw mirrors Replicate but hands the handler each event's header
// alongside the event's raw bytes (header, body and any trailing checksum)
// instead of a decoded Event, pairing it with ChecksumType for a caller that
// wants to decode lazily or persist events unchanged (§6).
func (c *BinlogClient) ReplicateRaw(ctx context.Context, handler RawEventHandler) error {
	conn, err := c.connectAndDump(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	for {
		payload, err := nextPacket(ctx, conn)
		if err != nil {
			return err
		}

		header := &replication.EventHeader{}
		if err := header.Decode(payload[:replication.EventHeaderSize]); err != nil {
			return errors.Annotatef(err, "decode raw event header")
		}

		if err := handler(header, payload); err != nil {
			return err
		}
	}
}

// resolveColumns enriches tm with column names/signedness via the
// configured SchemaResolver when the server's own metadata omitted them
// (§4.14). It is a no-op if no resolver is configured or the metadata is
// already complete.
func (c *BinlogClient) resolveColumns(ctx context.Context, tm *replication.TableMapEvent) error {
	if c.options.SchemaResolver == nil || !tm.NeedsColumnResolution() {
		return nil
	}
	columns, err := c.options.SchemaResolver.Columns(ctx, tm.SchemaName, tm.TableName)
	if err != nil {
		return err
	}
	names := make([]string, len(columns))
	unsigned := make([]bool, len(columns))
	for i, col := range columns {
		names[i] = col.Name
		unsigned[i] = col.Unsigned
	}
	tm.ApplyResolvedColumns(names, unsigned)
	return nil
}

func (c *BinlogClient) included(eventType replication.EventType) bool {
	if c.options.IncludedEventTypes == nil {
		return true
	}
	return c.options.IncludedEventTypes[eventType.String()]
}

// Commit advances the session's tracked binlog position and (in FromGtid
// sessions) the committed GTID set/list from a decoded event, per §4.11.
// Replicate calls this automatically; a caller driving ReplicateRaw and
// decoding events itself should call it explicitly after each event.
func (c *BinlogClient) Commit(header *replication.EventHeader, event replication.Event) {
	if c.options.Binlog.Strategy == mysql.FromGtid {
		c.commitGtid(event)
	}
	c.commitPosition(header, event)
}

// commitGtid implements §4.11's GTID update: a MySqlGtid/MariaDbGtid event
// stashes a pending GTID; it is promoted into the stored set/list on the
// transaction's Xid, or on the Query events that bound a statement-level
// transaction (BEGIN opens one; COMMIT/ROLLBACK closes it; any other
// non-empty statement while not in a transaction is an auto-committing DDL).
func (c *BinlogClient) commitGtid(event replication.Event) {
	switch e := event.(type) {
	case *replication.MySqlGtidEvent:
		source := e.SourceUUID
		c.pendingMySqlSource = &source
		c.pendingMySqlTxID = e.TransactionID
	case *replication.MariaDbGtidEvent:
		gtid := e.Gtid
		c.pendingMariaDbGtid = &gtid
	case *replication.XidEvent:
		c.promotePendingGtid()
		c.inTransaction = false
	case *replication.QueryEvent:
		sql := strings.TrimSpace(e.SQL)
		switch {
		case sql == "":
		case strings.EqualFold(sql, "BEGIN"):
			c.inTransaction = true
		case strings.EqualFold(sql, "COMMIT"), strings.EqualFold(sql, "ROLLBACK"):
			c.promotePendingGtid()
			c.inTransaction = false
		default:
			if !c.inTransaction {
				c.promotePendingGtid()
			}
		}
	}
}

func (c *BinlogClient) promotePendingGtid() {
	if c.pendingMySqlSource != nil {
		if c.options.Binlog.MySqlGtidSet == nil {
			c.options.Binlog.MySqlGtidSet = mysql.NewGtidSet()
		}
		c.options.Binlog.MySqlGtidSet.AddGtid(*c.pendingMySqlSource, c.pendingMySqlTxID)
		c.pendingMySqlSource = nil
	}
	if c.pendingMariaDbGtid != nil {
		if c.options.Binlog.MariaDbGtidList == nil {
			c.options.Binlog.MariaDbGtidList = mysql.NewGtidList()
		}
		c.options.Binlog.MariaDbGtidList.AddGtid(*c.pendingMariaDbGtid)
		c.pendingMariaDbGtid = nil
	}
}

// commitPosition implements §4.11's position update: skip TableMapEvent (to
// preserve atomic replay of TableMap + rows on reconnect), take filename and
// position from RotateEvent, otherwise adopt header.LogPos when nonzero.
func (c *BinlogClient) commitPosition(header *replication.EventHeader, event replication.Event) {
	switch e := event.(type) {
	case *replication.TableMapEvent:
		return
	case *replication.RotateEvent:
		c.options.Binlog.Filename = e.NextLogFile
		c.options.Binlog.Position = uint32(e.Position)
		return
	}

	if header.LogPos > 0 {
		c.options.Binlog.Position = header.LogPos
	}
}
