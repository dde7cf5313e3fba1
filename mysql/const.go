package mysql

// Capability flags (§6). Only the subset this client negotiates is named;
// MySQL defines many more.
const (
	ClientLongPassword    uint32 = 1 << 0
	ClientFoundRows       uint32 = 1 << 1
	ClientLongFlag        uint32 = 1 << 2
	ClientConnectWithDB   uint32 = 1 << 3
	ClientNoSchema        uint32 = 1 << 4
	ClientCompress        uint32 = 1 << 5
	ClientODBC            uint32 = 1 << 6
	ClientLocalFiles      uint32 = 1 << 7
	ClientIgnoreSpace     uint32 = 1 << 8
	ClientProtocol41      uint32 = 1 << 9
	ClientInteractive     uint32 = 1 << 10
	ClientSSL             uint32 = 1 << 11
	ClientIgnoreSigpipe   uint32 = 1 << 12
	ClientTransactions    uint32 = 1 << 13
	ClientReserved        uint32 = 1 << 14
	ClientSecureConn      uint32 = 1 << 15
	ClientMultiStatements uint32 = 1 << 16
	ClientMultiResults    uint32 = 1 << 17
	ClientPSMultiResults  uint32 = 1 << 18
	ClientPluginAuth      uint32 = 1 << 19
	ClientConnectAttrs    uint32 = 1 << 20
)

// Response discriminator bytes (§4.4, §6).
const (
	OKHeader         byte = 0x00
	EOFHeader        byte = 0xfe
	ErrHeader        byte = 0xff
	AuthSwitchHeader byte = 0xfe
	AuthMoreDataByte byte = 0x01
)

// Command codes (§4.3, §6).
const (
	ComQuery         byte = 0x03
	ComRegisterSlave byte = 0x15
	ComBinlogDump    byte = 0x12
	ComBinlogDumpGTID byte = 0x1e
)

// Auth plugin names (§4.5).
const (
	AuthNativePassword    = "mysql_native_password"
	AuthCachingSha2       = "caching_sha2_password"
)

// caching_sha2_password sub-protocol response bytes (§4.5).
const (
	CachingSha2FastAuth byte = 0x03
	CachingSha2FullAuth byte = 0x04
)

// UTF8MB4 collation id used on the wire by this client (§6).
const UTF8MB4GeneralCI byte = 45

// EventHeaderSize is the fixed binlog event header length (§3, §6).
const EventHeaderSize = 19

// FirstEventPosition is where a fresh binlog file's first real event begins,
// right after the 4-byte magic number (§6).
const FirstEventPosition uint32 = 4

// BinlogFileMagic is the 4-byte signature at the start of every binlog file
// (§4.12, §6).
var BinlogFileMagic = [4]byte{0xfe, 0x62, 0x69, 0x6e}

// ChecksumType is the negotiated event checksum algorithm (§4.8, GLOSSARY).
type ChecksumType int

const (
	ChecksumNone ChecksumType = iota
	ChecksumCRC32
)

// ChecksumLength returns the number of trailing checksum bytes per event.
func (c ChecksumType) ChecksumLength() int {
	if c == ChecksumCRC32 {
		return 4
	}
	return 0
}

func ParseChecksumType(name string) (ChecksumType, error) {
	switch name {
	case "NONE":
		return ChecksumNone, nil
	case "CRC32":
		return ChecksumCRC32, nil
	default:
		return ChecksumNone, NewError(KindUnsupported, "unsupported binlog checksum type %q", name)
	}
}

// SslMode controls whether/how this client upgrades the connection to TLS
// (§6). Only Disabled and IfAvailable/Require are actually supported; the
// two CA/hostname-verifying modes are rejected during authentication, once
// the server's handshake has been read.
type SslMode int

const (
	SslDisabled SslMode = iota
	SslIfAvailable
	SslRequire
	SslRequireVerifyCA
	SslRequireVerifyFull
)

// StartingStrategy selects how a session computes its initial binlog
// coordinate (§6).
type StartingStrategy int

const (
	FromStart StartingStrategy = iota
	FromEnd
	FromPosition
	FromGtid
)

// DatabaseProvider distinguishes MySQL from MariaDB dump/session dialects
// (§4.7).
type DatabaseProvider int

const (
	ProviderMySQL DatabaseProvider = iota
	ProviderMariaDB
)
