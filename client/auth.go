package client

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/tls"
	"crypto/x509"
	"encoding/pem"

	"github.com/pingcap/errors"

	"github.com/rusuly/mysql-cdc/mysql"
)

// authenticate drives the authentication state machine through SSL
// upgrade, the initial AUTHENTICATE packet, and any plugin-switch / caching
// caching-sha2 sub-protocol exchange, per §4.5.
func (c *Conn) authenticate() error {
	if err := c.readHandshake(); err != nil {
		return err
	}

	if c.options.SslMode != mysql.SslDisabled {
		if c.capability&mysql.ClientSSL == 0 {
			if c.options.SslMode >= mysql.SslRequire {
				return mysql.NewError(mysql.KindUnsupported, "ssl required but server does not advertise SSL support")
			}
		} else {
			if c.options.SslMode == mysql.SslRequireVerifyCA || c.options.SslMode == mysql.SslRequireVerifyFull {
				return mysql.NewError(mysql.KindUnsupported, "ssl modes RequireVerifyCa/RequireVerifyFull are not supported")
			}
			if err := c.sendSslRequest(); err != nil {
				return err
			}
			if err := c.upgradeToSSL(&tls.Config{InsecureSkipVerify: true}); err != nil {
				return err
			}
		}
	}

	if !isSupportedAuthPlugin(c.authPluginName) {
		return mysql.NewError(mysql.KindUnsupported, "unsupported auth plugin %q", c.authPluginName)
	}

	scrambled, err := scramblePassword(c.authPluginName, c.options.Password, c.scramble)
	if err != nil {
		return err
	}
	if err := c.sendAuthenticate(scrambled); err != nil {
		return err
	}

	return c.readAuthResult()
}

func isSupportedAuthPlugin(name string) bool {
	return name == mysql.AuthNativePassword || name == mysql.AuthCachingSha2
}

// readAuthResult handles the response to AUTHENTICATE: OK, an
// Auth-Plugin-Switch, or a caching-sha2 sub-protocol byte (§4.5).
func (c *Conn) readAuthResult() error {
	data, err := c.ReadPacket()
	if err != nil {
		return err
	}

	if isOKPacket(data) {
		return nil
	}

	if data[0] == mysql.AuthSwitchHeader {
		return c.handleAuthSwitch(data)
	}

	return c.handleCachingSha2SubProtocol(data)
}

// handleAuthSwitch parses a new plugin name + scramble, re-checks it, and
// re-sends the scrambled password under the new plugin (§4.5).
func (c *Conn) handleAuthSwitch(data []byte) error {
	payload := data[1:]
	nameEnd := indexByte(payload, 0)
	if nameEnd < 0 {
		return errors.Trace(mysql.ErrMalformPacket)
	}
	c.authPluginName = string(payload[:nameEnd])
	c.scramble = payload[nameEnd+1:]

	if !isSupportedAuthPlugin(c.authPluginName) {
		return mysql.NewError(mysql.KindUnsupported, "unsupported auth plugin %q", c.authPluginName)
	}

	scrambled, err := scramblePassword(c.authPluginName, c.options.Password, c.scramble)
	if err != nil {
		return err
	}
	if err := c.WritePacket(scrambled); err != nil {
		return err
	}
	return c.readAuthResult()
}

// handleCachingSha2SubProtocol implements §4.5's caching-sha2 continuation:
// fast-auth success, or a request for cleartext password (over TLS) or the
// server's RSA public key.
func (c *Conn) handleCachingSha2SubProtocol(data []byte) error {
	if len(data) >= 2 && data[0] == mysql.AuthMoreDataByte && data[1] == mysql.CachingSha2FastAuth {
		return c.readAuthResult()
	}

	if c.useSSL {
		clear := append([]byte(c.options.Password), 0)
		if err := c.WritePacket(clear); err != nil {
			return err
		}
		return c.readAuthResult()
	}

	if err := c.WritePacket([]byte{0x02}); err != nil {
		return err
	}
	keyPacket, err := c.ReadPacket()
	if err != nil {
		return err
	}

	publicKey, err := parseRSAPublicKey(keyPacket[1:])
	if err != nil {
		return err
	}

	xored := xorRepeating([]byte(c.options.Password+"\x00"), c.scramble)
	ciphertext, err := rsa.EncryptOAEP(sha1.New(), rand.Reader, publicKey, xored, nil)
	if err != nil {
		return errors.Annotatef(mysql.NewError(mysql.KindProtocol, "rsa encrypt auth response: %v", err), "caching_sha2_password")
	}
	if err := c.WritePacket(ciphertext); err != nil {
		return err
	}
	return c.readAuthResult()
}

func parseRSAPublicKey(pemBytes []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(pemBytes)
	if block == nil {
		return nil, mysql.NewError(mysql.KindProtocol, "invalid RSA public key PEM from server")
	}
	pub, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, errors.Annotatef(mysql.NewError(mysql.KindProtocol, "parse RSA public key: %v", err), "caching_sha2_password")
	}
	rsaKey, ok := pub.(*rsa.PublicKey)
	if !ok {
		return nil, mysql.NewError(mysql.KindProtocol, "server public key is not RSA")
	}
	return rsaKey, nil
}

// scramblePassword implements §4.5's password-scrambling algorithms.
func scramblePassword(plugin, password string, scramble []byte) ([]byte, error) {
	if password == "" {
		return nil, nil
	}
	switch plugin {
	case mysql.AuthNativePassword:
		return scrambleSHA1(password, scramble), nil
	case mysql.AuthCachingSha2:
		return scrambleSHA256(password, scramble), nil
	default:
		return nil, mysql.NewError(mysql.KindUnsupported, "unsupported auth plugin %q", plugin)
	}
}

// scrambleSHA1 computes sha1(pw) XOR sha1(scramble || sha1(sha1(pw))).
func scrambleSHA1(password string, scramble []byte) []byte {
	pwHash := sha1.Sum([]byte(password))
	pwHashHash := sha1.Sum(pwHash[:])

	h := sha1.New()
	h.Write(scramble)
	h.Write(pwHashHash[:])
	scrambleHash := h.Sum(nil)

	return xorBytes(pwHash[:], scrambleHash)
}

// scrambleSHA256 computes sha256(pw) XOR sha256(scramble || sha256(sha256(pw))).
func scrambleSHA256(password string, scramble []byte) []byte {
	pwHash := sha256.Sum256([]byte(password))
	pwHashHash := sha256.Sum256(pwHash[:])

	h := sha256.New()
	h.Write(scramble)
	h.Write(pwHashHash[:])
	scrambleHash := h.Sum(nil)

	return xorBytes(pwHash[:], scrambleHash)
}

func xorBytes(a, b []byte) []byte {
	out := make([]byte, len(a))
	for i := range a {
		out[i] = a[i] ^ b[i%len(b)]
	}
	return out
}

// xorRepeating XORs data with key, cycling key modulo its length (§4.5).
func xorRepeating(data, key []byte) []byte {
	out := make([]byte, len(data))
	for i := range data {
		out[i] = data[i] ^ key[i%len(key)]
	}
	return out
}

func indexByte(data []byte, b byte) int {
	for i, c := range data {
		if c == b {
			return i
		}
	}
	return -1
}
