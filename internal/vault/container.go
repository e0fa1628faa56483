package vault

import (
	"bytes"
	"crypto/subtle"
	"fmt"

	"github.com/dmitrijs2005/keeperbot/internal/cryptox"
	"github.com/fxamacker/cbor/v2"
	"github.com/klauspost/compress/zstd"
)

const magic = "KBV1"

const (
	saltOffset     = len(magic)
	verifierOffset = saltOffset + cryptox.SaltSize
	nonceOffset    = verifierOffset + 32
	headerSize     = nonceOffset + cryptox.NonceSize
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode

	zstdEncoder *zstd.Encoder
	zstdDecoder *zstd.Decoder
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("vault: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("vault: CBOR decoder initialization failed: " + err.Error())
	}

	zstdEncoder, err = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		panic("vault: zstd encoder initialization failed: " + err.Error())
	}

	zstdDecoder, err = zstd.NewReader(nil)
	if err != nil {
		panic("vault: zstd decoder initialization failed: " + err.Error())
	}
}

// seal serializes doc into container bytes under key. salt is written to
// the header so the key can be derived again on open.
func seal(doc *document, key, salt []byte) ([]byte, error) {
	payload, err := encMode.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode store: %w", err)
	}

	compressed := zstdEncoder.EncodeAll(payload, nil)

	ciphertext, nonce, err := cryptox.Seal(compressed, key)
	if err != nil {
		return nil, fmt.Errorf("encrypt store: %w", err)
	}

	var buf bytes.Buffer
	buf.Grow(headerSize + len(ciphertext))
	buf.WriteString(magic)
	buf.Write(salt)
	buf.Write(cryptox.MakeVerifier(key))
	buf.Write(nonce)
	buf.Write(ciphertext)

	return buf.Bytes(), nil
}

// unseal opens container bytes with the master secret and returns the
// document along with the derived key and salt for later saves.
func unseal(data, secret []byte) (doc *document, key, salt []byte, err error) {
	if len(data) < headerSize || string(data[:saltOffset]) != magic {
		return nil, nil, nil, fmt.Errorf("%w: bad header", ErrCorrupt)
	}

	salt = append([]byte(nil), data[saltOffset:verifierOffset]...)
	verifier := data[verifierOffset:nonceOffset]
	nonce := data[nonceOffset:headerSize]
	ciphertext := data[headerSize:]

	key = cryptox.DeriveMasterKey(secret, salt)
	if subtle.ConstantTimeCompare(cryptox.MakeVerifier(key), verifier) != 1 {
		return nil, nil, nil, ErrWrongSecret
	}

	compressed, err := cryptox.Open(ciphertext, nonce, key)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	payload, err := zstdDecoder.DecodeAll(compressed, nil)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	doc = &document{}
	if err := decMode.Unmarshal(payload, doc); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if doc.Root == nil {
		return nil, nil, nil, fmt.Errorf("%w: no root group", ErrCorrupt)
	}

	return doc, key, salt, nil
}
