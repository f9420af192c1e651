package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Downstream byte grammar (§6). Self-delimiting: every string, array and map
// carries its own length in its leading marker byte(s), so a single top-level
// Decode call consumes exactly one value's worth of bytes from r.
const (
	markerNil     byte = 0xc0
	markerFalse   byte = 0xc2
	markerTrue    byte = 0xc3
	markerInt8    byte = 0xd0
	markerInt16   byte = 0xd1
	markerInt32   byte = 0xd2
	markerInt64   byte = 0xd3
	markerUint8   byte = 0xcc
	markerUint16  byte = 0xcd
	markerUint32  byte = 0xce
	markerUint64  byte = 0xcf
	markerFloat32 byte = 0xca
	markerFloat64 byte = 0xcb
	markerStr8    byte = 0xd9
	markerStr16   byte = 0xda
	markerStr32   byte = 0xdb
	markerArray16 byte = 0xdc
	markerArray32 byte = 0xdd
	markerMap16   byte = 0xde
	markerMap32   byte = 0xdf

	fixstrMask   byte = 0xa0
	fixarrayMask byte = 0x90
	fixmapMask   byte = 0x80

	fixstrMax   = 31
	fixarrayMax = 15
	fixmapMax   = 15

	posFixintMax = 0x7f
	negFixintMin = -32
)

// Map is the decoded shape of a downstream message: a required "type" string
// plus an optional, arbitrarily-typed "data" value.
type Map = map[string]interface{}

// EncodeValue serializes v using the grammar in §6. Supported Go types:
// nil, bool, int/int8/16/32/64, uint/uint8/16/32/64, float32/64, string,
// []interface{} and map[string]interface{} (recursively). Any other type
// returns an error — the codec intentionally does not extend beyond the
// types §6 lists.
func EncodeValue(v interface{}) ([]byte, error) {
	switch x := v.(type) {
	case nil:
		return []byte{markerNil}, nil
	case bool:
		if x {
			return []byte{markerTrue}, nil
		}
		return []byte{markerFalse}, nil
	case string:
		return encodeString(x), nil
	case float32:
		buf := make([]byte, 5)
		buf[0] = markerFloat32
		binary.BigEndian.PutUint32(buf[1:], math.Float32bits(x))
		return buf, nil
	case float64:
		buf := make([]byte, 9)
		buf[0] = markerFloat64
		binary.BigEndian.PutUint64(buf[1:], math.Float64bits(x))
		return buf, nil
	case int:
		return encodeInt(int64(x)), nil
	case int8:
		return encodeInt(int64(x)), nil
	case int16:
		return encodeInt(int64(x)), nil
	case int32:
		return encodeInt(int64(x)), nil
	case int64:
		return encodeInt(x), nil
	case uint:
		return encodeUint(uint64(x)), nil
	case uint8:
		return encodeUint(uint64(x)), nil
	case uint16:
		return encodeUint(uint64(x)), nil
	case uint32:
		return encodeUint(uint64(x)), nil
	case uint64:
		return encodeUint(x), nil
	case []interface{}:
		return encodeArray(x)
	case map[string]interface{}:
		return encodeMap(x)
	default:
		return nil, fmt.Errorf("wire: unsupported value type %T", v)
	}
}

func encodeString(s string) []byte {
	n := len(s)
	switch {
	case n <= fixstrMax:
		buf := make([]byte, 1+n)
		buf[0] = fixstrMask | byte(n)
		copy(buf[1:], s)
		return buf
	case n <= math.MaxUint8:
		buf := make([]byte, 2+n)
		buf[0] = markerStr8
		buf[1] = byte(n)
		copy(buf[2:], s)
		return buf
	case n <= math.MaxUint16:
		buf := make([]byte, 3+n)
		buf[0] = markerStr16
		binary.BigEndian.PutUint16(buf[1:], uint16(n))
		copy(buf[3:], s)
		return buf
	default:
		buf := make([]byte, 5+n)
		buf[0] = markerStr32
		binary.BigEndian.PutUint32(buf[1:], uint32(n))
		copy(buf[5:], s)
		return buf
	}
}

// encodeInt always takes the signed path (fixint or INT8..INT64), used for
// Go's signed integer types so that decoding round-trips back to int64.
func encodeInt(v int64) []byte {
	if v >= 0 && v <= posFixintMax {
		return []byte{byte(v)}
	}
	if v < 0 && v >= negFixintMin {
		return []byte{byte(v)}
	}
	switch {
	case v >= math.MinInt8 && v <= math.MaxInt8:
		return []byte{markerInt8, byte(v)}
	case v >= math.MinInt16 && v <= math.MaxInt16:
		buf := make([]byte, 3)
		buf[0] = markerInt16
		binary.BigEndian.PutUint16(buf[1:], uint16(v))
		return buf
	case v >= math.MinInt32 && v <= math.MaxInt32:
		buf := make([]byte, 5)
		buf[0] = markerInt32
		binary.BigEndian.PutUint32(buf[1:], uint32(v))
		return buf
	default:
		buf := make([]byte, 9)
		buf[0] = markerInt64
		binary.BigEndian.PutUint64(buf[1:], uint64(v))
		return buf
	}
}

// encodeUint always takes the unsigned path (UINT8..UINT64), never fixint,
// so that an unsigned Go value round-trips back to uint64 rather than
// silently becoming a signed int64 on decode.
func encodeUint(v uint64) []byte {
	switch {
	case v <= math.MaxUint8:
		return []byte{markerUint8, byte(v)}
	case v <= math.MaxUint16:
		buf := make([]byte, 3)
		buf[0] = markerUint16
		binary.BigEndian.PutUint16(buf[1:], uint16(v))
		return buf
	case v <= math.MaxUint32:
		buf := make([]byte, 5)
		buf[0] = markerUint32
		binary.BigEndian.PutUint32(buf[1:], uint32(v))
		return buf
	default:
		buf := make([]byte, 9)
		buf[0] = markerUint64
		binary.BigEndian.PutUint64(buf[1:], v)
		return buf
	}
}

func encodeArray(items []interface{}) ([]byte, error) {
	n := len(items)
	var header []byte
	switch {
	case n <= fixarrayMax:
		header = []byte{fixarrayMask | byte(n)}
	case n <= math.MaxUint16:
		header = make([]byte, 3)
		header[0] = markerArray16
		binary.BigEndian.PutUint16(header[1:], uint16(n))
	default:
		header = make([]byte, 5)
		header[0] = markerArray32
		binary.BigEndian.PutUint32(header[1:], uint32(n))
	}
	out := header
	for _, item := range items {
		enc, err := EncodeValue(item)
		if err != nil {
			return nil, err
		}
		out = append(out, enc...)
	}
	return out, nil
}

func encodeMap(m map[string]interface{}) ([]byte, error) {
	n := len(m)
	var header []byte
	switch {
	case n <= fixmapMax:
		header = []byte{fixmapMask | byte(n)}
	case n <= math.MaxUint16:
		header = make([]byte, 3)
		header[0] = markerMap16
		binary.BigEndian.PutUint16(header[1:], uint16(n))
	default:
		header = make([]byte, 5)
		header[0] = markerMap32
		binary.BigEndian.PutUint32(header[1:], uint32(n))
	}
	out := header
	for k, v := range m {
		out = append(out, encodeString(k)...)
		enc, err := EncodeValue(v)
		if err != nil {
			return nil, err
		}
		out = append(out, enc...)
	}
	return out, nil
}

// DecodeValue reads exactly one value from r.
func DecodeValue(r *bufio.Reader) (interface{}, error) {
	b, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	switch {
	case b == markerNil:
		return nil, nil
	case b == markerFalse:
		return false, nil
	case b == markerTrue:
		return true, nil
	case b <= posFixintMax:
		return int64(b), nil
	case int8(b) >= negFixintMin && b >= 0xe0:
		return int64(int8(b)), nil
	case b == markerInt8:
		v, err := readByte(r)
		return int64(int8(v)), err
	case b == markerInt16:
		v, err := readUint16(r)
		return int64(int16(v)), err
	case b == markerInt32:
		v, err := readUint32(r)
		return int64(int32(v)), err
	case b == markerInt64:
		v, err := readUint64(r)
		return int64(v), err
	case b == markerUint8:
		v, err := readByte(r)
		return uint64(v), err
	case b == markerUint16:
		v, err := readUint16(r)
		return uint64(v), err
	case b == markerUint32:
		v, err := readUint32(r)
		return uint64(v), err
	case b == markerUint64:
		return readUint64(r)
	case b == markerFloat32:
		v, err := readUint32(r)
		return math.Float32frombits(v), err
	case b == markerFloat64:
		v, err := readUint64(r)
		return math.Float64frombits(v), err
	case b&0xe0 == fixstrMask:
		return readString(r, int(b&0x1f))
	case b == markerStr8:
		n, err := readByte(r)
		if err != nil {
			return nil, err
		}
		return readString(r, int(n))
	case b == markerStr16:
		n, err := readUint16(r)
		if err != nil {
			return nil, err
		}
		return readString(r, int(n))
	case b == markerStr32:
		n, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		return readString(r, int(n))
	case b&0xf0 == fixarrayMask:
		return readArray(r, int(b&0x0f))
	case b == markerArray16:
		n, err := readUint16(r)
		if err != nil {
			return nil, err
		}
		return readArray(r, int(n))
	case b == markerArray32:
		n, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		return readArray(r, int(n))
	case b&0xf0 == fixmapMask:
		return readMap(r, int(b&0x0f))
	case b == markerMap16:
		n, err := readUint16(r)
		if err != nil {
			return nil, err
		}
		return readMap(r, int(n))
	case b == markerMap32:
		n, err := readUint32(r)
		if err != nil {
			return nil, err
		}
		return readMap(r, int(n))
	default:
		return nil, fmt.Errorf("wire: unrecognized marker byte 0x%02x", b)
	}
}

func readByte(r *bufio.Reader) (byte, error) { return r.ReadByte() }

func readUint16(r *bufio.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

func readUint32(r *bufio.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

func readUint64(r *bufio.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

func readString(r *bufio.Reader, n int) (string, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func readArray(r *bufio.Reader, n int) ([]interface{}, error) {
	out := make([]interface{}, n)
	for i := 0; i < n; i++ {
		v, err := DecodeValue(r)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func readMap(r *bufio.Reader, n int) (map[string]interface{}, error) {
	out := make(map[string]interface{}, n)
	for i := 0; i < n; i++ {
		kv, err := DecodeValue(r)
		if err != nil {
			return nil, err
		}
		key, ok := kv.(string)
		if !ok {
			return nil, fmt.Errorf("wire: map key must be a string, got %T", kv)
		}
		v, err := DecodeValue(r)
		if err != nil {
			return nil, err
		}
		out[key] = v
	}
	return out, nil
}

// EncodeMessage builds a downstream message: a map with required key "type"
// and, when data is non-nil, an optional "data" key (§6).
func EncodeMessage(msgType string, data interface{}) ([]byte, error) {
	m := map[string]interface{}{"type": msgType}
	if data != nil {
		m["data"] = data
	}
	return encodeMap(m)
}

// DecodeMessage reads one downstream message and validates the required
// "type" key.
func DecodeMessage(r *bufio.Reader) (msgType string, data interface{}, err error) {
	v, err := DecodeValue(r)
	if err != nil {
		return "", nil, err
	}
	m, ok := v.(map[string]interface{})
	if !ok {
		return "", nil, fmt.Errorf("wire: downstream message must be a map, got %T", v)
	}
	t, ok := m["type"].(string)
	if !ok {
		return "", nil, fmt.Errorf("wire: downstream message missing string \"type\" key")
	}
	return t, m["data"], nil
}
