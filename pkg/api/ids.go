package api

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"
)

// ClientID - идентификатор подключения, выданный сервером.
// Сервер может прислать его числом или строкой, внутри всегда строка.
type ClientID string

// NoClient - идентификатор еще не получен.
const NoClient ClientID = ""

func (id ClientID) String() string {
	return string(id)
}

// UnmarshalJSON принимает и строку, и число.
func (id *ClientID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ClientID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("client id must be string or number: %w", err)
	}
	*id = ClientID(n.String())
	return nil
}

// DecodeMsgpack - то же самое для msgpack-кодека.
func (id *ClientID) DecodeMsgpack(dec *msgpack.Decoder) error {
	v, err := dec.DecodeInterface()
	if err != nil {
		return err
	}
	s, err := scalarToString(v)
	if err != nil {
		return err
	}
	*id = ClientID(s)
	return nil
}

func scalarToString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case int8:
		return strconv.FormatInt(int64(val), 10), nil
	case int16:
		return strconv.FormatInt(int64(val), 10), nil
	case int32:
		return strconv.FormatInt(int64(val), 10), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	case uint8:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(val), 10), nil
	case uint64:
		return strconv.FormatUint(val, 10), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unexpected id type %T", v)
	}
}
