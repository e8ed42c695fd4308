package tourapi

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
)

const successResultCode = "0000"

// envelope is the common KorService2 wrapper:
// {response:{header:{resultCode,resultMsg},body:{items:{item:T|[]T},numOfRows,pageNo,totalCount}}}
type envelope struct {
	Response *struct {
		Header struct {
			ResultCode string `json:"resultCode"`
			ResultMsg  string `json:"resultMsg"`
		} `json:"header"`
		Body struct {
			Items      json.RawMessage `json:"items"`
			NumOfRows  flexInt         `json:"numOfRows"`
			PageNo     flexInt         `json:"pageNo"`
			TotalCount flexInt         `json:"totalCount"`
		} `json:"body"`
	} `json:"response"`
}

// page is a decoded envelope body.
type page[T any] struct {
	Items      []T
	NumOfRows  int
	PageNo     int
	TotalCount int
}

// decodeEnvelope validates the wrapper and normalises items to a slice.
func decodeEnvelope[T any](data []byte, status int) (*page[T], error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, newError(KindUnexpected, status, "failed to decode response", err)
	}
	if env.Response == nil {
		return nil, newError(KindAPI, status, "invalid envelope: missing response", nil)
	}
	if code := env.Response.Header.ResultCode; code != successResultCode {
		msg := env.Response.Header.ResultMsg
		if msg == "" {
			msg = "unknown error"
		}
		return nil, newError(KindAPI, status, fmt.Sprintf("result code %s: %s", code, msg), nil)
	}

	items, err := decodeItems[T](env.Response.Body.Items)
	if err != nil {
		return nil, newError(KindUnexpected, status, "failed to decode items", err)
	}

	return &page[T]{
		Items:      items,
		NumOfRows:  int(env.Response.Body.NumOfRows),
		PageNo:     int(env.Response.Body.PageNo),
		TotalCount: int(env.Response.Body.TotalCount),
	}, nil
}

// decodeItems accepts an absent/null/"" items field, {item: T} and {item: [T...]}.
func decodeItems[T any](raw json.RawMessage) ([]T, error) {
	if isBlank(raw) {
		return nil, nil
	}
	var wrapper struct {
		Item json.RawMessage `json:"item"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, err
	}
	item := bytes.TrimSpace(wrapper.Item)
	if isBlank(item) {
		return nil, nil
	}
	if item[0] == '[' {
		var items []T
		if err := json.Unmarshal(item, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var single T
	if err := json.Unmarshal(item, &single); err != nil {
		return nil, err
	}
	return []T{single}, nil
}

func isBlank(raw []byte) bool {
	s := string(bytes.TrimSpace(raw))
	return s == "" || s == "null" || s == `""`
}

// flexInt decodes numbers, numeric strings, "" and null.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("flexInt: %q is not numeric", s)
	}
	*f = flexInt(n)
	return nil
}

// stringRecord decodes an object whose values may be of any JSON type into
// strings. Used for detailIntro2, whose keys vary by content type.
type stringRecord map[string]string

func (r *stringRecord) UnmarshalJSON(b []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make(stringRecord, len(raw))
	for k, v := range raw {
		out[k] = stringify(v)
	}
	*r = out
	return nil
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

// areaCodeItem tolerates rnum arriving as a number or a string.
type areaCodeItem struct {
	Code string  `json:"code"`
	Name string  `json:"name"`
	RNum flexInt `json:"rnum"`
}
