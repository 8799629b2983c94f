package card

import (
	"fmt"
	"strings"
)

// Payload is a request body split into free-form fields and the like flag.
type Payload struct {
	Fields map[string]interface{}
	Like   *bool
}

// Empty reports whether the body carried nothing the store could apply.
func (p Payload) Empty() bool {
	return len(p.Fields) == 0 && p.Like == nil
}

// ParsePayload drops reserved keys and validates the rest.
// Keys starting with '$' or containing '.' are refused at every depth,
// including inside arrays, so all backends accept the same bodies.
func ParsePayload(raw map[string]interface{}) (Payload, error) {
	p := Payload{Fields: make(map[string]interface{}, len(raw))}
	for k, v := range raw {
		switch k {
		case KeyID, KeyCreatedAt, KeyUpdatedAt, keyVersion:
			continue
		case KeyLike:
			b, ok := v.(bool)
			if !ok {
				return Payload{}, fmt.Errorf("%w: field %q must be a boolean", ErrInvalidPayload, KeyLike)
			}
			p.Like = &b
			continue
		}
		if err := checkKey(k); err != nil {
			return Payload{}, err
		}
		if err := checkNested(v); err != nil {
			return Payload{}, err
		}
		p.Fields[k] = v
	}
	return p, nil
}

func checkKey(k string) error {
	if k == "" || strings.HasPrefix(k, "$") || strings.Contains(k, ".") {
		return fmt.Errorf("%w: invalid field name %q", ErrInvalidPayload, k)
	}
	return nil
}

func checkNested(v interface{}) error {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, e := range t {
			if err := checkKey(k); err != nil {
				return err
			}
			if err := checkNested(e); err != nil {
				return err
			}
		}
	case []interface{}:
		for _, e := range t {
			if err := checkNested(e); err != nil {
				return err
			}
		}
	}
	return nil
}
