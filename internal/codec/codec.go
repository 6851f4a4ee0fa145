// Package codec encodes the line items stored in the orders.items column.
//
// Items are written as a JSON array of {"name","qty"} objects. Readers also accept
// the older {"name","quantity"} spelling and a {"<name>": <qty>} object whose key
// order is kept. Everything else is reported as a CorruptRecordError.
package codec

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Additional-Code/kusina/internal/entity"
)

// ErrCorruptRecord is matched by every CorruptRecordError via errors.Is.
var ErrCorruptRecord = errors.New("corrupt record")

// CorruptRecordError describes a stored payload that no decoder accepts.
type CorruptRecordError struct {
	Payload string
	Reason  string
	Cause   error
}

func (e *CorruptRecordError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("corrupt line items (%s): %v", e.Reason, e.Cause)
	}
	return fmt.Sprintf("corrupt line items (%s)", e.Reason)
}

func (e *CorruptRecordError) Unwrap() error { return e.Cause }

func (e *CorruptRecordError) Is(target error) bool { return target == ErrCorruptRecord }

// Encode renders items in the canonical form.
func Encode(items []entity.LineItem) (string, error) {
	if items == nil {
		items = []entity.LineItem{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return "", err
	}
	return string(payload), nil
}

// Decode parses a stored payload, trying each supported encoding in turn.
func Decode(payload string) ([]entity.LineItem, error) {
	trimmed := bytes.TrimSpace([]byte(payload))
	if len(trimmed) == 0 {
		return nil, corrupt(payload, "empty payload", nil)
	}

	var (
		items []entity.LineItem
		err   error
	)
	switch trimmed[0] {
	case '[':
		items, err = decodeArray(trimmed)
		if err != nil {
			return nil, corrupt(payload, "invalid item array", err)
		}
	case '{':
		items, err = decodeObject(trimmed)
		if err != nil {
			return nil, corrupt(payload, "invalid item object", err)
		}
	default:
		return nil, corrupt(payload, "unsupported encoding", nil)
	}

	if err := Validate(items); err != nil {
		return nil, corrupt(payload, "invalid item", err)
	}
	return items, nil
}

// Validate checks that every entry names a dish and orders at least one of it.
func Validate(items []entity.LineItem) error {
	for i, item := range items {
		if strings.TrimSpace(item.Name) == "" {
			return fmt.Errorf("item %d: name is required", i)
		}
		if item.Qty <= 0 {
			return fmt.Errorf("item %d (%s): qty must be positive", i, item.Name)
		}
	}
	return nil
}

type arrayEntry struct {
	Name     string `json:"name"`
	Qty      *int   `json:"qty"`
	Quantity *int   `json:"quantity"`
}

func decodeArray(payload []byte) ([]entity.LineItem, error) {
	var entries []arrayEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, err
	}

	items := make([]entity.LineItem, 0, len(entries))
	for i, e := range entries {
		var qty int
		switch {
		case e.Qty != nil:
			qty = *e.Qty
		case e.Quantity != nil:
			qty = *e.Quantity
		default:
			return nil, fmt.Errorf("item %d: missing qty", i)
		}
		items = append(items, entity.LineItem{Name: e.Name, Qty: qty})
	}
	return items, nil
}

func decodeObject(payload []byte) ([]entity.LineItem, error) {
	dec := json.NewDecoder(bytes.NewReader(payload))

	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var items []entity.LineItem
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		name, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected key %v", tok)
		}
		var qty int
		if err := dec.Decode(&qty); err != nil {
			return nil, fmt.Errorf("item %q: %w", name, err)
		}
		items = append(items, entity.LineItem{Name: name, Qty: qty})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after item object")
	}
	return items, nil
}

func corrupt(payload, reason string, cause error) error {
	return &CorruptRecordError{Payload: payload, Reason: reason, Cause: cause}
}
