package engine

import (
	"fmt"
	"strings"
)

// Field is a canonical record field a condition can test.
type Field int

const (
	FieldFromAddress Field = iota
	FieldSubject
	FieldBodyPlain
	FieldToAddresses
	FieldCcAddresses
	FieldBccAddresses
	FieldReceivedAt
)

// Kind classifies how a field's value is compared.
type Kind int

const (
	KindString Kind = iota
	KindAddressList
	KindTime
)

func (f Field) String() string {
	switch f {
	case FieldFromAddress:
		return "from_address"
	case FieldSubject:
		return "subject"
	case FieldBodyPlain:
		return "body_plain"
	case FieldToAddresses:
		return "to_addresses"
	case FieldCcAddresses:
		return "cc_addresses"
	case FieldBccAddresses:
		return "bcc_addresses"
	case FieldReceivedAt:
		return "received_datetime"
	default:
		return fmt.Sprintf("field(%d)", int(f))
	}
}

// Kind returns the value kind predicates see for this field.
func (f Field) Kind() Kind {
	switch f {
	case FieldToAddresses, FieldCcAddresses, FieldBccAddresses:
		return KindAddressList
	case FieldReceivedAt:
		return KindTime
	default:
		return KindString
	}
}

// fieldAliases maps lowercased rule-file field names to canonical fields.
// Canonical names map to themselves.
var fieldAliases = map[string]Field{
	"from_address":       FieldFromAddress,
	"from":               FieldFromAddress,
	"subject":            FieldSubject,
	"body_plain":         FieldBodyPlain,
	"message":            FieldBodyPlain,
	"to_addresses":       FieldToAddresses,
	"to":                 FieldToAddresses,
	"cc_addresses":       FieldCcAddresses,
	"cc":                 FieldCcAddresses,
	"bcc_addresses":      FieldBccAddresses,
	"bcc":                FieldBccAddresses,
	"received_datetime":  FieldReceivedAt,
	"date received":      FieldReceivedAt,
	"received date/time": FieldReceivedAt,
}

// ResolveField maps a rule's field name, case-insensitively and through
// the alias table, to a canonical field.
func ResolveField(name string) (Field, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if f, ok := fieldAliases[key]; ok {
		return f, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnresolvedField, name)
}
