package messaging

import (
	"encoding/json"
	"fmt"
)

// Metadata is a closed union over the structured payloads a message can carry.
// TEXT messages carry none, RENTAL_CONFIRMATION messages carry the rental
// snapshot, and anything else round-trips through UnknownMeta untouched so
// future message types survive this service unmodified.
type Metadata interface {
	metadataKind() string
}

// TextMeta is the empty payload of a plain text message.
type TextMeta struct{}

func (TextMeta) metadataKind() string { return "text" }

// RentalConfirmationMeta references the rental created by the confirmation
// workflow. Dates are YYYY-MM-DD strings, price is the monthly snapshot.
type RentalConfirmationMeta struct {
	RentalID     string  `json:"rentalId"`
	BoxID        string  `json:"boxId"`
	StartDate    string  `json:"startDate"`
	EndDate      *string `json:"endDate,omitempty"`
	MonthlyPrice float64 `json:"monthlyPrice"`
}

func (RentalConfirmationMeta) metadataKind() string { return "rental_confirmation" }

// UnknownMeta preserves a payload this service does not model.
type UnknownMeta json.RawMessage

func (UnknownMeta) metadataKind() string { return "unknown" }

// MarshalJSON emits the raw payload verbatim.
func (u UnknownMeta) MarshalJSON() ([]byte, error) {
	if len(u) == 0 {
		return []byte("null"), nil
	}
	return json.RawMessage(u).MarshalJSON()
}

// EncodeMetadata serializes metadata for storage. Text messages encode to nil
// so the column stays NULL for the overwhelmingly common case.
func EncodeMetadata(m Metadata) ([]byte, error) {
	switch v := m.(type) {
	case nil, TextMeta:
		return nil, nil
	case RentalConfirmationMeta:
		return json.Marshal(v)
	case UnknownMeta:
		if len(v) == 0 {
			return nil, nil
		}
		return json.RawMessage(v), nil
	default:
		return nil, fmt.Errorf("messaging: unhandled metadata type %T", m)
	}
}

// DecodeMetadata deserializes a stored payload according to the message type.
// Payloads of unrecognized types are kept as UnknownMeta rather than dropped.
func DecodeMetadata(t MessageType, raw []byte) (Metadata, error) {
	if len(raw) == 0 {
		return TextMeta{}, nil
	}
	switch t {
	case MessageTypeText, MessageTypeSystem:
		// System notices are plain text; any stray payload is ignored.
		return TextMeta{}, nil
	case MessageTypeRentalConfirmed:
		var m RentalConfirmationMeta
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, fmt.Errorf("messaging: decode rental confirmation metadata: %w", err)
		}
		return m, nil
	default:
		cp := make([]byte, len(raw))
		copy(cp, raw)
		return UnknownMeta(cp), nil
	}
}
