package catalog

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

type AttributeKind string

const (
	AttributeText    AttributeKind = "text"
	AttributeNumber  AttributeKind = "number"
	AttributeSelect  AttributeKind = "select"
	AttributeBoolean AttributeKind = "boolean"
	AttributeDate    AttributeKind = "date"
)

var (
	ErrUnknownAttributeKind  = errors.New("unknown attribute kind")
	ErrInvalidAttribute      = errors.New("invalid attribute value")
	ErrAttributeNameRequired = errors.New("attribute name is required")
)

const attributeDateDisplay = "02.01.2006"

// AttributeType is a closed set: TextAttribute, NumberAttribute,
// SelectAttribute, BooleanAttribute, DateAttribute.
type AttributeType interface {
	Kind() AttributeKind
	attributeType()
}

type TextAttribute struct {
	MaxLength int
}

type NumberAttribute struct {
	Unit string
}

type SelectAttribute struct {
	Options []string
}

type BooleanAttribute struct{}

type DateAttribute struct{}

func (TextAttribute) Kind() AttributeKind    { return AttributeText }
func (NumberAttribute) Kind() AttributeKind  { return AttributeNumber }
func (SelectAttribute) Kind() AttributeKind  { return AttributeSelect }
func (BooleanAttribute) Kind() AttributeKind { return AttributeBoolean }
func (DateAttribute) Kind() AttributeKind    { return AttributeDate }

func (TextAttribute) attributeType()    {}
func (NumberAttribute) attributeType()  {}
func (SelectAttribute) attributeType()  {}
func (BooleanAttribute) attributeType() {}
func (DateAttribute) attributeType()    {}

type ProductAttribute struct {
	ID   int64
	Name string
	Type AttributeType
}

// AttributeValue is the raw value a product carries for one attribute.
type AttributeValue struct {
	Attribute ProductAttribute
	Value     string
}

func ParseAttributeType(kind string, options []string) (AttributeType, error) {
	switch AttributeKind(strings.ToLower(kind)) {
	case AttributeText:
		return TextAttribute{}, nil
	case AttributeNumber:
		return NumberAttribute{}, nil
	case AttributeSelect:
		if len(options) == 0 {
			return nil, fmt.Errorf("%w: select attribute needs at least one option", ErrInvalidAttribute)
		}
		return SelectAttribute{Options: options}, nil
	case AttributeBoolean:
		return BooleanAttribute{}, nil
	case AttributeDate:
		return DateAttribute{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAttributeKind, kind)
	}
}

// NewAttributeType is ParseAttributeType plus the per-kind settings: maxLength
// applies to text and unit to number attributes.
func NewAttributeType(kind string, options []string, maxLength int, unit string) (AttributeType, error) {
	t, err := ParseAttributeType(kind, options)
	if err != nil {
		return nil, err
	}

	switch at := t.(type) {
	case TextAttribute:
		if maxLength < 0 {
			return nil, fmt.Errorf("%w: max length cannot be negative", ErrInvalidAttribute)
		}
		at.MaxLength = maxLength
		return at, nil
	case NumberAttribute:
		at.Unit = strings.TrimSpace(unit)
		return at, nil
	default:
		return t, nil
	}
}

// AttributeSettings is the inverse of NewAttributeType.
func AttributeSettings(t AttributeType) (options []string, maxLength int, unit string) {
	switch at := t.(type) {
	case TextAttribute:
		return nil, at.MaxLength, ""
	case NumberAttribute:
		return nil, 0, at.Unit
	case SelectAttribute:
		return at.Options, 0, ""
	default:
		return nil, 0, ""
	}
}

// ValidateAttributeValue checks a raw stored value against its attribute type.
func ValidateAttributeValue(t AttributeType, raw string) error {
	switch at := t.(type) {
	case TextAttribute:
		if at.MaxLength > 0 && utf8.RuneCountInString(raw) > at.MaxLength {
			return fmt.Errorf("%w: text longer than %d characters", ErrInvalidAttribute, at.MaxLength)
		}
		return nil
	case NumberAttribute:
		if _, err := strconv.ParseFloat(raw, 64); err != nil {
			return fmt.Errorf("%w: %q is not a number", ErrInvalidAttribute, raw)
		}
		return nil
	case SelectAttribute:
		if !slices.Contains(at.Options, raw) {
			return fmt.Errorf("%w: %q is not one of %v", ErrInvalidAttribute, raw, at.Options)
		}
		return nil
	case BooleanAttribute:
		if _, err := strconv.ParseBool(raw); err != nil {
			return fmt.Errorf("%w: %q is not a boolean", ErrInvalidAttribute, raw)
		}
		return nil
	case DateAttribute:
		if _, err := time.Parse(time.DateOnly, raw); err != nil {
			return fmt.Errorf("%w: %q is not a date", ErrInvalidAttribute, raw)
		}
		return nil
	default:
		return fmt.Errorf("%w: %T", ErrUnknownAttributeKind, t)
	}
}

// FormatAttributeValue renders a raw stored value for display. Values that fail
// validation are returned unchanged.
func FormatAttributeValue(t AttributeType, raw string) string {
	if err := ValidateAttributeValue(t, raw); err != nil {
		return raw
	}

	switch at := t.(type) {
	case NumberAttribute:
		f, _ := strconv.ParseFloat(raw, 64)
		s := strconv.FormatFloat(f, 'f', -1, 64)
		if at.Unit != "" {
			return s + " " + at.Unit
		}
		return s
	case BooleanAttribute:
		if b, _ := strconv.ParseBool(raw); b {
			return "Yes"
		}
		return "No"
	case DateAttribute:
		d, _ := time.Parse(time.DateOnly, raw)
		return d.Format(attributeDateDisplay)
	case TextAttribute, SelectAttribute:
		return raw
	default:
		return raw
	}
}
