package models

import (
	"fmt"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/bson"
)

// FieldKind is the storage type of a mutable product field.
type FieldKind int

const (
	FieldString FieldKind = iota
	FieldNumber
	FieldBool
	FieldStringList
	FieldUnit
)

// Field names as stored and as accepted in request payloads.
const (
	FieldName           = "name"
	FieldThumbnail      = "thumbnail"
	FieldDetailedImages = "detailedImages"
	FieldStockQuantity  = "stockQuantity"
	FieldSoldPackets    = "soldPackets"
	FieldCategory       = "category"
	FieldPacketPrice    = "packetPrice"
)

var productFields = map[string]FieldKind{
	"name":                  FieldString,
	"stockQuantity":         FieldNumber,
	"stockUnit":             FieldUnit,
	"packetQuantity":        FieldNumber,
	"soldPackets":           FieldNumber,
	"packetUnit":            FieldUnit,
	"packetPrice":           FieldNumber,
	"boxQuantity":           FieldNumber,
	"category":              FieldString,
	"description":           FieldString,
	"thumbnail":             FieldString,
	"detailedImages":        FieldStringList,
	"packagingType":         FieldString,
	"friesType":             FieldString,
	"feature":               FieldString,
	"selfLife":              FieldString,
	"storageMethod":         FieldString,
	"temprature":            FieldString,
	"usageApplication":      FieldString,
	"refrigerationRequired": FieldBool,
	"countryOfOrigin":       FieldString,
	"application":           FieldString,
	"frozenTemprature":      FieldString,
	"ingrediants":           FieldString,
	"form":                  FieldString,
}

// optionalFields may be absent on create.
var optionalFields = map[string]bool{
	FieldSoldPackets:    true,
	FieldThumbnail:      true,
	FieldDetailedImages: true,
}

var validate = newValidator()

// fieldRules maps a wire field name to its validate tag on Product.
var fieldRules = productFieldRules()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)
	return v
}

func jsonName(f reflect.StructField) string {
	name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

func productFieldRules() map[string]string {
	rules := map[string]string{}
	t := reflect.TypeOf(Product{})
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if tag := f.Tag.Get("validate"); tag != "" {
			rules[jsonName(f)] = tag
		}
	}
	return rules
}

// FieldError describes every field that failed coercion or validation.
type FieldError struct {
	Fields map[string]string
}

func (e *FieldError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid product fields: " + strings.Join(parts, "; ")
}

// CoerceFields converts raw request values (form strings, JSON numbers) to
// their storage types. Unknown keys and the system-managed keys (_id,
// createdAt, updatedAt) are dropped. Empty strings are rejected for string
// fields, since every string field except thumbnail is required.
func CoerceFields(raw map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(raw))
	problems := map[string]string{}

	for key, value := range raw {
		kind, ok := productFields[key]
		if !ok {
			continue
		}
		v, err := coerce(kind, value)
		if err != nil {
			problems[key] = err.Error()
			continue
		}
		if s, isString := v.(string); isString && s == "" && key != FieldThumbnail {
			problems[key] = "must not be empty"
			continue
		}
		out[key] = v
	}

	if len(problems) > 0 {
		return nil, &FieldError{Fields: problems}
	}
	return out, nil
}

func coerce(kind FieldKind, value interface{}) (interface{}, error) {
	switch kind {
	case FieldNumber:
		f, err := cast.ToFloat64E(value)
		if err != nil {
			return nil, fmt.Errorf("must be a number")
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("must be a finite number")
		}
		return f, nil
	case FieldBool:
		b, err := cast.ToBoolE(value)
		if err != nil {
			return nil, fmt.Errorf("must be a boolean")
		}
		return b, nil
	case FieldStringList:
		list, err := cast.ToStringSliceE(value)
		if err != nil {
			return nil, fmt.Errorf("must be a list of strings")
		}
		return list, nil
	case FieldUnit:
		s := strings.TrimSpace(cast.ToString(value))
		if err := validate.Var(s, "required,oneof=gram kg piece packet box"); err != nil {
			return nil, fmt.Errorf("must be one of %s", strings.Join(Units, ", "))
		}
		return s, nil
	default:
		s, err := cast.ToStringE(value)
		if err != nil {
			return nil, fmt.Errorf("must be a string")
		}
		return strings.TrimSpace(s), nil
	}
}

// ValidateFields applies the per-field Product rules to a coerced partial
// field set, as used by updates.
func ValidateFields(fields map[string]interface{}) error {
	problems := map[string]string{}
	for key, value := range fields {
		rule, ok := fieldRules[key]
		if !ok {
			continue
		}
		if err := validate.Var(value, rule); err != nil {
			if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
				problems[key] = fmt.Sprintf("failed %s", verrs[0].Tag())
				continue
			}
			problems[key] = err.Error()
		}
	}
	if len(problems) > 0 {
		return &FieldError{Fields: problems}
	}
	return nil
}

// NewProduct builds a product from a coerced field set, requiring every
// mandatory field.
func NewProduct(fields map[string]interface{}) (*Product, error) {
	missing := map[string]string{}
	for key := range productFields {
		if _, ok := fields[key]; !ok && !optionalFields[key] {
			missing[key] = "is required"
		}
	}
	if len(missing) > 0 {
		return nil, &FieldError{Fields: missing}
	}

	raw, err := bson.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	var p Product
	if err := bson.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	if p.DetailedImages == nil {
		p.DetailedImages = []string{}
	}
	if err := validate.Struct(&p); err != nil {
		return nil, toFieldError(err)
	}
	return &p, nil
}

func toFieldError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := map[string]string{}
	for _, fe := range verrs {
		fields[fe.Field()] = fmt.Sprintf("failed %s", fe.Tag())
	}
	return &FieldError{Fields: fields}
}
