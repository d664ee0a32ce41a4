/*
Package typedtable – DynamoDB wire codec.

Properties travel as DynamoDB attribute values:

	String          S
	Binary          B
	Boolean         BOOL
	DateTimeOffset  S (RFC 3339, nanosecond precision, offset kept)
	Double          N
	Guid            S (canonical UUID form)
	Int32, Int64    N
	no value        NULL

DynamoDB does not record which variant produced an attribute, so decoding
needs the variant the target field resolved to.
*/
package typedtable

import (
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
)

// EncodeProperty converts p to its DynamoDB attribute value.
func EncodeProperty(p Property) (types.AttributeValue, error) {
	if !p.typ.Valid() {
		return nil, NewError("Cannot encode invalid property", WithCode(CodeWire))
	}
	if !p.valid {
		return &types.AttributeValueMemberNULL{Value: true}, nil
	}
	switch p.typ {
	case WireString:
		return &types.AttributeValueMemberS{Value: p.str}, nil
	case WireBinary:
		return &types.AttributeValueMemberB{Value: p.bin}, nil
	case WireBoolean:
		return &types.AttributeValueMemberBOOL{Value: p.b}, nil
	case WireDateTimeOffset:
		return &types.AttributeValueMemberS{Value: p.t.Format(time.RFC3339Nano)}, nil
	case WireGuid:
		return &types.AttributeValueMemberS{Value: p.g.String()}, nil
	}
	av, err := attributevalue.Marshal(p.Value())
	if err != nil {
		return nil, NewError("Cannot encode "+p.typ.String()+" property", WithCode(CodeWire), WithCause(err))
	}
	return av, nil
}

// DecodeProperty converts av to a property of variant w.
func DecodeProperty(av types.AttributeValue, w WireType) (Property, error) {
	if !w.Valid() {
		return Property{}, NewError("Cannot decode into invalid wire type", WithCode(CodeWire))
	}
	if av == nil {
		return Property{}, NewError("Missing attribute value for "+w.String(), WithCode(CodeWire))
	}
	if _, ok := av.(*types.AttributeValueMemberNULL); ok {
		return NewNullProperty(w), nil
	}

	_, isNumber := av.(*types.AttributeValueMemberN)
	switch w {
	case WireString:
		if s, ok := av.(*types.AttributeValueMemberS); ok {
			return NewStringProperty(s.Value), nil
		}
	case WireBinary:
		if b, ok := av.(*types.AttributeValueMemberB); ok {
			if b.Value == nil {
				return NewBinaryProperty([]byte{}), nil
			}
			return NewBinaryProperty(b.Value), nil
		}
	case WireBoolean:
		if b, ok := av.(*types.AttributeValueMemberBOOL); ok {
			return NewBooleanProperty(b.Value), nil
		}
	case WireDateTimeOffset:
		if s, ok := av.(*types.AttributeValueMemberS); ok {
			t, err := time.Parse(time.RFC3339Nano, s.Value)
			if err != nil {
				return Property{}, decodeError(w, err)
			}
			return NewDateTimeOffsetProperty(t), nil
		}
	case WireGuid:
		if s, ok := av.(*types.AttributeValueMemberS); ok {
			g, err := uuid.Parse(s.Value)
			if err != nil {
				return Property{}, decodeError(w, err)
			}
			return NewGuidProperty(g), nil
		}
	case WireDouble:
		if !isNumber {
			break
		}
		var f float64
		if err := attributevalue.Unmarshal(av, &f); err != nil {
			return Property{}, decodeError(w, err)
		}
		return NewDoubleProperty(f), nil
	case WireInt32:
		if !isNumber {
			break
		}
		var i int32
		if err := attributevalue.Unmarshal(av, &i); err != nil {
			return Property{}, decodeError(w, err)
		}
		return NewInt32Property(i), nil
	case WireInt64:
		if !isNumber {
			break
		}
		var i int64
		if err := attributevalue.Unmarshal(av, &i); err != nil {
			return Property{}, decodeError(w, err)
		}
		return NewInt64Property(i), nil
	}
	return Property{}, NewError("Unexpected attribute value for "+w.String(), WithCode(CodeWire),
		WithContext(map[string]any{"want": w.String(), "got": attributeKind(av)}))
}

func decodeError(w WireType, err error) *Error {
	return NewError("Cannot decode "+w.String()+" property", WithCode(CodeWire), WithCause(err))
}

func attributeKind(av types.AttributeValue) string {
	switch av.(type) {
	case *types.AttributeValueMemberS:
		return "S"
	case *types.AttributeValueMemberN:
		return "N"
	case *types.AttributeValueMemberB:
		return "B"
	case *types.AttributeValueMemberBOOL:
		return "BOOL"
	case *types.AttributeValueMemberM:
		return "M"
	case *types.AttributeValueMemberL:
		return "L"
	case *types.AttributeValueMemberSS:
		return "SS"
	case *types.AttributeValueMemberNS:
		return "NS"
	case *types.AttributeValueMemberBS:
		return "BS"
	}
	return "unknown"
}
