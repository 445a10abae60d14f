package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

var ErrInvalidSnapshot = errors.New("invalid snapshot")

const cartSnapshotSchema = `{
  "type": "object",
  "required": ["items"],
  "properties": {
    "items": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["productId", "variantId", "quantity"],
        "properties": {
          "productId": {"type": "string"},
          "variantId": {"type": "string"},
          "quantity": {"type": "integer"}
        }
      }
    }
  }
}`

const addressSchema = `{
  "type": "object",
  "properties": {
    "line1": {"type": "string"},
    "line2": {"type": "string"},
    "suburb": {"type": "string"},
    "city": {"type": "string"},
    "province": {"type": "string"},
    "postal_code": {"type": "string"},
    "country": {"type": "string"}
  }
}`

var checkoutDraftSchema = `{
  "type": "object",
  "properties": {
    "email": {"type": "string"},
    "firstName": {"type": "string"},
    "lastName": {"type": "string"},
    "phone": {"type": "string"},
    "address": ` + addressSchema + `,
    "billingAddress": ` + addressSchema + `,
    "sameAsDelivery": {"type": "boolean"}
  }
}`

var (
	cartSchema  = mustSchema(cartSnapshotSchema)
	draftSchema = mustSchema(checkoutDraftSchema)
)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(err)
	}
	return schema
}

// 保存されたカートの形をチェック
func ValidateCartSnapshot(b []byte) error {
	return validate(cartSchema, b)
}

// 保存されたドラフトの形をチェック
func ValidateCheckoutDraft(b []byte) error {
	return validate(draftSchema, b)
}

func validate(schema *gojsonschema.Schema, b []byte) error {
	res, err := schema.Validate(gojsonschema.NewBytesLoader(b))
	if err != nil {
		// JSONとして読めない
		return fmt.Errorf("%w: %v", ErrInvalidSnapshot, err)
	}
	if res.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidSnapshot, strings.Join(msgs, "; "))
}
