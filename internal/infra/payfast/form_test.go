package payfast

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"
)

func TestFormGateway_RendersHiddenFields(t *testing.T) {
	var buf bytes.Buffer
	gw := NewFormGateway(&buf)

	err := gw.Submit(context.Background(), model.PaymentRedirect{
		OrderID:    "ord_1",
		PayfastURL: "https://sandbox.payfast.co.za/eng/process",
		FormFields: []model.FormField{
			{Name: "merchant_id", Value: "10000100"},
			{Name: "item_name", Value: `Fire pit "XL" <steel>`},
		},
	})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, `action="https://sandbox.payfast.co.za/eng/process"`)
	assert.Contains(t, html, `name="merchant_id" value="10000100"`)
	// エスケープされる
	assert.Contains(t, html, `Fire pit &#34;XL&#34; &lt;steel&gt;`)
	assert.NotContains(t, html, `<steel>`)
}

func TestFormGateway_RejectsBadURL(t *testing.T) {
	var buf bytes.Buffer
	gw := NewFormGateway(&buf)

	err := gw.Submit(context.Background(), model.PaymentRedirect{PayfastURL: "javascript:alert(1)"})
	require.Error(t, err)
	assert.Empty(t, buf.String())
}

func TestFormGateway_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	err := NewFormGateway(&buf).Submit(ctx, model.PaymentRedirect{PayfastURL: "https://www.payfast.co.za/eng/process"})
	assert.ErrorIs(t, err, context.Canceled)
}
