package payfast

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"net/url"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"
)

// PayFastへ自動送信するフォーム。項目はサーバーが署名済みのものをそのまま使う。
var formTemplate = template.Must(template.New("payfast").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Redirecting to PayFast</title></head>
<body onload="document.forms[0].submit()">
<form method="POST" action="{{.PayfastURL}}">
{{- range .FormFields}}
<input type="hidden" name="{{.Name}}" value="{{.Value}}">
{{- end}}
<noscript><button type="submit">Continue to payment</button></noscript>
</form>
</body>
</html>
`))

// RenderForm は自動送信フォームを書き出す。
func RenderForm(w io.Writer, redirect model.PaymentRedirect) error {
	u, err := url.Parse(redirect.PayfastURL)
	if err != nil || u.Host == "" || (u.Scheme != "https" && u.Scheme != "http") {
		return fmt.Errorf("payfast: invalid redirect url %q", redirect.PayfastURL)
	}
	return formTemplate.Execute(w, redirect)
}

// FormGateway はフォームを w に書く決済ゲートウェイ
type FormGateway struct {
	w io.Writer
}

func NewFormGateway(w io.Writer) *FormGateway {
	return &FormGateway{w: w}
}

func (g *FormGateway) Submit(ctx context.Context, redirect model.PaymentRedirect) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return RenderForm(g.w, redirect)
}
