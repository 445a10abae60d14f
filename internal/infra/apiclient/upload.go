package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
)

// Upload はファイルをmultipartで送る。
// 途中まで読んだストリームを再送するのは危険なので、自動リトライはしない。
func Upload[T any](ctx context.Context, c *Client, path string, field string, filename string, file io.Reader, opts ...CallOption) (T, error) {
	var out T

	rb, err := multipartBody(field, filename, file)
	if err != nil {
		return out, &APIError{Message: "failed to build upload body", Err: err}
	}

	o := c.callOptions(opts)
	o.retries = 0

	res, apiErr := c.attempt(ctx, http.MethodPost, path, rb, o)
	if apiErr != nil {
		if ctx.Err() != nil {
			return out, canceledError(ctx.Err(), apiErr)
		}
		c.log.WithField("operation", o.operation).WithField("status", apiErr.Status).Warn("upload failed")
		return out, apiErr
	}
	if len(res.Body) == 0 {
		return out, nil
	}

	if err := json.Unmarshal(res.Body, &out); err != nil {
		return out, &APIError{
			Message: "failed to decode response body",
			Status:  res.Status,
			Body:    res.Body,
			Err:     err,
		}
	}
	return out, nil
}

func multipartBody(field string, filename string, file io.Reader) (requestBody, error) {
	if file == nil {
		return requestBody{}, fmt.Errorf("file is required")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile(field, filename)
	if err != nil {
		return requestBody{}, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return requestBody{}, err
	}
	if err := w.Close(); err != nil {
		return requestBody{}, err
	}

	return requestBody{data: buf.Bytes(), contentType: w.FormDataContentType()}, nil
}
