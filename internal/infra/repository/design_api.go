package repository

import (
	"context"
	"io"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/infra/apiclient"
)

type DesignAPIRepository struct {
	client *apiclient.Client
}

func NewDesignAPIRepository(client *apiclient.Client) *DesignAPIRepository {
	return &DesignAPIRepository{client: client}
}

// アップロードは自動リトライしない
func (r *DesignAPIRepository) Upload(ctx context.Context, filename string, file io.Reader) (model.DesignUpload, error) {
	return apiclient.Upload[model.DesignUpload](ctx, r.client, "/uploads/design", "file", filename, file,
		apiclient.WithOperation("upload_design"),
	)
}

func (r *DesignAPIRepository) ValidateDXF(ctx context.Context, filename string, file io.Reader) (model.DXFValidation, error) {
	return apiclient.Upload[model.DXFValidation](ctx, r.client, "/uploads/design/validate-dxf", "file", filename, file,
		apiclient.WithOperation("validate_dxf"),
	)
}
