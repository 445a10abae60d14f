package repository

import (
	"context"
	"io"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"
)

// デザインファイル（DXFなど）のアップロードと検証
type DesignRepository interface {
	Upload(ctx context.Context, filename string, file io.Reader) (model.DesignUpload, error)
	ValidateDXF(ctx context.Context, filename string, file io.Reader) (model.DXFValidation, error)
}
