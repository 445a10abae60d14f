package usecase

import (
	"context"
	"io"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"
	repo "github.com/nickchild-info/conbrako-laser-sub000/internal/repository"
)

// アップロード上限 20MB
const MaxDesignFileSize int64 = 20 << 20

// 受け付けるデザイン形式
var designExtensions = map[string]bool{
	".dxf": true,
	".svg": true,
	".pdf": true,
	".ai":  true,
}

type DesignUsecase struct {
	designs repo.DesignRepository
	log     logrus.FieldLogger
}

func NewDesignUsecase(designs repo.DesignRepository, log logrus.FieldLogger) *DesignUsecase {
	return &DesignUsecase{designs: designs, log: log.WithField("component", "design")}
}

// Upload はファイルを送ってサーバーの検証結果を返す。
// 無効と判定されたら結果と一緒に *UploadValidationError を返す。
func (u *DesignUsecase) Upload(ctx context.Context, filename string, size int64, file io.Reader) (model.DesignUpload, error) {
	if err := checkDesignFile(filename, size, designExtensions); err != nil {
		return model.DesignUpload{}, err
	}

	res, err := u.designs.Upload(ctx, filename, file)
	if err != nil {
		return model.DesignUpload{}, err
	}
	if !res.IsValid {
		msg := res.ValidationMessage
		if msg == "" {
			msg = "design failed validation"
		}
		u.log.WithFields(logrus.Fields{"filename": filename, "file_id": res.FileID}).Info("design rejected")
		return res, &UploadValidationError{Filename: filename, Message: msg, Remote: true}
	}
	return res, nil
}

// ValidateDXF はDXFの構造だけを確認する（保存しない）。
// 警告だけなら有効扱い。
func (u *DesignUsecase) ValidateDXF(ctx context.Context, filename string, size int64, file io.Reader) (model.DXFValidation, error) {
	if err := checkDesignFile(filename, size, map[string]bool{".dxf": true}); err != nil {
		return model.DXFValidation{}, err
	}

	res, err := u.designs.ValidateDXF(ctx, filename, file)
	if err != nil {
		return model.DXFValidation{}, err
	}
	if !res.IsValid || len(res.Errors) > 0 {
		return res, &UploadValidationError{Filename: filename, Message: "invalid DXF", Problems: res.Errors, Remote: true}
	}
	return res, nil
}

// 送る前にわかる問題（名前・拡張子・サイズ）
func checkDesignFile(filename string, size int64, allowed map[string]bool) error {
	name := strings.TrimSpace(filename)
	if name == "" {
		return &UploadValidationError{Filename: filename, Message: "filename is required"}
	}
	ext := strings.ToLower(filepath.Ext(name))
	if !allowed[ext] {
		return &UploadValidationError{Filename: filename, Message: "unsupported file type " + ext}
	}
	if size == 0 {
		return &UploadValidationError{Filename: filename, Message: "file is empty"}
	}
	if size > MaxDesignFileSize {
		return &UploadValidationError{Filename: filename, Message: "file is too large"}
	}
	return nil
}
