package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/domain/model"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/middleware"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/usecase"
)

// /designs のHTTP（multipart の file）
type DesignHandler struct {
	uc *usecase.DesignUsecase
}

// サーバーが無効と判定したときの応答
type DesignRejectedResponse struct {
	ErrorResponse
	Upload     *model.DesignUpload  `json:"upload,omitempty"`
	Validation *model.DXFValidation `json:"validation,omitempty"`
}

// DI
func NewDesignHandler(uc *usecase.DesignUsecase) *DesignHandler {
	return &DesignHandler{uc: uc}
}

func (h *DesignHandler) RegisterRoutes(e *echo.Echo, jwtSecret string) {
	g := e.Group("/designs")
	g.Use(middleware.SessionJWT(jwtSecret))

	g.POST("", h.upload)
	g.POST("/validate-dxf", h.validateDXF)
}

func (h *DesignHandler) upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid file"})
	}
	defer f.Close()

	res, err := h.uc.Upload(c.Request().Context(), fh.Filename, fh.Size, f)
	if err != nil {
		if ue, ok := usecase.AsUploadValidationError(err); ok && ue.Remote {
			// サーバーの判定結果も返す
			return c.JSON(http.StatusUnprocessableEntity, DesignRejectedResponse{
				ErrorResponse: ErrorResponse{Error: ue.Message, Problems: ue.Problems},
				Upload:        &res,
			})
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *DesignHandler) validateDXF(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file is required"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid file"})
	}
	defer f.Close()

	res, err := h.uc.ValidateDXF(c.Request().Context(), fh.Filename, fh.Size, f)
	if err != nil {
		if ue, ok := usecase.AsUploadValidationError(err); ok && ue.Remote {
			return c.JSON(http.StatusUnprocessableEntity, DesignRejectedResponse{
				ErrorResponse: ErrorResponse{Error: ue.Message, Problems: ue.Problems},
				Validation:    &res,
			})
		}
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
