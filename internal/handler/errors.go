package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/nickchild-info/conbrako-laser-sub000/internal/infra/apiclient"
	repo "github.com/nickchild-info/conbrako-laser-sub000/internal/repository"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/usecase"
	"github.com/nickchild-info/conbrako-laser-sub000/internal/validator"
)

type ErrorResponse struct {
	Error    string                 `json:"error"`
	Category string                 `json:"category,omitempty"`
	Fields   []validator.FieldIssue `json:"fields,omitempty"`
	Problems []string               `json:"problems,omitempty"`
}

// writeError はエラーを画面に出せるJSONにする（どれも致命的にはしない）。
func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}
	if fe, ok := usecase.AsFieldError(err); ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "checkout incomplete", Fields: fe.Fields})
	}
	if cf, ok := usecase.AsCheckoutFailure(err); ok {
		return c.JSON(cf.HTTPStatus(), ErrorResponse{Error: cf.Message, Category: string(cf.Category)})
	}
	if ue, ok := usecase.AsUploadValidationError(err); ok {
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: ue.Message, Problems: ue.Problems})
	}

	switch {
	case errors.Is(err, usecase.ErrCartEmpty):
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cart empty"})
	case errors.Is(err, usecase.ErrSubmitInProgress):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: "submission in progress"})
	case errors.Is(err, usecase.ErrVariantNotFound), errors.Is(err, repo.ErrNotFound):
		return c.JSON(http.StatusNotFound, ErrorResponse{Error: "not found"})
	}

	// リモートAPIの4xxはそのまま、届かない/5xxは502
	if ae, ok := apiclient.AsAPIError(err); ok {
		if ae.Status >= 400 && ae.Status < 500 {
			return c.JSON(ae.Status, ErrorResponse{Error: ae.Message})
		}
		return c.JSON(http.StatusBadGateway, ErrorResponse{Error: ae.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}
