package echoapi

import (
	"net/http"

	graphql "github.com/graph-gophers/graphql-go"
	"github.com/labstack/echo/v4"
)

type graphqlRequest struct {
	Query         string                 `json:"query"`
	OperationName string                 `json:"operationName"`
	Variables     map[string]interface{} `json:"variables"`
}

type graphqlAPI struct {
	schema    *graphql.Schema
	presenter errorPresenter
}

func (api *graphqlAPI) serve(ctx echo.Context) error {
	var req graphqlRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if req.Query == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing query")
	}

	reqCtx := ctx.Request().Context()
	resp := api.schema.Exec(reqCtx, req.Query, req.OperationName, req.Variables)
	api.presenter.present(reqCtx, resp.Errors)
	return ctx.JSON(http.StatusOK, resp)
}
