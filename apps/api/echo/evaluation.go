package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vishvavidya/traininghub/core/evaluation"
)

type evaluationApi struct {
	svc *evaluation.Service
}

func registerEvaluationAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *evaluation.Service) {
	api := evaluationApi{svc: svc}

	eg := g.Group("/evaluations", jwt, staffMiddleware())
	eg.POST("", api.record)
	eg.GET("", api.query)
	eg.PUT("/:id", api.update)
}

// Handlers

func (api *evaluationApi) record(ctx echo.Context) error {
	var data evaluation.BatchScores
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BatchScores")
	}
	n, err := api.svc.Record(ctx.Request().Context(), contextActor(ctx), data)
	if err != nil {
		return asMessage(errors.Wrap(err, "recording evaluations"))
	}
	return ctx.JSON(http.StatusOK, CountResponse{Message: "Evaluations processed successfully.", Count: n})
}

func (api *evaluationApi) update(ctx echo.Context) error {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		return asMessage(evaluation.ErrNotFound)
	}
	var data evaluation.ScoreUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ScoreUpdate")
	}
	ev, err := api.svc.Update(ctx.Request().Context(), contextActor(ctx), id, data)
	if err != nil {
		return asMessage(errors.Wrap(err, "updating evaluation"))
	}
	return ctx.JSON(http.StatusOK, EvaluationUpdatedResponse{Message: "Evaluation updated successfully", Evaluation: ev})
}

func (api *evaluationApi) query(ctx echo.Context) error {
	var filter evaluation.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	evs, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying evaluations")
	}
	return ctx.JSON(http.StatusOK, evs)
}

type EvaluationUpdatedResponse struct {
	Message    string                `json:"message"`
	Evaluation evaluation.Evaluation `json:"data"`
}
