package echoapi

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vishvavidya/traininghub/core/catalog"
)

type catalogApi struct {
	svc *catalog.Service
}

func registerCatalogAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *catalog.Service) {
	api := catalogApi{svc: svc}

	cg := g.Group("", jwt, staffMiddleware())
	cg.GET("/tracks", api.listTracks)
	cg.POST("/tracks", api.createTrack)
	cg.PUT("/tracks/:id", api.updateTrack)
	cg.DELETE("/tracks/:id", api.deleteTrack)
	cg.GET("/batches", api.listBatches)
	cg.POST("/batches", api.createBatch)
	cg.GET("/getBatchesByTrack", api.batchesByTrack)
	cg.GET("/generate-batch-name/:trackName", api.generateBatchName)
}

func trackID(ctx echo.Context) (int, error) {
	id, err := strconv.Atoi(ctx.Param("id"))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusNotFound, MessageResponse{Message: catalog.ErrTrackNotFound.Message})
	}
	return id, nil
}

// Handlers

func (api *catalogApi) listTracks(ctx echo.Context) error {
	tracks, err := api.svc.ListTracks(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing tracks")
	}
	return ctx.JSON(http.StatusOK, tracks)
}

func (api *catalogApi) createTrack(ctx echo.Context) error {
	var data catalog.TrackInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TrackInput")
	}
	track, err := api.svc.CreateTrack(ctx.Request().Context(), contextActor(ctx), data)
	if err != nil {
		return asMessage(errors.Wrap(err, "creating track"))
	}
	return ctx.JSON(http.StatusCreated, TrackResponse{Message: "Track added successfully", Track: track})
}

func (api *catalogApi) updateTrack(ctx echo.Context) error {
	id, err := trackID(ctx)
	if err != nil {
		return err
	}
	var data catalog.TrackInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TrackInput")
	}
	track, err := api.svc.UpdateTrack(ctx.Request().Context(), contextActor(ctx), id, data)
	if err != nil {
		return asMessage(errors.Wrap(err, "updating track"))
	}
	return ctx.JSON(http.StatusOK, TrackResponse{Message: "Track updated successfully", Track: track})
}

func (api *catalogApi) deleteTrack(ctx echo.Context) error {
	id, err := trackID(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.DeleteTrack(ctx.Request().Context(), id); err != nil {
		return asMessage(errors.Wrap(err, "deleting track"))
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Track deleted successfully"})
}

func (api *catalogApi) listBatches(ctx echo.Context) error {
	batches, err := api.svc.ListBatches(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing batches")
	}
	return ctx.JSON(http.StatusOK, batches)
}

func (api *catalogApi) createBatch(ctx echo.Context) error {
	var data catalog.BatchInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BatchInput")
	}
	batch, err := api.svc.CreateBatch(ctx.Request().Context(), contextActor(ctx), data)
	if err != nil {
		return asMessage(errors.Wrap(err, "creating batch"))
	}
	return ctx.JSON(http.StatusCreated, BatchCreatedResponse{Message: "Batch created successfully", Batch: batch})
}

func (api *catalogApi) batchesByTrack(ctx echo.Context) error {
	batches, err := api.svc.BatchesByTrack(ctx.Request().Context(), ctx.QueryParam("trackName"))
	if err != nil {
		return asMessage(errors.Wrap(err, "listing track batches"))
	}
	return ctx.JSON(http.StatusOK, batches)
}

func (api *catalogApi) generateBatchName(ctx echo.Context) error {
	name, err := api.svc.GenerateBatchName(ctx.Request().Context(), ctx.Param("trackName"))
	if err != nil {
		return asMessage(errors.Wrap(err, "generating batch name"))
	}
	return ctx.JSON(http.StatusOK, BatchNameResponse{BatchName: name})
}

type (
	TrackResponse struct {
		Message string        `json:"message"`
		Track   catalog.Track `json:"track"`
	}

	BatchCreatedResponse struct {
		Message string        `json:"message"`
		Batch   catalog.Batch `json:"batch"`
	}

	BatchNameResponse struct {
		BatchName string `json:"batchName"`
	}
)
