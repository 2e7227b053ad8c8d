package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vishvavidya/traininghub/core/accesscard"
)

type accessCardApi struct {
	svc *accesscard.Service
}

func registerAccessCardAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *accesscard.Service) {
	api := accessCardApi{svc: svc}

	ag := g.Group("", jwt, staffMiddleware())
	ag.POST("/access-card-details", api.issue)
	ag.GET("/getAccessCards", api.list)
	ag.PUT("/updateAccessCard", api.update)
}

// Handlers

func (api *accessCardApi) issue(ctx echo.Context) error {
	var data accesscard.NewCard
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCard")
	}
	card, err := api.svc.Issue(ctx.Request().Context(), contextActor(ctx), data)
	if err != nil {
		return asMessage(errors.Wrap(err, "issuing access card"))
	}
	return ctx.JSON(http.StatusCreated, AccessCardIssuedResponse{
		Message: "Access card details submitted successfully!",
		Data:    IDResponse{ID: card.ID},
	})
}

func (api *accessCardApi) list(ctx echo.Context) error {
	cards, err := api.svc.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing access cards")
	}
	return ctx.JSON(http.StatusOK, AccessCardsResponse{Success: true, Data: cards})
}

func (api *accessCardApi) update(ctx echo.Context) error {
	var data accesscard.CardUpdate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CardUpdate")
	}
	card, err := api.svc.Update(ctx.Request().Context(), data)
	if err != nil {
		return asMessage(errors.Wrap(err, "updating access card"))
	}
	return ctx.JSON(http.StatusOK, card)
}

type (
	IDResponse struct {
		ID int64 `json:"id"`
	}

	AccessCardIssuedResponse struct {
		Message string     `json:"message"`
		Data    IDResponse `json:"data"`
	}

	AccessCardsResponse struct {
		Success bool              `json:"success"`
		Data    []accesscard.Card `json:"data"`
	}
)
