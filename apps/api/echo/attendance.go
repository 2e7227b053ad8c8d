package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vishvavidya/traininghub/core/attendance"
)

type attendanceApi struct {
	svc *attendance.Service
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *attendance.Service) {
	api := attendanceApi{svc: svc}

	ag := g.Group("", jwt, staffMiddleware())
	ag.POST("/saveAttendance", api.save)
	ag.GET("/getAttendance", api.query)
	ag.PUT("/updateAttendance", api.correct)
	ag.POST("/generate-absentee-notifications", api.generateAbsentees)
	ag.GET("/absentees", api.latestAbsentees)
	ag.PUT("/absentee-notifications/mark-seen", api.markAbsenteesSeen)
}

// Handlers

func (api *attendanceApi) save(ctx echo.Context) error {
	var data attendance.Sheet
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Sheet")
	}
	if _, err := api.svc.Save(ctx.Request().Context(), contextActor(ctx), data); err != nil {
		return errors.Wrap(err, "saving attendance")
	}
	return ctx.JSON(http.StatusCreated, MessageResponse{Message: "Attendance saved successfully!"})
}

func (api *attendanceApi) correct(ctx echo.Context) error {
	var data attendance.Correction
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Correction")
	}
	rec, err := api.svc.Correct(ctx.Request().Context(), contextActor(ctx), data)
	if err != nil {
		return asMessage(errors.Wrap(err, "updating attendance"))
	}
	return ctx.JSON(http.StatusOK, AttendanceUpdatedResponse{Message: "Attendance updated successfully", Record: rec})
}

func (api *attendanceApi) query(ctx echo.Context) error {
	var filter attendance.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	recs, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return ctx.JSON(http.StatusOK, recs)
}

func (api *attendanceApi) generateAbsentees(ctx echo.Context) error {
	n, err := api.svc.GenerateAbsenteeFlags(ctx.Request().Context(), attendance.NowFunc())
	if err != nil {
		return errors.Wrap(err, "generating absentee notifications")
	}
	return ctx.JSON(http.StatusOK, CountResponse{Message: "Absentee notifications generated.", Count: n})
}

func (api *attendanceApi) latestAbsentees(ctx echo.Context) error {
	absentees, err := api.svc.LatestAbsentees(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing absentees")
	}
	return ctx.JSON(http.StatusOK, absentees)
}

func (api *attendanceApi) markAbsenteesSeen(ctx echo.Context) error {
	n, err := api.svc.MarkAbsenteesSeen(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "marking absentees seen")
	}
	return ctx.JSON(http.StatusOK, CountResponse{Message: "All notifications marked as seen.", Count: n})
}

type AttendanceUpdatedResponse struct {
	Message string            `json:"message"`
	Record  attendance.Record `json:"data"`
}
