package echoapi

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/vishvavidya/traininghub/core"
	"github.com/vishvavidya/traininghub/core/student"
	"github.com/vishvavidya/traininghub/services/spreadsheet"
)

const intakeFileField = "file"

type studentApi struct {
	svc *student.Service
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *student.Service) {
	api := studentApi{svc: svc}

	sg := g.Group("", jwt, staffMiddleware())
	sg.POST("/student-registration-form", api.register)
	sg.POST("/studentRegistrationExcelUpload", api.intake)
	sg.PUT("/moveStudent/:id", api.move)
	sg.PUT("/move-students-to-batch", api.moveBulk)
	sg.POST("/changeStudentStatus", api.changeStatus)
	sg.DELETE("/deleteStudent/:id", api.removeFromBatch)
	sg.GET("/getstudents", api.query)
	sg.GET("/no-batch-students", api.listUnassigned)
	sg.GET("/getStudentBatch", api.currentBatch)

	ig := g.Group("", jwt)
	ig.GET("/getStudentDetails/:student_id", api.details, selfOrStaffMiddleware("student_id"))
	ig.GET("/student-notifications/:id", api.notifications, selfOrStaffMiddleware("id"))
	ig.PUT("/student-notifications/:id/seen", api.markNotificationSeen)
}

// Handlers

func (api *studentApi) register(ctx echo.Context) error {
	var data student.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}

	id, err := api.svc.Register(ctx.Request().Context(), contextActor(ctx), data)
	if err != nil {
		if core.IsDuplicate(err) {
			return core.NewRulesError(student.MsgValidationFailed, student.MsgEmailExists)
		}
		return errors.Wrap(err, "registering student")
	}
	return ctx.JSON(http.StatusCreated, RegisteredResponse{Message: "Student successfully registered.", GeneratedID: id})
}

func (api *studentApi) intake(ctx echo.Context) error {
	fh, err := ctx.FormFile(intakeFileField)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, MessageResponse{Message: "No file uploaded."})
	}
	if limit := core.Conf.Intake.MaxUploadBytes; limit > 0 && fh.Size > limit {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, MessageResponse{
			Message: fmt.Sprintf("File is too large. The maximum size is %d bytes.", limit),
		})
	}
	f, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening upload")
	}
	defer f.Close()

	rows, err := spreadsheet.ParseRows(fh.Filename, f)
	if err != nil {
		if err == spreadsheet.ErrUnsupportedFormat {
			return echo.NewHTTPError(http.StatusBadRequest, MessageResponse{Message: err.Error()})
		}
		return echo.NewHTTPError(http.StatusBadRequest, MessageResponse{Message: "Could not read the uploaded file."})
	}

	summary, err := api.svc.Intake(ctx.Request().Context(), contextActor(ctx), rows)
	if err != nil {
		return errors.Wrap(err, "registering students")
	}
	return ctx.JSON(http.StatusOK, IntakeResponse{Message: "Upload completed", IntakeSummary: summary})
}

func downloadIntakeTemplate(ctx echo.Context) error {
	res := ctx.Response()
	res.Header().Set(echo.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	res.Header().Set(echo.HeaderContentDisposition, `attachment; filename="Student_Registration_Template.xlsx"`)
	res.WriteHeader(http.StatusOK)
	return errors.Wrap(spreadsheet.WriteTemplate(res), "writing template")
}

func (api *studentApi) move(ctx echo.Context) error {
	var data MoveRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MoveRequest")
	}
	err := api.svc.MoveToBatch(ctx.Request().Context(), contextActor(ctx), ctx.Param("id"), data.Batch, data.Reason)
	if err != nil {
		return errors.Wrap(err, "moving student")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{
		Message: "Student moved successfully, reason recorded, email sent, and notification created",
	})
}

func (api *studentApi) moveBulk(ctx echo.Context) error {
	var data BulkMoveRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to BulkMoveRequest")
	}
	n, err := api.svc.MoveBulk(ctx.Request().Context(), contextActor(ctx), data.StudentIDs, data.NewBatch, data.Reason)
	if err != nil {
		if _, ok := statusOf(err); ok {
			return echo.NewHTTPError(http.StatusBadRequest, MessageResponse{Message: errors.Cause(err).Error()})
		}
		return errors.Wrap(err, "moving students")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("%d student(s) moved, status updated, and email(s) sent.", n),
	})
}

func (api *studentApi) changeStatus(ctx echo.Context) error {
	var data StatusChangeRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to StatusChangeRequest")
	}
	emailed, err := api.svc.ChangeStatus(ctx.Request().Context(), contextActor(ctx), data.StudentID, data.NewStatus, data.Reason)
	if err != nil {
		return errors.Wrap(err, "changing student status")
	}
	msg := fmt.Sprintf("Status updated to %s.", core.CleanString(data.NewStatus))
	if emailed {
		msg = fmt.Sprintf("Status updated to %s and email sent.", core.CleanString(data.NewStatus))
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: msg})
}

func (api *studentApi) removeFromBatch(ctx echo.Context) error {
	var data RemoveRequest
	_ = ctx.Bind(&data) // the reason is optional
	if err := api.svc.RemoveFromBatch(ctx.Request().Context(), contextActor(ctx), ctx.Param("id"), data.Reason); err != nil {
		return errors.Wrap(err, "removing student from batch")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Student batch cleared successfully"})
}

func (api *studentApi) query(ctx echo.Context) error {
	var filter student.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []student.Student{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	students, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) listUnassigned(ctx echo.Context) error {
	students, err := api.svc.ListUnassigned(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing unassigned students")
	}
	return ctx.JSON(http.StatusOK, students)
}

func (api *studentApi) currentBatch(ctx echo.Context) error {
	id := core.CleanString(ctx.QueryParam("studentId"))
	if id == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Student ID is required")
	}
	batch, err := api.svc.CurrentBatch(ctx.Request().Context(), id)
	if err != nil {
		return errors.Wrap(err, "finding student batch")
	}
	return ctx.JSON(http.StatusOK, BatchResponse{Batch: batch})
}

func (api *studentApi) details(ctx echo.Context) error {
	d, err := api.svc.Details(ctx.Request().Context(), ctx.Param("student_id"))
	if err != nil {
		return errors.Wrap(err, "gathering student details")
	}
	return ctx.JSON(http.StatusOK, d)
}

func (api *studentApi) notifications(ctx echo.Context) error {
	ns, err := api.svc.Notifications(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "listing notifications")
	}
	return ctx.JSON(http.StatusOK, ns)
}

func (api *studentApi) markNotificationSeen(ctx echo.Context) error {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}
	if err := api.svc.MarkNotificationSeen(ctx.Request().Context(), contextActor(ctx), id); err != nil {
		return errors.Wrap(err, "marking notification seen")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Notification marked as seen."})
}

type (
	RegisteredResponse struct {
		Message     string `json:"message"`
		GeneratedID string `json:"generatedId"`
	}

	IntakeResponse struct {
		Message string `json:"message"`
		student.IntakeSummary
	}

	MoveRequest struct {
		Batch  string `json:"batch"`
		Reason string `json:"moveReason"`
	}

	BulkMoveRequest struct {
		StudentIDs []string `json:"studentIds"`
		NewBatch   string   `json:"newBatch"`
		Reason     string   `json:"reason"`
	}

	StatusChangeRequest struct {
		StudentID string `json:"student_id"`
		NewStatus string `json:"new_status"`
		Reason    string `json:"reason"`
	}

	RemoveRequest struct {
		Reason string `json:"reason"`
	}

	BatchResponse struct {
		Batch string `json:"batch"`
	}
)
