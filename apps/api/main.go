package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"

	"github.com/vishvavidya/traininghub/apps/api/echo"
	"github.com/vishvavidya/traininghub/core"
	"github.com/vishvavidya/traininghub/core/accesscard"
	"github.com/vishvavidya/traininghub/core/attendance"
	"github.com/vishvavidya/traininghub/core/catalog"
	"github.com/vishvavidya/traininghub/core/evaluation"
	"github.com/vishvavidya/traininghub/core/student"
	"github.com/vishvavidya/traininghub/core/user"
	"github.com/vishvavidya/traininghub/services/email"
	"github.com/vishvavidya/traininghub/services/logger"
	"github.com/vishvavidya/traininghub/services/scheduler"
	"github.com/vishvavidya/traininghub/storage/database"
	"github.com/vishvavidya/traininghub/storage/database/sqlx"
)

func main() {
	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	if err := run(std); err != nil {
		std.Printf("%+v", err)
		os.Exit(1)
	}
}

func run(std *log.Logger) error {
	conf := core.Conf

	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(conf.RollbarToken != "" && !conf.Debug)

	// set up DB
	if conf.Database.AutoMigrate {
		if err := database.CreateIfNotExist(conf); err != nil {
			return errors.Wrap(err, "creating database")
		}
	}
	db, err := database.Open(conf)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	if conf.Database.AutoMigrate {
		if err := database.Migrate(db.DB); err != nil {
			return err
		}
	}

	// set up services
	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridAPIKey == "" {
		mailSvc = emailsvc.NewConsoleService()
	} else {
		mailSvc = emailsvc.NewSendgridService(logger)
	}

	userStore := sqlxrepos.NewUserStore(db)
	evalSvc := evaluation.NewService(sqlxrepos.NewEvaluationStore(db))
	studentSvc := student.NewService(sqlxrepos.NewStudentStore(db), mailSvc, user.NewSenders(userStore), evalSvc, logger)
	userSvc := user.NewService(userStore, studentSvc, mailSvc)
	catalogSvc := catalog.NewService(sqlxrepos.NewCatalogStore(db))
	attendanceSvc := attendance.NewService(
		sqlxrepos.NewAttendanceStore(db),
		attendance.ScanConfig{WindowDays: conf.Jobs.AbsenteeWindowDays, MinDays: conf.Jobs.AbsenteeMinDays},
		logger,
	)
	accessCardSvc := accesscard.NewService(sqlxrepos.NewAccessCardStore(db))

	// schedule jobs
	sched := scheduler.New(logger)
	if conf.Jobs.AbsenteeCron != "" {
		if err := sched.Add("absentee-scan", conf.Jobs.AbsenteeCron, attendanceSvc.RunAbsenteeScan); err != nil {
			return err
		}
	}
	sched.Start()

	// start API server
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	app := echoapi.NewServer(conf.Server.Address, shutdown, &echoapi.Deps{
		Logger:        logger,
		StudentSvc:    studentSvc,
		CatalogSvc:    catalogSvc,
		AttendanceSvc: attendanceSvc,
		EvaluationSvc: evalSvc,
		UserSvc:       userSvc,
		AccessCardSvc: accessCardSvc,
	})

	serverErrors := make(chan error, 1)
	go func() {
		std.Printf("listening on %s", conf.Server.Address)
		serverErrors <- app.Start()
	}()

	select {
	case err := <-serverErrors:
		_ = sched.Stop(context.Background())
		return errors.Wrap(err, "server error")

	case sig := <-shutdown:
		std.Printf("%v: shutting down", sig)
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		if err := sched.Stop(ctx); err != nil {
			logger.Warn("stopping scheduler", err)
		}
		if err := app.Stop(ctx); err != nil {
			return errors.Wrap(err, "could not stop server gracefully")
		}
	}
	return nil
}
