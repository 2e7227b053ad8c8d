package main

import (
	"log"
	"os"

	"github.com/vishvavidya/traininghub/core"
	"github.com/vishvavidya/traininghub/core/attendance"
	"github.com/vishvavidya/traininghub/core/user"
	"github.com/vishvavidya/traininghub/services/email"
	"github.com/vishvavidya/traininghub/services/logger"
	"github.com/vishvavidya/traininghub/storage/database"
	"github.com/vishvavidya/traininghub/storage/database/sqlx"
)

var logger *log.Logger

func main() {
	defer os.Exit(0)

	logger = log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	conf := core.Conf

	// set up DB
	db, err := database.Open(conf)
	errAndDie(err)
	defer db.Close()

	appLogger := logsvc.NewRollbarLogger(logger, conf)
	appLogger.Enable(false)

	var mailSvc core.EmailService
	if conf.Debug || conf.SendgridAPIKey == "" {
		mailSvc = emailsvc.NewConsoleServiceMock()
	} else {
		mailSvc = emailsvc.NewSendgridService(appLogger)
	}

	// start CLI
	cli := commandLine{
		db:     db.DB,
		usrSvc: user.NewService(sqlxrepos.NewUserStore(db), nil, mailSvc),
		attendanceSvc: attendance.NewService(
			sqlxrepos.NewAttendanceStore(db),
			attendance.ScanConfig{WindowDays: conf.Jobs.AbsenteeWindowDays, MinDays: conf.Jobs.AbsenteeMinDays},
			appLogger,
		),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func errAndDie(err error) {
	if err != nil {
		logger.Fatal(err)
	}
}
