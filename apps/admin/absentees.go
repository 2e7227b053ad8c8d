package main

import (
	"context"
	"fmt"

	"github.com/vishvavidya/traininghub/core/attendance"
)

func (cli *commandLine) flagAbsentees() error {
	n, err := cli.attendanceSvc.GenerateAbsenteeFlags(context.Background(), attendance.NowFunc())
	if err != nil {
		return err
	}
	fmt.Printf("%d absentee(s) flagged\n", n)
	return nil
}
