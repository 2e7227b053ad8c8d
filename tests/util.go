// Package testutil holds helpers shared by the test suites.
package testutil

import (
	"context"
	"testing"

	"github.com/vishvavidya/traininghub/core"
	"github.com/vishvavidya/traininghub/core/student"
	"github.com/vishvavidya/traininghub/core/user"
)

// System is the actor used to seed fixtures.
var System = core.Actor{UserID: "VVADMIN2024001", Role: user.RoleAdmin}

func CreateStaff(t *testing.T, svc *user.Service, role, name, email, contact string) user.Credentials {
	t.Helper()
	creds, err := svc.CreateStaff(context.Background(), System, user.NewStaff{
		Name:    name,
		Email:   email,
		Contact: contact,
		Role:    role,
	})
	if err != nil {
		t.Fatalf("CreateStaff() failed: %v", err)
	}
	return creds
}

func RegisterStudent(t *testing.T, svc *student.Service, name, email, contact string) student.Student {
	t.Helper()
	ctx := context.Background()
	id, err := svc.Register(ctx, System, student.NewStudent{Name: name, Email: email, Contact: contact})
	if err != nil {
		t.Fatalf("RegisterStudent() failed: %v", err)
	}
	st, err := svc.Get(ctx, id)
	if err != nil {
		t.Fatalf("RegisterStudent() failed: %v", err)
	}
	return st
}

// MoveStudent places a registered student in batch.
func MoveStudent(t *testing.T, svc *student.Service, id, batch string) {
	t.Helper()
	if err := svc.MoveToBatch(context.Background(), System, id, batch, "fixture"); err != nil {
		t.Fatalf("MoveStudent() failed: %v", err)
	}
}
