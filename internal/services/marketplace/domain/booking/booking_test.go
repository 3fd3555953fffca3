package booking

import (
	"testing"
	"time"

	apperrors "github.com/imranshabbir-developer/project-management/internal/platform/errors"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/user"
)

var fixedNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func newPending(t *testing.T) Booking {
	t.Helper()
	b, err := New("b1", "client", Draft{StudentID: "student", HourlyRate: 20, Hours: 3}, fixedNow)
	if err != nil {
		t.Fatalf("new booking: %v", err)
	}
	return b
}

func TestNewComputesTotalAmount(t *testing.T) {
	b := newPending(t)
	if b.TotalAmount != 60 {
		t.Fatalf("total amount = %v, want 60", b.TotalAmount)
	}
	if b.Status != StatusPending {
		t.Fatalf("status = %q, want %q", b.Status, StatusPending)
	}
	if got := TotalAmount(12.5, 1.5); got != 18.75 {
		t.Fatalf("TotalAmount(12.5, 1.5) = %v, want 18.75", got)
	}
}

func TestNewValidates(t *testing.T) {
	tests := []struct {
		name  string
		draft Draft
	}{
		{name: "missing student", draft: Draft{HourlyRate: 1, Hours: 1}},
		{name: "self booking", draft: Draft{StudentID: "client", HourlyRate: 1, Hours: 1}},
		{name: "zero rate", draft: Draft{StudentID: "s", Hours: 1}},
		{name: "negative hours", draft: Draft{StudentID: "s", HourlyRate: 1, Hours: -2}},
		{name: "total overflows", draft: Draft{StudentID: "s", HourlyRate: 1e200, Hours: 1e200}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New("b1", "client", tt.draft, fixedNow); !apperrors.HasCode(err, apperrors.CodeValidation) {
				t.Fatalf("err = %v, want validation", err)
			}
		})
	}
}

func TestTransitionTableRejectsOutsideMoves(t *testing.T) {
	all := []Status{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled}
	allowed := map[[2]Status]bool{
		{StatusPending, StatusConfirmed}:   true,
		{StatusPending, StatusCancelled}:   true,
		{StatusConfirmed, StatusCompleted}: true,
		{StatusConfirmed, StatusCancelled}: true,
	}
	for _, from := range all {
		for _, to := range all {
			if got := IsTransitionAllowed(from, to); got != allowed[[2]Status{from, to}] {
				t.Fatalf("IsTransitionAllowed(%s, %s) = %v", from, to, got)
			}
		}
	}

	b := newPending(t)
	b.Status = StatusCompleted
	_, err := Transition(b, "student", user.RoleStudent, StatusConfirmed, "", fixedNow)
	if !apperrors.HasCode(err, apperrors.CodeInvalidTransition) {
		t.Fatalf("completed -> confirmed err = %v, want invalid transition", err)
	}
}

func TestOnlyStudentConfirms(t *testing.T) {
	b := newPending(t)
	later := fixedNow.Add(time.Hour)

	if _, err := Transition(b, "client", user.RoleCustomer, StatusConfirmed, "", later); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("client confirm err = %v, want forbidden", err)
	}
	if _, err := Transition(b, "root", user.RoleAdmin, StatusConfirmed, "", later); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("admin confirm err = %v, want forbidden", err)
	}

	confirmed, err := Transition(b, "student", user.RoleStudent, StatusConfirmed, "", later)
	if err != nil {
		t.Fatalf("student confirm: %v", err)
	}
	if confirmed.ConfirmedAt == nil || !confirmed.ConfirmedAt.Equal(later) {
		t.Fatalf("confirmed_at = %v, want %v", confirmed.ConfirmedAt, later)
	}
}

func TestCancelRecordsReasonAndActor(t *testing.T) {
	for _, actor := range []struct {
		id   string
		role user.Role
	}{
		{id: "client", role: user.RoleCustomer},
		{id: "student", role: user.RoleStudent},
		{id: "root", role: user.RoleAdmin},
	} {
		cancelled, err := Transition(newPending(t), actor.id, actor.role, StatusCancelled, " sick ", fixedNow)
		if err != nil {
			t.Fatalf("cancel by %s: %v", actor.id, err)
		}
		if cancelled.CancelledBy != actor.id || cancelled.CancellationReason != "sick" || cancelled.CancelledAt == nil {
			t.Fatalf("cancelled = %+v", cancelled)
		}
	}
}

func TestEitherPartyCompletes(t *testing.T) {
	b := newPending(t)
	b.Status = StatusConfirmed
	for _, actor := range []string{"client", "student"} {
		done, err := Transition(b, actor, user.RoleCustomer, StatusCompleted, "", fixedNow)
		if err != nil {
			t.Fatalf("complete by %s: %v", actor, err)
		}
		if done.CompletedAt == nil {
			t.Fatal("expected completed_at")
		}
	}
}

func TestNonPartyForbidden(t *testing.T) {
	b := newPending(t)
	if _, err := Transition(b, "stranger", user.RoleStudent, StatusCancelled, "", fixedNow); !apperrors.HasCode(err, apperrors.CodeForbidden) {
		t.Fatalf("stranger err = %v, want forbidden", err)
	}
	if CanView(b, "stranger", user.RoleCustomer) {
		t.Fatal("stranger must not view booking")
	}
	if !CanView(b, "x", user.RoleAdmin) {
		t.Fatal("admin must view booking")
	}
}
