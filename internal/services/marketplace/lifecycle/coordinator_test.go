package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/imranshabbir-developer/project-management/internal/platform/errors"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/application"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/booking"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/mission"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/domain/user"
	"github.com/imranshabbir-developer/project-management/internal/services/marketplace/storage/sqlite"
)

var start = time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC)

// stepClock advances one second per call.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

type fixture struct {
	coord *Coordinator
	clock *stepClock
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "marketplace.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	clock := &stepClock{now: start}
	var seq atomic.Int64
	coord := New(store,
		WithClock(clock.Now),
		WithIDGenerator(func() (string, error) {
			return fmt.Sprintf("id-%04d", seq.Add(1)), nil
		}),
	)
	return fixture{coord: coord, clock: clock}
}

func (f fixture) register(t *testing.T, id string, role user.Role) {
	t.Helper()
	if _, err := f.coord.RegisterUser(context.Background(), id, string(role), RegisterInput{DisplayName: id, Role: string(role)}); err != nil {
		t.Fatalf("register %s: %v", id, err)
	}
}

func (f fixture) mission(t *testing.T, ownerID string) mission.Mission {
	t.Helper()
	m, err := f.coord.CreateMission(context.Background(), ownerID, mission.Draft{
		Title:       "Landing page",
		Description: "Build a landing page",
		Category:    "dev",
		Budget:      400,
	})
	if err != nil {
		t.Fatalf("create mission: %v", err)
	}
	return m
}

func wantCode(t *testing.T, err error, code apperrors.Code) {
	t.Helper()
	if got := apperrors.CodeOf(err); got != code {
		t.Fatalf("error code = %q (%v), want %q", got, err, code)
	}
}

func TestRegisterUser(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	u, err := f.coord.RegisterUser(ctx, "s1", "", RegisterInput{DisplayName: "Sam", Role: "student"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Role != user.RoleStudent {
		t.Fatalf("role = %q, want student", u.Role)
	}
	_, err = f.coord.RegisterUser(ctx, "s1", "", RegisterInput{DisplayName: "Sam", Role: "customer"})
	wantCode(t, err, apperrors.CodeConflict)

	_, err = f.coord.RegisterUser(ctx, "x1", "student", RegisterInput{DisplayName: "X", Role: "admin"})
	wantCode(t, err, apperrors.CodeForbidden)

	_, err = f.coord.RegisterUser(ctx, "x2", "", RegisterInput{DisplayName: "X", Role: "pirate"})
	wantCode(t, err, apperrors.CodeValidation)

	if _, err := f.coord.RegisterUser(ctx, "root", "admin", RegisterInput{DisplayName: "Root", Role: "admin"}); err != nil {
		t.Fatalf("register admin: %v", err)
	}

	_, err = f.coord.Me(ctx, "ghost")
	wantCode(t, err, apperrors.CodeUnauthenticated)
}

func TestMissionMutationRequiresOwnerOrAdmin(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "owner", user.RoleCustomer)
	f.register(t, "other", user.RoleCustomer)
	f.register(t, "student", user.RoleStudent)
	f.register(t, "root", user.RoleAdmin)
	m := f.mission(t, "owner")

	title := "Hijacked"
	for _, actor := range []string{"other", "student"} {
		_, err := f.coord.UpdateMission(ctx, actor, m.ID, mission.Patch{Title: &title})
		wantCode(t, err, apperrors.CodeForbidden)
		_, err = f.coord.ChangeMissionStatus(ctx, actor, m.ID, "cancelled")
		wantCode(t, err, apperrors.CodeForbidden)
		wantCode(t, f.coord.DeleteMission(ctx, actor, m.ID), apperrors.CodeForbidden)
	}
	stored, err := f.coord.GetMission(ctx, "student", m.ID)
	if err != nil {
		t.Fatalf("get mission: %v", err)
	}
	if stored.Title != m.Title || stored.Status != mission.StatusOpen {
		t.Fatalf("mission changed by non-owner: %+v", stored)
	}

	renamed := "Landing page v2"
	updated, err := f.coord.UpdateMission(ctx, "owner", m.ID, mission.Patch{Title: &renamed})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if updated.Title != renamed {
		t.Fatalf("title = %q, want %q", updated.Title, renamed)
	}
	if _, err := f.coord.ChangeMissionStatus(ctx, "root", m.ID, "in_discussion"); err != nil {
		t.Fatalf("admin status change: %v", err)
	}
	if err := f.coord.DeleteMission(ctx, "root", m.ID); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	_, err = f.coord.GetMission(ctx, "owner", m.ID)
	wantCode(t, err, apperrors.CodeNotFound)
}

func TestCreateMissionRequiresCustomer(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.register(t, "student", user.RoleStudent)

	_, err := f.coord.CreateMission(context.Background(), "student", mission.Draft{Title: "t", Description: "d", Category: "c"})
	wantCode(t, err, apperrors.CodeForbidden)
	_, err = f.coord.CreateMission(context.Background(), "", mission.Draft{})
	wantCode(t, err, apperrors.CodeUnauthenticated)
}

func TestChangeMissionStatusUsesTable(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "owner", user.RoleCustomer)
	m := f.mission(t, "owner")

	_, err := f.coord.ChangeMissionStatus(ctx, "owner", m.ID, "completed")
	wantCode(t, err, apperrors.CodeInvalidTransition)

	for _, status := range []string{"in_discussion", "in_progress", "completed"} {
		if _, err := f.coord.ChangeMissionStatus(ctx, "owner", m.ID, status); err != nil {
			t.Fatalf("move to %s: %v", status, err)
		}
	}
	done, _ := f.coord.GetMission(ctx, "owner", m.ID)
	if done.CompletedAt == nil {
		t.Fatal("expected completed_at")
	}
	_, err = f.coord.ChangeMissionStatus(ctx, "owner", m.ID, "cancelled")
	wantCode(t, err, apperrors.CodeInvalidTransition)
	_, err = f.coord.ChangeMissionStatus(ctx, "owner", m.ID, "paused")
	wantCode(t, err, apperrors.CodeValidation)
}

func TestListMissions(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "owner", user.RoleCustomer)
	for range 3 {
		f.mission(t, "owner")
	}

	page, err := f.coord.ListMissions(ctx, "owner", ListMissionsInput{Filter: `status = "open"`, PageSize: 2})
	if err != nil {
		t.Fatalf("list missions: %v", err)
	}
	if len(page.Missions) != 2 || page.NextPageToken == "" {
		t.Fatalf("page = %d missions, token %q", len(page.Missions), page.NextPageToken)
	}
	next, err := f.coord.ListMissions(ctx, "owner", ListMissionsInput{PageSize: 2, PageToken: page.NextPageToken})
	if err != nil {
		t.Fatalf("list page 2: %v", err)
	}
	if len(next.Missions) != 1 {
		t.Fatalf("page 2 = %d missions, want 1", len(next.Missions))
	}

	_, err = f.coord.ListMissions(ctx, "owner", ListMissionsInput{Filter: `owner = "x"`})
	wantCode(t, err, apperrors.CodeValidation)
	_, err = f.coord.ListMissions(ctx, "owner", ListMissionsInput{PageToken: "%%%"})
	wantCode(t, err, apperrors.CodeValidation)
}

func TestApplicationScenario(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "owner", user.RoleCustomer)
	f.register(t, "student", user.RoleStudent)
	m := f.mission(t, "owner")

	app, err := f.coord.CreateApplication(ctx, m.ID, "student", "I can do this")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if app.Status != application.StatusPending {
		t.Fatalf("status = %q, want pending", app.Status)
	}

	accepted, err := f.coord.DecideApplication(ctx, app.ID, "owner", "accept", "")
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if accepted.Status != application.StatusAccepted || accepted.AcceptedAt == nil {
		t.Fatalf("accepted = %+v", accepted)
	}
	stored, err := f.coord.GetMission(ctx, "owner", m.ID)
	if err != nil {
		t.Fatalf("get mission: %v", err)
	}
	if stored.Status != mission.StatusInDiscussion {
		t.Fatalf("mission status = %q, want in_discussion", stored.Status)
	}

	_, err = f.coord.CreateApplication(ctx, m.ID, "student", "again")
	wantCode(t, err, apperrors.CodeConflict)
}

func TestDuplicateApplicationIsConflictWhileOpen(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "owner", user.RoleCustomer)
	f.register(t, "student", user.RoleStudent)
	m := f.mission(t, "owner")

	if _, err := f.coord.CreateApplication(ctx, m.ID, "student", "first"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	_, err := f.coord.CreateApplication(ctx, m.ID, "student", "second")
	wantCode(t, err, apperrors.CodeConflict)
}

func TestConcurrentApplicationsYieldOne(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "owner", user.RoleCustomer)
	f.register(t, "student", user.RoleStudent)
	m := f.mission(t, "owner")

	const attempts = 10
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.coord.CreateApplication(ctx, m.ID, "student", "me!")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case apperrors.HasCode(err, apperrors.CodeConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != attempts-1 {
		t.Fatalf("ok=%d conflicts=%d, want 1 and %d", ok, conflicts, attempts-1)
	}
	apps, err := f.coord.ListApplications(ctx, "owner", m.ID)
	if err != nil {
		t.Fatalf("list applications: %v", err)
	}
	if len(apps) != 1 {
		t.Fatalf("applications = %d, want 1", len(apps))
	}
}

func TestCreateApplicationRules(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "owner", user.RoleCustomer)
	f.register(t, "student", user.RoleStudent)
	m := f.mission(t, "owner")

	_, err := f.coord.CreateApplication(ctx, m.ID, "owner", "hi")
	wantCode(t, err, apperrors.CodeForbidden)
	_, err = f.coord.CreateApplication(ctx, "missing", "student", "hi")
	wantCode(t, err, apperrors.CodeNotFound)
	var notFound *apperrors.Error
	if !errors.As(err, &notFound) || notFound.Metadata["Entity"] != "mission" {
		t.Fatalf("missing mission err = %v, want mission not found", err)
	}
	_, err = f.coord.CreateApplication(ctx, m.ID, "student", "  ")
	wantCode(t, err, apperrors.CodeValidation)

	if _, err := f.coord.ChangeMissionStatus(ctx, "owner", m.ID, "cancelled"); err != nil {
		t.Fatalf("cancel mission: %v", err)
	}
	_, err = f.coord.CreateApplication(ctx, m.ID, "student", "hi")
	wantCode(t, err, apperrors.CodeInvalidTransition)
}

func TestAcceptForcesInDiscussionFromAnyNonTerminalStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	moves := map[mission.Status][]string{
		mission.StatusOpen:         nil,
		mission.StatusInDiscussion: {"in_discussion"},
		mission.StatusInProgress:   {"in_discussion", "in_progress"},
	}
	for prior, path := range moves {
		t.Run(string(prior), func(t *testing.T) {
			f := newFixture(t)
			f.register(t, "owner", user.RoleCustomer)
			f.register(t, "student", user.RoleStudent)
			m := f.mission(t, "owner")
			app, err := f.coord.CreateApplication(ctx, m.ID, "student", "hi")
			if err != nil {
				t.Fatalf("apply: %v", err)
			}
			for _, status := range path {
				if _, err := f.coord.ChangeMissionStatus(ctx, "owner", m.ID, status); err != nil {
					t.Fatalf("move mission: %v", err)
				}
			}
			if _, err := f.coord.DecideApplication(ctx, app.ID, "owner", "accept", ""); err != nil {
				t.Fatalf("accept: %v", err)
			}
			stored, _ := f.coord.GetMission(ctx, "owner", m.ID)
			if stored.Status != mission.StatusInDiscussion {
				t.Fatalf("mission status = %q, want in_discussion", stored.Status)
			}
		})
	}
}

func TestAcceptRejectedForTerminalMissionLeavesApplicationPending(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "owner", user.RoleCustomer)
	f.register(t, "student", user.RoleStudent)
	m := f.mission(t, "owner")
	app, _ := f.coord.CreateApplication(ctx, m.ID, "student", "hi")
	if _, err := f.coord.ChangeMissionStatus(ctx, "owner", m.ID, "cancelled"); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	_, err := f.coord.DecideApplication(ctx, app.ID, "owner", "accept", "")
	wantCode(t, err, apperrors.CodeInvalidTransition)
	stored, err := f.coord.GetApplication(ctx, "student", app.ID)
	if err != nil {
		t.Fatalf("get application: %v", err)
	}
	if stored.Status != application.StatusPending {
		t.Fatalf("status = %q, want pending", stored.Status)
	}
}

func TestDecideApplicationAuthorization(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "owner", user.RoleCustomer)
	f.register(t, "other", user.RoleCustomer)
	f.register(t, "student", user.RoleStudent)
	m := f.mission(t, "owner")
	app, _ := f.coord.CreateApplication(ctx, m.ID, "student", "hi")

	for _, actor := range []string{"other", "student"} {
		_, err := f.coord.DecideApplication(ctx, app.ID, actor, "accept", "")
		wantCode(t, err, apperrors.CodeForbidden)
	}
	_, err := f.coord.DecideApplication(ctx, app.ID, "owner", "maybe", "")
	wantCode(t, err, apperrors.CodeValidation)

	rejected, err := f.coord.DecideApplication(ctx, app.ID, "owner", "reject", "budget too low")
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if rejected.RejectionReason != "budget too low" || rejected.RejectedAt == nil {
		t.Fatalf("rejected = %+v", rejected)
	}
	stored, _ := f.coord.GetMission(ctx, "owner", m.ID)
	if stored.Status != mission.StatusOpen {
		t.Fatalf("mission status after reject = %q, want open", stored.Status)
	}
	_, err = f.coord.DecideApplication(ctx, app.ID, "owner", "accept", "")
	wantCode(t, err, apperrors.CodeInvalidTransition)
}

func TestApplicationVisibility(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "owner", user.RoleCustomer)
	f.register(t, "other", user.RoleCustomer)
	f.register(t, "s1", user.RoleStudent)
	f.register(t, "s2", user.RoleStudent)
	f.register(t, "root", user.RoleAdmin)
	m := f.mission(t, "owner")
	a1, _ := f.coord.CreateApplication(ctx, m.ID, "s1", "one")
	if _, err := f.coord.CreateApplication(ctx, m.ID, "s2", "two"); err != nil {
		t.Fatalf("apply s2: %v", err)
	}

	for _, actor := range []string{"s1", "owner", "root"} {
		if _, err := f.coord.GetApplication(ctx, actor, a1.ID); err != nil {
			t.Fatalf("%s get application: %v", actor, err)
		}
	}
	for _, actor := range []string{"s2", "other"} {
		_, err := f.coord.GetApplication(ctx, actor, a1.ID)
		wantCode(t, err, apperrors.CodeForbidden)
	}

	tests := []struct {
		actor string
		want  int
	}{
		{actor: "s1", want: 1},
		{actor: "owner", want: 2},
		{actor: "other", want: 0},
		{actor: "root", want: 2},
	}
	for _, tt := range tests {
		apps, err := f.coord.ListApplications(ctx, tt.actor, "")
		if err != nil {
			t.Fatalf("%s list: %v", tt.actor, err)
		}
		if len(apps) != tt.want {
			t.Fatalf("%s sees %d applications, want %d", tt.actor, len(apps), tt.want)
		}
	}
	_, err := f.coord.ListApplications(ctx, "other", m.ID)
	wantCode(t, err, apperrors.CodeForbidden)
}

func TestUpdateCoverLetter(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "owner", user.RoleCustomer)
	f.register(t, "student", user.RoleStudent)
	m := f.mission(t, "owner")
	app, _ := f.coord.CreateApplication(ctx, m.ID, "student", "hi")

	_, err := f.coord.UpdateCoverLetter(ctx, "owner", app.ID, "owner edit")
	wantCode(t, err, apperrors.CodeForbidden)

	edited, err := f.coord.UpdateCoverLetter(ctx, "student", app.ID, "better letter")
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if edited.CoverLetter != "better letter" {
		t.Fatalf("cover letter = %q", edited.CoverLetter)
	}
}

func TestBookingScenario(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "client", user.RoleCustomer)
	f.register(t, "student", user.RoleStudent)

	b, err := f.coord.CreateBooking(ctx, "client", booking.Draft{StudentID: "student", HourlyRate: 20, Hours: 3})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if b.TotalAmount != 60 {
		t.Fatalf("total amount = %v, want 60", b.TotalAmount)
	}

	_, err = f.coord.TransitionBooking(ctx, b.ID, "client", "confirmed", "")
	wantCode(t, err, apperrors.CodeForbidden)

	confirmed, err := f.coord.TransitionBooking(ctx, b.ID, "student", "confirmed", "")
	if err != nil {
		t.Fatalf("student confirm: %v", err)
	}
	if confirmed.Status != booking.StatusConfirmed || confirmed.ConfirmedAt == nil {
		t.Fatalf("confirmed = %+v", confirmed)
	}
	if confirmed.TotalAmount != 60 {
		t.Fatalf("total amount changed to %v", confirmed.TotalAmount)
	}

	done, err := f.coord.TransitionBooking(ctx, b.ID, "client", "completed", "")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.CompletedAt == nil {
		t.Fatal("expected completed_at")
	}
	_, err = f.coord.TransitionBooking(ctx, b.ID, "student", "confirmed", "")
	wantCode(t, err, apperrors.CodeInvalidTransition)
}

func TestBookingAccessAndCancellation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "client", user.RoleCustomer)
	f.register(t, "student", user.RoleStudent)
	f.register(t, "stranger", user.RoleStudent)
	f.register(t, "root", user.RoleAdmin)

	_, err := f.coord.CreateBooking(ctx, "student", booking.Draft{StudentID: "client", HourlyRate: 1, Hours: 1})
	wantCode(t, err, apperrors.CodeForbidden)
	_, err = f.coord.CreateBooking(ctx, "client", booking.Draft{StudentID: "root", HourlyRate: 1, Hours: 1})
	wantCode(t, err, apperrors.CodeValidation)

	b, err := f.coord.CreateBooking(ctx, "client", booking.Draft{StudentID: "student", HourlyRate: 15, Hours: 2})
	if err != nil {
		t.Fatalf("create booking: %v", err)
	}
	_, err = f.coord.GetBooking(ctx, "stranger", b.ID)
	wantCode(t, err, apperrors.CodeForbidden)
	_, err = f.coord.TransitionBooking(ctx, b.ID, "stranger", "cancelled", "")
	wantCode(t, err, apperrors.CodeForbidden)

	if list, _ := f.coord.ListBookings(ctx, "stranger"); len(list) != 0 {
		t.Fatalf("stranger bookings = %d, want 0", len(list))
	}
	if list, _ := f.coord.ListBookings(ctx, "root"); len(list) != 1 {
		t.Fatalf("admin bookings = %d, want 1", len(list))
	}

	cancelled, err := f.coord.TransitionBooking(ctx, b.ID, "root", "cancelled", "duplicate")
	if err != nil {
		t.Fatalf("admin cancel: %v", err)
	}
	if cancelled.CancelledBy != "root" || cancelled.CancellationReason != "duplicate" {
		t.Fatalf("cancelled = %+v", cancelled)
	}
}

func TestConversationIsIdempotentPerTriple(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "client", user.RoleCustomer)
	f.register(t, "student", user.RoleStudent)
	m := f.mission(t, "client")

	first, err := f.coord.GetOrCreateConversation(ctx, "student", user.RoleStudent, "client", m.ID)
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := f.coord.GetOrCreateConversation(ctx, "student", user.RoleStudent, "client", m.ID)
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("ids = %q and %q, want equal", first.ID, second.ID)
	}
	fromClient, err := f.coord.GetOrCreateConversation(ctx, "client", user.RoleCustomer, "student", m.ID)
	if err != nil {
		t.Fatalf("from client: %v", err)
	}
	if fromClient.ID != first.ID {
		t.Fatalf("client side id = %q, want %q", fromClient.ID, first.ID)
	}

	unscoped, err := f.coord.GetOrCreateConversation(ctx, "client", user.RoleCustomer, "student", "")
	if err != nil {
		t.Fatalf("unscoped: %v", err)
	}
	if unscoped.ID == first.ID {
		t.Fatal("conversation without mission must be distinct")
	}

	_, err = f.coord.GetOrCreateConversation(ctx, "client", user.RoleCustomer, "student", "missing")
	wantCode(t, err, apperrors.CodeNotFound)
	_, err = f.coord.GetOrCreateConversation(ctx, "client", user.RoleStudent, "student", "")
	wantCode(t, err, apperrors.CodeForbidden)
}

func TestConcurrentGetOrCreateConversation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "client", user.RoleCustomer)
	f.register(t, "student", user.RoleStudent)

	const callers = 8
	ids := make(chan string, callers)
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conv, err := f.coord.GetOrCreateConversation(ctx, "client", user.RoleCustomer, "student", "")
			if err != nil {
				t.Errorf("get or create: %v", err)
				return
			}
			ids <- conv.ID
		}()
	}
	wg.Wait()
	close(ids)
	seen := map[string]bool{}
	for id := range ids {
		seen[id] = true
	}
	if len(seen) != 1 {
		t.Fatalf("distinct conversation ids = %d, want 1", len(seen))
	}
}

func TestMessagesUpdateProjectionAndReadState(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	f.register(t, "client", user.RoleCustomer)
	f.register(t, "student", user.RoleStudent)
	f.register(t, "stranger", user.RoleStudent)
	conv, err := f.coord.GetOrCreateConversation(ctx, "client", user.RoleCustomer, "student", "")
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}

	first, err := f.coord.PostMessage(ctx, conv.ID, "client", "Hello")
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	list, _ := f.coord.ListConversations(ctx, "client")
	if len(list) != 1 || list[0].LastMessage != "Hello" || list[0].LastMessageAt == nil || !list[0].LastMessageAt.Equal(first.CreatedAt) {
		t.Fatalf("projection after first message = %+v", list)
	}
	before := *list[0].LastMessageAt

	second, err := f.coord.PostMessage(ctx, conv.ID, "student", "Hi, when do we start?")
	if err != nil {
		t.Fatalf("reply: %v", err)
	}
	list, _ = f.coord.ListConversations(ctx, "client")
	if list[0].LastMessage != "Hi, when do we start?" {
		t.Fatalf("last message = %q", list[0].LastMessage)
	}
	if !list[0].LastMessageAt.After(before) || !list[0].LastMessageAt.Equal(second.CreatedAt) {
		t.Fatalf("last_message_at = %v, want after %v", list[0].LastMessageAt, before)
	}

	_, err = f.coord.PostMessage(ctx, conv.ID, "stranger", "let me in")
	wantCode(t, err, apperrors.CodeForbidden)
	_, err = f.coord.PostMessage(ctx, conv.ID, "client", "")
	wantCode(t, err, apperrors.CodeValidation)
	_, err = f.coord.ListMessages(ctx, conv.ID, "stranger")
	wantCode(t, err, apperrors.CodeForbidden)

	// The sender fetching leaves their own message unread for the recipient.
	msgs, err := f.coord.ListMessages(ctx, conv.ID, "client")
	if err != nil {
		t.Fatalf("client list: %v", err)
	}
	for _, msg := range msgs {
		if msg.SenderID == "client" && msg.ReadAt != nil {
			t.Fatalf("client's own message %s marked read", msg.ID)
		}
		if msg.SenderID == "student" && msg.ReadAt == nil {
			t.Fatalf("student's message %s not marked read for client", msg.ID)
		}
	}

	studentView, _ := f.coord.ListConversations(ctx, "student")
	if studentView[0].UnreadCount != 1 {
		t.Fatalf("student unread = %d, want 1", studentView[0].UnreadCount)
	}
	msgs, err = f.coord.ListMessages(ctx, conv.ID, "student")
	if err != nil {
		t.Fatalf("student list: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "Hello" {
		t.Fatalf("thread = %+v", msgs)
	}
	if msgs[0].ReadAt == nil {
		t.Fatal("client's message must be read after the student fetches")
	}
	studentView, _ = f.coord.ListConversations(ctx, "student")
	if studentView[0].UnreadCount != 0 {
		t.Fatalf("student unread = %d, want 0", studentView[0].UnreadCount)
	}
}

func TestNilCoordinatorStoreIsInternal(t *testing.T) {
	t.Parallel()
	_, err := New(nil).GetMission(context.Background(), "a", "b")
	wantCode(t, err, apperrors.CodeInternal)
}
