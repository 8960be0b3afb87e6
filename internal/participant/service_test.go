package participant

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"backend-tripplanner/internal/mailer"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
)

var errQuery = errors.New("query error")

type recorderMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *recorderMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return m.err
}

func (m *recorderMailer) messages() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.sent...)
}

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("mock pool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock
}

func testService(q pgxmock.PgxPoolIface, mail mailer.Mailer) *Service {
	return NewService(q, mail, "http://localhost:3333", "http://localhost:3000")
}

func TestInvite(t *testing.T) {
	mock := newMockPool(t)
	mail := &recorderMailer{}
	svc := testService(mock, mail)

	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT destination, start_at, end_at FROM trips`).
		WithArgs("trip-1").
		WillReturnRows(pgxmock.NewRows([]string{"destination", "start_at", "end_at"}).
			AddRow("Florianópolis", now.AddDate(0, 0, 7), now.AddDate(0, 0, 10)))
	mock.ExpectQuery(`INSERT INTO participants`).
		WithArgs(pgxmock.AnyArg(), "trip-1", "bob@x.com").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))

	p, err := svc.Invite(context.Background(), "trip-1", "bob@x.com")
	if err != nil {
		t.Fatalf("invite: %v", err)
	}
	if p.ID == "" || p.IsConfirmed || p.IsOwner {
		t.Fatalf("invitee must start unconfirmed and non-owner")
	}

	sent := mail.messages()
	if len(sent) != 1 || sent[0].ToEmail != "bob@x.com" {
		t.Fatalf("expected one invite mail to bob@x.com")
	}
	if !strings.Contains(sent[0].HTML, svc.ConfirmURL(p.ID)) {
		t.Fatalf("expected confirmation link for participant %s", p.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInviteDuplicateEmailAllowed(t *testing.T) {
	mock := newMockPool(t)
	mail := &recorderMailer{}
	svc := testService(mock, mail)

	now := time.Now()
	for range 2 {
		mock.ExpectQuery(`SELECT destination, start_at, end_at FROM trips`).
			WithArgs("trip-1").
			WillReturnRows(pgxmock.NewRows([]string{"destination", "start_at", "end_at"}).
				AddRow("Florianópolis", now, now.Add(72*time.Hour)))
		mock.ExpectQuery(`INSERT INTO participants`).
			WithArgs(pgxmock.AnyArg(), "trip-1", "bob@x.com").
			WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
	}

	first, err := svc.Invite(context.Background(), "trip-1", "bob@x.com")
	if err != nil {
		t.Fatalf("first invite: %v", err)
	}
	second, err := svc.Invite(context.Background(), "trip-1", "bob@x.com")
	if err != nil {
		t.Fatalf("second invite: %v", err)
	}
	if first.ID == second.ID {
		t.Fatalf("duplicate invites must produce distinct participants")
	}
}

func TestInviteTripNotFound(t *testing.T) {
	mock := newMockPool(t)
	svc := testService(mock, &recorderMailer{})

	mock.ExpectQuery(`SELECT destination, start_at, end_at FROM trips`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	if _, err := svc.Invite(context.Background(), "missing", "bob@x.com"); !errors.Is(err, ErrTripNotFound) {
		t.Fatalf("got %v, want ErrTripNotFound", err)
	}
}

func TestInviteInvalidEmail(t *testing.T) {
	svc := testService(nil, &recorderMailer{})

	for _, email := range []string{"", "nope", "a@", "@x.com"} {
		if _, err := svc.Invite(context.Background(), "trip-1", email); !errors.Is(err, ErrInvalidEmail) {
			t.Fatalf("email %q: got %v, want ErrInvalidEmail", email, err)
		}
	}
}

func TestInviteMailFailureStillSucceeds(t *testing.T) {
	mock := newMockPool(t)
	mail := &recorderMailer{err: errQuery}
	svc := testService(mock, mail)

	now := time.Now()
	mock.ExpectQuery(`SELECT destination, start_at, end_at FROM trips`).
		WithArgs("trip-1").
		WillReturnRows(pgxmock.NewRows([]string{"destination", "start_at", "end_at"}).
			AddRow("Florianópolis", now, now.Add(72*time.Hour)))
	mock.ExpectQuery(`INSERT INTO participants`).
		WithArgs(pgxmock.AnyArg(), "trip-1", "bob@x.com").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))

	if _, err := svc.Invite(context.Background(), "trip-1", "bob@x.com"); err != nil {
		t.Fatalf("mail failure must not fail the invite: %v", err)
	}
}

func TestGet(t *testing.T) {
	mock := newMockPool(t)
	svc := testService(mock, &recorderMailer{})

	mock.ExpectQuery(`SELECT id, name, email, is_confirmed FROM participants`).
		WithArgs("p-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "name", "email", "is_confirmed"}).
			AddRow("p-1", "Bob", "bob@x.com", false))

	d, err := svc.Get(context.Background(), "p-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if d.Email != "bob@x.com" || d.Name != "Bob" || d.IsConfirmed {
		t.Fatalf("unexpected participant loaded")
	}

	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, key := range []string{"trip_id", "is_owner", "created_at"} {
		if strings.Contains(string(raw), key) {
			t.Fatalf("lookup must not expose %s: %s", key, raw)
		}
	}
}

func TestGetNotFound(t *testing.T) {
	mock := newMockPool(t)
	svc := testService(mock, &recorderMailer{})

	mock.ExpectQuery(`SELECT id, name, email, is_confirmed FROM participants`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	if _, err := svc.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestList(t *testing.T) {
	mock := newMockPool(t)
	svc := testService(mock, &recorderMailer{})

	now := time.Now()
	mock.ExpectQuery(`SELECT id, trip_id, name, email, is_owner, is_confirmed, created_at`).
		WithArgs("trip-1").
		WillReturnRows(pgxmock.NewRows([]string{"id", "trip_id", "name", "email", "is_owner", "is_confirmed", "created_at"}).
			AddRow("p-1", "trip-1", "Ana", "ana@x.com", true, true, now).
			AddRow("p-2", "trip-1", "", "bob@x.com", false, false, now))

	participants, err := svc.List(context.Background(), "trip-1")
	if err != nil || len(participants) != 2 {
		t.Fatalf("list: %v", err)
	}
	if !participants[0].IsOwner || participants[1].IsOwner {
		t.Fatalf("unexpected owner flags")
	}
}

func TestListQueryError(t *testing.T) {
	mock := newMockPool(t)
	svc := testService(mock, &recorderMailer{})

	mock.ExpectQuery(`SELECT id, trip_id, name, email, is_owner, is_confirmed, created_at`).
		WithArgs("trip-err").
		WillReturnError(errQuery)

	if _, err := svc.List(context.Background(), "trip-err"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestConfirm(t *testing.T) {
	mock := newMockPool(t)
	svc := testService(mock, &recorderMailer{})

	mock.ExpectQuery(`SELECT trip_id, is_confirmed FROM participants`).
		WithArgs("p-2").
		WillReturnRows(pgxmock.NewRows([]string{"trip_id", "is_confirmed"}).AddRow("trip-1", false))
	mock.ExpectExec(`UPDATE participants SET is_confirmed=TRUE`).
		WithArgs("p-2").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	target, err := svc.Confirm(context.Background(), "p-2")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if target != "http://localhost:3000/trips/trip-1" {
		t.Fatalf("unexpected redirect target %q", target)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestConfirmIdempotent(t *testing.T) {
	mock := newMockPool(t)
	svc := testService(mock, &recorderMailer{})

	for range 2 {
		mock.ExpectQuery(`SELECT trip_id, is_confirmed FROM participants`).
			WithArgs("p-2").
			WillReturnRows(pgxmock.NewRows([]string{"trip_id", "is_confirmed"}).AddRow("trip-1", true))
	}

	first, err := svc.Confirm(context.Background(), "p-2")
	if err != nil {
		t.Fatalf("first confirm: %v", err)
	}
	second, err := svc.Confirm(context.Background(), "p-2")
	if err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if first != second {
		t.Fatalf("redirect target changed between calls")
	}
	// no UPDATE expectation registered: a second confirm must not write
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestConfirmNotFound(t *testing.T) {
	mock := newMockPool(t)
	svc := testService(mock, &recorderMailer{})

	mock.ExpectQuery(`SELECT trip_id, is_confirmed FROM participants`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)

	if _, err := svc.Confirm(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestConfirmUpdateError(t *testing.T) {
	mock := newMockPool(t)
	svc := testService(mock, &recorderMailer{})

	mock.ExpectQuery(`SELECT trip_id, is_confirmed FROM participants`).
		WithArgs("p-2").
		WillReturnRows(pgxmock.NewRows([]string{"trip_id", "is_confirmed"}).AddRow("trip-1", false))
	mock.ExpectExec(`UPDATE participants SET is_confirmed=TRUE`).
		WithArgs("p-2").
		WillReturnError(errQuery)

	if _, err := svc.Confirm(context.Background(), "p-2"); err == nil {
		t.Fatalf("expected error")
	}
}
