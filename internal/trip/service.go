package trip

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"backend-tripplanner/internal/clock"
	"backend-tripplanner/internal/db"
	"backend-tripplanner/internal/mailer"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
)

const minTitleLen = 4

var validate = validator.New()

type Service struct {
	db      db.Querier
	cache   *redis.Client
	mail    mailer.Mailer
	clock   clock.Clock
	apiBase string
	webBase string
}

func NewService(q db.Querier, cache *redis.Client, mail mailer.Mailer, clk clock.Clock, apiBase, webBase string) *Service {
	return &Service{db: q, cache: cache, mail: mail, clock: clk, apiBase: apiBase, webBase: webBase}
}

type CreateTripInput struct {
	Destination    string
	StartAt        time.Time
	EndAt          time.Time
	OwnerName      string
	OwnerEmail     string
	EmailsToInvite []string
}

type UpdateTripInput struct {
	Destination string
	StartAt     time.Time
	EndAt       time.Time
}

// CreateTrip validates the input, inserts the trip together with its owner
// (already confirmed) and one unconfirmed participant per invitee email,
// then emails each invitee a confirmation link. The owner is never mailed.
func (s *Service) CreateTrip(ctx context.Context, input CreateTripInput) (Trip, error) {
	destination := strings.TrimSpace(input.Destination)
	if err := s.validateDates(destination, input.StartAt, input.EndAt); err != nil {
		return Trip{}, err
	}
	if input.OwnerName == "" || validate.Var(input.OwnerEmail, "required,email") != nil {
		return Trip{}, ErrInvalidOwner
	}
	for _, email := range input.EmailsToInvite {
		if validate.Var(email, "required,email") != nil {
			return Trip{}, ErrInvalidInviteeEmail
		}
	}

	t := Trip{
		ID:          uuid.NewString(),
		Destination: destination,
		StartAt:     input.StartAt,
		EndAt:       input.EndAt,
	}

	// The trip row and its participant rows land in one transaction; a trip
	// without an owner must never be observable.
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return Trip{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `
		INSERT INTO trips (id, destination, start_at, end_at, is_confirmed)
		VALUES ($1,$2,$3,$4,FALSE)
		RETURNING created_at
	`, t.ID, t.Destination, t.StartAt, t.EndAt)
	if err := row.Scan(&t.CreatedAt); err != nil {
		return Trip{}, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO participants (id, trip_id, name, email, is_owner, is_confirmed)
		VALUES ($1,$2,$3,$4,TRUE,TRUE)
	`, uuid.NewString(), t.ID, input.OwnerName, input.OwnerEmail)
	if err != nil {
		return Trip{}, err
	}

	invitees := make([]guest, 0, len(input.EmailsToInvite))
	for _, email := range input.EmailsToInvite {
		g := guest{ID: uuid.NewString(), Email: email}
		_, err := tx.Exec(ctx, `
			INSERT INTO participants (id, trip_id, email, is_owner, is_confirmed)
			VALUES ($1,$2,$3,FALSE,FALSE)
		`, g.ID, t.ID, g.Email)
		if err != nil {
			return Trip{}, err
		}
		invitees = append(invitees, g)
	}

	if err := tx.Commit(ctx); err != nil {
		return Trip{}, err
	}

	s.notify(ctx, t, invitees)
	return t, nil
}

// UpdateTrip re-checks the date invariants against the current time, not
// the trip's original creation time. Participants are not re-notified.
func (s *Service) UpdateTrip(ctx context.Context, id string, input UpdateTripInput) (Trip, error) {
	t, err := s.loadTrip(ctx, id)
	if err != nil {
		return Trip{}, err
	}

	destination := strings.TrimSpace(input.Destination)
	if err := s.validateDates(destination, input.StartAt, input.EndAt); err != nil {
		return Trip{}, err
	}

	t.Destination = destination
	t.StartAt = input.StartAt
	t.EndAt = input.EndAt
	_, err = s.db.Exec(ctx, `
		UPDATE trips SET destination=$2, start_at=$3, end_at=$4 WHERE id=$1
	`, t.ID, t.Destination, t.StartAt, t.EndAt)
	if err != nil {
		return Trip{}, err
	}

	s.cacheDrop(ctx, id)
	return t, nil
}

func (s *Service) GetTrip(ctx context.Context, id string) (Trip, error) {
	if t, ok := s.cacheGet(ctx, id); ok {
		return t, nil
	}
	t, err := s.loadTrip(ctx, id)
	if err != nil {
		return Trip{}, err
	}
	s.cacheSet(ctx, t)
	return t, nil
}

func (s *Service) DeleteTrip(ctx context.Context, id string) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM trips WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.cacheDrop(ctx, id)
	return nil
}

// ConfirmTrip marks the trip confirmed and emails every non-owner
// participant their confirmation link. Confirming an already-confirmed
// trip skips both the write and the mail burst; either way the returned
// target is the trip page the caller should redirect to. The flag flip is
// committed before any mail is attempted, so a failed send never reverts
// it.
func (s *Service) ConfirmTrip(ctx context.Context, id string) (string, error) {
	t, err := s.loadTrip(ctx, id)
	if err != nil {
		return "", err
	}

	target := s.webBase + "/trips/" + t.ID
	if t.IsConfirmed {
		return target, nil
	}

	if _, err := s.db.Exec(ctx, `UPDATE trips SET is_confirmed=TRUE WHERE id=$1`, t.ID); err != nil {
		return "", err
	}
	t.IsConfirmed = true
	s.cacheDrop(ctx, id)

	// The flag is already flipped; a failed guest lookup only costs the
	// mail burst, like any other send failure.
	invitees, err := s.guests(ctx, t.ID)
	if err != nil {
		log.Printf("trip %s: loading guests for notification failed: %v", t.ID, err)
		return target, nil
	}
	s.notify(ctx, t, invitees)
	return target, nil
}

// CreateActivity rejects an occurs_at outside the trip window; the exact
// boundary instants are allowed.
func (s *Service) CreateActivity(ctx context.Context, tripID, title string, occursAt time.Time) (Activity, error) {
	t, err := s.loadTrip(ctx, tripID)
	if err != nil {
		return Activity{}, err
	}
	if utf8.RuneCountInString(strings.TrimSpace(title)) < minTitleLen {
		return Activity{}, ErrInvalidTitle
	}
	if occursAt.Before(t.StartAt) || occursAt.After(t.EndAt) {
		return Activity{}, ErrInvalidActivityDate
	}

	a := Activity{
		ID:       uuid.NewString(),
		TripID:   tripID,
		Title:    strings.TrimSpace(title),
		OccursAt: occursAt,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO activities (id, trip_id, title, occurs_at)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, a.ID, a.TripID, a.Title, a.OccursAt)
	if err := row.Scan(&a.CreatedAt); err != nil {
		return Activity{}, err
	}
	return a, nil
}

func (s *Service) ListActivities(ctx context.Context, tripID string) ([]Activity, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, trip_id, title, occurs_at, created_at
		FROM activities WHERE trip_id=$1
		ORDER BY occurs_at
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []Activity
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.TripID, &a.Title, &a.OccursAt, &a.CreatedAt); err != nil {
			return nil, err
		}
		activities = append(activities, a)
	}
	return activities, nil
}

func (s *Service) CreateLink(ctx context.Context, tripID, title, rawURL string) (Link, error) {
	if _, err := s.loadTrip(ctx, tripID); err != nil {
		return Link{}, err
	}
	if utf8.RuneCountInString(strings.TrimSpace(title)) < minTitleLen {
		return Link{}, ErrInvalidTitle
	}
	if validate.Var(rawURL, "required,url") != nil {
		return Link{}, ErrInvalidURL
	}

	l := Link{
		ID:     uuid.NewString(),
		TripID: tripID,
		Title:  strings.TrimSpace(title),
		URL:    rawURL,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO links (id, trip_id, title, url)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, l.ID, l.TripID, l.Title, l.URL)
	if err := row.Scan(&l.CreatedAt); err != nil {
		return Link{}, err
	}
	return l, nil
}

func (s *Service) ListLinks(ctx context.Context, tripID string) ([]Link, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, trip_id, title, url, created_at
		FROM links WHERE trip_id=$1
		ORDER BY created_at
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []Link
	for rows.Next() {
		var l Link
		if err := rows.Scan(&l.ID, &l.TripID, &l.Title, &l.URL, &l.CreatedAt); err != nil {
			return nil, err
		}
		links = append(links, l)
	}
	return links, nil
}

func (s *Service) validateDates(destination string, startAt, endAt time.Time) error {
	if utf8.RuneCountInString(destination) < minTitleLen {
		return ErrInvalidDestination
	}
	if startAt.Before(s.clock.Now()) {
		return ErrInvalidStartDate
	}
	if endAt.Before(startAt) {
		return ErrInvalidEndDate
	}
	return nil
}

func (s *Service) loadTrip(ctx context.Context, id string) (Trip, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, destination, start_at, end_at, is_confirmed, created_at
		FROM trips WHERE id=$1
	`, id)
	var t Trip
	if err := row.Scan(&t.ID, &t.Destination, &t.StartAt, &t.EndAt, &t.IsConfirmed, &t.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Trip{}, ErrNotFound
		}
		return Trip{}, err
	}
	return t, nil
}

type guest struct {
	ID    string
	Name  string
	Email string
}

func (s *Service) guests(ctx context.Context, tripID string) ([]guest, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, name, email FROM participants
		WHERE trip_id=$1 AND is_owner=FALSE
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var guests []guest
	for rows.Next() {
		var g guest
		if err := rows.Scan(&g.ID, &g.Name, &g.Email); err != nil {
			return nil, err
		}
		guests = append(guests, g)
	}
	return guests, nil
}

// notify fans the invitation mails out concurrently and waits for every
// send to be attempted. Failures are logged only; mail is best effort.
func (s *Service) notify(ctx context.Context, t Trip, invitees []guest) {
	var wg sync.WaitGroup
	for _, g := range invitees {
		wg.Add(1)
		go func(g guest) {
			defer wg.Done()
			confirmURL := s.apiBase + "/participants/" + g.ID + "/confirm"
			msg := mailer.Invitation(g.Name, g.Email, t.Destination, t.StartAt, t.EndAt, confirmURL)
			if err := s.mail.Send(ctx, msg); err != nil {
				log.Printf("trip %s: mail to %s failed: %v", t.ID, g.Email, err)
			}
		}(g)
	}
	wg.Wait()
}
