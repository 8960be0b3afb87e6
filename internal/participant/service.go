package participant

import (
	"context"
	"errors"
	"log"
	"time"

	"backend-tripplanner/internal/db"
	"backend-tripplanner/internal/mailer"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var validate = validator.New()

type Service struct {
	db      db.Querier
	mail    mailer.Mailer
	apiBase string
	webBase string
}

func NewService(db db.Querier, mail mailer.Mailer, apiBase, webBase string) *Service {
	return &Service{db: db, mail: mail, apiBase: apiBase, webBase: webBase}
}

// Invite creates an unconfirmed, non-owner participant on an existing trip
// and emails them a confirmation link. Inviting the same email twice is
// allowed and yields two participants.
func (s *Service) Invite(ctx context.Context, tripID, email string) (Participant, error) {
	if err := validate.Var(email, "required,email"); err != nil {
		return Participant{}, ErrInvalidEmail
	}

	var destination string
	var startAt, endAt time.Time
	err := s.db.QueryRow(ctx, `
		SELECT destination, start_at, end_at FROM trips WHERE id=$1
	`, tripID).Scan(&destination, &startAt, &endAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Participant{}, ErrTripNotFound
		}
		return Participant{}, err
	}

	p := Participant{
		ID:     uuid.NewString(),
		TripID: tripID,
		Email:  email,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO participants (id, trip_id, email, is_owner, is_confirmed)
		VALUES ($1,$2,$3,FALSE,FALSE)
		RETURNING created_at
	`, p.ID, p.TripID, p.Email)
	if err := row.Scan(&p.CreatedAt); err != nil {
		return Participant{}, err
	}

	msg := mailer.Invitation(p.Name, p.Email, destination, startAt, endAt, s.ConfirmURL(p.ID))
	if err := s.mail.Send(ctx, msg); err != nil {
		log.Printf("participant %s: invite mail failed: %v", p.ID, err)
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (Details, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, name, email, is_confirmed FROM participants WHERE id=$1
	`, id)
	var d Details
	if err := row.Scan(&d.ID, &d.Name, &d.Email, &d.IsConfirmed); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Details{}, ErrNotFound
		}
		return Details{}, err
	}
	return d, nil
}

func (s *Service) List(ctx context.Context, tripID string) ([]Participant, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, trip_id, name, email, is_owner, is_confirmed, created_at
		FROM participants WHERE trip_id=$1
		ORDER BY created_at
	`, tripID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []Participant
	for rows.Next() {
		var p Participant
		if err := rows.Scan(&p.ID, &p.TripID, &p.Name, &p.Email, &p.IsOwner, &p.IsConfirmed, &p.CreatedAt); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, nil
}

// Confirm flips the participant's confirmation flag. Re-visiting the link
// is a no-op; either way the caller is redirected to the trip page.
func (s *Service) Confirm(ctx context.Context, id string) (string, error) {
	var tripID string
	var confirmed bool
	err := s.db.QueryRow(ctx, `
		SELECT trip_id, is_confirmed FROM participants WHERE id=$1
	`, id).Scan(&tripID, &confirmed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}

	target := s.webBase + "/trips/" + tripID
	if confirmed {
		return target, nil
	}

	if _, err := s.db.Exec(ctx, `UPDATE participants SET is_confirmed=TRUE WHERE id=$1`, id); err != nil {
		return "", err
	}
	return target, nil
}

// ConfirmURL is the link embedded in invitation emails.
func (s *Service) ConfirmURL(id string) string {
	return s.apiBase + "/participants/" + id + "/confirm"
}
