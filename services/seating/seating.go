// Package seating owns every write to a session's participant list, so the
// capacity rule is checked in exactly one place.
package seating

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wellbe/database/repository"
	sessionRepo "wellbe/database/repository/session"
	"wellbe/models"
	"wellbe/utils"
)

// Admit checks whether p may be added to s at time now.
func Admit(s *models.Session, p models.Participant, now time.Time) error {
	if p.Quantity < 1 {
		return utils.InvalidInput("quantity must be a positive integer")
	}
	if s.IsPast(now) {
		return utils.InvalidState("session %s has already ended", s.ID)
	}
	if s.HasStarted(now) {
		return utils.InvalidState("session %s has already started", s.ID)
	}
	if s.ParticipantIndex(p.UserID) >= 0 {
		return utils.Conflict("user %s already holds a seat in session %s", p.UserID, s.ID)
	}
	if s.MaxParticipants > 0 && s.SeatsTaken()+p.Quantity > s.MaxParticipants {
		return utils.InvalidState("session %s is full", s.ID)
	}
	return nil
}

// Manager applies participant changes with versioned writes, re-reading and
// re-checking on a lost race.
type Manager struct {
	Sessions sessionRepo.SessionRepository
	Now      func() time.Time
}

func (m *Manager) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

// Seat admits p into the session and returns the updated session.
func (m *Manager) Seat(ctx context.Context, sessionID string, p models.Participant) (*models.Session, error) {
	return m.mutate(ctx, sessionID, func(s *models.Session) (bool, error) {
		now := m.now()
		if err := Admit(s, p, now); err != nil {
			return false, err
		}
		if p.JoinedAt.IsZero() {
			p.JoinedAt = now
		}
		if p.Status == "" {
			p.Status = models.ParticipantPending
		}
		s.Participants = append(s.Participants, p)
		return true, nil
	})
}

// Release removes userID from the participant list. Absent users are a no-op.
func (m *Manager) Release(ctx context.Context, sessionID, userID string) error {
	_, err := m.mutate(ctx, sessionID, func(s *models.Session) (bool, error) {
		kept := s.Participants[:0:0]
		for _, p := range s.Participants {
			if p.UserID != userID {
				kept = append(kept, p)
			}
		}
		if len(kept) == len(s.Participants) {
			return false, nil
		}
		s.Participants = kept
		return true, nil
	})
	return err
}

// SetStatus changes the status of userID's seat. Absent users are a no-op.
func (m *Manager) SetStatus(ctx context.Context, sessionID, userID, status string) error {
	_, err := m.mutate(ctx, sessionID, func(s *models.Session) (bool, error) {
		i := s.ParticipantIndex(userID)
		if i < 0 || s.Participants[i].Status == status {
			return false, nil
		}
		s.Participants[i].Status = status
		return true, nil
	})
	return err
}

func (m *Manager) mutate(ctx context.Context, sessionID string, apply func(*models.Session) (bool, error)) (*models.Session, error) {
	for attempt := 0; attempt < utils.MaxWriteRetries; attempt++ {
		s, err := m.Sessions.GetByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, utils.NotFound("session %s not found", sessionID)
			}
			return nil, err
		}
		changed, err := apply(s)
		if err != nil || !changed {
			return s, err
		}
		err = m.Sessions.SaveParticipants(ctx, s)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, repository.ErrVersionConflict) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("session %s: %w after %d attempts", sessionID, repository.ErrVersionConflict, utils.MaxWriteRetries)
}
