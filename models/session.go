package models

import "time"

// Participant statuses.
const (
	ParticipantPending   = "pending"
	ParticipantConfirmed = "confirmed"
	ParticipantCancelled = "cancelled"
)

type Participant struct {
	UserID   string    `bson:"userId" json:"userId"`
	Status   string    `bson:"status" json:"status"`
	Quantity int       `bson:"quantity" json:"quantity"`
	Note     string    `bson:"note,omitempty" json:"note,omitempty"`
	JoinedAt time.Time `bson:"joinedAt" json:"joinedAt"`
}

type Review struct {
	UserID    string    `bson:"userId" json:"userId"`
	Rating    int       `bson:"rating" json:"rating"`
	Comment   string    `bson:"comment,omitempty" json:"comment,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type RatingStats struct {
	Average float64 `bson:"average" json:"average"`
	Count   int     `bson:"count" json:"count"`
}

// Session is a time-bound offering by a professional that clients book seats in.
type Session struct {
	ID              string        `bson:"id" json:"id"`
	ProfessionalID  string        `bson:"professionalId" json:"professionalId"`
	Title           string        `bson:"title" json:"title"`
	Description     string        `bson:"description,omitempty" json:"description,omitempty"`
	Duration        int           `bson:"duration" json:"duration"` // minutes
	Price           float64       `bson:"price" json:"price"`
	Currency        string        `bson:"currency" json:"currency"`
	StartsAt        time.Time     `bson:"startsAt" json:"startsAt"`
	EndsAt          time.Time     `bson:"endsAt" json:"endsAt"`
	Location        Location      `bson:"location" json:"location"`
	MaxParticipants int           `bson:"maxParticipants" json:"maxParticipants"` // 0 means unlimited
	Participants    []Participant `bson:"participants" json:"participants"`
	Reviews         []Review      `bson:"reviews,omitempty" json:"reviews,omitempty"`
	RatingStats     RatingStats   `bson:"ratingStats" json:"ratingStats"`
	Version         int           `bson:"version" json:"version"`
	CreatedAt       time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time     `bson:"updatedAt" json:"updatedAt"`
}

func (s *Session) HasStarted(now time.Time) bool {
	return !now.Before(s.StartsAt)
}

func (s *Session) IsPast(now time.Time) bool {
	return !now.Before(s.EndsAt)
}

// SeatsTaken sums seats held by non-cancelled participants.
func (s *Session) SeatsTaken() int {
	taken := 0
	for _, p := range s.Participants {
		if p.Status != ParticipantCancelled {
			taken += p.Quantity
		}
	}
	return taken
}

func (s *Session) IsFull() bool {
	return s.MaxParticipants > 0 && s.SeatsTaken() >= s.MaxParticipants
}

func (s *Session) CanBeBooked(now time.Time) bool {
	return !s.HasStarted(now) && !s.IsPast(now) && !s.IsFull()
}

// ParticipantIndex returns the position of a non-cancelled entry for userID, or -1.
func (s *Session) ParticipantIndex(userID string) int {
	for i, p := range s.Participants {
		if p.UserID == userID && p.Status != ParticipantCancelled {
			return i
		}
	}
	return -1
}
