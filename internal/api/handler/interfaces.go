package handler

import (
	"context"

	"github.com/davorint/amatlan-booking/internal/application"
	"github.com/davorint/amatlan-booking/internal/domain/authz"
	"github.com/davorint/amatlan-booking/internal/domain/booking"
	"github.com/davorint/amatlan-booking/internal/domain/event"
	"github.com/davorint/amatlan-booking/internal/domain/experience"
	"github.com/davorint/amatlan-booking/internal/domain/review"
	"github.com/davorint/amatlan-booking/internal/domain/session"
	"github.com/davorint/amatlan-booking/internal/domain/user"
)

// AuthServiceInterface は認証サービスのインターフェース
type AuthServiceInterface interface {
	Register(ctx context.Context, input application.RegisterInput) (*user.User, error)
	Login(ctx context.Context, email, password string) (string, *user.User, error)
}

// ExperienceServiceInterface は体験サービスのインターフェース
type ExperienceServiceInterface interface {
	CreateExperience(ctx context.Context, input application.CreateExperienceInput) (*experience.Experience, error)
	GetExperience(ctx context.Context, id string) (*experience.Experience, error)
	ListExperiences(ctx context.Context, limit, offset int) ([]*experience.Experience, error)
	UpdateExperience(ctx context.Context, input application.UpdateExperienceInput) (*experience.Experience, error)
}

// SessionServiceInterface は開催枠サービスのインターフェース
type SessionServiceInterface interface {
	CreateSession(ctx context.Context, input application.CreateSessionInput) (*session.Session, error)
	GetSession(ctx context.Context, id string) (*session.Session, error)
	GetSessionsByExperience(ctx context.Context, experienceID string) ([]*session.Session, error)
	UpdateSession(ctx context.Context, input application.UpdateSessionInput) (*session.Session, error)
	GetAvailability(ctx context.Context, sessionID string) (int, error)
}

// BookingServiceInterface は予約サービスのインターフェース
type BookingServiceInterface interface {
	CreateBooking(ctx context.Context, input application.CreateBookingInput) (*booking.Booking, error)
	GetBooking(ctx context.Context, actor authz.Actor, id string) (*booking.Booking, error)
	GetUserBookings(ctx context.Context, actor authz.Actor, limit, offset int) ([]*booking.Booking, error)
	UpdateBooking(ctx context.Context, input application.UpdateBookingInput) (*booking.Booking, error)
	CancelBooking(ctx context.Context, actor authz.Actor, id string) (*booking.Booking, error)
}

// EventServiceInterface はイベントサービスのインターフェース
type EventServiceInterface interface {
	CreateEvent(ctx context.Context, input application.CreateEventInput) (*event.Event, error)
	GetEvent(ctx context.Context, id string) (*event.Event, error)
	ListEvents(ctx context.Context, limit, offset int) ([]*event.Event, error)
	UpdateEvent(ctx context.Context, input application.UpdateEventInput) (*event.Event, error)
	Register(ctx context.Context, actor authz.Actor, eventID string) (*event.Attendee, error)
	Unregister(ctx context.Context, actor authz.Actor, eventID string) error
	GetAttendeeCount(ctx context.Context, eventID string) (int, error)
}

// ReviewServiceInterface はレビューサービスのインターフェース
type ReviewServiceInterface interface {
	CreateReview(ctx context.Context, input application.CreateReviewInput) (*review.Review, error)
	GetReviewsByExperience(ctx context.Context, experienceID string, limit, offset int) ([]*review.Review, error)
}
