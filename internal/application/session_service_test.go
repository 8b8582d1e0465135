package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/davorint/amatlan-booking/internal/domain/authz"
	"github.com/davorint/amatlan-booking/internal/domain/session"
	"github.com/davorint/amatlan-booking/internal/domain/user"
)

type sessionDeps struct {
	sessionRepo    *MockSessionRepository
	experienceRepo *MockExperienceRepository
	service        *SessionService
}

func newSessionDeps() *sessionDeps {
	sr := new(MockSessionRepository)
	er := new(MockExperienceRepository)
	return &sessionDeps{
		sessionRepo:    sr,
		experienceRepo: er,
		service:        NewSessionService(sr, er, nil),
	}
}

func TestSessionService_CreateSession_Success(t *testing.T) {
	deps := newSessionDeps()
	ctx := context.Background()

	deps.experienceRepo.On("GetByID", ctx, "exp-1").Return(activeExperience(), nil)
	deps.sessionRepo.On("Create", ctx, mock.AnythingOfType("*session.Session")).Return(nil)

	sess, err := deps.service.CreateSession(ctx, CreateSessionInput{
		Actor:        authz.Actor{UserID: "fac-1", Role: user.RoleFacilitator},
		ExperienceID: "exp-1",
		StartTime:    time.Now().Add(24 * time.Hour),
		MaxCapacity:  intPtr(8),
	})

	require.NoError(t, err)
	assert.Equal(t, 0, sess.CurrentCount)
	assert.True(t, sess.Active)
}

func TestSessionService_CreateSession_NotFacilitator(t *testing.T) {
	deps := newSessionDeps()
	ctx := context.Background()

	deps.experienceRepo.On("GetByID", ctx, "exp-1").Return(activeExperience(), nil)

	_, err := deps.service.CreateSession(ctx, CreateSessionInput{
		Actor:        authz.Actor{UserID: "other-fac", Role: user.RoleFacilitator},
		ExperienceID: "exp-1",
		StartTime:    time.Now().Add(24 * time.Hour),
	})

	assert.ErrorIs(t, err, authz.ErrForbidden)
	deps.sessionRepo.AssertNotCalled(t, "Create")
}

func TestSessionService_UpdateSession_CapacityBelowBooked(t *testing.T) {
	deps := newSessionDeps()
	ctx := context.Background()

	sess := &session.Session{
		ID: "session-1", ExperienceID: "exp-1",
		StartTime: time.Now().Add(24 * time.Hour),
		MaxCapacity: intPtr(10), CurrentCount: 6, Active: true,
	}
	deps.sessionRepo.On("GetByID", ctx, "session-1").Return(sess, nil)
	deps.experienceRepo.On("GetByID", ctx, "exp-1").Return(activeExperience(), nil)
	// 予約済み6人を下回る定員への縮小はリポジトリ層で拒否される
	deps.sessionRepo.On("Update", ctx, mock.AnythingOfType("*session.Session")).
		Return(session.ErrCapacityBelowBooked)

	_, err := deps.service.UpdateSession(ctx, UpdateSessionInput{
		Actor:       authz.Actor{UserID: "fac-1", Role: user.RoleFacilitator},
		SessionID:   "session-1",
		MaxCapacity: intPtr(4),
	})

	assert.ErrorIs(t, err, session.ErrCapacityBelowBooked)
}

func TestSessionService_GetAvailability_NoCache(t *testing.T) {
	deps := newSessionDeps()
	ctx := context.Background()

	deps.sessionRepo.On("GetByID", ctx, "session-1").Return(&session.Session{
		ID: "session-1", MaxCapacity: intPtr(8), CurrentCount: 5,
	}, nil)

	remaining, err := deps.service.GetAvailability(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)
}

func TestSessionService_GetAvailability_Unlimited(t *testing.T) {
	deps := newSessionDeps()
	ctx := context.Background()

	deps.sessionRepo.On("GetByID", ctx, "session-1").Return(&session.Session{
		ID: "session-1", CurrentCount: 100,
	}, nil)

	remaining, err := deps.service.GetAvailability(ctx, "session-1")
	require.NoError(t, err)
	assert.Equal(t, -1, remaining)
}
