package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/davorint/amatlan-booking/internal/domain/authz"
	"github.com/davorint/amatlan-booking/internal/domain/booking"
	"github.com/davorint/amatlan-booking/internal/domain/event"
	"github.com/davorint/amatlan-booking/internal/domain/experience"
	"github.com/davorint/amatlan-booking/internal/domain/review"
	"github.com/davorint/amatlan-booking/internal/domain/session"
	"github.com/davorint/amatlan-booking/internal/domain/user"
)

// httpError はドメインエラーをHTTPステータスに対応付ける
// 分類ごとに必ず異なるステータスを返す：
//
//	バリデーション → 400 / 認証失敗 → 401 / 権限なし → 403
//	対象なし → 404 / 一意制約・状態競合 → 409 / 定員超過 → 422
//	それ以外 → 500（詳細は隠蔽しログのみ）
func httpError(err error) *echo.HTTPError {
	switch {
	case isNotFound(err):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case isCapacityExceeded(err):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	case isConflict(err):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, authz.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, user.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case isValidation(err):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "内部サーバーエラー")
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, session.ErrSessionNotFound) ||
		errors.Is(err, booking.ErrBookingNotFound) ||
		errors.Is(err, experience.ErrExperienceNotFound) ||
		errors.Is(err, event.ErrEventNotFound) ||
		errors.Is(err, event.ErrRegistrationNotFound) ||
		errors.Is(err, review.ErrReviewNotFound) ||
		errors.Is(err, user.ErrUserNotFound)
}

func isCapacityExceeded(err error) bool {
	return errors.Is(err, session.ErrCapacityExceeded) ||
		errors.Is(err, event.ErrEventCapacityExceeded)
}

func isConflict(err error) bool {
	return errors.Is(err, event.ErrAlreadyRegistered) ||
		errors.Is(err, event.ErrRegistrationAlreadyCancelled) ||
		errors.Is(err, booking.ErrBookingAlreadyCancelled) ||
		errors.Is(err, booking.ErrInvalidStatusTransition) ||
		errors.Is(err, review.ErrDuplicateReview) ||
		errors.Is(err, user.ErrEmailAlreadyExists)
}

func isValidation(err error) bool {
	return errors.Is(err, booking.ErrInvalidParticipants) ||
		errors.Is(err, booking.ErrContactInfoRequired) ||
		errors.Is(err, booking.ErrUserIDRequired) ||
		errors.Is(err, booking.ErrExperienceIDRequired) ||
		errors.Is(err, session.ErrSessionNotActive) ||
		errors.Is(err, session.ErrCapacityBelowBooked) ||
		errors.Is(err, session.ErrInvalidMaxCapacity) ||
		errors.Is(err, session.ErrInvalidSessionTime) ||
		errors.Is(err, session.ErrStartTimeRequired) ||
		errors.Is(err, session.ErrInvalidParticipants) ||
		errors.Is(err, session.ErrInvalidPrice) ||
		errors.Is(err, experience.ErrExperienceNotActive) ||
		errors.Is(err, experience.ErrExperienceNameRequired) ||
		errors.Is(err, experience.ErrInvalidPrice) ||
		errors.Is(err, event.ErrEventNotOpen) ||
		errors.Is(err, event.ErrEventNameRequired) ||
		errors.Is(err, event.ErrStartDateRequired) ||
		errors.Is(err, event.ErrInvalidMaxCapacity) ||
		errors.Is(err, review.ErrInvalidRating) ||
		errors.Is(err, user.ErrEmailRequired) ||
		errors.Is(err, user.ErrPasswordRequired) ||
		errors.Is(err, user.ErrInvalidRole)
}
