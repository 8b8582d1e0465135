package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestServer はE2Eテスト用のサーバー
type TestServer struct {
	Echo *echo.Echo
}

// Request はHTTPリクエストを実行
func (s *TestServer) Request(method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody []byte
	if body != nil {
		reqBody, _ = json.Marshal(body)
	}

	req := httptest.NewRequest(method, path, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.Echo.ServeHTTP(rec, req)
	return rec
}

// signupAndLogin はユーザーを登録してトークンを取得
func signupAndLogin(t *testing.T, server *TestServer, email, name string) string {
	t.Helper()
	rec := server.Request("POST", "/api/v1/auth/register", map[string]interface{}{
		"email":    email,
		"password": "password123",
		"name":     name,
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	return login(t, server, email)
}

// login はログインしてトークンを取得
func login(t *testing.T, server *TestServer, email string) string {
	t.Helper()
	rec := server.Request("POST", "/api/v1/auth/login", map[string]interface{}{
		"email":    email,
		"password": "password123",
	}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	token := resp["token"].(string)
	require.NotEmpty(t, token)
	return token
}

// signupFacilitator はファシリテーターを作成してトークンを取得
// 役割の昇格は管理操作なのでDBを直接更新し、新しい役割でログインし直す
func signupFacilitator(t *testing.T, server *TestServer, email, name string) string {
	t.Helper()
	signupAndLogin(t, server, email, name)

	_, err := testDB.Exec("UPDATE users SET role = 'facilitator' WHERE email = $1", email)
	require.NoError(t, err)

	return login(t, server, email)
}

// TestE2E_HealthCheck はヘルスチェックをテスト
func TestE2E_HealthCheck(t *testing.T) {
	server := getTestServer(t)

	rec := server.Request("GET", "/api/v1/health", nil, "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	err := json.Unmarshal(rec.Body.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp["status"])
}

// TestE2E_CompleteBookingJourney は体験予約の完全なジャーニーをテスト
func TestE2E_CompleteBookingJourney(t *testing.T) {
	server := getTestServer(t)

	facilitatorToken := signupFacilitator(t, server, "facilitator@amatlan.example.com", "Don Miguel")
	guestToken := signupAndLogin(t, server, "guest@example.com", "María López")

	var experienceID, sessionID, bookingID string

	// 1. 体験作成
	t.Run("体験作成", func(t *testing.T) {
		body := map[string]interface{}{
			"name":        "テマスカル浄化体験",
			"description": "伝統的な蒸気浴の儀式",
			"category":    "temazcal",
			"price":       85000,
		}

		rec := server.Request("POST", "/api/v1/experiences", body, facilitatorToken)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		experienceID = resp["id"].(string)
		assert.NotEmpty(t, experienceID)
	})

	// 2. 開催枠作成
	t.Run("開催枠作成", func(t *testing.T) {
		body := map[string]interface{}{
			"experience_id": experienceID,
			"start_time":    time.Now().Add(7 * 24 * time.Hour).Format(time.RFC3339),
			"max_capacity":  8,
		}

		rec := server.Request("POST", "/api/v1/sessions", body, facilitatorToken)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		sessionID = resp["id"].(string)
		assert.Equal(t, float64(8), resp["remaining"])
	})

	// 3. 空き枠確認
	t.Run("空き枠確認", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/sessions/%s/availability", sessionID)
		rec := server.Request("GET", path, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, float64(8), resp["remaining"])
	})

	// 4. 予約作成
	t.Run("予約作成", func(t *testing.T) {
		body := map[string]interface{}{
			"experience_id": experienceID,
			"session_id":    sessionID,
			"participants":  2,
			"contact_info": map[string]interface{}{
				"name":  "María López",
				"email": "guest@example.com",
				"phone": "+52-777-123-4567",
			},
		}

		rec := server.Request("POST", "/api/v1/bookings", body, guestToken)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		bookingID = resp["id"].(string)
		assert.Equal(t, "pending", resp["status"])
		assert.Equal(t, float64(170000), resp["total_price"])
	})

	// 5. 空き枠が減っていることを確認
	t.Run("空き枠減少確認", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/sessions/%s/availability", sessionID)
		rec := server.Request("GET", path, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, float64(6), resp["remaining"])
	})

	// 6. 予約確定
	t.Run("予約確定", func(t *testing.T) {
		body := map[string]interface{}{"status": "confirmed"}
		path := fmt.Sprintf("/api/v1/bookings/%s", bookingID)
		rec := server.Request("PUT", path, body, guestToken)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, "confirmed", resp["status"])
	})

	// 7. チケットPDF取得
	t.Run("チケット取得", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/bookings/%s/ticket", bookingID)
		rec := server.Request("GET", path, nil, guestToken)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
		assert.Equal(t, "%PDF", rec.Body.String()[:4])
	})

	// 8. 他人の予約は見えない
	t.Run("他人の予約は見えない", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/bookings/%s", bookingID)
		rec := server.Request("GET", path, nil, facilitatorToken)
		// ファシリテーターは自分の体験の予約を閲覧できる
		require.Equal(t, http.StatusOK, rec.Code)

		strangerToken := signupAndLogin(t, server, "stranger@example.com", "Stranger")
		rec = server.Request("GET", path, nil, strangerToken)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	// 9. キャンセルで枠が戻る
	t.Run("キャンセルで枠が戻る", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/bookings/%s", bookingID)
		rec := server.Request("DELETE", path, nil, guestToken)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, "cancelled", resp["status"])

		availPath := fmt.Sprintf("/api/v1/sessions/%s/availability", sessionID)
		rec = server.Request("GET", availPath, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var avail map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &avail)
		assert.Equal(t, float64(8), avail["remaining"])
	})

	// 10. 二重キャンセルは拒否
	t.Run("二重キャンセルは拒否", func(t *testing.T) {
		path := fmt.Sprintf("/api/v1/bookings/%s", bookingID)
		rec := server.Request("DELETE", path, nil, guestToken)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

// TestE2E_CapacityExceeded は定員超過の拒否をテスト
func TestE2E_CapacityExceeded(t *testing.T) {
	server := getTestServer(t)

	facilitatorToken := signupFacilitator(t, server, "facilitator@amatlan.example.com", "Don Miguel")

	// 定員2の開催枠を作成
	rec := server.Request("POST", "/api/v1/experiences", map[string]interface{}{
		"name":     "満月の瞑想リトリート",
		"category": "meditation",
		"price":    50000,
	}, facilitatorToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	var expResp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &expResp)
	experienceID := expResp["id"].(string)

	rec = server.Request("POST", "/api/v1/sessions", map[string]interface{}{
		"experience_id": experienceID,
		"start_time":    time.Now().Add(3 * 24 * time.Hour).Format(time.RFC3339),
		"max_capacity":  2,
	}, facilitatorToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	var sessionResp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &sessionResp)
	sessionID := sessionResp["id"].(string)

	contact := map[string]interface{}{"name": "Guest", "email": "guest-a@example.com"}

	t.Run("ゲストAが2名で予約成功", func(t *testing.T) {
		token := signupAndLogin(t, server, "guest-a@example.com", "Guest A")
		rec := server.Request("POST", "/api/v1/bookings", map[string]interface{}{
			"experience_id": experienceID,
			"session_id":    sessionID,
			"participants":  2,
			"contact_info":  contact,
		}, token)
		assert.Equal(t, http.StatusCreated, rec.Code)
	})

	t.Run("満席の枠への予約は定員超過エラー", func(t *testing.T) {
		token := signupAndLogin(t, server, "guest-b@example.com", "Guest B")
		rec := server.Request("POST", "/api/v1/bookings", map[string]interface{}{
			"experience_id": experienceID,
			"session_id":    sessionID,
			"participants":  1,
			"contact_info":  contact,
		}, token)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})
}

// TestE2E_EventRegistrationFlow はイベント出席登録のフローをテスト
func TestE2E_EventRegistrationFlow(t *testing.T) {
	server := getTestServer(t)

	facilitatorToken := signupFacilitator(t, server, "facilitator@amatlan.example.com", "Don Miguel")
	guestToken := signupAndLogin(t, server, "guest@example.com", "María López")

	// 定員1のイベントを作成
	rec := server.Request("POST", "/api/v1/events", map[string]interface{}{
		"name":         "満月のセレモニー",
		"location":     "Cerro del Tepozteco",
		"start_date":   time.Now().Add(10 * 24 * time.Hour).Format(time.RFC3339),
		"max_capacity": 1,
	}, facilitatorToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	var eventResp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &eventResp)
	eventID := eventResp["id"].(string)
	registerPath := fmt.Sprintf("/api/v1/events/%s/register", eventID)
	countPath := fmt.Sprintf("/api/v1/events/%s/attendees/count", eventID)

	t.Run("出席登録成功", func(t *testing.T) {
		rec := server.Request("POST", registerPath, nil, guestToken)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, "registered", resp["status"])
	})

	t.Run("出席者数の確認", func(t *testing.T) {
		rec := server.Request("GET", countPath, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, float64(1), resp["count"])
	})

	t.Run("二重登録は拒否", func(t *testing.T) {
		rec := server.Request("POST", registerPath, nil, guestToken)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("満員のイベントへの登録は定員超過エラー", func(t *testing.T) {
		otherToken := signupAndLogin(t, server, "other@example.com", "Other Guest")
		rec := server.Request("POST", registerPath, nil, otherToken)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("登録解除で枠が空く", func(t *testing.T) {
		rec := server.Request("DELETE", registerPath, nil, guestToken)
		require.Equal(t, http.StatusNoContent, rec.Code)

		rec = server.Request("GET", countPath, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)
		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, float64(0), resp["count"])
	})

	t.Run("解除後の再登録は同じ行を復活させる", func(t *testing.T) {
		rec := server.Request("POST", registerPath, nil, guestToken)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, "registered", resp["status"])

		// DB上の行は1つのまま
		var count int
		err := testDB.Get(&count, "SELECT COUNT(*) FROM event_attendees WHERE event_id = $1", eventID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

// TestE2E_ReviewFlow はレビュー投稿フローをテスト
func TestE2E_ReviewFlow(t *testing.T) {
	server := getTestServer(t)

	facilitatorToken := signupFacilitator(t, server, "facilitator@amatlan.example.com", "Don Miguel")
	guestToken := signupAndLogin(t, server, "guest@example.com", "María López")

	rec := server.Request("POST", "/api/v1/experiences", map[string]interface{}{
		"name":     "カカオセレモニー",
		"category": "ceremony",
		"price":    30000,
	}, facilitatorToken)
	require.Equal(t, http.StatusCreated, rec.Code)
	var expResp map[string]interface{}
	json.Unmarshal(rec.Body.Bytes(), &expResp)
	experienceID := expResp["id"].(string)
	reviewPath := fmt.Sprintf("/api/v1/experiences/%s/reviews", experienceID)

	t.Run("レビュー投稿成功", func(t *testing.T) {
		rec := server.Request("POST", reviewPath, map[string]interface{}{
			"rating":  5,
			"comment": "深い浄化体験でした",
		}, guestToken)
		require.Equal(t, http.StatusCreated, rec.Code)

		var resp map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Equal(t, float64(5), resp["rating"])
	})

	t.Run("同じ体験への2回目のレビューは拒否", func(t *testing.T) {
		rec := server.Request("POST", reviewPath, map[string]interface{}{
			"rating":  4,
			"comment": "2回目",
		}, guestToken)
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("レビュー一覧取得", func(t *testing.T) {
		rec := server.Request("GET", reviewPath, nil, "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp []map[string]interface{}
		json.Unmarshal(rec.Body.Bytes(), &resp)
		assert.Len(t, resp, 1)
	})
}

// TestE2E_AuthFlow は認証フローをテスト
func TestE2E_AuthFlow(t *testing.T) {
	server := getTestServer(t)

	t.Run("登録済みメールアドレスでの再登録は拒否", func(t *testing.T) {
		body := map[string]interface{}{
			"email":    "dup@example.com",
			"password": "password123",
			"name":     "Dup User",
		}
		rec := server.Request("POST", "/api/v1/auth/register", body, "")
		require.Equal(t, http.StatusCreated, rec.Code)

		rec = server.Request("POST", "/api/v1/auth/register", body, "")
		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("誤ったパスワードでのログインは拒否", func(t *testing.T) {
		rec := server.Request("POST", "/api/v1/auth/login", map[string]interface{}{
			"email":    "dup@example.com",
			"password": "wrong-password",
		}, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("トークンなしでは予約APIにアクセスできない", func(t *testing.T) {
		rec := server.Request("GET", "/api/v1/bookings", nil, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
