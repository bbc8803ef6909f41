package routing

import (
	"crypto/ed25519"
	"crypto/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gavv/httpexpect/v2"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"microblog/internal/managers"
	"microblog/internal/managers/mocks"
)

func setupMocks(t *testing.T) (*mocks.MockDatabaseManager, managers.JWTMgr, *mocks.MockMailManager) {
	poolMock, err := pgxmock.NewPool()
	if err != nil {
		log.Errorf("Error creating mock database pool: %v", err)
	}

	databaseMgrMock := &mocks.MockDatabaseManager{}
	databaseMgrMock.On("GetPool").Return(poolMock)

	t.Setenv("ENVIRONMENT", "test")
	publicKey, privateKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		log.Errorf("Error generating key pair: %v", err)
	}
	jwtMgr := managers.NewJWTManager(privateKey, publicKey)

	mailMgrMock := &mocks.MockMailManager{}
	mailMgrMock.On("SendActivationMail", mock.AnythingOfType("string"), mock.AnythingOfType("string"), mock.Anything, mock.Anything).Return(nil)
	mailMgrMock.On("SendPasswordResetMail", mock.AnythingOfType("string"), mock.AnythingOfType("string"), mock.Anything, mock.Anything).Return(nil)
	mailMgrMock.On("SendConfirmationMail", mock.AnythingOfType("string"), mock.AnythingOfType("string")).Return(nil)

	return databaseMgrMock, jwtMgr, mailMgrMock
}

func bearerToken(t *testing.T, jwtMgr managers.JWTMgr, userId int64) string {
	t.Helper()
	pair, err := jwtMgr.GenerateTokenPair(userId)
	if err != nil {
		t.Fatalf("generating token pair: %v", err)
	}
	return "Bearer " + pair.Token
}

func TestUserRegistration(t *testing.T) {
	registrationRequest := map[string]interface{}{
		"name":     "testUser",
		"email":    "test@example.com",
		"password": "test.Password123",
	}

	testCases := []struct {
		name   string
		body   map[string]interface{}
		status int
		code   string
	}{
		{"ValidRegistration", registrationRequest, http.StatusCreated, ""},
		{
			"InvalidEmail",
			map[string]interface{}{"name": "testUser", "email": "test@example@.com", "password": "test.Password123"},
			http.StatusBadRequest,
			"ERR-002",
		},
		{
			"ConsecutiveDotsInDomain",
			map[string]interface{}{"name": "testUser", "email": "foo@bar..com", "password": "test.Password123"},
			http.StatusBadRequest,
			"ERR-002",
		},
		{"DuplicateEmail", registrationRequest, http.StatusConflict, "ERR-003"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			databaseMgrMock, jwtMgr, mailMgrMock := setupMocks(t)
			router := InitRouter(databaseMgrMock, mailMgrMock, jwtMgr, nil)

			server := httptest.NewServer(router)
			defer server.Close()

			poolMock := databaseMgrMock.GetPool().(pgxmock.PgxPoolIface)

			switch tc.name {
			case "ValidRegistration":
				poolMock.ExpectBegin()
				poolMock.ExpectQuery("SELECT EXISTS").WithArgs("test@example.com").
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(false))
				poolMock.ExpectQuery("INSERT INTO users").
					WithArgs("testUser", "test@example.com", pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
					WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(int64(1)))
				poolMock.ExpectCommit()
			case "DuplicateEmail":
				poolMock.ExpectBegin()
				poolMock.ExpectQuery("SELECT EXISTS").WithArgs("test@example.com").
					WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
				poolMock.ExpectRollback()
			}

			expect := httpexpect.Default(t, server.URL)
			response := expect.POST("/api/users").WithJSON(tc.body).Expect().Status(tc.status)

			if tc.code == "" {
				response.JSON().IsEqual(map[string]interface{}{
					"userId": 1,
					"name":   "testUser",
					"email":  "test@example.com",
				})
				mailMgrMock.AssertCalled(t, "SendActivationMail", "test@example.com", "testUser", mock.Anything, mock.Anything)
			} else {
				response.JSON().Object().Value("error").Object().HasValue("code", tc.code)
			}

			if err := poolMock.ExpectationsWereMet(); err != nil {
				t.Errorf("there were unfulfilled expectations: %s", err)
			}
		})
	}
}

func TestUserActivation(t *testing.T) {
	activationToken := "sZf90y1DhLxUPzYrqFzfCQ"
	digestBytes, _ := bcrypt.GenerateFromPassword([]byte(activationToken), bcrypt.MinCost)
	activationDigest := string(digestBytes)

	testCases := []struct {
		name      string
		token     string
		activated bool
		status    int
	}{
		{"ValidActivation", activationToken, false, http.StatusOK},
		{"AlreadyActivated", activationToken, true, http.StatusAlreadyReported},
		{"WrongToken", "notTheToken", false, http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			databaseMgrMock, jwtMgr, mailMgrMock := setupMocks(t)
			router := InitRouter(databaseMgrMock, mailMgrMock, jwtMgr, nil)

			server := httptest.NewServer(router)
			defer server.Close()

			poolMock := databaseMgrMock.GetPool().(pgxmock.PgxPoolIface)

			poolMock.ExpectBegin()
			poolMock.ExpectQuery("SELECT name, email, activated, activation_digest").WithArgs(int64(1)).
				WillReturnRows(pgxmock.NewRows([]string{"name", "email", "activated", "activation_digest"}).
					AddRow("testUser", "test@example.com", tc.activated, &activationDigest))
			if tc.status == http.StatusOK {
				poolMock.ExpectExec("UPDATE users SET activated").WithArgs(pgxmock.AnyArg(), int64(1)).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				poolMock.ExpectCommit()
			} else {
				// Rejections release the transaction again.
				poolMock.ExpectRollback()
			}

			expect := httpexpect.Default(t, server.URL)
			response := expect.POST("/api/users/1/activate").
				WithJSON(map[string]interface{}{"token": tc.token}).
				Expect().Status(tc.status)

			if tc.status == http.StatusOK {
				response.JSON().Object().ContainsKey("token").ContainsKey("refreshToken")
				mailMgrMock.AssertCalled(t, "SendConfirmationMail", "test@example.com", "testUser")
			}

			if err := poolMock.ExpectationsWereMet(); err != nil {
				t.Errorf("there were unfulfilled expectations: %s", err)
			}
		})
	}
}

func TestUserLogin(t *testing.T) {
	password := "test.Password123"
	digestBytes, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	passwordDigest := string(digestBytes)

	testCases := []struct {
		name       string
		password   string
		activated  bool
		rememberMe bool
		unknown    bool
		status     int
		code       string
	}{
		{"ValidLogin", password, true, false, false, http.StatusOK, ""},
		{"ValidLoginWithRemember", password, true, true, false, http.StatusOK, ""},
		{"UnknownEmail", password, true, false, true, http.StatusForbidden, "ERR-005"},
		{"NotActivated", password, false, false, false, http.StatusForbidden, "ERR-006"},
		{"WrongPassword", "wrong.Password123", true, false, false, http.StatusForbidden, "ERR-005"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			databaseMgrMock, jwtMgr, mailMgrMock := setupMocks(t)
			router := InitRouter(databaseMgrMock, mailMgrMock, jwtMgr, nil)

			server := httptest.NewServer(router)
			defer server.Close()

			poolMock := databaseMgrMock.GetPool().(pgxmock.PgxPoolIface)

			poolMock.ExpectBegin()
			credentialsQuery := poolMock.ExpectQuery("SELECT user_id, password_digest, activated").
				WithArgs("test@example.com")
			if tc.unknown {
				credentialsQuery.WillReturnError(pgx.ErrNoRows)
			} else {
				credentialsQuery.WillReturnRows(pgxmock.NewRows([]string{"user_id", "password_digest", "activated"}).
					AddRow(int64(1), passwordDigest, tc.activated))
			}
			if tc.status == http.StatusOK {
				if tc.rememberMe {
					poolMock.ExpectExec("UPDATE users SET remember_digest").
						WithArgs(pgxmock.AnyArg(), int64(1)).
						WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				}
				poolMock.ExpectCommit()
			} else {
				poolMock.ExpectRollback()
			}

			expect := httpexpect.Default(t, server.URL)
			response := expect.POST("/api/users/login").WithJSON(map[string]interface{}{
				"email":      "test@example.com",
				"password":   tc.password,
				"rememberMe": tc.rememberMe,
			}).Expect().Status(tc.status)

			if tc.code == "" {
				response.JSON().Object().ContainsKey("token").ContainsKey("refreshToken")
				if tc.rememberMe {
					response.Cookie("remember_token").Value().NotEmpty()
					response.Cookie("remember_user").Value().NotEmpty()
				}
			} else {
				response.JSON().Object().Value("error").Object().HasValue("code", tc.code)
			}

			if err := poolMock.ExpectationsWereMet(); err != nil {
				t.Errorf("there were unfulfilled expectations: %s", err)
			}
		})
	}
}

func TestFollowGraph(t *testing.T) {
	t.Run("Follow", func(t *testing.T) {
		databaseMgrMock, jwtMgr, mailMgrMock := setupMocks(t)
		router := InitRouter(databaseMgrMock, mailMgrMock, jwtMgr, nil)

		server := httptest.NewServer(router)
		defer server.Close()

		poolMock := databaseMgrMock.GetPool().(pgxmock.PgxPoolIface)
		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT EXISTS").WithArgs(int64(2)).
			WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))
		poolMock.ExpectExec("INSERT INTO relationships").
			WithArgs(int64(1), int64(2), pgxmock.AnyArg()).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		poolMock.ExpectCommit()

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/api/relationships").
			WithHeader("Authorization", bearerToken(t, jwtMgr, 1)).
			WithJSON(map[string]interface{}{"userId": 2}).
			Expect().Status(http.StatusCreated)
		response.JSON().Object().
			HasValue("followerId", 1).
			HasValue("followedId", 2).
			ContainsKey("creationDate")

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("SelfFollow", func(t *testing.T) {
		databaseMgrMock, jwtMgr, mailMgrMock := setupMocks(t)
		router := InitRouter(databaseMgrMock, mailMgrMock, jwtMgr, nil)

		server := httptest.NewServer(router)
		defer server.Close()

		expect := httpexpect.Default(t, server.URL)
		response := expect.POST("/api/relationships").
			WithHeader("Authorization", bearerToken(t, jwtMgr, 1)).
			WithJSON(map[string]interface{}{"userId": 1}).
			Expect().Status(http.StatusConflict)
		response.JSON().Object().Value("error").Object().HasValue("code", "ERR-012")
	})

	t.Run("Unfollow", func(t *testing.T) {
		databaseMgrMock, jwtMgr, mailMgrMock := setupMocks(t)
		router := InitRouter(databaseMgrMock, mailMgrMock, jwtMgr, nil)

		server := httptest.NewServer(router)
		defer server.Close()

		poolMock := databaseMgrMock.GetPool().(pgxmock.PgxPoolIface)
		poolMock.ExpectExec("DELETE FROM relationships").WithArgs(int64(1), int64(2)).
			WillReturnResult(pgxmock.NewResult("DELETE", 1))

		expect := httpexpect.Default(t, server.URL)
		expect.DELETE("/api/relationships/2").
			WithHeader("Authorization", bearerToken(t, jwtMgr, 1)).
			Expect().Status(http.StatusNoContent)

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("UnfollowMissingEdge", func(t *testing.T) {
		databaseMgrMock, jwtMgr, mailMgrMock := setupMocks(t)
		router := InitRouter(databaseMgrMock, mailMgrMock, jwtMgr, nil)

		server := httptest.NewServer(router)
		defer server.Close()

		poolMock := databaseMgrMock.GetPool().(pgxmock.PgxPoolIface)
		poolMock.ExpectExec("DELETE FROM relationships").WithArgs(int64(1), int64(2)).
			WillReturnResult(pgxmock.NewResult("DELETE", 0))

		expect := httpexpect.Default(t, server.URL)
		response := expect.DELETE("/api/relationships/2").
			WithHeader("Authorization", bearerToken(t, jwtMgr, 1)).
			Expect().Status(http.StatusNotFound)
		response.JSON().Object().Value("error").Object().HasValue("code", "ERR-013")

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})
}

func TestFeed(t *testing.T) {
	databaseMgrMock, jwtMgr, mailMgrMock := setupMocks(t)
	router := InitRouter(databaseMgrMock, mailMgrMock, jwtMgr, nil)

	server := httptest.NewServer(router)
	defer server.Close()

	older := time.Date(2026, 8, 27, 10, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)

	poolMock := databaseMgrMock.GetPool().(pgxmock.PgxPoolIface)
	poolMock.ExpectQuery("SELECT COUNT").WithArgs(int64(1)).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(2))
	poolMock.ExpectQuery("SELECT m.micropost_id").WithArgs(int64(1), 0, 10).
		WillReturnRows(pgxmock.NewRows([]string{"micropost_id", "content", "created_at", "user_id", "name"}).
			AddRow(int64(7), "from a followed user", newer, int64(2), "otherUser").
			AddRow(int64(3), "own post", older, int64(1), "testUser"))

	expect := httpexpect.Default(t, server.URL)
	response := expect.GET("/api/feed").
		WithHeader("Authorization", bearerToken(t, jwtMgr, 1)).
		Expect().Status(http.StatusOK)

	response.JSON().IsEqual(map[string]interface{}{
		"records": []map[string]interface{}{
			{
				"micropostId":  7,
				"author":       map[string]interface{}{"userId": 2, "name": "otherUser"},
				"content":      "from a followed user",
				"creationDate": "2026-08-28T10:00:00Z",
			},
			{
				"micropostId":  3,
				"author":       map[string]interface{}{"userId": 1, "name": "testUser"},
				"content":      "own post",
				"creationDate": "2026-08-27T10:00:00Z",
			},
		},
		"pagination": map[string]interface{}{
			"offset":  0,
			"limit":   10,
			"records": 2,
		},
	})

	if err := poolMock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestFeedUnauthorized(t *testing.T) {
	databaseMgrMock, jwtMgr, mailMgrMock := setupMocks(t)
	router := InitRouter(databaseMgrMock, mailMgrMock, jwtMgr, nil)

	server := httptest.NewServer(router)
	defer server.Close()

	expect := httpexpect.Default(t, server.URL)
	response := expect.GET("/api/feed").
		WithHeader("Authorization", "Bearer NonsenseToken").
		Expect().Status(http.StatusUnauthorized)
	response.JSON().Object().Value("error").Object().HasValue("code", "ERR-010")
}

func TestCreateMicropost(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		status  int
	}{
		{"ValidPost", "first post!", http.StatusCreated},
		{"TooLong", strings.Repeat("a", 141), http.StatusBadRequest},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			databaseMgrMock, jwtMgr, mailMgrMock := setupMocks(t)
			router := InitRouter(databaseMgrMock, mailMgrMock, jwtMgr, nil)

			server := httptest.NewServer(router)
			defer server.Close()

			poolMock := databaseMgrMock.GetPool().(pgxmock.PgxPoolIface)
			if tc.status == http.StatusCreated {
				poolMock.ExpectBegin()
				poolMock.ExpectQuery("INSERT INTO microposts").
					WithArgs(int64(1), tc.content, pgxmock.AnyArg()).
					WillReturnRows(pgxmock.NewRows([]string{"micropost_id"}).AddRow(int64(9)))
				poolMock.ExpectQuery("SELECT name").WithArgs(int64(1)).
					WillReturnRows(pgxmock.NewRows([]string{"name"}).AddRow("testUser"))
				poolMock.ExpectCommit()
			}

			expect := httpexpect.Default(t, server.URL)
			response := expect.POST("/api/microposts").
				WithHeader("Authorization", bearerToken(t, jwtMgr, 1)).
				WithJSON(map[string]interface{}{"content": tc.content}).
				Expect().Status(tc.status)

			if tc.status == http.StatusCreated {
				response.JSON().Object().
					HasValue("micropostId", 9).
					HasValue("content", tc.content)
			}

			if err := poolMock.ExpectationsWereMet(); err != nil {
				t.Errorf("there were unfulfilled expectations: %s", err)
			}
		})
	}
}

func TestPasswordReset(t *testing.T) {
	resetToken := "wQp3K1yLmZ8vTn5cRd2XhA"
	digestBytes, _ := bcrypt.GenerateFromPassword([]byte(resetToken), bcrypt.MinCost)
	resetDigest := string(digestBytes)

	t.Run("CreateReset", func(t *testing.T) {
		databaseMgrMock, jwtMgr, mailMgrMock := setupMocks(t)
		router := InitRouter(databaseMgrMock, mailMgrMock, jwtMgr, nil)

		server := httptest.NewServer(router)
		defer server.Close()

		poolMock := databaseMgrMock.GetPool().(pgxmock.PgxPoolIface)
		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id, name").WithArgs("test@example.com").
			WillReturnRows(pgxmock.NewRows([]string{"user_id", "name"}).AddRow(int64(1), "testUser"))
		poolMock.ExpectExec("UPDATE users SET reset_digest").
			WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), int64(1)).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))
		poolMock.ExpectCommit()

		expect := httpexpect.Default(t, server.URL)
		expect.POST("/api/password-resets").
			WithJSON(map[string]interface{}{"email": "test@example.com"}).
			Expect().Status(http.StatusNoContent)

		mailMgrMock.AssertCalled(t, "SendPasswordResetMail", "test@example.com", "testUser", mock.Anything, mock.Anything)

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	t.Run("CreateResetUnknownEmail", func(t *testing.T) {
		databaseMgrMock, jwtMgr, mailMgrMock := setupMocks(t)
		router := InitRouter(databaseMgrMock, mailMgrMock, jwtMgr, nil)

		server := httptest.NewServer(router)
		defer server.Close()

		poolMock := databaseMgrMock.GetPool().(pgxmock.PgxPoolIface)
		poolMock.ExpectBegin()
		poolMock.ExpectQuery("SELECT user_id, name").WithArgs("nobody@example.com").
			WillReturnError(pgx.ErrNoRows)
		poolMock.ExpectRollback()

		// Unknown addresses get the same response as known ones.
		expect := httpexpect.Default(t, server.URL)
		expect.POST("/api/password-resets").
			WithJSON(map[string]interface{}{"email": "nobody@example.com"}).
			Expect().Status(http.StatusNoContent)

		mailMgrMock.AssertNotCalled(t, "SendPasswordResetMail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

		if err := poolMock.ExpectationsWereMet(); err != nil {
			t.Errorf("there were unfulfilled expectations: %s", err)
		}
	})

	updateCases := []struct {
		name   string
		token  string
		sentAt time.Time
		status int
		code   string
	}{
		{"ValidUpdate", resetToken, time.Now().Add(-30 * time.Minute), http.StatusNoContent, ""},
		{"ExpiredToken", resetToken, time.Now().Add(-3 * time.Hour), http.StatusUnauthorized, "ERR-009"},
		{"WrongToken", "notTheToken", time.Now().Add(-30 * time.Minute), http.StatusUnauthorized, "ERR-008"},
	}

	for _, tc := range updateCases {
		t.Run(tc.name, func(t *testing.T) {
			databaseMgrMock, jwtMgr, mailMgrMock := setupMocks(t)
			router := InitRouter(databaseMgrMock, mailMgrMock, jwtMgr, nil)

			server := httptest.NewServer(router)
			defer server.Close()

			sentAt := tc.sentAt
			poolMock := databaseMgrMock.GetPool().(pgxmock.PgxPoolIface)
			poolMock.ExpectBegin()
			poolMock.ExpectQuery("SELECT reset_digest, reset_sent_at").WithArgs(int64(1)).
				WillReturnRows(pgxmock.NewRows([]string{"reset_digest", "reset_sent_at"}).
					AddRow(&resetDigest, &sentAt))
			if tc.status == http.StatusNoContent {
				poolMock.ExpectExec("UPDATE users SET password_digest").
					WithArgs(pgxmock.AnyArg(), int64(1)).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
				poolMock.ExpectCommit()
			} else {
				poolMock.ExpectRollback()
			}

			expect := httpexpect.Default(t, server.URL)
			response := expect.PATCH("/api/password-resets/1").
				WithJSON(map[string]interface{}{"token": tc.token, "password": "fresh.Password123"}).
				Expect().Status(tc.status)

			if tc.code != "" {
				response.JSON().Object().Value("error").Object().HasValue("code", tc.code)
			}

			if err := poolMock.ExpectationsWereMet(); err != nil {
				t.Errorf("there were unfulfilled expectations: %s", err)
			}
		})
	}
}
