package itests

import (
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"DevHabit/internal/auth"
	"DevHabit/internal/cache"
	"DevHabit/internal/config"
	"DevHabit/internal/db"
	"DevHabit/internal/github"
	"DevHabit/internal/handler"
	"DevHabit/internal/links"
	"DevHabit/internal/model"
	"DevHabit/internal/router"
	"DevHabit/internal/store"
)

var (
	testServer *httptest.Server
	testStore  *store.Store
)

var testAuth = config.AuthConfig{
	JWT: config.JWTConfig{
		ValidationType: "HS256",
		Issuer:         "dev-habit.api",
		Audience:       "dev-habit.app",
		HMACSecret:     "itest-secret",
		ClockSkewSec:   5,
	},
	AccessTokenTTL:  5 * time.Minute,
	RefreshTokenTTL: time.Hour,
}

// TestMain runs against a throwaway database derived from ITEST_POSTGRES_DSN.
// Without it the package is skipped.
func TestMain(m *testing.M) {
	baseDSN := os.Getenv("ITEST_POSTGRES_DSN")
	if baseDSN == "" {
		log.Printf("ITEST_POSTGRES_DSN not set, skipping integration tests")
		os.Exit(0)
	}

	teardownDB, err := SetupTestDB(baseDSN, db.InitPostgres)
	if err != nil {
		log.Printf("setup test DB failed: %v", err)
		os.Exit(1)
	}

	gh := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer ghp_itest" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"login":"octocat","avatar_url":"https://avatars.example/octocat","public_repos":8,"followers":3,"following":1}`))
	}))

	code := func() int {
		defer gh.Close()
		defer db.ClosePostgres()

		sorts, err := model.NewSortRegistry()
		if err != nil {
			log.Printf("sort registry: %v", err)
			return 1
		}
		testStore = store.New(db.Pool, sorts)

		validator, err := auth.NewValidator(testAuth.JWT)
		if err != nil {
			log.Printf("validator: %v", err)
			return 1
		}
		tokens, err := auth.NewTokenProvider(testAuth)
		if err != nil {
			log.Printf("token provider: %v", err)
			return 1
		}

		api := &handler.API{
			Habits:    testStore,
			Tags:      testStore,
			Accounts:  testStore,
			Users:     auth.NewUserContext(testStore, cache.NewSliding[string](time.Minute, 100), nil),
			GitHub:    github.NewClient(gh.URL, 2*time.Second),
			Tokens:    tokens,
			Sorts:     sorts,
			Links:     links.NewTable(),
			Validator: model.NewValidator(),
		}
		h, err := router.New(api, config.CORSConfig{AllowOrigin: "*"}, validator)
		if err != nil {
			log.Printf("router: %v", err)
			return 1
		}
		testServer = httptest.NewServer(h)
		defer testServer.Close()

		return m.Run()
	}()

	if err := teardownDB(); err != nil {
		log.Printf("drop test DB failed: %v", err)
	}
	os.Exit(code)
}
