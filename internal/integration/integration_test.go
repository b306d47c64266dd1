package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	"litmus-quiz-service/internal/app"
	"litmus-quiz-service/internal/domain"
	pgloader "litmus-quiz-service/internal/infra/postgres"
	pgmigrations "litmus-quiz-service/internal/infra/postgres/migrations"
	infraredis "litmus-quiz-service/internal/infra/redis"
	"litmus-quiz-service/internal/lead"

	"github.com/jackc/pgx/v4/pgxpool"
)

func TestQuizFlowEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedCatalog(t, ctx, pgURL, sampleCatalog())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	loader := pgloader.NewCatalogLoader(pool)

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	catalogRepo := infraredis.NewCatalogRepository(redisClient, loader, 5*time.Minute)
	sessionStore := infraredis.NewSessionStore(redisClient, 5*time.Minute)

	var webhookCalls atomic.Int32
	var lastPayload atomic.Value
	webhook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		_ = json.NewDecoder(r.Body).Decode(&payload)
		lastPayload.Store(payload)
		webhookCalls.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer webhook.Close()

	submitter := lead.NewSubmitter(webhook.URL)
	service := app.NewQuizService(sessionStore, catalogRepo, submitter, "catalog-1", domain.DefaultTiers, 2*time.Millisecond, "https://example.com/book")

	if _, err := service.Open(ctx, "s1"); err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := service.Start(ctx, "s1"); err != nil {
		t.Fatalf("start: %v", err)
	}
	for _, q := range []string{"q1", "q2"} {
		waitForQuestion(t, service, "s1", q)
		if _, err := service.Answer(ctx, "s1", q, 2); err != nil {
			t.Fatalf("answer %s: %v", q, err)
		}
	}
	waitForStep(t, service, "s1", domain.StepEmailCapture)
	if _, err := service.SetEmail(ctx, "s1", "alice@example.com"); err != nil {
		t.Fatalf("set email: %v", err)
	}
	if _, err := service.SubmitEmail(ctx, "s1"); err != nil {
		t.Fatalf("submit email: %v", err)
	}
	view := waitForStep(t, service, "s1", domain.StepResult)

	if view.SubmissionStatus != domain.SubmissionSucceeded {
		t.Fatalf("expected successful submission, got %s", view.SubmissionStatus)
	}
	if view.Score != 4 || view.PercentScore != 100 {
		t.Fatalf("expected full score, got %+v", view)
	}
	if webhookCalls.Load() != 1 {
		t.Fatalf("expected one webhook call, got %d", webhookCalls.Load())
	}
	payload, _ := lastPayload.Load().(map[string]any)
	if payload["email"] != "alice@example.com" || payload["score"] != float64(4) {
		t.Fatalf("unexpected webhook payload: %+v", payload)
	}
}

func waitForStep(t *testing.T, service *app.QuizService, sessionID string, step domain.Step) domain.StateView {
	t.Helper()
	return waitFor(t, service, sessionID, func(v domain.StateView) bool { return v.Step == step })
}

func waitForQuestion(t *testing.T, service *app.QuizService, sessionID, questionID string) domain.StateView {
	t.Helper()
	return waitFor(t, service, sessionID, func(v domain.StateView) bool {
		return v.Step == domain.StepAsking && v.Question != nil && v.Question.ID == questionID
	})
}

func waitFor(t *testing.T, service *app.QuizService, sessionID string, ok func(domain.StateView) bool) domain.StateView {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		view, err := service.View(context.Background(), sessionID)
		if err != nil {
			t.Fatalf("view: %v", err)
		}
		if ok(view) {
			return view
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for state, last %+v", view)
		}
		time.Sleep(time.Millisecond)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "quiz", "POSTGRES_PASSWORD": "quizpass", "POSTGRES_DB": "quizdb"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor:   wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start postgres: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn := fmt.Sprintf("postgres://quiz:quizpass@%s:%s/quizdb?sslmode=disable", host, port.Port())
	return dsn, func() {
		_ = container.Terminate(ctx)
	}
}

func startRedis(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(30 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		if strings.Contains(err.Error(), "Cannot connect to the Docker daemon") {
			t.Skipf("docker not available: %v", err)
		}
		t.Fatalf("start redis: %v", err)
	}
	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("redis host: %v", err)
	}
	port, err := container.MappedPort(ctx, "6379/tcp")
	if err != nil {
		t.Fatalf("redis port: %v", err)
	}
	url := fmt.Sprintf("redis://%s:%s", host, port.Port())
	return url, func() {
		_ = container.Terminate(ctx)
	}
}

func seedCatalog(t *testing.T, ctx context.Context, dsn string, catalog domain.Catalog) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	migrator := migrate.NewMigrator(db, pgmigrations.Migrations)
	if err := migrator.Init(ctx); err != nil {
		t.Fatalf("migrator init: %v", err)
	}
	if _, err := migrator.Migrate(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	data, err := json.Marshal(catalog)
	if err != nil {
		t.Fatalf("marshal catalog: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO catalogs (id, data) VALUES (? , ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, catalog.ID, string(data)); err != nil {
		t.Fatalf("insert catalog: %v", err)
	}
}

func sampleCatalog() domain.Catalog {
	options := []domain.Option{
		{Label: "Not yet", Value: 0},
		{Label: "Partly", Value: 1},
		{Label: "Fully", Value: 2},
	}
	return domain.Catalog{
		ID: "catalog-1",
		Questions: []domain.Question{
			{ID: "q1", Prompt: "1. Delegation", Options: options},
			{ID: "q2", Prompt: "2. Data", Options: options},
		},
	}
}

func redisClientFromURL(url string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}), nil
}

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := tc.NewDockerProvider(); err != nil {
		t.Skipf("docker not available: %v", err)
	}
}
