package integration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net"
	"strings"
	"testing"
	"time"

	"udp-trivia-service/internal/domain"
	"udp-trivia-service/internal/game"
	pgloader "udp-trivia-service/internal/infra/postgres"
	pgmigrations "udp-trivia-service/internal/infra/postgres/migrations"
	infraredis "udp-trivia-service/internal/infra/redis"
	"udp-trivia-service/internal/protocol"
	"udp-trivia-service/internal/transport/udp"

	"github.com/jackc/pgx/v4/pgxpool"
	goredis "github.com/redis/go-redis/v9"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"
)

// Full stack over loopback: quiz content in Postgres behind the Redis
// cache, real UDP gateway, engine, and two clients playing one question.
func TestQuizRoundEndToEnd(t *testing.T) {
	ctx := context.Background()
	requireDocker(t)

	pgURL, pgCleanup := startPostgres(t, ctx)
	defer pgCleanup()
	redisURL, redisCleanup := startRedis(t, ctx)
	defer redisCleanup()

	seedQuiz(t, ctx, pgURL, sampleQuiz())

	pool, err := pgxpool.Connect(ctx, pgURL)
	if err != nil {
		t.Fatalf("connect pg: %v", err)
	}
	defer pool.Close()

	redisClient, err := redisClientFromURL(redisURL)
	if err != nil {
		t.Fatalf("redis client: %v", err)
	}
	source := infraredis.NewQuizRepository(redisClient, pgloader.NewQuizLoader(pool), 5*time.Minute)

	gateway, err := udp.Listen("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer gateway.Close()

	engine := game.New(game.Settings{
		QuizID:           "general",
		AnswerWindow:     5 * time.Second,
		PointsPerCorrect: 10,
	}, source, gateway, nil)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go engine.Run(runCtx)
	go gateway.Run(runCtx, engine.HandleDatagram)

	alice := newClient(t, gateway.Addr())
	defer alice.close()
	bob := newClient(t, gateway.Addr())
	defer bob.close()

	alice.send(t, protocol.TypeJoin, protocol.JoinPayload{Name: "Alice"})
	alice.expect(t, protocol.TypeWelcome)
	bob.send(t, protocol.TypeJoin, protocol.JoinPayload{Name: "Bob"})
	bob.expect(t, protocol.TypeWelcome)

	lines, err := engine.Command(ctx, game.Command{Name: "start"})
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if !strings.Contains(strings.Join(lines, "\n"), "quiz started") {
		t.Fatalf("unexpected start reply: %v", lines)
	}

	var q protocol.QuestionPayload
	alice.expectPayload(t, protocol.TypeQuestion, &q)
	bob.expect(t, protocol.TypeQuestion)
	if q.Prompt != "What is the capital of France?" {
		t.Fatalf("unexpected question: %+v", q)
	}

	alice.send(t, protocol.TypeAnswer, protocol.AnswerPayload{Question: q.Question, Answer: "Paris"})
	alice.expect(t, protocol.TypeAnswerAck)
	bob.send(t, protocol.TypeAnswer, protocol.AnswerPayload{Question: q.Question, Answer: "London"})
	bob.expect(t, protocol.TypeAnswerAck)

	var result protocol.ResultPayload
	alice.expectPayload(t, protocol.TypeResult, &result)
	if result.Correct != "Paris" {
		t.Fatalf("unexpected result: %+v", result)
	}

	var lb protocol.LeaderboardPayload
	alice.expectPayload(t, protocol.TypeLeaderboard, &lb)
	want := []domain.LeaderboardEntry{{Name: "Alice", Score: 10}, {Name: "Bob"}}
	if len(lb.Entries) != 2 || lb.Entries[0] != want[0] || lb.Entries[1] != want[1] {
		t.Fatalf("unexpected leaderboard: %+v", lb.Entries)
	}
}

type client struct {
	conn *net.UDPConn
	buf  []byte
}

func newClient(t *testing.T, serverAddr string) *client {
	t.Helper()
	addr, err := net.ResolveUDPAddr("udp", serverAddr)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return &client{conn: conn, buf: make([]byte, 2048)}
}

func (c *client) close() { c.conn.Close() }

func (c *client) send(t *testing.T, msgType string, payload any) {
	t.Helper()
	data, err := protocol.Encode(msgType, payload)
	if err != nil {
		t.Fatalf("encode %s: %v", msgType, err)
	}
	if _, err := c.conn.Write(data); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

// expect reads datagrams until one of msgType arrives, skipping any other
// server traffic in between.
func (c *client) expect(t *testing.T, msgType string) protocol.Envelope {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		c.conn.SetReadDeadline(deadline)
		n, err := c.conn.Read(c.buf)
		if err != nil {
			t.Fatalf("read waiting for %s: %v", msgType, err)
		}
		env, err := protocol.Decode(c.buf[:n])
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if env.Type == msgType {
			return env
		}
	}
	t.Fatalf("timed out waiting for %s", msgType)
	return protocol.Envelope{}
}

func (c *client) expectPayload(t *testing.T, msgType string, out any) {
	t.Helper()
	env := c.expect(t, msgType)
	if err := json.Unmarshal(env.Payload, out); err != nil {
		t.Fatalf("unmarshal %s payload: %v", msgType, err)
	}
}

func startPostgres(t *testing.T, ctx context.Context) (string, func()) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		Env:          map[string]string{"POSTGRES_USER": "trivia", "POSTGRES_PASSWORD": "triviapass", "POSTGRES_DB": "triviadb"},
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
	dsn := fmt.Sprintf("postgres://trivia:triviapass@%s:%s/triviadb?sslmode=disable", host, port.Port())
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

func seedQuiz(t *testing.T, ctx context.Context, dsn string, quiz domain.Quiz) {
	t.Helper()
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

	data, err := json.Marshal(quiz)
	if err != nil {
		t.Fatalf("marshal quiz: %v", err)
	}
	if _, err := db.ExecContext(ctx, `INSERT INTO quizzes (id, data) VALUES (?, ?::jsonb) ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data`, quiz.ID, string(data)); err != nil {
		t.Fatalf("insert quiz: %v", err)
	}
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID: "general",
		Questions: []domain.Question{{
			Prompt:  "What is the capital of France?",
			Options: []string{"London", "Paris", "Berlin", "Madrid"},
			Correct: 1,
		}},
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
