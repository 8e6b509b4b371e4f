package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"udp-trivia-service/internal/domain"
	"udp-trivia-service/internal/infra/memory"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuizRepository caches full quiz documents in Redis, keyed
// quiz:{quizID}:content, so server processes sharing a Redis reuse one
// load from the backing store. Falls back to the loader on a miss.
type QuizRepository struct {
	client *redis.Client
	loader memory.QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewQuizRepository(client *redis.Client, loader memory.QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	key := r.key(quizID)
	if quiz, ok := r.fromCache(ctx, key); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(quizID, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if quiz, ok := r.fromCache(ctx, key); ok {
			return quiz, nil
		}

		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		if data, err := json.Marshal(quiz); err == nil {
			// best-effort cache fill
			_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()
		}
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (r *QuizRepository) fromCache(ctx context.Context, key string) (domain.Quiz, bool) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return domain.Quiz{}, false
	}
	var quiz domain.Quiz
	if err := json.Unmarshal(raw, &quiz); err != nil {
		// corrupt entry; treat as a miss and let the loader overwrite it
		return domain.Quiz{}, false
	}
	return quiz, true
}

func (r *QuizRepository) key(quizID string) string {
	return "quiz:" + quizID + ":content"
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
