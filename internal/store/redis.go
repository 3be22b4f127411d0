package store

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const stateTTL = time.Hour

// RedisStore is the concrete backing for Store, following the teacher's
// flat-key, per-field-upsert conventions in database/redis.go.
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore dials Redis the same way the teacher's InitRedis does:
// TLS is enabled unless the address is clearly local/dev.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	opts := &redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	}

	isDev := os.Getenv("ENVIRONMENT") == "development"
	isDockerInternal := strings.Contains(addr, "redis")
	isLocalhost := strings.Contains(addr, "localhost") || strings.Contains(addr, "127.0.0.1")
	if !isDev && !isDockerInternal && !isLocalhost {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis connection failed: %w", err)
	}

	return &RedisStore{rdb: rdb}, nil
}

func puzzleKey(date string) string       { return fmt.Sprintf("puzzle:%s", date) }
func stateKey(date string) string        { return fmt.Sprintf("crossword:%s:state", date) }
func fillersKey(date string) string      { return fmt.Sprintf("crossword:%s:fillers", date) }
func pointsKey(date string) string       { return fmt.Sprintf("crossword:%s:points", date) }
func guessesKey(date string) string      { return fmt.Sprintf("crossword:%s:guesses", date) }
func timerKey(date string) string        { return fmt.Sprintf("crossword:%s:timer", date) }
func userColorKey(name string) string    { return fmt.Sprintf("user:%s:color", name) }
func jeopardyGameKey(id string) string   { return fmt.Sprintf("jeopardy:game:%s", id) }
func jeopardyIndexKey() string           { return "jeopardy:games" }
func jeopardyProgressKey(id string) string {
	return fmt.Sprintf("jeopardy:game:%s:progress", id)
}

func (s *RedisStore) GetPuzzle(ctx context.Context, date string) (*Puzzle, error) {
	raw, err := s.rdb.Get(ctx, puzzleKey(date)).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("puzzle not found for %s", date)
	}
	if err != nil {
		return nil, fmt.Errorf("load puzzle %s: %w", date, err)
	}
	var p Puzzle
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("decode puzzle %s: %w", date, err)
	}
	return &p, nil
}

func (s *RedisStore) HasPuzzle(ctx context.Context, date string) (bool, error) {
	n, err := s.rdb.Exists(ctx, puzzleKey(date)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *RedisStore) GetState(ctx context.Context, date string) (*SharedState, error) {
	raw, err := s.rdb.Get(ctx, stateKey(date)).Result()
	if err == redis.Nil {
		return &SharedState{
			UserGrid:    map[CellKey]string{},
			CellFillers: map[CellKey]string{},
			Points:      map[string]int{},
			Guesses:     map[string]GuessStat{},
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load state %s: %w", date, err)
	}

	var st SharedState
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("decode state %s: %w", date, err)
	}
	return &st, nil
}

func (s *RedisStore) saveState(ctx context.Context, date string, st *SharedState) error {
	st.UpdatedAt = time.Now()
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state %s: %w", date, err)
	}
	return s.rdb.Set(ctx, stateKey(date), data, stateTTL).Err()
}

func (s *RedisStore) UpsertCell(ctx context.Context, date string, row, col int, letter string) error {
	st, err := s.GetState(ctx, date)
	if err != nil {
		return err
	}
	key := CellKey{Row: row, Col: col}
	if letter == "" {
		delete(st.UserGrid, key)
	} else {
		st.UserGrid[key] = letter
	}
	return s.saveState(ctx, date, st)
}

func (s *RedisStore) UpsertCellFiller(ctx context.Context, date string, row, col int, name string) error {
	raw, err := json.Marshal(name)
	if err != nil {
		return err
	}
	field := fmt.Sprintf("%d,%d", row, col)
	if err := s.rdb.HSet(ctx, fillersKey(date), field, raw).Err(); err != nil {
		return fmt.Errorf("save filler %s: %w", date, err)
	}
	s.rdb.Expire(ctx, fillersKey(date), stateTTL)
	return nil
}

func (s *RedisStore) GetCellFillers(ctx context.Context, date string) (map[CellKey]string, error) {
	raw, err := s.rdb.HGetAll(ctx, fillersKey(date)).Result()
	if err != nil {
		return nil, fmt.Errorf("load fillers %s: %w", date, err)
	}
	out := make(map[CellKey]string, len(raw))
	for field, v := range raw {
		var row, col int
		if _, err := fmt.Sscanf(field, "%d,%d", &row, &col); err != nil {
			continue
		}
		var name string
		if err := json.Unmarshal([]byte(v), &name); err != nil {
			continue
		}
		out[CellKey{Row: row, Col: col}] = name
	}
	return out, nil
}

func (s *RedisStore) ClearState(ctx context.Context, date string) error {
	return s.rdb.Del(ctx, stateKey(date), fillersKey(date), pointsKey(date), guessesKey(date), timerKey(date)).Err()
}

func (s *RedisStore) AddPoints(ctx context.Context, date, name string, delta int) error {
	if err := s.rdb.HIncrBy(ctx, pointsKey(date), name, int64(delta)).Err(); err != nil {
		return fmt.Errorf("add points %s/%s: %w", date, name, err)
	}
	s.rdb.Expire(ctx, pointsKey(date), stateTTL)
	return nil
}

func (s *RedisStore) AddGuess(ctx context.Context, date, name string, correct bool) error {
	pipe := s.rdb.TxPipeline()
	pipe.HIncrBy(ctx, guessesKey(date), name+":total", 1)
	if !correct {
		pipe.HIncrBy(ctx, guessesKey(date), name+":incorrect", 1)
	}
	pipe.Expire(ctx, guessesKey(date), stateTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("add guess %s/%s: %w", date, name, err)
	}
	return nil
}

func (s *RedisStore) GetTimer(ctx context.Context, date string) (int, error) {
	v, err := s.rdb.Get(ctx, timerKey(date)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("load timer %s: %w", date, err)
	}
	return v, nil
}

func (s *RedisStore) SaveTimer(ctx context.Context, date string, seconds int) error {
	return s.rdb.Set(ctx, timerKey(date), seconds, stateTTL).Err()
}

func (s *RedisStore) GetUserColors(ctx context.Context, names []string) (map[string]string, error) {
	out := make(map[string]string, len(names))
	if len(names) == 0 {
		return out, nil
	}
	pipe := s.rdb.Pipeline()
	cmds := make(map[string]*redis.StringCmd, len(names))
	for _, name := range names {
		cmds[name] = pipe.Get(ctx, userColorKey(name))
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("load user colors: %w", err)
	}
	for name, cmd := range cmds {
		if v, err := cmd.Result(); err == nil {
			out[name] = v
		}
	}
	return out, nil
}

func (s *RedisStore) GetRandomJeopardyGame(ctx context.Context) (*JeopardyGame, error) {
	ids, err := s.rdb.SMembers(ctx, jeopardyIndexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("list jeopardy games: %w", err)
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no jeopardy games available")
	}
	rand.Shuffle(len(ids), func(i, j int) { ids[i], ids[j] = ids[j], ids[i] })
	// Prefer a game nobody has finished; fall back to any game once
	// the whole catalog has been played through.
	for _, id := range ids {
		if s.gameCompleted(ctx, id) {
			continue
		}
		return s.GetJeopardyGame(ctx, id)
	}
	return s.GetJeopardyGame(ctx, ids[0])
}

func (s *RedisStore) gameCompleted(ctx context.Context, id string) bool {
	raw, err := s.rdb.Get(ctx, jeopardyProgressKey(id)).Result()
	if err != nil {
		return false
	}
	var progress struct {
		Completed bool `json:"completed"`
	}
	if err := json.Unmarshal([]byte(raw), &progress); err != nil {
		return false
	}
	return progress.Completed
}

func (s *RedisStore) GetJeopardyGame(ctx context.Context, id string) (*JeopardyGame, error) {
	raw, err := s.rdb.Get(ctx, jeopardyGameKey(id)).Result()
	if err == redis.Nil {
		return nil, fmt.Errorf("jeopardy game not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load jeopardy game %s: %w", id, err)
	}
	var g JeopardyGame
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		return nil, fmt.Errorf("decode jeopardy game %s: %w", id, err)
	}
	return &g, nil
}

func (s *RedisStore) SaveJeopardyProgress(ctx context.Context, gameID string, cluesAnswered, totalClues int, round string, completed bool) error {
	payload := map[string]interface{}{
		"cluesAnswered": cluesAnswered,
		"totalClues":    totalClues,
		"round":         round,
		"completed":     completed,
		"savedAt":       time.Now().Unix(),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, jeopardyProgressKey(gameID), data, 30*24*time.Hour).Err(); err != nil {
		return fmt.Errorf("save jeopardy progress %s: %w", gameID, err)
	}
	return nil
}

// SeedJeopardyGame registers a game so GetRandomJeopardyGame can find
// it; used by bundle-seeding tooling outside this core.
func (s *RedisStore) SeedJeopardyGame(ctx context.Context, g *JeopardyGame) error {
	data, err := json.Marshal(g)
	if err != nil {
		return err
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, jeopardyGameKey(g.GameID), data, 0)
	pipe.SAdd(ctx, jeopardyIndexKey(), g.GameID)
	_, err = pipe.Exec(ctx)
	return err
}

// SeedPuzzle registers puzzle content; used by ingestion tooling
// outside this core.
func (s *RedisStore) SeedPuzzle(ctx context.Context, p *Puzzle) error {
	data, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, puzzleKey(p.Date), data, 0).Err(); err != nil {
		return err
	}
	log.Printf("seeded puzzle %s", p.Date)
	return nil
}
