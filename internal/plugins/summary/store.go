package summary

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/keyxmakerx/paintball/internal/apperror"
	"github.com/keyxmakerx/paintball/internal/widgets/zonesummary"
)

// summaryKeyPrefix namespaces summary records in Redis.
const summaryKeyPrefix = "summary:"

// Store keeps computed summaries in Redis for a fixed TTL. It is the
// record store the Zone_Reservation widget binds to.
type Store struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewStore creates a Redis-backed summary store.
func NewStore(rdb *redis.Client, ttl time.Duration) *Store {
	return &Store{redis: rdb, ttl: ttl}
}

// Create assigns s a new ID and stores it.
func (st *Store) Create(ctx context.Context, s *Summary) error {
	s.ID = uuid.NewString()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	return st.write(ctx, s)
}

// Get returns the summary with id or a not-found error.
func (st *Store) Get(ctx context.Context, id string) (*Summary, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperror.NewNotFound("summary not found")
	}

	data, err := st.redis.Get(ctx, summaryKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return nil, apperror.NewNotFound("summary not found or expired")
	}
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("reading summary from Redis: %w", err))
	}

	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("unmarshaling summary: %w", err))
	}
	return &s, nil
}

// Save overwrites an existing summary, keeping its remaining TTL. A
// summary that expired since it was read is not brought back.
func (st *Store) Save(ctx context.Context, s *Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	err = st.redis.SetArgs(ctx, summaryKeyPrefix+s.ID, data, redis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
	if err == redis.Nil {
		return apperror.NewNotFound("summary not found or expired")
	}
	if err != nil {
		return apperror.NewInternal(fmt.Errorf("storing summary in Redis: %w", err))
	}
	return nil
}

// Record implements zonesummary.RecordStore.
func (st *Store) Record(ctx context.Context, id string) (map[string]string, error) {
	s, err := st.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.Record(), nil
}

// UpdateField implements zonesummary.RecordStore. Only the two payload
// fields can be written.
func (st *Store) UpdateField(ctx context.Context, id, field, value string) error {
	s, err := st.Get(ctx, id)
	if err != nil {
		return err
	}
	switch field {
	case zonesummary.FieldSummaryHeader:
		s.SummaryHeader = value
	case zonesummary.FieldZoneSummary:
		s.ZoneSummary = value
	default:
		return apperror.NewBadRequest(fmt.Sprintf("field %q cannot be stored", field))
	}
	return st.Save(ctx, s)
}

func (st *Store) write(ctx context.Context, s *Summary) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshaling summary: %w", err)
	}
	if err := st.redis.Set(ctx, summaryKeyPrefix+s.ID, data, st.ttl).Err(); err != nil {
		return apperror.NewInternal(fmt.Errorf("storing summary in Redis: %w", err))
	}
	return nil
}
