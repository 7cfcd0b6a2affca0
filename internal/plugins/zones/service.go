package zones

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/keyxmakerx/paintball/internal/apperror"
	"github.com/keyxmakerx/paintball/internal/sanitize"
)

// mysqlDuplicateEntry is MariaDB's error number for a unique key violation.
const mysqlDuplicateEntry = 1062

// ZoneService defines business logic for zones.
type ZoneService interface {
	List(ctx context.Context) ([]Zone, error)
	GetByID(ctx context.Context, id int64) (*Zone, error)
	Resolve(ctx context.Context, ref string) (*Zone, error)
	Create(ctx context.Context, input CreateZoneInput) (*Zone, error)
}

// zoneService is the default ZoneService implementation.
type zoneService struct {
	repo ZoneRepository
}

// NewZoneService creates a ZoneService backed by the given repository.
func NewZoneService(repo ZoneRepository) ZoneService {
	return &zoneService{repo: repo}
}

// List returns all zones, never nil.
func (s *zoneService) List(ctx context.Context) ([]Zone, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperror.NewInternal(err)
	}
	if list == nil {
		list = []Zone{}
	}
	return list, nil
}

// GetByID returns a zone or a not-found error.
func (s *zoneService) GetByID(ctx context.Context, id int64) (*Zone, error) {
	z, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("get zone: %w", err))
	}
	if z == nil {
		return nil, apperror.NewNotFound("zone not found")
	}
	return z, nil
}

// Resolve finds a zone from the identifier a grid cell carries: a numeric
// ID, or failing that the zone's name.
func (s *zoneService) Resolve(ctx context.Context, ref string) (*Zone, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, apperror.NewBadRequest("zone is required")
	}
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		return s.GetByID(ctx, id)
	}

	z, err := s.repo.FindByName(ctx, ref)
	if err != nil {
		return nil, apperror.NewInternal(fmt.Errorf("find zone by name: %w", err))
	}
	if z == nil {
		return nil, apperror.NewNotFound("zone not found")
	}
	return z, nil
}

// Create validates input and stores a new available zone.
func (s *zoneService) Create(ctx context.Context, input CreateZoneInput) (*Zone, error) {
	name := sanitize.Text(input.Name)
	if name == "" {
		return nil, apperror.NewValidation("zone name is required")
	}
	if len([]rune(name)) > maxNameLength {
		return nil, apperror.NewValidation(fmt.Sprintf("zone name must be at most %d characters", maxNameLength))
	}
	if input.Capacity <= 0 {
		return nil, apperror.NewValidation("capacity must be greater than zero")
	}

	z := &Zone{
		Name:        name,
		Capacity:    input.Capacity,
		Description: sanitize.HTML(input.Description),
		Status:      StatusAvailable,
	}
	if err := s.repo.Create(ctx, z); err != nil {
		var myErr *mysql.MySQLError
		if errors.As(err, &myErr) && myErr.Number == mysqlDuplicateEntry {
			return nil, apperror.NewConflict("a zone with that name already exists")
		}
		return nil, apperror.NewInternal(fmt.Errorf("create zone: %w", err))
	}
	return z, nil
}
