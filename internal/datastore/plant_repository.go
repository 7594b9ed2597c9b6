package datastore

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/danbi-garden/danbi/internal/errors"
	"github.com/danbi-garden/danbi/internal/plant"
)

// PlantRepository is the persistence store for plant records.
// Every write is committed before it returns; a returned error means the
// change is not durable.
type PlantRepository interface {
	Insert(ctx context.Context, r *plant.Record) error
	Update(ctx context.Context, r *plant.Record) error
	Delete(ctx context.Context, id uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*plant.Record, error)
	List(ctx context.Context) ([]*plant.Record, error)
	Count(ctx context.Context) (int, error)
	Reorder(ctx context.Context, ids []uuid.UUID) error
	NextSortOrder(ctx context.Context) (int, error)
}

// plantRepository implements PlantRepository.
type plantRepository struct {
	db *gorm.DB
}

// NewPlantRepository creates a new PlantRepository.
func NewPlantRepository(db *gorm.DB) PlantRepository {
	return &plantRepository{db: db}
}

// Insert stores a new record. CreatedAt and UpdatedAt are filled in on r.
func (r *plantRepository) Insert(ctx context.Context, rec *plant.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	entity := toEntity(rec)
	if err := r.db.WithContext(ctx).Create(entity).Error; err != nil {
		return dbError(err, "insert plant")
	}
	rec.CreatedAt = entity.CreatedAt
	rec.UpdatedAt = entity.UpdatedAt
	return nil
}

// Update overwrites every field of an existing record.
func (r *plantRepository) Update(ctx context.Context, rec *plant.Record) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	entity := toEntity(rec)
	entity.UpdatedAt = time.Now()

	result := r.db.WithContext(ctx).Model(&Plant{}).
		Where("id = ?", entity.ID).
		Select("*").
		Omit("created_at").
		Updates(entity)
	if result.Error != nil {
		return dbError(result.Error, "update plant")
	}
	if result.RowsAffected == 0 {
		return notFound(rec.ID)
	}
	rec.UpdatedAt = entity.UpdatedAt
	return nil
}

// Delete removes a record.
func (r *plantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id.String()).Delete(&Plant{})
	if result.Error != nil {
		return dbError(result.Error, "delete plant")
	}
	if result.RowsAffected == 0 {
		return notFound(id)
	}
	return nil
}

// Get loads one record.
func (r *plantRepository) Get(ctx context.Context, id uuid.UUID) (*plant.Record, error) {
	var entity Plant
	err := r.db.WithContext(ctx).Where("id = ?", id.String()).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, dbError(err, "get plant")
	}
	return fromEntity(&entity)
}

// List returns every record ordered by sort order, then creation time.
func (r *plantRepository) List(ctx context.Context) ([]*plant.Record, error) {
	var entities []Plant
	err := r.db.WithContext(ctx).
		Order("sort_order ASC").
		Order("created_at ASC").
		Find(&entities).Error
	if err != nil {
		return nil, dbError(err, "list plants")
	}

	records := make([]*plant.Record, 0, len(entities))
	for i := range entities {
		rec, err := fromEntity(&entities[i])
		if err != nil {
			return nil, dbError(err, "decode plant")
		}
		records = append(records, rec)
	}
	return records, nil
}

// Count returns the number of registered plants.
func (r *plantRepository) Count(ctx context.Context) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&Plant{}).Count(&n).Error; err != nil {
		return 0, dbError(err, "count plants")
	}
	return int(n), nil
}

// Reorder assigns sort order by position in ids, in one transaction.
// Plants missing from ids keep their relative order after the listed ones.
func (r *plantRepository) Reorder(ctx context.Context, ids []uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			result := tx.Model(&Plant{}).
				Where("id = ?", id.String()).
				Update("sort_order", i)
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return notFound(id)
			}
		}

		var rest []Plant
		if err := tx.Select("id").
			Where("id NOT IN ?", idStrings(ids)).
			Order("sort_order ASC").
			Order("created_at ASC").
			Find(&rest).Error; err != nil {
			return err
		}
		for i := range rest {
			if err := tx.Model(&Plant{}).
				Where("id = ?", rest[i].ID).
				Update("sort_order", len(ids)+i).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPlantNotFound) {
		return err
	}
	return dbError(err, "reorder plants")
}

// NextSortOrder returns the sort order that places a new plant last.
func (r *plantRepository) NextSortOrder(ctx context.Context) (int, error) {
	var maxOrder *int
	err := r.db.WithContext(ctx).Model(&Plant{}).
		Select("MAX(sort_order)").
		Scan(&maxOrder).Error
	if err != nil {
		return 0, dbError(err, "next sort order")
	}
	if maxOrder == nil {
		return 0, nil
	}
	return *maxOrder + 1, nil
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	// NOT IN () is a syntax error in sqlite
	if len(out) == 0 {
		return []string{""}
	}
	return out
}

func notFound(id uuid.UUID) error {
	return errors.Newf("%w: %s", ErrPlantNotFound, id).
		Category(errors.CategoryNotFound).
		Context("plant_id", id.String()).
		Component("datastore").
		Build()
}
