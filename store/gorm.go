package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/SquirrelThief/playhvz/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxCreateAttempts bounds retries when two writers race to create the same
// document inside Update.
const maxCreateAttempts = 3

var errCreateConflict = errors.New("document created concurrently")

// GormGateway stores documents in the documents table. On postgres queries
// use jsonb containment and Update locks the row; on other dialects query
// predicates are evaluated after loading the collection.
type GormGateway struct {
	DB    *gorm.DB
	jsonb bool
}

func NewGormGateway(db *gorm.DB) *GormGateway {
	return &GormGateway{DB: db, jsonb: db.Dialector.Name() == "postgres"}
}

func (g *GormGateway) AutoMigrate() error {
	return g.DB.AutoMigrate(&models.Document{})
}

func byRef(tx *gorm.DB, ref Ref) *gorm.DB {
	return tx.Where("game_id = ? AND collection = ? AND doc_id = ?", ref.GameID, ref.Collection, ref.ID)
}

func (g *GormGateway) Get(ctx context.Context, ref Ref) ([]byte, error) {
	var doc models.Document
	err := byRef(g.DB.WithContext(ctx), ref).Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", ref.Path(), err)
	}
	return doc.Data, nil
}

func (g *GormGateway) Set(ctx context.Context, ref Ref, data []byte) error {
	if err := ref.validate(); err != nil {
		return err
	}
	doc := models.Document{
		GameID:     ref.GameID,
		Collection: ref.Collection,
		DocID:      ref.ID,
		Data:       datatypes.JSON(data),
		UpdatedAt:  time.Now(),
	}
	err := g.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "game_id"}, {Name: "collection"}, {Name: "doc_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&doc).Error
	if err != nil {
		return fmt.Errorf("set %s: %w", ref.Path(), err)
	}
	return nil
}

func (g *GormGateway) Update(ctx context.Context, ref Ref, fn UpdateFunc) error {
	if err := ref.validate(); err != nil {
		return err
	}
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		err := g.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return g.update(tx, ref, fn)
		})
		if errors.Is(err, errCreateConflict) {
			log.Printf("[STORE] concurrent create of %s, retrying (attempt %d)", ref.Path(), attempt)
			continue
		}
		return err
	}
	return fmt.Errorf("update %s: %w", ref.Path(), errCreateConflict)
}

func (g *GormGateway) update(tx *gorm.DB, ref Ref, fn UpdateFunc) error {
	read := tx
	if g.jsonb {
		read = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var doc models.Document
	var current []byte
	err := byRef(read, ref).Take(&doc).Error
	switch {
	case err == nil:
		current = doc.Data
	case errors.Is(err, gorm.ErrRecordNotFound):
	default:
		return fmt.Errorf("read %s: %w", ref.Path(), err)
	}

	next, err := fn(current)
	if err != nil {
		return err
	}
	if next == nil {
		return nil
	}

	now := time.Now()
	if current != nil {
		return byRef(tx.Model(&models.Document{}), ref).
			Updates(map[string]any{"data": datatypes.JSON(next), "updated_at": now}).Error
	}

	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&models.Document{
		GameID:     ref.GameID,
		Collection: ref.Collection,
		DocID:      ref.ID,
		Data:       datatypes.JSON(next),
		UpdatedAt:  now,
	})
	if res.Error != nil {
		return fmt.Errorf("create %s: %w", ref.Path(), res.Error)
	}
	if res.RowsAffected == 0 {
		return errCreateConflict
	}
	return nil
}

func (g *GormGateway) Delete(ctx context.Context, ref Ref) error {
	if err := byRef(g.DB.WithContext(ctx), ref).Delete(&models.Document{}).Error; err != nil {
		return fmt.Errorf("delete %s: %w", ref.Path(), err)
	}
	return nil
}

func (g *GormGateway) Query(ctx context.Context, q Query) ([]Snapshot, error) {
	tx := g.DB.WithContext(ctx).Where("game_id = ?", q.GameID)
	if q.Collection != "" {
		tx = tx.Where("collection = ?", q.Collection)
	}

	var local []Condition
	for _, c := range q.Where {
		if !g.jsonb {
			local = append(local, c)
			continue
		}
		doc, err := c.containment()
		if err != nil {
			return nil, fmt.Errorf("encode condition: %w", err)
		}
		tx = tx.Where("data @> ?::jsonb", string(doc))
	}
	m, err := newMatcher(local)
	if err != nil {
		return nil, err
	}

	var docs []models.Document
	if err := tx.Order("collection").Order("doc_id").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("query %s/%s: %w", q.GameID, q.Collection, err)
	}

	out := make([]Snapshot, 0, len(docs))
	for _, doc := range docs {
		ok, err := m.match(doc.Data)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, Snapshot{
			Ref:  Ref{GameID: doc.GameID, Collection: doc.Collection, ID: doc.DocID},
			Data: doc.Data,
		})
	}
	return out, nil
}
