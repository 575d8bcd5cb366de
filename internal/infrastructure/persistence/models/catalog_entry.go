package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/catalog"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// tagSeparator delimits TagIndex so a single LIKE finds a whole tag
const tagSeparator = "|"

// CatalogEntryModel is the persistence model for the CatalogEntry aggregate.
type CatalogEntryModel struct {
	AggregateModel
	Key             string                `gorm:"column:entry_key;type:varchar(128);not null;uniqueIndex:idx_catalog_entries_key"`
	Fields          datatypes.JSON        `gorm:"type:jsonb;not null"`
	Tags            datatypes.JSON        `gorm:"type:jsonb;not null"`
	TagIndex        string                `gorm:"type:text;not null;default:''"`
	ApprovalState   catalog.ApprovalState `gorm:"type:varchar(20);not null;default:'pending';index"`
	RejectionReason string                `gorm:"type:text"`
	Conflict        datatypes.JSON        `gorm:"type:jsonb"`
	InConflict      bool                  `gorm:"not null;default:false;index"`
	BatchID         uuid.UUID             `gorm:"type:uuid;not null;index"`
	SourceRowIndex  int                   `gorm:"not null;default:0"`
	ApprovedAt      *time.Time
}

// TableName returns the table name for GORM
func (CatalogEntryModel) TableName() string {
	return "catalog_entries"
}

// TagPattern returns the LIKE pattern matching entries carrying tag
func TagPattern(tag string) string {
	return "%" + tagSeparator + tag + tagSeparator + "%"
}

// ToDomain converts the persistence model to a domain CatalogEntry.
func (m *CatalogEntryModel) ToDomain() (*catalog.CatalogEntry, error) {
	entry := &catalog.CatalogEntry{
		Key:             m.Key,
		ApprovalState:   m.ApprovalState,
		RejectionReason: m.RejectionReason,
		BatchID:         m.BatchID,
		SourceRowIndex:  m.SourceRowIndex,
		ApprovedAt:      m.ApprovedAt,
	}
	m.toAggregate(&entry.BaseAggregateRoot)

	if err := unmarshalJSON(m.Fields, &entry.Fields); err != nil {
		return nil, fmt.Errorf("catalog entry %s fields: %w", m.Key, err)
	}
	if entry.Fields == nil {
		entry.Fields = map[string]string{}
	}
	if err := unmarshalJSON(m.Tags, &entry.Tags); err != nil {
		return nil, fmt.Errorf("catalog entry %s tags: %w", m.Key, err)
	}
	if len(m.Conflict) > 0 && string(m.Conflict) != "null" {
		var c catalog.Conflict
		if err := json.Unmarshal(m.Conflict, &c); err != nil {
			return nil, fmt.Errorf("catalog entry %s conflict: %w", m.Key, err)
		}
		entry.Conflict = &c
	}
	return entry, nil
}

// FromDomain populates the persistence model from a domain CatalogEntry.
func (m *CatalogEntryModel) FromDomain(e *catalog.CatalogEntry) error {
	m.fromAggregate(e.BaseAggregateRoot)
	m.Key = e.Key
	m.ApprovalState = e.ApprovalState
	m.RejectionReason = e.RejectionReason
	m.BatchID = e.BatchID
	m.SourceRowIndex = e.SourceRowIndex
	m.ApprovedAt = e.ApprovedAt
	m.InConflict = e.HasConflict()

	var err error
	if m.Fields, err = marshalJSON(e.Fields, "{}"); err != nil {
		return err
	}
	if m.Tags, err = marshalJSON(e.Tags, "[]"); err != nil {
		return err
	}
	m.TagIndex = ""
	if len(e.Tags) > 0 {
		m.TagIndex = tagSeparator + strings.Join(e.Tags, tagSeparator) + tagSeparator
	}
	m.Conflict = nil
	if e.Conflict != nil {
		if m.Conflict, err = marshalJSON(e.Conflict, "null"); err != nil {
			return err
		}
	}
	return nil
}

// CatalogEntryModelFromDomain creates a new persistence model from a domain entry.
func CatalogEntryModelFromDomain(e *catalog.CatalogEntry) (*CatalogEntryModel, error) {
	m := &CatalogEntryModel{}
	if err := m.FromDomain(e); err != nil {
		return nil, err
	}
	return m, nil
}

// marshalJSON encodes v, using empty for nil maps and slices
func marshalJSON(v any, empty string) (datatypes.JSON, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(b) == "null" {
		b = []byte(empty)
	}
	return datatypes.JSON(b), nil
}

func unmarshalJSON(data datatypes.JSON, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
