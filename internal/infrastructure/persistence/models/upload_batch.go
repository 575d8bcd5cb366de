package models

import (
	"fmt"
	"time"

	"github.com/RedSkyFlow/FLOWSALES-Co-Pilot-sub001/internal/domain/bulk"
	"gorm.io/datatypes"
)

// UploadBatchModel is the persistence model for the UploadBatch aggregate.
type UploadBatchModel struct {
	AggregateModel
	FileName     string           `gorm:"type:varchar(255);not null"`
	FileSize     int64            `gorm:"not null;default:0"`
	Fingerprint  string           `gorm:"type:varchar(128);not null;index"`
	ObjectKey    string           `gorm:"type:varchar(512)"`
	Status       bulk.BatchStatus `gorm:"type:varchar(30);not null;default:'received';index"`
	TotalRows    int              `gorm:"not null;default:0"`
	VerifiedRows int              `gorm:"not null;default:0"`
	FlaggedRows  int              `gorm:"not null;default:0"`
	RejectedRows int              `gorm:"not null;default:0"`
	Inserts      int              `gorm:"not null;default:0"`
	Updates      int              `gorm:"not null;default:0"`
	Conflicts    int              `gorm:"not null;default:0"`
	NoChanges    int              `gorm:"not null;default:0"`
	RejectedKeys int              `gorm:"not null;default:0"`
	Applied      int              `gorm:"not null;default:0"`
	Stale        int              `gorm:"not null;default:0"`
	Failed       int              `gorm:"not null;default:0"`
	Warnings     datatypes.JSON   `gorm:"type:jsonb;not null"`
	CommitErrors datatypes.JSON   `gorm:"type:jsonb;not null"`
	StagedAt     *time.Time
	CompletedAt  *time.Time
}

// TableName returns the table name for GORM
func (UploadBatchModel) TableName() string {
	return "upload_batches"
}

// ToDomain converts the persistence model to a domain UploadBatch.
func (m *UploadBatchModel) ToDomain() (*bulk.UploadBatch, error) {
	batch := &bulk.UploadBatch{
		FileName:    m.FileName,
		FileSize:    m.FileSize,
		Fingerprint: m.Fingerprint,
		ObjectKey:   m.ObjectKey,
		Status:      m.Status,
		Verification: bulk.VerificationCounts{
			TotalRows:    m.TotalRows,
			VerifiedRows: m.VerifiedRows,
			FlaggedRows:  m.FlaggedRows,
			RejectedRows: m.RejectedRows,
		},
		Changes: bulk.ChangeCounts{
			Inserts:   m.Inserts,
			Updates:   m.Updates,
			Conflicts: m.Conflicts,
			NoChanges: m.NoChanges,
			Rejected:  m.RejectedKeys,
		},
		Commit: bulk.CommitCounts{
			Applied: m.Applied,
			Stale:   m.Stale,
			Failed:  m.Failed,
		},
		StagedAt:    m.StagedAt,
		CompletedAt: m.CompletedAt,
	}
	m.toAggregate(&batch.BaseAggregateRoot)

	if err := unmarshalJSON(m.Warnings, &batch.Warnings); err != nil {
		return nil, fmt.Errorf("upload batch %s warnings: %w", m.ID, err)
	}
	if err := unmarshalJSON(m.CommitErrors, &batch.CommitErrors); err != nil {
		return nil, fmt.Errorf("upload batch %s commit errors: %w", m.ID, err)
	}
	return batch, nil
}

// FromDomain populates the persistence model from a domain UploadBatch.
func (m *UploadBatchModel) FromDomain(b *bulk.UploadBatch) error {
	m.fromAggregate(b.BaseAggregateRoot)
	m.FileName = b.FileName
	m.FileSize = b.FileSize
	m.Fingerprint = b.Fingerprint
	m.ObjectKey = b.ObjectKey
	m.Status = b.Status
	m.TotalRows = b.Verification.TotalRows
	m.VerifiedRows = b.Verification.VerifiedRows
	m.FlaggedRows = b.Verification.FlaggedRows
	m.RejectedRows = b.Verification.RejectedRows
	m.Inserts = b.Changes.Inserts
	m.Updates = b.Changes.Updates
	m.Conflicts = b.Changes.Conflicts
	m.NoChanges = b.Changes.NoChanges
	m.RejectedKeys = b.Changes.Rejected
	m.Applied = b.Commit.Applied
	m.Stale = b.Commit.Stale
	m.Failed = b.Commit.Failed
	m.StagedAt = b.StagedAt
	m.CompletedAt = b.CompletedAt

	var err error
	if m.Warnings, err = marshalJSON(b.Warnings, "[]"); err != nil {
		return err
	}
	if m.CommitErrors, err = marshalJSON(b.CommitErrors, "[]"); err != nil {
		return err
	}
	return nil
}
