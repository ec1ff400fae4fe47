package products

import (
	"time"

	"github.com/shelfy/shelfy/pkg/shelfy/models"
	"gorm.io/gorm"
)

// NextSequence returns the sequence number to assign to a new product in
// the collection: one past the current maximum, or 1 for an empty
// collection. Existing rows are never touched on insert.
func NextSequence(db *gorm.DB, collectionID string) (int, error) {
	var maxSeq int
	err := db.Model(&models.Product{}).
		Where("collection_id = ?", collectionID).
		Select("COALESCE(MAX(sequence_number), 0)").
		Scan(&maxSeq).Error
	if err != nil {
		return 0, err
	}
	return maxSeq + 1, nil
}

// Resequence restores dense 1..N sequence numbers for one collection.
// Rows are walked in (sequence_number, id) ascending order so the relative
// display order is preserved, and only rows whose number actually changes
// are written. Primary ids are never reassigned. Running it twice yields
// the same assignment, so it is safe to call after any delete or import.
//
// Returns the number of rows that were reassigned.
func Resequence(db *gorm.DB, collectionID string) (int, error) {
	var rows []struct {
		ID             uint
		SequenceNumber int
	}
	err := db.Model(&models.Product{}).
		Where("collection_id = ?", collectionID).
		Order("sequence_number ASC, id ASC").
		Select("id", "sequence_number").
		Find(&rows).Error
	if err != nil {
		return 0, err
	}

	changed := 0
	for i, row := range rows {
		want := i + 1
		if row.SequenceNumber == want {
			continue
		}
		err := db.Model(&models.Product{}).
			Where("id = ?", row.ID).
			Updates(map[string]interface{}{
				"sequence_number": want,
				"updated_at":      time.Now(),
			}).Error
		if err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}
