package models

// PhotocardCounter names the sequence that issues photocard numbers.
const PhotocardCounter = "photocardCounter"

// Sequence is a named monotonically increasing counter.
type Sequence struct {
	ID    string `gorm:"primaryKey;type:varchar(64)"`
	Value int64  `gorm:"not null;default:0"`
}
