package models

// Size is a shared size dictionary entry (S, M, L, 42, ...).
type Size struct {
	ID   uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	Name string `gorm:"column:name;uniqueIndex;not null"`
}
