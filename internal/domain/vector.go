package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// Vector - embedding-вектор ресурса. В БД хранится как JSON-текст,
// чтобы одна и та же колонка работала и в PostgreSQL, и в SQLite.
type Vector []float32

// Value сериализует вектор для записи в БД
func (v Vector) Value() (driver.Value, error) {
	if v == nil {
		return nil, nil
	}
	data, err := json.Marshal([]float32(v))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan десериализует вектор из значения БД
func (v *Vector) Scan(src any) error {
	if src == nil {
		*v = nil
		return nil
	}

	var data []byte
	switch s := src.(type) {
	case []byte:
		data = s
	case string:
		data = []byte(s)
	default:
		return fmt.Errorf("unsupported embedding column type %T", src)
	}

	if len(data) == 0 {
		*v = nil
		return nil
	}

	var out []float32
	if err := json.Unmarshal(data, &out); err != nil {
		return fmt.Errorf("failed to decode embedding: %w", err)
	}
	*v = out
	return nil
}
