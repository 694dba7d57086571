package repository

import (
	"context"

	"gorm.io/gorm"
)

type txKey struct{}

// TxManager исполняет функцию внутри одной транзакции БД.
// Транзакция передаётся репозиториям через контекст, поэтому проверки
// констрейнтов и сама запись видят одно и то же состояние: либо всё
// коммитится, либо всё откатывается.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type txManager struct {
	db *gorm.DB
}

// NewTxManager создаёт менеджер транзакций поверх GORM
func NewTxManager(db *gorm.DB) TxManager {
	return &txManager{db: db}
}

func (m *txManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(context.WithValue(ctx, txKey{}, tx))
	})
}

// dbFrom возвращает транзакцию из контекста либо общее подключение
func dbFrom(ctx context.Context, fallback *gorm.DB) *gorm.DB {
	if tx, ok := ctx.Value(txKey{}).(*gorm.DB); ok {
		return tx
	}
	return fallback.WithContext(ctx)
}
