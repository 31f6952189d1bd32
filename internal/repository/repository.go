// Package repository 提供数据访问层
package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// DB 数据库接口，*database.DB 满足该接口
type DB interface {
	sqlx.ExtContext
	Transaction(ctx context.Context, fn func(tx *sqlx.Tx) error) error
}
