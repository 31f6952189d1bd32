package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	apperrors "github.com/BlackDevilOC/managmetn-android-sub000/pkg/errors"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/model"
	"github.com/BlackDevilOC/managmetn-android-sub000/pkg/store"
)

// RunRecord 一次分配运行的摘要
type RunRecord struct {
	RunID       uuid.UUID `json:"run_id" db:"run_id"`
	Date        string    `json:"date" db:"run_date"`
	Absent      int       `json:"absent" db:"absent"`
	Assignments int       `json:"assignments" db:"assignments"`
	Warnings    int       `json:"warnings" db:"warnings"`
	DurationMs  int64     `json:"duration_ms" db:"duration_ms"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// assignmentRow substitute_assignments 表的一行
type assignmentRow struct {
	Position        int    `db:"position"`
	DocDate         string `db:"doc_date"`
	OriginalTeacher string `db:"original_teacher"`
	Period          int    `db:"period"`
	ClassName       string `db:"class_name"`
	Substitute      string `db:"substitute"`
	SubstitutePhone string `db:"substitute_phone"`
}

// warningRow substitute_warnings 表的一行
type warningRow struct {
	Position int    `db:"position"`
	DocDate  string `db:"doc_date"`
	Message  string `db:"message"`
}

const selectAssignments = `SELECT position, doc_date, original_teacher, period, class_name, substitute, substitute_phone
	FROM substitute_assignments ORDER BY position`

const selectWarnings = `SELECT position, doc_date, message FROM substitute_warnings ORDER BY position`

const insertAssignment = `INSERT INTO substitute_assignments (
		position, doc_date, original_teacher, period, class_name, substitute, substitute_phone
	) VALUES (:position, :doc_date, :original_teacher, :period, :class_name, :substitute, :substitute_phone)`

const insertWarning = `INSERT INTO substitute_warnings (position, doc_date, message)
	VALUES (:position, :doc_date, :message)`

const insertRun = `INSERT INTO substitute_runs (
		run_id, run_date, absent, assignments, warnings, duration_ms, created_at
	) VALUES (:run_id, :run_date, :absent, :assignments, :warnings, :duration_ms, :created_at)`

const selectRuns = `SELECT run_id, run_date, absent, assignments, warnings, duration_ms, created_at
	FROM substitute_runs ORDER BY created_at DESC LIMIT $1`

// AssignmentRepository 分配文档的 PostgreSQL 存储
//
// 文档整体替换：Save 在一个事务中清空两张表再按顺序写入。
type AssignmentRepository struct {
	db DB
}

// NewAssignmentRepository 创建分配仓储
func NewAssignmentRepository(db DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Load 读取分配文档；表为空时返回空文档
func (r *AssignmentRepository) Load(ctx context.Context) (model.AssignmentDocument, []string, error) {
	doc := model.EmptyDocument()

	var assignments []assignmentRow
	if err := sqlx.SelectContext(ctx, r.db, &assignments, selectAssignments); err != nil {
		return doc, nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询代课分配失败")
	}
	var warnings []warningRow
	if err := sqlx.SelectContext(ctx, r.db, &warnings, selectWarnings); err != nil {
		return doc, nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询警告失败")
	}

	for _, row := range assignments {
		doc.Date = row.DocDate
		doc.Assignments = append(doc.Assignments, model.SubstituteAssignment{
			OriginalTeacher: row.OriginalTeacher,
			Period:          row.Period,
			ClassName:       row.ClassName,
			Substitute:      row.Substitute,
			SubstitutePhone: row.SubstitutePhone,
		})
	}
	for _, row := range warnings {
		if doc.Date == "" {
			doc.Date = row.DocDate
		}
		doc.Warnings = append(doc.Warnings, row.Message)
	}
	return doc, nil, nil
}

// Save 整体替换分配文档
func (r *AssignmentRepository) Save(ctx context.Context, doc model.AssignmentDocument) error {
	doc = doc.Normalize()
	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		if err := clearDocument(ctx, tx); err != nil {
			return err
		}
		for i, a := range doc.Assignments {
			row := assignmentRow{
				Position:        i,
				DocDate:         doc.Date,
				OriginalTeacher: a.OriginalTeacher,
				Period:          a.Period,
				ClassName:       a.ClassName,
				Substitute:      a.Substitute,
				SubstitutePhone: a.SubstitutePhone,
			}
			if _, err := tx.NamedExecContext(ctx, insertAssignment, row); err != nil {
				return apperrors.Wrap(err, apperrors.CodeDatabaseError, "写入代课分配失败")
			}
		}
		for i, w := range doc.Warnings {
			row := warningRow{Position: i, DocDate: doc.Date, Message: w}
			if _, err := tx.NamedExecContext(ctx, insertWarning, row); err != nil {
				return apperrors.Wrap(err, apperrors.CodeDatabaseError, "写入警告失败")
			}
		}
		return nil
	})
}

// Clear 清空分配文档
func (r *AssignmentRepository) Clear(ctx context.Context) error {
	return r.db.Transaction(ctx, func(tx *sqlx.Tx) error {
		return clearDocument(ctx, tx)
	})
}

// RecordRun 记录一次运行摘要
func (r *AssignmentRepository) RecordRun(ctx context.Context, rec RunRecord) error {
	if rec.RunID == uuid.Nil {
		rec.RunID = uuid.New()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if _, err := sqlx.NamedExecContext(ctx, r.db, insertRun, rec); err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "记录运行失败")
	}
	return nil
}

// ListRuns 按时间倒序列出最近的运行
func (r *AssignmentRepository) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []RunRecord
	if err := sqlx.SelectContext(ctx, r.db, &runs, selectRuns, limit); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "查询运行记录失败")
	}
	return runs, nil
}

func clearDocument(ctx context.Context, tx *sqlx.Tx) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM substitute_warnings`); err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "清空警告失败")
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM substitute_assignments`); err != nil {
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "清空代课分配失败")
	}
	return nil
}

var _ store.Store = (*AssignmentRepository)(nil)
