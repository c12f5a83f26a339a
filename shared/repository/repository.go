package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"venue/infras/otel"
	"venue/infras/postgres"
	"venue/shared/constant"
	"venue/shared/dto"
	"venue/shared/logger"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

var ErrRequiredFilter = errors.New("refusing to touch every row: filter required")

type column struct {
	name  string
	table string
	alias string
}

func (c column) selector() string {
	switch {
	case c.table == "":
		return c.name
	case c.alias != "":
		return fmt.Sprintf("%s.%s AS %s", c.table, c.name, c.alias)
	default:
		return c.table + "." + c.name
	}
}

type execer interface {
	NamedExecContext(ctx context.Context, query string, arg any) (sql.Result, error)
}

type preparer interface {
	PrepareNamedContext(ctx context.Context, query string) (*sqlx.NamedStmt, error)
}

type settings struct {
	join         string
	defaultOrder []string
}

type Option func(*settings)

// WithJoin appends a JOIN clause to every read.
func WithJoin(join string) Option {
	return func(s *settings) { s.join = join }
}

// WithDefaultOrder orders reads that do not ask for a sort column, so that
// pages are stable.
func WithDefaultOrder(columns ...string) Option {
	return func(s *settings) { s.defaultOrder = columns }
}

// Repository is a table gateway for T. Columns come from T's db tags;
// embedded structs contribute theirs.
type Repository[T any] struct {
	db            *postgres.Connection
	otel          otel.Otel
	table         string
	entity        string
	primaryColumn string
	columns       []column
	sortable      map[string]bool
	insertQuery   string
	settings
}

func NewRepository[T any](entityName, tableName, primaryColumn string, db *postgres.Connection, otl otel.Otel, opts ...Option) Repository[T] {
	columns, insertColumns := getColumns(tableName, reflect.TypeFor[T]())

	sortable := make(map[string]bool, len(columns))
	for _, col := range columns {
		sortable[col.name] = true
	}

	placeholders := make([]string, len(insertColumns))
	for i, col := range insertColumns {
		placeholders[i] = ":" + col
	}

	repo := Repository[T]{
		db:            db,
		otel:          otl,
		table:         tableName,
		entity:        entityName,
		primaryColumn: primaryColumn,
		columns:       columns,
		sortable:      sortable,
		insertQuery: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
			tableName, strings.Join(insertColumns, ", "), strings.Join(placeholders, ", ")),
	}

	for _, opt := range opts {
		opt(&repo.settings)
	}

	return repo
}

func (repo *Repository[T]) scope(ctx context.Context, operation, query string) (context.Context, otel.Scope) {
	ctx, scope := repo.otel.NewScope(ctx, constant.OtelRepositoryScopeName,
		fmt.Sprintf("%s.%s.%s", constant.OtelRepositoryScopeName, repo.entity, operation))

	if query != "" {
		scope.SetAttribute(constant.OtelQueryAttributeKey, query)
	}

	return ctx, scope
}

func (repo *Repository[T]) fail(scope otel.Scope, action string, err error) error {
	logger.ErrorWithStack(err)
	scope.TraceError(err)

	return fmt.Errorf("failed to %s (%s): %w", action, repo.entity, err)
}

func (repo *Repository[T]) Insert(ctx context.Context, model T) error {
	ctx, scope := repo.scope(ctx, "Insert", repo.insertQuery)
	defer scope.End()

	if _, err := repo.writer(ctx).NamedExecContext(ctx, repo.insertQuery, model); err != nil {
		return repo.fail(scope, "insert data", err)
	}

	return nil
}

// InsertBulk writes all models in one statement.
func (repo *Repository[T]) InsertBulk(ctx context.Context, models []T) error {
	if len(models) == 0 {
		return nil
	}

	ctx, scope := repo.scope(ctx, "InsertBulk", repo.insertQuery)
	defer scope.End()

	scope.SetAttribute("db.rows", len(models))

	if _, err := repo.writer(ctx).NamedExecContext(ctx, repo.insertQuery, models); err != nil {
		return repo.fail(scope, "bulk insert data", err)
	}

	return nil
}

func (repo *Repository[T]) Exist(ctx context.Context, filter dto.FilterGroup) (bool, error) {
	where, args := repo.BuildWhereClause(filter)
	if where == "" {
		return false, ErrRequiredFilter
	}

	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s %s)", repo.table, where)

	ctx, scope := repo.scope(ctx, "Exist", query)
	defer scope.End()

	var exist bool
	if err := repo.get(ctx, &exist, query, args); err != nil {
		return false, repo.fail(scope, "check exist data", err)
	}

	return exist, nil
}

// Get returns the zero T when nothing matches.
func (repo *Repository[T]) Get(ctx context.Context, filter dto.FilterGroup, columns ...string) (T, error) {
	where, args := repo.BuildWhereClause(filter)
	query := fmt.Sprintf("SELECT %s FROM %s %s %s", repo.selectList(columns), repo.table, repo.join, where)

	ctx, scope := repo.scope(ctx, "Get", query)
	defer scope.End()

	var model T

	err := repo.get(ctx, &model, query, args)
	if errors.Is(err, sql.ErrNoRows) {
		return model, nil
	}

	if err != nil {
		return model, repo.fail(scope, "get data", err)
	}

	return model, nil
}

func (repo *Repository[T]) GetAll(ctx context.Context, params dto.QueryParams, filter dto.FilterGroup, columns ...string) ([]T, error) {
	where, args := repo.BuildWhereClause(filter)
	pagination := paginate(params, args)

	query := fmt.Sprintf("SELECT %s FROM %s %s %s %s %s",
		repo.selectList(columns), repo.table, repo.join, where, repo.orderBy(params), pagination)

	ctx, scope := repo.scope(ctx, "GetAll", query)
	defer scope.End()

	prepared, err := repo.reader(ctx).PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, repo.fail(scope, "prepare statement", err)
	}
	defer prepared.Close()

	var models []T
	if err = prepared.SelectContext(ctx, &models, args); err != nil {
		return nil, repo.fail(scope, "get all data", err)
	}

	return models, nil
}

func (repo *Repository[T]) Count(ctx context.Context, filter dto.FilterGroup) (int, error) {
	where, args := repo.BuildWhereClause(filter)
	query := fmt.Sprintf("SELECT COUNT(%s.%s) FROM %s %s %s", repo.table, repo.primaryColumn, repo.table, repo.join, where)

	ctx, scope := repo.scope(ctx, "Count", query)
	defer scope.End()

	var count int
	if err := repo.get(ctx, &count, query, args); err != nil {
		return 0, repo.fail(scope, "count data", err)
	}

	return count, nil
}

func (repo *Repository[T]) Delete(ctx context.Context, filter dto.FilterGroup) error {
	where, args := repo.BuildWhereClause(filter)
	if where == "" {
		return ErrRequiredFilter
	}

	query := fmt.Sprintf("DELETE FROM %s %s", repo.table, where)

	ctx, scope := repo.scope(ctx, "Delete", query)
	defer scope.End()

	if _, err := repo.writer(ctx).NamedExecContext(ctx, query, args); err != nil {
		return repo.fail(scope, "delete data", err)
	}

	return nil
}

// Update sets the given columns on every row matching filter.
func (repo *Repository[T]) Update(ctx context.Context, fields map[string]any, filter dto.FilterGroup) error {
	where, args := repo.BuildWhereClause(filter)
	if where == "" {
		return ErrRequiredFilter
	}

	assignments := make([]string, 0, len(fields))
	for _, col := range slices.Sorted(maps.Keys(fields)) {
		assignments = append(assignments, fmt.Sprintf("%s = :%s", col, col))
	}

	query := fmt.Sprintf("UPDATE %s SET %s %s", repo.table, strings.Join(assignments, ", "), where)

	ctx, scope := repo.scope(ctx, "Update", query)
	defer scope.End()

	maps.Copy(args, fields)

	if _, err := repo.writer(ctx).NamedExecContext(ctx, query, args); err != nil {
		return repo.fail(scope, "update data", err)
	}

	return nil
}

// Query runs a hand written named query and scans a single row into dest.
func (repo *Repository[T]) Query(ctx context.Context, dest any, query string, args map[string]any) error {
	ctx, scope := repo.scope(ctx, "Query", query)
	defer scope.End()

	if args == nil {
		args = map[string]any{}
	}

	if err := repo.get(ctx, dest, query, args); err != nil {
		return repo.fail(scope, "query data", err)
	}

	return nil
}

// Exec runs a hand written named statement on the current transaction or the write pool.
func (repo *Repository[T]) Exec(ctx context.Context, query string, args map[string]any) error {
	ctx, scope := repo.scope(ctx, "Exec", query)
	defer scope.End()

	if args == nil {
		args = map[string]any{}
	}

	if _, err := repo.writer(ctx).NamedExecContext(ctx, query, args); err != nil {
		return repo.fail(scope, "exec statement", err)
	}

	return nil
}

func (repo *Repository[T]) get(ctx context.Context, dest any, query string, args map[string]any) error {
	prepared, err := repo.reader(ctx).PrepareNamedContext(ctx, query)
	if err != nil {
		return err
	}
	defer prepared.Close()

	return prepared.GetContext(ctx, dest, args)
}

// reader uses the transaction in ctx so reads inside WithinTx observe its own writes.
func (repo *Repository[T]) reader(ctx context.Context) preparer {
	if tx, ok := postgres.TxFromContext(ctx); ok {
		return tx
	}

	if postgres.OnPrimary(ctx) {
		return repo.db.Write
	}

	return repo.db.Read
}

func (repo *Repository[T]) writer(ctx context.Context) execer {
	if tx, ok := postgres.TxFromContext(ctx); ok {
		return tx
	}

	return repo.db.Write
}

func (repo *Repository[T]) selectList(only []string) string {
	selectors := make([]string, 0, len(repo.columns))

	for _, col := range repo.columns {
		if len(only) > 0 && !slices.Contains(only, col.name) {
			continue
		}

		selectors = append(selectors, col.selector())
	}

	return strings.Join(selectors, ", ")
}

// orderBy only accepts columns of T. Anything else falls back to the default order.
func (repo *Repository[T]) orderBy(params dto.QueryParams) string {
	direction := dto.SortDirAsc
	if strings.EqualFold(params.SortDir, dto.SortDirDesc) {
		direction = dto.SortDirDesc
	}

	if params.SortBy != "" {
		if repo.sortable[params.SortBy] {
			return fmt.Sprintf("ORDER BY %s.%s %s", repo.table, params.SortBy, direction)
		}

		log.Warn().Str("entity", repo.entity).Str("sort_by", params.SortBy).Msg("ignoring unknown sort column")
	}

	if len(repo.defaultOrder) == 0 {
		return ""
	}

	terms := make([]string, len(repo.defaultOrder))
	for i, col := range repo.defaultOrder {
		terms[i] = fmt.Sprintf("%s.%s %s", repo.table, col, dto.SortDirAsc)
	}

	return "ORDER BY " + strings.Join(terms, ", ")
}

func paginate(params dto.QueryParams, args map[string]any) string {
	if params.Limit <= 0 {
		return ""
	}

	args["limit"] = params.Limit

	if params.Page <= 0 {
		return "LIMIT :limit"
	}

	args["offset"] = (params.Page - 1) * params.Limit

	return "LIMIT :limit OFFSET :offset"
}

func (repo *Repository[T]) BuildWhereClause(filter dto.FilterGroup) (string, map[string]any) {
	where, args := filter.GetWhereClause()
	if where == "" {
		return "", map[string]any{}
	}

	return "WHERE " + where, args
}

// getColumns reads db tags. A "table" tag marks a joined column, which is
// selected but never inserted; a "column" tag selects under a different name.
func getColumns(table string, reflectType reflect.Type) (columns []column, insertColumns []string) {
	for i := range reflectType.NumField() {
		field := reflectType.Field(i)

		if field.Anonymous && field.Type.Kind() == reflect.Struct {
			embedded, embeddedInsert := getColumns(table, field.Type)
			columns = append(columns, embedded...)
			insertColumns = append(insertColumns, embeddedInsert...)

			continue
		}

		dbTag := field.Tag.Get("db")
		if dbTag == "" || dbTag == "-" {
			continue
		}

		fieldTable := field.Tag.Get("table")
		if fieldTable == "" {
			fieldTable = table
			insertColumns = append(insertColumns, dbTag)
		}

		if colTag := field.Tag.Get("column"); colTag != "" {
			columns = append(columns, column{name: colTag, table: fieldTable, alias: dbTag})
		} else {
			columns = append(columns, column{name: dbTag, table: fieldTable})
		}
	}

	return columns, insertColumns
}
