package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/staff-directory/internal/core/directory"
	"github.com/ogurasousui/staff-directory/internal/core/skill"
	pgdb "github.com/ogurasousui/staff-directory/internal/platform/db/postgres"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
	checkViolationCode      = "23514"
)

const employeeColumns = `e.id, e.name, e.email, e.phone, e.department, e.position, e.school, e.photo_path, e.state, e.deleted_at, e.deleted_by, e.created_at, e.updated_at`

// EmployeeRepository は PostgreSQL を利用した社員名簿の永続実装です。
// メールアドレスの一意性は employees.email のユニーク制約が最終的に保証し、
// サービス層の事前検査はエラーの質を高めるための補助です。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Create は社員を新規登録します。
func (r *EmployeeRepository) Create(ctx context.Context, e *directory.Employee) (*directory.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employees (name, email, phone, department, position, school, photo_path, state, deleted_at, deleted_by, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
        RETURNING id, name, email, phone, department, position, school, photo_path, state, deleted_at, deleted_by, created_at, updated_at
    `,
		e.Name,
		e.Email,
		e.Phone,
		e.Department,
		e.Position,
		e.School,
		e.PhotoPath,
		string(e.State),
		nullableTime(e.DeletedAt),
		nullableString(e.DeletedBy),
		e.CreatedAt,
		e.UpdatedAt,
	)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, translatePgError(err)
	}

	if err := r.replaceSkills(ctx, exec, created.ID, e.Skills); err != nil {
		return nil, err
	}
	created.Skills = append([]skill.Skill(nil), e.Skills...)
	created.Educations = []*directory.Education{}

	return created, nil
}

// Update は社員を更新します。スキル集合はレコードの持つ集合へ置き換えられます。
func (r *EmployeeRepository) Update(ctx context.Context, e *directory.Employee) (*directory.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        UPDATE employees
           SET name = $1,
               email = $2,
               phone = $3,
               department = $4,
               position = $5,
               school = $6,
               photo_path = $7,
               state = $8,
               deleted_at = $9,
               deleted_by = $10,
               updated_at = $11
         WHERE id = $12
        RETURNING id, name, email, phone, department, position, school, photo_path, state, deleted_at, deleted_by, created_at, updated_at
    `,
		e.Name,
		e.Email,
		e.Phone,
		e.Department,
		e.Position,
		e.School,
		e.PhotoPath,
		string(e.State),
		nullableTime(e.DeletedAt),
		nullableString(e.DeletedBy),
		e.UpdatedAt,
		e.ID,
	)

	updated, err := scanEmployee(row)
	if err != nil {
		return nil, translatePgError(err)
	}

	if err := r.replaceSkills(ctx, exec, updated.ID, e.Skills); err != nil {
		return nil, err
	}
	updated.Skills = append([]skill.Skill(nil), e.Skills...)

	educations, err := r.ListEducations(ctx, updated.ID)
	if err != nil {
		return nil, err
	}
	updated.Educations = educations

	return updated, nil
}

// FindByID は指定ビューで社員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id int64, view directory.View) (*directory.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	query := `SELECT ` + employeeColumns + ` FROM employees e WHERE e.id = $1`
	if condition := viewCondition(view); condition != "" {
		query += " AND " + condition
	}
	query += " LIMIT 1"

	found, err := scanEmployee(exec.QueryRow(ctx, query, id))
	if err != nil {
		return nil, translatePgError(err)
	}

	return r.attachRelations(ctx, exec, found)
}

// FindByEmail はメールアドレスで未パージの社員を検索します。状態は問いません。
func (r *EmployeeRepository) FindByEmail(ctx context.Context, email string) (*directory.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	found, err := scanEmployee(exec.QueryRow(ctx, `
        SELECT `+employeeColumns+`
          FROM employees e
         WHERE lower(e.email) = lower($1)
         LIMIT 1
    `, email))
	if err != nil {
		return nil, translatePgError(err)
	}

	return r.attachRelations(ctx, exec, found)
}

// List は絞り込み・並べ替え・ページングを SQL へ押し下げて実行します。
// 総件数は同じ条件の COUNT クエリで取得します。
func (r *EmployeeRepository) List(ctx context.Context, q directory.ListQuery) ([]*directory.Employee, int, error) {
	if q.PageSize <= 0 {
		return nil, 0, directory.ErrInvalidPageSize
	}
	if q.PageIndex < 0 {
		return nil, 0, directory.ErrInvalidPageIndex
	}

	whereClause, args := buildListConditions(q)

	exec := pgdb.QueryerFromContext(ctx, r.pool)

	var total int
	countQuery := `SELECT COUNT(*) FROM employees e` + whereClause
	if err := exec.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, translatePgError(err)
	}

	limitPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, q.PageSize)
	offsetPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, q.Offset())

	query := `SELECT ` + employeeColumns + ` FROM employees e` + whereClause +
		` ORDER BY ` + orderClause(q.Sort) +
		` LIMIT ` + limitPlaceholder +
		` OFFSET ` + offsetPlaceholder

	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, translatePgError(err)
	}
	defer rows.Close()

	employees := make([]*directory.Employee, 0, q.PageSize)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, 0, translatePgError(err)
		}
		employees = append(employees, emp)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, translatePgError(err)
	}

	if err := r.loadSkills(ctx, exec, employees); err != nil {
		return nil, 0, err
	}

	return employees, total, nil
}

// Purge は社員を物理削除します。学歴・評価・スキルは外部キーの連鎖削除で
// 取り除かれます。
func (r *EmployeeRepository) Purge(ctx context.Context, id int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return translatePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return directory.ErrEmployeeNotFound
	}
	return nil
}

// Count は指定ビューの社員数を返します。
func (r *EmployeeRepository) Count(ctx context.Context, view directory.View) (int, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)

	query := `SELECT COUNT(*) FROM employees e`
	if condition := viewCondition(view); condition != "" {
		query += " WHERE " + condition
	}

	var total int
	if err := exec.QueryRow(ctx, query).Scan(&total); err != nil {
		return 0, translatePgError(err)
	}
	return total, nil
}

// DistinctValues は稼働中の社員の一意な値を昇順で返します。
func (r *EmployeeRepository) DistinctValues(ctx context.Context, field directory.Field) ([]string, error) {
	var column string
	switch field {
	case directory.FieldDepartment:
		column = "department"
	case directory.FieldPosition:
		column = "position"
	case directory.FieldSchool:
		column = "school"
	default:
		return nil, directory.ErrInvalidSortField
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT DISTINCT e.`+column+`
          FROM employees e
         WHERE e.state = 'active' AND e.`+column+` <> ''
         ORDER BY e.`+column+`
    `)
	if err != nil {
		return nil, translatePgError(err)
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, translatePgError(err)
		}
		values = append(values, value)
	}
	if err := rows.Err(); err != nil {
		return nil, translatePgError(err)
	}
	return values, nil
}

func (r *EmployeeRepository) attachRelations(ctx context.Context, exec pgdb.Queryer, e *directory.Employee) (*directory.Employee, error) {
	if err := r.loadSkills(ctx, exec, []*directory.Employee{e}); err != nil {
		return nil, err
	}

	educations, err := r.ListEducations(ctx, e.ID)
	if err != nil {
		return nil, err
	}
	e.Educations = educations
	return e, nil
}

func (r *EmployeeRepository) loadSkills(ctx context.Context, exec pgdb.Queryer, employees []*directory.Employee) error {
	if len(employees) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(employees))
	byID := make(map[int64]*directory.Employee, len(employees))
	for _, e := range employees {
		e.Skills = nil
		ids = append(ids, e.ID)
		byID[e.ID] = e
	}

	rows, err := exec.Query(ctx, `
        SELECT s.employee_id, s.skill
          FROM employee_skills s
         WHERE s.employee_id = ANY($1)
         ORDER BY s.skill
    `, ids)
	if err != nil {
		return translatePgError(err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			employeeID int64
			name       string
		)
		if err := rows.Scan(&employeeID, &name); err != nil {
			return translatePgError(err)
		}
		if e, ok := byID[employeeID]; ok {
			e.Skills = append(e.Skills, skill.Skill(name))
		}
	}
	return translatePgError(rows.Err())
}

func (r *EmployeeRepository) replaceSkills(ctx context.Context, exec pgdb.Queryer, employeeID int64, skills []skill.Skill) error {
	if _, err := exec.Exec(ctx, `DELETE FROM employee_skills WHERE employee_id = $1`, employeeID); err != nil {
		return translatePgError(err)
	}

	for _, s := range skills {
		if _, err := exec.Exec(ctx, `
            INSERT INTO employee_skills (employee_id, skill) VALUES ($1, $2)
        `, employeeID, string(s)); err != nil {
			return translatePgError(err)
		}
	}
	return nil
}

func viewCondition(view directory.View) string {
	switch view {
	case directory.ViewActive:
		return "e.state = 'active'"
	case directory.ViewArchived:
		return "e.state = 'archived'"
	default:
		return ""
	}
}

// likeEscaper は LIKE メタ文字をエスケープします。絞り込み語はリテラルな
// 部分文字列であり、Matches の判定と一致させるためワイルドカード解釈を許しません。
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// buildListConditions は共有フィルタ仕様を WHERE 句へ翻訳します。空の条件は
// 付与されず、トランジェント実装の Matches と同じ意味論になります。
func buildListConditions(q directory.ListQuery) (string, []any) {
	args := make([]any, 0, 8)
	conditions := make([]string, 0, 8)

	if condition := viewCondition(q.View); condition != "" {
		conditions = append(conditions, condition)
	}

	addLike := func(column, term string) {
		if term == "" {
			return
		}
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "e."+column+" ILIKE "+placeholder)
		args = append(args, "%"+likeEscaper.Replace(term)+"%")
	}

	addLike("name", q.Filter.Name)
	addLike("email", q.Filter.Email)
	addLike("phone", q.Filter.Phone)
	addLike("department", q.Filter.Department)
	addLike("position", q.Filter.Position)

	if q.Filter.Skill != "" {
		placeholder := "$" + strconv.Itoa(len(args)+1)
		conditions = append(conditions, "EXISTS (SELECT 1 FROM employee_skills s WHERE s.employee_id = e.id AND s.skill = "+placeholder+")")
		args = append(args, string(q.Filter.Skill))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// orderClause は並べ替え指定を ORDER BY 句へ翻訳します。同値は ID 昇順で
// 安定化され、トランジェント実装の比較器と一致します。
func orderClause(s directory.Sort) string {
	var column string
	switch s.Field {
	case directory.FieldEmail:
		column = "lower(e.email)"
	case directory.FieldPhone:
		column = "e.phone"
	case directory.FieldDepartment:
		column = "lower(e.department)"
	case directory.FieldPosition:
		column = "lower(e.position)"
	case directory.FieldSchool:
		column = "lower(e.school)"
	case directory.FieldCreatedAt:
		column = "e.created_at"
	default:
		column = "lower(e.name)"
	}

	direction := " ASC"
	if s.Descending {
		direction = " DESC"
	}
	return column + direction + ", e.id ASC"
}

func scanEmployee(row pgx.Row) (*directory.Employee, error) {
	var (
		id         int64
		name       string
		email      string
		phone      string
		department string
		position   string
		school     string
		photoPath  string
		state      string
		deletedAt  sql.NullTime
		deletedBy  sql.NullString
		createdAt  time.Time
		updatedAt  time.Time
	)

	if err := row.Scan(
		&id,
		&name,
		&email,
		&phone,
		&department,
		&position,
		&school,
		&photoPath,
		&state,
		&deletedAt,
		&deletedBy,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, directory.ErrEmployeeNotFound
		}
		return nil, err
	}

	var deletedAtPtr *time.Time
	if deletedAt.Valid {
		t := deletedAt.Time.UTC()
		deletedAtPtr = &t
	}

	var deletedByPtr *string
	if deletedBy.Valid {
		actor := deletedBy.String
		deletedByPtr = &actor
	}

	return &directory.Employee{
		ID:         id,
		Name:       name,
		Email:      email,
		Phone:      phone,
		Department: department,
		Position:   position,
		School:     school,
		PhotoPath:  photoPath,
		State:      directory.State(state),
		DeletedAt:  deletedAtPtr,
		DeletedBy:  deletedByPtr,
		CreatedAt:  createdAt,
		UpdatedAt:  updatedAt,
	}, nil
}

// translatePgError は PostgreSQL のエラーをドメインエラーへ対応付けます。
// 対応付けできないものはそのまま返し、ストレージ障害として扱われます。
func translatePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return directory.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			if pgErr.ConstraintName == "employees_email_key" {
				return directory.ErrEmailAlreadyExists
			}
			return err
		case foreignKeyViolationCode:
			return directory.ErrEmployeeNotFound
		case checkViolationCode:
			switch pgErr.ConstraintName {
			case "reviews_rating_check":
				return directory.ErrInvalidRating
			case "educations_year_range_check":
				return directory.ErrInvalidYearRange
			default:
				return err
			}
		}
	}

	return err
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC()
}

func nullableString(value *string) any {
	if value == nil {
		return nil
	}
	return *value
}
