package postgres

import (
	"context"

	"github.com/ogurasousui/staff-directory/internal/core/directory"
	pgdb "github.com/ogurasousui/staff-directory/internal/platform/db/postgres"
)

// AddEducation は学歴を追加します。親が存在しない場合は外部キー違反が
// ErrEmployeeNotFound へ翻訳されます。
func (r *EmployeeRepository) AddEducation(ctx context.Context, ed *directory.Education) (*directory.Education, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO educations (employee_id, start_year, end_year, institution, degree)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id, employee_id, start_year, end_year, institution, degree
    `,
		ed.EmployeeID,
		ed.StartYear,
		ed.EndYear,
		ed.Institution,
		ed.Degree,
	)

	created := &directory.Education{}
	if err := row.Scan(&created.ID, &created.EmployeeID, &created.StartYear, &created.EndYear, &created.Institution, &created.Degree); err != nil {
		return nil, translatePgError(err)
	}
	return created, nil
}

// RemoveEducation は学歴を取り除きます。
func (r *EmployeeRepository) RemoveEducation(ctx context.Context, employeeID, educationID int64) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        DELETE FROM educations WHERE id = $1 AND employee_id = $2
    `, educationID, employeeID)
	if err != nil {
		return translatePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return directory.ErrEducationNotFound
	}
	return nil
}

// ListEducations は社員の学歴を ID 昇順で返します。
func (r *EmployeeRepository) ListEducations(ctx context.Context, employeeID int64) ([]*directory.Education, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, employee_id, start_year, end_year, institution, degree
          FROM educations
         WHERE employee_id = $1
         ORDER BY id
    `, employeeID)
	if err != nil {
		return nil, translatePgError(err)
	}
	defer rows.Close()

	educations := make([]*directory.Education, 0)
	for rows.Next() {
		ed := &directory.Education{}
		if err := rows.Scan(&ed.ID, &ed.EmployeeID, &ed.StartYear, &ed.EndYear, &ed.Institution, &ed.Degree); err != nil {
			return nil, translatePgError(err)
		}
		educations = append(educations, ed)
	}
	if err := rows.Err(); err != nil {
		return nil, translatePgError(err)
	}
	return educations, nil
}

// AddReview は評価を追加します。評価値の範囲はチェック制約が最終的に保証
// します。
func (r *EmployeeRepository) AddReview(ctx context.Context, rv *directory.Review) (*directory.Review, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO reviews (employee_id, rating, comment, created_at)
        VALUES ($1, $2, $3, $4)
        RETURNING id, employee_id, rating, comment, created_at
    `,
		rv.EmployeeID,
		rv.Rating,
		rv.Comment,
		rv.CreatedAt,
	)

	created := &directory.Review{}
	if err := row.Scan(&created.ID, &created.EmployeeID, &created.Rating, &created.Comment, &created.CreatedAt); err != nil {
		return nil, translatePgError(err)
	}
	return created, nil
}

// ListReviews は社員への評価を新しい順で返します。
func (r *EmployeeRepository) ListReviews(ctx context.Context, employeeID int64) ([]*directory.Review, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `
        SELECT id, employee_id, rating, comment, created_at
          FROM reviews
         WHERE employee_id = $1
         ORDER BY created_at DESC, id DESC
    `, employeeID)
	if err != nil {
		return nil, translatePgError(err)
	}
	defer rows.Close()

	reviews := make([]*directory.Review, 0)
	for rows.Next() {
		rv := &directory.Review{}
		if err := rows.Scan(&rv.ID, &rv.EmployeeID, &rv.Rating, &rv.Comment, &rv.CreatedAt); err != nil {
			return nil, translatePgError(err)
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, translatePgError(err)
	}
	return reviews, nil
}
