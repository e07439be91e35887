package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/ogurasousui/staff-directory/internal/core/directory"
)

// EmployeeRepository はプロセス内マップを利用した社員名簿のトランジェント実装
// です。外部ストレージを持たず、テストおよびフォールバック用途で使われます。
//
// メールアドレスの一意性検査は挿入と同じ書き込みロック内で行うため、同一
// メールアドレスの並行 Create が両方成功することはありません。
type EmployeeRepository struct {
	mu         sync.RWMutex
	employees  map[int64]*directory.Employee
	educations map[int64]*directory.Education
	reviews    map[int64]*directory.Review

	employeeSeq  atomic.Int64
	educationSeq atomic.Int64
	reviewSeq    atomic.Int64
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository() *EmployeeRepository {
	return &EmployeeRepository{
		employees:  make(map[int64]*directory.Employee),
		educations: make(map[int64]*directory.Education),
		reviews:    make(map[int64]*directory.Review),
	}
}

// Create は社員を新規登録し、採番済みのレコードを返します。
func (r *EmployeeRepository) Create(_ context.Context, e *directory.Employee) (*directory.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.employees {
		if strings.EqualFold(existing.Email, e.Email) {
			return nil, directory.ErrEmailAlreadyExists
		}
	}

	clone := e.Clone()
	clone.ID = r.employeeSeq.Add(1)
	clone.Educations = nil
	r.employees[clone.ID] = clone

	return r.materialize(clone), nil
}

// Update は社員を更新します。
func (r *EmployeeRepository) Update(_ context.Context, e *directory.Employee) (*directory.Employee, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.employees[e.ID]; !ok {
		return nil, directory.ErrEmployeeNotFound
	}

	for id, existing := range r.employees {
		if id != e.ID && strings.EqualFold(existing.Email, e.Email) {
			return nil, directory.ErrEmailAlreadyExists
		}
	}

	clone := e.Clone()
	clone.Educations = nil
	r.employees[e.ID] = clone

	return r.materialize(clone), nil
}

// FindByID は指定ビューで社員を取得します。
func (r *EmployeeRepository) FindByID(_ context.Context, id int64, view directory.View) (*directory.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	existing, ok := r.employees[id]
	if !ok || !view.Includes(existing.State) {
		return nil, directory.ErrEmployeeNotFound
	}
	return r.materialize(existing), nil
}

// FindByEmail はメールアドレスで未パージの社員を検索します。
func (r *EmployeeRepository) FindByEmail(_ context.Context, email string) (*directory.Employee, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, existing := range r.employees {
		if strings.EqualFold(existing.Email, email) {
			return r.materialize(existing), nil
		}
	}
	return nil, directory.ErrEmployeeNotFound
}

// List はスナップショットに対して絞り込み・並べ替え・ページングを適用します。
func (r *EmployeeRepository) List(_ context.Context, q directory.ListQuery) ([]*directory.Employee, int, error) {
	if q.PageSize <= 0 {
		return nil, 0, directory.ErrInvalidPageSize
	}
	if q.PageIndex < 0 {
		return nil, 0, directory.ErrInvalidPageIndex
	}

	snapshot := r.snapshot(q.View)

	matched := make([]*directory.Employee, 0, len(snapshot))
	for _, e := range snapshot {
		if q.Filter.Matches(e) {
			matched = append(matched, e)
		}
	}

	q.Sort.Apply(matched)

	total := len(matched)
	start := q.Offset()
	if start >= total {
		return []*directory.Employee{}, total, nil
	}
	end := start + q.PageSize
	if end > total {
		end = total
	}

	return matched[start:end], total, nil
}

// Purge は社員とその学歴・評価を完全に削除します。
func (r *EmployeeRepository) Purge(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.employees[id]; !ok {
		return directory.ErrEmployeeNotFound
	}
	delete(r.employees, id)

	for edID, ed := range r.educations {
		if ed.EmployeeID == id {
			delete(r.educations, edID)
		}
	}
	for rvID, rv := range r.reviews {
		if rv.EmployeeID == id {
			delete(r.reviews, rvID)
		}
	}
	return nil
}

// Count は指定ビューの社員数を返します。
func (r *EmployeeRepository) Count(_ context.Context, view directory.View) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	total := 0
	for _, existing := range r.employees {
		if view.Includes(existing.State) {
			total++
		}
	}
	return total, nil
}

// DistinctValues は稼働中の社員の一意な値を昇順で返します。
func (r *EmployeeRepository) DistinctValues(_ context.Context, field directory.Field) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]struct{})
	for _, existing := range r.employees {
		if existing.State != directory.StateActive {
			continue
		}

		var value string
		switch field {
		case directory.FieldDepartment:
			value = existing.Department
		case directory.FieldPosition:
			value = existing.Position
		case directory.FieldSchool:
			value = existing.School
		default:
			return nil, directory.ErrInvalidSortField
		}

		if value != "" {
			seen[value] = struct{}{}
		}
	}

	values := make([]string, 0, len(seen))
	for value := range seen {
		values = append(values, value)
	}
	sort.Strings(values)
	return values, nil
}

// AddEducation は学歴を追加します。
func (r *EmployeeRepository) AddEducation(_ context.Context, ed *directory.Education) (*directory.Education, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.employees[ed.EmployeeID]; !ok {
		return nil, directory.ErrEmployeeNotFound
	}

	clone := *ed
	clone.ID = r.educationSeq.Add(1)
	r.educations[clone.ID] = &clone

	result := clone
	return &result, nil
}

// RemoveEducation は学歴を取り除きます。
func (r *EmployeeRepository) RemoveEducation(_ context.Context, employeeID, educationID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	ed, ok := r.educations[educationID]
	if !ok || ed.EmployeeID != employeeID {
		return directory.ErrEducationNotFound
	}
	delete(r.educations, educationID)
	return nil
}

// ListEducations は社員の学歴を ID 昇順で返します。
func (r *EmployeeRepository) ListEducations(_ context.Context, employeeID int64) ([]*directory.Education, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.educationsOf(employeeID), nil
}

// AddReview は評価を追加します。
func (r *EmployeeRepository) AddReview(_ context.Context, rv *directory.Review) (*directory.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.employees[rv.EmployeeID]; !ok {
		return nil, directory.ErrEmployeeNotFound
	}

	clone := *rv
	clone.ID = r.reviewSeq.Add(1)
	r.reviews[clone.ID] = &clone

	result := clone
	return &result, nil
}

// ListReviews は社員への評価を新しい順で返します。
func (r *EmployeeRepository) ListReviews(_ context.Context, employeeID int64) ([]*directory.Review, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	reviews := make([]*directory.Review, 0)
	for _, rv := range r.reviews {
		if rv.EmployeeID == employeeID {
			clone := *rv
			reviews = append(reviews, &clone)
		}
	}

	sort.Slice(reviews, func(i, j int) bool {
		if !reviews[i].CreatedAt.Equal(reviews[j].CreatedAt) {
			return reviews[i].CreatedAt.After(reviews[j].CreatedAt)
		}
		return reviews[i].ID > reviews[j].ID
	})
	return reviews, nil
}

// snapshot は指定ビューの社員の複製一覧を返します。学歴は含まれません。
func (r *EmployeeRepository) snapshot(view directory.View) []*directory.Employee {
	r.mu.RLock()
	defer r.mu.RUnlock()

	employees := make([]*directory.Employee, 0, len(r.employees))
	for _, existing := range r.employees {
		if view.Includes(existing.State) {
			employees = append(employees, existing.Clone())
		}
	}
	return employees
}

// materialize は保持レコードの複製に学歴を付与して返します。呼び出し側が
// ロックを保持している前提です。
func (r *EmployeeRepository) materialize(e *directory.Employee) *directory.Employee {
	clone := e.Clone()
	clone.Educations = r.educationsOf(e.ID)
	return clone
}

func (r *EmployeeRepository) educationsOf(employeeID int64) []*directory.Education {
	educations := make([]*directory.Education, 0)
	for _, ed := range r.educations {
		if ed.EmployeeID == employeeID {
			clone := *ed
			educations = append(educations, &clone)
		}
	}
	sort.Slice(educations, func(i, j int) bool { return educations[i].ID < educations[j].ID })
	return educations
}
