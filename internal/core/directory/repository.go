package directory

import "context"

// View は検索対象の範囲を表します。通常のクエリは稼働中のみを対象とし、
// アーカイブビューは明示的に指定された場合にのみ使われます。
type View int

const (
	ViewActive View = iota
	ViewArchived
	ViewAny
)

// Includes はビューが状態を含むかを返します。
func (v View) Includes(state State) bool {
	switch v {
	case ViewActive:
		return state == StateActive
	case ViewArchived:
		return state == StateArchived
	default:
		return true
	}
}

// ListQuery は一覧取得の指定一式です。PageIndex は 0 始まりです。
type ListQuery struct {
	Filter    Filter
	Sort      Sort
	View      View
	PageIndex int
	PageSize  int
}

// Offset は OFFSET 相当の先頭位置を返します。
func (q ListQuery) Offset() int {
	return q.PageIndex * q.PageSize
}

// Repository は社員名簿の永続化の抽象です。トランジェント実装と永続実装が
// あり、同一入力に対して観測可能な振る舞いが一致しなければなりません。
//
// FindByID / FindByEmail は単体レコードを学歴込みで返します。List は
// ページ内の社員をスキル込み・学歴なしで返します。
type Repository interface {
	Create(ctx context.Context, e *Employee) (*Employee, error)
	Update(ctx context.Context, e *Employee) (*Employee, error)
	FindByID(ctx context.Context, id int64, view View) (*Employee, error)
	FindByEmail(ctx context.Context, email string) (*Employee, error)
	List(ctx context.Context, q ListQuery) ([]*Employee, int, error)
	Purge(ctx context.Context, id int64) error
	Count(ctx context.Context, view View) (int, error)
	DistinctValues(ctx context.Context, field Field) ([]string, error)

	AddEducation(ctx context.Context, ed *Education) (*Education, error)
	RemoveEducation(ctx context.Context, employeeID, educationID int64) error
	ListEducations(ctx context.Context, employeeID int64) ([]*Education, error)

	AddReview(ctx context.Context, rv *Review) (*Review, error)
	ListReviews(ctx context.Context, employeeID int64) ([]*Review, error)
}
