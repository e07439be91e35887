package directory

import (
	"sort"
	"strings"

	"github.com/ogurasousui/staff-directory/internal/core/skill"
)

// Field は並べ替え・絞り込みで利用できる安定したフィールド名の集合です。
type Field string

const (
	FieldName       Field = "name"
	FieldEmail      Field = "email"
	FieldPhone      Field = "phoneNumber"
	FieldDepartment Field = "department"
	FieldPosition   Field = "position"
	FieldSchool     Field = "school"
	FieldCreatedAt  Field = "createdAt"
)

// ParseField はフィールド名文字列を検証して Field に変換します。
func ParseField(raw string) (Field, error) {
	switch Field(raw) {
	case FieldName, FieldEmail, FieldPhone, FieldDepartment, FieldPosition, FieldSchool, FieldCreatedAt:
		return Field(raw), nil
	default:
		return "", ErrInvalidSortField
	}
}

// Filter は一覧検索の絞り込み条件です。空のフィールドは全件一致として扱われ、
// 指定された条件は AND で合成されます。部分一致は大文字小文字を区別しません。
//
// 両バックエンドは本構造体の Matches と同じ意味論を実装しなければなりません。
// トランジェント側は Matches をそのまま使い、永続側は SQL へ翻訳します。
type Filter struct {
	Name       string
	Email      string
	Phone      string
	Department string
	Position   string
	Skill      skill.Skill
}

// IsEmpty は条件が一つも指定されていない場合に true を返します。
func (f Filter) IsEmpty() bool {
	return f.Name == "" && f.Email == "" && f.Phone == "" &&
		f.Department == "" && f.Position == "" && f.Skill == ""
}

// Matches は社員が条件を満たすかを判定します。
func (f Filter) Matches(e *Employee) bool {
	if !containsFold(e.Name, f.Name) {
		return false
	}
	if !containsFold(e.Email, f.Email) {
		return false
	}
	if !containsFold(e.Phone, f.Phone) {
		return false
	}
	if !containsFold(e.Department, f.Department) {
		return false
	}
	if !containsFold(e.Position, f.Position) {
		return false
	}
	if f.Skill != "" && !e.HasSkill(f.Skill) {
		return false
	}
	return true
}

func containsFold(value, term string) bool {
	if term == "" {
		return true
	}
	return strings.Contains(strings.ToLower(value), strings.ToLower(term))
}

// Sort は並べ替え指定です。同値の場合は ID 昇順で安定化されます。
type Sort struct {
	Field      Field
	Descending bool
}

// Less は Sort に従った比較関数です。トランジェントバックエンドの比較器であり、
// 永続バックエンドの ORDER BY と意味論を共有します。
func (s Sort) Less(a, b *Employee) bool {
	if cmp := s.compare(a, b); cmp != 0 {
		if s.Descending {
			return cmp > 0
		}
		return cmp < 0
	}
	return a.ID < b.ID
}

func (s Sort) compare(a, b *Employee) int {
	switch s.Field {
	case FieldEmail:
		return strings.Compare(strings.ToLower(a.Email), strings.ToLower(b.Email))
	case FieldPhone:
		return strings.Compare(a.Phone, b.Phone)
	case FieldDepartment:
		return strings.Compare(strings.ToLower(a.Department), strings.ToLower(b.Department))
	case FieldPosition:
		return strings.Compare(strings.ToLower(a.Position), strings.ToLower(b.Position))
	case FieldSchool:
		return strings.Compare(strings.ToLower(a.School), strings.ToLower(b.School))
	case FieldCreatedAt:
		switch {
		case a.CreatedAt.Before(b.CreatedAt):
			return -1
		case a.CreatedAt.After(b.CreatedAt):
			return 1
		default:
			return 0
		}
	default:
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	}
}

// Apply は社員スライスを並べ替えます。
func (s Sort) Apply(employees []*Employee) {
	sort.SliceStable(employees, func(i, j int) bool {
		return s.Less(employees[i], employees[j])
	})
}
