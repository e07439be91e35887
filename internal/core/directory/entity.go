package directory

import (
	"time"

	"github.com/ogurasousui/staff-directory/internal/core/skill"
)

// State は社員レコードの状態を表します。PURGED は物理削除のため状態としては
// 現れません。
type State string

const (
	StateActive   State = "active"
	StateArchived State = "archived"
)

// Employee は社員名簿のエンティティです。Educations は単体取得時のみ
// 読み込まれます。
type Employee struct {
	ID         int64
	Name       string
	Email      string
	Phone      string
	Department string
	Position   string
	School     string
	PhotoPath  string
	Skills     []skill.Skill
	Educations []*Education
	State      State
	DeletedAt  *time.Time
	DeletedBy  *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Education は社員に属する学歴レコードです。社員のパージ時に連鎖削除されます。
type Education struct {
	ID          int64
	EmployeeID  int64
	StartYear   int
	EndYear     int
	Institution string
	Degree      string
}

// Review は社員に対する評価レコードです。CreatedAt はサーバー側でのみ設定されます。
type Review struct {
	ID         int64
	EmployeeID int64
	Rating     int
	Comment    string
	CreatedAt  time.Time
}

// Archive は社員をアーカイブ状態へ遷移させます。両バックエンドが同じ遷移規則を
// 共有するため、状態機械はエンティティ側に置いています。
func (e *Employee) Archive(now time.Time, actor *string) error {
	if e.State != StateActive {
		return ErrAlreadyArchived
	}
	at := now
	e.State = StateArchived
	e.DeletedAt = &at
	e.DeletedBy = cloneStringPtr(actor)
	e.UpdatedAt = now
	return nil
}

// Restore はアーカイブ済みの社員を稼働状態へ戻します。
func (e *Employee) Restore(now time.Time) error {
	if e.State != StateArchived {
		return ErrNotArchived
	}
	e.State = StateActive
	e.DeletedAt = nil
	e.DeletedBy = nil
	e.UpdatedAt = now
	return nil
}

// EnsurePurgeable はパージ可能な状態であることを検証します。パージは
// アーカイブ経由でのみ許可されます。
func (e *Employee) EnsurePurgeable() error {
	if e.State != StateArchived {
		return ErrNotArchived
	}
	return nil
}

// HasSkill はスキル集合に s が含まれるかを返します。
func (e *Employee) HasSkill(s skill.Skill) bool {
	for _, existing := range e.Skills {
		if existing == s {
			return true
		}
	}
	return false
}

// AddSkill はスキルを集合へ追加します。重複追加は上流フォームの不整合検知の
// ため拒否します。
func (e *Employee) AddSkill(s skill.Skill) error {
	if !skill.IsValid(s) {
		return ErrUnknownSkill
	}
	if e.HasSkill(s) {
		return ErrSkillAlreadyAssigned
	}
	e.Skills = append(e.Skills, s)
	return nil
}

// RemoveSkill はスキルを集合から取り除きます。未付与のスキルは拒否します。
func (e *Employee) RemoveSkill(s skill.Skill) error {
	for idx, existing := range e.Skills {
		if existing == s {
			e.Skills = append(e.Skills[:idx], e.Skills[idx+1:]...)
			return nil
		}
	}
	return ErrSkillNotAssigned
}

// Clone は Employee の深いコピーを返します。
func (e *Employee) Clone() *Employee {
	if e == nil {
		return nil
	}
	clone := *e
	clone.DeletedAt = cloneTimePtr(e.DeletedAt)
	clone.DeletedBy = cloneStringPtr(e.DeletedBy)
	if e.Skills != nil {
		clone.Skills = append([]skill.Skill(nil), e.Skills...)
	}
	if e.Educations != nil {
		clone.Educations = make([]*Education, len(e.Educations))
		for idx, ed := range e.Educations {
			copied := *ed
			clone.Educations[idx] = &copied
		}
	}
	return &clone
}

func cloneTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	clone := *t
	return &clone
}

func cloneStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}
