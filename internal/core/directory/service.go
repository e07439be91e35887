package directory

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/ogurasousui/staff-directory/internal/core/skill"
)

// Clock は現在時刻を提供します。
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now().UTC()
}

// TransactionManager はトランザクション制御の抽象化です。
type TransactionManager interface {
	WithinReadOnly(ctx context.Context, fn func(context.Context) error) error
	WithinReadWrite(ctx context.Context, fn func(context.Context) error) error
}

type noopTransactionManager struct{}

func (noopTransactionManager) WithinReadOnly(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

func (noopTransactionManager) WithinReadWrite(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

const maxListPageSize = 200

// Collaborators は名簿コアが利用する外部コラボレーターの束です。未設定の
// コラボレーターを要するオペレーションは失敗します。
type Collaborators struct {
	Photos    PhotoStore
	Documents DocumentGenerator
	Mailer    Mailer
}

// Service は社員名簿に関するユースケースをまとめます。アーカイブ状態機械の
// 適用と、複数エンティティにまたがる不変条件の強制は本サービスが担います。
type Service struct {
	repo   Repository
	clock  Clock
	tx     TransactionManager
	collab Collaborators
}

// UseCase は社員名簿ユースケースの公開インターフェースです。
type UseCase interface {
	CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error)
	GetEmployee(ctx context.Context, id int64) (*Employee, error)
	GetArchivedEmployee(ctx context.Context, id int64) (*Employee, error)
	ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error)
	UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error)
	ArchiveEmployee(ctx context.Context, id int64, actor *string) (*Employee, error)
	RestoreEmployee(ctx context.Context, id int64) (*Employee, error)
	PurgeEmployee(ctx context.Context, id int64) error
	CountEmployees(ctx context.Context) (int, error)
	CountActiveEmployees(ctx context.Context) (int, error)
	ExistsActiveEmployee(ctx context.Context, id int64) (bool, error)
	DistinctValues(ctx context.Context, field string) ([]string, error)
	AddSkill(ctx context.Context, id int64, skillName string) (*Employee, error)
	RemoveSkill(ctx context.Context, id int64, skillName string) (*Employee, error)
	AddEducation(ctx context.Context, in AddEducationInput) (*Education, error)
	RemoveEducation(ctx context.Context, employeeID, educationID int64) error
	ListEducations(ctx context.Context, employeeID int64) ([]*Education, error)
	AddReview(ctx context.Context, in AddReviewInput) (*Review, error)
	ListReviews(ctx context.Context, employeeID int64) ([]*Review, error)
	UpdateEmployeePhoto(ctx context.Context, id int64, data []byte) (*Employee, error)
	ExportEmployee(ctx context.Context, id int64, recipient string) error
}

// NewService は Service を生成します。
func NewService(repo Repository, clock Clock, tx TransactionManager, collab Collaborators) *Service {
	if clock == nil {
		clock = realClock{}
	}
	if tx == nil {
		tx = noopTransactionManager{}
	}
	return &Service{repo: repo, clock: clock, tx: tx, collab: collab}
}

// CreateEmployeeInput は社員作成時の入力です。
type CreateEmployeeInput struct {
	Name       string
	Email      string
	Phone      string
	Department string
	Position   string
	School     string
	SkillNames []string
}

// UpdateEmployeeInput は社員更新時の入力です。nil のフィールドは変更されません。
type UpdateEmployeeInput struct {
	ID         int64
	Name       *string
	Email      *string
	Phone      *string
	Department *string
	Position   *string
	School     *string
}

// ListEmployeesInput は一覧取得時の入力です。
type ListEmployeesInput struct {
	Name       string
	Email      string
	Phone      string
	Department string
	Position   string
	SkillName  string
	SortField  string
	Descending bool
	PageIndex  int
	PageSize   int
	Archived   bool
}

// ListEmployeesResult は一覧取得結果です。TotalCount はページ適用前の件数です。
type ListEmployeesResult struct {
	Employees  []*Employee
	TotalCount int
}

// AddEducationInput は学歴追加時の入力です。
type AddEducationInput struct {
	EmployeeID  int64
	StartYear   int
	EndYear     int
	Institution string
	Degree      string
}

// AddReviewInput は評価追加時の入力です。作成時刻はサーバー側で設定されます。
type AddReviewInput struct {
	EmployeeID int64
	Rating     int
	Comment    string
}

// CreateEmployee は新しい社員を作成します。メールアドレスは未パージの社員間で
// 一意でなければなりません。
func (s *Service) CreateEmployee(ctx context.Context, in CreateEmployeeInput) (*Employee, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrInvalidName
	}

	email, err := normalizeEmail(in.Email)
	if err != nil {
		return nil, err
	}

	skills, err := resolveSkillNames(in.SkillNames)
	if err != nil {
		return nil, err
	}

	var created *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if err := s.ensureEmailNotExists(txCtx, email, 0); err != nil {
			return err
		}

		now := s.clock.Now()
		emp := &Employee{
			Name:       name,
			Email:      email,
			Phone:      strings.TrimSpace(in.Phone),
			Department: strings.TrimSpace(in.Department),
			Position:   strings.TrimSpace(in.Position),
			School:     strings.TrimSpace(in.School),
			Skills:     skills,
			State:      StateActive,
			CreatedAt:  now,
			UpdatedAt:  now,
		}

		result, err := s.repo.Create(txCtx, emp)
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// GetEmployee は稼働中の社員を取得します。アーカイブ済み・パージ済みは
// 対象外です。
func (s *Service) GetEmployee(ctx context.Context, id int64) (*Employee, error) {
	return s.findByID(ctx, id, ViewActive)
}

// GetArchivedEmployee はアーカイブビューで社員を取得します。
func (s *Service) GetArchivedEmployee(ctx context.Context, id int64) (*Employee, error) {
	return s.findByID(ctx, id, ViewArchived)
}

func (s *Service) findByID(ctx context.Context, id int64, view View) (*Employee, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	var result *Employee
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		found, err := s.repo.FindByID(txCtx, id, view)
		if err != nil {
			return err
		}
		result = found
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// ListEmployees は条件に合致する社員の 1 ページ分と総件数を返します。
func (s *Service) ListEmployees(ctx context.Context, in ListEmployeesInput) (*ListEmployeesResult, error) {
	if in.PageSize <= 0 || in.PageSize > maxListPageSize {
		return nil, ErrInvalidPageSize
	}
	if in.PageIndex < 0 {
		return nil, ErrInvalidPageIndex
	}

	sortField := FieldName
	if in.SortField != "" {
		parsed, err := ParseField(in.SortField)
		if err != nil {
			return nil, err
		}
		sortField = parsed
	}

	filter := Filter{
		Name:       strings.TrimSpace(in.Name),
		Email:      strings.TrimSpace(in.Email),
		Phone:      strings.TrimSpace(in.Phone),
		Department: strings.TrimSpace(in.Department),
		Position:   strings.TrimSpace(in.Position),
	}
	if strings.TrimSpace(in.SkillName) != "" {
		resolved, err := skill.Resolve(in.SkillName)
		if err != nil {
			return nil, err
		}
		filter.Skill = resolved
	}

	view := ViewActive
	if in.Archived {
		view = ViewArchived
	}

	query := ListQuery{
		Filter:    filter,
		Sort:      Sort{Field: sortField, Descending: in.Descending},
		View:      view,
		PageIndex: in.PageIndex,
		PageSize:  in.PageSize,
	}

	var (
		employees []*Employee
		total     int
	)
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, count, err := s.repo.List(txCtx, query)
		if err != nil {
			return err
		}
		employees = result
		total = count
		return nil
	}); err != nil {
		return nil, err
	}

	return &ListEmployeesResult{Employees: employees, TotalCount: total}, nil
}

// UpdateEmployee は社員の属性を更新します。パージ済みレコードは物理的に
// 存在しないため、更新による復活は起こり得ません。
func (s *Service) UpdateEmployee(ctx context.Context, in UpdateEmployeeInput) (*Employee, error) {
	if in.ID <= 0 {
		return nil, ErrInvalidID
	}

	var updated *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, in.ID, ViewAny)
		if err != nil {
			return err
		}

		if in.Name != nil {
			name := strings.TrimSpace(*in.Name)
			if name == "" {
				return ErrInvalidName
			}
			existing.Name = name
		}

		if in.Email != nil {
			email, err := normalizeEmail(*in.Email)
			if err != nil {
				return err
			}
			if email != existing.Email {
				if err := s.ensureEmailNotExists(txCtx, email, existing.ID); err != nil {
					return err
				}
				existing.Email = email
			}
		}

		if in.Phone != nil {
			existing.Phone = strings.TrimSpace(*in.Phone)
		}
		if in.Department != nil {
			existing.Department = strings.TrimSpace(*in.Department)
		}
		if in.Position != nil {
			existing.Position = strings.TrimSpace(*in.Position)
		}
		if in.School != nil {
			existing.School = strings.TrimSpace(*in.School)
		}

		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}
		updated = result
		return nil
	}); err != nil {
		return nil, err
	}

	return updated, nil
}

// ArchiveEmployee は社員をアーカイブします。稼働中の社員のみが対象です。
func (s *Service) ArchiveEmployee(ctx context.Context, id int64, actor *string) (*Employee, error) {
	return s.transition(ctx, id, func(e *Employee, now time.Time) error {
		return e.Archive(now, actor)
	})
}

// RestoreEmployee はアーカイブ済みの社員を稼働状態へ戻します。
func (s *Service) RestoreEmployee(ctx context.Context, id int64) (*Employee, error) {
	return s.transition(ctx, id, func(e *Employee, now time.Time) error {
		return e.Restore(now)
	})
}

func (s *Service) transition(ctx context.Context, id int64, apply func(*Employee, time.Time) error) (*Employee, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	var result *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id, ViewAny)
		if err != nil {
			return err
		}

		if err := apply(existing, s.clock.Now()); err != nil {
			return err
		}

		updated, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}
		result = updated
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// PurgeEmployee はアーカイブ済みの社員を学歴・評価ごと完全に削除します。
// この操作は不可逆で、アーカイブを経由しない直接のパージは拒否されます。
func (s *Service) PurgeEmployee(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}

	var photoPath string
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id, ViewAny)
		if err != nil {
			return err
		}
		if err := existing.EnsurePurgeable(); err != nil {
			return err
		}
		photoPath = existing.PhotoPath
		return s.repo.Purge(txCtx, id)
	}); err != nil {
		return err
	}

	// レコードは既に消えているため、写真削除の失敗でパージを巻き戻さない。
	if photoPath != "" && s.collab.Photos != nil {
		_ = s.collab.Photos.Delete(ctx, photoPath)
	}
	return nil
}

// CountEmployees は未パージの社員数を返します。
func (s *Service) CountEmployees(ctx context.Context) (int, error) {
	return s.count(ctx, ViewAny)
}

// CountActiveEmployees は稼働中の社員数を返します。
func (s *Service) CountActiveEmployees(ctx context.Context) (int, error) {
	return s.count(ctx, ViewActive)
}

func (s *Service) count(ctx context.Context, view View) (int, error) {
	var total int
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		count, err := s.repo.Count(txCtx, view)
		if err != nil {
			return err
		}
		total = count
		return nil
	}); err != nil {
		return 0, err
	}
	return total, nil
}

// ExistsActiveEmployee は稼働中の社員が存在するかを返します。
func (s *Service) ExistsActiveEmployee(ctx context.Context, id int64) (bool, error) {
	_, err := s.findByID(ctx, id, ViewActive)
	if errors.Is(err, ErrEmployeeNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// DistinctValues は稼働中の社員の department / position / school の一意な値を
// 昇順で返します。
func (s *Service) DistinctValues(ctx context.Context, field string) ([]string, error) {
	parsed, err := ParseField(field)
	if err != nil {
		return nil, err
	}
	switch parsed {
	case FieldDepartment, FieldPosition, FieldSchool:
	default:
		return nil, ErrInvalidSortField
	}

	var values []string
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.DistinctValues(txCtx, parsed)
		if err != nil {
			return err
		}
		values = result
		return nil
	}); err != nil {
		return nil, err
	}
	return values, nil
}

// AddSkill は語彙に解決したスキルを社員へ付与します。解決できない名前は
// 変更なしで拒否されます。
func (s *Service) AddSkill(ctx context.Context, id int64, skillName string) (*Employee, error) {
	return s.mutateSkill(ctx, id, skillName, (*Employee).AddSkill)
}

// RemoveSkill は社員からスキルを取り除きます。
func (s *Service) RemoveSkill(ctx context.Context, id int64, skillName string) (*Employee, error) {
	return s.mutateSkill(ctx, id, skillName, (*Employee).RemoveSkill)
}

func (s *Service) mutateSkill(ctx context.Context, id int64, skillName string, apply func(*Employee, skill.Skill) error) (*Employee, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}

	resolved, err := skill.Resolve(skillName)
	if err != nil {
		return nil, err
	}

	var result *Employee
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id, ViewAny)
		if err != nil {
			return err
		}

		if err := apply(existing, resolved); err != nil {
			return err
		}
		existing.UpdatedAt = s.clock.Now()

		updated, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}
		result = updated
		return nil
	}); err != nil {
		return nil, err
	}

	return result, nil
}

// AddEducation は社員に学歴を追加します。
func (s *Service) AddEducation(ctx context.Context, in AddEducationInput) (*Education, error) {
	if in.EmployeeID <= 0 {
		return nil, ErrInvalidID
	}
	if in.StartYear > in.EndYear {
		return nil, ErrInvalidYearRange
	}

	var created *Education
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.FindByID(txCtx, in.EmployeeID, ViewAny); err != nil {
			return err
		}

		result, err := s.repo.AddEducation(txCtx, &Education{
			EmployeeID:  in.EmployeeID,
			StartYear:   in.StartYear,
			EndYear:     in.EndYear,
			Institution: strings.TrimSpace(in.Institution),
			Degree:      strings.TrimSpace(in.Degree),
		})
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// RemoveEducation は社員から学歴を取り除きます。
func (s *Service) RemoveEducation(ctx context.Context, employeeID, educationID int64) error {
	if employeeID <= 0 || educationID <= 0 {
		return ErrInvalidID
	}

	return s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		return s.repo.RemoveEducation(txCtx, employeeID, educationID)
	})
}

// ListEducations は社員の学歴を返します。パージ済み社員は学歴も残りません。
func (s *Service) ListEducations(ctx context.Context, employeeID int64) ([]*Education, error) {
	if employeeID <= 0 {
		return nil, ErrInvalidID
	}

	var educations []*Education
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.ListEducations(txCtx, employeeID)
		if err != nil {
			return err
		}
		educations = result
		return nil
	}); err != nil {
		return nil, err
	}
	return educations, nil
}

// AddReview は社員への評価を追加します。評価対象の社員が存在しない場合は
// 失敗します。
func (s *Service) AddReview(ctx context.Context, in AddReviewInput) (*Review, error) {
	if in.EmployeeID <= 0 {
		return nil, ErrInvalidID
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, ErrInvalidRating
	}

	var created *Review
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		if _, err := s.repo.FindByID(txCtx, in.EmployeeID, ViewAny); err != nil {
			return err
		}

		result, err := s.repo.AddReview(txCtx, &Review{
			EmployeeID: in.EmployeeID,
			Rating:     in.Rating,
			Comment:    strings.TrimSpace(in.Comment),
			CreatedAt:  s.clock.Now(),
		})
		if err != nil {
			return err
		}
		created = result
		return nil
	}); err != nil {
		return nil, err
	}

	return created, nil
}

// ListReviews は社員への評価を新しい順で返します。
func (s *Service) ListReviews(ctx context.Context, employeeID int64) ([]*Review, error) {
	if employeeID <= 0 {
		return nil, ErrInvalidID
	}

	var reviews []*Review
	if err := s.tx.WithinReadOnly(ctx, func(txCtx context.Context) error {
		result, err := s.repo.ListReviews(txCtx, employeeID)
		if err != nil {
			return err
		}
		reviews = result
		return nil
	}); err != nil {
		return nil, err
	}
	return reviews, nil
}

// UpdateEmployeePhoto は写真をコラボレーターへ保管し、参照を社員に記録します。
func (s *Service) UpdateEmployeePhoto(ctx context.Context, id int64, data []byte) (*Employee, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	if s.collab.Photos == nil {
		return nil, ErrPhotoStoreUnavailable
	}

	reference, err := s.collab.Photos.Store(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("directory: store photo: %w", err)
	}

	var (
		previous string
		updated  *Employee
	)
	if err := s.tx.WithinReadWrite(ctx, func(txCtx context.Context) error {
		existing, err := s.repo.FindByID(txCtx, id, ViewAny)
		if err != nil {
			return err
		}

		previous = existing.PhotoPath
		existing.PhotoPath = reference
		existing.UpdatedAt = s.clock.Now()

		result, err := s.repo.Update(txCtx, existing)
		if err != nil {
			return err
		}
		updated = result
		return nil
	}); err != nil {
		// 参照が記録できなかった場合、保管済みの写真は孤児になるため回収する。
		_ = s.collab.Photos.Delete(ctx, reference)
		return nil, err
	}

	if previous != "" && previous != reference {
		_ = s.collab.Photos.Delete(ctx, previous)
	}
	return updated, nil
}

// ExportEmployee は社員プロフィール文書を生成し、宛先へ送付します。
func (s *Service) ExportEmployee(ctx context.Context, id int64, recipient string) error {
	if id <= 0 {
		return ErrInvalidID
	}
	if s.collab.Documents == nil || s.collab.Mailer == nil {
		return ErrExportUnavailable
	}

	recipientEmail, err := normalizeEmail(recipient)
	if err != nil {
		return err
	}

	emp, err := s.findByID(ctx, id, ViewAny)
	if err != nil {
		return err
	}

	document, err := s.collab.Documents.GenerateProfile(emp)
	if err != nil {
		return fmt.Errorf("directory: generate profile: %w", err)
	}

	subject := fmt.Sprintf("Employee profile: %s", emp.Name)
	if err := s.collab.Mailer.Send(ctx, recipientEmail, subject, document); err != nil {
		return fmt.Errorf("directory: send profile: %w", err)
	}
	return nil
}

func (s *Service) ensureEmailNotExists(ctx context.Context, email string, selfID int64) error {
	existing, err := s.repo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, ErrEmployeeNotFound) {
		return err
	}
	if existing != nil && existing.ID != selfID {
		return ErrEmailAlreadyExists
	}
	return nil
}

func normalizeEmail(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrInvalidEmail
	}

	addr, err := mail.ParseAddress(trimmed)
	if err != nil {
		return "", ErrInvalidEmail
	}

	return strings.ToLower(addr.Address), nil
}

func resolveSkillNames(names []string) ([]skill.Skill, error) {
	if len(names) == 0 {
		return nil, nil
	}

	skills := make([]skill.Skill, 0, len(names))
	for _, name := range names {
		resolved, err := skill.Resolve(name)
		if err != nil {
			return nil, err
		}
		duplicate := false
		for _, existing := range skills {
			if existing == resolved {
				duplicate = true
				break
			}
		}
		if !duplicate {
			skills = append(skills, resolved)
		}
	}
	return skills, nil
}
