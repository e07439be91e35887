package directory

import (
	"errors"

	"github.com/ogurasousui/staff-directory/internal/core/skill"
)

var (
	ErrEmployeeNotFound  = errors.New("directory: employee not found")
	ErrEducationNotFound = errors.New("directory: education not found")

	ErrEmailAlreadyExists = errors.New("directory: email already exists")

	ErrInvalidID        = errors.New("directory: invalid id")
	ErrInvalidName      = errors.New("directory: invalid name")
	ErrInvalidEmail     = errors.New("directory: invalid email")
	ErrInvalidPageSize  = errors.New("directory: invalid page size")
	ErrInvalidPageIndex = errors.New("directory: invalid page index")
	ErrInvalidSortField = errors.New("directory: invalid sort field")
	ErrInvalidRating    = errors.New("directory: rating must be between 1 and 5")
	ErrInvalidYearRange = errors.New("directory: education start year exceeds end year")
	ErrUnknownSkill     = skill.ErrUnknownSkill

	ErrAlreadyArchived      = errors.New("directory: employee is not active")
	ErrNotArchived          = errors.New("directory: employee is not archived")
	ErrSkillAlreadyAssigned = errors.New("directory: skill already assigned")
	ErrSkillNotAssigned     = errors.New("directory: skill not assigned")

	ErrPhotoStoreUnavailable = errors.New("directory: photo store is not configured")
	ErrExportUnavailable     = errors.New("directory: export collaborators are not configured")
)

// Class はエラー分類です。呼び出し側はセンチネルではなく分類で扱えます。
type Class int

const (
	ClassStorage Class = iota
	ClassNotFound
	ClassDuplicate
	ClassInvalidArgument
	ClassIllegalTransition
)

// Classify はエラーを分類へ対応付けます。未分類のエラーはストレージ障害として
// 扱います。
func Classify(err error) Class {
	switch {
	case errors.Is(err, ErrEmployeeNotFound),
		errors.Is(err, ErrEducationNotFound):
		return ClassNotFound
	case errors.Is(err, ErrEmailAlreadyExists):
		return ClassDuplicate
	case errors.Is(err, ErrInvalidID),
		errors.Is(err, ErrInvalidName),
		errors.Is(err, ErrInvalidEmail),
		errors.Is(err, ErrInvalidPageSize),
		errors.Is(err, ErrInvalidPageIndex),
		errors.Is(err, ErrInvalidSortField),
		errors.Is(err, ErrInvalidRating),
		errors.Is(err, ErrInvalidYearRange),
		errors.Is(err, ErrUnknownSkill):
		return ClassInvalidArgument
	case errors.Is(err, ErrAlreadyArchived),
		errors.Is(err, ErrNotArchived),
		errors.Is(err, ErrSkillAlreadyAssigned),
		errors.Is(err, ErrSkillNotAssigned),
		errors.Is(err, ErrPhotoStoreUnavailable),
		errors.Is(err, ErrExportUnavailable):
		return ClassIllegalTransition
	default:
		return ClassStorage
	}
}
