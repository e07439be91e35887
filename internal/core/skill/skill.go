package skill

import (
	"errors"
	"sort"
	"strings"
)

// Skill は社内で扱う技術スキルの識別子です。語彙は本パッケージで閉じています。
type Skill string

// Category はスキルの分類を表します。各スキルはちょうど 1 つのカテゴリに属します。
type Category string

const (
	CategoryBackend  Category = "Backend"
	CategoryFrontend Category = "Frontend"
	CategoryDevOps   Category = "DevOps"
	CategoryTools    Category = "Tools"
	CategoryTesting  Category = "Testing"
)

const (
	Go         Skill = "go"
	Java       Skill = "java"
	Kotlin     Skill = "kotlin"
	Python     Skill = "python"
	PostgreSQL Skill = "postgresql"
	Redis      Skill = "redis"
	GRPC       Skill = "grpc"

	TypeScript Skill = "typescript"
	JavaScript Skill = "javascript"
	React      Skill = "react"
	Vue        Skill = "vue"
	HTMLCSS    Skill = "html-css"

	Docker     Skill = "docker"
	Kubernetes Skill = "kubernetes"
	Terraform  Skill = "terraform"
	AWS        Skill = "aws"
	Linux      Skill = "linux"

	Git     Skill = "git"
	Jira    Skill = "jira"
	Figma   Skill = "figma"
	Excel   Skill = "excel"

	UnitTesting Skill = "unit-testing"
	Selenium    Skill = "selenium"
	LoadTesting Skill = "load-testing"
)

// ErrUnknownSkill は語彙に存在しないスキル名が指定された場合に返却されます。
var ErrUnknownSkill = errors.New("skill: unknown skill")

type definition struct {
	label    string
	category Category
}

var definitions = map[Skill]definition{
	Go:         {label: "Go", category: CategoryBackend},
	Java:       {label: "Java", category: CategoryBackend},
	Kotlin:     {label: "Kotlin", category: CategoryBackend},
	Python:     {label: "Python", category: CategoryBackend},
	PostgreSQL: {label: "PostgreSQL", category: CategoryBackend},
	Redis:      {label: "Redis", category: CategoryBackend},
	GRPC:       {label: "gRPC", category: CategoryBackend},

	TypeScript: {label: "TypeScript", category: CategoryFrontend},
	JavaScript: {label: "JavaScript", category: CategoryFrontend},
	React:      {label: "React", category: CategoryFrontend},
	Vue:        {label: "Vue", category: CategoryFrontend},
	HTMLCSS:    {label: "HTML/CSS", category: CategoryFrontend},

	Docker:     {label: "Docker", category: CategoryDevOps},
	Kubernetes: {label: "Kubernetes", category: CategoryDevOps},
	Terraform:  {label: "Terraform", category: CategoryDevOps},
	AWS:        {label: "AWS", category: CategoryDevOps},
	Linux:      {label: "Linux", category: CategoryDevOps},

	Git:   {label: "Git", category: CategoryTools},
	Jira:  {label: "Jira", category: CategoryTools},
	Figma: {label: "Figma", category: CategoryTools},
	Excel: {label: "Excel", category: CategoryTools},

	UnitTesting: {label: "Unit Testing", category: CategoryTesting},
	Selenium:    {label: "Selenium", category: CategoryTesting},
	LoadTesting: {label: "Load Testing", category: CategoryTesting},
}

// byNormalized は正規化済み名称および表示ラベルからの逆引き索引です。
var byNormalized = buildIndex()

func buildIndex() map[string]Skill {
	index := make(map[string]Skill, len(definitions)*2)
	for s, def := range definitions {
		index[normalize(string(s))] = s
		index[normalize(def.label)] = s
	}
	return index
}

func normalize(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	replacer := strings.NewReplacer(" ", "", "-", "", "_", "", "/", "", ".", "")
	return replacer.Replace(lower)
}

// Resolve はスキル名を語彙に解決します。完全一致、正規化一致、表示ラベル一致の
// 順で照合し、どれにも該当しない場合は ErrUnknownSkill を返します。
func Resolve(name string) (Skill, error) {
	if s := Skill(name); IsValid(s) {
		return s, nil
	}

	normalized := normalize(name)
	if normalized == "" {
		return "", ErrUnknownSkill
	}
	if s, ok := byNormalized[normalized]; ok {
		return s, nil
	}
	return "", ErrUnknownSkill
}

// IsValid は語彙に定義済みのスキルかどうかを返します。
func IsValid(s Skill) bool {
	_, ok := definitions[s]
	return ok
}

// Label はスキルの表示ラベルを返します。未定義のスキルは空文字を返します。
func Label(s Skill) string {
	return definitions[s].label
}

// CategoryOf はスキルの属するカテゴリを返します。
func CategoryOf(s Skill) (Category, error) {
	def, ok := definitions[s]
	if !ok {
		return "", ErrUnknownSkill
	}
	return def.category, nil
}

// Categories はすべてのカテゴリを定義順で返します。
func Categories() []Category {
	return []Category{
		CategoryBackend,
		CategoryFrontend,
		CategoryDevOps,
		CategoryTools,
		CategoryTesting,
	}
}

// ByCategory は指定カテゴリに属するスキルを名前昇順で返します。
func ByCategory(category Category) []Skill {
	var skills []Skill
	for s, def := range definitions {
		if def.category == category {
			skills = append(skills, s)
		}
	}
	sort.Slice(skills, func(i, j int) bool { return skills[i] < skills[j] })
	return skills
}

// All は語彙に含まれる全スキルを名前昇順で返します。
func All() []Skill {
	skills := make([]Skill, 0, len(definitions))
	for s := range definitions {
		skills = append(skills, s)
	}
	sort.Slice(skills, func(i, j int) bool { return skills[i] < skills[j] })
	return skills
}
