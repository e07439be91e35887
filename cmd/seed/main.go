package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"strings"

	"github.com/google/uuid"
	repo "github.com/ogurasousui/staff-directory/internal/adapters/repository/postgres"
	"github.com/ogurasousui/staff-directory/internal/core/directory"
	"github.com/ogurasousui/staff-directory/internal/core/skill"
	"github.com/ogurasousui/staff-directory/internal/platform/config"
	pg "github.com/ogurasousui/staff-directory/internal/platform/db/postgres"
)

var (
	firstNames  = []string{"Taro", "Hanako", "Ichiro", "Yuki", "Sakura", "Kenta", "Aoi", "Ren"}
	lastNames   = []string{"Yamada", "Sato", "Suzuki", "Takahashi", "Tanaka", "Watanabe", "Ito"}
	departments = []string{"Engineering", "Design", "Sales", "Support"}
	positions   = []string{"Engineer", "Senior Engineer", "Designer", "Manager"}
	schools     = []string{"Tokyo University", "Kyoto University", "Osaka University", "Waseda University"}
)

func main() {
	var n int
	flag.IntVar(&n, "n", 10, "number of employees to insert")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "assets/local.yaml"
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	pool, err := pg.NewPool(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	svc := directory.NewService(
		repo.NewEmployeeRepository(pool),
		nil,
		pg.NewTransactionManager(pool),
		directory.Collaborators{},
	)

	if err := seed(ctx, svc, n, logger); err != nil {
		logger.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("seed completed", slog.Int("employees", n))
}

func seed(ctx context.Context, svc directory.UseCase, n int, logger *slog.Logger) error {
	vocabulary := skill.All()

	for i := 0; i < n; i++ {
		first := firstNames[rand.Intn(len(firstNames))]
		last := lastNames[rand.Intn(len(lastNames))]

		// uuid で採番してメールアドレスの衝突を避ける。
		local := fmt.Sprintf("%s.%s.%s", strings.ToLower(first), strings.ToLower(last), uuid.NewString()[:8])

		skillNames := make([]string, 0, 3)
		for _, idx := range rand.Perm(len(vocabulary))[:1+rand.Intn(3)] {
			skillNames = append(skillNames, string(vocabulary[idx]))
		}

		emp, err := svc.CreateEmployee(ctx, directory.CreateEmployeeInput{
			Name:       fmt.Sprintf("%s %s", last, first),
			Email:      local + "@example.com",
			Phone:      fmt.Sprintf("080-%04d-%04d", rand.Intn(10000), rand.Intn(10000)),
			Department: departments[rand.Intn(len(departments))],
			Position:   positions[rand.Intn(len(positions))],
			School:     schools[rand.Intn(len(schools))],
			SkillNames: skillNames,
		})
		if err != nil {
			return fmt.Errorf("create employee: %w", err)
		}

		start := 2005 + rand.Intn(15)
		if _, err := svc.AddEducation(ctx, directory.AddEducationInput{
			EmployeeID:  emp.ID,
			StartYear:   start,
			EndYear:     start + 4,
			Institution: emp.School,
			Degree:      "Bachelor",
		}); err != nil {
			return fmt.Errorf("add education: %w", err)
		}

		if _, err := svc.AddReview(ctx, directory.AddReviewInput{
			EmployeeID: emp.ID,
			Rating:     1 + rand.Intn(5),
			Comment:    "seeded review",
		}); err != nil {
			return fmt.Errorf("add review: %w", err)
		}

		// 一部をアーカイブしてアーカイブビューの動作確認に使えるようにする。
		if i%10 == 9 {
			if _, err := svc.ArchiveEmployee(ctx, emp.ID, nil); err != nil {
				return fmt.Errorf("archive employee: %w", err)
			}
		}

		logger.Info("employee inserted", slog.Int64("id", emp.ID), slog.String("email", emp.Email))
	}

	return nil
}
