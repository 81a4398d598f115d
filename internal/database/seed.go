package database

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/edgard/weatherscent/internal/model"
)

func strPtr(s string) *string { return &s }

// SamplePerfumes returns the catalog every fresh in-memory store starts with.
func SamplePerfumes() []model.Perfume {
	return []model.Perfume{
		{
			Name:        "Chance Eau Tendre",
			Brand:       "CHANEL",
			Category:    "프레시",
			Notes:       model.StringList{"그레이프후르츠", "자스민", "화이트머스크"},
			Description: strPtr("상쾌한 시트러스가 산뜻함을 주고, 은은한 플로럴 노트가 우아함을 더해줍니다."),
			Image:       strPtr("https://images.unsplash.com/photo-1592945403244-b3fbafd7f539?ixlib=rb-4.0.3&auto=format&fit=crop&w=400&h=500"),
			Rating:      48,
			Views:       1200,
		},
		{
			Name:        "Neroli Portofino",
			Brand:       "TOM FORD",
			Category:    "우디",
			Notes:       model.StringList{"네롤리", "베르가못", "앰버"},
			Description: strPtr("지중해의 따뜻한 햇살을 담은 럭셔리한 향입니다."),
			Image:       strPtr("https://images.unsplash.com/photo-1563170351-be82bc888aa4?ixlib=rb-4.0.3&auto=format&fit=crop&w=400&h=500"),
			Rating:      46,
			Views:       856,
		},
		{
			Name:        "English Pear & Freesia",
			Brand:       "JO MALONE",
			Category:    "플로럴",
			Notes:       model.StringList{"배", "프리지아", "패출리"},
			Description: strPtr("영국 정원의 우아한 분위기를 담은 향수입니다."),
			Image:       strPtr("https://images.unsplash.com/photo-1541643600914-78b084683601?ixlib=rb-4.0.3&auto=format&fit=crop&w=400&h=500"),
			Rating:      49,
			Views:       2100,
		},
	}
}

// seedPerfumes extends the sample catalog for persistent databases.
func seedPerfumes() []model.Perfume {
	return append(SamplePerfumes(),
		model.Perfume{
			Name:        "Black Opium",
			Brand:       "YVES SAINT LAURENT",
			Category:    "오리엔탈",
			Notes:       model.StringList{"블랙커피", "바닐라", "화이트플라워"},
			Description: strPtr("중독적인 커피 향과 달콤한 바닐라가 조화를 이룹니다."),
			Image:       strPtr("https://images.unsplash.com/photo-1588405748880-12d1d2a59db9?ixlib=rb-4.0.3&auto=format&fit=crop&w=400&h=500"),
			Rating:      47,
			Views:       1840,
		},
		model.Perfume{
			Name:        "Flowerbomb",
			Brand:       "VIKTOR & ROLF",
			Category:    "플로럴",
			Notes:       model.StringList{"자스민", "프리지아", "로즈"},
			Description: strPtr("화려한 꽃다발이 폭발하는 듯한 강렬한 플로럴 향수입니다."),
			Image:       strPtr("https://images.unsplash.com/photo-1594736797933-d0501ba2fe65?ixlib=rb-4.0.3&auto=format&fit=crop&w=400&h=500"),
			Rating:      45,
			Views:       1560,
		},
	)
}

// DemoUser is the account created by Seed.
func DemoUser() model.User {
	return model.User{Username: "demo_user", Email: "demo@weatherscent.com"}
}

// SeedResult reports what Seed inserted.
type SeedResult struct {
	PerfumesCreated int
	UserCreated     bool
}

// Seed inserts the sample catalog and the demo user. Perfumes already
// present by name and brand, and an existing demo email, are skipped.
func Seed(ctx context.Context, store Store, logger *slog.Logger) (SeedResult, error) {
	var res SeedResult
	for _, p := range seedPerfumes() {
		existing, err := store.FindPerfume(ctx, p.Name, p.Brand)
		if err != nil {
			return res, fmt.Errorf("failed to look up perfume %q: %w", p.Name, err)
		}
		if existing != nil {
			continue
		}
		if _, err := store.CreatePerfume(ctx, &p); err != nil {
			return res, fmt.Errorf("failed to seed perfume %q: %w", p.Name, err)
		}
		res.PerfumesCreated++
	}

	demo := DemoUser()
	existing, err := store.GetUserByEmail(ctx, demo.Email)
	if err != nil {
		return res, fmt.Errorf("failed to look up demo user: %w", err)
	}
	if existing == nil {
		if _, err := store.CreateUser(ctx, &demo); err != nil {
			return res, fmt.Errorf("failed to seed demo user: %w", err)
		}
		res.UserCreated = true
	}

	logger.InfoContext(ctx, "Seed completed", "perfumes_created", res.PerfumesCreated, "demo_user_created", res.UserCreated)
	return res, nil
}
