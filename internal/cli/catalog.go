package cli

import (
	_ "embed"
	"fmt"

	"knotquiz/internal/domain"
	"knotquiz/internal/infra/memory"
)

//go:embed knots.yaml
var builtinCatalog []byte

// sampleQuizzes is the built-in knot tutorial catalog; swap this loader with
// a Postgres-backed one in production.
func sampleQuizzes() map[string]domain.Quiz {
	quizzes, err := memory.ParseCatalog(builtinCatalog, ".yaml")
	if err != nil {
		panic(fmt.Sprintf("built-in catalog: %v", err))
	}
	return quizzes
}

func loadCatalog(seedFile string) (map[string]domain.Quiz, error) {
	if seedFile == "" {
		return sampleQuizzes(), nil
	}
	return memory.LoadCatalogFile(seedFile)
}
