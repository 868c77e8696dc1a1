package db

import (
	"context"
	"strings"
	"testing"

	"pathforge/internal/config"
)

func TestNewPoolRejectsBadURL(t *testing.T) {
	_, err := NewPool(context.Background(), &config.Config{DatabaseURL: "postgres://%zz"})
	if err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSchemaUsesNineDimensionVector(t *testing.T) {
	joined := strings.Join(schemaStatements, "\n")
	if !strings.Contains(joined, "vector(9)") || !strings.Contains(joined, "IF NOT EXISTS assessment_reports") {
		t.Fatalf("unexpected schema: %s", joined)
	}
}
