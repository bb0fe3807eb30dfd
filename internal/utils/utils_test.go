package utils_test

import (
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"

	"github.com/SebastianInsurriaga/UpTask-Backend/internal/utils"
)

func signTestToken(t *testing.T, secret string, method jwt.SigningMethod, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestParseJWT(t *testing.T) {
	const secret = "utils-test-secret"
	userID := uuid.Must(uuid.NewV4()).String()

	t.Run("valid token round-trips claims", func(t *testing.T) {
		raw := signTestToken(t, secret, jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": userID,
			"exp":     time.Now().Add(time.Hour).Unix(),
		})

		claims, err := utils.ParseJWT(raw, secret)
		if err != nil {
			t.Fatalf("ParseJWT: %v", err)
		}
		if claims["user_id"] != userID {
			t.Errorf("user_id claim = %v, want %s", claims["user_id"], userID)
		}
	})

	t.Run("wrong secret is rejected", func(t *testing.T) {
		raw := signTestToken(t, "other-secret", jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": time.Now().Add(time.Hour).Unix(),
		})
		if _, err := utils.ParseJWT(raw, secret); err == nil {
			t.Error("expected error for token signed with a different secret")
		}
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		raw := signTestToken(t, secret, jwt.SigningMethodHS256, jwt.MapClaims{
			"exp": time.Now().Add(-time.Minute).Unix(),
		})
		if _, err := utils.ParseJWT(raw, secret); err == nil {
			t.Error("expected error for expired token")
		}
	})

	t.Run("garbage is rejected", func(t *testing.T) {
		if _, err := utils.ParseJWT("not.a.token", secret); err == nil {
			t.Error("expected error for malformed token")
		}
	})
}

func TestIsValidUUID(t *testing.T) {
	if v4 := uuid.Must(uuid.NewV4()).String(); !utils.IsValidUUID(v4) {
		t.Errorf("IsValidUUID(%q) = false, want true", v4)
	}

	for _, bad := range []string{"", "project-1", "123-456-789", "zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz"} {
		if utils.IsValidUUID(bad) {
			t.Errorf("IsValidUUID(%q) = true, want false", bad)
		}
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("UPTASK_TEST_STR", "postgres://db/uptask")

	if got := utils.GetEnv("UPTASK_TEST_STR", "fallback"); got != "postgres://db/uptask" {
		t.Errorf("set variable: got %q", got)
	}
	if got := utils.GetEnv("UPTASK_TEST_STR_MISSING", "fallback"); got != "fallback" {
		t.Errorf("unset variable: got %q, want fallback", got)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("UPTASK_TEST_INT", "8080")
	t.Setenv("UPTASK_TEST_INT_BAD", "eight thousand")

	if got := utils.GetEnvAsInt("UPTASK_TEST_INT", 3000); got != 8080 {
		t.Errorf("valid int: got %d, want 8080", got)
	}
	if got := utils.GetEnvAsInt("UPTASK_TEST_INT_BAD", 3000); got != 3000 {
		t.Errorf("invalid int: got %d, want fallback 3000", got)
	}
	if got := utils.GetEnvAsInt("UPTASK_TEST_INT_MISSING", 3000); got != 3000 {
		t.Errorf("unset int: got %d, want fallback 3000", got)
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("UPTASK_TEST_DUR", "45s")
	t.Setenv("UPTASK_TEST_DUR_BAD", "later")

	if got := utils.GetEnvAsDuration("UPTASK_TEST_DUR", time.Minute); got != 45*time.Second {
		t.Errorf("valid duration: got %v, want 45s", got)
	}
	if got := utils.GetEnvAsDuration("UPTASK_TEST_DUR_BAD", time.Minute); got != time.Minute {
		t.Errorf("invalid duration: got %v, want fallback 1m", got)
	}
	if got := utils.GetEnvAsDuration("UPTASK_TEST_DUR_MISSING", time.Minute); got != time.Minute {
		t.Errorf("unset duration: got %v, want fallback 1m", got)
	}
}
