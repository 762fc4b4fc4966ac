package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFileMissing(t *testing.T) {
	if err := loadEnvFile(filepath.Join(t.TempDir(), "absent.env")); err != nil {
		t.Fatalf("缺失的 .env 应被忽略: %v", err)
	}
	if err := loadEnvFile(""); err != nil {
		t.Fatalf("空路径应被忽略: %v", err)
	}
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	if err := os.WriteFile(path, []byte("TRUMPWATCH_TEST_KEY=abc123\n"), 0o600); err != nil {
		t.Fatalf("写入 .env 失败: %v", err)
	}
	t.Setenv("TRUMPWATCH_TEST_KEY", "")
	os.Unsetenv("TRUMPWATCH_TEST_KEY")

	if err := loadEnvFile(path); err != nil {
		t.Fatalf("加载 .env 失败: %v", err)
	}
	if got := os.Getenv("TRUMPWATCH_TEST_KEY"); got != "abc123" {
		t.Fatalf("环境变量未加载: %q", got)
	}
}
