package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/dshills/critic/internal/completion"
	"github.com/dshills/critic/internal/config"
	"github.com/dshills/critic/internal/logging"
	"github.com/dshills/critic/internal/providers"
	"github.com/dshills/critic/internal/review"
)

// resetFlags resets all package-level flag variables to their defaults.
func resetFlags() {
	flagEnvFile = ""
	flagVerbose = false
	flagProvider = ""
	flagModel = ""
	flagListen = ""
	flagLanguage = ""
	flagFormat = ""
	flagOut = ""
	flagNoRedact = false
	flagNoCache = false
	flagTimeout = 0
	flagRetries = -1
}

// isolate points config, cache and credentials at empty locations.
func isolate(t *testing.T) string {
	t.Helper()
	resetFlags()
	logger = logging.Discard()
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	t.Setenv("XDG_CACHE_HOME", filepath.Join(dir, "cache"))
	for _, k := range []string{
		"CRITIC_PROVIDER", "CRITIC_MODEL", "CRITIC_FORMAT", "CRITIC_LISTEN", "PORT",
		"CRITIC_ALLOWED_ORIGINS", "CRITIC_MAX_CODE_BYTES", "CRITIC_MAX_TOKENS",
		"CRITIC_RETRY_ATTEMPTS", "CRITIC_RETRY_INITIAL_DELAY_MS", "CRITIC_RETRY_ATTEMPT_TIMEOUT_MS",
		"CRITIC_CACHE_TTL_SECONDS", "CRITIC_CACHE_DIR", "CRITIC_CACHE_ENABLED", "CRITIC_TEMPERATURE",
		"GEMINI_API_KEY", "GOOGLE_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY",
	} {
		t.Setenv(k, "")
	}
	// Retries in CLI tests must not sleep.
	t.Setenv("CRITIC_RETRY_INITIAL_DELAY_MS", "1")
	return dir
}

// execute runs the command tree with args and returns stdout, stderr and the
// exit code.
func execute(t *testing.T, stdin string, args ...string) (string, string, int) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetIn(strings.NewReader(stdin))
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetIn(nil)
	})
	code := run(append([]string{"--env-file", ""}, args...))
	return out.String(), errOut.String(), code
}

type stubGenerator struct {
	mu    sync.Mutex
	text  string
	errs  []error
	calls int
	reqs  []providers.Request
}

func (s *stubGenerator) Generate(_ context.Context, req providers.Request) (providers.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	s.reqs = append(s.reqs, req)
	if i < len(s.errs) && s.errs[i] != nil {
		return providers.Response{}, s.errs[i]
	}
	return providers.Response{Content: s.text}, nil
}

// stubProvider swaps the provider factory for the duration of a test.
func stubProvider(t *testing.T, gen completion.Generator, err error) *[]string {
	t.Helper()
	var seen []string
	orig := newGenerator
	newGenerator = func(provider, model string) (completion.Generator, error) {
		seen = append(seen, provider+"/"+model)
		if err != nil {
			return nil, err
		}
		return gen, nil
	}
	t.Cleanup(func() { newGenerator = orig })
	return &seen
}

// --- buildOverrides tests ---

func TestBuildOverrides_NoFlags(t *testing.T) {
	resetFlags()
	m := buildOverrides()
	if len(m) != 0 {
		t.Errorf("buildOverrides() with no flags = %v, want empty map", m)
	}
}

func TestBuildOverrides_AllFlags(t *testing.T) {
	resetFlags()
	flagProvider = "openai"
	flagModel = "gpt-4.1"
	flagFormat = "json"
	flagListen = ":9000"
	flagRetries = 0
	flagNoCache = true
	flagNoRedact = true
	defer resetFlags()

	want := map[string]string{
		"provider":              "openai",
		"model":                 "gpt-4.1",
		"format":                "json",
		"listen":                ":9000",
		"retry.attempts":        "0",
		"cache.enabled":         "false",
		"privacy.redactSecrets": "false",
	}
	got := buildOverrides()
	if len(got) != len(want) {
		t.Fatalf("buildOverrides() = %v, want %v", got, want)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("buildOverrides()[%q] = %q, want %q", k, got[k], v)
		}
	}
	// Every override key must be accepted by config.SetField.
	cfg := config.Default()
	for k, v := range got {
		if err := config.SetField(&cfg, k, v); err != nil {
			t.Errorf("SetField(%q) error: %v", k, err)
		}
	}
}

// --- exit code tests ---

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"invalid input", fmt.Errorf("%w: empty", completion.ErrInvalidInput), ExitUsageError},
		{"credential", &providers.CredentialError{Provider: "gemini", EnvVars: []string{"GEMINI_API_KEY"}}, ExitAuthError},
		{"auth after retries", &completion.ExhaustedError{Attempts: 4, Last: &providers.AuthError{Provider: "openai", Message: "bad key"}}, ExitAuthError},
		{"exhausted", &completion.ExhaustedError{Attempts: 4, Last: errors.New("503")}, ExitRuntimeError},
		{"other", errors.New("boom"), ExitRuntimeError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestExitCodes(t *testing.T) {
	tests := []struct {
		name string
		code int
		want int
	}{
		{"ExitSuccess", ExitSuccess, 0},
		{"ExitUsageError", ExitUsageError, 2},
		{"ExitAuthError", ExitAuthError, 3},
		{"ExitRuntimeError", ExitRuntimeError, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.code != tt.want {
				t.Errorf("%s = %d, want %d", tt.name, tt.code, tt.want)
			}
		})
	}
}

// --- version and models ---

func TestVersionCmd_Execute(t *testing.T) {
	isolate(t)
	out, _, code := execute(t, "", "version")
	if code != ExitSuccess {
		t.Errorf("exit code = %d", code)
	}
	if !strings.Contains(out, "critic version "+version) {
		t.Errorf("output = %q", out)
	}
}

func TestModelsListCmd_Execute(t *testing.T) {
	isolate(t)
	out, _, code := execute(t, "", "models", "list")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out, "gemini-2.5-flash (default)") {
		t.Errorf("default model not marked:\n%s", out)
	}
}

func TestKnownModels_AllProviders(t *testing.T) {
	found := map[string]bool{"gemini": false, "openai": false, "anthropic": false, "ollama": false}
	for _, info := range knownModels {
		found[info.Provider] = true
		if len(info.Models) == 0 {
			t.Errorf("provider %s has no models", info.Provider)
		}
	}
	for p, ok := range found {
		if !ok {
			t.Errorf("expected provider %q not found in knownModels", p)
		}
	}
}

func TestModelsDoctor_OK(t *testing.T) {
	isolate(t)
	gen := &stubGenerator{text: "ok"}
	seen := stubProvider(t, gen, nil)

	out, _, code := execute(t, "", "models", "doctor", "--provider", "openai")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out, "OK: openai") {
		t.Errorf("output = %q", out)
	}
	if len(*seen) != 1 || (*seen)[0] != "openai/gpt-4.1-mini" {
		t.Errorf("provider built as %v", *seen)
	}
	if gen.calls != 1 {
		t.Errorf("doctor should make exactly one request, made %d", gen.calls)
	}
}

func TestModelsDoctor_AuthFailure(t *testing.T) {
	isolate(t)
	stubProvider(t, &stubGenerator{errs: []error{&providers.AuthError{Provider: "gemini", Message: "invalid key"}}}, nil)

	_, errOut, code := execute(t, "", "models", "doctor")
	if code != ExitAuthError {
		t.Errorf("exit code = %d, want %d", code, ExitAuthError)
	}
	if !strings.Contains(errOut, "FAIL") {
		t.Errorf("stderr = %q", errOut)
	}
}

// --- review command ---

func TestReviewCmd_Stdin(t *testing.T) {
	isolate(t)
	gen := &stubGenerator{text: "  ## Review\n\nUse `const`.  "}
	seen := stubProvider(t, gen, nil)

	out, errOut, code := execute(t, "var x = 1;", "review", "--language", "javascript", "--format", "markdown")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr = %s", code, errOut)
	}
	if !strings.Contains(out, "## Review\n\nUse `const`.") {
		t.Errorf("output = %q", out)
	}
	if !strings.Contains(out, "| JavaScript | `gemini/gemini-2.5-flash` |") {
		t.Errorf("output missing metadata:\n%s", out)
	}
	if (*seen)[0] != "gemini/gemini-2.5-flash" {
		t.Errorf("provider built as %v", *seen)
	}
	if gen.reqs[0].SystemPrompt != review.SystemPrompt() {
		t.Error("system prompt not applied")
	}
	if gen.reqs[0].MaxTokens != config.Default().MaxTokens {
		t.Errorf("MaxTokens = %d", gen.reqs[0].MaxTokens)
	}
	if gen.reqs[0].Temperature != 0 {
		t.Errorf("Temperature = %g, want provider default", gen.reqs[0].Temperature)
	}
}

func TestReviewCmd_Temperature(t *testing.T) {
	isolate(t)
	t.Setenv("CRITIC_TEMPERATURE", "0.2")
	gen := &stubGenerator{text: "Fine."}
	stubProvider(t, gen, nil)

	_, errOut, code := execute(t, "print(1)", "review", "--language", "python", "--no-cache")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr = %s", code, errOut)
	}
	if gen.reqs[0].Temperature != 0.2 {
		t.Errorf("Temperature = %g, want 0.2", gen.reqs[0].Temperature)
	}
}

func TestReviewCmd_FileJSONOut(t *testing.T) {
	dir := isolate(t)
	stubProvider(t, &stubGenerator{text: "Looks fine."}, nil)

	src := filepath.Join(dir, "main.py")
	if err := os.WriteFile(src, []byte("print('hi')\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	dst := filepath.Join(dir, "review.json")

	_, errOut, code := execute(t, "", "review", src, "--format", "json", "--out", dst)
	if code != ExitSuccess {
		t.Fatalf("exit code = %d, stderr = %s", code, errOut)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	var res review.Result
	if err := json.Unmarshal(data, &res); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if res.Language != "Python" {
		t.Errorf("Language = %q, want detection from filename", res.Language)
	}
	if res.Markdown != "Looks fine." {
		t.Errorf("Markdown = %q", res.Markdown)
	}
}

func TestReviewCmd_CachesBetweenRuns(t *testing.T) {
	isolate(t)
	gen := &stubGenerator{text: "cached"}
	stubProvider(t, gen, nil)

	for i := 0; i < 2; i++ {
		if _, errOut, code := execute(t, "x = 1", "review", "-l", "python"); code != ExitSuccess {
			t.Fatalf("run %d: exit code = %d, stderr = %s", i, code, errOut)
		}
	}
	if gen.calls != 1 {
		t.Errorf("second run should hit the cache, calls = %d", gen.calls)
	}

	resetFlags()
	if _, _, code := execute(t, "x = 1", "review", "-l", "python", "--no-cache"); code != ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	if gen.calls != 2 {
		t.Errorf("--no-cache should bypass the cache, calls = %d", gen.calls)
	}
}

func TestReviewCmd_EmptyInput(t *testing.T) {
	isolate(t)
	gen := &stubGenerator{text: "x"}
	stubProvider(t, gen, nil)

	_, errOut, code := execute(t, "   \n", "review")
	if code != ExitUsageError {
		t.Errorf("exit code = %d, want %d", code, ExitUsageError)
	}
	if !strings.Contains(errOut, "invalid input") {
		t.Errorf("stderr = %q", errOut)
	}
	if gen.calls != 0 {
		t.Errorf("no upstream call expected, got %d", gen.calls)
	}
}

func TestReviewCmd_MissingCredential(t *testing.T) {
	isolate(t)

	_, errOut, code := execute(t, "x = 1", "review")
	if code != ExitAuthError {
		t.Errorf("exit code = %d, want %d", code, ExitAuthError)
	}
	if !strings.Contains(errOut, "GEMINI_API_KEY") {
		t.Errorf("stderr should name the variable: %q", errOut)
	}
}

func TestReviewCmd_Exhausted(t *testing.T) {
	isolate(t)
	boom := errors.New("upstream 503")
	gen := &stubGenerator{errs: []error{boom, boom, boom}}
	stubProvider(t, gen, nil)

	_, errOut, code := execute(t, "x = 1", "review", "--retries", "2")
	if code != ExitRuntimeError {
		t.Errorf("exit code = %d, want %d", code, ExitRuntimeError)
	}
	if gen.calls != 3 {
		t.Errorf("calls = %d, want 3", gen.calls)
	}
	if !strings.Contains(errOut, "after 3 attempts") {
		t.Errorf("stderr = %q", errOut)
	}
}

func TestReviewCmd_RecoversWithinBudget(t *testing.T) {
	isolate(t)
	gen := &stubGenerator{text: "ok", errs: []error{errors.New("reset"), nil}}
	stubProvider(t, gen, nil)

	out, _, code := execute(t, "x = 1", "review", "-f", "text")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	if gen.calls != 2 || !strings.Contains(out, "ok") {
		t.Errorf("calls = %d, out = %q", gen.calls, out)
	}
}

func TestReviewCmd_TooLarge(t *testing.T) {
	isolate(t)
	t.Setenv("CRITIC_MAX_CODE_BYTES", "8")
	stubProvider(t, &stubGenerator{text: "x"}, nil)

	_, _, code := execute(t, "0123456789", "review")
	if code != ExitUsageError {
		t.Errorf("exit code = %d, want %d", code, ExitUsageError)
	}
}

func TestReviewCmd_BadFormat(t *testing.T) {
	isolate(t)
	_, _, code := execute(t, "x", "review", "--format", "sarif")
	if code != ExitUsageError {
		t.Errorf("exit code = %d, want %d", code, ExitUsageError)
	}
}

// --- serve command ---

func TestServeCmd_MissingCredential(t *testing.T) {
	isolate(t)

	_, errOut, code := execute(t, "", "serve", "--listen", "127.0.0.1:0")
	if code != ExitAuthError {
		t.Errorf("exit code = %d, want %d", code, ExitAuthError)
	}
	if !strings.Contains(errOut, "configuration error") {
		t.Errorf("stderr = %q", errOut)
	}
}

// --- env file ---

func TestEnvFile_Loaded(t *testing.T) {
	dir := isolate(t)
	envPath := filepath.Join(dir, "test.env")
	if err := os.WriteFile(envPath, []byte("CRITIC_TEST_ENV_MARKER=anthropic\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CRITIC_TEST_ENV_MARKER", "")
	os.Unsetenv("CRITIC_TEST_ENV_MARKER")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	t.Cleanup(func() { rootCmd.SetOut(nil) })
	if code := run([]string{"--env-file", envPath, "version"}); code != ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	if got := os.Getenv("CRITIC_TEST_ENV_MARKER"); got != "anthropic" {
		t.Errorf("env file not loaded, got %q", got)
	}
}

// --- config command tests ---

func TestConfigInit_CreatesFile(t *testing.T) {
	dir := isolate(t)

	_, _, code := execute(t, "", "config", "init")
	if code != ExitSuccess {
		t.Fatalf("config init exit code = %d", code)
	}

	configPath := filepath.Join(dir, "config", "critic", "config.json")
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("cannot read config file: %v", err)
	}
	var cfg config.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("config file is not valid JSON: %v", err)
	}
	if cfg.Provider != "gemini" {
		t.Errorf("provider = %q", cfg.Provider)
	}
}

func TestConfigInit_AlreadyExists(t *testing.T) {
	dir := isolate(t)

	cfgDir := filepath.Join(dir, "config", "critic")
	if err := os.MkdirAll(cfgDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cfgDir, "config.json"), []byte(`{"provider":"openai"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, errOut, code := execute(t, "", "config", "init")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(errOut, "already exists") {
		t.Errorf("stderr = %q", errOut)
	}

	data, err := os.ReadFile(filepath.Join(cfgDir, "config.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"openai"`) {
		t.Errorf("config init overwrote existing file: %s", data)
	}
}

func TestConfigSet_UpdatesFile(t *testing.T) {
	dir := isolate(t)

	if _, _, code := execute(t, "", "config", "set", "retry.attempts", "5"); code != ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}

	data, err := os.ReadFile(filepath.Join(dir, "config", "critic", "config.json"))
	if err != nil {
		t.Fatalf("cannot read config file: %v", err)
	}
	var cfg config.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("config file is not valid JSON: %v", err)
	}
	if cfg.Retry.Attempts != 5 {
		t.Errorf("retry.attempts = %d, want 5", cfg.Retry.Attempts)
	}
	if cfg.Provider != "gemini" {
		t.Errorf("set should start from defaults, provider = %q", cfg.Provider)
	}
}

func TestConfigSet_InvalidKey(t *testing.T) {
	isolate(t)
	if _, _, code := execute(t, "", "config", "set", "unknownKey", "value"); code != ExitUsageError {
		t.Errorf("exit code = %d, want %d", code, ExitUsageError)
	}
}

func TestConfigSet_InvalidValue(t *testing.T) {
	isolate(t)
	if _, _, code := execute(t, "", "config", "set", "retry.attempts", "-3"); code != ExitUsageError {
		t.Errorf("exit code = %d, want %d", code, ExitUsageError)
	}
}

func TestConfigSet_MissingArgs(t *testing.T) {
	isolate(t)
	if _, _, code := execute(t, "", "config", "set", "provider"); code != ExitUsageError {
		t.Errorf("exit code = %d, want %d", code, ExitUsageError)
	}
}

func TestConfigShow_Execute(t *testing.T) {
	isolate(t)
	t.Setenv("CRITIC_PROVIDER", "anthropic")

	out, _, code := execute(t, "", "config", "show")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	var cfg config.Config
	if err := json.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if cfg.Provider != "anthropic" {
		t.Errorf("provider = %q", cfg.Provider)
	}
}

// --- cache command tests ---

func TestCacheShow_Execute(t *testing.T) {
	isolate(t)
	out, _, code := execute(t, "", "cache", "show")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out, `"entries": 0`) {
		t.Errorf("output = %q", out)
	}
}

func TestCacheShow_Disabled(t *testing.T) {
	isolate(t)
	t.Setenv("CRITIC_CACHE_ENABLED", "false")
	out, _, _ := execute(t, "", "cache", "show")
	if !strings.Contains(out, "Cache is disabled.") {
		t.Errorf("output = %q", out)
	}
}

func TestCacheClear_Execute(t *testing.T) {
	dir := isolate(t)

	cacheDir := filepath.Join(dir, "cache", "critic")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cacheDir, "abc123.json"), []byte(`{"key":"test"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, code := execute(t, "", "cache", "clear")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out, "1 entries removed") {
		t.Errorf("output = %q", out)
	}

	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		t.Fatalf("cannot read cache dir: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) == ".json" {
			t.Errorf("cache clear did not remove %s", e.Name())
		}
	}
}

func TestCachePrune_Execute(t *testing.T) {
	dir := isolate(t)

	cacheDir := filepath.Join(dir, "cache", "critic")
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(cacheDir, "old.json"), []byte(`{"key":"k","createdAt":"2000-01-01T00:00:00Z"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	out, _, code := execute(t, "", "cache", "prune")
	if code != ExitSuccess {
		t.Fatalf("exit code = %d", code)
	}
	if !strings.Contains(out, "Pruned 1 expired entries.") {
		t.Errorf("output = %q", out)
	}
}

func TestResolveModel(t *testing.T) {
	cfg := config.Default()
	if got := resolveModel(cfg); got != "gemini-2.5-flash" {
		t.Errorf("resolveModel(default) = %q", got)
	}
	cfg.Provider = "lmstudio"
	if got := resolveModel(cfg); got != "qwen2.5-coder" {
		t.Errorf("resolveModel(lmstudio) = %q", got)
	}
	cfg.Model = "custom"
	if got := resolveModel(cfg); got != "custom" {
		t.Errorf("resolveModel(explicit) = %q", got)
	}
}

func TestVersionConstant(t *testing.T) {
	if version == "" {
		t.Error("version constant is empty")
	}
}
