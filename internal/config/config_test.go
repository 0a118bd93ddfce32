package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/adrg/xdg"

	cfg "github.com/NamanBalaji/urlconf/internal/config"
	"github.com/NamanBalaji/urlconf/pkg/transport"
)

func withTempConfigHome(t *testing.T) (restore func(), dir string, file string) {
	t.Helper()
	orig := xdg.ConfigHome
	dir = t.TempDir()
	xdg.ConfigHome = dir
	restore = func() { xdg.ConfigHome = orig }
	file = filepath.Join(dir, "urlconf")
	return
}

func TestGetConfig_Table(t *testing.T) {
	restore, _, cfgFile := withTempConfigHome(t)
	defer restore()

	def := cfg.DefaultConfig()

	tests := []struct {
		name      string
		preWrite  bool
		contents  string
		expectErr bool
		check     func(t *testing.T, got *cfg.Config, def cfg.Config)
	}{
		{
			name:     "missing_file_returns_defaults",
			preWrite: false,
			check: func(t *testing.T, got *cfg.Config, def cfg.Config) {
				if !reflect.DeepEqual(*got, def) {
					t.Fatalf("expected defaults\nwant: %#v\ngot:  %#v", def, *got)
				}
			},
		},
		{
			name:     "empty_file_returns_defaults",
			preWrite: true,
			contents: "",
			check: func(t *testing.T, got *cfg.Config, def cfg.Config) {
				if !reflect.DeepEqual(*got, def) {
					t.Fatalf("expected defaults\nwant: %#v\ngot:  %#v", def, *got)
				}
			},
		},
		{
			name:      "invalid_yaml_returns_error",
			preWrite:  true,
			contents:  ": not yaml",
			expectErr: true,
			check:     func(t *testing.T, _ *cfg.Config, _ cfg.Config) {},
		},
		{
			name:     "no_subconfigs_uses_defaults_for_nested",
			preWrite: true,
			contents: "connectTimeout: 1s\n",
			check: func(t *testing.T, got *cfg.Config, def cfg.Config) {
				if got.ConnectTimeout != time.Second {
					t.Fatalf("connectTimeout not applied, got %s", got.ConnectTimeout)
				}
				if !reflect.DeepEqual(*got.Retry, *def.Retry) {
					t.Fatalf("retry defaults not applied\nwant: %#v\ngot:  %#v", *def.Retry, *got.Retry)
				}
				if !reflect.DeepEqual(*got.Journal, *def.Journal) {
					t.Fatalf("journal defaults not applied\nwant: %#v\ngot:  %#v", *def.Journal, *got.Journal)
				}
			},
		},
		{
			name:     "partial_override_and_fallback",
			preWrite: true,
			contents: `
requestTimeout: 30s
userAgent: probe/2.0
headers:
  X-Env: prod
disableCompression: true
maxRedirects: 2
disableTLS: true
retry:
  attempts: 5
journal:
  path: /tmp/urlconf.db
`,
			check: func(t *testing.T, got *cfg.Config, def cfg.Config) {
				// top-level overrides
				if got.RequestTimeout != 30*time.Second {
					t.Fatalf("want requestTimeout=30s got %s", got.RequestTimeout)
				}
				if got.UserAgent != "probe/2.0" {
					t.Fatalf("want userAgent=probe/2.0 got %q", got.UserAgent)
				}
				if got.Headers["X-Env"] != "prod" {
					t.Fatalf("want headers X-Env=prod got %v", got.Headers)
				}
				if !got.DisableCompression || !got.DisableTLS {
					t.Fatalf("want disableCompression and disableTLS set, got %v %v", got.DisableCompression, got.DisableTLS)
				}
				if got.MaxRedirects != 2 {
					t.Fatalf("want maxRedirects=2 got %d", got.MaxRedirects)
				}
				// top-level fallbacks
				if got.ConnectTimeout != def.ConnectTimeout {
					t.Fatalf("want connectTimeout default %s got %s", def.ConnectTimeout, got.ConnectTimeout)
				}
				if got.DisableRedirects != def.DisableRedirects {
					t.Fatalf("want disableRedirects default %v got %v", def.DisableRedirects, got.DisableRedirects)
				}
				// nested overrides and fallbacks
				if got.Retry.Attempts != 5 {
					t.Fatalf("want retry.attempts=5 got %d", got.Retry.Attempts)
				}
				if got.Retry.Delay != def.Retry.Delay {
					t.Fatalf("want retry.delay default %s got %s", def.Retry.Delay, got.Retry.Delay)
				}
				if got.Retry.Parallel != def.Retry.Parallel {
					t.Fatalf("want retry.parallel default %d got %d", def.Retry.Parallel, got.Retry.Parallel)
				}
				if got.Journal.Path != "/tmp/urlconf.db" {
					t.Fatalf("want journal.path override got %q", got.Journal.Path)
				}
				if got.Journal.Disabled != def.Journal.Disabled {
					t.Fatalf("want journal.disabled default %v got %v", def.Journal.Disabled, got.Journal.Disabled)
				}
			},
		},
		{
			name:     "explicit_zero_values_fall_back_to_defaults",
			preWrite: true,
			contents: `
connectTimeout: 0s
userAgent: ""
maxRedirects: 0
retry:
  delay: 0s
  parallel: 0
journal:
  path: ""
`,
			check: func(t *testing.T, got *cfg.Config, def cfg.Config) {
				if got.ConnectTimeout != def.ConnectTimeout {
					t.Fatalf("connectTimeout zero should fallback. want %s got %s", def.ConnectTimeout, got.ConnectTimeout)
				}
				if got.UserAgent != def.UserAgent {
					t.Fatalf("userAgent zero should fallback. want %q got %q", def.UserAgent, got.UserAgent)
				}
				if got.MaxRedirects != def.MaxRedirects {
					t.Fatalf("maxRedirects zero should fallback. want %d got %d", def.MaxRedirects, got.MaxRedirects)
				}
				if got.Retry.Delay != def.Retry.Delay {
					t.Fatalf("retry.delay zero should fallback. want %s got %s", def.Retry.Delay, got.Retry.Delay)
				}
				if got.Retry.Parallel != def.Retry.Parallel {
					t.Fatalf("retry.parallel zero should fallback. want %d got %d", def.Retry.Parallel, got.Retry.Parallel)
				}
				if got.Journal.Path != def.Journal.Path {
					t.Fatalf("journal.path zero should fallback. want %q got %q", def.Journal.Path, got.Journal.Path)
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			// clean start each subtest
			_ = os.Remove(cfgFile)
			if tc.preWrite {
				if err := os.WriteFile(cfgFile, []byte(tc.contents), 0o600); err != nil {
					t.Fatalf("write test config: %v", err)
				}
			}
			got, err := cfg.GetConfig()
			if tc.expectErr {
				if err == nil {
					t.Fatalf("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("GetConfig error: %v", err)
			}
			tc.check(t, got, def)
		})
	}
}

func TestLoad_ExplicitPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.yaml")
	if err := os.WriteFile(path, []byte("maxRedirects: 7\n"), 0o600); err != nil {
		t.Fatalf("write test config: %v", err)
	}

	got, err := cfg.Load(path)
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if got.MaxRedirects != 7 {
		t.Fatalf("want maxRedirects=7 got %d", got.MaxRedirects)
	}

	if _, err := cfg.Load(t.TempDir()); err == nil {
		t.Fatalf("expected error reading a directory, got nil")
	}
}

func TestDefaultConfig_NonNilPointers(t *testing.T) {
	d := cfg.DefaultConfig()
	if d.Retry == nil {
		t.Fatalf("DefaultConfig.Retry is nil")
	}
	if d.Journal == nil {
		t.Fatalf("DefaultConfig.Journal is nil")
	}
	if d.UserAgent != transport.DefaultUserAgent {
		t.Fatalf("DefaultConfig.UserAgent = %q, want %q", d.UserAgent, transport.DefaultUserAgent)
	}
}

func TestRequestHeaders(t *testing.T) {
	c := cfg.DefaultConfig()
	c.UserAgent = "probe/2.0"
	c.Headers = map[string]string{"X-Env": "prod", "Authorization": "Bearer t"}

	got := c.RequestHeaders().Lines(": ")
	want := []string{
		"Accept: " + transport.DefaultAccept,
		"User-Agent: probe/2.0",
		"Authorization: Bearer t",
		"X-Env: prod",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("RequestHeaders\nwant: %q\ngot:  %q", want, got)
	}
}

func TestTransportOptions(t *testing.T) {
	c := cfg.DefaultConfig()
	c.ConnectTimeout = time.Second
	c.RequestTimeout = 2 * time.Second

	opts := c.TransportOptions()
	if opts.ConnectTimeout != time.Second || opts.TotalTimeout != 2*time.Second {
		t.Fatalf("timeouts not applied: %s %s", opts.ConnectTimeout, opts.TotalTimeout)
	}
	if !opts.VerifyTLS {
		t.Fatalf("VerifyTLS should default to true")
	}
	if opts.UseTLS {
		t.Fatalf("UseTLS is decided per URL, not by configuration")
	}
	if v, _ := opts.Headers.Get("User-Agent"); v != transport.DefaultUserAgent {
		t.Fatalf("User-Agent = %q", v)
	}
	if n := len(c.EngineOptions()); n != 3 {
		t.Fatalf("EngineOptions returned %d options, want 3", n)
	}
}
