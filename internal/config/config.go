package config

import (
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// =============================================================================
// Judge worker configuration, loaded from YAML then overridden by env vars.
// =============================================================================

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Cache     CacheConfig     `yaml:"cache"`
	Sandbox   SandboxConfig   `yaml:"sandbox"`
	Toolchain ToolchainConfig `yaml:"toolchain"`
	Store     StoreConfig     `yaml:"store"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Judge     JudgeConfig     `yaml:"judge"`
}

type ServerConfig struct {
	Port      string `yaml:"port"`
	Env       string `yaml:"env"`
	Interface string `yaml:"interface"`
}

// CacheConfig addresses the progress cache — SPEC_FULL.md §6: env var
// JUDGE_CACHE_ADDR, absent value defaults to loopback host on Redis's
// default port.
type CacheConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type SandboxConfig struct {
	RunscPath    string `yaml:"runsc_path"`
	BundleDir    string `yaml:"bundle_dir"`
	UseDocker    bool   `yaml:"use_docker"`
	DockerImage  string `yaml:"docker_image"`
	PoolMinIdle  int    `yaml:"pool_min_idle"`
	PoolMaxCap   int    `yaml:"pool_max_capacity"`
	SyscallGuard bool   `yaml:"syscall_guard"`
}

type ToolchainConfig struct {
	ScratchDir string `yaml:"scratch_dir"`
}

// StoreConfig selects between the filesystem and Postgres-backed
// FingerprintStore implementations.
type StoreConfig struct {
	Backend   string `yaml:"backend"` // "fs" | "pg"
	BaseDir   string `yaml:"base_dir"`
	PostgresURL string `yaml:"postgres_url"`
}

type ArchiveConfig struct {
	SupabaseURL        string `yaml:"supabase_url"`
	SupabaseServiceKey string `yaml:"supabase_service_key"`
}

// JudgeConfig holds orchestrator settings. Debug is wired into
// judge.Orchestrator; TracebackLimit is loaded but not read by the
// orchestrator, which bounds tracebacks with the judge.TracebackLimit
// constant (bytes).
type JudgeConfig struct {
	TracebackLimit int  `yaml:"traceback_limit"`
	Debug          bool `yaml:"debug"`
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the singleton config instance.
func Get() *Config {
	once.Do(func() {
		_ = godotenv.Load() // non-production local override; absent file is not an error

		cfg, err := LoadConfig(getEnv("CONFIG_PATH", "config.yaml"))
		if err != nil {
			slog.Warn("config: failed to load config file (using defaults)", "error", err)
		}
		if cfg == nil {
			cfg = &Config{}
		}
		cfg.applyDefaults()
		cfg.applyEnvOverrides()
		instance = cfg
	})
	return instance
}

// LoadConfig loads config from a YAML file.
func LoadConfig(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}
	if c.Cache.Addr == "" {
		c.Cache.Addr = "127.0.0.1:6379"
	}
	if c.Sandbox.RunscPath == "" {
		c.Sandbox.RunscPath = "/usr/local/bin/runsc"
	}
	if c.Sandbox.BundleDir == "" {
		c.Sandbox.BundleDir = "/tmp/judge-bundles"
	}
	if c.Sandbox.PoolMinIdle == 0 {
		c.Sandbox.PoolMinIdle = 2
	}
	if c.Sandbox.PoolMaxCap == 0 {
		c.Sandbox.PoolMaxCap = 16
	}
	if c.Toolchain.ScratchDir == "" {
		c.Toolchain.ScratchDir = "/tmp/judge-workspaces"
	}
	if c.Store.Backend == "" {
		c.Store.Backend = "fs"
	}
	if c.Store.BaseDir == "" {
		c.Store.BaseDir = "/var/judge/cases"
	}
	if c.Judge.TracebackLimit == 0 {
		c.Judge.TracebackLimit = 4096
	}
}

func (c *Config) applyEnvOverrides() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.Env = getEnv("JUDGE_ENV", c.Server.Env)
	c.Server.Interface = getEnv("JUDGE_INTERFACE", c.Server.Interface)

	c.Cache.Addr = getEnv("JUDGE_CACHE_ADDR", c.Cache.Addr)
	c.Cache.Password = getEnv("JUDGE_CACHE_PASSWORD", c.Cache.Password)
	c.Cache.DB = getEnvInt("JUDGE_CACHE_DB", c.Cache.DB)

	c.Sandbox.RunscPath = getEnv("JUDGE_RUNSC_PATH", c.Sandbox.RunscPath)
	c.Sandbox.BundleDir = getEnv("JUDGE_BUNDLE_DIR", c.Sandbox.BundleDir)
	c.Sandbox.UseDocker = getEnvBool("JUDGE_USE_DOCKER_POOL", c.Sandbox.UseDocker)
	c.Sandbox.DockerImage = getEnv("JUDGE_DOCKER_IMAGE", c.Sandbox.DockerImage)
	c.Sandbox.PoolMinIdle = getEnvInt("JUDGE_POOL_MIN_IDLE", c.Sandbox.PoolMinIdle)
	c.Sandbox.PoolMaxCap = getEnvInt("JUDGE_POOL_MAX_CAPACITY", c.Sandbox.PoolMaxCap)
	c.Sandbox.SyscallGuard = getEnvBool("JUDGE_SYSCALL_GUARD", c.Sandbox.SyscallGuard)

	c.Toolchain.ScratchDir = getEnv("JUDGE_SCRATCH_DIR", c.Toolchain.ScratchDir)

	c.Store.Backend = getEnv("JUDGE_STORE_BACKEND", c.Store.Backend)
	c.Store.BaseDir = getEnv("JUDGE_STORE_BASE_DIR", c.Store.BaseDir)
	c.Store.PostgresURL = getEnv("JUDGE_STORE_POSTGRES_URL", c.Store.PostgresURL)

	c.Archive.SupabaseURL = getEnv("SUPABASE_URL", c.Archive.SupabaseURL)
	c.Archive.SupabaseServiceKey = getEnv("SUPABASE_SERVICE_KEY", c.Archive.SupabaseServiceKey)

	c.Judge.TracebackLimit = getEnvInt("JUDGE_TRACEBACK_LIMIT", c.Judge.TracebackLimit)
	c.Judge.Debug = getEnvBool("JUDGE_DEBUG", c.Judge.Debug)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}
