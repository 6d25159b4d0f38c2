package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"caixa_scrooper/extract"
)

const defaultSiteConfig = "config/sites/caixa.yaml"

type Config struct {
	Site        *SiteConfig
	S3          S3Config
	DBPath      string
	DatabaseURL string
	OutputDir   string
	LogLevel    string
	LogFile     string

	// Runs still marked running after this long are treated as crashed.
	StaleRunAfter time.Duration
}

type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

func (c S3Config) Enabled() bool {
	return c.Bucket != ""
}

type SiteConfig struct {
	ID            string              `yaml:"id" validate:"required"`
	Name          string              `yaml:"name"`
	BaseURL       string              `yaml:"base_url" validate:"required,url"`
	SearchPath    string              `yaml:"search_path" validate:"required"`
	Browser       string              `yaml:"browser" validate:"oneof=playwright chromedp"`
	Headless      bool                `yaml:"headless"`
	UserAgent     string              `yaml:"user_agent"`
	Proxy         string              `yaml:"proxy" validate:"omitempty,url"`
	Selectors     Selectors           `yaml:"selectors"`
	DetailLink    DetailLink          `yaml:"detail_link"`
	Timeouts      Timeouts            `yaml:"timeouts"`
	SettleDelayMS int                 `yaml:"settle_delay_ms" validate:"gte=0"`
	DelayMS       int                 `yaml:"delay_ms" validate:"gte=0"`
	JitterMS      int                 `yaml:"jitter_ms" validate:"gte=0"`
	Fields        []extract.FieldRule `yaml:"fields"`
}

type Selectors struct {
	Region   string `yaml:"region" validate:"required"`
	Locality string `yaml:"locality" validate:"required"`
	Next     string `yaml:"next" validate:"required"`
	Results  string `yaml:"results" validate:"required"`
	Label    string `yaml:"label"`
}

type DetailLink struct {
	HrefContains string `yaml:"href_contains" validate:"required"`
	TextContains string `yaml:"text_contains"`
}

type Timeouts struct {
	SearchLoadMS int `yaml:"search_load_ms" validate:"gt=0"`
	VisibleMS    int `yaml:"visible_ms" validate:"gt=0"`
	NavigationMS int `yaml:"navigation_ms" validate:"gt=0"`
	ResultsMS    int `yaml:"results_ms" validate:"gt=0"`
	DetailMS     int `yaml:"detail_ms" validate:"gt=0"`
	ContentMS    int `yaml:"content_ms" validate:"gt=0"`
}

func (t Timeouts) SearchLoad() time.Duration { return ms(t.SearchLoadMS) }
func (t Timeouts) Visible() time.Duration    { return ms(t.VisibleMS) }
func (t Timeouts) Navigation() time.Duration { return ms(t.NavigationMS) }
func (t Timeouts) Results() time.Duration    { return ms(t.ResultsMS) }
func (t Timeouts) Detail() time.Duration     { return ms(t.DetailMS) }
func (t Timeouts) Content() time.Duration    { return ms(t.ContentMS) }

func (s *SiteConfig) SettleDelay() time.Duration { return ms(s.SettleDelayMS) }
func (s *SiteConfig) Delay() time.Duration       { return ms(s.DelayMS) }
func (s *SiteConfig) Jitter() time.Duration      { return ms(s.JitterMS) }

// SearchURL is the page the search form lives on.
func (s *SiteConfig) SearchURL() string {
	return extract.Absolute(s.BaseURL, s.SearchPath)
}

// DefaultSite returns the settings for the Caixa auction portal.
func DefaultSite() *SiteConfig {
	return &SiteConfig{
		ID:         "caixa",
		Name:       "Caixa Venda de Imóveis",
		BaseURL:    "https://venda-imoveis.caixa.gov.br/sistema/",
		SearchPath: "busca-imovel.asp",
		Browser:    "playwright",
		Headless:   true,
		UserAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
		Selectors: Selectors{
			Region:   "#estado",
			Locality: "#cidade",
			Next:     "#btnProximo",
			Results:  ".resultado-imovel, .imovel-item",
			Label:    extract.DefaultLabelSelector,
		},
		DetailLink: DetailLink{
			HrefContains: "detalhe-imovel.asp",
			TextContains: "Detalhe do Imóvel",
		},
		Timeouts: Timeouts{
			SearchLoadMS: 60000,
			VisibleMS:    30000,
			NavigationMS: 30000,
			ResultsMS:    10000,
			DetailMS:     30000,
			ContentMS:    30000,
		},
		SettleDelayMS: 2000,
		DelayMS:       3000,
		JitterMS:      2000,
	}
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		S3: S3Config{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getEnv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
			Prefix:          getEnv("S3_PREFIX", "caixa"),
		},
		DBPath:      getEnv("DB_PATH", "scraper.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		OutputDir:   getEnv("OUTPUT_DIR", "."),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		LogFile:     getEnv("LOG_FILE", "scraper.log"),

		StaleRunAfter: time.Duration(getEnvInt("STALE_RUN_HOURS", 12)) * time.Hour,
	}

	site, err := LoadSite(getEnv("SITE_CONFIG", defaultSiteConfig))
	if err != nil {
		return nil, err
	}

	site.DelayMS = getEnvInt("SCRAPE_DELAY_MS", site.DelayMS)
	site.JitterMS = getEnvInt("SCRAPE_JITTER_MS", site.JitterMS)
	site.Browser = getEnv("BROWSER", site.Browser)
	site.Proxy = getEnv("PROXY_URL", site.Proxy)
	if v := os.Getenv("HEADLESS"); v != "" {
		site.Headless = v == "true" || v == "1"
	}

	if err := site.Validate(); err != nil {
		return nil, err
	}
	cfg.Site = site

	return cfg, nil
}

// LoadSite reads a site file on top of DefaultSite. A missing file yields
// the defaults unchanged.
func LoadSite(path string) (*SiteConfig, error) {
	site := DefaultSite()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return site, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, site); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return site, nil
}

var validate = validator.New()

func (s *SiteConfig) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid site config %q: %w", s.ID, err)
	}
	return nil
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
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
