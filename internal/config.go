package internal

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App        ApplicationConfig `yaml:"app"`
	Vault      VaultConfig       `yaml:"vault"`
	Classifier ClassifierConfig  `yaml:"classifier"`
	Extract    ExtractConfig     `yaml:"extract"`
	Journal    JournalConfig     `yaml:"journal"`
	Inbox      InboxConfig       `yaml:"inbox"`
	Auth       AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Vault.Validate(); err != nil {
		return err
	}
	if err := c.Classifier.Validate(); err != nil {
		return err
	}
	if err := c.Extract.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// FoldersConfig names the destination folders the heuristic classifier
// routes into. All three are relative to the export root.
type FoldersConfig struct {
	Articles string `yaml:"articles"`
	Ideas    string `yaml:"ideas"`
	Inbox    string `yaml:"inbox"`
}

// List returns the configured folders in routing-priority order.
func (c FoldersConfig) List() []string {
	return []string{c.Articles, c.Ideas, c.Inbox}
}

// VaultConfig describes the on-disk layout of the knowledge vault.
type VaultConfig struct {
	Path            string            `yaml:"path"`
	ExportRoot      string            `yaml:"export_root"`
	AttachmentsRoot string            `yaml:"attachments_root"`
	TemplatesDir    string            `yaml:"templates_dir"`
	DefaultTemplate string            `yaml:"default_template"`
	Folders         FoldersConfig     `yaml:"folders"`
	Templates       map[string]string `yaml:"templates"` // folder -> template file name
}

// TemplatesPath resolves the templates directory, which may be given
// relative to the vault path.
func (c *VaultConfig) TemplatesPath() string {
	if filepath.IsAbs(c.TemplatesDir) {
		return c.TemplatesDir
	}
	return filepath.Join(c.Path, c.TemplatesDir)
}

// TemplateFor returns the template file name for a destination folder,
// falling back to the default template.
func (c *VaultConfig) TemplateFor(folder string) string {
	if name, ok := c.Templates[folder]; ok && name != "" {
		return name
	}
	return c.DefaultTemplate
}

// Validate validates the vault configuration.
func (c *VaultConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
		validation.Field(&c.ExportRoot, validation.Required),
		validation.Field(&c.AttachmentsRoot, validation.Required),
		validation.Field(&c.DefaultTemplate, validation.Required),
		validation.Field(&c.Folders, validation.By(func(any) error {
			if c.Folders.Articles == "" || c.Folders.Ideas == "" || c.Folders.Inbox == "" {
				return fmt.Errorf("vault: all three routing folders must be named")
			}
			return nil
		})),
	)
}

// ClassifierConfig wires the chat-completion endpoint used for
// model-based classification.
//
// An empty APIKey is a valid, expected configuration meaning
// "heuristic-only mode": no network call is ever attempted.
type ClassifierConfig struct {
	Endpoint       string `yaml:"endpoint"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	PromptBudget   int    `yaml:"prompt_budget"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Enabled reports whether the model classifier should be attempted at all.
func (c *ClassifierConfig) Enabled() bool {
	return c.APIKey != ""
}

// Validate validates the classifier configuration.
func (c *ClassifierConfig) Validate() error {
	if !c.Enabled() {
		return nil
	}
	return validation.ValidateStruct(c,
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.PromptBudget, validation.Required, validation.Min(1)),
		validation.Field(&c.TimeoutSeconds, validation.Required, validation.Min(1)),
	)
}

// ExtractConfig bounds the content extractor.
type ExtractConfig struct {
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	MinPDFChars    int    `yaml:"min_pdf_chars"` // text-layer yield below this triggers OCR
	TitleMaxLen    int    `yaml:"title_max_len"`
	OCRBinary      string `yaml:"ocr_binary"`
}

// Validate validates the extract configuration.
func (c *ExtractConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.TimeoutSeconds, validation.Required, validation.Min(1)),
		validation.Field(&c.MinPDFChars, validation.Min(0)),
		validation.Field(&c.TitleMaxLen, validation.Required, validation.Min(8)),
	)
}

// JournalConfig holds the capture journal database path. An empty path
// disables the journal.
type JournalConfig struct {
	Path string `yaml:"path"`
}

// InboxConfig holds the optional drop-folder directory. An empty dir
// disables the watcher.
type InboxConfig struct {
	Dir string `yaml:"dir"`
}

// AuthConfig holds authentication configuration.
//
// Mode controls how the capture API authenticates its single operator:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled" for backward compatibility.
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
// VAULT_PATH and DEEPSEEK_API_KEY/DEEPSEEK_BASE_URL are honoured as
// environment defaults so the binary runs without a config file.
func NewDefaultConfig() *Config {
	vaultPath := os.Getenv("VAULT_PATH")
	if vaultPath == "" {
		vaultPath = "./vault"
	}
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Vault: VaultConfig{
			Path:            vaultPath,
			ExportRoot:      "Export",
			AttachmentsRoot: "Attachments",
			TemplatesDir:    "Templates",
			DefaultTemplate: "note.md",
			Folders: FoldersConfig{
				Articles: "Articles",
				Ideas:    "Ideas",
				Inbox:    "Inbox",
			},
		},
		Classifier: ClassifierConfig{
			Endpoint:       os.Getenv("DEEPSEEK_BASE_URL"),
			APIKey:         os.Getenv("DEEPSEEK_API_KEY"),
			Model:          "deepseek-chat",
			PromptBudget:   6000,
			TimeoutSeconds: 30,
		},
		Extract: ExtractConfig{
			TimeoutSeconds: 15,
			MinPDFChars:    64,
			TitleMaxLen:    80,
			OCRBinary:      "tesseract",
		},
		Journal: JournalConfig{
			Path: "./munin.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
