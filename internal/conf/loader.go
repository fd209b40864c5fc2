package conf

import (
	"context"
	"flag"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ilyakaznacheev/cleanenv"
)

// Error represents a configuration loading failure with a stable code.
type Error struct {
	Code    string
	Message string
	Cause   error
}

func (e Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e Error) Unwrap() error {
	return e.Cause
}

const (
	ErrCodeInvalidType   = "CONFIG_INVALID_TYPE"
	ErrCodeFileNotFound  = "CONFIG_FILE_NOT_FOUND"
	ErrCodeValidation    = "CONFIG_VALIDATION_FAILED"
	ErrCodeEnvironment   = "CONFIG_ENV_READ_FAILED"
	ErrCodeMerge         = "CONFIG_MERGE_FAILED"
	ErrCodeSecurityCheck = "CONFIG_SECURITY_CHECK_FAILED"
)

// Validator checks a fully loaded configuration struct.
type Validator interface {
	Validate(ctx context.Context, cfg interface{}) error
}

// SecurityChecker looks for credentials that leaked into the configuration
// with obviously unsafe values.
type SecurityChecker interface {
	CheckSecurity(ctx context.Context, cfg interface{}) error
}

// Options controls how a Loader resolves configuration.
type Options struct {
	DefaultFileName string
	FileFlag        string
	FileName        string
	OnlyEnvironment bool
	Validator       Validator
	SecurityChecker SecurityChecker
	Timeout         time.Duration
}

// Loader reads configuration from the environment, merged with an optional
// env-format file. Environment variables win over file values.
type Loader struct {
	options Options
}

// Option is a functional option for configuring the loader
type Option func(*Options)

// WithDefaultFileName sets the file consulted when no flag is given.
func WithDefaultFileName(fileName string) Option {
	return func(o *Options) {
		o.DefaultFileName = fileName
	}
}

// WithFileFlag sets the command line flag naming the configuration file.
func WithFileFlag(flagName string) Option {
	return func(o *Options) {
		o.FileFlag = flagName
		o.FileName = ""
	}
}

// WithFileName pins the loader to a specific configuration file.
func WithFileName(fileName string) Option {
	return func(o *Options) {
		o.FileName = fileName
		o.FileFlag = ""
	}
}

// WithOnlyEnvironment restricts the loader to environment variables.
func WithOnlyEnvironment() Option {
	return func(o *Options) {
		o.OnlyEnvironment = true
		o.FileFlag = ""
		o.FileName = ""
	}
}

// WithValidator sets a custom validator.
func WithValidator(v Validator) Option {
	return func(o *Options) {
		o.Validator = v
	}
}

// WithSecurityChecker sets a custom security checker.
func WithSecurityChecker(sc SecurityChecker) Option {
	return func(o *Options) {
		o.SecurityChecker = sc
	}
}

// WithTimeout bounds the whole load operation.
func WithTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.Timeout = timeout
	}
}

// NewLoader creates a configuration loader with the given options.
func NewLoader(opts ...Option) *Loader {
	options := Options{
		DefaultFileName: ".env",
		FileFlag:        "config",
		Validator:       &StructValidator{},
		SecurityChecker: &CredentialChecker{},
		Timeout:         30 * time.Second,
	}

	for _, opt := range opts {
		opt(&options)
	}

	return &Loader{options: options}
}

// Load loads configuration into cfg, which must be a pointer to struct.
func (l *Loader) Load(cfg interface{}) error {
	return l.LoadWithContext(context.Background(), cfg)
}

// LoadWithContext loads configuration with context support.
func (l *Loader) LoadWithContext(ctx context.Context, cfg interface{}) error {
	if l.options.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.options.Timeout)
		defer cancel()
	}

	if reflect.ValueOf(cfg).Kind() != reflect.Ptr {
		return &Error{
			Code:    ErrCodeInvalidType,
			Message: fmt.Sprintf("configuration must be a pointer to struct, got %T", cfg),
		}
	}

	if err := l.read(cfg); err != nil {
		return err
	}

	if err := l.options.SecurityChecker.CheckSecurity(ctx, cfg); err != nil {
		return &Error{
			Code:    ErrCodeSecurityCheck,
			Message: "security validation failed",
			Cause:   err,
		}
	}

	if err := l.options.Validator.Validate(ctx, cfg); err != nil {
		return &Error{
			Code:    ErrCodeValidation,
			Message: "configuration validation failed",
			Cause:   err,
		}
	}

	return nil
}

// read resolves values with environment taking precedence over the file,
// and tag defaults filling whatever remains unset.
func (l *Loader) read(cfg interface{}) error {
	if !l.options.OnlyEnvironment {
		if fileName := l.resolveFileName(); fileName != "" {
			if err := cleanenv.ReadConfig(fileName, cfg); err != nil {
				return &Error{
					Code:    ErrCodeFileNotFound,
					Message: fmt.Sprintf("failed to read configuration file: %s", fileName),
					Cause:   err,
				}
			}
			return nil
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return &Error{
			Code:    ErrCodeEnvironment,
			Message: "failed to read environment variables",
			Cause:   err,
		}
	}
	return nil
}

func (l *Loader) resolveFileName() string {
	if l.options.FileName != "" {
		return l.options.FileName
	}

	if l.options.FileFlag == "" {
		return ""
	}

	fileName := l.fileNameFromFlag()
	if fileName == "" {
		fileName = l.defaultFileIfExists()
	}

	return fileName
}

func (l *Loader) fileNameFromFlag() string {
	f := flag.Lookup(l.options.FileFlag)
	if f != nil {
		return f.Value.String()
	}

	var fileName string
	flag.StringVar(&fileName, l.options.FileFlag, "", "Specify configuration file")
	flag.Parse()
	return fileName
}

func (l *Loader) defaultFileIfExists() string {
	if l.options.DefaultFileName == "" {
		return ""
	}

	if _, err := os.Stat(l.options.DefaultFileName); err == nil {
		return l.options.DefaultFileName
	}

	return ""
}

// StructValidator validates configuration structs using go-playground/validator.
type StructValidator struct {
	validator *validator.Validate
}

func (v *StructValidator) Validate(_ context.Context, cfg interface{}) error {
	if v.validator == nil {
		v.validator = validator.New()
	}
	return v.validator.Struct(cfg)
}

// CredentialChecker rejects configurations where a sensitive-looking string
// field carries a value that is clearly a placeholder or test credential.
type CredentialChecker struct{}

func (cc *CredentialChecker) CheckSecurity(_ context.Context, cfg interface{}) error {
	val := reflect.ValueOf(cfg).Elem()
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := val.Field(i)
		fieldType := typ.Field(i)

		if cc.isSensitiveField(fieldType.Name) && field.Kind() == reflect.String {
			if cc.isValueExposed(field.String()) {
				return fmt.Errorf("sensitive field %s appears to contain exposed credentials", fieldType.Name)
			}
		}
	}

	return nil
}

func (cc *CredentialChecker) isSensitiveField(fieldName string) bool {
	sensitiveFields := []string{"password", "secret", "key", "token", "credential"}
	fieldLower := strings.ToLower(fieldName)

	for _, sensitive := range sensitiveFields {
		if strings.Contains(fieldLower, sensitive) {
			return true
		}
	}
	return false
}

func (cc *CredentialChecker) isValueExposed(value string) bool {
	exposedPatterns := []string{"password", "123456", "admin", "test"}
	valueLower := strings.ToLower(value)

	for _, pattern := range exposedPatterns {
		if strings.Contains(valueLower, pattern) {
			return true
		}
	}
	return false
}
