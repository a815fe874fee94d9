package dispatch

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	derrors "github.com/toyz/dispatch/internal/errors"
)

// Mode selects startup behaviour. Debug mode prints the route analysis.
type Mode string

const (
	ModeDebug      Mode = "debug"
	ModeProduction Mode = "production"
)

// ModeEnv is the environment variable that overrides the default mode.
const ModeEnv = "DISPATCH_MODE"

// Config is the application configuration. It is copied by Initialize and
// treated as read-only afterwards.
type Config struct {
	Mode Mode

	// Controllers are descriptors built with Controller.
	Controllers []*ClassDescriptor
	// ControllerPath is a Go file or directory scanned for controllers,
	// absolute or relative to RootPath.
	ControllerPath string
	RootPath       string
	// Types links scanned controller names to runtime types.
	Types *TypeRegistry

	Middlewares        *MiddlewareRegistry
	Binders            *BinderRegistry
	DependencyResolver DependencyResolver

	// ResponseStatus is the default status per verb. Verbs not listed use 200.
	ResponseStatus map[HttpMethod]int
	Converters     Converters
	// Validator runs after keyed validators for every bound parameter.
	Validator  ParameterValidator
	Validators map[string]ValidatorFunc
	FileParser FileParserFactory

	ErrorHandler     ErrorHandler
	Logger           *zap.Logger
	DiagnosticOutput io.Writer

	// MatchCacheSize bounds the route match cache; 0 uses the default and a
	// negative value disables caching.
	MatchCacheSize int
	// BodyLimit caps request bodies in bytes; 0 means unlimited.
	BodyLimit int64
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	mode := Mode(strings.ToLower(os.Getenv(ModeEnv)))
	if mode != ModeProduction {
		mode = ModeDebug
	}

	return &Config{
		Mode:               mode,
		Middlewares:        NewMiddlewareRegistry(),
		Binders:            NewBinderRegistry(),
		DependencyResolver: DefaultDependencyResolver{},
		ResponseStatus:     map[HttpMethod]int{},
		Validator:          DefaultValidator,
		Validators:         map[string]ValidatorFunc{},
		Converters:         Converters{},
		FileParser:         MultipartFileParser(os.TempDir()),
		ErrorHandler:       DefaultErrorHandler,
		Logger:             zap.NewNop(),
		DiagnosticOutput:   os.Stdout,
	}
}

// clone returns a copy whose maps and slices are not shared with c.
func (c *Config) clone() *Config {
	out := *c
	out.Controllers = append([]*ClassDescriptor(nil), c.Controllers...)
	out.ResponseStatus = make(map[HttpMethod]int, len(c.ResponseStatus))
	for k, v := range c.ResponseStatus {
		out.ResponseStatus[k] = v
	}
	out.Converters = make(Converters, len(c.Converters))
	for k, v := range c.Converters {
		out.Converters[k] = v
	}
	out.Validators = make(map[string]ValidatorFunc, len(c.Validators))
	for k, v := range c.Validators {
		out.Validators[k] = v
	}
	return &out
}

// withDefaults fills unset fields so the dispatch path never checks for nil.
func (c *Config) withDefaults() {
	if c.Mode == "" {
		c.Mode = ModeDebug
	}
	if c.Middlewares == nil {
		c.Middlewares = NewMiddlewareRegistry()
	}
	if c.Binders == nil {
		c.Binders = NewBinderRegistry()
	}
	if c.DependencyResolver == nil {
		c.DependencyResolver = DefaultDependencyResolver{}
	}
	if c.ErrorHandler == nil {
		c.ErrorHandler = DefaultErrorHandler
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
	if c.DiagnosticOutput == nil {
		c.DiagnosticOutput = os.Stdout
	}
}

// controllerPath resolves ControllerPath against RootPath.
func (c *Config) controllerPath() string {
	if c.ControllerPath == "" || filepath.IsAbs(c.ControllerPath) {
		return c.ControllerPath
	}
	return filepath.Join(c.RootPath, c.ControllerPath)
}

// DependencyResolver produces the controller instance an action is called on.
type DependencyResolver interface {
	Resolve(t reflect.Type) (any, error)
}

// DefaultDependencyResolver creates a new zero controller per request.
type DefaultDependencyResolver struct{}

// Resolve returns a pointer to a new zero value of t.
func (DefaultDependencyResolver) Resolve(t reflect.Type) (any, error) {
	return reflect.New(t).Interface(), nil
}

// InstanceResolver returns pre-built controller instances, falling back to
// DefaultDependencyResolver for types it does not hold.
type InstanceResolver struct {
	instances map[reflect.Type]any
}

// NewInstanceResolver creates a resolver for the given controller pointers.
func NewInstanceResolver(instances ...any) *InstanceResolver {
	r := &InstanceResolver{instances: make(map[reflect.Type]any, len(instances))}
	for _, inst := range instances {
		t := reflect.TypeOf(inst)
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		r.instances[t] = inst
	}
	return r
}

// Resolve returns the instance registered for t.
func (r *InstanceResolver) Resolve(t reflect.Type) (any, error) {
	if inst, ok := r.instances[t]; ok {
		return inst, nil
	}
	return DefaultDependencyResolver{}.Resolve(t)
}

// FileUploadInfo describes a stored upload.
type FileUploadInfo struct {
	Field        string `json:"field"`
	FileName     string `json:"fileName"`
	OriginalName string `json:"originalName"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
}

// FileParser stores the files uploaded with a request.
type FileParser interface {
	Save(subDirectory ...string) ([]FileUploadInfo, error)
}

// FileParserFactory creates the FileParser bound to Bind.File parameters.
type FileParserFactory func(c *Context) FileParser

// MultipartFileParser stores multipart uploads under dir with generated names.
func MultipartFileParser(dir string) FileParserFactory {
	return func(c *Context) FileParser {
		return &multipartFileParser{context: c, dir: dir}
	}
}

type multipartFileParser struct {
	context *Context
	dir     string
}

func (p *multipartFileParser) Save(subDirectory ...string) ([]FileUploadInfo, error) {
	r := p.context.Request
	if r.MultipartForm == nil {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			return nil, ErrBadRequest("invalid multipart body")
		}
	}

	dir := filepath.Join(append([]string{p.dir}, subDirectory...)...)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, derrors.WrapFileSystemError("create upload directory", dir, err)
	}

	var infos []FileUploadInfo
	for field, headers := range r.MultipartForm.File {
		for _, header := range headers {
			info, err := saveUpload(dir, field, header)
			if err != nil {
				return nil, err
			}
			infos = append(infos, info)
		}
	}
	return infos, nil
}

func saveUpload(dir, field string, header *multipart.FileHeader) (FileUploadInfo, error) {
	src, err := header.Open()
	if err != nil {
		return FileUploadInfo{}, err
	}
	defer src.Close()

	name := uuid.NewString() + filepath.Ext(header.Filename)
	path := filepath.Join(dir, name)
	dst, err := os.Create(path)
	if err != nil {
		return FileUploadInfo{}, derrors.WrapFileSystemError("create upload", path, err)
	}
	defer dst.Close()

	size, err := io.Copy(dst, src)
	if err != nil {
		return FileUploadInfo{}, derrors.WrapFileSystemError("write upload", path, err)
	}

	return FileUploadInfo{
		Field:        field,
		FileName:     path,
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		Size:         size,
	}, nil
}

// FileConfig is the serializable subset of Config.
type FileConfig struct {
	Mode           string         `yaml:"mode"`
	ControllerPath string         `yaml:"controllerPath"`
	RootPath       string         `yaml:"rootPath"`
	ResponseStatus map[string]int `yaml:"responseStatus"`
	MatchCacheSize int            `yaml:"matchCacheSize"`
	BodyLimit      int64          `yaml:"bodyLimit"`
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// LoadConfigFile reads a YAML configuration file. ${VAR} and
// ${VAR:-default} references are substituted from the environment.
func LoadConfigFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, derrors.WrapFileSystemError("read config", path, err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML configuration data.
func ParseConfig(data []byte) (*FileConfig, error) {
	content := envVarPattern.ReplaceAllStringFunc(string(data), func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if value, ok := os.LookupEnv(groups[1]); ok {
			return value
		}
		return groups[2]
	})

	var fc FileConfig
	if err := yaml.Unmarshal([]byte(content), &fc); err != nil {
		return nil, derrors.WrapConfigurationError("file", "parse", err)
	}
	if err := fc.validate(); err != nil {
		return nil, err
	}
	return &fc, nil
}

func (fc *FileConfig) validate() error {
	switch Mode(strings.ToLower(fc.Mode)) {
	case "", ModeDebug, ModeProduction:
	default:
		return derrors.ConfigurationError("file", fmt.Sprintf("invalid mode %q, expected debug or production", fc.Mode))
	}
	for verb, status := range fc.ResponseStatus {
		if _, err := ParseHttpMethod(verb); err != nil {
			return derrors.ConfigurationError("file", fmt.Sprintf("invalid responseStatus verb %q", verb))
		}
		if status < 100 || status > 599 {
			return derrors.ConfigurationError("file", fmt.Sprintf("invalid responseStatus %d for %s", status, verb))
		}
	}
	if fc.BodyLimit < 0 {
		return derrors.ConfigurationError("file", "bodyLimit cannot be negative")
	}
	return nil
}

// Apply copies the set fields onto cfg.
func (fc *FileConfig) Apply(cfg *Config) {
	if fc.Mode != "" {
		cfg.Mode = Mode(strings.ToLower(fc.Mode))
	}
	if fc.ControllerPath != "" {
		cfg.ControllerPath = fc.ControllerPath
	}
	if fc.RootPath != "" {
		cfg.RootPath = fc.RootPath
	}
	if len(fc.ResponseStatus) > 0 && cfg.ResponseStatus == nil {
		cfg.ResponseStatus = make(map[HttpMethod]int, len(fc.ResponseStatus))
	}
	for verb, status := range fc.ResponseStatus {
		if method, err := ParseHttpMethod(verb); err == nil {
			cfg.ResponseStatus[method] = status
		}
	}
	if fc.MatchCacheSize != 0 {
		cfg.MatchCacheSize = fc.MatchCacheSize
	}
	if fc.BodyLimit != 0 {
		cfg.BodyLimit = fc.BodyLimit
	}
}
