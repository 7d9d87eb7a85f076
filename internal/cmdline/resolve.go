package cmdline

import (
	"context"
	"log/slog"

	"github.com/ashita-ai/rptrun/internal/config"
	"github.com/ashita-ai/rptrun/internal/model"
)

// Defaults supplies named fallback values for absent flags.
type Defaults interface {
	Default(name string) string
}

// ParameterLoader reads the values of a parameter file.
type ParameterLoader interface {
	Load(ctx context.Context, path string) []string
}

// Resolver builds RunRequests from parsed flags.
type Resolver struct {
	defaults Defaults
	loader   ParameterLoader
	logger   *slog.Logger
}

// NewResolver creates a Resolver.
func NewResolver(defaults Defaults, loader ParameterLoader, logger *slog.Logger) *Resolver {
	return &Resolver{defaults: defaults, loader: loader, logger: logger}
}

// Resolve merges flags, configured defaults and the optional parameter file
// into a RunRequest. Missing mandatory values are logged and left empty;
// callers check RunRequest.IsValid.
func (r *Resolver) Resolve(ctx context.Context, flags Flags) model.RunRequest {
	req := model.RunRequest{
		ReportPath: r.required(flags, FlagReport, config.DefaultReportPath, "report"),
		DSN:        r.required(flags, FlagDSN, config.DefaultOdbcDsn, "DSN"),
		Username:   flags.Get(FlagUser),
		Password:   flags.Get(FlagPassword),
		OutputPath: r.optional(flags, FlagOutput, config.DefaultOutputPath),
		Parameters: flags.ParameterValues(),
	}

	if path, ok := flags.Lookup(FlagParameterFile); ok {
		req.ParameterFile = path
		if len(req.Parameters) > 0 {
			r.logger.Warn("cmdline: parameter file replaces -P values", "file", path, "ignored", len(req.Parameters))
		}
		r.logger.Info("cmdline: reading parameters from file", "file", path)
		req.Parameters = r.loader.Load(ctx, path)
	}
	return req
}

func (r *Resolver) required(flags Flags, key, defaultName, what string) string {
	if v, ok := flags.Lookup(key); ok {
		return v
	}
	if v := r.defaults.Default(defaultName); v != "" {
		r.logger.Info("cmdline: flag not given, using configured default", "flag", key, "default", defaultName, "value", v)
		return v
	}
	r.logger.Error("cmdline: mandatory flag missing and no default configured", "flag", key, "input", what)
	return ""
}

func (r *Resolver) optional(flags Flags, key, defaultName string) string {
	if v, ok := flags.Lookup(key); ok {
		return v
	}
	if v := r.defaults.Default(defaultName); v != "" {
		r.logger.Info("cmdline: flag not given, using configured default", "flag", key, "default", defaultName, "value", v)
		return v
	}
	return ""
}
