// Package datasource turns the DSN a report run is given into a database
// connection. Named DSNs are looked up in the unixODBC odbc.ini files;
// connection URLs are used as-is.
package datasource

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-ini/ini"

	"github.com/ashita-ai/rptrun/internal/model"
)

var (
	// ErrUnknownDSN is returned when a DSN name has no section in any odbc.ini.
	ErrUnknownDSN = errors.New("datasource: unknown DSN")
	// ErrUnsupportedDriver is returned for drivers other than Postgres and SQLite.
	ErrUnsupportedDriver = errors.New("datasource: unsupported driver")
)

// Driver identifies the database/sql driver a Source opens with.
type Driver string

const (
	DriverPostgres Driver = "pgx"
	DriverSQLite   Driver = "sqlite"
)

// Placeholder returns the bind placeholder for the n-th (1-based) argument.
func (d Driver) Placeholder(n int) string {
	if d == DriverPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Source is a resolved, openable data source.
type Source struct {
	Name   string // DSN as given by the caller
	Driver Driver
	DSN    string // driver connection string
}

// Redacted returns the connection string with any password masked.
func (s Source) Redacted() string {
	if u, err := url.Parse(s.DSN); err == nil && u.User != nil {
		return u.Redacted()
	}
	return s.DSN
}

// Paths returns the odbc.ini files to read, system file first so that the
// user file overrides it. Empty arguments fall back to the unixODBC defaults.
func Paths(userIni, sysIniDir string) []string {
	system := "/etc/odbc.ini"
	if sysIniDir != "" {
		system = filepath.Join(sysIniDir, "odbc.ini")
	}
	user := userIni
	if user == "" {
		if home, err := os.UserHomeDir(); err == nil {
			user = filepath.Join(home, ".odbc.ini")
		}
	}
	if user == "" {
		return []string{system}
	}
	return []string{system, user}
}

// Registry holds the DSN definitions read from odbc.ini files.
type Registry struct {
	file   *ini.File
	logger *slog.Logger
}

// LoadRegistry reads paths in order; missing files are skipped and later
// files override earlier ones. Key names are case-insensitive.
func LoadRegistry(paths []string, logger *slog.Logger) (*Registry, error) {
	sources := make([]any, 0, len(paths))
	for _, p := range paths {
		sources = append(sources, p)
	}
	var (
		f   *ini.File
		err error
	)
	if len(sources) == 0 {
		f = ini.Empty()
	} else {
		f, err = ini.LoadSources(ini.LoadOptions{Loose: true, InsensitiveKeys: true}, sources[0], sources[1:]...)
		if err != nil {
			return nil, fmt.Errorf("datasource: load odbc.ini: %w", err)
		}
	}
	logger.Debug("datasource: registry loaded", "paths", paths, "sections", len(f.Sections()))
	return &Registry{file: f, logger: logger}, nil
}

// Names lists the defined DSNs.
func (r *Registry) Names() []string {
	var names []string
	for _, s := range r.file.Sections() {
		if isReserved(s.Name()) {
			continue
		}
		names = append(names, s.Name())
	}
	return names
}

// Resolve maps the connection info applied to a report table to a Source.
// ServerName carries the DSN. Credentials in info override those in the
// odbc.ini section.
func (r *Registry) Resolve(info model.ConnectionInfo) (Source, error) {
	name := strings.TrimSpace(info.ServerName)
	if name == "" {
		return Source{}, fmt.Errorf("%w: empty name", ErrUnknownDSN)
	}
	if strings.Contains(name, "://") || strings.HasPrefix(name, "file:") {
		return fromURL(name, info)
	}

	section := r.section(name)
	if section == nil {
		return Source{}, fmt.Errorf("%w: %q", ErrUnknownDSN, name)
	}

	driver, err := driverFor(section.Key("Driver").String())
	if err != nil {
		return Source{}, fmt.Errorf("datasource: DSN %q: %w", name, err)
	}
	database := first(section, "Database")
	src := Source{Name: name, Driver: driver}

	switch driver {
	case DriverSQLite:
		if database == "" {
			return Source{}, fmt.Errorf("datasource: DSN %q: sqlite requires Database", name)
		}
		src.DSN = database
	case DriverPostgres:
		host := first(section, "Servername", "Server", "Host")
		if host == "" {
			host = "localhost"
		}
		if port := first(section, "Port"); port != "" {
			host = net.JoinHostPort(host, port)
		}
		user := coalesce(info.UserID, first(section, "UserName", "UID", "User"))
		password := coalesce(info.Password, first(section, "Password", "PWD"))

		u := url.URL{Scheme: "postgres", Host: host, Path: "/" + database}
		if user != "" {
			if password != "" {
				u.User = url.UserPassword(user, password)
			} else {
				u.User = url.User(user)
			}
		}
		if mode := first(section, "SSLMode"); mode != "" {
			u.RawQuery = url.Values{"sslmode": {mode}}.Encode()
		}
		src.DSN = u.String()
	}

	r.logger.Debug("datasource: resolved DSN", "dsn", name, "driver", string(src.Driver), "target", src.Redacted())
	return src, nil
}

func (r *Registry) section(name string) *ini.Section {
	for _, s := range r.file.Sections() {
		if isReserved(s.Name()) {
			continue
		}
		if strings.EqualFold(s.Name(), name) {
			return s
		}
	}
	return nil
}

func fromURL(raw string, info model.ConnectionInfo) (Source, error) {
	if strings.HasPrefix(raw, "file:") {
		return Source{Name: raw, Driver: DriverSQLite, DSN: raw}, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return Source{}, fmt.Errorf("datasource: parse URL: %w", err)
	}
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		if info.UserID != "" {
			password, _ := u.User.Password()
			password = coalesce(info.Password, password)
			if password != "" {
				u.User = url.UserPassword(info.UserID, password)
			} else {
				u.User = url.User(info.UserID)
			}
		}
		return Source{Name: raw, Driver: DriverPostgres, DSN: u.String()}, nil
	case "sqlite", "sqlite3":
		path := u.Opaque
		if path == "" {
			path = u.Host + u.Path
		}
		return Source{Name: raw, Driver: DriverSQLite, DSN: path}, nil
	default:
		return Source{}, fmt.Errorf("%w: %q", ErrUnsupportedDriver, u.Scheme)
	}
}

// driverFor accepts a driver name or the path of an ODBC driver library.
func driverFor(driver string) (Driver, error) {
	d := strings.ToLower(strings.TrimSpace(driver))
	switch {
	case strings.Contains(d, "psql"), strings.Contains(d, "postgres"), d == "pgx":
		return DriverPostgres, nil
	case strings.Contains(d, "sqlite"):
		return DriverSQLite, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
}

func isReserved(section string) bool {
	switch strings.ToUpper(section) {
	case strings.ToUpper(ini.DefaultSection), "ODBC", "ODBC DATA SOURCES":
		return true
	}
	return false
}

func first(s *ini.Section, keys ...string) string {
	for _, k := range keys {
		if s.HasKey(k) {
			if v := strings.TrimSpace(s.Key(k).String()); v != "" {
				return v
			}
		}
	}
	return ""
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
