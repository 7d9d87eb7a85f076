// Package model defines the core domain types for rptrun.
//
// RunRequest is built once per process from the command line and configured
// defaults. ParameterSlot and Binding only live for the duration of a single
// report execution.
package model

// RunRequest is the fully resolved invocation of a single report run.
// It is immutable once returned by the resolver.
type RunRequest struct {
	ReportPath    string
	DSN           string
	Username      string
	Password      string
	OutputPath    string
	ParameterFile string

	// Parameters holds raw parameter values in binding order. Values loaded
	// from ParameterFile replace the ones given with -P:<name> flags.
	Parameters []string
}

// IsValid reports whether both mandatory inputs are present.
func (r RunRequest) IsValid() bool {
	return r.ReportPath != "" && r.DSN != ""
}

// ConnectionInfo is the logon descriptor applied to every table of a report.
// ServerName carries the ODBC data source name; DatabaseName is left empty
// because the DSN already selects the database.
type ConnectionInfo struct {
	ServerName   string
	DatabaseName string
	UserID       string
	Password     string
}

// Connection builds the ConnectionInfo for this request.
func (r RunRequest) Connection() ConnectionInfo {
	return ConnectionInfo{
		ServerName: r.DSN,
		UserID:     r.Username,
		Password:   r.Password,
	}
}
