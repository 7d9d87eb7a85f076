package cmdline

import (
	"fmt"
	"io"
)

const usage = `Usage: %[1]s [options]

Options:
  -r <path>           Report definition to run [required unless RPTRUN_DEFAULT_REPORT_PATH is set]
  -d <dsn>            ODBC data source name [required unless RPTRUN_DEFAULT_ODBC_DSN is set]
  -u <username>       User name for the data source
  -p <password>       Password for the data source
  -o <path>           Export destination; the extension selects the format
                      (.pdf .doc .docx .xls .xlsx .rtf .html .htm .csv)
  -P:<name> <value>   Report parameter, bound by position (e.g. -P:CustomerID 12345)
  -f <file>           File of parameter values separated by CHAR(1); replaces -P values
  -h, --help          Show this help

Without -o the report is exported to Report_<timestamp>.pdf in the current
directory and opened with the default viewer.

Examples:
  %[1]s -r /srv/reports/orders.yaml -d Sales -u admin -p secret -o /tmp/orders.pdf -P:From 2023-01-01
  %[1]s -r /srv/reports/orders.yaml -d Sales -f params.txt
`

// PrintUsage writes the help text for program to w.
func PrintUsage(w io.Writer, program string) {
	_, _ = fmt.Fprintf(w, usage, program)
}

// IsHelp reports whether args request only the help text: no arguments at
// all, or a single -h / --help.
func IsHelp(args []string) bool {
	if len(args) == 0 {
		return true
	}
	return len(args) == 1 && (args[0] == "-h" || args[0] == "--help")
}
