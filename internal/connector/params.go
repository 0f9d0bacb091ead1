package connector

import (
	"strings"

	"github.com/raaihank/pii-scanner/internal/logger"
	"github.com/raaihank/pii-scanner/internal/scanerr"
)

// Params carries the connection parameters of a scan request. Either
// ConnString or every structured field must be set. When ConnString is set
// the structured fields are ignored.
type Params struct {
	ConnString string `json:"conn_string,omitempty"`
	Host       string `json:"host,omitempty"`
	Port       string `json:"port,omitempty"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"-"`
	Database   string `json:"database,omitempty"`
	DBKind     string `json:"db_type,omitempty"`
}

// HasConnString reports whether a connection string was supplied
func (p Params) HasConnString() bool {
	return strings.TrimSpace(p.ConnString) != ""
}

// Validate checks that one complete connection form is present
func (p Params) Validate() error {
	if p.HasConnString() {
		return nil
	}

	var missing []string
	for _, f := range []struct {
		name  string
		value string
	}{
		{"host", p.Host},
		{"port", p.Port},
		{"username", p.Username},
		{"password", p.Password},
		{"database", p.Database},
		{"db_type", p.DBKind},
	} {
		if strings.TrimSpace(f.value) == "" {
			missing = append(missing, f.name)
		}
	}

	if len(missing) == 6 {
		return scanerr.Configurationf("either conn_string or structured connection parameters are required")
	}
	if len(missing) > 0 {
		return scanerr.Configurationf("missing connection parameters: %s", strings.Join(missing, ", "))
	}
	return nil
}

// String describes the target without credentials
func (p Params) String() string {
	if p.HasConnString() {
		return logger.MaskDSN(strings.TrimSpace(p.ConnString))
	}
	return p.DBKind + "://" + p.Username + "@" + p.Host + ":" + p.Port + "/" + p.Database
}
